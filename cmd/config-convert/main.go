package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/wxtools/droughtindex/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file (required)")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite database file (required)")
		force      = flag.Bool("force", false, "Overwrite existing SQLite database")
		dryRun     = flag.Bool("dry-run", false, "Show what would be done without executing")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Check if YAML file exists
	if _, err := os.Stat(*yamlFile); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: YAML file does not exist: %s\n", *yamlFile)
		os.Exit(1)
	}

	// Check if SQLite file already exists
	if _, err := os.Stat(*sqliteFile); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Error: SQLite file already exists: %s\n", *sqliteFile)
		fmt.Fprintf(os.Stderr, "Use -force to overwrite or choose a different filename\n")
		os.Exit(1)
	}

	fmt.Printf("Converting YAML configuration to SQLite...\n")
	fmt.Printf("  Source: %s\n", *yamlFile)
	fmt.Printf("  Target: %s\n", *sqliteFile)

	// Load YAML configuration
	fmt.Printf("Loading YAML configuration...\n")
	yamlProvider := config.NewYAMLProvider(*yamlFile)
	configData, err := yamlProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML configuration: %v\n", err)
		os.Exit(1)
	}

	if *dryRun {
		printConfigSummary(configData)
		fmt.Println("DRY RUN complete - no database created")
		return
	}

	// Remove existing SQLite file if force is specified
	if *force {
		if err := os.Remove(*sqliteFile); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error removing existing SQLite file: %v\n", err)
			os.Exit(1)
		}
	}

	// Create SQLite database and insert the configuration
	fmt.Printf("Creating SQLite database...\n")
	sqliteProvider, err := config.NewSQLiteProvider(*sqliteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating SQLite database: %v\n", err)
		os.Exit(1)
	}
	defer sqliteProvider.Close()

	fmt.Printf("Loading configuration into SQLite database...\n")
	if err := sqliteProvider.SaveConfig(configData); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration into SQLite: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Conversion completed successfully!\n")
	fmt.Printf("You can now use the SQLite backend with: -config-backend sqlite -config %s\n", *sqliteFile)
}

func printConfigSummary(configData *config.ConfigData) {
	fmt.Println("\nConfiguration Summary:")
	fmt.Printf("Site: %s (%.4f, %.4f) at %.0f m\n",
		configData.Site.Name, configData.Site.Latitude,
		configData.Site.Longitude, configData.Site.Altitude)
	fmt.Printf("Dataset: %s\n", configData.Dataset.Path)

	scales := configData.Analysis.Scales
	if len(scales) == 0 {
		scales = []int{1, 12}
	}
	fmt.Printf("Scales: %v\n", scales)

	fmt.Printf("Storage Backends:\n")
	if configData.Storage.Postgres != nil {
		fmt.Printf("  - PostgreSQL: %s\n", configData.Storage.Postgres.ConnectionString)
	}
	if configData.Storage.SQLite != nil {
		fmt.Printf("  - SQLite export: %s\n", configData.Storage.SQLite.Path)
	}
	if configData.HTTP != nil {
		fmt.Printf("HTTP: %s:%d schedule %q\n",
			configData.HTTP.ListenAddr, configData.HTTP.Port, configData.HTTP.Schedule)
	}
}
