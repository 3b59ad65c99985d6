package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/wxtools/droughtindex/internal/app"
	"github.com/wxtools/droughtindex/internal/log"
	"github.com/wxtools/droughtindex/pkg/config"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to configuration source:\n\t\t\t  YAML: config.yaml\n\t\t\t  SQLite: config.db\n\t\t\t  Use 'config-convert' tool to convert YAML→SQLite")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' for YAML files, 'sqlite' for SQLite databases")
	mode := flag.String("mode", "compute", "Run mode: 'compute' runs the analysis once, 'serve' also starts the HTTP server and scheduler")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("droughtindex %s\n", version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Load configuration
	provider, err := configProvider(*cfgFile, *cfgBackend)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	defer provider.Close()

	// Create and run the application
	application := app.New(provider, log.GetSugaredLogger())

	switch *mode {
	case "compute":
		err = application.RunCompute(context.Background())
	case "serve":
		err = application.RunServe(context.Background())
	default:
		err = fmt.Errorf("unsupported mode: %s. Use 'compute' or 'serve'", *mode)
	}
	if err != nil {
		log.Errorf("Application error: %v", err)
		os.Exit(1)
	}
}

func configProvider(cfgFile, cfgBackend string) (config.ConfigProvider, error) {
	filename, _ := filepath.Abs(cfgFile)

	switch cfgBackend {
	case "yaml":
		return config.NewYAMLProvider(filename), nil
	case "sqlite":
		provider, err := config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
}
