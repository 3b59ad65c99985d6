package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Site struct {
			Name       string  `yaml:"name"`
			Latitude   float64 `yaml:"latitude"`
			Longitude  float64 `yaml:"longitude"`
			Altitude   float64 `yaml:"altitude"`
			WindHeight float64 `yaml:"wind_height"`
			AngstromA  float64 `yaml:"angstrom_a"`
			AngstromB  float64 `yaml:"angstrom_b"`
		} `yaml:"site"`
		Dataset struct {
			Path string `yaml:"path"`
		} `yaml:"dataset"`
		Analysis struct {
			Scales   []int  `yaml:"scales"`
			Kernel   string `yaml:"kernel"`
			Shift    int    `yaml:"shift"`
			CacheDir string `yaml:"cache_dir"`
		} `yaml:"analysis"`
		Plots struct {
			Dir string `yaml:"dir"`
		} `yaml:"plots"`
		Storage struct {
			Postgres *struct {
				ConnectionString string `yaml:"connection_string"`
			} `yaml:"postgres"`
			SQLite *struct {
				Path string `yaml:"path"`
			} `yaml:"sqlite"`
		} `yaml:"storage"`
		HTTP *struct {
			ListenAddr string `yaml:"listen_addr"`
			Port       int    `yaml:"port"`
			Schedule   string `yaml:"schedule"`
		} `yaml:"http"`
	}

	err = yaml.Unmarshal(cfgFile, &yamlConfig)
	if err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		Site: SiteData{
			Name:       yamlConfig.Site.Name,
			Latitude:   yamlConfig.Site.Latitude,
			Longitude:  yamlConfig.Site.Longitude,
			Altitude:   yamlConfig.Site.Altitude,
			WindHeight: yamlConfig.Site.WindHeight,
			AngstromA:  yamlConfig.Site.AngstromA,
			AngstromB:  yamlConfig.Site.AngstromB,
		},
		Dataset: DatasetData{
			Path: yamlConfig.Dataset.Path,
		},
		Analysis: AnalysisData{
			Scales:   yamlConfig.Analysis.Scales,
			Kernel:   yamlConfig.Analysis.Kernel,
			Shift:    yamlConfig.Analysis.Shift,
			CacheDir: yamlConfig.Analysis.CacheDir,
		},
		Plots: PlotsData{
			Dir: yamlConfig.Plots.Dir,
		},
	}

	if yamlConfig.Storage.Postgres != nil {
		config.Storage.Postgres = &PostgresData{
			ConnectionString: yamlConfig.Storage.Postgres.ConnectionString,
		}
	}
	if yamlConfig.Storage.SQLite != nil {
		config.Storage.SQLite = &SQLiteData{
			Path: yamlConfig.Storage.SQLite.Path,
		}
	}
	if yamlConfig.HTTP != nil {
		config.HTTP = &HTTPData{
			ListenAddr: yamlConfig.HTTP.ListenAddr,
			Port:       yamlConfig.HTTP.Port,
			Schedule:   yamlConfig.HTTP.Schedule,
		}
	}

	if err := validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// IsReadOnly returns true; YAML configs are never written by the application
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML providers
func (y *YAMLProvider) Close() error {
	return nil
}

func validate(c *ConfigData) error {
	if c.Dataset.Path == "" {
		return fmt.Errorf("dataset.path must be set")
	}
	if c.Site.Latitude < -90 || c.Site.Latitude > 90 {
		return fmt.Errorf("site.latitude %.4f out of range", c.Site.Latitude)
	}
	if c.Site.Longitude < -180 || c.Site.Longitude > 180 {
		return fmt.Errorf("site.longitude %.4f out of range", c.Site.Longitude)
	}
	for _, s := range c.Analysis.Scales {
		if s < 1 {
			return fmt.Errorf("analysis.scales entries must be at least 1, got %d", s)
		}
	}
	return nil
}
