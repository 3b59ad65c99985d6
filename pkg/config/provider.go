// Package config loads droughtindex configuration from YAML files or SQLite
// databases behind a common provider interface.
package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Configuration management
	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Site     SiteData     `json:"site"`
	Dataset  DatasetData  `json:"dataset"`
	Analysis AnalysisData `json:"analysis"`
	Plots    PlotsData    `json:"plots,omitempty"`
	Storage  StorageData  `json:"storage,omitempty"`
	HTTP     *HTTPData    `json:"http,omitempty"`
}

// SiteData describes the observation site the dataset was recorded at
type SiteData struct {
	Name       string  `json:"name"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Altitude   float64 `json:"altitude"`
	WindHeight float64 `json:"wind_height,omitempty"`
	AngstromA  float64 `json:"angstrom_a,omitempty"`
	AngstromB  float64 `json:"angstrom_b,omitempty"`
}

// DatasetData locates the monthly climate CSV
type DatasetData struct {
	Path string `json:"path"`
}

// AnalysisData holds the index computation parameters
type AnalysisData struct {
	Scales   []int  `json:"scales,omitempty"`    // default {1, 12}
	Kernel   string `json:"kernel,omitempty"`    // default rectangular
	Shift    int    `json:"shift,omitempty"`     // kernel delay in months
	CacheDir string `json:"cache_dir,omitempty"` // fit cache; empty disables
}

// PlotsData holds chart rendering configuration
type PlotsData struct {
	Dir string `json:"dir,omitempty"` // default "plots"
}

// StorageData holds the configuration for persistence backends
type StorageData struct {
	Postgres *PostgresData `json:"postgres,omitempty"`
	SQLite   *SQLiteData   `json:"sqlite,omitempty"`
}

// PostgresData configures the PostgreSQL run archive
type PostgresData struct {
	ConnectionString string `json:"connection_string"`
}

// SQLiteData configures the SQLite results export
type SQLiteData struct {
	Path string `json:"path"`
}

// HTTPData configures the REST server and serve-mode scheduler
type HTTPData struct {
	ListenAddr string `json:"listen_addr,omitempty"`
	Port       int    `json:"port,omitempty"`
	Schedule   string `json:"schedule,omitempty"` // cron expression for re-runs
}
