// Package storage persists analysis runs: a PostgreSQL archive over GORM and
// a single-file SQLite export for sharing results.
package storage

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wxtools/droughtindex/internal/pipeline"
)

// Client holds the connection to the PostgreSQL run archive
type Client struct {
	dsn    string
	DB     *gorm.DB // Exported so it can be accessed from other packages
	logger *zap.SugaredLogger
}

// NewClient creates a new database client
func NewClient(dsn string, logger *zap.SugaredLogger) *Client {
	return &Client{
		dsn:    dsn,
		logger: logger,
	}
}

// Connect connects to the PostgreSQL database and migrates the schema
func (c *Client) Connect() error {
	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(c.logger.Desugar()),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			Colorful:                  true,        // Use colors
		},
	)

	c.logger.Info("connecting to PostgreSQL...")
	db, err := gorm.Open(postgres.Open(c.dsn), &gorm.Config{Logger: dbLogger})
	if err != nil {
		c.logger.Warn("warning: unable to create a PostgreSQL connection:", err)
		return err
	}
	c.DB = db
	c.logger.Info("PostgreSQL connection successful")

	if err := c.DB.AutoMigrate(&AnalysisRun{}, &MonthRecord{}, &SeriesPoint{}); err != nil {
		return fmt.Errorf("migrating run archive schema: %w", err)
	}
	return nil
}

// SaveRun persists a completed pipeline run: the run row, the observed
// months, and every derived column.
func (c *Client) SaveRun(result *pipeline.Result) error {
	if c.DB == nil {
		return fmt.Errorf("not connected")
	}

	run := AnalysisRun{
		ID:              result.RunID,
		SiteName:        result.Site.Name,
		Latitude:        result.Site.Latitude,
		Longitude:       result.Site.Longitude,
		Altitude:        result.Site.Altitude,
		DatasetChecksum: result.Table.Checksum,
		Rows:            result.Table.Len(),
		PatchedCells:    result.PatchedCells,
		StartedAt:       result.StartedAt,
		CompletedAt:     result.CompletedAt,
	}

	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return fmt.Errorf("inserting run: %w", err)
		}

		records := make([]MonthRecord, 0, result.Table.Len())
		for _, r := range result.Table.Rows() {
			records = append(records, MonthRecord{
				RunID:      result.RunID,
				Year:       r.Year,
				Month:      int(r.Month),
				Precip:     r.Precip,
				TempMax:    r.TempMax,
				TempMin:    r.TempMin,
				TempMean:   r.TempMean,
				WindSpeed:  r.WindSpeed,
				SunHours:   r.SunHours,
				CloudCover: r.CloudCover,
			})
		}
		if err := tx.CreateInBatches(records, 500).Error; err != nil {
			return fmt.Errorf("inserting month records: %w", err)
		}

		for _, col := range result.Table.Columns() {
			values, _ := result.Table.Column(col)
			points := make([]SeriesPoint, 0, len(values))
			for i, v := range values {
				point := SeriesPoint{
					RunID:    result.RunID,
					Column:   col,
					RowIndex: i,
				}
				if !math.IsNaN(v) {
					value := v
					point.Value = &value
				}
				points = append(points, point)
			}
			if err := tx.CreateInBatches(points, 500).Error; err != nil {
				return fmt.Errorf("inserting column %q: %w", col, err)
			}
		}
		return nil
	})
}

// ListRuns returns the archived runs, newest first.
func (c *Client) ListRuns(limit int) ([]AnalysisRun, error) {
	if c.DB == nil {
		return nil, fmt.Errorf("not connected")
	}
	var runs []AnalysisRun
	q := c.DB.Order("completed_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	return runs, nil
}
