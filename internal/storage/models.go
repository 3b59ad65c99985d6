package storage

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisRun records one completed pipeline run.
type AnalysisRun struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	SiteName        string    `gorm:"index"`
	Latitude        float64
	Longitude       float64
	Altitude        float64
	DatasetChecksum string `gorm:"index"`
	Rows            int
	PatchedCells    int
	StartedAt       time.Time
	CompletedAt     time.Time
}

// TableName overrides the GORM default
func (AnalysisRun) TableName() string {
	return "analysis_runs"
}

// MonthRecord is one observed row of the climate table as persisted.
type MonthRecord struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	RunID      uuid.UUID `gorm:"type:uuid;index"`
	Year       int
	Month      int
	Precip     float64
	TempMax    float64
	TempMin    float64
	TempMean   float64
	WindSpeed  float64
	SunHours   float64
	CloudCover float64
}

// TableName overrides the GORM default
func (MonthRecord) TableName() string {
	return "month_records"
}

// SeriesPoint is one value of a derived column. NaN cells (incomplete
// aggregation windows) persist as NULL.
type SeriesPoint struct {
	ID       int64     `gorm:"primaryKey;autoIncrement"`
	RunID    uuid.UUID `gorm:"type:uuid;index:idx_series_run_col"`
	Column   string    `gorm:"column:column_name;index:idx_series_run_col"`
	RowIndex int
	Value    *float64
}

// TableName overrides the GORM default
func (SeriesPoint) TableName() string {
	return "series_points"
}
