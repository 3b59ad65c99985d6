// Package dataset holds the monthly climate table: the observed columns loaded
// from disk plus any derived columns appended by the analysis pipeline.
package dataset

import (
	"fmt"
	"math"
	"time"
)

// Month is one row of the monthly climate table.
type Month struct {
	Year       int
	Month      time.Month
	Precip     float64 // total precipitation (mm)
	TempMax    float64 // mean daily maximum temperature (°C)
	TempMin    float64 // mean daily minimum temperature (°C)
	TempMean   float64 // mean temperature (°C)
	WindSpeed  float64 // mean wind speed (m/s)
	SunHours   float64 // mean daily bright sunshine (hours)
	CloudCover float64 // mean cloud cover (%)
}

// Table is an ordered monthly series with derived columns aligned by row.
// Rows are strictly consecutive months; every derived column has exactly
// one value per row.
type Table struct {
	rows     []Month
	derived  map[string][]float64
	order    []string
	Checksum string // SHA-256 of the source file, set by LoadCSV
}

// NewTable builds a table from pre-parsed rows, validating month contiguity.
func NewTable(rows []Month) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}
	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1], rows[i]
		wantYear, wantMonth := prev.Year, prev.Month+1
		if wantMonth > time.December {
			wantYear++
			wantMonth = time.January
		}
		if cur.Year != wantYear || cur.Month != wantMonth {
			return nil, fmt.Errorf("non-contiguous months: %d-%02d followed by %d-%02d",
				prev.Year, prev.Month, cur.Year, cur.Month)
		}
	}
	return &Table{
		rows:    rows,
		derived: make(map[string][]float64),
	}, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Rows returns the observed rows. Callers must not mutate the slice.
func (t *Table) Rows() []Month { return t.rows }

// TimeIndex returns the first-of-month UTC timestamp for every row.
func (t *Table) TimeIndex() []time.Time {
	idx := make([]time.Time, len(t.rows))
	for i, r := range t.rows {
		idx[i] = time.Date(r.Year, r.Month, 1, 0, 0, 0, 0, time.UTC)
	}
	return idx
}

// Months returns the calendar month of every row.
func (t *Table) Months() []time.Month {
	out := make([]time.Month, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Month
	}
	return out
}

// Years returns the year of every row.
func (t *Table) Years() []int {
	out := make([]int, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Year
	}
	return out
}

// Precip returns the precipitation column.
func (t *Table) Precip() []float64 {
	out := make([]float64, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Precip
	}
	return out
}

// AddColumn appends a derived column. The column must be row-aligned and the
// name must not collide with an existing derived column.
func (t *Table) AddColumn(name string, values []float64) error {
	if len(values) != len(t.rows) {
		return fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), len(t.rows))
	}
	if _, exists := t.derived[name]; exists {
		return fmt.Errorf("column %q already exists", name)
	}
	t.derived[name] = values
	t.order = append(t.order, name)
	return nil
}

// Column returns a derived column by name.
func (t *Table) Column(name string) ([]float64, bool) {
	c, ok := t.derived[name]
	return c, ok
}

// Columns returns the derived column names in insertion order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// PatchMissing replaces NaN cells in the observed columns with zero and
// returns the number of cells patched. Sunshine and cloud cover are left
// untouched: a zero there would read as fully overcast, and the
// Penman-Monteith estimator already consumes those gaps through its
// sunshine-fraction fallback.
func (t *Table) PatchMissing() int {
	patched := 0
	for i := range t.rows {
		r := &t.rows[i]
		for _, f := range []*float64{
			&r.Precip, &r.TempMax, &r.TempMin, &r.TempMean, &r.WindSpeed,
		} {
			if math.IsNaN(*f) {
				*f = 0
				patched++
			}
		}
	}
	return patched
}
