package dataset

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// csvHeader is the required column layout for monthly climate CSV files.
var csvHeader = []string{
	"year", "month", "precip_mm", "tmax_c", "tmin_c", "tmean_c",
	"wind_ms", "sun_hours", "cloud_pct",
}

// LoadCSV reads a monthly climate dataset from a CSV file. Empty cells and
// "NA" parse as NaN so gaps survive the load and can be patched or rejected
// downstream. The file's SHA-256 is recorded on the table for cache keying.
func LoadCSV(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}

	reader := csv.NewReader(strings.NewReader(string(raw)))
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing dataset CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("dataset %s has no data rows", path)
	}

	if err := checkHeader(records[0]); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}

	rows := make([]Month, 0, len(records)-1)
	for i, rec := range records[1:] {
		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("dataset %s row %d: %w", path, i+2, err)
		}
		rows = append(rows, row)
	}

	table, err := NewTable(rows)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}

	sum := sha256.Sum256(raw)
	table.Checksum = hex.EncodeToString(sum[:])
	return table, nil
}

func checkHeader(got []string) error {
	if len(got) != len(csvHeader) {
		return fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(got))
	}
	for i, want := range csvHeader {
		if strings.TrimSpace(strings.ToLower(got[i])) != want {
			return fmt.Errorf("column %d: expected %q, got %q", i+1, want, got[i])
		}
	}
	return nil
}

func parseRow(rec []string) (Month, error) {
	var m Month

	year, err := strconv.Atoi(strings.TrimSpace(rec[0]))
	if err != nil {
		return m, fmt.Errorf("bad year %q", rec[0])
	}
	monthNum, err := strconv.Atoi(strings.TrimSpace(rec[1]))
	if err != nil || monthNum < 1 || monthNum > 12 {
		return m, fmt.Errorf("bad month %q", rec[1])
	}

	m.Year = year
	m.Month = time.Month(monthNum)

	fields := []*float64{
		&m.Precip, &m.TempMax, &m.TempMin, &m.TempMean,
		&m.WindSpeed, &m.SunHours, &m.CloudCover,
	}
	for i, f := range fields {
		v, err := parseCell(rec[i+2])
		if err != nil {
			return m, fmt.Errorf("column %q: %w", csvHeader[i+2], err)
		}
		*f = v
	}

	if !math.IsNaN(m.TempMax) && !math.IsNaN(m.TempMin) && m.TempMax < m.TempMin {
		return m, fmt.Errorf("tmax %.2f below tmin %.2f", m.TempMax, m.TempMin)
	}

	return m, nil
}

func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "na") {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad value %q", s)
	}
	return v, nil
}
