// Package pipeline runs the full analysis over a monthly climate table:
// evapotranspiration columns, climatic water balance columns, and the
// standardized index at every configured method × scale pair.
package pipeline

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wxtools/droughtindex/internal/dataset"
	"github.com/wxtools/droughtindex/internal/et"
	"github.com/wxtools/droughtindex/internal/fitcache"
	"github.com/wxtools/droughtindex/internal/spei"
)

// Method names the evapotranspiration estimators; they double as column name
// suffixes.
const (
	MethodThornthwaite = "thornthwaite"
	MethodHargreaves   = "hargreaves"
	MethodPenman       = "penman"
)

// Methods lists the estimators in their fixed pipeline order.
var Methods = []string{MethodThornthwaite, MethodHargreaves, MethodPenman}

// Site describes the observation site the dataset was recorded at.
type Site struct {
	Name       string
	Latitude   float64 // degrees, south negative
	Longitude  float64
	Altitude   float64 // metres
	WindHeight float64 // anemometer height, metres; 0 means 2 m
	AngstromA  float64
	AngstromB  float64
}

// Options control the analysis.
type Options struct {
	Scales   []int       // aggregation windows in months; nil means {1, 12}
	Kernel   spei.Kernel // empty means rectangular
	Shift    int
	CacheDir string // empty disables fit caching
}

// Result is one completed analysis run.
type Result struct {
	RunID        uuid.UUID
	Site         Site
	Table        *dataset.Table
	Scales       []int
	StartedAt    time.Time
	CompletedAt  time.Time
	PatchedCells int
}

// ETColumn and BalanceColumn name the derived columns for a method;
// SPEIColumn names the index column for a method and scale.
func ETColumn(method string) string      { return "et_" + method }
func BalanceColumn(method string) string { return "balance_" + method }
func SPEIColumn(method string, scale int) string {
	return fmt.Sprintf("spei_%d_%s", scale, method)
}

// Run executes the pipeline over a loaded table. The table is augmented in
// place and returned inside the result.
func Run(table *dataset.Table, site Site, opts Options, logger *zap.SugaredLogger) (*Result, error) {
	result := &Result{
		RunID:     uuid.New(),
		Site:      site,
		Table:     table,
		StartedAt: time.Now().UTC(),
	}

	result.Scales = opts.Scales
	if len(result.Scales) == 0 {
		result.Scales = []int{1, 12}
	}

	result.PatchedCells = table.PatchMissing()
	if result.PatchedCells > 0 {
		logger.Warnf("patched %d missing cells to zero", result.PatchedCells)
	}

	var cache *fitcache.Cache
	if opts.CacheDir != "" {
		var err error
		cache, err = fitcache.New(opts.CacheDir)
		if err != nil {
			return nil, err
		}
	}

	months := table.Months()
	precip := table.Precip()

	etSeries, err := computeET(table, site)
	if err != nil {
		return nil, err
	}

	for _, method := range Methods {
		series := etSeries[method]
		if err := table.AddColumn(ETColumn(method), series); err != nil {
			return nil, err
		}

		balance := make([]float64, len(series))
		for i := range balance {
			balance[i] = precip[i] - series[i]
		}
		if err := table.AddColumn(BalanceColumn(method), balance); err != nil {
			return nil, err
		}

		for _, scale := range result.Scales {
			speiOpts := spei.Options{Scale: scale, Kernel: opts.Kernel, Shift: opts.Shift}
			values, err := computeIndex(balance, months, speiOpts, cache, fitcache.Key{
				DatasetChecksum: table.Checksum,
				Method:          method,
				Scale:           scale,
				Kernel:          string(opts.Kernel),
				Shift:           opts.Shift,
			}, logger)
			if err != nil {
				return nil, fmt.Errorf("index for %s at scale %d: %w", method, scale, err)
			}
			if err := table.AddColumn(SPEIColumn(method, scale), values); err != nil {
				return nil, err
			}
		}
	}

	result.CompletedAt = time.Now().UTC()
	logger.Infow("analysis complete",
		"run_id", result.RunID,
		"rows", table.Len(),
		"columns", len(table.Columns()),
		"elapsed", result.CompletedAt.Sub(result.StartedAt).String(),
	)
	return result, nil
}

func computeET(table *dataset.Table, site Site) (map[string][]float64, error) {
	rows := table.Rows()
	months := table.Months()
	years := table.Years()

	tmean := make([]float64, len(rows))
	tmin := make([]float64, len(rows))
	tmax := make([]float64, len(rows))
	wind := make([]float64, len(rows))
	sun := make([]float64, len(rows))
	cloud := make([]float64, len(rows))
	for i, r := range rows {
		tmean[i] = r.TempMean
		tmin[i] = r.TempMin
		tmax[i] = r.TempMax
		wind[i] = r.WindSpeed
		sun[i] = r.SunHours
		cloud[i] = r.CloudCover
	}

	thorn, err := et.Thornthwaite(tmean, months, years, site.Latitude)
	if err != nil {
		return nil, fmt.Errorf("thornthwaite: %w", err)
	}
	harg, err := et.Hargreaves(tmin, tmax, months, years, site.Latitude)
	if err != nil {
		return nil, fmt.Errorf("hargreaves: %w", err)
	}
	penman, err := et.PenmanMonteith(et.PenmanInput{
		TempMin:    tmin,
		TempMax:    tmax,
		WindSpeed:  wind,
		SunHours:   sun,
		CloudCover: cloud,
		Months:     months,
		Years:      years,
		Latitude:   site.Latitude,
		Altitude:   site.Altitude,
		WindHeight: site.WindHeight,
		AngstromA:  site.AngstromA,
		AngstromB:  site.AngstromB,
	})
	if err != nil {
		return nil, fmt.Errorf("penman-monteith: %w", err)
	}

	return map[string][]float64{
		MethodThornthwaite: thorn,
		MethodHargreaves:   harg,
		MethodPenman:       penman,
	}, nil
}

func computeIndex(balance []float64, months []time.Month, opts spei.Options, cache *fitcache.Cache, key fitcache.Key, logger *zap.SugaredLogger) ([]float64, error) {
	if cache != nil {
		if fits, ok := cache.Load(key); ok {
			logger.Debugf("fit cache hit for %s scale %d", key.Method, key.Scale)
			return spei.ComputeWithFits(balance, months, opts, fits)
		}
	}

	result, err := spei.Compute(balance, months, opts)
	if err != nil {
		return nil, err
	}

	if cache != nil {
		if err := cache.Store(key, result.Fits); err != nil {
			// A failed cache write only costs the next run a refit.
			logger.Warnf("storing fit cache entry: %v", err)
		}
	}
	return result.Values, nil
}

// SummaryStats returns mean and standard deviation of a column ignoring NaN
// rows, for logging and API summaries.
func SummaryStats(values []float64) (mean, stddev float64, n int) {
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		mean += v
		n++
	}
	if n == 0 {
		return math.NaN(), math.NaN(), 0
	}
	mean /= float64(n)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		stddev += (v - mean) * (v - mean)
	}
	stddev = math.Sqrt(stddev / float64(n))
	return mean, stddev, n
}
