package plotting

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wxtools/droughtindex/internal/dataset"
	"github.com/wxtools/droughtindex/internal/pipeline"
)

func fakeResult(t *testing.T) *pipeline.Result {
	t.Helper()
	rows := make([]dataset.Month, 24)
	year, month := 1990, time.January
	for i := range rows {
		rows[i] = dataset.Month{Year: year, Month: month, Precip: 30, TempMax: 15, TempMin: 5, TempMean: 10}
		month++
		if month > time.December {
			year++
			month = time.January
		}
	}
	table, err := dataset.NewTable(rows)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	series := make([]float64, 24)
	index := make([]float64, 24)
	for i := range series {
		series[i] = 40 + float64(i)
		index[i] = math.Sin(float64(i) / 3)
	}
	index[0] = math.NaN()

	scales := []int{1, 12}
	for _, method := range pipeline.Methods {
		mustAdd(t, table, pipeline.ETColumn(method), series)
		mustAdd(t, table, pipeline.BalanceColumn(method), series)
		for _, scale := range scales {
			mustAdd(t, table, pipeline.SPEIColumn(method, scale), index)
		}
	}

	return &pipeline.Result{
		RunID:  uuid.New(),
		Site:   pipeline.Site{Name: "Test Basin"},
		Table:  table,
		Scales: scales,
	}
}

func mustAdd(t *testing.T, table *dataset.Table, name string, values []float64) {
	t.Helper()
	if err := table.AddColumn(name, values); err != nil {
		t.Fatalf("AddColumn %s failed: %v", name, err)
	}
}

func TestRenderAll(t *testing.T) {
	dir := t.TempDir()
	names, err := RenderAll(fakeResult(t), dir)
	if err != nil {
		t.Fatalf("RenderAll failed: %v", err)
	}

	// Two overview charts, one climatology chart, one series per method and
	// scale, one grid per method.
	want := 3 + 3*2 + 3
	if len(names) != want {
		t.Errorf("expected %d charts, got %d: %v", want, len(names), names)
	}

	for _, name := range names {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("chart %s not written: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("chart %s is empty", name)
		}
	}
}

func TestSPEISeriesMissingColumn(t *testing.T) {
	table, err := dataset.NewTable([]dataset.Month{{Year: 1990, Month: time.January}})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "missing.png")
	if err := SPEISeries(table, pipeline.MethodPenman, 12, path); err == nil {
		t.Error("expected an error for a missing column")
	}
}
