package server

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wxtools/droughtindex/internal/dataset"
	"github.com/wxtools/droughtindex/internal/pipeline"
)

// fakeResult fabricates a completed run with every column the handlers serve.
func fakeResult(t *testing.T) *pipeline.Result {
	t.Helper()
	rows := make([]dataset.Month, 12)
	for i := range rows {
		rows[i] = dataset.Month{
			Year: 1990, Month: time.Month(i + 1),
			Precip: 30, TempMax: 15, TempMin: 5, TempMean: 10,
		}
	}
	table, err := dataset.NewTable(rows)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	series := make([]float64, 12)
	for i := range series {
		series[i] = float64(i)
	}
	for _, method := range pipeline.Methods {
		mustAdd(t, table, pipeline.ETColumn(method), series)
		mustAdd(t, table, pipeline.BalanceColumn(method), series)
	}
	withNaN := append([]float64(nil), series...)
	withNaN[0] = math.NaN()
	mustAdd(t, table, pipeline.SPEIColumn(pipeline.MethodPenman, 12), withNaN)

	return &pipeline.Result{
		RunID:       uuid.New(),
		Site:        pipeline.Site{Name: "Test Basin"},
		Table:       table,
		Scales:      []int{12},
		StartedAt:   time.Now().UTC(),
		CompletedAt: time.Now().UTC(),
	}
}

func mustAdd(t *testing.T, table *dataset.Table, name string, values []float64) {
	t.Helper()
	if err := table.AddColumn(name, values); err != nil {
		t.Fatalf("AddColumn %s failed: %v", name, err)
	}
}

func testServer(t *testing.T) *Server {
	t.Helper()
	return New("127.0.0.1", 0, t.TempDir(), zap.NewNop().Sugar())
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := get(t, testServer(t), "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestEndpointsBeforeFirstRun(t *testing.T) {
	s := testServer(t)
	for _, path := range []string{"/api/run", "/api/runs", "/api/climate", "/api/et", "/api/balance", "/api/spei"} {
		if rec := get(t, s, path); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503 before the first run, got %d", path, rec.Code)
		}
	}
}

func TestRunEndpoint(t *testing.T) {
	s := testServer(t)
	result := fakeResult(t)
	s.SetResult(result)

	rec := get(t, s, "/api/run")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		RunID   string `json:"run_id"`
		Site    string `json:"site"`
		Rows    int    `json:"rows"`
		Columns []struct {
			Column string `json:"column"`
		} `json:"columns"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.RunID != result.RunID.String() {
		t.Errorf("unexpected run_id %q", body.RunID)
	}
	if body.Site != "Test Basin" || body.Rows != 12 {
		t.Errorf("unexpected summary %+v", body)
	}
	if len(body.Columns) != 7 {
		t.Errorf("expected 7 column summaries, got %d", len(body.Columns))
	}
}

func TestClimateEndpoint(t *testing.T) {
	s := testServer(t)
	s.SetResult(fakeResult(t))

	rec := get(t, s, "/api/climate")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var rows []struct {
		Year   int      `json:"year"`
		Month  int      `json:"month"`
		Precip *float64 `json:"precip_mm"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(rows) != 12 {
		t.Fatalf("expected 12 rows, got %d", len(rows))
	}
	if rows[0].Year != 1990 || rows[0].Month != 1 || rows[0].Precip == nil || *rows[0].Precip != 30 {
		t.Errorf("unexpected first row %+v", rows[0])
	}
}

func TestMethodColumnEndpoints(t *testing.T) {
	s := testServer(t)
	s.SetResult(fakeResult(t))

	t.Run("single method", func(t *testing.T) {
		rec := get(t, s, "/api/et?method=penman")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp struct {
			Column string    `json:"column"`
			Index  []string  `json:"index"`
			Values []float64 `json:"values"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if resp.Column != "et_penman" {
			t.Errorf("unexpected column %q", resp.Column)
		}
		if len(resp.Index) != 12 || resp.Index[0] != "1990-01" {
			t.Errorf("unexpected index %v", resp.Index)
		}
	})

	t.Run("all methods", func(t *testing.T) {
		rec := get(t, s, "/api/balance")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp []struct {
			Column string `json:"column"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if len(resp) != 3 {
			t.Errorf("expected 3 series, got %d", len(resp))
		}
	})

	t.Run("unknown method", func(t *testing.T) {
		if rec := get(t, s, "/api/et?method=blaney"); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestSPEIEndpoint(t *testing.T) {
	s := testServer(t)
	s.SetResult(fakeResult(t))

	t.Run("defaults serve penman at scale 12", func(t *testing.T) {
		rec := get(t, s, "/api/spei")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp struct {
			Column string     `json:"column"`
			Values []*float64 `json:"values"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if resp.Column != "spei_12_penman" {
			t.Errorf("unexpected column %q", resp.Column)
		}
		if resp.Values[0] != nil {
			t.Errorf("NaN should serialize as null, got %v", *resp.Values[0])
		}
		if resp.Values[1] == nil {
			t.Error("defined values should not be null")
		}
	})

	t.Run("bad scale", func(t *testing.T) {
		if rec := get(t, s, "/api/spei?scale=zero"); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("missing combination", func(t *testing.T) {
		if rec := get(t, s, "/api/spei?method=thornthwaite&scale=6"); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}
