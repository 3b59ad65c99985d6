package server

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/wxtools/droughtindex/internal/pipeline"
)

// jsonValue renders NaN as null, which encoding/json cannot do for float64.
type jsonValue float64

func (v jsonValue) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(v)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(v))
}

type seriesResponse struct {
	Column string      `json:"column"`
	Index  []string    `json:"index"` // YYYY-MM
	Values []jsonValue `json:"values"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	result := s.result()
	if result == nil {
		writeError(w, http.StatusServiceUnavailable, "no completed run yet")
		return
	}

	type columnSummary struct {
		Column string    `json:"column"`
		Mean   jsonValue `json:"mean"`
		Stddev jsonValue `json:"stddev"`
		N      int       `json:"n"`
	}

	summaries := make([]columnSummary, 0, len(result.Table.Columns()))
	for _, col := range result.Table.Columns() {
		values, _ := result.Table.Column(col)
		mean, stddev, n := pipeline.SummaryStats(values)
		summaries = append(summaries, columnSummary{
			Column: col,
			Mean:   jsonValue(mean),
			Stddev: jsonValue(stddev),
			N:      n,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":        result.RunID.String(),
		"site":          result.Site.Name,
		"rows":          result.Table.Len(),
		"scales":        result.Scales,
		"patched_cells": result.PatchedCells,
		"started_at":    result.StartedAt.Format(time.RFC3339),
		"completed_at":  result.CompletedAt.Format(time.RFC3339),
		"columns":       summaries,
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	archive := s.archiveClient()
	if archive == nil {
		writeError(w, http.StatusServiceUnavailable, "no run archive configured")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad limit "+v)
			return
		}
		limit = n
	}

	runs, err := archive.ListRuns(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type runSummary struct {
		ID              string `json:"id"`
		SiteName        string `json:"site_name"`
		DatasetChecksum string `json:"dataset_checksum"`
		Rows            int    `json:"rows"`
		PatchedCells    int    `json:"patched_cells"`
		CompletedAt     string `json:"completed_at"`
	}
	out := make([]runSummary, 0, len(runs))
	for _, run := range runs {
		out = append(out, runSummary{
			ID:              run.ID.String(),
			SiteName:        run.SiteName,
			DatasetChecksum: run.DatasetChecksum,
			Rows:            run.Rows,
			PatchedCells:    run.PatchedCells,
			CompletedAt:     run.CompletedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleClimate(w http.ResponseWriter, r *http.Request) {
	result := s.result()
	if result == nil {
		writeError(w, http.StatusServiceUnavailable, "no completed run yet")
		return
	}

	type climateRow struct {
		Year       int       `json:"year"`
		Month      int       `json:"month"`
		Precip     jsonValue `json:"precip_mm"`
		TempMax    jsonValue `json:"tmax_c"`
		TempMin    jsonValue `json:"tmin_c"`
		TempMean   jsonValue `json:"tmean_c"`
		WindSpeed  jsonValue `json:"wind_ms"`
		SunHours   jsonValue `json:"sun_hours"`
		CloudCover jsonValue `json:"cloud_pct"`
	}

	rows := make([]climateRow, 0, result.Table.Len())
	for _, m := range result.Table.Rows() {
		rows = append(rows, climateRow{
			Year:       m.Year,
			Month:      int(m.Month),
			Precip:     jsonValue(m.Precip),
			TempMax:    jsonValue(m.TempMax),
			TempMin:    jsonValue(m.TempMin),
			TempMean:   jsonValue(m.TempMean),
			WindSpeed:  jsonValue(m.WindSpeed),
			SunHours:   jsonValue(m.SunHours),
			CloudCover: jsonValue(m.CloudCover),
		})
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleET(w http.ResponseWriter, r *http.Request) {
	s.handleMethodColumn(w, r, pipeline.ETColumn)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	s.handleMethodColumn(w, r, pipeline.BalanceColumn)
}

func (s *Server) handleMethodColumn(w http.ResponseWriter, r *http.Request, columnName func(string) string) {
	result := s.result()
	if result == nil {
		writeError(w, http.StatusServiceUnavailable, "no completed run yet")
		return
	}

	method := r.URL.Query().Get("method")
	if method == "" {
		// All three methods in one response.
		out := make([]seriesResponse, 0, len(pipeline.Methods))
		for _, m := range pipeline.Methods {
			resp, ok := s.columnResponse(result, columnName(m))
			if !ok {
				writeError(w, http.StatusInternalServerError, "missing column "+columnName(m))
				return
			}
			out = append(out, resp)
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	resp, ok := s.columnResponse(result, columnName(method))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown method "+method)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSPEI(w http.ResponseWriter, r *http.Request) {
	result := s.result()
	if result == nil {
		writeError(w, http.StatusServiceUnavailable, "no completed run yet")
		return
	}

	method := r.URL.Query().Get("method")
	if method == "" {
		method = pipeline.MethodPenman
	}
	scaleStr := r.URL.Query().Get("scale")
	scale := 12
	if scaleStr != "" {
		var err error
		scale, err = strconv.Atoi(scaleStr)
		if err != nil || scale < 1 {
			writeError(w, http.StatusBadRequest, "bad scale "+scaleStr)
			return
		}
	}

	resp, ok := s.columnResponse(result, pipeline.SPEIColumn(method, scale))
	if !ok {
		writeError(w, http.StatusNotFound,
			"no index for method "+method+" at scale "+strconv.Itoa(scale))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) columnResponse(result *pipeline.Result, column string) (seriesResponse, bool) {
	values, ok := result.Table.Column(column)
	if !ok {
		return seriesResponse{}, false
	}

	index := make([]string, 0, len(values))
	for _, t := range result.Table.TimeIndex() {
		index = append(index, t.Format("2006-01"))
	}
	jsonValues := make([]jsonValue, len(values))
	for i, v := range values {
		jsonValues[i] = jsonValue(v)
	}
	return seriesResponse{Column: column, Index: index, Values: jsonValues}, true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
