package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores request and analysis counters.
type Metrics struct {
	RequestsTotal      atomic.Uint64
	RequestsInProgress atomic.Int64
	RequestsSuccess    atomic.Uint64
	RequestsFailed     atomic.Uint64
	AnalysesTotal      atomic.Uint64
	AnalysesFake       atomic.Uint64
	AnalysesReal       atomic.Uint64
	AnalysesUncertain  atomic.Uint64
	AnalysesFailed     atomic.Uint64
	ExportsTotal       atomic.Uint64
	StartTime          time.Time
}

// NewMetrics returns zeroed counters starting now.
func NewMetrics() *Metrics {
	return &Metrics{StartTime: time.Now()}
}

// RecordAnalysis counts a stored analysis by verdict.
func (m *Metrics) RecordAnalysis(verdict string) {
	m.AnalysesTotal.Add(1)
	switch verdict {
	case "Fake":
		m.AnalysesFake.Add(1)
	case "Real":
		m.AnalysesReal.Add(1)
	default:
		m.AnalysesUncertain.Add(1)
	}
}

// RecordAnalysisFailure counts a submission that produced no record.
func (m *Metrics) RecordAnalysisFailure() { m.AnalysesFailed.Add(1) }

// RecordExport counts a served or archived export.
func (m *Metrics) RecordExport() { m.ExportsTotal.Add(1) }

// Snapshot returns current metrics
func (m *Metrics) Snapshot() map[string]any {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return map[string]any{
		"requests_total":       m.RequestsTotal.Load(),
		"requests_in_progress": m.RequestsInProgress.Load(),
		"requests_success":     m.RequestsSuccess.Load(),
		"requests_failed":      m.RequestsFailed.Load(),
		"analyses_total":       m.AnalysesTotal.Load(),
		"analyses_failed":      m.AnalysesFailed.Load(),
		"verdicts": map[string]uint64{
			"Fake":      m.AnalysesFake.Load(),
			"Real":      m.AnalysesReal.Load(),
			"Uncertain": m.AnalysesUncertain.Load(),
		},
		"exports_total":  m.ExportsTotal.Load(),
		"uptime_seconds": time.Since(m.StartTime).Seconds(),
		"memory": map[string]any{
			"alloc_bytes":       mem.Alloc,
			"total_alloc_bytes": mem.TotalAlloc,
			"sys_bytes":         mem.Sys,
			"num_gc":            mem.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// Middleware tracks request metrics
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.RequestsTotal.Add(1)
		m.RequestsInProgress.Add(1)
		defer m.RequestsInProgress.Add(-1)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
			m.RequestsSuccess.Add(1)
		} else {
			m.RequestsFailed.Add(1)
		}
	})
}

// Handler returns metrics as JSON
func (m *Metrics) Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(m.Snapshot())
}
