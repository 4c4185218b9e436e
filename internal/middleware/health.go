package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"
)

// StoreCheck is the checker name readiness depends on.
const StoreCheck = "store"

const (
	checkTimeout = 2 * time.Second
	probeTimeout = 5 * time.Second
)

type HealthChecker interface {
	Check(ctx context.Context) error
}

// DatabaseHealthChecker pings the MySQL or Postgres history store.
type DatabaseHealthChecker struct {
	DB *sql.DB
}

func (d *DatabaseHealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return d.DB.PingContext(ctx)
}

// Pinger is anything with a context-aware Ping, such as the file store,
// the sqlite store or the export bucket.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingChecker struct {
	Target Pinger
}

func (p PingChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return p.Target.Ping(ctx)
}

// HealthStatus is the body of /health and /ready.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
}

type CheckStatus struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// runChecks probes every checker; names restricts the run when non-empty.
func runChecks(ctx context.Context, checkers map[string]HealthChecker, okStatus string, names ...string) (HealthStatus, bool) {
	selected := checkers
	if len(names) > 0 {
		selected = make(map[string]HealthChecker, len(names))
		for _, n := range names {
			if c, ok := checkers[n]; ok {
				selected[n] = c
			}
		}
	}

	out := HealthStatus{Status: okStatus, Timestamp: time.Now().UTC(), Checks: make(map[string]CheckStatus, len(selected))}
	healthy := true
	for name, c := range selected {
		start := time.Now()
		err := c.Check(ctx)
		cs := CheckStatus{Status: "healthy", LatencyMs: time.Since(start).Milliseconds()}
		if err != nil {
			cs.Status, cs.Message = "unhealthy", err.Error()
			healthy = false
		}
		out.Checks[name] = cs
	}
	if !healthy {
		out.Status = "unhealthy"
	}
	return out, healthy
}

func writeStatus(w http.ResponseWriter, s HealthStatus, healthy bool) {
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(s)
}

// HealthHandler reports every dependency, export bucket included.
func HealthHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()
		s, ok := runChecks(ctx, checkers, "healthy")
		writeStatus(w, s, ok)
	}
}

// ReadinessHandler gates on the history store alone.
func ReadinessHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()
		s, ok := runChecks(ctx, checkers, "ready", StoreCheck)
		writeStatus(w, s, ok)
	}
}

func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
