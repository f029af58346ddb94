package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Checker reports the health of one dependency.
type Checker func(ctx context.Context) error

// Status represents the health status of a component.
type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Response is the JSON body of the health endpoints.
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of a single checker.
type CheckResult struct {
	Status  Status `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency"`
}

type entry struct {
	check    Checker
	critical bool
}

// Handler serves liveness and readiness probes.
type Handler struct {
	mu      sync.RWMutex
	entries map[string]entry
	timeout time.Duration
}

// NewHandler creates a handler whose readiness checks share a 5s budget.
func NewHandler() *Handler {
	return &Handler{entries: make(map[string]entry), timeout: 5 * time.Second}
}

// Register adds a critical checker: its failure makes the service not ready.
func (h *Handler) Register(name string, c Checker) {
	h.add(name, entry{check: c, critical: true})
}

// RegisterOptional adds a checker whose failure only degrades readiness.
// The service keeps answering 200.
func (h *Handler) RegisterOptional(name string, c Checker) {
	h.add(name, entry{check: c})
}

func (h *Handler) add(name string, e entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[name] = e
}

// LivenessHandler always answers 200 while the process runs.
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		write(w, http.StatusOK, Response{Status: StatusUp, Timestamp: time.Now().UTC()})
	}
}

// ReadinessHandler runs all checkers concurrently. Any critical failure
// answers 503; optional failures answer 200 with status "degraded".
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		h.mu.RLock()
		entries := make(map[string]entry, len(h.entries))
		for k, v := range h.entries {
			entries[k] = v
		}
		h.mu.RUnlock()

		var (
			mu     sync.Mutex
			checks = make(map[string]CheckResult, len(entries))
			status = StatusUp
		)

		var g errgroup.Group
		for name, e := range entries {
			g.Go(func() error {
				start := time.Now()
				err := e.check(ctx)
				res := CheckResult{Status: StatusUp, Latency: time.Since(start).String()}

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					res.Status = StatusDown
					res.Error = err.Error()
					switch {
					case e.critical:
						status = StatusDown
					case status == StatusUp:
						status = StatusDegraded
					}
				}
				checks[name] = res
				return nil
			})
		}
		_ = g.Wait()

		code := http.StatusOK
		if status == StatusDown {
			code = http.StatusServiceUnavailable
		}
		write(w, code, Response{Status: status, Timestamp: time.Now().UTC(), Checks: checks})
	}
}

func write(w http.ResponseWriter, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
