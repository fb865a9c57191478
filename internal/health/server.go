// Package health serves the scheduler daemon's status endpoints: liveness,
// readiness of the race store and recurring jobs, and Prometheus metrics.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Status is the overall state reported by /ready
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusNotReady Status = "not_ready"
)

// StorePinger checks the race store connection
type StorePinger interface {
	Ping(ctx context.Context) error
}

// Job is a recurring scheduler job. A failed last run degrades readiness
// but keeps the daemon in rotation.
type Job interface {
	Healthy() bool
	LastRunAt() time.Time
}

// Options configures the status server. Addr defaults to :8080 and
// MetricsPath to /metrics; Metrics is only mounted when set.
type Options struct {
	Service     string
	Version     string
	Commit      string
	Addr        string
	Logger      *logrus.Logger
	Store       StorePinger
	Jobs        map[string]Job
	Metrics     http.Handler
	MetricsPath string
}

// LiveResponse is the body of /live and /health
type LiveResponse struct {
	Status  Status `json:"status"`
	Service string `json:"service"`
	Version string `json:"version,omitempty"`
	Commit  string `json:"commit,omitempty"`
	Uptime  string `json:"uptime"`
}

// JobReport is one job's entry in /ready
type JobReport struct {
	Healthy bool       `json:"healthy"`
	LastRun *time.Time `json:"last_run,omitempty"`
}

// ReadyResponse is the body of /ready
type ReadyResponse struct {
	Status   Status               `json:"status"`
	Service  string               `json:"service"`
	Store    string               `json:"store,omitempty"`
	Jobs     map[string]JobReport `json:"jobs,omitempty"`
	Problems []string             `json:"problems,omitempty"`
}

// Server is the scheduler's status HTTP server
type Server struct {
	opts    Options
	log     *logrus.Logger
	started time.Time
	ready   atomic.Bool

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
}

// New creates a status server; call Start to serve it
func New(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	log := opts.Logger
	if log == nil {
		log = logrus.New()
	}
	return &Server{opts: opts, log: log, started: time.Now()}
}

// SetReady toggles whether /ready can report the daemon as serving
func (s *Server) SetReady(ready bool) { s.ready.Store(ready) }

// Handler returns the status routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/live", s.handleLive)
	mux.HandleFunc("/health", s.handleLive)
	mux.HandleFunc("/ready", s.handleReady)
	if s.opts.Metrics != nil {
		mux.Handle(s.opts.MetricsPath, s.opts.Metrics)
	}
	return mux
}

// Start binds the listener and serves in the background until ctx is done.
// Bind errors are returned so a taken port stops the daemon at startup.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("status server listen on %s: %w", s.opts.Addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.mu.Lock()
	s.srv = srv
	s.listener = ln
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"addr":    ln.Addr().String(),
		"service": s.opts.Service,
	}).Info("Status server listening")

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("Status server stopped")
		}
	}()
	context.AfterFunc(ctx, func() {
		if err := s.Shutdown(); err != nil {
			s.log.WithError(err).Warn("Status server shutdown")
		}
	})
	return nil
}

// Addr is the bound address once started, or the configured one before
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.opts.Addr
}

// Shutdown drains open requests for up to five seconds. It is safe to call
// more than once.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, LiveResponse{
		Status:  StatusOK,
		Service: s.opts.Service,
		Version: s.opts.Version,
		Commit:  s.opts.Commit,
		Uptime:  time.Since(s.started).Truncate(time.Second).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := s.readiness(r.Context())
	code := http.StatusOK
	if resp.Status == StatusNotReady {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// readiness is not_ready while starting or stopping or when the store is
// unreachable, and degraded when a job's last run failed
func (s *Server) readiness(ctx context.Context) ReadyResponse {
	resp := ReadyResponse{Status: StatusOK, Service: s.opts.Service}
	if !s.ready.Load() {
		resp.Status = StatusNotReady
		resp.Problems = append(resp.Problems, "scheduler not running")
	}

	if s.opts.Store != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := s.opts.Store.Ping(pingCtx); err != nil {
			resp.Status = StatusNotReady
			resp.Store = "unreachable"
			resp.Problems = append(resp.Problems, fmt.Sprintf("store: %v", err))
		} else {
			resp.Store = "ok"
		}
	}

	if len(s.opts.Jobs) > 0 {
		resp.Jobs = make(map[string]JobReport, len(s.opts.Jobs))
	}
	names := make([]string, 0, len(s.opts.Jobs))
	for name := range s.opts.Jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		job := s.opts.Jobs[name]
		report := JobReport{Healthy: job.Healthy()}
		if last := job.LastRunAt(); !last.IsZero() {
			report.LastRun = &last
		}
		resp.Jobs[name] = report
		if !report.Healthy {
			resp.Problems = append(resp.Problems, name+": last run failed")
			if resp.Status == StatusOK {
				resp.Status = StatusDegraded
			}
		}
	}
	return resp
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
