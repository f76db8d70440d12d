package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kapu/duty-rotation-bot/internal/constants"
	"go.uber.org/zap"
)

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

type namedCheck struct {
	name  string
	check Check
}

// Server exposes /metrics and /healthz while a rotation runs.
type Server struct {
	metrics  *Metrics
	logger   *zap.Logger
	started  time.Time
	checks   []namedCheck
	server   *http.Server
	listener net.Listener
}

func NewServer(addr string, metrics *Metrics, logger *zap.Logger) *Server {
	s := &Server{
		metrics: metrics,
		logger:  logger,
		started: time.Now(),
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// AddCheck registers a dependency probed on every /healthz request.
// Register checks before Start.
func (s *Server) AddCheck(name string, check Check) {
	s.checks = append(s.checks, namedCheck{name: name, check: check})
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		s.metrics.Handler().ServeHTTP(w, r)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.APIConfig.HealthCheckTimeout)
	defer cancel()

	status, code := "ok", http.StatusOK
	results := make(map[string]string, len(s.checks))
	for _, c := range s.checks {
		if err := c.check(ctx); err != nil {
			s.logger.Warn("Health check failed", zap.String("check", c.name), zap.Error(err))
			results[c.name] = err.Error()
			status, code = "unavailable", http.StatusServiceUnavailable
			continue
		}
		results[c.name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":         status,
		"checks":         results,
		"uptime_seconds": int(time.Since(s.started).Seconds()),
	})
}

// Start binds the listener synchronously so address errors surface to the
// caller, then serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.logger.Info("Metrics endpoint listening", zap.String("addr", ln.Addr().String()))

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Addr is the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.server.Addr
	}
	return s.listener.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
