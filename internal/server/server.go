// Package server exposes the latest analysis run over a small REST surface.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wxtools/droughtindex/internal/pipeline"
	"github.com/wxtools/droughtindex/internal/storage"
)

// Server serves the latest pipeline result as JSON plus the rendered charts.
type Server struct {
	listenAddr string
	plotDir    string
	logger     *zap.SugaredLogger

	mu      sync.RWMutex
	current *pipeline.Result
	archive *storage.Client

	httpServer *http.Server
}

// New creates a server. The result can be set later; endpoints report 503
// until the first run completes.
func New(listenAddr string, port int, plotDir string, logger *zap.SugaredLogger) *Server {
	s := &Server{
		listenAddr: net.JoinHostPort(listenAddr, strconv.Itoa(port)),
		plotDir:    plotDir,
		logger:     logger,
	}

	router := mux.NewRouter()
	router.Use(s.loggingMiddleware)
	router.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/run", s.handleRun).Methods(http.MethodGet)
	router.HandleFunc("/api/runs", s.handleRuns).Methods(http.MethodGet)
	router.HandleFunc("/api/climate", s.handleClimate).Methods(http.MethodGet)
	router.HandleFunc("/api/et", s.handleET).Methods(http.MethodGet)
	router.HandleFunc("/api/balance", s.handleBalance).Methods(http.MethodGet)
	router.HandleFunc("/api/spei", s.handleSPEI).Methods(http.MethodGet)
	router.PathPrefix("/plots/").Handler(
		http.StripPrefix("/plots/", http.FileServer(http.Dir(plotDir))))

	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// SetResult swaps in a freshly computed run.
func (s *Server) SetResult(result *pipeline.Result) {
	s.mu.Lock()
	s.current = result
	s.mu.Unlock()
}

// SetArchive attaches the PostgreSQL run archive so /api/runs can list
// historical runs. A nil client leaves the endpoint answering 503.
func (s *Server) SetArchive(client *storage.Client) {
	s.mu.Lock()
	s.archive = client
	s.mu.Unlock()
}

func (s *Server) archiveClient() *storage.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.archive
}

func (s *Server) result() *pipeline.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("HTTP server listening on %s", s.listenAddr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// loggingMiddleware logs every request with method, path, status, and timing.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Debugw("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
