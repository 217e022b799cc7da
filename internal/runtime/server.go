// Package runtime is the job-serving loop: it accepts job requests over
// HTTP and hands each one to the registered handler. Queuing, autoscaling
// and dispatch policy belong to the platform in front of it.
package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 120 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Job is the raw request mapping delivered to the handler.
type Job map[string]any

// Handler turns one job into one response value. It must not panic; the
// worker's contract is that every job gets a structured response.
type Handler func(job Job) any

// Server blocks serving jobs until its context is cancelled.
type Server struct {
	addr      string
	handler   Handler
	readiness any
	logger    zerolog.Logger
	mux       *http.ServeMux
}

func New(port int, handler Handler, readiness any, logger zerolog.Logger) *Server {
	s := &Server{
		addr:      fmt.Sprintf(":%d", port),
		handler:   handler,
		readiness: readiness,
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/run", s.handleRun)
	mux.HandleFunc("/runsync", s.handleRun)
	mux.HandleFunc("/health", s.handleHealth)
	s.mux = mux

	return s
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Str("addr", s.addr).Msg("serving jobs")

	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleRun delivers one job to the handler. A body that does not decode
// still reaches the handler as an empty job, so the error surfaces as a
// structured response rather than an HTTP failure.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var job Job
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		s.logger.Debug().Err(err).Msg("undecodable job body")
		job = Job{}
	}

	s.writeJSON(w, http.StatusOK, s.handler(job))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	s.writeJSON(w, http.StatusOK, s.readiness)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}
