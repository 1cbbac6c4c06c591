/*-
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package api serves the agent's read-only HTTP status surface.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/carverauto/asna/pkg/db"
)

const (
	streamPath      = "/api/stream"
	shutdownTimeout = 5 * time.Second
	readTimeout     = 10 * time.Second
)

var errNoJournal = errors.New("audit journal is disabled")

// Server exposes the agent snapshot, journal, history, live events and
// Prometheus metrics.
type Server struct {
	source  SnapshotSource
	journal EventStore
	history HistorySource
	hub     *Hub
	metrics http.Handler
	logger  *zap.Logger
	router  *mux.Router
	handler http.Handler
}

type Option func(*Server)

func WithJournal(j EventStore) Option {
	return func(s *Server) { s.journal = j }
}

func WithHistory(h HistorySource) Option {
	return func(s *Server) { s.history = h }
}

func WithHub(h *Hub) Option {
	return func(s *Server) { s.hub = h }
}

func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func NewServer(source SnapshotSource, opts ...Option) *Server {
	s := &Server{
		source: source,
		logger: zap.NewNop(),
		router: mux.NewRouter(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	s.handler = CommonMiddleware(s.router)

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(LoggingMiddleware(s.logger))

	s.router.HandleFunc("/healthz", s.getHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/status", s.getStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/api/events", s.getEvents).Methods(http.MethodGet)
	s.router.HandleFunc("/api/history", s.getHistory).Methods(http.MethodGet)

	if s.hub != nil {
		s.router.Handle(streamPath, s.hub).Methods(http.MethodGet)
	}

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: readTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP API listening", zap.String("address", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}

		return nil
	}
}

func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	snap := s.source.Snapshot()

	status, code := "ok", http.StatusOK
	if snap.Isolated {
		status, code = "isolated", http.StatusServiceUnavailable
	}

	s.writeJSON(w, code, map[string]any{
		"status": status,
		"device": snap.DeviceName,
	})
}

func (s *Server) getStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.source.Snapshot())
}

func (s *Server) getEvents(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		s.writeError(w, http.StatusNotFound, errNoJournal)
		return
	}

	limit := 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}

		limit = n
	}

	records, err := s.journal.Recent(r.Context(), limit)
	if errors.Is(err, db.ErrInvalidLimit) {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err != nil {
		s.logger.Error("failed to read journal", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, err)

		return
	}

	if records == nil {
		records = []db.Record{}
	}

	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) getHistory(w http.ResponseWriter, _ *http.Request) {
	if s.history == nil {
		s.writeJSON(w, http.StatusOK, []any{})
		return
	}

	s.writeJSON(w, http.StatusOK, s.history.Points())
}

func (s *Server) writeError(w http.ResponseWriter, code int, err error) {
	s.writeJSON(w, code, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("error encoding response", zap.Error(err))
	}
}
