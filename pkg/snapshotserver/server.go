// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package snapshotserver exposes the burst buffer state engine's packed
// snapshots and the parallel RPC agent's live node liveness feed over
// HTTP, routed with gorilla/mux and wrapped in the shared middleware
// chain.
package snapshotserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/jontk/bb-agent/internal/bbstate"
	"github.com/jontk/bb-agent/pkg/logging"
	"github.com/jontk/bb-agent/pkg/metrics"
	"github.com/jontk/bb-agent/pkg/middleware"
)

// ProtocolVersion is the wire protocol version stamped into every packed
// snapshot this server produces.
const ProtocolVersion uint16 = 1

// Server serves read-only snapshots of a *bbstate.State plus a live
// node-liveness feed fed by the parallel RPC agent's watchdog.
type Server struct {
	State   *bbstate.State
	Feed    *LiveFeed
	Logger  logging.Logger
	Metrics *metrics.Collector
}

// New returns a Server with a ready-to-use LiveFeed hub. Logger and
// Metrics default to no-ops when nil.
func New(state *bbstate.State, logger logging.Logger, collector *metrics.Collector) *Server {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	if collector == nil {
		collector = metrics.NoOp()
	}
	return &Server{
		State:   state,
		Feed:    NewLiveFeed(logger),
		Logger:  logger,
		Metrics: collector,
	}
}

// Handler builds the routed, middleware-wrapped http.Handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter().StrictSlash(false)

	r.HandleFunc("/snapshot/state", s.handleSnapshotState).Methods(http.MethodGet)
	r.HandleFunc("/snapshot/bufs", s.handleSnapshotBufs).Methods(http.MethodGet)
	r.HandleFunc("/snapshot/pool", s.handleSnapshotPool).Methods(http.MethodGet)
	r.HandleFunc("/live/nodes", s.Feed.HandleWebSocket).Methods(http.MethodGet)

	chain := middleware.Chain(
		middleware.WithRecovery(s.Logger),
		middleware.WithLogging(s.Logger),
		middleware.WithMetrics(s.Metrics),
	)
	return chain(r)
}

func (s *Server) handleSnapshotState(w http.ResponseWriter, r *http.Request) {
	s.State.Lock()
	buf := bbstate.PackState(s.State, ProtocolVersion)
	s.State.Unlock()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(buf)
}

func (s *Server) handleSnapshotBufs(w http.ResponseWriter, r *http.Request) {
	uid := uint32(0)
	if raw := parseQueryParam(r, "uid"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			http.Error(w, "invalid uid", http.StatusBadRequest)
			return
		}
		uid = uint32(v)
	}

	s.State.Lock()
	buf, _ := bbstate.PackBufs(s.State, uid, ProtocolVersion)
	s.State.Unlock()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(buf)
}

func (s *Server) handleSnapshotPool(w http.ResponseWriter, r *http.Request) {
	s.State.Lock()
	pool := make([]bbstate.PoolEntry, len(s.State.Pool))
	copy(pool, s.State.Pool)
	s.State.Unlock()

	writeJSON(w, pool)
}

func parseQueryParam(r *http.Request, key string) string {
	return r.URL.Query().Get(key)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
