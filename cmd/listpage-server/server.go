package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Sternrassler/listpage/pkg/httpfetch"
	"github.com/Sternrassler/listpage/pkg/listpage"
	"github.com/Sternrassler/listpage/pkg/logging"
	"github.com/Sternrassler/listpage/pkg/metrics"
	"github.com/Sternrassler/listpage/pkg/pagination"
	"github.com/rs/zerolog"
)

// requestTimeout bounds a lifecycle request, including upstream retries.
const requestTimeout = 30 * time.Second

// listResponse is the body returned for list state requests.
type listResponse struct {
	List  string                            `json:"list"`
	State pagination.State[json.RawMessage] `json:"state"`
}

type server struct {
	registry *listpage.Registry[json.RawMessage]
	ready    func(context.Context) error
	logger   zerolog.Logger
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", s.readyHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("POST /load", s.eventHandler("load", s.registry.OnLoad))
	mux.HandleFunc("POST /refresh", s.eventHandler("refresh", s.registry.OnPullDownRefresh))
	mux.HandleFunc("POST /reach-bottom", s.eventHandler("reach_bottom", s.registry.OnReachBottom))
	mux.HandleFunc("POST /active/{name}", s.activeHandler)
	mux.HandleFunc("GET /lists/{name}", s.listHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func (s *server) readyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.ready(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Readiness check failed")
		http.Error(w, "view state store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// eventHandler runs a lifecycle event and responds with the active list state.
func (s *server) eventHandler(event string, handle func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		if err := handle(ctx); err != nil {
			s.logger.Warn().Err(err).Str("event", event).Msg("Lifecycle event failed")
			writeError(w, err)
			return
		}
		s.writeList(w, s.registry.ActiveListName())
	}
}

func (s *server) activeHandler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.registry.SetActiveList(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	s.writeList(w, name)
}

func (s *server) listHandler(w http.ResponseWriter, r *http.Request) {
	s.writeList(w, r.PathValue("name"))
}

func (s *server) writeList(w http.ResponseWriter, name string) {
	list, err := s.registry.List(name)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(listResponse{List: name, State: list.State()}); err != nil {
		s.logger.Error().Err(err).Str(logging.FieldList, name).Msg("Failed to write response")
	}
}

// writeError maps registry and upstream errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var httpErr *httpfetch.HTTPError
	switch {
	case errors.Is(err, listpage.ErrUnknownList):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, listpage.ErrNotLoaded):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, context.DeadlineExceeded):
		http.Error(w, err.Error(), http.StatusGatewayTimeout)
	case errors.As(err, &httpErr), errors.Is(err, pagination.ErrFetchResultInvalid):
		http.Error(w, fmt.Sprintf("upstream request failed: %v", err), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
