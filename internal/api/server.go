// Package api exposes the session manager over HTTP and MCP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/profilechat/internal/observability"
	"github.com/kalambet/profilechat/internal/profile"
	"github.com/kalambet/profilechat/internal/session"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Service is the session surface the transports call. Implemented by
// session.Manager.
type Service interface {
	Init(ctx context.Context) (session.InitResult, error)
	Chat(ctx context.Context, input string, convo *session.Context) session.ChatResult
	Profile() profile.Profile
}

// Deps holds dependencies for the HTTP handler.
type Deps struct {
	Service Service
	Metrics *observability.Metrics // optional
	Logger  *slog.Logger           // optional; defaults to slog.Default()
}

// NewHandler returns the HTTP API:
//
//	GET  /init     start a new session
//	POST /chat     run one chat turn
//	GET  /profile  latest resolved profile
//	GET  /health   liveness
//	GET  /metrics  Prometheus exposition
func NewHandler(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Recovery(logger))
	r.Use(Logger(logger))
	r.Use(CORS)

	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	r.Get("/init", handleInit(deps.Service))
	r.Post("/chat", handleChat(deps.Service))
	r.Get("/profile", handleProfile(deps.Service))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleInit(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Init(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, res)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// handleChat answers 200 even when the turn failed; the failure is in the
// body's error field. Only an undecodable body gets a 400.
func handleChat(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req session.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			err = fmt.Errorf("%w: decoding body: %v", session.ErrInvalidRequest, err)
			writeJSON(w, http.StatusBadRequest, session.ChatFailure(err, time.Now()))
			return
		}

		writeJSON(w, http.StatusOK, svc.Chat(r.Context(), req.Message, req.Context))
	}
}

func handleProfile(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Profile())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response", "error", err)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}
