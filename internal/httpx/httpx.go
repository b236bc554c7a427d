// Package httpx contains the HTTP delivery layer for the vaultbot service.
// It accepts Telegram webhook pushes and hands them to the ingress bridge,
// responding as soon as the handoff completes; command outcomes never
// influence the HTTP status. Handlers are split across files (webhook.go,
// health.go, middleware.go).
package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/kverch/vaultbot/internal/telegram"
)

// Ingress abstracts the bridge's submit operation. Satisfied by
// *bridge.Bridge in production and mocked in tests.
type Ingress interface {
	Submit(ctx context.Context, u telegram.Update) error
}

// Handler wires HTTP endpoints to the ingress bridge.
// Safe for concurrent use. Zero-value is not valid; construct via New.
type Handler struct {
	Bridge Ingress
	Log    *slog.Logger
}

// New returns a configured Handler.
func New(bridge Ingress, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Bridge: bridge, Log: logger.With("domain", "http")}
}

// Router constructs an http.Handler with all routes mounted and the
// correlation/logging middleware applied.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", h.handleWebhook)
	mux.HandleFunc("GET /health", h.handleHealth)
	return CorrelationIDMiddleware(h.logRequests(mux))
}
