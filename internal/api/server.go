package api

import (
	"log/slog"
	"net/http"
)

// New builds the admin HTTP handler: node listing, per-node channel
// snapshots, and packet injection, wrapped in logging and panic-recovery
// middleware. Mirrors how internal/server.New returns a path and handler
// pair for the main daemon to mount, but here there is a single mux
// rather than one procedure per RPC method.
func New(reg *Registry, logger *slog.Logger) http.Handler {
	logger = logger.With(slog.String("component", "api"))

	mux := http.NewServeMux()
	mux.Handle("GET /v1/nodes", handleListNodes(reg))
	mux.Handle("GET /v1/nodes/{id...}", handleNodeStatus(reg))
	mux.Handle("POST /v1/inject", handleInject(reg))

	return chain(mux, LoggingMiddleware(logger), RecoveryMiddleware(logger))
}
