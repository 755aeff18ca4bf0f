package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dantte-lp/nocrouter/internal/noc/endpoint"
	"github.com/dantte-lp/nocrouter/internal/noc/msg"
)

// Route patterns carry their own method ("GET /v1/nodes"), so
// http.ServeMux rejects a mismatched method before any handler below
// runs.

// writeJSON encodes v as the response body with a 200 status.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError encodes an {"error": msg} body with the given status.
func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: err.Error()})
}

// handleListNodes handles GET /v1/nodes.
func handleListNodes(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, reg.ListNodes())
	}
}

// handleNodeStatus handles GET /v1/nodes/{id}, where {id} is a RouterID
// in "core/index" form.
func handleNodeStatus(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := endpoint.ParseRouterID(r.PathValue("id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		status, err := reg.Status(id)
		if err != nil {
			if errors.Is(err, ErrUnknownNode) {
				writeError(w, http.StatusNotFound, err)
				return
			}
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, status)
	}
}

// injectRequest is the wire body for POST /v1/inject.
type injectRequest struct {
	Packet msg.NetPacket `json:"packet"`
}

// handleInject handles POST /v1/inject: decode a NetPacket and push it
// onto the shared event queue for the next simulation step to pick up.
func handleInject(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body injectRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		if err := reg.Inject(body.Packet); err != nil {
			if errors.Is(err, ErrUnknownNode) {
				writeError(w, http.StatusNotFound, err)
				return
			}
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, struct {
			QueueDepth int `json:"queue_depth"`
		}{QueueDepth: reg.QueueDepth()})
	}
}
