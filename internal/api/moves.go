package api

import (
	"log/slog"
	"net/http"
)

// MovesHandler moves several items and inventories at once.
type MovesHandler struct {
	*deps
}

type batchMoveRequest struct {
	IDs []string `json:"ids"`
	To  string   `json:"to"`
}

type excludedRequest struct {
	IDs []string `json:"ids"`
}

// Move handles POST /api/moves. Either every node moves or none does.
func (h *MovesHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req batchMoveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.IDs) == 0 || req.To == "" {
		jsonError(w, http.StatusBadRequest, "ids and destination required")
		return
	}

	claims := GetClaims(r.Context())
	if err := h.authorize(r.Context(), claims, append([]string{req.To}, req.IDs...)...); err != nil {
		writeError(w, err, "move")
		return
	}

	if err := h.Transfers.MoveMany(r.Context(), req.IDs, req.To); err != nil {
		writeError(w, err, "move")
		return
	}

	slog.Info("nodes moved", "user", claims.Username, "count", len(req.IDs), "to", req.To)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "moved"})
}

// Excluded handles POST /api/moves/excluded, listing the inventories the
// given nodes cannot be moved into.
func (h *MovesHandler) Excluded(w http.ResponseWriter, r *http.Request) {
	var req excludedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.authorize(r.Context(), GetClaims(r.Context()), req.IDs...); err != nil {
		writeError(w, err, "list excluded destinations")
		return
	}

	ids, err := h.Transfers.ExcludedDestinations(r.Context(), req.IDs)
	if err != nil {
		writeError(w, err, "list excluded destinations")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	jsonResponse(w, http.StatusOK, map[string][]string{"ids": ids})
}
