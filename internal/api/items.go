package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/inventorykeeper/internal/model"
	"github.com/erazemk/inventorykeeper/internal/transfer"
	"github.com/erazemk/inventorykeeper/internal/units"
)

// maxLookaheadDays bounds the days query parameter of an item lookup.
const maxLookaheadDays = 3650

// ItemsHandler handles item endpoints. Items are created inside an
// inventory, see InventoriesHandler.CreateItem.
type ItemsHandler struct {
	*deps
}

type itemResponse struct {
	*model.Item
	Expired *bool `json:"expired,omitempty"`
}

// Get handles GET /api/items/{id}. Given the current game day as
// ?today=DD.MM.YYYY, the response says whether the item has expired by then,
// or by ?days=N days later.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.node(w, r, "get item")
	if !ok {
		return
	}

	query := r.URL.Query()
	var day *units.GameDate
	if s := query.Get("today"); s != "" {
		today, err := units.ParseGameDate(s)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid today: "+err.Error())
			return
		}
		days := 0
		if s := query.Get("days"); s != "" {
			if days, err = strconv.Atoi(s); err != nil || days < 0 || days > maxLookaheadDays {
				jsonError(w, http.StatusBadRequest, "days must be between 0 and "+strconv.Itoa(maxLookaheadDays))
				return
			}
		}
		d := today.AddDays(days)
		day = &d
	}

	item, err := h.Transfers.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, err, "get item")
		return
	}

	resp := itemResponse{Item: item}
	if day != nil {
		expired := item.Expired(*day)
		resp.Expired = &expired
	}
	jsonResponse(w, http.StatusOK, resp)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.node(w, r, "update item")
	if !ok {
		return
	}

	var req transfer.ItemFields
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Transfers.UpdateItem(r.Context(), id, req)
	if err != nil {
		writeError(w, err, "update item")
		return
	}

	slog.Info("item updated", "user", GetClaims(r.Context()).Username, "item", id)
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.node(w, r, "delete item")
	if !ok {
		return
	}
	if err := h.Transfers.DeleteItem(r.Context(), id); err != nil {
		writeError(w, err, "delete item")
		return
	}

	slog.Info("item deleted", "user", GetClaims(r.Context()).Username, "item", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// Move handles POST /api/items/{id}/move.
func (h *ItemsHandler) Move(w http.ResponseWriter, r *http.Request) {
	id, ok := h.node(w, r, "move item")
	if !ok {
		return
	}

	var req moveRequest
	if err := decodeJSON(w, r, &req); err != nil || req.To == "" {
		jsonError(w, http.StatusBadRequest, "destination required")
		return
	}
	claims := GetClaims(r.Context())
	if err := h.authorize(r.Context(), claims, req.To); err != nil {
		writeError(w, err, "move item")
		return
	}

	if err := h.Transfers.MoveItem(r.Context(), id, req.To); err != nil {
		writeError(w, err, "move item")
		return
	}

	slog.Info("item moved", "user", claims.Username, "item", id, "to", req.To)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item moved"})
}
