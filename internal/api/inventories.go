package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/inventorykeeper/internal/model"
	"github.com/erazemk/inventorykeeper/internal/transfer"
	"github.com/erazemk/inventorykeeper/internal/tree"
	"github.com/erazemk/inventorykeeper/internal/units"
)

// InventoriesHandler handles inventory endpoints.
type InventoriesHandler struct {
	*deps
}

type moveRequest struct {
	To string `json:"to"`
}

type totalsResponse struct {
	Cached   model.Totals  `json:"cached"`
	Display  model.Totals  `json:"display"`
	Computed *model.Totals `json:"computed,omitempty"`
	Stale    bool          `json:"stale,omitempty"`
}

// Get handles GET /api/inventories/{id}.
func (h *InventoriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.node(w, r, "get inventory")
	if !ok {
		return
	}
	inv, err := h.Transfers.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, "get inventory")
		return
	}
	jsonResponse(w, http.StatusOK, inv)
}

// Children handles GET /api/inventories/{id}/children.
func (h *InventoriesHandler) Children(w http.ResponseWriter, r *http.Request) {
	id, ok := h.node(w, r, "list contents")
	if !ok {
		return
	}
	contents, err := h.Transfers.Children(r.Context(), id)
	if err != nil {
		writeError(w, err, "list contents")
		return
	}
	jsonResponse(w, http.StatusOK, contents)
}

// CreateInventory handles POST /api/inventories/{id}/inventories.
func (h *InventoriesHandler) CreateInventory(w http.ResponseWriter, r *http.Request) {
	parentID, ok := h.node(w, r, "create inventory")
	if !ok {
		return
	}

	var req transfer.InventoryFields
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inv, err := h.Transfers.CreateInventory(r.Context(), parentID, req)
	if err != nil {
		writeError(w, err, "create inventory")
		return
	}

	slog.Info("inventory created", "user", GetClaims(r.Context()).Username, "inventory", inv.ID, "in", parentID)
	jsonResponse(w, http.StatusCreated, inv)
}

// CreateItem handles POST /api/inventories/{id}/items.
func (h *InventoriesHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	parentID, ok := h.node(w, r, "create item")
	if !ok {
		return
	}

	var req transfer.ItemFields
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Transfers.CreateItem(r.Context(), parentID, req)
	if err != nil {
		writeError(w, err, "create item")
		return
	}

	slog.Info("item created", "user", GetClaims(r.Context()).Username, "item", item.ID, "in", parentID)
	jsonResponse(w, http.StatusCreated, item)
}

// Update handles PUT /api/inventories/{id}.
func (h *InventoriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.node(w, r, "update inventory")
	if !ok {
		return
	}

	var req transfer.InventoryFields
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inv, err := h.Transfers.UpdateInventory(r.Context(), id, req)
	if err != nil {
		writeError(w, err, "update inventory")
		return
	}

	slog.Info("inventory updated", "user", GetClaims(r.Context()).Username, "inventory", id)
	jsonResponse(w, http.StatusOK, inv)
}

// Delete handles DELETE /api/inventories/{id}. Roots are deleted through
// their game.
func (h *InventoriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.node(w, r, "delete inventory")
	if !ok {
		return
	}

	inv, err := h.Transfers.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, "delete inventory")
		return
	}
	if inv.IsRoot() {
		jsonError(w, http.StatusBadRequest, "root inventories are deleted through their game")
		return
	}

	if err := h.Transfers.DeleteTree(r.Context(), id); err != nil {
		writeError(w, err, "delete inventory")
		return
	}

	slog.Info("inventory deleted", "user", GetClaims(r.Context()).Username, "inventory", id, "name", inv.Common.Name)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "inventory deleted"})
}

// Move handles POST /api/inventories/{id}/move.
func (h *InventoriesHandler) Move(w http.ResponseWriter, r *http.Request) {
	id, ok := h.node(w, r, "move inventory")
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
		writeError(w, err, "move inventory")
		return
	}

	if err := h.Transfers.MoveInventory(r.Context(), id, req.To); err != nil {
		writeError(w, err, "move inventory")
		return
	}

	slog.Info("inventory moved", "user", claims.Username, "inventory", id, "to", req.To)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "inventory moved"})
}

// Totals handles GET /api/inventories/{id}/totals. The display totals are
// in the weight_unit and currency_unit query parameters, or in the largest
// readable unit when those are absent. With ?verify=true the cached totals
// are compared against a full walk of the subtree.
func (h *InventoriesHandler) Totals(w http.ResponseWriter, r *http.Request) {
	id, ok := h.node(w, r, "get totals")
	if !ok {
		return
	}

	query := r.URL.Query()
	var (
		weightUnit   units.WeightUnit
		currencyUnit units.CurrencyUnit
		err          error
	)
	if s := query.Get("weight_unit"); s != "" {
		if weightUnit, err = units.ParseWeightUnit(s); err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if s := query.Get("currency_unit"); s != "" {
		if currencyUnit, err = units.ParseCurrencyUnit(s); err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	inv, err := h.Transfers.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, "get totals")
		return
	}
	resp := totalsResponse{Cached: inv.Totals()}
	resp.Display = display(resp.Cached, weightUnit, currencyUnit)

	if query.Get("verify") == "true" {
		computed, err := tree.Totals(r.Context(), h.DB, id)
		if err != nil {
			writeError(w, err, "get totals")
			return
		}
		resp.Computed = &computed
		resp.Stale = tree.Differ(resp.Cached, computed)
		if resp.Stale {
			slog.Warn("cached totals differ from contents", "inventory", id)
		}
	}
	jsonResponse(w, http.StatusOK, resp)
}

// display converts t to the given units. An empty unit picks the largest
// unit in which the amount is at least one.
func display(t model.Totals, w units.WeightUnit, c units.CurrencyUnit) model.Totals {
	currency := func(q units.Currency) units.Currency {
		if c == "" {
			return q.Optimized()
		}
		return q.Convert(c)
	}
	out := model.Totals{
		PersonalValue: currency(t.PersonalValue),
		MoneyAmount:   currency(t.MoneyAmount),
		Value:         currency(t.Value),
	}
	if w == "" {
		out.Weight = t.Weight.Optimized()
	} else {
		out.Weight = t.Weight.Convert(w)
	}
	return out
}

// Dump handles GET /api/inventories/{id}/dump.
func (h *InventoriesHandler) Dump(w http.ResponseWriter, r *http.Request) {
	id, ok := h.node(w, r, "dump inventory")
	if !ok {
		return
	}
	out, err := h.Transfers.Dump(r.Context(), id)
	if err != nil {
		writeError(w, err, "dump inventory")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(out))
}
