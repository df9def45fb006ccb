package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/erazemk/inventorykeeper/internal/model"
	"github.com/erazemk/inventorykeeper/internal/store"
	"github.com/erazemk/inventorykeeper/internal/transfer"
)

// GamesHandler handles games, their participants and their roots.
type GamesHandler struct {
	*deps
}

type createGameRequest struct {
	Title    string `json:"title"`
	Details  string `json:"details"`
	IsPublic bool   `json:"is_public"`
}

type shareRequest struct {
	RootIDs []string `json:"root_ids"`
	UserIDs []string `json:"user_ids"`
}

type createRootRequest struct {
	transfer.InventoryFields
	Shared bool `json:"shared"`
}

// List handles GET /api/games. The scope query parameter selects the
// caller's games ("mine", the default), public games they have not joined
// ("available"), or every visible game ("all").
func (h *GamesHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var (
		games []model.Game
		err   error
	)
	switch scope := r.URL.Query().Get("scope"); scope {
	case "", "mine":
		games, err = h.Games.GamesFor(r.Context(), claims.UserID)
	case "available":
		games, err = h.Games.Available(r.Context(), claims.UserID)
	case "all":
		games, err = h.Games.ListGames(r.Context(), !claims.IsAdmin)
	default:
		jsonError(w, http.StatusBadRequest, "invalid scope: "+scope)
		return
	}
	if err != nil {
		writeError(w, err, "list games")
		return
	}
	if games == nil {
		games = []model.Game{}
	}
	jsonResponse(w, http.StatusOK, games)
}

// Create handles POST /api/games. The caller joins the new game.
func (h *GamesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	g, err := h.Games.CreateGame(r.Context(), req.Title, req.Details, req.IsPublic, claims.UserID)
	if err != nil {
		writeError(w, err, "create game")
		return
	}

	slog.Info("game created", "user", claims.Username, "game", g.ID, "title", g.Title)
	jsonResponse(w, http.StatusCreated, g)
}

// Get handles GET /api/games/{id}.
func (h *GamesHandler) Get(w http.ResponseWriter, r *http.Request) {
	g, ok := h.visible(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, g)
}

// Delete handles DELETE /api/games/{id}. Only the creator or an admin may
// delete a game.
func (h *GamesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	g, ok := h.visible(w, r)
	if !ok {
		return
	}

	claims := GetClaims(r.Context())
	if !claims.IsAdmin && g.CreatedBy != claims.UserID {
		jsonError(w, http.StatusForbidden, "only the creator can delete a game")
		return
	}

	if err := h.Games.Delete(r.Context(), g.ID); err != nil {
		writeError(w, err, "delete game")
		return
	}

	slog.Info("game deleted", "user", claims.Username, "game", g.ID, "title", g.Title)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "game deleted"})
}

// Subscribe handles POST /api/games/{id}/subscribe.
func (h *GamesHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	g, ok := h.visible(w, r)
	if !ok {
		return
	}

	claims := GetClaims(r.Context())
	if err := h.Games.Subscribe(r.Context(), claims.UserID, g.ID); err != nil {
		writeError(w, err, "subscribe")
		return
	}

	slog.Info("user joined game", "user", claims.Username, "game", g.ID)
	h.respondRoots(w, r, g.ID, claims.UserID)
}

// Unsubscribe handles POST /api/games/{id}/unsubscribe.
func (h *GamesHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	g, ok := h.participating(w, r)
	if !ok {
		return
	}

	claims := GetClaims(r.Context())
	if err := h.Games.UnsubscribeAndCleanup(r.Context(), claims.UserID, g.ID); err != nil {
		writeError(w, err, "unsubscribe")
		return
	}

	slog.Info("user left game", "user", claims.Username, "game", g.ID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "unsubscribed"})
}

// Share handles POST /api/games/{id}/share.
func (h *GamesHandler) Share(w http.ResponseWriter, r *http.Request) {
	g, ok := h.participating(w, r)
	if !ok {
		return
	}

	var req shareRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.RootIDs) == 0 || len(req.UserIDs) == 0 {
		jsonError(w, http.StatusBadRequest, "root_ids and user_ids required")
		return
	}

	claims := GetClaims(r.Context())
	if err := h.authorize(r.Context(), claims, req.RootIDs...); err != nil {
		writeError(w, err, "share roots")
		return
	}
	for _, userID := range req.UserIDs {
		u, err := store.GetUser(r.Context(), h.DB, userID)
		if err != nil {
			writeError(w, err, "share roots")
			return
		}
		if u == nil {
			writeError(w, fmt.Errorf("user %s: %w", userID, model.ErrNotFound), "share roots")
			return
		}
	}

	if err := h.Games.ShareRoots(r.Context(), g.ID, req.RootIDs, req.UserIDs); err != nil {
		writeError(w, err, "share roots")
		return
	}

	slog.Info("roots shared", "user", claims.Username, "game", g.ID, "roots", req.RootIDs, "with", req.UserIDs)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "roots shared"})
}

// Roots handles GET /api/games/{id}/roots. Admins may pass ?user= to list
// another participant's roots.
func (h *GamesHandler) Roots(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	userID := claims.UserID
	if other := r.URL.Query().Get("user"); other != "" && claims.IsAdmin {
		userID = other
	}

	g, ok := h.visible(w, r)
	if !ok {
		return
	}
	h.respondRoots(w, r, g.ID, userID)
}

// CreateRoot handles POST /api/games/{id}/roots.
func (h *GamesHandler) CreateRoot(w http.ResponseWriter, r *http.Request) {
	g, ok := h.participating(w, r)
	if !ok {
		return
	}

	var req createRootRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	inv, err := h.Games.CreateRoot(r.Context(), g.ID, claims.UserID, req.InventoryFields, req.Shared)
	if err != nil {
		writeError(w, err, "create root")
		return
	}

	slog.Info("root created", "user", claims.Username, "game", g.ID, "root", inv.ID, "shared", req.Shared)
	jsonResponse(w, http.StatusCreated, inv)
}

// DeleteRoot handles DELETE /api/games/{id}/roots/{root}.
func (h *GamesHandler) DeleteRoot(w http.ResponseWriter, r *http.Request) {
	g, ok := h.participating(w, r)
	if !ok {
		return
	}

	claims := GetClaims(r.Context())
	rootID := r.PathValue("root")
	if err := h.authorize(r.Context(), claims, rootID); err != nil {
		writeError(w, err, "delete root")
		return
	}
	if err := h.Games.DeleteRoot(r.Context(), g.ID, rootID); err != nil {
		writeError(w, err, "delete root")
		return
	}

	slog.Info("root deleted", "user", claims.Username, "game", g.ID, "root", rootID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "root deleted"})
}

// Dump handles GET /api/games/{id}/dump, printing every root the caller can
// reach in the game as an indented tree.
func (h *GamesHandler) Dump(w http.ResponseWriter, r *http.Request) {
	g, ok := h.participating(w, r)
	if !ok {
		return
	}

	claims := GetClaims(r.Context())
	roots, err := h.Games.Roots(r.Context(), g.ID, claims.UserID)
	if err != nil {
		writeError(w, err, "dump game")
		return
	}
	ids := make([]string, len(roots))
	for i, inv := range roots {
		ids[i] = inv.ID
	}

	out, err := h.Transfers.Dump(r.Context(), ids...)
	if err != nil {
		writeError(w, err, "dump game")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(out))
}

func (h *GamesHandler) respondRoots(w http.ResponseWriter, r *http.Request, gameID, userID string) {
	roots, err := h.Games.Roots(r.Context(), gameID, userID)
	if err != nil {
		writeError(w, err, "list roots")
		return
	}
	if roots == nil {
		roots = []model.Inventory{}
	}
	jsonResponse(w, http.StatusOK, roots)
}

// visible loads the game named by the id path value. Private games are
// hidden from callers who do not take part in them.
func (h *GamesHandler) visible(w http.ResponseWriter, r *http.Request) (*model.Game, bool) {
	g, err := h.Games.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err, "get game")
		return nil, false
	}
	claims := GetClaims(r.Context())
	if !g.IsPublic && !claims.IsAdmin && !g.HasParticipant(claims.UserID) {
		jsonError(w, http.StatusNotFound, "game not found")
		return nil, false
	}
	return g, true
}

// participating loads the game named by the id path value and requires the
// caller to take part in it.
func (h *GamesHandler) participating(w http.ResponseWriter, r *http.Request) (*model.Game, bool) {
	g, ok := h.visible(w, r)
	if !ok {
		return nil, false
	}
	if !g.HasParticipant(GetClaims(r.Context()).UserID) {
		jsonError(w, http.StatusForbidden, "you do not take part in this game")
		return nil, false
	}
	return g, true
}
