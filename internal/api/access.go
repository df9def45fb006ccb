package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/erazemk/inventorykeeper/internal/auth"
	"github.com/erazemk/inventorykeeper/internal/game"
	"github.com/erazemk/inventorykeeper/internal/model"
	"github.com/erazemk/inventorykeeper/internal/store"
	"github.com/erazemk/inventorykeeper/internal/transfer"
	"github.com/erazemk/inventorykeeper/internal/tree"
)

// deps are shared by the handlers that work on games and their trees.
type deps struct {
	DB        *sql.DB
	Transfers *transfer.Service
	Games     *game.Registry
}

// rootOf returns the root inventory of the tree holding node id, which may
// be an item or an inventory.
func rootOf(ctx context.Context, q store.Querier, id string) (string, error) {
	owner, found, err := store.ItemOwner(ctx, q, id)
	if err != nil {
		return "", err
	}
	if found {
		id = owner
	}
	chain, err := tree.Ancestors(ctx, q, id)
	if err != nil {
		return "", err
	}
	if len(chain) == 0 {
		return id, nil
	}
	return chain[len(chain)-1], nil
}

// authorize fails with ErrNotFound unless the caller reaches every node in
// ids through a root registered for them. Admins reach everything that
// exists.
func (d *deps) authorize(ctx context.Context, claims *auth.Claims, ids ...string) error {
	for _, id := range ids {
		root, err := rootOf(ctx, d.DB, id)
		if err != nil {
			return err
		}
		if claims.IsAdmin {
			continue
		}
		ok, err := d.Games.CanAccess(ctx, claims.UserID, root)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s: %w", id, model.ErrNotFound)
		}
	}
	return nil
}

// node returns the id path value once the caller is known to reach it.
func (d *deps) node(w http.ResponseWriter, r *http.Request, action string) (string, bool) {
	id := r.PathValue("id")
	if !model.ValidID(id) {
		jsonError(w, http.StatusBadRequest, "invalid id")
		return "", false
	}
	if err := d.authorize(r.Context(), GetClaims(r.Context()), id); err != nil {
		writeError(w, err, action)
		return "", false
	}
	return id, true
}
