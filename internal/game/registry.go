// Package game manages games, their participants and the root inventories
// each participant can reach.
//
// A game has one global location root shared with every participant, and
// each participant gets a private main character root on joining. Roots are
// either private to one participant or shared with a set of participants.
// A shared root nobody holds a share of is deleted, as are the private roots
// of a participant who leaves.
package game

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/inventorykeeper/internal/model"
	"github.com/erazemk/inventorykeeper/internal/store"
	"github.com/erazemk/inventorykeeper/internal/transfer"
)

// Registry creates and tears down games and their roots.
type Registry struct {
	db  *sql.DB
	now func() time.Time
}

// New returns a Registry backed by db.
func New(db *sql.DB) *Registry {
	return &Registry{db: db, now: time.Now}
}

// CreateGame creates a game owned by ownerID, with its global root and the
// owner's main character.
func (r *Registry) CreateGame(ctx context.Context, title, details string, isPublic bool, ownerID string) (*model.Game, error) {
	if title == "" {
		return nil, &model.ValidationError{Reason: "title is required"}
	}
	g := &model.Game{
		ID:        model.NewID(),
		Title:     title,
		Details:   details,
		IsPublic:  isPublic,
		CreatedBy: ownerID,
		CreatedAt: r.now(),
	}

	err := store.InTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := store.InsertGame(ctx, tx, g); err != nil {
			return err
		}
		return r.subscribe(ctx, tx, ownerID, g.ID)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, g.ID)
}

// Get returns a game with its participants and root registrations.
func (r *Registry) Get(ctx context.Context, gameID string) (*model.Game, error) {
	return game(ctx, r.db, gameID)
}

// Subscribe adds userID to the game. It creates the user's main character if
// they have none and shares the global root with them, creating it if the
// game has none. Subscribing twice changes nothing.
func (r *Registry) Subscribe(ctx context.Context, userID, gameID string) error {
	return store.InTx(ctx, r.db, func(tx *sql.Tx) error {
		return r.subscribe(ctx, tx, userID, gameID)
	})
}

func (r *Registry) subscribe(ctx context.Context, q store.Querier, userID, gameID string) error {
	g, err := game(ctx, q, gameID)
	if err != nil {
		return err
	}
	u, err := store.GetUser(ctx, q, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("user %s: %w", userID, model.ErrNotFound)
	}

	if err := store.AddParticipant(ctx, q, gameID, userID); err != nil {
		return err
	}

	if !hasMain(g.PrivateRoots, userID) {
		main, err := transfer.NewRoot(ctx, q, transfer.InventoryFields{
			Name: model.MainCharacterRootName,
			Kind: model.InventoryKindCharacter,
		}, r.now())
		if err != nil {
			return err
		}
		err = store.AddPrivateRoot(ctx, q, gameID, model.PrivateRoot{InventoryID: main.ID, UserID: userID, Main: true})
		if err != nil {
			return err
		}
	}

	globalID := g.GlobalRootID
	if globalID == "" {
		global, err := transfer.NewRoot(ctx, q, transfer.InventoryFields{
			Name: model.GlobalRootName,
			Kind: model.InventoryKindLocation,
		}, r.now())
		if err != nil {
			return err
		}
		if err := store.SetGlobalRoot(ctx, q, gameID, global.ID); err != nil {
			return err
		}
		globalID = global.ID
	}
	return store.AddShare(ctx, q, gameID, model.ShareEntry{InventoryID: globalID, UserID: userID})
}

func hasMain(roots []model.PrivateRoot, userID string) bool {
	for _, root := range roots {
		if root.UserID == userID && root.Main {
			return true
		}
	}
	return false
}

// UnsubscribeAndCleanup removes userID from the game. Their private roots
// are deleted with everything inside, their shares are revoked, shared roots
// left without any share are deleted, and the global root is deleted once
// the last participant has left.
func (r *Registry) UnsubscribeAndCleanup(ctx context.Context, userID, gameID string) error {
	return store.InTx(ctx, r.db, func(tx *sql.Tx) error {
		return unsubscribe(ctx, tx, userID, gameID)
	})
}

func unsubscribe(ctx context.Context, q store.Querier, userID, gameID string) error {
	g, err := game(ctx, q, gameID)
	if err != nil {
		return err
	}

	if err := store.RemoveParticipant(ctx, q, gameID, userID); err != nil {
		return err
	}

	for _, root := range g.PrivateRoots {
		if root.UserID != userID {
			continue
		}
		if err := transfer.DeleteSubtree(ctx, q, root.InventoryID); err != nil {
			return err
		}
	}

	for _, share := range g.SharedRoots {
		if share.UserID != userID {
			continue
		}
		if err := store.RemoveShare(ctx, q, share); err != nil {
			return err
		}
		if share.InventoryID == g.GlobalRootID {
			continue
		}
		n, err := store.ShareCount(ctx, q, share.InventoryID)
		if err != nil {
			return err
		}
		if n == 0 {
			if err := transfer.DeleteSubtree(ctx, q, share.InventoryID); err != nil {
				return err
			}
		}
	}

	remaining, err := store.Participants(ctx, q, gameID)
	if err != nil {
		return err
	}
	if len(remaining) == 0 && g.GlobalRootID != "" {
		return transfer.DeleteSubtree(ctx, q, g.GlobalRootID)
	}
	return nil
}

// Delete deletes the game with every root registered in it.
func (r *Registry) Delete(ctx context.Context, gameID string) error {
	return store.InTx(ctx, r.db, func(tx *sql.Tx) error {
		g, err := game(ctx, tx, gameID)
		if err != nil {
			return err
		}

		seen := map[string]bool{}
		var roots []string
		add := func(id string) {
			if id != "" && !seen[id] {
				seen[id] = true
				roots = append(roots, id)
			}
		}
		for _, p := range g.PrivateRoots {
			add(p.InventoryID)
		}
		for _, s := range g.SharedRoots {
			add(s.InventoryID)
		}
		add(g.GlobalRootID)

		for _, id := range roots {
			if err := transfer.DeleteSubtree(ctx, tx, id); err != nil {
				return err
			}
		}
		return store.DeleteGame(ctx, tx, gameID)
	})
}

// ShareRoots shares each of rootIDs with each of userIDs, subscribing users
// who are not participants yet. A private root becomes shared and stays
// reachable by its former owner.
func (r *Registry) ShareRoots(ctx context.Context, gameID string, rootIDs, userIDs []string) error {
	return store.InTx(ctx, r.db, func(tx *sql.Tx) error {
		g, err := game(ctx, tx, gameID)
		if err != nil {
			return err
		}

		for _, userID := range userIDs {
			if !g.HasParticipant(userID) {
				if err := r.subscribe(ctx, tx, userID, gameID); err != nil {
					return err
				}
			}
		}

		for _, rootID := range rootIDs {
			if err := registered(g, rootID); err != nil {
				return err
			}
			for _, p := range g.PrivateRoots {
				if p.InventoryID != rootID {
					continue
				}
				if p.Main {
					return &model.ValidationError{Reason: "a main character cannot be shared"}
				}
				if err := store.RemovePrivateRoot(ctx, tx, rootID); err != nil {
					return err
				}
				err := store.AddShare(ctx, tx, gameID, model.ShareEntry{InventoryID: rootID, UserID: p.UserID})
				if err != nil {
					return err
				}
			}
			for _, userID := range userIDs {
				err := store.AddShare(ctx, tx, gameID, model.ShareEntry{InventoryID: rootID, UserID: userID})
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// CreateRoot creates a root inventory in the game for participant userID,
// private to them or shared with them.
func (r *Registry) CreateRoot(ctx context.Context, gameID, userID string, f transfer.InventoryFields, shared bool) (*model.Inventory, error) {
	var inv *model.Inventory
	err := store.InTx(ctx, r.db, func(tx *sql.Tx) error {
		g, err := game(ctx, tx, gameID)
		if err != nil {
			return err
		}
		if !g.HasParticipant(userID) {
			return &model.ValidationError{Reason: "user " + userID + " does not take part in the game"}
		}

		inv, err = transfer.NewRoot(ctx, tx, f, r.now())
		if err != nil {
			return err
		}
		if shared {
			return store.AddShare(ctx, tx, gameID, model.ShareEntry{InventoryID: inv.ID, UserID: userID})
		}
		return store.AddPrivateRoot(ctx, tx, gameID, model.PrivateRoot{InventoryID: inv.ID, UserID: userID})
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// DeleteRoot deletes a root registered in the game. The global root goes
// away only with its last participant.
func (r *Registry) DeleteRoot(ctx context.Context, gameID, rootID string) error {
	return store.InTx(ctx, r.db, func(tx *sql.Tx) error {
		g, err := game(ctx, tx, gameID)
		if err != nil {
			return err
		}
		if rootID == g.GlobalRootID {
			return &model.ValidationError{Reason: "the global root cannot be deleted"}
		}
		if err := registered(g, rootID); err != nil {
			return err
		}
		return transfer.DeleteSubtree(ctx, tx, rootID)
	})
}

// Roots returns the roots userID can reach in the game: their private roots
// first, then the roots shared with them.
func (r *Registry) Roots(ctx context.Context, gameID, userID string) ([]model.Inventory, error) {
	g, err := game(ctx, r.db, gameID)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, p := range g.PrivateRoots {
		if p.UserID == userID {
			ids = append(ids, p.InventoryID)
		}
	}
	for _, s := range g.SharedRoots {
		if s.UserID == userID {
			ids = append(ids, s.InventoryID)
		}
	}

	invs, err := store.GetInventoriesByID(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Inventory, len(invs))
	for _, inv := range invs {
		byID[inv.ID] = inv
	}
	out := make([]model.Inventory, 0, len(ids))
	for _, id := range ids {
		if inv, ok := byID[id]; ok {
			out = append(out, inv)
		}
	}
	return out, nil
}

// CanAccess reports whether userID can reach inventory id through a root
// registered for them in any game.
func (r *Registry) CanAccess(ctx context.Context, userID, rootID string) (bool, error) {
	gameID, err := store.RootGame(ctx, r.db, rootID)
	if err != nil || gameID == "" {
		return false, err
	}
	roots, err := r.Roots(ctx, gameID, userID)
	if err != nil {
		return false, err
	}
	for _, inv := range roots {
		if inv.ID == rootID {
			return true, nil
		}
	}
	return false, nil
}

// ListGames returns every game, or only public ones.
func (r *Registry) ListGames(ctx context.Context, publicOnly bool) ([]model.Game, error) {
	return store.ListGames(ctx, r.db, publicOnly)
}

// GamesFor returns the games userID takes part in.
func (r *Registry) GamesFor(ctx context.Context, userID string) ([]model.Game, error) {
	return store.GamesOfUser(ctx, r.db, userID)
}

// Available returns the public games userID has not joined.
func (r *Registry) Available(ctx context.Context, userID string) ([]model.Game, error) {
	public, err := store.ListGames(ctx, r.db, true)
	if err != nil {
		return nil, err
	}
	joined, err := store.UserGameIDs(ctx, r.db, userID)
	if err != nil {
		return nil, err
	}
	in := make(map[string]bool, len(joined))
	for _, id := range joined {
		in[id] = true
	}

	var out []model.Game
	for _, g := range public {
		if !in[g.ID] {
			out = append(out, g)
		}
	}
	return out, nil
}

// RemoveUser leaves every game userID takes part in, with the usual cleanup,
// and then deletes the user.
func (r *Registry) RemoveUser(ctx context.Context, userID string) error {
	return store.InTx(ctx, r.db, func(tx *sql.Tx) error {
		u, err := store.GetUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("user %s: %w", userID, model.ErrNotFound)
		}
		for _, gameID := range u.SubscribedGameIDs {
			if err := unsubscribe(ctx, tx, userID, gameID); err != nil {
				return err
			}
		}
		return store.DeleteUser(ctx, tx, userID)
	})
}

func game(ctx context.Context, q store.Querier, id string) (*model.Game, error) {
	g, err := store.GetGame(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("game %s: %w", id, model.ErrNotFound)
	}
	return g, nil
}

// registered fails with ErrNotFound unless rootID is a root of g.
func registered(g *model.Game, rootID string) error {
	if rootID == g.GlobalRootID {
		return nil
	}
	for _, p := range g.PrivateRoots {
		if p.InventoryID == rootID {
			return nil
		}
	}
	for _, s := range g.SharedRoots {
		if s.InventoryID == rootID {
			return nil
		}
	}
	return fmt.Errorf("root %s in game %s: %w", rootID, g.ID, model.ErrNotFound)
}
