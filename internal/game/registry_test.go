package game

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/erazemk/inventorykeeper/internal/db"
	"github.com/erazemk/inventorykeeper/internal/model"
	"github.com/erazemk/inventorykeeper/internal/store"
	"github.com/erazemk/inventorykeeper/internal/transfer"
	"github.com/erazemk/inventorykeeper/internal/units"
)

func newRegistry(t *testing.T) (*Registry, *sql.DB) {
	t.Helper()
	database := db.NewTestDB(t)
	return New(database), database
}

func newUser(t *testing.T, database *sql.DB, name string) string {
	t.Helper()
	u, err := store.CreateUser(context.Background(), database, name, "hash", false)
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", name, err)
	}
	return u.ID
}

func exists(t *testing.T, database *sql.DB, id string) bool {
	t.Helper()
	inv, err := store.GetInventory(context.Background(), database, id)
	if err != nil {
		t.Fatalf("GetInventory: %v", err)
	}
	return inv != nil
}

func mainRoot(t *testing.T, g *model.Game, userID string) string {
	t.Helper()
	for _, p := range g.PrivateRoots {
		if p.UserID == userID && p.Main {
			return p.InventoryID
		}
	}
	t.Fatalf("user %s has no main character", userID)
	return ""
}

func TestCreateGame(t *testing.T) {
	r, database := newRegistry(t)
	ctx := context.Background()
	owner := newUser(t, database, "owner")

	g, err := r.CreateGame(ctx, "Campaign", "west coast", true, owner)
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	if len(g.ParticipantIDs) != 1 || g.ParticipantIDs[0] != owner {
		t.Errorf("expected owner to participate, got %v", g.ParticipantIDs)
	}
	if g.GlobalRootID == "" {
		t.Fatal("expected a global root")
	}
	if len(g.SharedRoots) != 1 || g.SharedRoots[0] != (model.ShareEntry{InventoryID: g.GlobalRootID, UserID: owner}) {
		t.Errorf("expected the global root shared with the owner, got %v", g.SharedRoots)
	}

	global, _ := store.GetInventory(ctx, database, g.GlobalRootID)
	if global.Kind != model.InventoryKindLocation || global.Common.Name != model.GlobalRootName || !global.IsRoot() {
		t.Errorf("unexpected global root %+v", global)
	}
	main, _ := store.GetInventory(ctx, database, mainRoot(t, g, owner))
	if main.Kind != model.InventoryKindCharacter || !main.IsRoot() {
		t.Errorf("unexpected main character %+v", main)
	}

	roots, err := r.Roots(ctx, g.ID, owner)
	if err != nil {
		t.Fatalf("Roots: %v", err)
	}
	if len(roots) != 2 || roots[0].ID != main.ID || roots[1].ID != global.ID {
		t.Errorf("expected [main global], got %v", roots)
	}

	if _, err := r.CreateGame(ctx, "", "", false, owner); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty title, got %v", err)
	}
	if _, err := r.CreateGame(ctx, "Ghost", "", false, "nobody"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown owner, got %v", err)
	}
}

func TestSubscribeIsIdempotent(t *testing.T) {
	r, database := newRegistry(t)
	ctx := context.Background()
	owner := newUser(t, database, "owner")
	guest := newUser(t, database, "guest")

	g, _ := r.CreateGame(ctx, "Campaign", "", true, owner)
	for i := 0; i < 2; i++ {
		if err := r.Subscribe(ctx, guest, g.ID); err != nil {
			t.Fatalf("Subscribe #%d: %v", i+1, err)
		}
	}

	g, _ = r.Get(ctx, g.ID)
	if len(g.ParticipantIDs) != 2 {
		t.Errorf("expected 2 participants, got %v", g.ParticipantIDs)
	}
	if len(g.PrivateRoots) != 2 {
		t.Errorf("expected one main character each, got %v", g.PrivateRoots)
	}
	if len(g.SharedRoots) != 2 {
		t.Errorf("expected the global root shared twice, got %v", g.SharedRoots)
	}

	u, _ := store.GetUser(ctx, database, guest)
	if len(u.SubscribedGameIDs) != 1 || u.SubscribedGameIDs[0] != g.ID {
		t.Errorf("expected guest subscribed to %s, got %v", g.ID, u.SubscribedGameIDs)
	}
}

func TestUnsubscribeCleanup(t *testing.T) {
	r, database := newRegistry(t)
	ctx := context.Background()
	u1 := newUser(t, database, "u1")
	u2 := newUser(t, database, "u2")

	g, _ := r.CreateGame(ctx, "Campaign", "", false, u1)
	if err := r.Subscribe(ctx, u2, g.ID); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	g, _ = r.Get(ctx, g.ID)
	global := g.GlobalRootID
	main1 := mainRoot(t, g, u1)
	main2 := mainRoot(t, g, u2)

	// Something inside the main character goes with it.
	svc := transfer.New(database)
	sword, err := svc.CreateItem(ctx, main1, transfer.ItemFields{Name: "sword", Weight: units.Kg(2)})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	if err := r.UnsubscribeAndCleanup(ctx, u1, g.ID); err != nil {
		t.Fatalf("UnsubscribeAndCleanup(u1): %v", err)
	}
	g, _ = r.Get(ctx, g.ID)
	if g.HasParticipant(u1) || !g.HasParticipant(u2) {
		t.Errorf("expected only u2 to remain, got %v", g.ParticipantIDs)
	}
	if exists(t, database, main1) {
		t.Error("expected u1's main character to be deleted")
	}
	if it, _ := store.GetItem(ctx, database, sword.ID); it != nil {
		t.Error("expected the sword to be deleted with its owner")
	}
	if !exists(t, database, global) || g.GlobalRootID != global {
		t.Error("expected the global root to survive while u2 participates")
	}
	for _, s := range g.SharedRoots {
		if s.UserID == u1 {
			t.Errorf("expected u1's shares to be removed, found %v", s)
		}
	}

	if err := r.UnsubscribeAndCleanup(ctx, u2, g.ID); err != nil {
		t.Fatalf("UnsubscribeAndCleanup(u2): %v", err)
	}
	g, _ = r.Get(ctx, g.ID)
	if len(g.ParticipantIDs) != 0 {
		t.Errorf("expected no participants, got %v", g.ParticipantIDs)
	}
	if exists(t, database, global) || exists(t, database, main2) {
		t.Error("expected the global root and u2's main character to be deleted")
	}
	if g.GlobalRootID != "" {
		t.Errorf("expected the global root pointer to be cleared, got %s", g.GlobalRootID)
	}

	// The next subscriber gets a fresh global root.
	if err := r.Subscribe(ctx, u1, g.ID); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	g, _ = r.Get(ctx, g.ID)
	if g.GlobalRootID == "" || g.GlobalRootID == global {
		t.Errorf("expected a new global root, got %q", g.GlobalRootID)
	}
}

func TestUnsubscribeDeletesOrphanedSharedRoots(t *testing.T) {
	r, database := newRegistry(t)
	ctx := context.Background()
	u1 := newUser(t, database, "u1")
	u2 := newUser(t, database, "u2")

	g, _ := r.CreateGame(ctx, "Campaign", "", false, u1)
	r.Subscribe(ctx, u2, g.ID)

	cart, err := r.CreateRoot(ctx, g.ID, u1, transfer.InventoryFields{Name: "Cart", Kind: model.InventoryKindVehicle}, false)
	if err != nil {
		t.Fatalf("CreateRoot: %v", err)
	}
	camp, err := r.CreateRoot(ctx, g.ID, u1, transfer.InventoryFields{Name: "Camp"}, true)
	if err != nil {
		t.Fatalf("CreateRoot: %v", err)
	}
	if err := r.ShareRoots(ctx, g.ID, []string{cart.ID}, []string{u2}); err != nil {
		t.Fatalf("ShareRoots: %v", err)
	}

	roots, _ := r.Roots(ctx, g.ID, u2)
	var sawCart bool
	for _, inv := range roots {
		if inv.ID == cart.ID {
			sawCart = true
		}
	}
	if !sawCart {
		t.Error("expected u2 to reach the shared cart")
	}

	if err := r.UnsubscribeAndCleanup(ctx, u1, g.ID); err != nil {
		t.Fatalf("UnsubscribeAndCleanup: %v", err)
	}
	if !exists(t, database, cart.ID) {
		t.Error("expected the cart to survive, u2 still shares it")
	}
	if exists(t, database, camp.ID) {
		t.Error("expected the camp, shared with nobody else, to be deleted")
	}
}

func TestShareRootsPromotesPrivateRoot(t *testing.T) {
	r, database := newRegistry(t)
	ctx := context.Background()
	owner := newUser(t, database, "owner")
	guest := newUser(t, database, "guest")

	g, _ := r.CreateGame(ctx, "Campaign", "", false, owner)
	chest, _ := r.CreateRoot(ctx, g.ID, owner, transfer.InventoryFields{Name: "Chest"}, false)

	if err := r.ShareRoots(ctx, g.ID, []string{chest.ID}, []string{guest}); err != nil {
		t.Fatalf("ShareRoots: %v", err)
	}

	g, _ = r.Get(ctx, g.ID)
	if !g.HasParticipant(guest) {
		t.Error("expected guest to be subscribed by sharing")
	}
	for _, p := range g.PrivateRoots {
		if p.InventoryID == chest.ID {
			t.Error("expected the chest to no longer be private")
		}
	}
	holders := map[string]bool{}
	for _, s := range g.SharedRoots {
		if s.InventoryID == chest.ID {
			holders[s.UserID] = true
		}
	}
	if !holders[owner] || !holders[guest] {
		t.Errorf("expected chest shared with owner and guest, got %v", holders)
	}

	if err := r.ShareRoots(ctx, g.ID, []string{mainRoot(t, g, owner)}, []string{guest}); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("expected sharing a main character to fail, got %v", err)
	}
	if err := r.ShareRoots(ctx, g.ID, []string{"ghost"}, []string{guest}); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown root, got %v", err)
	}
}

func TestCreateAndDeleteRoot(t *testing.T) {
	r, database := newRegistry(t)
	ctx := context.Background()
	owner := newUser(t, database, "owner")
	outsider := newUser(t, database, "outsider")

	g, _ := r.CreateGame(ctx, "Campaign", "", false, owner)

	if _, err := r.CreateRoot(ctx, g.ID, outsider, transfer.InventoryFields{Name: "Bag"}, false); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("expected outsider to be refused, got %v", err)
	}

	bag, err := r.CreateRoot(ctx, g.ID, owner, transfer.InventoryFields{Name: "Bag"}, false)
	if err != nil {
		t.Fatalf("CreateRoot: %v", err)
	}
	if err := r.DeleteRoot(ctx, g.ID, g.GlobalRootID); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("expected the global root to be protected, got %v", err)
	}
	if err := r.DeleteRoot(ctx, g.ID, bag.ID); err != nil {
		t.Fatalf("DeleteRoot: %v", err)
	}
	if exists(t, database, bag.ID) {
		t.Error("expected the bag to be deleted")
	}
	if err := r.DeleteRoot(ctx, g.ID, bag.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestDeleteGame(t *testing.T) {
	r, database := newRegistry(t)
	ctx := context.Background()
	owner := newUser(t, database, "owner")
	guest := newUser(t, database, "guest")

	g, _ := r.CreateGame(ctx, "Campaign", "", false, owner)
	r.Subscribe(ctx, guest, g.ID)
	g, _ = r.Get(ctx, g.ID)

	var roots []string
	for _, p := range g.PrivateRoots {
		roots = append(roots, p.InventoryID)
	}
	roots = append(roots, g.GlobalRootID)

	if err := r.Delete(ctx, g.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := r.Get(ctx, g.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected the game to be gone, got %v", err)
	}
	for _, id := range roots {
		if exists(t, database, id) {
			t.Errorf("expected root %s to be deleted", id)
		}
	}
	if left, _ := store.ListRootInventories(ctx, database, ""); len(left) != 0 {
		t.Errorf("expected no inventories left, got %d", len(left))
	}
}

func TestAvailableAndGamesFor(t *testing.T) {
	r, database := newRegistry(t)
	ctx := context.Background()
	owner := newUser(t, database, "owner")
	guest := newUser(t, database, "guest")

	open, _ := r.CreateGame(ctx, "Open", "", true, owner)
	r.CreateGame(ctx, "Closed", "", false, owner)

	avail, err := r.Available(ctx, guest)
	if err != nil {
		t.Fatalf("Available: %v", err)
	}
	if len(avail) != 1 || avail[0].ID != open.ID {
		t.Errorf("expected only the open game, got %v", avail)
	}

	r.Subscribe(ctx, guest, open.ID)
	if avail, _ := r.Available(ctx, guest); len(avail) != 0 {
		t.Errorf("expected nothing available after joining, got %v", avail)
	}
	if mine, _ := r.GamesFor(ctx, guest); len(mine) != 1 {
		t.Errorf("expected one game for guest, got %v", mine)
	}
	if all, _ := r.ListGames(ctx, false); len(all) != 2 {
		t.Errorf("expected two games, got %d", len(all))
	}
}

func TestRemoveUser(t *testing.T) {
	r, database := newRegistry(t)
	ctx := context.Background()
	owner := newUser(t, database, "owner")
	guest := newUser(t, database, "guest")

	g, _ := r.CreateGame(ctx, "Campaign", "", false, owner)
	r.Subscribe(ctx, guest, g.ID)

	if err := r.RemoveUser(ctx, owner); err != nil {
		t.Fatalf("RemoveUser: %v", err)
	}
	if u, _ := store.GetUser(ctx, database, owner); u != nil {
		t.Error("expected the user to be deleted")
	}
	g, err := r.Get(ctx, g.ID)
	if err != nil {
		t.Fatalf("expected the game to survive: %v", err)
	}
	if g.HasParticipant(owner) || !g.HasParticipant(guest) {
		t.Errorf("unexpected participants %v", g.ParticipantIDs)
	}
	if !exists(t, database, g.GlobalRootID) {
		t.Error("expected the global root to survive")
	}

	if err := r.RemoveUser(ctx, owner); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCanAccess(t *testing.T) {
	r, database := newRegistry(t)
	ctx := context.Background()
	owner := newUser(t, database, "owner")
	guest := newUser(t, database, "guest")

	g, _ := r.CreateGame(ctx, "Campaign", "", false, owner)
	r.Subscribe(ctx, guest, g.ID)
	g, _ = r.Get(ctx, g.ID)

	tests := []struct {
		user, root string
		want       bool
	}{
		{owner, mainRoot(t, g, owner), true},
		{guest, mainRoot(t, g, owner), false},
		{guest, g.GlobalRootID, true},
		{guest, "ghost", false},
	}
	for _, tt := range tests {
		got, err := r.CanAccess(ctx, tt.user, tt.root)
		if err != nil {
			t.Fatalf("CanAccess: %v", err)
		}
		if got != tt.want {
			t.Errorf("CanAccess(%s, %s) = %v, want %v", tt.user, tt.root, got, tt.want)
		}
	}
}
