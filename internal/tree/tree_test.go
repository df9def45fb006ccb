package tree

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/erazemk/inventorykeeper/internal/db"
	"github.com/erazemk/inventorykeeper/internal/model"
	"github.com/erazemk/inventorykeeper/internal/store"
	"github.com/erazemk/inventorykeeper/internal/units"
)

func addInventory(t *testing.T, q store.Querier, id, owner string, kg float64) {
	t.Helper()
	if owner == "" {
		owner = id
	}
	inv := &model.Inventory{
		ID:   id,
		Kind: model.InventoryKindGeneric,
		Common: model.Common{
			Name: id, OwnerID: owner, Weight: units.Kg(kg), CreatedAt: time.Now(),
		},
	}
	if err := store.InsertInventory(context.Background(), q, inv); err != nil {
		t.Fatalf("inserting inventory %s: %v", id, err)
	}
}

func addItem(t *testing.T, q store.Querier, id, owner string, w units.Weight, value *units.Currency) {
	t.Helper()
	item := &model.Item{
		ID:   id,
		Kind: model.ItemKindGeneric,
		Common: model.Common{
			Name: id, OwnerID: owner, Weight: w, PersonalValue: value, CreatedAt: time.Now(),
		},
	}
	if err := store.InsertItem(context.Background(), q, item); err != nil {
		t.Fatalf("inserting item %s: %v", id, err)
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// buildTree creates root(1kg) > bag(0.5kg) > pouch(0.1kg) with items spread
// across the levels, recomputing bottom-up.
func buildTree(t *testing.T, database *sql.DB) {
	t.Helper()
	ctx := context.Background()

	addInventory(t, database, "root", "", 1)
	addInventory(t, database, "bag", "root", 0.5)
	addInventory(t, database, "pouch", "bag", 0.1)

	gold := units.Currency{Value: 2, Unit: units.Currency2}
	addItem(t, database, "sword", "root", units.Kg(3), nil)
	addItem(t, database, "rope", "bag", units.Weight{Value: 500, Unit: units.Gram}, nil)
	addItem(t, database, "ring", "pouch", units.Weight{Value: 10, Unit: units.Gram}, &gold)

	for _, id := range []string{"pouch", "bag", "root"} {
		if err := Recompute(ctx, database, id); err != nil {
			t.Fatalf("Recompute(%s): %v", id, err)
		}
	}
}

func TestRecomputeMatchesBruteForce(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	buildTree(t, database)

	for _, id := range []string{"root", "bag", "pouch"} {
		inv, err := store.GetInventory(ctx, database, id)
		if err != nil {
			t.Fatalf("GetInventory: %v", err)
		}
		want, err := Totals(ctx, database, id)
		if err != nil {
			t.Fatalf("Totals: %v", err)
		}
		if !near(inv.TotalWeight, want.Weight.Base()) {
			t.Errorf("%s: cached weight %g, brute force %g", id, inv.TotalWeight, want.Weight.Base())
		}
		if !near(inv.TotalValue, want.Value.Base()) {
			t.Errorf("%s: cached value %g, brute force %g", id, inv.TotalValue, want.Value.Base())
		}
	}

	root, _ := store.GetInventory(ctx, database, "root")
	if !near(root.TotalWeight, 1+0.5+0.1+3+0.5+0.01) {
		t.Errorf("expected root weight 5.11 kg, got %g", root.TotalWeight)
	}
	if !near(root.TotalPersonalValue, 80) || !near(root.TotalValue, 80) {
		t.Errorf("expected root value 80 currency1, got %g / %g", root.TotalPersonalValue, root.TotalValue)
	}
}

func TestRecomputePropagatesFromLeaf(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	buildTree(t, database)

	addItem(t, database, "gem", "pouch", units.Kg(2), nil)
	if err := Recompute(ctx, database, "pouch"); err != nil {
		t.Fatalf("Recompute: %v", err)
	}

	root, _ := store.GetInventory(ctx, database, "root")
	if !near(root.TotalWeight, 7.11) {
		t.Errorf("expected root weight 7.11 kg after adding gem, got %g", root.TotalWeight)
	}
}

func TestRecomputeStopsOnLoop(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	addInventory(t, database, "a", "", 1)
	addInventory(t, database, "b", "a", 1)
	if _, err := database.Exec(`UPDATE inventories SET owner_id = 'b' WHERE id = 'a'`); err != nil {
		t.Fatalf("corrupting tree: %v", err)
	}

	if err := Recompute(ctx, database, "b"); !errors.Is(err, model.ErrCorruptTree) {
		t.Errorf("expected ErrCorruptTree, got %v", err)
	}
	if _, err := Ancestors(ctx, database, "b"); !errors.Is(err, model.ErrCorruptTree) {
		t.Errorf("expected ErrCorruptTree from Ancestors, got %v", err)
	}
}

func TestRecomputeMissingInventory(t *testing.T) {
	database := db.NewTestDB(t)
	if err := Recompute(context.Background(), database, "ghost"); !errors.Is(err, model.ErrCorruptTree) {
		t.Errorf("expected ErrCorruptTree, got %v", err)
	}
}

func TestAncestorsAndIsAncestor(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	buildTree(t, database)

	chain, err := Ancestors(ctx, database, "pouch")
	if err != nil {
		t.Fatalf("Ancestors: %v", err)
	}
	if len(chain) != 2 || chain[0] != "bag" || chain[1] != "root" {
		t.Errorf("expected [bag root], got %v", chain)
	}

	if chain, _ := Ancestors(ctx, database, "root"); len(chain) != 0 {
		t.Errorf("expected root to have no ancestors, got %v", chain)
	}

	if _, err := Ancestors(ctx, database, "ghost"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	tests := []struct {
		ancestor, target string
		want             bool
	}{
		{"root", "pouch", true},
		{"bag", "pouch", true},
		{"pouch", "pouch", true},
		{"pouch", "root", false},
		{"bag", "root", false},
	}
	for _, tt := range tests {
		got, err := IsAncestor(ctx, database, tt.ancestor, tt.target)
		if err != nil {
			t.Fatalf("IsAncestor(%s, %s): %v", tt.ancestor, tt.target, err)
		}
		if got != tt.want {
			t.Errorf("IsAncestor(%s, %s) = %v, want %v", tt.ancestor, tt.target, got, tt.want)
		}
	}
}

func TestDescendants(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	buildTree(t, database)
	addInventory(t, database, "box", "root", 1)

	got, err := Descendants(ctx, database, "root")
	if err != nil {
		t.Fatalf("Descendants: %v", err)
	}
	want := []string{"bag", "box", "pouch"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
			break
		}
	}

	if got, _ := Descendants(ctx, database, "pouch"); len(got) != 0 {
		t.Errorf("expected no descendants of pouch, got %v", got)
	}
}

func TestHeight(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	buildTree(t, database)
	addInventory(t, database, "box", "root", 1)

	for id, want := range map[string]int{"root": 2, "bag": 1, "pouch": 0, "box": 0} {
		got, err := Height(ctx, database, id)
		if err != nil {
			t.Fatalf("Height(%s): %v", id, err)
		}
		if got != want {
			t.Errorf("Height(%s) = %d, want %d", id, got, want)
		}
	}
}

func TestFreshIgnoresStaleCache(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	buildTree(t, database)

	// An item inserted without a recompute leaves the cache stale.
	addItem(t, database, "stone", "root", units.Kg(4), nil)

	fresh, err := Fresh(ctx, database, "root")
	if err != nil {
		t.Fatalf("Fresh: %v", err)
	}
	if !near(fresh.Weight.Base(), 9.11) {
		t.Errorf("expected fresh weight 9.11 kg, got %g", fresh.Weight.Base())
	}

	root, _ := store.GetInventory(ctx, database, "root")
	if !near(root.TotalWeight, 5.11) {
		t.Errorf("expected Fresh not to write, cached weight is %g", root.TotalWeight)
	}
}

func TestCheckReportsStaleInventories(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	buildTree(t, database)

	if bad, err := Check(ctx, database); err != nil || len(bad) != 0 {
		t.Fatalf("expected consistent store, got %v, %v", bad, err)
	}

	addItem(t, database, "stone", "pouch", units.Kg(4), nil)

	bad, err := Check(ctx, database)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(bad) != 3 {
		t.Errorf("expected pouch and both ancestors to be stale, got %d mismatches", len(bad))
	}

	if err := Recompute(ctx, database, "pouch"); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if bad, _ := Check(ctx, database); len(bad) != 0 {
		t.Errorf("expected no mismatches after recompute, got %v", bad)
	}
}
