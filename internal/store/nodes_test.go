package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/erazemk/inventorykeeper/internal/db"
	"github.com/erazemk/inventorykeeper/internal/model"
	"github.com/erazemk/inventorykeeper/internal/units"
)

func newInventory(id, owner, name string) *model.Inventory {
	if owner == "" {
		owner = id
	}
	return &model.Inventory{
		ID:     id,
		Kind:   model.InventoryKindGeneric,
		Common: model.Common{Name: name, OwnerID: owner, Weight: units.Kg(1), CreatedAt: time.Now()},
	}
}

func newItem(id, owner, name string, kg float64) *model.Item {
	return &model.Item{
		ID:     id,
		Kind:   model.ItemKindGeneric,
		Common: model.Common{Name: name, OwnerID: owner, Weight: units.Kg(kg), CreatedAt: time.Now()},
	}
}

func TestInsertAndGetInventory(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	limit := units.Weight{Value: 20, Unit: units.Pound}
	money := units.Currency{Value: 3, Unit: units.Currency2}
	birth := units.GameDate{Day: 3, Month: 4, Year: 1820}
	inv := newInventory("root", "", "Hero")
	inv.Kind = model.InventoryKindCharacter
	inv.MaxCarryWeight = &limit
	inv.Common.MoneyAmount = &money
	inv.Common.Description = "brave"
	inv.Common.Photos = []string{"p1", "p2"}
	inv.Details.Character = &model.CharacterDetails{BirthDate: &birth}

	if err := InsertInventory(ctx, database, inv); err != nil {
		t.Fatalf("InsertInventory: %v", err)
	}

	got, err := GetInventory(ctx, database, "root")
	if err != nil {
		t.Fatalf("GetInventory: %v", err)
	}
	if !got.IsRoot() {
		t.Error("expected root inventory")
	}
	if got.MaxCarryWeight == nil || *got.MaxCarryWeight != limit {
		t.Errorf("expected max carry %v, got %v", limit, got.MaxCarryWeight)
	}
	if got.Common.MoneyAmount == nil || *got.Common.MoneyAmount != money {
		t.Errorf("expected money %v, got %v", money, got.Common.MoneyAmount)
	}
	if got.Common.PersonalValue != nil {
		t.Errorf("expected no personal value, got %v", got.Common.PersonalValue)
	}
	if got.Details.Character == nil || *got.Details.Character.BirthDate != birth {
		t.Errorf("expected character details to round-trip, got %+v", got.Details)
	}
	if len(got.Common.Photos) != 2 || got.Common.Photos[1] != "p2" {
		t.Errorf("expected photos [p1 p2], got %v", got.Common.Photos)
	}

	missing, err := GetInventory(ctx, database, "nope")
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing inventory, got %v, %v", missing, err)
	}
}

func TestChildrenKeepAttachOrder(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	InsertInventory(ctx, database, newInventory("root", "", "Root"))
	InsertInventory(ctx, database, newInventory("b", "root", "B"))
	InsertInventory(ctx, database, newInventory("a", "root", "A"))
	InsertItem(ctx, database, newItem("x", "root", "X", 1))
	InsertItem(ctx, database, newItem("y", "root", "Y", 2))

	got, err := GetInventoryWithChildren(ctx, database, "root")
	if err != nil {
		t.Fatalf("GetInventoryWithChildren: %v", err)
	}
	if len(got.Inventories) != 2 || got.Inventories[0] != "b" || got.Inventories[1] != "a" {
		t.Errorf("expected inventories [b a], got %v", got.Inventories)
	}
	if len(got.Items) != 2 || got.Items[0] != "x" || got.Items[1] != "y" {
		t.Errorf("expected items [x y], got %v", got.Items)
	}

	// Re-attaching moves the child to the end.
	if err := SetInventoryOwner(ctx, database, "b", "root"); err != nil {
		t.Fatalf("SetInventoryOwner: %v", err)
	}
	ids, _ := ChildInventoryIDs(ctx, database, "root")
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("expected [a b] after re-attach, got %v", ids)
	}
}

func TestListRootInventories(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	world := newInventory("world", "", "World")
	world.Kind = model.InventoryKindLocation
	InsertInventory(ctx, database, world)
	InsertInventory(ctx, database, newInventory("bag", "", "Bag"))
	InsertInventory(ctx, database, newInventory("pouch", "bag", "Pouch"))

	roots, err := ListRootInventories(ctx, database, "")
	if err != nil {
		t.Fatalf("ListRootInventories: %v", err)
	}
	if len(roots) != 2 {
		t.Errorf("expected 2 roots, got %d", len(roots))
	}

	locations, _ := ListRootInventories(ctx, database, model.InventoryKindLocation)
	if len(locations) != 1 || locations[0].ID != "world" {
		t.Errorf("expected only world, got %v", locations)
	}
}

func TestItemRoundTripAndMove(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	InsertInventory(ctx, database, newInventory("a", "", "A"))
	InsertInventory(ctx, database, newInventory("b", "", "B"))

	exp := units.GameDate{Day: 1, Month: 5, Year: 1850}
	vol := units.Litres(0.5)
	item := newItem("wine", "a", "Wine", 0.8)
	item.Kind = model.ItemKindLiquid
	item.ExpirationDate = &exp
	item.Details.Liquid = &model.LiquidDetails{Volume: &vol}
	if err := InsertItem(ctx, database, item); err != nil {
		t.Fatalf("InsertItem: %v", err)
	}

	got, err := GetItem(ctx, database, "wine")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.ExpirationDate == nil || *got.ExpirationDate != exp {
		t.Errorf("expected expiration %v, got %v", exp, got.ExpirationDate)
	}
	if got.Details.Liquid == nil || *got.Details.Liquid.Volume != vol {
		t.Errorf("expected liquid volume to round-trip, got %+v", got.Details)
	}

	if err := SetItemOwner(ctx, database, "wine", "b"); err != nil {
		t.Fatalf("SetItemOwner: %v", err)
	}
	owner, found, err := ItemOwner(ctx, database, "wine")
	if err != nil || !found || owner != "b" {
		t.Errorf("expected owner b, got %q found=%v err=%v", owner, found, err)
	}
	if items, _ := ItemsOf(ctx, database, "a"); len(items) != 0 {
		t.Errorf("expected a to be empty, got %d items", len(items))
	}
}

func TestDeleteItemsOwnedBy(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	InsertInventory(ctx, database, newInventory("a", "", "A"))
	InsertInventory(ctx, database, newInventory("b", "", "B"))
	InsertItem(ctx, database, newItem("x", "a", "X", 1))
	InsertItem(ctx, database, newItem("y", "b", "Y", 1))
	InsertItem(ctx, database, newItem("z", "b", "Z", 1))

	ids, err := DeleteItemsOwnedBy(ctx, database, []string{"b"})
	if err != nil {
		t.Fatalf("DeleteItemsOwnedBy: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("expected 2 deleted ids, got %v", ids)
	}
	if items, _ := ItemsOf(ctx, database, "a"); len(items) != 1 {
		t.Errorf("expected items of a untouched, got %d", len(items))
	}
}

func TestSetPhotos(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	InsertInventory(ctx, database, newInventory("a", "", "A"))
	InsertItem(ctx, database, newItem("x", "a", "X", 1))

	if err := SetPhotos(ctx, database, "x", []string{"p"}); err != nil {
		t.Fatalf("SetPhotos: %v", err)
	}
	item, _ := GetItem(ctx, database, "x")
	if len(item.Common.Photos) != 1 || item.Common.Photos[0] != "p" {
		t.Errorf("expected photos [p], got %v", item.Common.Photos)
	}

	if err := SetPhotos(ctx, database, "missing", nil); err == nil {
		t.Error("expected error for missing node")
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	err := InTx(ctx, database, func(tx *sql.Tx) error {
		if err := InsertInventory(ctx, tx, newInventory("a", "", "A")); err != nil {
			return err
		}
		return model.ErrCapacityExceeded
	})
	if err != model.ErrCapacityExceeded {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}

	if inv, _ := GetInventory(ctx, database, "a"); inv != nil {
		t.Error("expected insert to be rolled back")
	}
}
