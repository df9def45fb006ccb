package transfer

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/inventorykeeper/internal/model"
	"github.com/erazemk/inventorykeeper/internal/store"
	"github.com/erazemk/inventorykeeper/internal/tree"
	"github.com/erazemk/inventorykeeper/internal/units"
)

// CreateItem creates an item from f inside inventory parentID.
func (s *Service) CreateItem(ctx context.Context, parentID string, f ItemFields) (*model.Item, error) {
	it := &model.Item{}
	f.apply(it)
	return s.AddItem(ctx, it, parentID)
}

// CreateInventory creates an empty inventory from f inside parentID.
func (s *Service) CreateInventory(ctx context.Context, parentID string, f InventoryFields) (*model.Inventory, error) {
	inv := &model.Inventory{ID: model.NewID()}
	f.apply(inv)
	inv.Common.OwnerID = parentID
	inv.Common.CreatedAt = s.now()
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		dest, err := inventory(ctx, tx, parentID)
		if err != nil {
			return err
		}
		if err := checkNesting(ctx, tx, parentID, 0); err != nil {
			return err
		}
		if err := checkCapacity(ctx, tx, dest, inv.Common.Weight.Base()); err != nil {
			return err
		}
		if err := store.InsertInventory(ctx, tx, inv); err != nil {
			return err
		}
		return tree.Recompute(ctx, tx, inv.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, inv.ID)
}

// NewRoot creates a self-owned inventory from f. It must run inside a
// transaction; registering the root in a game is the caller's job.
func NewRoot(ctx context.Context, q store.Querier, f InventoryFields, now time.Time) (*model.Inventory, error) {
	inv := &model.Inventory{ID: model.NewID()}
	f.apply(inv)
	inv.Common.OwnerID = inv.ID
	inv.Common.CreatedAt = now
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	if err := store.InsertInventory(ctx, q, inv); err != nil {
		return nil, err
	}
	if err := tree.Recompute(ctx, q, inv.ID); err != nil {
		return nil, err
	}
	return store.GetInventory(ctx, q, inv.ID)
}

// UpdateItem replaces the editable fields of item id. A heavier item must
// still fit in its inventory.
func (s *Service) UpdateItem(ctx context.Context, id string, f ItemFields) (*model.Item, error) {
	var updated *model.Item
	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		it, err := item(ctx, tx, id)
		if err != nil {
			return err
		}
		before := it.Common.Weight.Base()
		f.apply(it)
		if err := it.Validate(); err != nil {
			return err
		}

		parent, err := ownerOf(ctx, tx, id, it.Common.OwnerID)
		if err != nil {
			return err
		}
		if err := checkCapacity(ctx, tx, parent, it.Common.Weight.Base()-before); err != nil {
			return err
		}

		if err := store.UpdateItem(ctx, tx, it); err != nil {
			return err
		}
		updated = it
		return tree.Recompute(ctx, tx, parent.ID)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateInventory replaces the editable fields of inventory id. The new carry
// limit must hold the current contents, and a heavier inventory must still
// fit in its parent.
func (s *Service) UpdateInventory(ctx context.Context, id string, f InventoryFields) (*model.Inventory, error) {
	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		inv, err := inventory(ctx, tx, id)
		if err != nil {
			return err
		}
		before := inv.Common.Weight.Base()
		f.apply(inv)
		if err := inv.Validate(); err != nil {
			return err
		}
		delta := inv.Common.Weight.Base() - before

		if !inv.IsRoot() {
			parent, err := ownerOf(ctx, tx, id, inv.Common.OwnerID)
			if err != nil {
				return err
			}
			if err := checkCapacity(ctx, tx, parent, delta); err != nil {
				return err
			}
		}

		current, err := tree.Fresh(ctx, tx, id)
		if err != nil {
			return err
		}
		if !inv.Fits(current.Weight.Base(), delta) {
			return fmt.Errorf("%s already holds %s, more than %s: %w",
				inv.Common.Name, current.Weight.Add(units.Kg(delta)).Optimized(), inv.MaxCarryWeight, model.ErrCapacityExceeded)
		}

		if err := store.UpdateInventory(ctx, tx, inv); err != nil {
			return err
		}
		return tree.Recompute(ctx, tx, id)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// DeleteItem deletes item id wherever it is.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	owner, found, err := store.ItemOwner(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("item %s: %w", id, model.ErrNotFound)
	}
	return s.RemoveItem(ctx, id, owner)
}

// DeleteTree deletes inventory id and its whole subtree. Deleting a nested
// inventory updates the totals of its former ancestors.
func (s *Service) DeleteTree(ctx context.Context, id string) error {
	return store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		owner, found, err := store.InventoryOwner(ctx, tx, id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("inventory %s: %w", id, model.ErrNotFound)
		}
		if err := DeleteSubtree(ctx, tx, id); err != nil {
			return err
		}
		if owner == id {
			return nil
		}
		return tree.Recompute(ctx, tx, owner)
	})
}

// Get returns inventory id with its child id lists.
func (s *Service) Get(ctx context.Context, id string) (*model.Inventory, error) {
	inv, err := store.GetInventoryWithChildren(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("inventory %s: %w", id, model.ErrNotFound)
	}
	return inv, nil
}

// GetItem returns item id.
func (s *Service) GetItem(ctx context.Context, id string) (*model.Item, error) {
	return item(ctx, s.db, id)
}

// Contents lists the direct children of an inventory in attach order.
type Contents struct {
	Items       []model.Item      `json:"items"`
	Inventories []model.Inventory `json:"inventories"`
}

// Children returns the items and inventories directly inside id.
func (s *Service) Children(ctx context.Context, id string) (*Contents, error) {
	if _, err := inventory(ctx, s.db, id); err != nil {
		return nil, err
	}
	items, err := store.ItemsOf(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	invs, err := store.ChildInventories(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	if invs == nil {
		invs = []model.Inventory{}
	}
	return &Contents{Items: items, Inventories: invs}, nil
}

// Dump renders the inventory hierarchy below each of roots as one
// "• name [kind]" line per inventory, indented two spaces per level.
func (s *Service) Dump(ctx context.Context, roots ...string) (string, error) {
	type frame struct {
		id    string
		depth int
	}

	var b strings.Builder
	for _, root := range roots {
		stack := []frame{{root, 0}}
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if f.depth > tree.MaxDepth {
				return "", fmt.Errorf("dumping %s: %w", root, model.ErrCorruptTree)
			}

			inv, err := inventory(ctx, s.db, f.id)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&b, "%s• %s [%s]\n", strings.Repeat("  ", f.depth), inv.Common.Name, inv.Kind)

			children, err := store.ChildInventoryIDs(ctx, s.db, f.id)
			if err != nil {
				return "", err
			}
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, frame{children[i], f.depth + 1})
			}
		}
	}
	return b.String(), nil
}
