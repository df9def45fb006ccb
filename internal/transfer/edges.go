package transfer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/inventorykeeper/internal/model"
	"github.com/erazemk/inventorykeeper/internal/store"
	"github.com/erazemk/inventorykeeper/internal/tree"
)

// AddItem stores a new item inside inventory toID. The item gets a fresh id
// unless one is set.
func (s *Service) AddItem(ctx context.Context, it *model.Item, toID string) (*model.Item, error) {
	if it.ID == "" {
		it.ID = model.NewID()
	}
	if it.Common.CreatedAt.IsZero() {
		it.Common.CreatedAt = s.now()
	}
	it.Common.OwnerID = toID
	if err := it.Validate(); err != nil {
		return nil, err
	}

	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		dest, err := inventory(ctx, tx, toID)
		if err != nil {
			return err
		}
		if err := checkCapacity(ctx, tx, dest, it.Common.Weight.Base()); err != nil {
			return err
		}
		if err := store.InsertItem(ctx, tx, it); err != nil {
			return err
		}
		return tree.Recompute(ctx, tx, toID)
	})
	if err != nil {
		return nil, err
	}
	return it, nil
}

// AddInventory attaches the root inventory childID, with its whole subtree,
// under toID. A root registered in a game loses its registration. Use
// MoveInventory for an inventory that already has a parent.
func (s *Service) AddInventory(ctx context.Context, childID, toID string) error {
	return store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		owner, found, err := store.InventoryOwner(ctx, tx, childID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("inventory %s: %w", childID, model.ErrNotFound)
		}
		if owner != childID {
			return &model.ValidationError{Reason: "inventory " + childID + " is already inside " + owner}
		}
		return moveInventory(ctx, tx, childID, toID)
	})
}

// RemoveItem deletes item itemID from inventory fromID.
func (s *Service) RemoveItem(ctx context.Context, itemID, fromID string) error {
	return store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		owner, found, err := store.ItemOwner(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if !found || owner != fromID {
			return fmt.Errorf("item %s in %s: %w", itemID, fromID, model.ErrNotFound)
		}
		if err := store.DeleteItem(ctx, tx, itemID); err != nil {
			return err
		}
		if err := store.DeletePhotosOf(ctx, tx, []string{itemID}); err != nil {
			return err
		}
		return tree.Recompute(ctx, tx, fromID)
	})
}

// RemoveInventory deletes inventory childID and everything inside it from
// inventory fromID.
func (s *Service) RemoveInventory(ctx context.Context, childID, fromID string) error {
	return store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		owner, found, err := store.InventoryOwner(ctx, tx, childID)
		if err != nil {
			return err
		}
		if !found || owner != fromID || childID == fromID {
			return fmt.Errorf("inventory %s in %s: %w", childID, fromID, model.ErrNotFound)
		}
		if err := DeleteSubtree(ctx, tx, childID); err != nil {
			return err
		}
		return tree.Recompute(ctx, tx, fromID)
	})
}

// MoveItem moves item itemID into inventory toID.
func (s *Service) MoveItem(ctx context.Context, itemID, toID string) error {
	return store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		return moveItem(ctx, tx, itemID, toID)
	})
}

// MoveInventory moves inventory childID, with its subtree, into toID.
func (s *Service) MoveInventory(ctx context.Context, childID, toID string) error {
	return store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		return moveInventory(ctx, tx, childID, toID)
	})
}

// MoveMany moves a mixed selection of items and inventories into toID. Either
// every node moves or none does.
func (s *Service) MoveMany(ctx context.Context, ids []string, toID string) error {
	return store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, found, err := store.ItemOwner(ctx, tx, id); err != nil {
				return err
			} else if found {
				if err := moveItem(ctx, tx, id, toID); err != nil {
					return err
				}
				continue
			}
			if err := moveInventory(ctx, tx, id, toID); err != nil {
				return err
			}
		}
		return nil
	})
}

// ExcludedDestinations returns the inventories the selection cannot be moved
// into: every selected inventory and everything below it.
func (s *Service) ExcludedDestinations(ctx context.Context, ids []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, id := range ids {
		_, found, err := store.InventoryOwner(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		if !found || seen[id] {
			continue
		}
		below, err := tree.Descendants(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		for _, d := range append([]string{id}, below...) {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	return out, nil
}

func moveItem(ctx context.Context, q store.Querier, itemID, toID string) error {
	owner, found, err := store.ItemOwner(ctx, q, itemID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("item %s: %w", itemID, model.ErrNotFound)
	}
	dest, err := inventory(ctx, q, toID)
	if err != nil {
		return err
	}
	if owner == toID {
		return nil
	}

	it, err := item(ctx, q, itemID)
	if err != nil {
		return err
	}
	extra, err := addedWeight(ctx, q, toID, owner, it.Common.Weight.Base())
	if err != nil {
		return err
	}
	if err := checkCapacity(ctx, q, dest, extra); err != nil {
		return err
	}

	if err := store.SetItemOwner(ctx, q, itemID, toID); err != nil {
		return err
	}
	if err := tree.Recompute(ctx, q, owner); err != nil {
		return err
	}
	return tree.Recompute(ctx, q, toID)
}

// moveInventory attaches childID under toID. A root child is detached from
// any game registration first.
func moveInventory(ctx context.Context, q store.Querier, childID, toID string) error {
	owner, found, err := store.InventoryOwner(ctx, q, childID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("inventory %s: %w", childID, model.ErrNotFound)
	}
	dest, err := inventory(ctx, q, toID)
	if err != nil {
		return err
	}
	if owner == toID && childID != toID {
		return nil
	}

	cyclic, err := tree.IsAncestor(ctx, q, childID, toID)
	if err != nil {
		return err
	}
	if cyclic {
		return fmt.Errorf("moving %s into %s: %w", childID, toID, model.ErrCyclicMove)
	}

	below, err := tree.Height(ctx, q, childID)
	if err != nil {
		return err
	}
	if err := checkNesting(ctx, q, toID, below); err != nil {
		return err
	}

	child, err := tree.Fresh(ctx, q, childID)
	if err != nil {
		return err
	}
	extra, err := addedWeight(ctx, q, toID, owner, child.Weight.Base())
	if err != nil {
		return err
	}
	if err := checkCapacity(ctx, q, dest, extra); err != nil {
		return err
	}

	wasRoot := owner == childID
	if wasRoot {
		if err := unregisterRoot(ctx, q, childID); err != nil {
			return err
		}
	}

	if err := store.SetInventoryOwner(ctx, q, childID, toID); err != nil {
		return err
	}
	if !wasRoot {
		if err := tree.Recompute(ctx, q, owner); err != nil {
			return err
		}
	}
	return tree.Recompute(ctx, q, toID)
}

// addedWeight is how much the total of toID grows when a node of weight kg
// leaves ownerID. Moving a node up to one of its own ancestors adds nothing.
func addedWeight(ctx context.Context, q store.Querier, toID, ownerID string, kg float64) (float64, error) {
	above, err := tree.IsAncestor(ctx, q, toID, ownerID)
	if err != nil {
		return 0, err
	}
	if above {
		return 0, nil
	}
	return kg, nil
}

// unregisterRoot drops the game registrations of a root that is about to get
// a parent. A game's global root cannot be nested.
func unregisterRoot(ctx context.Context, q store.Querier, id string) error {
	global, err := store.IsGlobalRoot(ctx, q, id)
	if err != nil {
		return err
	}
	if global {
		return &model.ValidationError{Reason: "the global root of a game cannot be placed inside another inventory"}
	}
	if err := store.RemovePrivateRoot(ctx, q, id); err != nil {
		return err
	}
	return store.RemoveSharesOfInventory(ctx, q, id)
}

// DeleteSubtree deletes inventory id with every inventory, item and photo
// below it, and any game registration of id. The caller recomputes the
// former parent. It must run inside a transaction.
func DeleteSubtree(ctx context.Context, q store.Querier, id string) error {
	below, err := tree.Descendants(ctx, q, id)
	if err != nil {
		return err
	}
	ids := append([]string{id}, below...)

	itemIDs, err := store.DeleteItemsOwnedBy(ctx, q, ids)
	if err != nil {
		return err
	}
	if err := store.DeletePhotosOf(ctx, q, append(ids, itemIDs...)); err != nil {
		return err
	}

	if err := store.RemovePrivateRoot(ctx, q, id); err != nil {
		return err
	}
	if err := store.RemoveSharesOfInventory(ctx, q, id); err != nil {
		return err
	}
	if err := store.ClearGlobalRootOf(ctx, q, id); err != nil {
		return err
	}

	// Children before parents.
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	return store.DeleteInventories(ctx, q, ids)
}
