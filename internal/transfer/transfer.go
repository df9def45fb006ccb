// Package transfer is the only writer of containment edges. Every operation
// runs in one transaction, checks before it mutates, and recomputes the
// cached totals of each branch it touched before committing.
package transfer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/erazemk/inventorykeeper/internal/model"
	"github.com/erazemk/inventorykeeper/internal/store"
	"github.com/erazemk/inventorykeeper/internal/tree"
	"github.com/erazemk/inventorykeeper/internal/units"
)

// Service performs containment changes against a database.
type Service struct {
	db  *sql.DB
	now func() time.Time
}

// New returns a Service writing to db.
func New(db *sql.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// ItemFields are the caller-editable fields of an item.
type ItemFields struct {
	Name           string            `json:"name"`
	Kind           model.ItemKind    `json:"kind"`
	Weight         units.Weight      `json:"weight"`
	PersonalValue  *units.Currency   `json:"personal_value,omitempty"`
	MoneyAmount    *units.Currency   `json:"money_amount,omitempty"`
	Description    string            `json:"description,omitempty"`
	ExpirationDate *units.GameDate   `json:"expiration_date,omitempty"`
	Details        model.ItemDetails `json:"details"`
}

func (f ItemFields) apply(item *model.Item) {
	item.Common.Name = f.Name
	item.Kind = f.Kind
	if item.Kind == "" {
		item.Kind = model.ItemKindGeneric
	}
	item.Common.Weight = f.Weight
	if item.Common.Weight.Unit == "" {
		item.Common.Weight.Unit = units.Kilogram
	}
	item.Common.PersonalValue = f.PersonalValue
	item.Common.MoneyAmount = f.MoneyAmount
	item.Common.Description = f.Description
	item.ExpirationDate = f.ExpirationDate
	item.Details = f.Details
}

// InventoryFields are the caller-editable fields of an inventory.
type InventoryFields struct {
	Name           string                 `json:"name"`
	Kind           model.InventoryKind    `json:"kind"`
	Weight         units.Weight           `json:"weight"`
	PersonalValue  *units.Currency        `json:"personal_value,omitempty"`
	MoneyAmount    *units.Currency        `json:"money_amount,omitempty"`
	Description    string                 `json:"description,omitempty"`
	MaxCarryWeight *units.Weight          `json:"max_carry_weight,omitempty"`
	Details        model.InventoryDetails `json:"details"`
}

func (f InventoryFields) apply(inv *model.Inventory) {
	inv.Common.Name = f.Name
	inv.Kind = f.Kind
	if inv.Kind == "" {
		inv.Kind = model.InventoryKindGeneric
	}
	inv.Common.Weight = f.Weight
	if inv.Common.Weight.Unit == "" {
		inv.Common.Weight.Unit = units.Kilogram
	}
	inv.Common.PersonalValue = f.PersonalValue
	inv.Common.MoneyAmount = f.MoneyAmount
	inv.Common.Description = f.Description
	inv.MaxCarryWeight = f.MaxCarryWeight
	inv.Details = f.Details
}

// checkCapacity fails with ErrCapacityExceeded when adding extraKg to
// inventory id would exceed its carry limit. The current total is recomputed
// from the children, not read from the cache.
func checkCapacity(ctx context.Context, q store.Querier, inv *model.Inventory, extraKg float64) error {
	if inv.MaxCarryWeight == nil || extraKg <= 0 {
		return nil
	}
	current, err := tree.Fresh(ctx, q, inv.ID)
	if err != nil {
		return err
	}
	if !inv.Fits(current.Weight.Base(), extraKg) {
		return fmt.Errorf("%s holds %s of %s, cannot add %s: %w",
			inv.Common.Name, current.Weight.Optimized(), inv.MaxCarryWeight,
			units.Kg(extraKg).Optimized(), model.ErrCapacityExceeded)
	}
	return nil
}

// maxNesting is the deepest level an inventory may sit at, counted in owners
// above it. Every upward walk from such an inventory stays within
// tree.MaxDepth steps.
var maxNesting = tree.MaxDepth - 1

// checkNesting fails with a validation error when attaching an inventory
// with below levels of inventories under it to destID would nest deeper
// than maxNesting.
func checkNesting(ctx context.Context, q store.Querier, destID string, below int) error {
	chain, err := tree.Ancestors(ctx, q, destID)
	if err != nil {
		return err
	}
	if len(chain)+1+below > maxNesting {
		return &model.ValidationError{Reason: fmt.Sprintf("inventories nest at most %d levels deep", maxNesting)}
	}
	return nil
}

// ownerOf loads ownerID, the inventory holding nodeID. The owner of a stored
// node must exist, so its absence means the tree is corrupt. Other failures
// keep their cause.
func ownerOf(ctx context.Context, q store.Querier, nodeID, ownerID string) (*model.Inventory, error) {
	inv, err := inventory(ctx, q, ownerID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("owner %s of %s: %w", ownerID, nodeID, model.ErrCorruptTree)
	}
	if err != nil {
		return nil, fmt.Errorf("loading owner of %s: %w", nodeID, err)
	}
	return inv, nil
}

// inventory loads an inventory inside q or fails with ErrNotFound.
func inventory(ctx context.Context, q store.Querier, id string) (*model.Inventory, error) {
	inv, err := store.GetInventory(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("inventory %s: %w", id, model.ErrNotFound)
	}
	return inv, nil
}

func item(ctx context.Context, q store.Querier, id string) (*model.Item, error) {
	it, err := store.GetItem(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, fmt.Errorf("item %s: %w", id, model.ErrNotFound)
	}
	return it, nil
}
