package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/inventorykeeper/internal/model"
	"github.com/erazemk/inventorykeeper/internal/units"
)

const inventoryColumns = `id, owner_id, name, kind, weight_value, weight_unit,
	personal_value, personal_unit, money_value, money_unit,
	max_carry_value, max_carry_unit, description, details, photos,
	total_weight, total_personal_value, total_money_amount, total_value, created_at`

func scanInventory(s scanner) (*model.Inventory, error) {
	inv := &model.Inventory{}
	var (
		weightUnit            string
		personalV, moneyV     sql.NullFloat64
		personalU, moneyU     sql.NullString
		maxV                  sql.NullFloat64
		maxU, description     sql.NullString
		details, photos, kind string
	)
	err := s.Scan(&inv.ID, &inv.Common.OwnerID, &inv.Common.Name, &kind,
		&inv.Common.Weight.Value, &weightUnit,
		&personalV, &personalU, &moneyV, &moneyU,
		&maxV, &maxU, &description, &details, &photos,
		&inv.TotalWeight, &inv.TotalPersonalValue, &inv.TotalMoneyAmount, &inv.TotalValue,
		&inv.Common.CreatedAt)
	if err != nil {
		return nil, err
	}
	inv.Kind = model.InventoryKind(kind)
	inv.Common.Weight.Unit = units.WeightUnit(weightUnit)
	inv.Common.PersonalValue = currencyFrom(personalV, personalU)
	inv.Common.MoneyAmount = currencyFrom(moneyV, moneyU)
	inv.MaxCarryWeight = weightFrom(maxV, maxU)
	inv.Common.Description = description.String
	if err := decodeJSON(details, &inv.Details); err != nil {
		return nil, err
	}
	if err := decodeJSON(photos, &inv.Common.Photos); err != nil {
		return nil, err
	}
	return inv, nil
}

// InsertInventory stores a new inventory as the last child of its owner.
// A root inventory has OwnerID equal to its own ID.
func InsertInventory(ctx context.Context, q Querier, inv *model.Inventory) error {
	personalV, personalU := nullCurrency(inv.Common.PersonalValue)
	moneyV, moneyU := nullCurrency(inv.Common.MoneyAmount)
	maxV, maxU := nullWeight(inv.MaxCarryWeight)
	details, err := encodeJSON(inv.Details)
	if err != nil {
		return err
	}
	photos, err := encodePhotos(inv.Common.Photos)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO inventories (id, owner_id, position, name, kind, weight_value, weight_unit,
		     personal_value, personal_unit, money_value, money_unit,
		     max_carry_value, max_carry_unit, description, details, photos, created_at)
		 VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM inventories WHERE owner_id = ?),
		     ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.Common.OwnerID, inv.Common.OwnerID, inv.Common.Name, string(inv.Kind),
		inv.Common.Weight.Value, string(inv.Common.Weight.Unit),
		personalV, personalU, moneyV, moneyU, maxV, maxU,
		nullString(inv.Common.Description), details, photos, inv.Common.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating inventory: %w", err)
	}
	return nil
}

// GetInventory returns an inventory by ID, or nil if it does not exist.
// Child id lists are not populated.
func GetInventory(ctx context.Context, q Querier, id string) (*model.Inventory, error) {
	inv, err := scanInventory(q.QueryRowContext(ctx,
		`SELECT `+inventoryColumns+` FROM inventories WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting inventory: %w", err)
	}
	return inv, nil
}

// GetInventoryWithChildren returns an inventory with its child id lists
// filled in attach order.
func GetInventoryWithChildren(ctx context.Context, q Querier, id string) (*model.Inventory, error) {
	inv, err := GetInventory(ctx, q, id)
	if err != nil || inv == nil {
		return inv, err
	}
	if inv.Items, err = childIDs(ctx, q, "items", id); err != nil {
		return nil, err
	}
	if inv.Inventories, err = childIDs(ctx, q, "inventories", id); err != nil {
		return nil, err
	}
	return inv, nil
}

// table is one of the two node tables; never user input.
func childIDs(ctx context.Context, q Querier, table, ownerID string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id FROM `+table+` WHERE owner_id = ? AND id != owner_id ORDER BY position`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing %s of %s: %w", table, ownerID, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning %s id: %w", table, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ChildInventoryIDs returns the ids of the inventories directly inside ownerID.
func ChildInventoryIDs(ctx context.Context, q Querier, ownerID string) ([]string, error) {
	return childIDs(ctx, q, "inventories", ownerID)
}

// ChildInventories returns the inventories directly inside ownerID.
func ChildInventories(ctx context.Context, q Querier, ownerID string) ([]model.Inventory, error) {
	return listInventories(ctx, q,
		`SELECT `+inventoryColumns+` FROM inventories
		 WHERE owner_id = ? AND id != owner_id ORDER BY position`, ownerID)
}

// ListRootInventories returns self-owned inventories, optionally filtered by kind.
func ListRootInventories(ctx context.Context, q Querier, kind model.InventoryKind) ([]model.Inventory, error) {
	if kind != "" {
		return listInventories(ctx, q,
			`SELECT `+inventoryColumns+` FROM inventories
			 WHERE owner_id = id AND kind = ? ORDER BY created_at, id`, string(kind))
	}
	return listInventories(ctx, q,
		`SELECT `+inventoryColumns+` FROM inventories WHERE owner_id = id ORDER BY created_at, id`)
}

// GetInventoriesByID returns the listed inventories in unspecified order.
func GetInventoriesByID(ctx context.Context, q Querier, ids []string) ([]model.Inventory, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return listInventories(ctx, q,
		`SELECT `+inventoryColumns+` FROM inventories WHERE id IN (`+placeholders(len(ids))+`)`,
		stringArgs(ids)...)
}

func listInventories(ctx context.Context, q Querier, query string, args ...any) ([]model.Inventory, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing inventories: %w", err)
	}
	defer rows.Close()

	var invs []model.Inventory
	for rows.Next() {
		inv, err := scanInventory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning inventory: %w", err)
		}
		invs = append(invs, *inv)
	}
	return invs, rows.Err()
}

// InventoryOwner returns the owner of an inventory. found is false when the
// inventory does not exist.
func InventoryOwner(ctx context.Context, q Querier, id string) (ownerID string, found bool, err error) {
	err = q.QueryRowContext(ctx, `SELECT owner_id FROM inventories WHERE id = ?`, id).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting inventory owner: %w", err)
	}
	return ownerID, true, nil
}

// UpdateInventory writes the inventory's own fields. Owner and totals are
// left alone.
func UpdateInventory(ctx context.Context, q Querier, inv *model.Inventory) error {
	personalV, personalU := nullCurrency(inv.Common.PersonalValue)
	moneyV, moneyU := nullCurrency(inv.Common.MoneyAmount)
	maxV, maxU := nullWeight(inv.MaxCarryWeight)
	details, err := encodeJSON(inv.Details)
	if err != nil {
		return err
	}
	photos, err := encodePhotos(inv.Common.Photos)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx,
		`UPDATE inventories SET name = ?, kind = ?, weight_value = ?, weight_unit = ?,
		     personal_value = ?, personal_unit = ?, money_value = ?, money_unit = ?,
		     max_carry_value = ?, max_carry_unit = ?, description = ?, details = ?, photos = ?
		 WHERE id = ?`,
		inv.Common.Name, string(inv.Kind), inv.Common.Weight.Value, string(inv.Common.Weight.Unit),
		personalV, personalU, moneyV, moneyU, maxV, maxU,
		nullString(inv.Common.Description), details, photos, inv.ID,
	)
	if err != nil {
		return fmt.Errorf("updating inventory: %w", err)
	}
	return nil
}

// SetInventoryOwner reparents an inventory, appending it after its new siblings.
func SetInventoryOwner(ctx context.Context, q Querier, id, ownerID string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE inventories
		 SET owner_id = ?, position = (SELECT COALESCE(MAX(position), 0) + 1 FROM inventories WHERE owner_id = ?)
		 WHERE id = ?`,
		ownerID, ownerID, id,
	)
	if err != nil {
		return fmt.Errorf("moving inventory: %w", err)
	}
	return nil
}

// SetInventoryTotals stores the cached aggregates of an inventory.
func SetInventoryTotals(ctx context.Context, q Querier, id string, t model.Totals) error {
	_, err := q.ExecContext(ctx,
		`UPDATE inventories SET total_weight = ?, total_personal_value = ?,
		     total_money_amount = ?, total_value = ?
		 WHERE id = ?`,
		t.Weight.Base(), t.PersonalValue.Base(), t.MoneyAmount.Base(), t.Value.Base(), id,
	)
	if err != nil {
		return fmt.Errorf("updating inventory totals: %w", err)
	}
	return nil
}

// SetPhotos replaces the photo reference list of an item or inventory.
func SetPhotos(ctx context.Context, q Querier, nodeID string, photos []string) error {
	enc, err := encodePhotos(photos)
	if err != nil {
		return err
	}
	for _, table := range []string{"inventories", "items"} {
		res, err := q.ExecContext(ctx, `UPDATE `+table+` SET photos = ? WHERE id = ?`, enc, nodeID)
		if err != nil {
			return fmt.Errorf("setting photos: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}
	}
	return fmt.Errorf("setting photos of %s: %w", nodeID, model.ErrNotFound)
}

// DeleteInventories removes inventory rows. Callers delete children first.
func DeleteInventories(ctx context.Context, q Querier, ids []string) error {
	for _, id := range ids {
		if _, err := q.ExecContext(ctx, `DELETE FROM inventories WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting inventory %s: %w", id, err)
		}
	}
	return nil
}
