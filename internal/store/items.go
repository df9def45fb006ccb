package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/inventorykeeper/internal/model"
	"github.com/erazemk/inventorykeeper/internal/units"
)

const itemColumns = `id, owner_id, name, kind, weight_value, weight_unit,
	personal_value, personal_unit, money_value, money_unit,
	description, expiration_date, details, photos, created_at`

func scanItem(s scanner) (*model.Item, error) {
	item := &model.Item{}
	var (
		kind, weightUnit     string
		personalV, moneyV    sql.NullFloat64
		personalU, moneyU    sql.NullString
		description, expires sql.NullString
		details, photos      string
	)
	err := s.Scan(&item.ID, &item.Common.OwnerID, &item.Common.Name, &kind,
		&item.Common.Weight.Value, &weightUnit,
		&personalV, &personalU, &moneyV, &moneyU,
		&description, &expires, &details, &photos, &item.Common.CreatedAt)
	if err != nil {
		return nil, err
	}
	item.Kind = model.ItemKind(kind)
	item.Common.Weight.Unit = units.WeightUnit(weightUnit)
	item.Common.PersonalValue = currencyFrom(personalV, personalU)
	item.Common.MoneyAmount = currencyFrom(moneyV, moneyU)
	item.Common.Description = description.String
	if item.ExpirationDate, err = gameDateFrom(expires); err != nil {
		return nil, err
	}
	if err := decodeJSON(details, &item.Details); err != nil {
		return nil, err
	}
	if err := decodeJSON(photos, &item.Common.Photos); err != nil {
		return nil, err
	}
	return item, nil
}

// InsertItem stores a new item as the last item of its owner.
func InsertItem(ctx context.Context, q Querier, item *model.Item) error {
	personalV, personalU := nullCurrency(item.Common.PersonalValue)
	moneyV, moneyU := nullCurrency(item.Common.MoneyAmount)
	details, err := encodeJSON(item.Details)
	if err != nil {
		return err
	}
	photos, err := encodePhotos(item.Common.Photos)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO items (id, owner_id, position, name, kind, weight_value, weight_unit,
		     personal_value, personal_unit, money_value, money_unit,
		     description, expiration_date, details, photos, created_at)
		 VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM items WHERE owner_id = ?),
		     ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Common.OwnerID, item.Common.OwnerID, item.Common.Name, string(item.Kind),
		item.Common.Weight.Value, string(item.Common.Weight.Unit),
		personalV, personalU, moneyV, moneyU,
		nullString(item.Common.Description), nullGameDate(item.ExpirationDate),
		details, photos, item.Common.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating item: %w", err)
	}
	return nil
}

// GetItem returns an item by ID, or nil if it does not exist.
func GetItem(ctx context.Context, q Querier, id string) (*model.Item, error) {
	item, err := scanItem(q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ItemsOf returns the items directly inside an inventory, in attach order.
func ItemsOf(ctx context.Context, q Querier, ownerID string) ([]model.Item, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE owner_id = ? ORDER BY position`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ItemOwner returns the inventory holding an item. found is false when the
// item does not exist.
func ItemOwner(ctx context.Context, q Querier, id string) (ownerID string, found bool, err error) {
	err = q.QueryRowContext(ctx, `SELECT owner_id FROM items WHERE id = ?`, id).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting item owner: %w", err)
	}
	return ownerID, true, nil
}

// UpdateItem writes the item's own fields. The owner is left alone.
func UpdateItem(ctx context.Context, q Querier, item *model.Item) error {
	personalV, personalU := nullCurrency(item.Common.PersonalValue)
	moneyV, moneyU := nullCurrency(item.Common.MoneyAmount)
	details, err := encodeJSON(item.Details)
	if err != nil {
		return err
	}
	photos, err := encodePhotos(item.Common.Photos)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx,
		`UPDATE items SET name = ?, kind = ?, weight_value = ?, weight_unit = ?,
		     personal_value = ?, personal_unit = ?, money_value = ?, money_unit = ?,
		     description = ?, expiration_date = ?, details = ?, photos = ?
		 WHERE id = ?`,
		item.Common.Name, string(item.Kind), item.Common.Weight.Value, string(item.Common.Weight.Unit),
		personalV, personalU, moneyV, moneyU,
		nullString(item.Common.Description), nullGameDate(item.ExpirationDate),
		details, photos, item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// SetItemOwner moves an item, appending it after the new owner's items.
func SetItemOwner(ctx context.Context, q Querier, id, ownerID string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE items
		 SET owner_id = ?, position = (SELECT COALESCE(MAX(position), 0) + 1 FROM items WHERE owner_id = ?)
		 WHERE id = ?`,
		ownerID, ownerID, id,
	)
	if err != nil {
		return fmt.Errorf("moving item: %w", err)
	}
	return nil
}

// DeleteItem removes an item row.
func DeleteItem(ctx context.Context, q Querier, id string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// DeleteItemsOwnedBy removes every item held by the listed inventories and
// returns the removed ids.
func DeleteItemsOwnedBy(ctx context.Context, q Querier, ownerIDs []string) ([]string, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}
	in := placeholders(len(ownerIDs))
	args := stringArgs(ownerIDs)

	rows, err := q.QueryContext(ctx, `SELECT id FROM items WHERE owner_id IN (`+in+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items to delete: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning item id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM items WHERE owner_id IN (`+in+`)`, args...); err != nil {
		return nil, fmt.Errorf("deleting items: %w", err)
	}
	return ids, nil
}
