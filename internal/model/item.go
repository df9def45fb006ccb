package model

import "github.com/erazemk/inventorykeeper/internal/units"

// ItemKind selects the detail payload of an item.
type ItemKind string

// Item kinds.
const (
	ItemKindFood    ItemKind = "food"
	ItemKindLiquid  ItemKind = "liquid"
	ItemKindWeapon  ItemKind = "weapon"
	ItemKindBook    ItemKind = "book"
	ItemKindGeneric ItemKind = "generic"
)

// Valid reports whether k is a known item kind.
func (k ItemKind) Valid() bool {
	switch k {
	case ItemKindFood, ItemKindLiquid, ItemKindWeapon, ItemKindBook, ItemKindGeneric:
		return true
	}
	return false
}

// Item is a leaf of the containment tree.
type Item struct {
	ID             NodeID          `json:"id"`
	Common         Common          `json:"common"`
	ExpirationDate *units.GameDate `json:"expiration_date,omitempty"`
	Kind           ItemKind        `json:"kind"`
	Details        ItemDetails     `json:"details"`
}

// ItemDetails carries the kind-specific fields. Only the member matching the
// item kind is set.
type ItemDetails struct {
	Food   *FoodDetails   `json:"food,omitempty"`
	Liquid *LiquidDetails `json:"liquid,omitempty"`
	Weapon *WeaponDetails `json:"weapon,omitempty"`
	Book   *BookDetails   `json:"book,omitempty"`
}

// FoodDetails describes edible items.
type FoodDetails struct {
	Calories *float64 `json:"calories,omitempty"`
}

// LiquidDetails describes drinkable items.
type LiquidDetails struct {
	Calories *float64      `json:"calories,omitempty"`
	Volume   *units.Volume `json:"volume,omitempty"`
}

// WeaponDetails describes weapons.
type WeaponDetails struct {
	Accuracy *float64 `json:"accuracy,omitempty"`
}

// BookDetails holds the pages of a book.
type BookDetails struct {
	Content []string `json:"content"`
}

// Validate checks an item before it is stored.
func (i *Item) Validate() error {
	if !i.Kind.Valid() {
		return invalid("unknown item kind " + string(i.Kind))
	}
	if err := i.Common.Validate(); err != nil {
		return err
	}
	if i.ExpirationDate != nil && !i.ExpirationDate.Valid() {
		return invalid("expiration date " + i.ExpirationDate.String() + " does not exist")
	}
	return i.Details.validate(i.Kind)
}

func (d ItemDetails) validate(kind ItemKind) error {
	set := map[ItemKind]bool{
		ItemKindFood:   d.Food != nil,
		ItemKindLiquid: d.Liquid != nil,
		ItemKindWeapon: d.Weapon != nil,
		ItemKindBook:   d.Book != nil,
	}
	for k, ok := range set {
		if ok && k != kind {
			return invalid(string(k) + " details on a " + string(kind) + " item")
		}
	}
	if d.Liquid != nil && d.Liquid.Volume != nil {
		if err := d.Liquid.Volume.Validate(); err != nil {
			return invalid("volume: " + err.Error())
		}
	}
	return nil
}

// Expired reports whether the item has expired on the given game day.
func (i *Item) Expired(today units.GameDate) bool {
	return i.ExpirationDate != nil && i.ExpirationDate.Before(today)
}
