// Package tree maintains the cached subtree totals of inventories and answers
// structural questions about the containment forest.
//
// The owner_id of a node is the only containment link. A root owns itself.
// Every walk here is an explicit loop bounded by MaxDepth so a corrupted
// owner chain surfaces as ErrCorruptTree instead of spinning forever.
package tree

import (
	"context"
	"fmt"
	"math"

	"github.com/erazemk/inventorykeeper/internal/model"
	"github.com/erazemk/inventorykeeper/internal/store"
	"github.com/erazemk/inventorykeeper/internal/units"
)

// MaxDepth bounds every walk along an owner chain.
const MaxDepth = 4096

// Recompute refreshes the cached totals of inventory id from its direct
// children, then does the same for every ancestor up to the root.
func Recompute(ctx context.Context, q store.Querier, id string) error {
	for depth := 0; depth < MaxDepth; depth++ {
		inv, err := store.GetInventory(ctx, q, id)
		if err != nil {
			return err
		}
		if inv == nil {
			return fmt.Errorf("recomputing %s: %w", id, model.ErrCorruptTree)
		}

		totals, err := directTotals(ctx, q, inv)
		if err != nil {
			return err
		}
		if err := store.SetInventoryTotals(ctx, q, id, totals); err != nil {
			return err
		}

		if inv.IsRoot() {
			return nil
		}
		id = inv.Common.OwnerID
	}
	return fmt.Errorf("recomputing: owner chain longer than %d: %w", MaxDepth, model.ErrCorruptTree)
}

// Fresh returns the totals of inventory id computed from its direct children
// without writing them. Capacity checks use it so they never trust a stale cache.
func Fresh(ctx context.Context, q store.Querier, id string) (model.Totals, error) {
	inv, err := store.GetInventory(ctx, q, id)
	if err != nil {
		return model.Totals{}, err
	}
	if inv == nil {
		return model.Totals{}, fmt.Errorf("inventory %s: %w", id, model.ErrNotFound)
	}
	return directTotals(ctx, q, inv)
}

// directTotals sums the inventory's own fields, its items and the cached
// totals of its child inventories.
func directTotals(ctx context.Context, q store.Querier, inv *model.Inventory) (model.Totals, error) {
	weight := []units.Weight{inv.Common.Weight}
	personal := []units.Currency{optional(inv.Common.PersonalValue)}
	money := []units.Currency{optional(inv.Common.MoneyAmount)}

	items, err := store.ItemsOf(ctx, q, inv.ID)
	if err != nil {
		return model.Totals{}, err
	}
	for _, it := range items {
		weight = append(weight, it.Common.Weight)
		personal = append(personal, optional(it.Common.PersonalValue))
		money = append(money, optional(it.Common.MoneyAmount))
	}

	children, err := store.ChildInventories(ctx, q, inv.ID)
	if err != nil {
		return model.Totals{}, err
	}
	for _, child := range children {
		t := child.Totals()
		weight = append(weight, t.Weight)
		personal = append(personal, t.PersonalValue)
		money = append(money, t.MoneyAmount)
	}

	t := totalsOf(units.Sum(weight...), units.Sum(personal...), units.Sum(money...))
	if !units.Finite(t.Weight.Value) || !units.Finite(t.Value.Value) {
		return model.Totals{}, &model.ValidationError{Reason: "totals of " + inv.Common.Name + " are too large"}
	}
	return t, nil
}

func totalsOf(weight units.Weight, personal, money units.Currency) model.Totals {
	return model.Totals{
		Weight:        weight,
		PersonalValue: personal,
		MoneyAmount:   money,
		Value:         personal.Add(money),
	}
}

func optional(c *units.Currency) units.Currency {
	if c == nil {
		return units.Zero[units.CurrencyUnit]()
	}
	return *c
}

// Totals computes the aggregates of inventory id by walking its whole
// subtree, ignoring every cached total. It is the reference the cache is
// checked against.
func Totals(ctx context.Context, q store.Querier, id string) (model.Totals, error) {
	inv, err := store.GetInventory(ctx, q, id)
	if err != nil {
		return model.Totals{}, err
	}
	if inv == nil {
		return model.Totals{}, fmt.Errorf("inventory %s: %w", id, model.ErrNotFound)
	}

	var weight, personal, money float64
	add := func(c *model.Common) {
		weight += c.Weight.Base()
		personal += c.PersonalValueBase()
		money += c.MoneyAmountBase()
	}

	add(&inv.Common)
	stack := []string{id}
	seen := map[string]bool{id: true}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		items, err := store.ItemsOf(ctx, q, cur)
		if err != nil {
			return model.Totals{}, err
		}
		for i := range items {
			add(&items[i].Common)
		}

		children, err := store.ChildInventories(ctx, q, cur)
		if err != nil {
			return model.Totals{}, err
		}
		for i := range children {
			if seen[children[i].ID] {
				return model.Totals{}, fmt.Errorf("inventory %s reached twice: %w", children[i].ID, model.ErrCorruptTree)
			}
			seen[children[i].ID] = true
			add(&children[i].Common)
			stack = append(stack, children[i].ID)
		}
	}

	return totalsOf(units.Kg(weight), units.Coins(personal), units.Coins(money)), nil
}

// Ancestors returns the owners of inventory id from its parent up to the
// root. A root has no ancestors.
func Ancestors(ctx context.Context, q store.Querier, id string) ([]string, error) {
	var chain []string
	for depth := 0; depth < MaxDepth; depth++ {
		owner, found, err := store.InventoryOwner(ctx, q, id)
		if err != nil {
			return nil, err
		}
		if !found {
			if depth == 0 {
				return nil, fmt.Errorf("inventory %s: %w", id, model.ErrNotFound)
			}
			return nil, fmt.Errorf("owner %s missing: %w", id, model.ErrCorruptTree)
		}
		if owner == id {
			return chain, nil
		}
		chain = append(chain, owner)
		id = owner
	}
	return nil, fmt.Errorf("owner chain longer than %d: %w", MaxDepth, model.ErrCorruptTree)
}

// IsAncestor reports whether ancestor is target itself or one of its owners.
// This is the cycle check: attaching ancestor under target would close a loop.
func IsAncestor(ctx context.Context, q store.Querier, ancestor, target string) (bool, error) {
	if ancestor == target {
		return true, nil
	}
	chain, err := Ancestors(ctx, q, target)
	if err != nil {
		return false, err
	}
	for _, id := range chain {
		if id == ancestor {
			return true, nil
		}
	}
	return false, nil
}

// Descendants returns the ids of every inventory below id, parents before
// their children. id itself is not included.
func Descendants(ctx context.Context, q store.Querier, id string) ([]string, error) {
	var out []string
	queue := []string{id}
	seen := map[string]bool{id: true}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		children, err := store.ChildInventoryIDs(ctx, q, cur)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			if seen[c] {
				return nil, fmt.Errorf("inventory %s reached twice: %w", c, model.ErrCorruptTree)
			}
			seen[c] = true
			out = append(out, c)
			queue = append(queue, c)
		}
	}
	return out, nil
}

// Height returns how many levels of inventories lie below id. An inventory
// without child inventories has height 0.
func Height(ctx context.Context, q store.Querier, id string) (int, error) {
	level := []string{id}
	for h := 0; h < MaxDepth; h++ {
		var next []string
		for _, cur := range level {
			children, err := store.ChildInventoryIDs(ctx, q, cur)
			if err != nil {
				return 0, err
			}
			next = append(next, children...)
		}
		if len(next) == 0 {
			return h, nil
		}
		level = next
	}
	return 0, fmt.Errorf("subtree of %s deeper than %d: %w", id, MaxDepth, model.ErrCorruptTree)
}

// Mismatch is an inventory whose cached totals disagree with a full walk.
type Mismatch struct {
	ID     string
	Name   string
	Cached model.Totals
	Actual model.Totals
}

// Check compares the cached totals of every inventory in the store with a
// brute-force walk of its subtree.
func Check(ctx context.Context, q store.Querier) ([]Mismatch, error) {
	roots, err := store.ListRootInventories(ctx, q, "")
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, r := range roots {
		ids = append(ids, r.ID)
		below, err := Descendants(ctx, q, r.ID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, below...)
	}

	var out []Mismatch
	for _, id := range ids {
		inv, err := store.GetInventory(ctx, q, id)
		if err != nil {
			return nil, err
		}
		actual, err := Totals(ctx, q, id)
		if err != nil {
			return nil, err
		}
		cached := inv.Totals()
		if Differ(cached, actual) {
			out = append(out, Mismatch{ID: id, Name: inv.Common.Name, Cached: cached, Actual: actual})
		}
	}
	return out, nil
}

// Differ reports whether two totals disagree beyond rounding noise.
func Differ(a, b model.Totals) bool {
	return !approxEqual(a.Weight.Base(), b.Weight.Base()) ||
		!approxEqual(a.PersonalValue.Base(), b.PersonalValue.Base()) ||
		!approxEqual(a.MoneyAmount.Base(), b.MoneyAmount.Base())
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
