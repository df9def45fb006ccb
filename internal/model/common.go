package model

import (
	"time"

	"github.com/erazemk/inventorykeeper/internal/units"
)

// Common holds the fields shared by items and inventories.
type Common struct {
	Name string `json:"name"`
	// OwnerID is the id of the containing inventory, or the node's own id
	// when the node is a tree root.
	OwnerID       NodeID          `json:"owner_id"`
	Weight        units.Weight    `json:"weight"`
	PersonalValue *units.Currency `json:"personal_value,omitempty"`
	MoneyAmount   *units.Currency `json:"money_amount,omitempty"`
	Description   string          `json:"description,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	Photos        []string        `json:"photos"`
}

// PersonalValueBase returns the personal value in base currency, zero if unset.
func (c *Common) PersonalValueBase() float64 {
	if c.PersonalValue == nil {
		return 0
	}
	return c.PersonalValue.Base()
}

// MoneyAmountBase returns the money amount in base currency, zero if unset.
func (c *Common) MoneyAmountBase() float64 {
	if c.MoneyAmount == nil {
		return 0
	}
	return c.MoneyAmount.Base()
}

// Validate checks user supplied fields.
func (c *Common) Validate() error {
	if c.Name == "" {
		return invalid("name is required")
	}
	if err := c.Weight.Validate(); err != nil {
		return invalid("weight: " + err.Error())
	}
	if c.Weight.Value < 0 {
		return invalid("weight must not be negative")
	}
	if c.PersonalValue != nil {
		if err := c.PersonalValue.Validate(); err != nil {
			return invalid("personal value: " + err.Error())
		}
	}
	if c.MoneyAmount != nil {
		if err := c.MoneyAmount.Validate(); err != nil {
			return invalid("money amount: " + err.Error())
		}
	}
	return nil
}
