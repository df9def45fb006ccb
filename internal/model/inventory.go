package model

import "github.com/erazemk/inventorykeeper/internal/units"

// InventoryKind selects the detail payload of an inventory.
type InventoryKind string

// Inventory kinds.
const (
	InventoryKindCharacter InventoryKind = "character"
	InventoryKindLocation  InventoryKind = "location"
	InventoryKindVehicle   InventoryKind = "vehicle"
	InventoryKindGeneric   InventoryKind = "generic"
)

// Valid reports whether k is a known inventory kind.
func (k InventoryKind) Valid() bool {
	switch k {
	case InventoryKindCharacter, InventoryKindLocation, InventoryKindVehicle, InventoryKindGeneric:
		return true
	}
	return false
}

// Inventory is an inner node of the containment tree.
type Inventory struct {
	ID             NodeID           `json:"id"`
	Common         Common           `json:"common"`
	MaxCarryWeight *units.Weight    `json:"max_carry_weight,omitempty"`
	Kind           InventoryKind    `json:"kind"`
	Details        InventoryDetails `json:"details"`

	// Aggregates over the node and its whole subtree, in base units.
	TotalWeight        float64 `json:"total_weight"`
	TotalPersonalValue float64 `json:"total_personal_value"`
	TotalMoneyAmount   float64 `json:"total_money_amount"`
	TotalValue         float64 `json:"total_value"`

	// Derived from the owner column of the children (not always populated).
	Items       []NodeID `json:"items,omitempty"`
	Inventories []NodeID `json:"inventories,omitempty"`
}

// IsRoot reports whether the inventory owns itself.
func (inv *Inventory) IsRoot() bool {
	return inv.Common.OwnerID == inv.ID
}

// Totals returns the cached aggregates as quantities.
func (inv *Inventory) Totals() Totals {
	return Totals{
		Weight:        units.Kg(inv.TotalWeight),
		PersonalValue: units.Coins(inv.TotalPersonalValue),
		MoneyAmount:   units.Coins(inv.TotalMoneyAmount),
		Value:         units.Coins(inv.TotalValue),
	}
}

// Totals is the aggregate of a subtree.
type Totals struct {
	Weight        units.Weight   `json:"weight"`
	PersonalValue units.Currency `json:"personal_value"`
	MoneyAmount   units.Currency `json:"money_amount"`
	Value         units.Currency `json:"value"`
}

// Fits reports whether an inventory currently holding currentKg stays within
// its carry limit after extraKg more. currentKg must be freshly computed,
// never the cached total.
func (inv *Inventory) Fits(currentKg, extraKg float64) bool {
	if inv.MaxCarryWeight == nil {
		return true
	}
	return currentKg+extraKg <= inv.MaxCarryWeight.Base()
}

// InventoryDetails carries the kind-specific fields.
type InventoryDetails struct {
	Character *CharacterDetails `json:"character,omitempty"`
	Location  *LocationDetails  `json:"location,omitempty"`
	Vehicle   *VehicleDetails   `json:"vehicle,omitempty"`
}

// CharacterDetails describes a character.
type CharacterDetails struct {
	Strength     *float64        `json:"strength,omitempty"`
	Skill        *float64        `json:"skill,omitempty"`
	Intelligence *float64        `json:"intelligence,omitempty"`
	BirthDate    *units.GameDate `json:"birth_date,omitempty"`
	DeathDate    *units.GameDate `json:"death_date,omitempty"`
}

// LocationDetails describes a place.
type LocationDetails struct {
	Explored *bool `json:"explored,omitempty"`
}

// VehicleDetails describes a vehicle.
type VehicleDetails struct {
	Mileage           *float64        `json:"mileage,omitempty"`
	TankVolume        *units.Volume   `json:"tank_volume,omitempty"`
	FuelLevel         *units.Volume   `json:"fuel_level,omitempty"`
	FuelPer100km      *units.Volume   `json:"fuel_per_100km,omitempty"`
	EngineVolume      *units.Volume   `json:"engine_volume,omitempty"`
	Horsepower        *float64        `json:"horsepower,omitempty"`
	Torque            *float64        `json:"torque,omitempty"`
	MaxSpeed          *float64        `json:"max_speed,omitempty"`
	AccelerationTo100 *float64        `json:"acceleration_to_100,omitempty"`
	Transmission      string          `json:"transmission,omitempty"`
	Drive             string          `json:"drive,omitempty"`
	ReleaseDate       *units.GameDate `json:"release_date,omitempty"`
	Defects           string          `json:"defects,omitempty"`
}

// Validate checks an inventory before it is stored.
func (inv *Inventory) Validate() error {
	if !inv.Kind.Valid() {
		return invalid("unknown inventory kind " + string(inv.Kind))
	}
	if err := inv.Common.Validate(); err != nil {
		return err
	}
	if inv.MaxCarryWeight != nil {
		if err := inv.MaxCarryWeight.Validate(); err != nil {
			return invalid("max carry weight: " + err.Error())
		}
		if inv.MaxCarryWeight.Value < 0 {
			return invalid("max carry weight must not be negative")
		}
	}
	return inv.Details.validate(inv.Kind)
}

func (d InventoryDetails) validate(kind InventoryKind) error {
	if d.Character != nil && kind != InventoryKindCharacter {
		return invalid("character details on a " + string(kind) + " inventory")
	}
	if d.Location != nil && kind != InventoryKindLocation {
		return invalid("location details on a " + string(kind) + " inventory")
	}
	if v := d.Vehicle; v != nil {
		if kind != InventoryKindVehicle {
			return invalid("vehicle details on a " + string(kind) + " inventory")
		}
		for _, vol := range []*units.Volume{v.TankVolume, v.FuelLevel, v.FuelPer100km, v.EngineVolume} {
			if vol == nil {
				continue
			}
			if err := vol.Validate(); err != nil {
				return invalid("vehicle volume: " + err.Error())
			}
		}
	}
	if c := d.Character; c != nil {
		for _, gd := range []*units.GameDate{c.BirthDate, c.DeathDate} {
			if gd != nil && !gd.Valid() {
				return invalid("character date " + gd.String() + " does not exist")
			}
		}
	}
	return nil
}
