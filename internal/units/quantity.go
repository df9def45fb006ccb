package units

import (
	"errors"
	"fmt"
	"math"
)

// ErrNotFinite is returned when a quantity value is NaN or infinite.
var ErrNotFinite = errors.New("quantity value must be finite")

// Unit is a unit of measure with a fixed exchange rate to its base unit.
type Unit[U any] interface {
	~string
	// Rate returns how many base units one unit is worth. Panics on an
	// unmapped unit.
	Rate() float64
	// BaseUnit returns the unit all arithmetic is normalised to.
	BaseUnit() U
	// Scale returns the units considered by Optimized, largest first.
	Scale() []U
	// Known reports whether the unit has an exchange rate.
	Known() bool
}

// Quantity is a value expressed in a convertible unit.
type Quantity[U Unit[U]] struct {
	Value float64 `json:"value"`
	Unit  U       `json:"unit"`
}

// New returns a quantity, rejecting values that are not finite in unit or
// once converted to the base unit.
func New[U Unit[U]](value float64, unit U) (Quantity[U], error) {
	if !Finite(value) {
		return Quantity[U]{}, ErrNotFinite
	}
	if !unit.Known() {
		return Quantity[U]{}, fmt.Errorf("unknown unit %q", string(unit))
	}
	q := Quantity[U]{Value: value, Unit: unit}
	if !Finite(q.Base()) {
		return Quantity[U]{}, fmt.Errorf("%w: %s overflows %s", ErrNotFinite, q, string(unit.BaseUnit()))
	}
	return q, nil
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate checks an untrusted quantity.
func (q Quantity[U]) Validate() error {
	_, err := New(q.Value, q.Unit)
	return err
}

// Zero returns a zero quantity in the base unit of U.
func Zero[U Unit[U]]() Quantity[U] {
	var u U
	return Quantity[U]{Unit: u.BaseUnit()}
}

// FromBase expresses a base-unit value as a quantity.
func FromBase[U Unit[U]](value float64) Quantity[U] {
	var u U
	return Quantity[U]{Value: value, Unit: u.BaseUnit()}
}

// ExchangeRate returns the factor converting a value in from into a value in to.
func ExchangeRate[U Unit[U]](from, to U) float64 {
	return from.Rate() / to.Rate()
}

// Base returns the value normalised to the base unit.
func (q Quantity[U]) Base() float64 {
	return q.Value * q.Unit.Rate()
}

// Convert returns the same amount expressed in unit.
func (q Quantity[U]) Convert(unit U) Quantity[U] {
	return Quantity[U]{Value: q.Value * ExchangeRate(q.Unit, unit), Unit: unit}
}

// Add returns q+o in the base unit.
func (q Quantity[U]) Add(o Quantity[U]) Quantity[U] {
	return FromBase[U](q.Base() + o.Base())
}

// Sub returns q-o in the base unit.
func (q Quantity[U]) Sub(o Quantity[U]) Quantity[U] {
	return FromBase[U](q.Base() - o.Base())
}

// Less reports whether q is smaller than o.
func (q Quantity[U]) Less(o Quantity[U]) bool {
	return q.Base() < o.Base()
}

// Equal reports whether q and o are the same amount.
func (q Quantity[U]) Equal(o Quantity[U]) bool {
	return q.Base() == o.Base()
}

// Optimized returns the amount in the largest unit of the scale whose
// magnitude is at least one, or in the smallest unit if none qualifies.
func (q Quantity[U]) Optimized() Quantity[U] {
	scale := q.Unit.Scale()
	for _, u := range scale {
		c := q.Convert(u)
		if math.Abs(c.Value) >= 1 {
			return c
		}
	}
	return q.Convert(scale[len(scale)-1])
}

func (q Quantity[U]) String() string {
	return fmt.Sprintf("%g %s", q.Value, string(q.Unit))
}

// Sum adds quantities in the base unit.
func Sum[U Unit[U]](qs ...Quantity[U]) Quantity[U] {
	var total float64
	for _, q := range qs {
		total += q.Base()
	}
	return FromBase[U](total)
}
