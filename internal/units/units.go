package units

import "fmt"

// WeightUnit is a unit of mass. The base unit is kg.
type WeightUnit string

// Weight units.
const (
	Milligram WeightUnit = "mg"
	Gram      WeightUnit = "g"
	Kilogram  WeightUnit = "kg"
	Tonne     WeightUnit = "t"
	Pound     WeightUnit = "lb"
	Ounce     WeightUnit = "oz"
)

var weightRates = map[WeightUnit]float64{
	Milligram: 0.000001,
	Gram:      0.001,
	Kilogram:  1,
	Tonne:     1000,
	Pound:     0.453592,
	Ounce:     0.0283495,
}

func (u WeightUnit) Rate() float64 {
	r, ok := weightRates[u]
	if !ok {
		panic(fmt.Sprintf("units: unmapped weight unit %q", string(u)))
	}
	return r
}

func (u WeightUnit) Known() bool {
	_, ok := weightRates[u]
	return ok
}

func (WeightUnit) BaseUnit() WeightUnit { return Kilogram }

func (WeightUnit) Scale() []WeightUnit {
	return []WeightUnit{Tonne, Kilogram, Gram, Milligram}
}

// CurrencyUnit is an in-game currency. The base unit is currency1.
type CurrencyUnit string

// Currency units.
const (
	Currency1 CurrencyUnit = "currency1"
	Currency2 CurrencyUnit = "currency2"
	Currency3 CurrencyUnit = "currency3"
	Currency4 CurrencyUnit = "currency4"
)

var currencyRates = map[CurrencyUnit]float64{
	Currency1: 1,
	Currency2: 40,
	Currency3: 43,
	Currency4: 2500000,
}

func (u CurrencyUnit) Rate() float64 {
	r, ok := currencyRates[u]
	if !ok {
		panic(fmt.Sprintf("units: unmapped currency unit %q", string(u)))
	}
	return r
}

func (u CurrencyUnit) Known() bool {
	_, ok := currencyRates[u]
	return ok
}

func (CurrencyUnit) BaseUnit() CurrencyUnit { return Currency1 }

func (CurrencyUnit) Scale() []CurrencyUnit {
	return []CurrencyUnit{Currency4, Currency3, Currency2, Currency1}
}

// VolumeUnit is a unit of volume. The base unit is the litre.
type VolumeUnit string

// Volume units.
const (
	Millilitre VolumeUnit = "ml"
	Litre      VolumeUnit = "l"
	Gallon     VolumeUnit = "gal"
)

var volumeRates = map[VolumeUnit]float64{
	Millilitre: 0.001,
	Litre:      1,
	Gallon:     3.78541,
}

func (u VolumeUnit) Rate() float64 {
	r, ok := volumeRates[u]
	if !ok {
		panic(fmt.Sprintf("units: unmapped volume unit %q", string(u)))
	}
	return r
}

func (u VolumeUnit) Known() bool {
	_, ok := volumeRates[u]
	return ok
}

func (VolumeUnit) BaseUnit() VolumeUnit { return Litre }

func (VolumeUnit) Scale() []VolumeUnit {
	return []VolumeUnit{Litre, Millilitre}
}

// Weight is a mass.
type Weight = Quantity[WeightUnit]

// Currency is an amount of money.
type Currency = Quantity[CurrencyUnit]

// Volume is an amount of liquid.
type Volume = Quantity[VolumeUnit]

// Kg returns a weight in kilograms.
func Kg(v float64) Weight { return Weight{Value: v, Unit: Kilogram} }

// Coins returns an amount in the base currency.
func Coins(v float64) Currency { return Currency{Value: v, Unit: Currency1} }

// Litres returns a volume in litres.
func Litres(v float64) Volume { return Volume{Value: v, Unit: Litre} }

// ParseWeightUnit validates an untrusted weight unit.
func ParseWeightUnit(s string) (WeightUnit, error) {
	u := WeightUnit(s)
	if !u.Known() {
		return "", fmt.Errorf("unknown weight unit %q", s)
	}
	return u, nil
}

// ParseCurrencyUnit validates an untrusted currency unit.
func ParseCurrencyUnit(s string) (CurrencyUnit, error) {
	u := CurrencyUnit(s)
	if !u.Known() {
		return "", fmt.Errorf("unknown currency unit %q", s)
	}
	return u, nil
}

// ParseVolumeUnit validates an untrusted volume unit.
func ParseVolumeUnit(s string) (VolumeUnit, error) {
	u := VolumeUnit(s)
	if !u.Known() {
		return "", fmt.Errorf("unknown volume unit %q", s)
	}
	return u, nil
}
