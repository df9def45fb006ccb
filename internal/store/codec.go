package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/erazemk/inventorykeeper/internal/units"
)

// Optional quantities are stored as a nullable value column plus a unit column.

func nullCurrency(c *units.Currency) (sql.NullFloat64, sql.NullString) {
	if c == nil {
		return sql.NullFloat64{}, sql.NullString{}
	}
	return sql.NullFloat64{Float64: c.Value, Valid: true}, sql.NullString{String: string(c.Unit), Valid: true}
}

func currencyFrom(v sql.NullFloat64, u sql.NullString) *units.Currency {
	if !v.Valid {
		return nil
	}
	return &units.Currency{Value: v.Float64, Unit: units.CurrencyUnit(u.String)}
}

func nullWeight(w *units.Weight) (sql.NullFloat64, sql.NullString) {
	if w == nil {
		return sql.NullFloat64{}, sql.NullString{}
	}
	return sql.NullFloat64{Float64: w.Value, Valid: true}, sql.NullString{String: string(w.Unit), Valid: true}
}

func weightFrom(v sql.NullFloat64, u sql.NullString) *units.Weight {
	if !v.Valid {
		return nil
	}
	return &units.Weight{Value: v.Float64, Unit: units.WeightUnit(u.String)}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullGameDate(d *units.GameDate) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func gameDateFrom(s sql.NullString) (*units.GameDate, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := units.ParseGameDate(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding %T: %w", v, err)
	}
	return string(b), nil
}

func decodeJSON(s string, v any) error {
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("decoding %T: %w", v, err)
	}
	return nil
}

func encodePhotos(photos []string) (string, error) {
	if photos == nil {
		photos = []string{}
	}
	return encodeJSON(photos)
}
