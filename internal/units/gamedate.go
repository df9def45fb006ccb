package units

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// GameDate is an in-game calendar day. Comparison is by year, month, day.
type GameDate struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

// DefaultGameDate is the date new games start on.
var DefaultGameDate = GameDate{Day: 1, Month: 1, Year: 1850}

// DaysInMonth returns the number of days of month in year (Gregorian rules).
func DaysInMonth(month, year int) int {
	switch month {
	case 2:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

// IsLeapYear reports whether year has a 29th of February.
func IsLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// Valid reports whether d names an existing calendar day.
func (d GameDate) Valid() bool {
	if d.Month < 1 || d.Month > 12 {
		return false
	}
	return d.Day >= 1 && d.Day <= DaysInMonth(d.Month, d.Year)
}

// Next returns the following day.
func (d GameDate) Next() GameDate {
	d.Day++
	if d.Day > DaysInMonth(d.Month, d.Year) {
		d.Day = 1
		d.Month++
		if d.Month > 12 {
			d.Month = 1
			d.Year++
		}
	}
	return d
}

// Prev returns the preceding day.
func (d GameDate) Prev() GameDate {
	d.Day--
	if d.Day < 1 {
		d.Month--
		if d.Month < 1 {
			d.Month = 12
			d.Year--
		}
		d.Day = DaysInMonth(d.Month, d.Year)
	}
	return d
}

// AddDays moves the date n days forward, or backward when n is negative.
func (d GameDate) AddDays(n int) GameDate {
	for ; n > 0; n-- {
		d = d.Next()
	}
	for ; n < 0; n++ {
		d = d.Prev()
	}
	return d
}

// Compare returns -1, 0 or +1.
func (d GameDate) Compare(o GameDate) int {
	switch {
	case d.Year != o.Year:
		return cmp.Compare(d.Year, o.Year)
	case d.Month != o.Month:
		return cmp.Compare(d.Month, o.Month)
	default:
		return cmp.Compare(d.Day, o.Day)
	}
}

// Before reports whether d is strictly earlier than o.
func (d GameDate) Before(o GameDate) bool { return d.Compare(o) < 0 }

// After reports whether d is strictly later than o.
func (d GameDate) After(o GameDate) bool { return d.Compare(o) > 0 }

func (d GameDate) String() string {
	return fmt.Sprintf("%02d.%02d.%d", d.Day, d.Month, d.Year)
}

// ParseGameDate parses a date in DD.MM.YYYY form.
func ParseGameDate(s string) (GameDate, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return GameDate{}, fmt.Errorf("invalid game date %q: want DD.MM.YYYY", s)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return GameDate{}, fmt.Errorf("invalid game date %q: %w", s, err)
		}
		nums[i] = n
	}
	d := GameDate{Day: nums[0], Month: nums[1], Year: nums[2]}
	if !d.Valid() {
		return GameDate{}, fmt.Errorf("invalid game date %q: no such day", s)
	}
	return d, nil
}
