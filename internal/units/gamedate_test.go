package units

import "testing"

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		month, year int
		want        int
	}{
		{1, 1850, 31},
		{2, 1850, 28},
		{2, 1852, 29},
		{2, 1900, 28},
		{2, 2000, 29},
		{4, 1850, 30},
		{12, 1850, 31},
	}

	for _, tt := range tests {
		if got := DaysInMonth(tt.month, tt.year); got != tt.want {
			t.Errorf("DaysInMonth(%d, %d) = %d, want %d", tt.month, tt.year, got, tt.want)
		}
	}
}

func TestGameDateNextPrev(t *testing.T) {
	tests := []struct {
		day  GameDate
		next GameDate
	}{
		{GameDate{1, 1, 1850}, GameDate{2, 1, 1850}},
		{GameDate{31, 1, 1850}, GameDate{1, 2, 1850}},
		{GameDate{28, 2, 1850}, GameDate{1, 3, 1850}},
		{GameDate{28, 2, 1852}, GameDate{29, 2, 1852}},
		{GameDate{29, 2, 1852}, GameDate{1, 3, 1852}},
		{GameDate{30, 4, 1850}, GameDate{1, 5, 1850}},
		{GameDate{31, 12, 1850}, GameDate{1, 1, 1851}},
	}

	for _, tt := range tests {
		if got := tt.day.Next(); got != tt.next {
			t.Errorf("%v.Next() = %v, want %v", tt.day, got, tt.next)
		}
		if got := tt.next.Prev(); got != tt.day {
			t.Errorf("%v.Prev() = %v, want %v", tt.next, got, tt.day)
		}
	}
}

func TestGameDateAddDays(t *testing.T) {
	start := DefaultGameDate
	if got := start.AddDays(365); got != (GameDate{1, 1, 1851}) {
		t.Errorf("AddDays(365) = %v", got)
	}
	if got := start.AddDays(-1); got != (GameDate{31, 12, 1849}) {
		t.Errorf("AddDays(-1) = %v", got)
	}
	if got := start.AddDays(365).AddDays(-365); got != start {
		t.Errorf("round trip = %v", got)
	}
}

func TestGameDateCompare(t *testing.T) {
	a := GameDate{15, 6, 1850}
	tests := []struct {
		b    GameDate
		want int
	}{
		{GameDate{15, 6, 1850}, 0},
		{GameDate{16, 6, 1850}, -1},
		{GameDate{1, 7, 1850}, -1},
		{GameDate{1, 1, 1851}, -1},
		{GameDate{14, 6, 1850}, 1},
		{GameDate{31, 5, 1850}, 1},
		{GameDate{31, 12, 1849}, 1},
	}

	for _, tt := range tests {
		if got := a.Compare(tt.b); got != tt.want {
			t.Errorf("%v.Compare(%v) = %d, want %d", a, tt.b, got, tt.want)
		}
		if a.Before(tt.b) != (tt.want < 0) || a.After(tt.b) != (tt.want > 0) {
			t.Errorf("Before/After disagree with Compare for %v vs %v", a, tt.b)
		}
	}
}

func TestParseGameDate(t *testing.T) {
	d, err := ParseGameDate("29.02.1852")
	if err != nil {
		t.Fatalf("ParseGameDate: %v", err)
	}
	if d != (GameDate{29, 2, 1852}) {
		t.Errorf("got %v", d)
	}
	if d.String() != "29.02.1852" {
		t.Errorf("String() = %q", d.String())
	}

	for _, bad := range []string{"", "1.1", "29.02.1850", "32.01.1850", "a.b.c", "01.13.1850"} {
		if _, err := ParseGameDate(bad); err == nil {
			t.Errorf("ParseGameDate(%q): expected error", bad)
		}
	}
}
