package core

import (
	"testing"
	"time"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 12, 0, 0, 0, time.UTC)
}

func TestCurrentCycle(t *testing.T) {
	cases := []struct {
		ref   time.Time
		month int
		year  int
	}{
		{date(2024, 3, 8), 3, 2024},  // day 8 still belongs to the March cycle
		{date(2024, 3, 9), 4, 2024},  // day 9 starts the April cycle
		{date(2024, 3, 15), 4, 2024},
		{date(2024, 12, 9), 1, 2025}, // December wraps into January
		{date(2024, 12, 8), 12, 2024},
		{date(2024, 1, 1), 1, 2024},
	}
	for _, tc := range cases {
		month, year := CurrentCycle(tc.ref)
		if month != tc.month || year != tc.year {
			t.Fatalf("CurrentCycle(%v) = (%d, %d), expected (%d, %d)",
				tc.ref, month, year, tc.month, tc.year)
		}
	}
}

func TestCycleRange(t *testing.T) {
	start, end := CycleRange(4, 2024)
	if !start.Equal(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start: got %v", start)
	}
	if end.Day() != 8 || end.Month() != 4 || end.Year() != 2024 {
		t.Fatalf("end: got %v", end)
	}
	if !end.Before(time.Date(2024, 4, 9, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end must precede day 9: got %v", end)
	}

	// January cycle starts on December 9 of the previous year.
	start, end = CycleRange(1, 2025)
	if !start.Equal(time.Date(2024, 12, 9, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("january start: got %v", start)
	}
	if end.Month() != 1 || end.Year() != 2025 {
		t.Fatalf("january end: got %v", end)
	}
}

func TestCycleRangeCoversEveryDay(t *testing.T) {
	// Every day of the year belongs to exactly the cycle CurrentCycle
	// assigns it to.
	for day := date(2024, 1, 1); day.Year() == 2024; day = day.AddDate(0, 0, 1) {
		month, year := CurrentCycle(day)
		start, end := CycleRange(month, year)
		if day.Before(start) || day.After(end) {
			t.Fatalf("%v outside its own cycle (%d,%d) [%v, %v]", day, month, year, start, end)
		}
	}
}

func TestMonthRange(t *testing.T) {
	start, end := MonthRange(2, 2024)
	if start.Day() != 1 || start.Month() != 2 {
		t.Fatalf("start: got %v", start)
	}
	if end.Day() != 29 || end.Month() != 2 { // leap year
		t.Fatalf("end: got %v", end)
	}
}
