package core

import "time"

// Billing cycles do not follow the calendar: the cycle named (month,
// year) runs from day 9 of the previous month through the end of day 8
// of the named month. Family reports use cycles; personal summaries use
// plain calendar months. The two on purpose stay distinct.

// CurrentCycle returns the cycle a reference date belongs to. From day
// 9 onward the date already belongs to the next month's cycle, wrapping
// December into January of the following year.
func CurrentCycle(ref time.Time) (month, year int) {
	month = int(ref.Month())
	year = ref.Year()
	if ref.Day() >= 9 {
		month++
		if month > 12 {
			month = 1
			year++
		}
	}
	return month, year
}

// CycleRange returns the inclusive [start, end] bounds of cycle
// (month, year): day 9 of month-1 at 00:00:00 through day 8 of month at
// the last nanosecond. All arithmetic is in UTC.
func CycleRange(month, year int) (start, end time.Time) {
	start = time.Date(year, time.Month(month-1), 9, 0, 0, 0, 0, time.UTC)
	end = time.Date(year, time.Month(month), 9, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
	return start, end
}

// MonthRange returns the inclusive calendar-month bounds used by the
// personal expense summary.
func MonthRange(month, year int) (start, end time.Time) {
	start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
	return start, end
}
