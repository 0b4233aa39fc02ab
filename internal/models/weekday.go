package models

import (
	"fmt"
	"time"
)

// Weekday is a closed schedule weekday enum, Monday = 1 through Sunday = 7.
// It is mapped explicitly from time.Weekday so the value stored in the
// database never depends on locale or on Go's Sunday-first numbering.
type Weekday int

const (
	Monday    Weekday = 1
	Tuesday   Weekday = 2
	Wednesday Weekday = 3
	Thursday  Weekday = 4
	Friday    Weekday = 5
	Saturday  Weekday = 6
	Sunday    Weekday = 7
)

var weekdayNames = map[Weekday]string{
	Monday:    "monday",
	Tuesday:   "tuesday",
	Wednesday: "wednesday",
	Thursday:  "thursday",
	Friday:    "friday",
	Saturday:  "saturday",
	Sunday:    "sunday",
}

var fromTimeWeekday = map[time.Weekday]Weekday{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// WeekdayOf returns the domain weekday for a calendar date.
func WeekdayOf(t time.Time) Weekday {
	return fromTimeWeekday[t.Weekday()]
}

// ParseWeekday converts a lowercase english weekday name into a Weekday.
func ParseWeekday(s string) (Weekday, error) {
	for wd, name := range weekdayNames {
		if name == s {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// Valid reports whether the value is one of the seven defined weekdays.
func (w Weekday) Valid() bool {
	return w >= Monday && w <= Sunday
}

func (w Weekday) String() string {
	if name, ok := weekdayNames[w]; ok {
		return name
	}
	return fmt.Sprintf("weekday(%d)", int(w))
}
