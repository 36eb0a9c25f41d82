package domain

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// DayName returns the English weekday for a YYYY-MM-DD date. Unparseable
// input is returned unchanged so labels degrade instead of failing.
func DayName(date string) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return t.Weekday().String()
}

// FormattedDate renders a YYYY-MM-DD date as "Jan 2, 2006".
func FormattedDate(date string) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Jan 2, 2006")
}

// RelativeDayLabel names a forecast index relative to today.
func RelativeDayLabel(index int) string {
	switch index {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	default:
		return fmt.Sprintf("Day +%d", index)
	}
}
