package domain

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// CronParser accepts standard five-field expressions, an optional leading
// seconds field, descriptors such as "@hourly", and a CRON_TZ= prefix.
var CronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule parses a cron expression, wrapping failures in ErrInvalidSchedule.
func ParseSchedule(expr string) (cron.Schedule, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidSchedule)
	}
	s, err := CronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, expr, err)
	}
	return s, nil
}

// ValidSchedule reports whether expr is a well-formed cron expression.
func ValidSchedule(expr string) bool {
	_, err := ParseSchedule(expr)
	return err == nil
}

// WithTimezone prefixes expr with CRON_TZ so it fires in the given zone.
// UTC and empty zones leave the expression untouched.
func WithTimezone(expr, tz string) string {
	if tz == "" || tz == "UTC" || strings.HasPrefix(expr, "CRON_TZ=") || strings.HasPrefix(expr, "TZ=") {
		return expr
	}
	return "CRON_TZ=" + tz + " " + expr
}
