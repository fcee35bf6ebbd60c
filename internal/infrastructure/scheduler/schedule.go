package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DailySchedule is a fixed time of day, parsed from a "m h * * *" cron expression
type DailySchedule struct {
	Hour   int
	Minute int
}

// ParseDailySchedule parses a five-field cron expression that fires once a day.
// Only numeric minute and hour fields are accepted; the remaining fields must be "*".
func ParseDailySchedule(expr string) (DailySchedule, error) {
	parts := strings.Fields(expr)
	if len(parts) != 5 {
		return DailySchedule{}, fmt.Errorf("%w: %q must have 5 fields", ErrInvalidSchedule, expr)
	}
	for _, p := range parts[2:] {
		if p != "*" {
			return DailySchedule{}, fmt.Errorf("%w: %q must run every day", ErrInvalidSchedule, expr)
		}
	}

	minute, err := strconv.Atoi(parts[0])
	if err != nil || minute < 0 || minute > 59 {
		return DailySchedule{}, fmt.Errorf("%w: minute must be 0-59, got %q", ErrInvalidSchedule, parts[0])
	}
	hour, err := strconv.Atoi(parts[1])
	if err != nil || hour < 0 || hour > 23 {
		return DailySchedule{}, fmt.Errorf("%w: hour must be 0-23, got %q", ErrInvalidSchedule, parts[1])
	}

	return DailySchedule{Hour: hour, Minute: minute}, nil
}

// Due reports whether t falls in the scheduled minute
func (s DailySchedule) Due(t time.Time) bool {
	return t.Hour() == s.Hour && t.Minute() == s.Minute
}

// Next returns the first scheduled time strictly after t
func (s DailySchedule) Next(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), s.Hour, s.Minute, 0, 0, t.Location())
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// String returns the schedule as a cron expression
func (s DailySchedule) String() string {
	return fmt.Sprintf("%d %d * * *", s.Minute, s.Hour)
}
