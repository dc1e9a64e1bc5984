// Package countdown implements the target-time countdown and clock display.
package countdown

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Placeholder is the readout shown while nothing is being counted.
const Placeholder = "00:00:00"

var (
	// ErrEmptyTarget is returned when no target time was entered.
	ErrEmptyTarget = errors.New("target time is empty")
	// ErrInvalidTarget is returned when the target is not a valid HH:MM.
	ErrInvalidTarget = errors.New("target time must be HH:MM")
	// ErrSchedule is returned when the computed target is not in the future.
	ErrSchedule = errors.New("target time is not in the future")
)

// FormatDuration renders d as HH:MM:SS, flooring to whole seconds. Negative
// durations render as the placeholder; hours grow without rolling into days.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return Placeholder
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// FormatClock renders the wall-clock time of t as HH:MM:SS.
func FormatClock(t time.Time) string {
	return t.Format("15:04:05")
}

// ParseTimeOfDay parses an HH:MM string.
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, ErrEmptyTarget
	}
	hs, ms, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTarget, s)
	}
	hour, err = strconv.Atoi(hs)
	if err != nil || hour < 0 || hour > 23 || len(hs) > 2 {
		return 0, 0, fmt.Errorf("%w: bad hour in %q", ErrInvalidTarget, s)
	}
	minute, err = strconv.Atoi(ms)
	if err != nil || minute < 0 || minute > 59 || len(ms) != 2 {
		return 0, 0, fmt.Errorf("%w: bad minute in %q", ErrInvalidTarget, s)
	}
	return hour, minute, nil
}

// NextOccurrence returns the first instant strictly after now whose local
// time of day is hour:minute:00.
func NextOccurrence(now time.Time, hour, minute int) time.Time {
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !target.After(now) {
		target = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, now.Location())
	}
	return target
}

// DefaultTarget suggests a target one hour from now, as HH:MM.
func DefaultTarget(now time.Time) string {
	return now.Add(time.Hour).Format("15:04")
}
