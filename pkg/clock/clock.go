// Package clock converts between twelve-hour display strings ("2:30 pm") and
// minute offsets, steps times in fixed quanta under bounds, and intersects
// availability ranges.
//
// Every function in this package is pure and safe for concurrent use.
package clock

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// MinutesPerDay is the exclusive upper limit of a minute offset.
	MinutesPerDay = 24 * 60
	// Quantum is the step size used by increment/decrement controls.
	Quantum = 15
	// UnsetDisplay is the placeholder rendered for a time that has not been chosen.
	UnsetDisplay = "--"
)

// Period is the half of the day a Time falls in.
type Period string

const (
	AM Period = "am"
	PM Period = "pm"
)

var (
	// ErrInvalidTimeFormat reports input that does not match "h:mm am|pm".
	ErrInvalidTimeFormat = errors.New("invalid time format")
	// ErrInvalidWindow reports a range whose end is not strictly after its start.
	ErrInvalidWindow = errors.New("end time must be after start time")
	// ErrOutOfRange reports a step blocked by its bounds.
	ErrOutOfRange = errors.New("time out of range")
	// ErrNoOverlap reports an empty intersection.
	ErrNoOverlap = errors.New("no overlapping time")
)

// ParseError carries the rejected input.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %q", ErrInvalidTimeFormat.Error(), e.Input)
}

// Unwrap lets errors.Is match ErrInvalidTimeFormat.
func (e *ParseError) Unwrap() error {
	return ErrInvalidTimeFormat
}

// Time is a wall-clock time of day in twelve-hour form. The zero value is
// the unset sentinel.
type Time struct {
	Hour   int
	Minute int
	Period Period
}

// Unset is the distinguished "no time chosen" value.
var Unset = Time{}

var displayPattern = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s?(am|pm)$`)

// New builds a Time, validating hour 1..12 and minute 0..59.
func New(hour, minute int, period Period) (Time, error) {
	period = Period(strings.ToLower(string(period)))
	if hour < 1 || hour > 12 || minute < 0 || minute > 59 || (period != AM && period != PM) {
		return Unset, &ParseError{Input: fmt.Sprintf("%d:%02d %s", hour, minute, period)}
	}
	return Time{Hour: hour, Minute: minute, Period: period}, nil
}

// Parse reads a display string. Empty input and "--" yield Unset with a nil
// error; anything else that is not "h:mm am|pm" yields a *ParseError.
func Parse(display string) (Time, error) {
	trimmed := strings.TrimSpace(display)
	if trimmed == "" || trimmed == UnsetDisplay {
		return Unset, nil
	}
	match := displayPattern.FindStringSubmatch(trimmed)
	if match == nil {
		return Unset, &ParseError{Input: display}
	}
	hour, _ := strconv.Atoi(match[1])
	minute, _ := strconv.Atoi(match[2])
	t, err := New(hour, minute, Period(match[3]))
	if err != nil {
		return Unset, &ParseError{Input: display}
	}
	return t, nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(display string) Time {
	t, err := Parse(display)
	if err != nil {
		panic(err)
	}
	return t
}

// IsUnset reports whether t is the unset sentinel.
func (t Time) IsUnset() bool {
	return t == Unset
}

// Minutes returns the offset since midnight in [0, 1440). Unset maps to 0.
func (t Time) Minutes() int {
	return ToMinutes(t)
}

// ToMinutes converts t to minutes since midnight: 12am is 0, 12pm is 720.
// Unset maps to 0; callers that care must check IsUnset first.
func ToMinutes(t Time) int {
	if t.IsUnset() {
		return 0
	}
	hour := t.Hour % 12
	if t.Period == PM {
		hour += 12
	}
	return hour*60 + t.Minute
}

// FromMinutes converts a minute offset to a Time, wrapping modulo one day.
func FromMinutes(m int) Time {
	m = normalize(m)
	hour := m / 60
	period := AM
	if hour >= 12 {
		period = PM
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return Time{Hour: hour, Minute: m % 60, Period: period}
}

// Format renders a minute offset as "h:mm am|pm".
func Format(minutes int) string {
	t := FromMinutes(minutes)
	return fmt.Sprintf("%d:%02d %s", t.Hour, t.Minute, t.Period)
}

// String renders t as a display string, or "--" when unset.
func (t Time) String() string {
	if t.IsUnset() {
		return UnsetDisplay
	}
	return Format(t.Minutes())
}

// Before reports whether t is strictly earlier in the day than u.
func (t Time) Before(u Time) bool {
	return t.Minutes() < u.Minutes()
}

// After reports whether t is strictly later in the day than u.
func (t Time) After(u Time) bool {
	return t.Minutes() > u.Minutes()
}

// MarshalText encodes t as its display string.
func (t Time) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a display string.
func (t *Time) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func normalize(m int) int {
	m %= MinutesPerDay
	if m < 0 {
		m += MinutesPerDay
	}
	return m
}
