package clock

import "fmt"

// Range is a contiguous span of one day. It is valid only when both ends are
// set and Start is strictly before End.
type Range struct {
	Start Time `json:"start"`
	End   Time `json:"end"`
}

// NewRange parses both ends and validates ordering. Unparseable ends yield
// ErrInvalidTimeFormat; unset ends or end <= start yield ErrInvalidWindow.
func NewRange(start, end string) (Range, error) {
	s, err := Parse(start)
	if err != nil {
		return Range{}, err
	}
	e, err := Parse(end)
	if err != nil {
		return Range{}, err
	}
	r := Range{Start: s, End: e}
	if !r.Valid() {
		return Range{}, fmt.Errorf("%w: %s-%s", ErrInvalidWindow, s, e)
	}
	return r, nil
}

// RangeOf builds a Range from minute offsets.
func RangeOf(start, end int) Range {
	return Range{Start: FromMinutes(start), End: FromMinutes(end)}
}

// Valid reports whether both ends are set and Start < End.
func (r Range) Valid() bool {
	if r.Start.IsUnset() || r.End.IsUnset() {
		return false
	}
	return r.Start.Minutes() < r.End.Minutes()
}

// Duration returns the length in minutes, or 0 for an invalid range.
func (r Range) Duration() int {
	if !r.Valid() {
		return 0
	}
	return r.End.Minutes() - r.Start.Minutes()
}

// Contains reports whether other lies entirely within r.
func (r Range) Contains(other Range) bool {
	if !r.Valid() || !other.Valid() {
		return false
	}
	return other.Start.Minutes() >= r.Start.Minutes() && other.End.Minutes() <= r.End.Minutes()
}

// Bounds returns inclusive stepping limits spanning r.
func (r Range) Bounds() Bounds {
	return Bounds{Min: r.Start, Max: r.End}
}

func (r Range) String() string {
	return r.Start.String() + "-" + r.End.String()
}

// Intersect folds base with every valid response, taking the latest start
// and the earliest end. Invalid responses are skipped. It reports false when
// base is invalid or the result is empty; touching ranges do not overlap.
// The result does not depend on the order of responses.
func Intersect(base Range, responses ...Range) (Range, bool) {
	if !base.Valid() {
		return Range{}, false
	}
	start, end := base.Start.Minutes(), base.End.Minutes()
	for _, r := range responses {
		if !r.Valid() {
			continue
		}
		start = max(start, r.Start.Minutes())
		end = min(end, r.End.Minutes())
	}
	if start >= end {
		return Range{}, false
	}
	return RangeOf(start, end), true
}
