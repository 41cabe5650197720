package clock

// Direction selects which way Step moves.
type Direction int

const (
	Backward Direction = -1
	Forward  Direction = 1
)

// Bounds limits where Step may land. Min and Max are inclusive, After and
// Before are exclusive. Unset fields impose no limit.
type Bounds struct {
	Min    Time `json:"min"`
	Max    Time `json:"max"`
	After  Time `json:"after"`
	Before Time `json:"before"`
}

// EndBounds returns the bounds for an end time paired with start: the end
// may never move to or before its start.
func EndBounds(start Time, b Bounds) Bounds {
	b.After = start
	return b
}

// StartBounds returns the bounds for a start time paired with end: the
// start may never move to or past its end.
func StartBounds(end Time, b Bounds) Bounds {
	b.Before = end
	return b
}

// Allows reports whether the raw minute offset m satisfies the bounds.
func (b Bounds) Allows(m int) bool {
	if !b.Min.IsUnset() && m < b.Min.Minutes() {
		return false
	}
	if !b.Max.IsUnset() && m > b.Max.Minutes() {
		return false
	}
	if !b.After.IsUnset() && m <= b.After.Minutes() {
		return false
	}
	if !b.Before.IsUnset() && m >= b.Before.Minutes() {
		return false
	}
	return true
}

// Bounded reports whether any limit is set.
func (b Bounds) Bounded() bool {
	return !b.Min.IsUnset() || !b.Max.IsUnset() || !b.After.IsUnset() || !b.Before.IsUnset()
}

// Step moves t one quantum in dir. Times off the quantum grid are first
// rounded to the nearest multiple, so the effective move may differ from
// exactly fifteen minutes. When the bounds reject the result, or t is
// unset, Step returns t unchanged and false. Only unbounded steps wrap
// across midnight; any limit, even a one-sided one, pins the day.
func Step(t Time, dir Direction, b Bounds) (Time, bool) {
	if t.IsUnset() || (dir != Forward && dir != Backward) {
		return t, false
	}
	candidate := roundToQuantum(t.Minutes()) + int(dir)*Quantum
	next := FromMinutes(candidate)
	if b.Bounded() && next.Minutes() != candidate {
		return t, false
	}
	if !b.Allows(next.Minutes()) {
		return t, false
	}
	return next, true
}

// Increment steps t forward one quantum.
func Increment(t Time, b Bounds) (Time, bool) {
	return Step(t, Forward, b)
}

// Decrement steps t backward one quantum.
func Decrement(t Time, b Bounds) (Time, bool) {
	return Step(t, Backward, b)
}

// CanStep reports whether Step would move t.
func CanStep(t Time, dir Direction, b Bounds) bool {
	_, ok := Step(t, dir, b)
	return ok
}

func roundToQuantum(m int) int {
	rem := m % Quantum
	if rem == 0 {
		return m
	}
	if rem*2 < Quantum {
		return m - rem
	}
	return m + (Quantum - rem)
}
