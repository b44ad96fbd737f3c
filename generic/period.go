package generic

// =============================================================================
// PERIOD - An inclusive range of calendar days
// =============================================================================

// Period is the closed interval [Start, End].
//
// Examples:
//   - A leave from Jan 1 to Jan 10: 10 days
//   - A single-day leave: Start == End, 1 day
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Valid reports whether both ends are set and End is not before Start.
func (p Period) Valid() bool {
	return !p.Start.IsZero() && !p.End.IsZero() && !p.End.Before(p.Start)
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Length is the number of calendar days in the period, both ends counted.
func (p Period) Length() int {
	return DaysBetween(p.Start, p.End) + 1
}

// Overlaps reports whether the two periods share at least one day.
func (p Period) Overlaps(other Period) bool {
	return p.Start.BeforeOrEqual(other.End) && other.Start.BeforeOrEqual(p.End)
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
