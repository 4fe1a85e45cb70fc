package domain

import "time"

// TimeRange is a half-open interval [Start, End). Every overlap decision
// in the scheduler (slot filtering and booking conflicts) goes through
// Overlaps, so back-to-back bookings behave the same everywhere.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

func NewTimeRange(start, end time.Time) TimeRange {
	return TimeRange{Start: start, End: end}
}

// Valid reports whether the range is non-empty and correctly ordered.
// Callers must reject invalid ranges before asking about overlap.
func (r TimeRange) Valid() bool {
	return r.End.After(r.Start)
}

// Overlaps reports whether two ranges share any instant. Ranges that
// merely touch (one ends exactly where the other starts) do not overlap.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start.Before(other.End) && r.End.After(other.Start)
}

func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}
