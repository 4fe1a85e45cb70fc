package domain

import (
	"errors"
	"time"
)

// BusinessHours describes the fixed daily slot grid: hourly positions
// from OpeningHour up to but not including ClosingHour, each slot
// SlotDuration long.
type BusinessHours struct {
	OpeningHour  int
	ClosingHour  int
	SlotDuration time.Duration
}

func DefaultBusinessHours() BusinessHours {
	return BusinessHours{
		OpeningHour:  9,
		ClosingHour:  17,
		SlotDuration: time.Hour,
	}
}

func (h BusinessHours) Validate() error {
	if h.OpeningHour < 0 || h.ClosingHour > 24 {
		return errors.New("business hours must fall within a single day")
	}
	if h.OpeningHour >= h.ClosingHour {
		return errors.New("opening hour must be before closing hour")
	}
	if h.SlotDuration <= 0 {
		return errors.New("slot duration must be positive")
	}
	return nil
}

// TimeSlot is one candidate interval of the grid. Slots are derived per
// request and never persisted.
type TimeSlot struct {
	Start time.Time
	End   time.Time
}

// Label renders the slot's wall-clock start, e.g. "09:00".
func (s TimeSlot) Label() string {
	return s.Start.Format("15:04")
}

func (s TimeSlot) Range() TimeRange {
	return TimeRange{Start: s.Start, End: s.End}
}

// DayBounds returns the range covering the whole calendar day of t in
// loc, from local midnight up to (not including) the next midnight.
func DayBounds(t time.Time, loc *time.Location) TimeRange {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return TimeRange{Start: start, End: start.AddDate(0, 0, 1)}
}

// DayKey renders the calendar date of t in loc as an ISO date string.
// Load grouping and cache keys both use this so a day means the same
// thing on every code path.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// AvailableSlots produces the grid of free slots for the calendar day of
// date in loc, ascending by start. A slot is free when it overlaps no
// blocking appointment in existing. With no appointments the full grid
// comes back.
func AvailableSlots(date time.Time, loc *time.Location, hours BusinessHours, existing []Appointment) []TimeSlot {
	local := date.In(loc)
	year, month, day := local.Year(), local.Month(), local.Day()

	slots := make([]TimeSlot, 0, hours.ClosingHour-hours.OpeningHour)
	for h := hours.OpeningHour; h < hours.ClosingHour; h++ {
		start := time.Date(year, month, day, h, 0, 0, 0, loc)
		slot := TimeSlot{Start: start, End: start.Add(hours.SlotDuration)}

		booked := false
		for i := range existing {
			if existing[i].Blocks() && slot.Range().Overlaps(existing[i].Range()) {
				booked = true
				break
			}
		}
		if !booked {
			slots = append(slots, slot)
		}
	}
	return slots
}

// SlotLabels maps slots to their HH:MM labels, preserving order.
func SlotLabels(slots []TimeSlot) []string {
	labels := make([]string, 0, len(slots))
	for _, s := range slots {
		labels = append(labels, s.Label())
	}
	return labels
}
