package availability

import (
	"fmt"

	"cloud.google.com/go/civil"
)

// GenerateSlots splits [start, end) into back-to-back slots of durationMinutes.
// A trailing remainder shorter than the duration is dropped, not truncated.
func GenerateSlots(start, end TimeOfDay, durationMinutes int) ([]Slot, error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %d", ErrInvalidArgument, durationMinutes)
	}
	if end <= start {
		return []Slot{}, nil
	}

	slots := make([]Slot, 0, int(end-start)/durationMinutes)
	for cursor := start; cursor.Add(durationMinutes) <= end; cursor = cursor.Add(durationMinutes) {
		slots = append(slots, Slot{Start: cursor, End: cursor.Add(durationMinutes)})
	}
	return slots, nil
}

// IsBlocked reports whether any appointment on the same civil date overlaps the slot.
// Both intervals are half-open: [slot.Start, slot.End) against [InitialTime, FinalTime).
func IsBlocked(date civil.Date, slot Slot, appointments []Appointment) bool {
	for _, appt := range appointments {
		if appt.Date != date {
			continue
		}
		if slot.Start < appt.FinalTime && slot.End > appt.InitialTime {
			return true
		}
	}
	return false
}

// ResolveDay computes the free slots for one staff member on one date. The
// appointments are taken as given; only those dated on date are considered.
func ResolveDay(staff StaffMember, date civil.Date, durationMinutes int, appointments []Appointment) (DaySlots, error) {
	day := DaySlots{Date: date, Slots: []Slot{}}

	ranges, ok := staff.Availability.ForWeekday(weekdayOf(date))
	if !ok {
		return day, nil
	}

	for _, r := range ranges {
		candidates, err := GenerateSlots(r.Start, r.End, durationMinutes)
		if err != nil {
			return DaySlots{}, err
		}
		for _, slot := range candidates {
			if IsBlocked(date, slot, appointments) {
				continue
			}
			day.Slots = append(day.Slots, slot)
		}
	}
	return day, nil
}
