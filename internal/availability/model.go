// Package availability turns staff weekly schedules and booked appointments into
// bookable slots for a service over a range of civil dates.
package availability

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// TimeRange is one open window inside a weekday, e.g. 09:00-12:00.
type TimeRange struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// AvailabilityEntry lists the open windows for a single weekday.
// Ranges are kept in stored order and never merged, so gaps stay gaps.
type AvailabilityEntry struct {
	Weekday time.Weekday `json:"weekDay"`
	Ranges  []TimeRange  `json:"range"`
}

// WeeklyAvailability is a staff member's recurring schedule, at most one entry per weekday.
type WeeklyAvailability []AvailabilityEntry

// Validate enforces one entry per weekday and well-formed ranges. Stores call it
// when decoding records so the engine never has to pick between duplicates.
func (w WeeklyAvailability) Validate() error {
	seen := make(map[time.Weekday]struct{}, len(w))
	for _, entry := range w {
		if entry.Weekday < time.Sunday || entry.Weekday > time.Saturday {
			return fmt.Errorf("%w: weekday %d out of range", ErrInvalidArgument, int(entry.Weekday))
		}
		if _, dup := seen[entry.Weekday]; dup {
			return fmt.Errorf("%w: duplicate availability for %s", ErrInvalidArgument, entry.Weekday)
		}
		seen[entry.Weekday] = struct{}{}
		for _, r := range entry.Ranges {
			if !r.Start.Valid() || !r.End.Valid() {
				return fmt.Errorf("%w: range %s-%s on %s out of range", ErrInvalidArgument, r.Start, r.End, entry.Weekday)
			}
		}
	}
	return nil
}

// ForWeekday returns the ranges configured for the weekday, if any.
func (w WeeklyAvailability) ForWeekday(day time.Weekday) ([]TimeRange, bool) {
	for _, entry := range w {
		if entry.Weekday == day {
			return entry.Ranges, true
		}
	}
	return nil, false
}

// Appointment is a committed booking that blocks overlapping slots.
type Appointment struct {
	ID          string     `json:"id"`
	StaffID     string     `json:"staffId"`
	Date        civil.Date `json:"date"`
	InitialTime TimeOfDay  `json:"initialTime"`
	FinalTime   TimeOfDay  `json:"finalTime"`
}

// Service is a bookable offering; Duration is in minutes and sets the slot length.
type Service struct {
	ID          string    `json:"id"`
	BusinessID  string    `json:"businessId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Duration    int       `json:"duration"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// StaffMember is a read-only snapshot of a staff record for the duration of one query.
type StaffMember struct {
	ID           string             `json:"id"`
	BusinessID   string             `json:"businessId"`
	Name         string             `json:"name"`
	Availability WeeklyAvailability `json:"availability"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// Business is the tenant that owns staff, services and appointments.
type Business struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	URL         string    `json:"url,omitempty"`
	Address     string    `json:"address,omitempty"`
	City        string    `json:"city,omitempty"`
	State       string    `json:"state,omitempty"`
	Zip         string    `json:"zip,omitempty"`
	Country     string    `json:"country,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Slot is a half-open [Start, End) interval.
type Slot struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

func (s Slot) key() string {
	return s.Start.String() + "-" + s.End.String()
}

// DaySlots holds one staff member's free slots on one date.
type DaySlots struct {
	Date  civil.Date `json:"date"`
	Slots []Slot     `json:"slots"`
}

// MergedSlot is a slot boundary shared by every staff member listed in Staff.
type MergedSlot struct {
	Start TimeOfDay     `json:"start"`
	End   TimeOfDay     `json:"end"`
	Staff []StaffMember `json:"staff"`
}

// DayMergedSlots holds the merged calendar for one date across all staff.
type DayMergedSlots struct {
	Date  civil.Date   `json:"date"`
	Slots []MergedSlot `json:"slots"`
}

func weekdayOf(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}
