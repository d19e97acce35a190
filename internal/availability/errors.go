package availability

import "errors"

var (
	// ErrNotFound is returned when a staff member or service does not exist for the business.
	ErrNotFound = errors.New("availability: not found")

	// ErrInvalidArgument is returned for non-positive durations and malformed
	// dates, times of day, or weekly availability.
	ErrInvalidArgument = errors.New("availability: invalid argument")
)
