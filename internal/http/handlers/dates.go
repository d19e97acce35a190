package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/wolfman30/barber-availability/internal/availability"
)

// parseDateParam accepts YYYY-MM-DD or an RFC 3339 timestamp, whose clock part is
// dropped. An empty value means today in loc.
func parseDateParam(value string, now time.Time, loc *time.Location) (civil.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return civil.DateOf(now.In(loc)), nil
	}
	if d, err := civil.ParseDate(value); err == nil {
		return d, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return civil.DateOf(t), nil
	}
	return civil.Date{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD or RFC 3339", availability.ErrInvalidArgument, value)
}

// parseDateRange reads initialDate and finalDate from the query string. An
// inverted range is allowed and yields no days; a forward range may span at
// most maxDays dates.
func parseDateRange(r *http.Request, now time.Time, loc *time.Location, maxDays int) (civil.Date, civil.Date, error) {
	q := r.URL.Query()
	initial, err := parseDateParam(q.Get("initialDate"), now, loc)
	if err != nil {
		return civil.Date{}, civil.Date{}, err
	}
	final, err := parseDateParam(q.Get("finalDate"), now, loc)
	if err != nil {
		return civil.Date{}, civil.Date{}, err
	}
	if maxDays > 0 && !initial.After(final) && final.DaysSince(initial)+1 > maxDays {
		return civil.Date{}, civil.Date{}, fmt.Errorf("%w: range %s..%s exceeds %d days", availability.ErrInvalidArgument, initial, final, maxDays)
	}
	return initial, final, nil
}
