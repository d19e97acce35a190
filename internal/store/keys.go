// Package store holds the record sources behind the availability engine:
// a DynamoDB single table, Postgres, an in-memory fixture and a Redis cache.
package store

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Single-table layout. Every record type for a business shares one partition
// per type so listing is a single Query.
const (
	businessPartition = "business"
	employeePrefix    = "employee#"
	servicePrefix     = "service#"
)

func staffPartition(businessID string) string {
	return fmt.Sprintf("business#%s#type#employee", businessID)
}

func servicePartition(businessID string) string {
	return fmt.Sprintf("business#%s#type#service", businessID)
}

func appointmentPartition(businessID string) string {
	return fmt.Sprintf("business#%s#type#appointment", businessID)
}

func staffSortKey(staffID string) string {
	return employeePrefix + staffID
}

func serviceSortKey(serviceID string) string {
	return servicePrefix + serviceID
}

// appointmentDayPrefix is the begins_with prefix for one staff member's day.
func appointmentDayPrefix(staffID string, date civil.Date) string {
	return fmt.Sprintf("employee#%s#date#%s#", staffID, date)
}

func appointmentSortKey(staffID string, date civil.Date, appointmentID string) string {
	return appointmentDayPrefix(staffID, date) + appointmentID
}

// appointmentRangeBounds returns BETWEEN bounds covering every appointment of
// staffID dated from..to inclusive. '~' sorts after '#' and every id character.
func appointmentRangeBounds(staffID string, from, to civil.Date) (string, string) {
	lo := fmt.Sprintf("employee#%s#date#%s", staffID, from)
	hi := fmt.Sprintf("employee#%s#date#%s~", staffID, to)
	return lo, hi
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}
