package models

import "time"

const (
	DateLayout      = "2006-01-02"
	ClockLayout     = "15:04"
	WallClockLayout = "2006-01-02T15:04:05"
)

// Anchor keeps the wall clock of t and attaches loc. Appointment times are
// stored without a zone, so the driver hands them back in UTC.
func Anchor(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return time.Date(y, mo, d, h, mi, s, t.Nanosecond(), loc)
}
