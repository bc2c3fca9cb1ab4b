// Package scheduler holds the appointment scheduler's pure logic: the fixed
// slot grid, day filtering, slot occupancy, the booking form and the two
// board renderings. Every calendar comparison happens in the clinic zone.
package scheduler

import (
	"time"

	"clinicdesk/internal/models"
)

// Clock reports the current instant in the clinic zone.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

func NewClock(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc, now: time.Now}
}

// FixedClock always reports now. Used by tests and the day-sheet preview.
func FixedClock(now time.Time, loc *time.Location) *Clock {
	c := NewClock(loc)
	c.now = func() time.Time { return now }
	return c
}

func (c *Clock) Location() *time.Location { return c.loc }

func (c *Clock) Now() time.Time { return c.now().In(c.loc) }

// Today is the clinic-zone calendar date as YYYY-MM-DD.
func (c *Clock) Today() string { return c.Now().Format(models.DateLayout) }
