package scheduler

import (
	"errors"
	"time"

	"clinicdesk/internal/models"
)

const (
	OpeningHour = 8
	ClosingHour = 18
	SlotLength  = time.Hour
)

var ErrInvalidTimeRange = errors.New("invalid time range")

// TimeRange is the half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// SplitToTimeSlots cuts tr into consecutive slots of length d. A trailing
// remainder shorter than d is dropped.
func SplitToTimeSlots(tr TimeRange, d time.Duration) ([]TimeRange, error) {
	if d <= 0 || tr.Start.IsZero() || tr.End.IsZero() {
		return nil, ErrInvalidTimeRange
	}
	var slots []TimeRange
	for cur := tr.Start; !cur.Add(d).After(tr.End); cur = cur.Add(d) {
		slots = append(slots, TimeRange{Start: cur, End: cur.Add(d)})
	}
	return slots, nil
}

// TimeSlots returns the bookable slot labels, 08:00 through 17:00. The list
// does not depend on any data.
func TimeSlots() []string {
	day := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := TimeRange{
		Start: day.Add(OpeningHour * time.Hour),
		End:   day.Add(ClosingHour * time.Hour),
	}
	ranges, _ := SplitToTimeSlots(tr, SlotLength)
	labels := make([]string, 0, len(ranges))
	for _, r := range ranges {
		labels = append(labels, r.Start.Format(models.ClockLayout))
	}
	return labels
}

// DateKey is the clinic-zone calendar date of t.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(orUTC(loc)).Format(models.DateLayout)
}

// ClockKey is the clinic-zone HH:MM of t.
func ClockKey(t time.Time, loc *time.Location) string {
	return t.In(orUTC(loc)).Format(models.ClockLayout)
}

// ForDate keeps the appointments whose clinic-zone date equals date,
// preserving their order.
func ForDate(list []*models.Appointment, date string, loc *time.Location) []*models.Appointment {
	out := []*models.Appointment{}
	for _, a := range list {
		if DateKey(a.AppointmentAt, loc) == date {
			out = append(out, a)
		}
	}
	return out
}

// SlotFor returns the first appointment in day whose HH:MM equals slot, or
// nil when the slot is free. Off-hour times such as 09:30 never match.
func SlotFor(day []*models.Appointment, slot string, loc *time.Location) *models.Appointment {
	for _, a := range day {
		if ClockKey(a.AppointmentAt, loc) == slot {
			return a
		}
	}
	return nil
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
