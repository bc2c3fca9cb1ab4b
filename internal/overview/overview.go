// Package overview computes the dashboard aggregates from freshly loaded
// client and appointment lists. Nothing here is cached between requests.
package overview

import (
	"fmt"
	"sort"
	"time"

	"clinicdesk/internal/models"
)

const (
	UpcomingLimit = 5
	minScale      = 5
)

type Urgency string

const (
	UrgencyToday    Urgency = "today"
	UrgencyTomorrow Urgency = "tomorrow"
	UrgencySoon     Urgency = "soon"
	UrgencyLater    Urgency = "later"
)

var weekdayLabels = [5]string{"Mon", "Tue", "Wed", "Thu", "Fri"}

type Bucket struct {
	Day           string  `json:"day"`
	Date          string  `json:"date"`
	Count         int     `json:"count"`
	HeightPercent float64 `json:"height_percent"`
}

type Histogram struct {
	WeekStart string   `json:"week_start"`
	Buckets   []Bucket `json:"buckets"`
	Max       int      `json:"max"`
	Total     int      `json:"total"`
}

type Upcoming struct {
	Appointment *models.Appointment `json:"appointment"`
	DaysUntil   int                 `json:"days_until"`
	Urgency     Urgency             `json:"urgency"`
	Label       string              `json:"label"`
}

type Stats struct {
	TotalAppointments int `json:"total_appointments"`
	RegisteredClients int `json:"registered_clients"`
	ThisWeek          int `json:"this_week"`
	Upcoming          int `json:"upcoming"`
}

type Overview struct {
	Stats    Stats      `json:"stats"`
	Weekly   Histogram  `json:"weekly"`
	Upcoming []Upcoming `json:"upcoming"`
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WeekStart returns midnight of the Monday of now's week in loc. Sunday
// belongs to the week that started six days earlier.
func WeekStart(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	day := dateOnly(now.In(loc))
	offset := int(day.Weekday()) - int(time.Monday)
	if day.Weekday() == time.Sunday {
		offset = 6
	}
	return day.AddDate(0, 0, -offset)
}

// WeeklyHistogram counts this week's Monday to Friday appointments.
// Weekend appointments inside the window are left out of every bucket.
func WeeklyHistogram(list []*models.Appointment, now time.Time, loc *time.Location) Histogram {
	monday := WeekStart(now, loc)
	end := monday.AddDate(0, 0, 7)

	h := Histogram{WeekStart: monday.Format(models.DateLayout), Buckets: make([]Bucket, len(weekdayLabels))}
	for i, label := range weekdayLabels {
		h.Buckets[i] = Bucket{Day: label, Date: monday.AddDate(0, 0, i).Format(models.DateLayout)}
	}
	for _, a := range list {
		at := a.AppointmentAt.In(monday.Location())
		if at.Before(monday) || !at.Before(end) {
			continue
		}
		wd := at.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			continue
		}
		h.Buckets[int(wd)-int(time.Monday)].Count++
	}

	for _, b := range h.Buckets {
		h.Total += b.Count
		if b.Count > h.Max {
			h.Max = b.Count
		}
	}
	scale := h.Max
	if scale == 0 {
		scale = minScale
	}
	for i := range h.Buckets {
		h.Buckets[i].HeightPercent = float64(h.Buckets[i].Count) / float64(scale) * 100
	}
	return h
}

// DaysUntil counts clinic-zone calendar days from now to t.
func DaysUntil(t, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	from := dateOnly(now.In(loc))
	to := dateOnly(t.In(loc))
	// calendar dates in UTC so DST shifts do not skew the division
	fromUTC := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toUTC := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toUTC.Sub(fromUTC).Hours() / 24)
}

func Classify(days int) Urgency {
	switch {
	case days <= 0:
		return UrgencyToday
	case days == 1:
		return UrgencyTomorrow
	case days <= 3:
		return UrgencySoon
	default:
		return UrgencyLater
	}
}

func Label(days int) string {
	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

// UpcomingAppointments returns at most limit appointments at or after now,
// earliest first.
func UpcomingAppointments(list []*models.Appointment, now time.Time, loc *time.Location, limit int) []Upcoming {
	future := make([]*models.Appointment, 0, len(list))
	for _, a := range list {
		if !a.AppointmentAt.Before(now) {
			future = append(future, a)
		}
	}
	sort.SliceStable(future, func(i, j int) bool {
		return future[i].AppointmentAt.Before(future[j].AppointmentAt)
	})
	if limit > 0 && len(future) > limit {
		future = future[:limit]
	}

	out := make([]Upcoming, 0, len(future))
	for _, a := range future {
		d := DaysUntil(a.AppointmentAt, now, loc)
		out = append(out, Upcoming{Appointment: a, DaysUntil: d, Urgency: Classify(d), Label: Label(d)})
	}
	return out
}

// Summarize recomputes every aggregate from the two lists.
func Summarize(appointments []*models.Appointment, clientCount int, now time.Time, loc *time.Location) Overview {
	weekly := WeeklyHistogram(appointments, now, loc)
	upcoming := UpcomingAppointments(appointments, now, loc, UpcomingLimit)
	return Overview{
		Stats: Stats{
			TotalAppointments: len(appointments),
			RegisteredClients: clientCount,
			ThisWeek:          weekly.Total,
			Upcoming:          len(upcoming),
		},
		Weekly:   weekly,
		Upcoming: upcoming,
	}
}
