package overview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicdesk/internal/models"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02 15:04", value, time.UTC)
	require.NoError(t, err)
	return ts
}

func appointmentsAt(t *testing.T, values ...string) []*models.Appointment {
	out := make([]*models.Appointment, 0, len(values))
	for i, v := range values {
		out = append(out, &models.Appointment{ID: int64(i + 1), AppointmentAt: mustTime(t, v)})
	}
	return out
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		now  string
		want string
	}{
		{"2024-06-05 12:00", "2024-06-03"},
		{"2024-06-03 00:00", "2024-06-03"},
		{"2024-06-08 10:00", "2024-06-03"},
		{"2024-06-09 23:59", "2024-06-03"},
	}
	for _, tt := range tests {
		t.Run(tt.now, func(t *testing.T) {
			got := WeekStart(mustTime(t, tt.now), time.UTC)
			assert.Equal(t, tt.want, got.Format(models.DateLayout))
		})
	}
}

func TestWeeklyHistogramExcludesWeekend(t *testing.T) {
	list := appointmentsAt(t,
		"2024-06-03 09:00",
		"2024-06-05 10:00",
		"2024-06-05 15:00",
		"2024-06-08 10:00", // Saturday
		"2024-06-10 09:00", // next week
	)
	h := WeeklyHistogram(list, mustTime(t, "2024-06-05 12:00"), time.UTC)

	require.Len(t, h.Buckets, 5)
	assert.Equal(t, 1, h.Buckets[0].Count)
	assert.Equal(t, 2, h.Buckets[2].Count)
	assert.Equal(t, 3, h.Total)
	assert.Equal(t, 2, h.Max)
	assert.InDelta(t, 100.0, h.Buckets[2].HeightPercent, 0.001)
	assert.InDelta(t, 50.0, h.Buckets[0].HeightPercent, 0.001)
	assert.Equal(t, "Wed", h.Buckets[2].Day)
	assert.Equal(t, "2024-06-05", h.Buckets[2].Date)
}

func TestWeeklyHistogramEmptyUsesFloor(t *testing.T) {
	h := WeeklyHistogram(nil, mustTime(t, "2024-06-05 12:00"), time.UTC)
	assert.Equal(t, 0, h.Max)
	for _, b := range h.Buckets {
		assert.Zero(t, b.HeightPercent)
	}
}

func TestUpcomingAppointments(t *testing.T) {
	now := mustTime(t, "2024-06-05 12:00")
	list := appointmentsAt(t,
		"2024-06-10 09:00",
		"2024-06-05 10:00", // past
		"2024-06-05 15:00",
		"2024-06-06 09:00",
		"2024-06-07 11:00",
		"2024-06-12 08:00",
		"2024-06-20 08:00",
	)

	up := UpcomingAppointments(list, now, time.UTC, UpcomingLimit)
	require.Len(t, up, 5)

	assert.Equal(t, "2024-06-05 15:00", up[0].Appointment.AppointmentAt.Format("2006-01-02 15:04"))
	assert.Equal(t, 0, up[0].DaysUntil)
	assert.Equal(t, UrgencyToday, up[0].Urgency)
	assert.Equal(t, "today", up[0].Label)

	assert.Equal(t, 1, up[1].DaysUntil)
	assert.Equal(t, UrgencyTomorrow, up[1].Urgency)
	assert.Equal(t, "tomorrow", up[1].Label)

	assert.Equal(t, UrgencySoon, up[2].Urgency)
	assert.Equal(t, UrgencyLater, up[3].Urgency)
	assert.Equal(t, "in 5 days", up[3].Label)
	assert.Equal(t, "2024-06-12", up[4].Appointment.AppointmentAt.Format(models.DateLayout))
}

func TestSummarize(t *testing.T) {
	list := appointmentsAt(t, "2024-06-05 10:00", "2024-06-05 15:00", "2024-06-06 09:00", "2024-06-08 10:00")
	o := Summarize(list, 3, mustTime(t, "2024-06-05 12:00"), time.UTC)

	assert.Equal(t, Stats{TotalAppointments: 4, RegisteredClients: 3, ThisWeek: 3, Upcoming: 3}, o.Stats)
}

// Days are counted between clinic calendar dates, not as rounded-up
// 24-hour spans: tomorrow afternoon is "tomorrow" even when more than a
// day away.
func TestDaysUntilCountsCalendarDays(t *testing.T) {
	now := mustTime(t, "2024-06-05 12:00")
	tests := []struct {
		at      string
		days    int
		urgency Urgency
		label   string
	}{
		{"2024-06-05 15:00", 0, UrgencyToday, "today"},
		{"2024-06-06 09:00", 1, UrgencyTomorrow, "tomorrow"},
		{"2024-06-06 15:00", 1, UrgencyTomorrow, "tomorrow"},
		{"2024-06-07 23:59", 2, UrgencySoon, "in 2 days"},
		{"2024-06-08 08:00", 3, UrgencySoon, "in 3 days"},
		{"2024-06-09 08:00", 4, UrgencyLater, "in 4 days"},
	}
	for _, tt := range tests {
		days := DaysUntil(mustTime(t, tt.at), now, time.UTC)
		assert.Equal(t, tt.days, days, tt.at)
		assert.Equal(t, tt.urgency, Classify(days), tt.at)
		assert.Equal(t, tt.label, Label(days), tt.at)
	}
}

func TestDaysUntilUsesClinicZone(t *testing.T) {
	zone := time.FixedZone("clinic", -5*60*60)
	// 23:00 on the 5th in the clinic is already the 6th in UTC
	now := time.Date(2024, 6, 5, 23, 0, 0, 0, zone)
	at := time.Date(2024, 6, 6, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysUntil(at, now, zone))
	assert.Equal(t, 0, DaysUntil(at, now, time.UTC))
}
