package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"clinicdesk/internal/models"
)

const DefaultTime = "09:00"

var ErrInvalidDateTime = errors.New("invalid appointment date or time")

// Form is the booking form. EditingID names the appointment being edited;
// nil means the next submit inserts.
type Form struct {
	EditingID         *int64 `json:"editing_id,omitempty"`
	AppointmentNumber string `json:"appointment_number"`
	ClientIDNumber    string `json:"client_id_number" binding:"required"`
	ClientName        string `json:"client_name" binding:"required"`
	Date              string `json:"date" binding:"required"`
	Time              string `json:"time" binding:"required"`
	Reason            string `json:"reason" binding:"required"`
	Cost              *int64 `json:"cost" binding:"omitempty,min=0"`
	AttendingDoctor   string `json:"attending_doctor"`
	Notes             string `json:"notes"`
}

// DefaultForm is the empty form: today in the clinic zone at 09:00.
func DefaultForm(c *Clock) Form {
	return Form{Date: c.Today(), Time: DefaultTime}
}

// SlotForm is the create affordance of a free grid slot.
func SlotForm(date, slot string) Form {
	return Form{Date: date, Time: slot}
}

// FormFor loads a into a form for editing.
func FormFor(a *models.Appointment, loc *time.Location) Form {
	id := a.ID
	f := Form{
		EditingID:       &id,
		ClientIDNumber:  a.ClientIDNumber,
		ClientName:      a.ClientName,
		Date:            DateKey(a.AppointmentAt, loc),
		Time:            ClockKey(a.AppointmentAt, loc),
		Reason:          a.Reason,
		AttendingDoctor: a.AttendingDoctor,
		Notes:           a.Notes,
	}
	if a.AppointmentNumber != nil {
		f.AppointmentNumber = a.DisplayNumber()
	}
	if a.Cost != nil {
		c := *a.Cost
		f.Cost = &c
	}
	return f
}

// Editing reports whether a submit of f updates an existing appointment.
func (f Form) Editing() bool { return f.EditingID != nil }

// time inputs with a step attribute send seconds
var timeLayouts = []string{models.ClockLayout, models.ClockLayout + ":05"}

// At combines Date and Time in loc, truncated to the minute.
func (f Form) At(loc *time.Location) (time.Time, error) {
	raw := strings.TrimSpace(f.Date) + " " + strings.TrimSpace(f.Time)
	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(models.DateLayout+" "+layout, raw, orUTC(loc))
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location()), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateTime, raw)
}

// Appointment converts f into the record to write. The number is left to
// the store.
func (f Form) Appointment(loc *time.Location) (*models.Appointment, error) {
	at, err := f.At(loc)
	if err != nil {
		return nil, err
	}
	a := &models.Appointment{
		ClientName:      strings.TrimSpace(f.ClientName),
		ClientIDNumber:  strings.TrimSpace(f.ClientIDNumber),
		AppointmentAt:   at,
		Reason:          strings.TrimSpace(f.Reason),
		AttendingDoctor: strings.TrimSpace(f.AttendingDoctor),
		Notes:           f.Notes,
	}
	if f.Cost != nil {
		c := *f.Cost
		a.Cost = &c
	}
	if f.EditingID != nil {
		a.ID = *f.EditingID
	}
	return a, nil
}

// Roster is the client list offered by the form's selection control.
type Roster []models.RosterEntry

func (r Roster) Lookup(idNumber string) (string, bool) {
	for _, e := range r {
		if e.IDNumber == idNumber {
			return e.Name, true
		}
	}
	return "", false
}

// Fill selects idNumber on f and copies the client's name when the roster
// knows it. An unknown id leaves the current name alone.
func (r Roster) Fill(f Form, idNumber string) Form {
	f.ClientIDNumber = idNumber
	if name, ok := r.Lookup(idNumber); ok {
		f.ClientName = name
	}
	return f
}
