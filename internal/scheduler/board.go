package scheduler

import (
	"fmt"
	"strings"
	"time"

	"clinicdesk/internal/models"
)

type ViewMode string

const (
	ViewGrid  ViewMode = "grid"
	ViewTable ViewMode = "table"
)

const (
	SlotOccupied  = "occupied"
	SlotAvailable = "available"

	EmptyTableMessage = "no appointments registered"
	tableLayout       = "02/01/2006, 15:04"
	notAvailable      = "N/A"
)

// ParseViewMode defaults to the grid.
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ViewGrid:
		return ViewGrid, nil
	case ViewTable:
		return ViewTable, nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

type GridEntry struct {
	ID         int64  `json:"id"`
	Number     string `json:"number"`
	ClientName string `json:"client_name"`
	Reason     string `json:"reason"`
	Doctor     string `json:"doctor"`
	Cost       int64  `json:"cost"`
}

// SlotRow is one hour of the day grid. Occupied rows carry the appointment,
// available rows a prefilled form for that slot.
type SlotRow struct {
	Time        string     `json:"time"`
	Status      string     `json:"status"`
	Appointment *GridEntry `json:"appointment,omitempty"`
	Form        *Form      `json:"form,omitempty"`
}

type TableRow struct {
	ID             int64  `json:"id"`
	Number         string `json:"number"`
	DateTime       string `json:"date_time"`
	ClientName     string `json:"client_name"`
	ClientIDNumber string `json:"client_id_number"`
	Reason         string `json:"reason"`
	Doctor         string `json:"doctor"`
	Cost           int64  `json:"cost"`
}

type Board struct {
	View    ViewMode   `json:"view"`
	Date    string     `json:"date,omitempty"`
	Count   int        `json:"count"`
	Summary string     `json:"summary"`
	Slots   []SlotRow  `json:"slots,omitempty"`
	Rows    []TableRow `json:"rows,omitempty"`
	Empty   string     `json:"empty,omitempty"`
}

// BuildGrid lays the day's appointments over the fixed slots.
func BuildGrid(list []*models.Appointment, date string, loc *time.Location) Board {
	day := ForDate(list, date, loc)
	b := Board{
		View:    ViewGrid,
		Date:    date,
		Count:   len(day),
		Summary: scheduledSummary(len(day)),
	}
	for _, slot := range TimeSlots() {
		row := SlotRow{Time: slot, Status: SlotAvailable}
		if a := SlotFor(day, slot, loc); a != nil {
			row.Status = SlotOccupied
			row.Appointment = &GridEntry{
				ID:         a.ID,
				Number:     a.DisplayNumber(),
				ClientName: a.ClientName,
				Reason:     a.Reason,
				Doctor:     orNA(a.AttendingDoctor),
				Cost:       a.CostValue(),
			}
		} else {
			f := SlotForm(date, slot)
			row.Form = &f
		}
		b.Slots = append(b.Slots, row)
	}
	return b
}

// BuildTable lists every appointment in load order.
func BuildTable(list []*models.Appointment, loc *time.Location) Board {
	b := Board{
		View:    ViewTable,
		Count:   len(list),
		Summary: fmt.Sprintf("%d appointments registered", len(list)),
		Rows:    make([]TableRow, 0, len(list)),
	}
	if len(list) == 0 {
		b.Empty = EmptyTableMessage
		return b
	}
	for _, a := range list {
		b.Rows = append(b.Rows, TableRow{
			ID:             a.ID,
			Number:         a.DisplayNumber(),
			DateTime:       a.AppointmentAt.In(orUTC(loc)).Format(tableLayout),
			ClientName:     a.ClientName,
			ClientIDNumber: a.ClientIDNumber,
			Reason:         a.Reason,
			Doctor:         orNA(a.AttendingDoctor),
			Cost:           a.CostValue(),
		})
	}
	return b
}

func scheduledSummary(n int) string {
	if n == 1 {
		return "1 appointment scheduled"
	}
	return fmt.Sprintf("%d appointments scheduled", n)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}
