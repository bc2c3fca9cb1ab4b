package models

import (
	"fmt"
	"time"
)

type Appointment struct {
	ID                int64     `json:"id"`
	AppointmentNumber *int64    `json:"appointment_number,omitempty"`
	ClientName        string    `json:"client_name"`
	ClientIDNumber    string    `json:"client_id_number"`
	AppointmentAt     time.Time `json:"appointment_at"`
	Reason            string    `json:"reason"`
	Cost              *int64    `json:"cost,omitempty"`
	AttendingDoctor   string    `json:"attending_doctor,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// DisplayNumber returns the sequential number padded to four digits, or "N/A"
// while the store has not assigned one.
func (a *Appointment) DisplayNumber() string {
	if a == nil || a.AppointmentNumber == nil {
		return "N/A"
	}
	return fmt.Sprintf("%04d", *a.AppointmentNumber)
}

// CostValue returns the cost, treating an absent cost as zero.
func (a *Appointment) CostValue() int64 {
	if a == nil || a.Cost == nil {
		return 0
	}
	return *a.Cost
}
