package services

import (
	"errors"

	"clinicdesk/internal/repositories"
	"clinicdesk/internal/scheduler"
)

var (
	ErrAppointmentConflict  = errors.New("appointment already exists at this time")
	ErrClientNotRegistered  = errors.New("client does not exist, register the client first")
	ErrDuplicateClient      = errors.New("client already exists")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrNotFound             = errors.New("not found")
	ErrNegativeCost         = errors.New("cost must not be negative")
	ErrInvalidDate          = errors.New("invalid date, expected YYYY-MM-DD")

	ErrLoadAppointments  = errors.New("failed to load appointments")
	ErrLoadClients       = errors.New("failed to load clients")
	ErrDeleteAppointment = errors.New("failed to delete appointment")
	ErrDeleteClient      = errors.New("failed to delete client")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenUsed          = errors.New("token already used")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)

// checked in order, the first match wins
var userMessages = []struct {
	err error
	msg string
}{
	{ErrAppointmentConflict, "An appointment already exists at this time. Please choose another time."},
	{ErrClientNotRegistered, "The client with this id number does not exist. Register the client first."},
	{ErrDuplicateClient, "A client with this id number already exists."},
	{ErrConfirmationRequired, "Confirmation required."},
	{ErrLoadAppointments, "Failed to load appointments."},
	{ErrLoadClients, "Failed to load clients."},
	{ErrDeleteAppointment, "Failed to delete appointment."},
	{ErrDeleteClient, "Failed to delete client."},
	{ErrNotFound, "Not found."},
}

// UserMessage is the text shown to clinic staff for err. Unclassified
// store failures surface the store's own message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	if errors.Is(err, scheduler.ErrInvalidDateTime) || errors.Is(err, ErrInvalidDate) {
		return err.Error()
	}
	return repositories.Message(err)
}

// IsValidation reports errors caused by the request itself.
func IsValidation(err error) bool {
	return errors.Is(err, scheduler.ErrInvalidDateTime) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrNegativeCost) ||
		errors.Is(err, ErrWeakPassword)
}
