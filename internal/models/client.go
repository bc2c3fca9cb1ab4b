package models

import (
	"strings"
	"time"
)

// Client is a patient registered at the clinic.
type Client struct {
	ID        int64     `json:"id"`
	IDNumber  string    `json:"id_number"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// RosterEntry is the id-number/name pair the appointment form selects from.
type RosterEntry struct {
	IDNumber string `json:"id_number"`
	Name     string `json:"name"`
}

// ClientInput is the registry form for a new client.
type ClientInput struct {
	IDNumber string `json:"id_number" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	Email    string `json:"email" binding:"omitempty,email"`
	Address  string `json:"address"`
}

func (in ClientInput) Client() *Client {
	return &Client{
		IDNumber: strings.TrimSpace(in.IDNumber),
		Name:     strings.TrimSpace(in.Name),
		Phone:    strings.TrimSpace(in.Phone),
		Email:    strings.TrimSpace(in.Email),
		Address:  strings.TrimSpace(in.Address),
	}
}

// ClientUpdate is the registry form for an existing client. It has no id
// number field: that is fixed at registration.
type ClientUpdate struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Email   string `json:"email" binding:"omitempty,email"`
	Address string `json:"address"`
}

func (in ClientUpdate) Client(id int64) *Client {
	return &Client{
		ID:      id,
		Name:    strings.TrimSpace(in.Name),
		Phone:   strings.TrimSpace(in.Phone),
		Email:   strings.TrimSpace(in.Email),
		Address: strings.TrimSpace(in.Address),
	}
}
