package models

import "time"

// PasswordReset is a single-use token mailed to a staff member.
type PasswordReset struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Token     string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (p *PasswordReset) Used() bool { return p.UsedAt != nil }

func (p *PasswordReset) Expired(now time.Time) bool { return now.After(p.ExpiresAt) }
