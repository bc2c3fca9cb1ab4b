// Package session tracks who is signed in: the identity carried by a
// request, the signed-in/signed-out transitions and the access-token
// deny-list.
package session

import (
	"context"
	"time"
)

// Identity is the signed-in staff member behind a request.
type Identity struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	SessionID string    `json:"-"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
