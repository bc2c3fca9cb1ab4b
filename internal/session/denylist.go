package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist remembers revoked access tokens until they would have expired.
// A session cutoff revokes every token of a session issued before it, so
// signing out on one device ends the session on all of them.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	RevokeSession(ctx context.Context, sessionID string, cutoff, until time.Time) error
	SessionCutoff(ctx context.Context, sessionID string) (time.Time, error)
}

const (
	denylistPrefix = "clinicdesk:revoked:"
	cutoffPrefix   = "clinicdesk:session-cutoff:"
)

type redisDenylist struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisDenylist(client *redis.Client) Denylist {
	return &redisDenylist{client: client, now: time.Now}
}

// NewRedisClient connects and pings within five seconds.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func (d *redisDenylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, denylistPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (d *redisDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := d.client.Get(ctx, denylistPrefix+tokenID).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("check revoked token: %w", err)
	}
}

// RevokeSession stores cutoff as unix seconds, matching the precision of
// the token iat claim.
func (d *redisDenylist) RevokeSession(ctx context.Context, sessionID string, cutoff, until time.Time) error {
	ttl := until.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, cutoffPrefix+sessionID, cutoff.Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// SessionCutoff returns the zero time when the session was never revoked.
func (d *redisDenylist) SessionCutoff(ctx context.Context, sessionID string) (time.Time, error) {
	raw, err := d.client.Get(ctx, cutoffPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("check session cutoff: %w", err)
	}
	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse session cutoff %q: %w", raw, err)
	}
	return time.Unix(sec, 0), nil
}

type cutoffEntry struct {
	cutoff time.Time
	until  time.Time
}

type memoryDenylist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	cutoffs map[string]cutoffEntry
	now     func() time.Time
}

// NewMemoryDenylist keeps revocations in process. Used when no Redis
// address is configured.
func NewMemoryDenylist() Denylist {
	return &memoryDenylist{
		entries: make(map[string]time.Time),
		cutoffs: make(map[string]cutoffEntry),
		now:     time.Now,
	}
}

func (d *memoryDenylist) RevokeSession(_ context.Context, sessionID string, cutoff, until time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cutoffs[sessionID] = cutoffEntry{cutoff: time.Unix(cutoff.Unix(), 0), until: until}
	return nil
}

func (d *memoryDenylist) SessionCutoff(_ context.Context, sessionID string) (time.Time, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.cutoffs[sessionID]
	if !ok {
		return time.Time{}, nil
	}
	if !d.now().Before(e.until) {
		delete(d.cutoffs, sessionID)
		return time.Time{}, nil
	}
	return e.cutoff, nil
}

func (d *memoryDenylist) Revoke(_ context.Context, tokenID string, until time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[tokenID] = until
	return nil
}

func (d *memoryDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	until, ok := d.entries[tokenID]
	if !ok {
		return false, nil
	}
	if !d.now().Before(until) {
		delete(d.entries, tokenID)
		return false, nil
	}
	return true, nil
}
