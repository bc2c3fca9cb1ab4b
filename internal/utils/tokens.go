// Package utils holds small helpers shared by the services.
package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const DefaultTokenBytes = 32

// NewOpaqueToken returns n random bytes, URL-safe base64 encoded, for
// refresh tokens and password reset links. n <= 0 means DefaultTokenBytes.
func NewOpaqueToken(n int) (string, error) {
	if n <= 0 {
		n = DefaultTokenBytes
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
