package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"clinicdesk/internal/services"
	"clinicdesk/internal/session"
)

const (
	IdentityKey = "identity"
	FeedPath    = "/api/feed"
)

// public endpoints, no token required
func isPublicPath(path string) bool {
	switch path {
	case "/api/auth/sign-in", "/api/auth/refresh", "/api/auth/password-reset", "/api/auth/password-reset/confirm":
		return true
	}
	return strings.HasPrefix(path, "/swagger") ||
		strings.HasPrefix(path, "/healthz") ||
		strings.HasPrefix(path, "/metrics")
}

// AuthMiddleware requires a valid, non-revoked bearer access token and puts
// the caller's identity on the gin and request contexts.
func AuthMiddleware(auth services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			return
		}

		id, err := auth.ParseAccessToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(IdentityKey, id)
		c.Request = c.Request.WithContext(session.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// bearerToken reads the Authorization header. Browsers cannot set headers
// on a websocket handshake, so the feed also accepts ?access_token=.
func bearerToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" && c.Request.URL.Path == FeedPath {
		t := strings.TrimSpace(c.Query("access_token"))
		return t, t != ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
