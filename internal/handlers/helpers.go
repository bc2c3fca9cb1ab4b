package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"clinicdesk/internal/middleware"
	"clinicdesk/internal/services"
	"clinicdesk/internal/session"
)

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func confirmed(c *gin.Context) bool {
	ok, _ := strconv.ParseBool(c.Query("confirm"))
	return ok
}

func statusFor(err error) int {
	switch {
	case services.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrConfirmationRequired):
		return http.StatusPreconditionFailed
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrAppointmentConflict), errors.Is(err, services.ErrDuplicateClient):
		return http.StatusConflict
	case errors.Is(err, services.ErrClientNotRegistered):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrTokenUsed):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes the staff-facing message for err. Server-side failures
// are attached to the gin context so the sentry middleware reports them.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": services.UserMessage(err)})
}

func identity(c *gin.Context) (session.Identity, bool) {
	v, ok := c.Get(middleware.IdentityKey)
	if !ok {
		return session.Identity{}, false
	}
	id, ok := v.(session.Identity)
	return id, ok
}
