package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clinicdesk/internal/models"
	"clinicdesk/internal/services"
	"clinicdesk/internal/session"
)

type AuthHandler struct {
	authService  services.AuthService
	resetService services.PasswordResetService
	tracker      *session.Tracker
}

func NewAuthHandler(authService services.AuthService, resetService services.PasswordResetService, tracker *session.Tracker) *AuthHandler {
	return &AuthHandler{authService: authService, resetService: resetService, tracker: tracker}
}

// @Summary      Sign in
// @Description  Checks staff credentials and returns an access/refresh token pair
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        credentials  body      models.SignInRequest  true  "Email and password"
// @Success      200          {object}  map[string]interface{}
// @Failure      400          {object}  map[string]string
// @Failure      401          {object}  map[string]string
// @Router       /auth/sign-in [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req models.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, tokens, err := h.authService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if statusFor(err) == http.StatusUnauthorized {
			c.JSON(http.StatusUnauthorized, gin.H{"error": services.ErrInvalidCredentials.Error()})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "signed in",
		"user":    user,
		"tokens":  tokens,
	})
}

// @Summary      Refresh tokens
// @Description  Rotates the refresh token and issues a new access token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      map[string]string  true  "refresh_token"
// @Success      200   {object}  services.TokenPair
// @Failure      401   {object}  map[string]string
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tokens, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// @Summary      Sign out
// @Description  Ends the session on every device
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /auth/sign-out [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}
	if err := h.authService.SignOut(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

// Session reports the caller's identity. The auth middleware answers 401
// before this runs when there is none.
//
// @Summary      Current identity
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}
	state := session.StateSignedIn
	if h.tracker != nil {
		state = h.tracker.State(id.SessionID)
	}
	c.JSON(http.StatusOK, gin.H{"identity": id, "state": state})
}

// @Summary      Request a password reset
// @Description  Always answers 200 so account existence is not revealed
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      map[string]string  true  "email"
// @Success      200   {object}  map[string]string
// @Router       /auth/password-reset [post]
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.resetService.RequestReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "if the account exists a reset link was sent"})
}

// @Summary      Set a new password
// @Description  Consumes a single-use reset token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      map[string]string  true  "token and password"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/password-reset/confirm [post]
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.resetService.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}
