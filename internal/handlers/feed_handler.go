package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clinicdesk/internal/realtime"
)

type FeedHandler struct {
	Hub *realtime.Hub
}

func NewFeedHandler(hub *realtime.Hub) *FeedHandler {
	return &FeedHandler{Hub: hub}
}

// Stream upgrades to a websocket that carries every client and appointment
// change as JSON. Screens reload the affected list when one arrives.
//
// @Summary      Change feed
// @Description  Websocket; browsers pass the token as access_token
// @Tags         Feed
// @Security     BearerAuth
// @Param        access_token  query  string  false  "Access token"
// @Success      101
// @Failure      401  {object}  map[string]string
// @Router       /feed [get]
func (h *FeedHandler) Stream(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}
	// the upgrader has already answered the request when this fails
	_ = h.Hub.Serve(c.Writer, c.Request, id.UserID)
}
