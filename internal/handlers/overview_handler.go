package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clinicdesk/internal/services"
)

type OverviewHandler struct {
	Service *services.OverviewService
}

func NewOverviewHandler(service *services.OverviewService) *OverviewHandler {
	return &OverviewHandler{Service: service}
}

// @Summary      Dashboard
// @Description  Weekly histogram, upcoming appointments and counters
// @Tags         Overview
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  overview.Overview
// @Failure      500  {object}  map[string]string
// @Router       /overview [get]
func (h *OverviewHandler) Get(c *gin.Context) {
	o, err := h.Service.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
