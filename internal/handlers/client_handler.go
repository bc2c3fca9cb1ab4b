package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clinicdesk/internal/models"
	"clinicdesk/internal/services"
)

type ClientHandler struct {
	Service *services.ClientService
}

func NewClientHandler(service *services.ClientService) *ClientHandler {
	return &ClientHandler{Service: service}
}

// @Summary      Client list
// @Description  Every registered client, newest first
// @Tags         Clients
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]interface{}
// @Router       /clients [get]
func (h *ClientHandler) List(c *gin.Context) {
	list, err := h.Service.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": services.UserMessage(err), "clients": list})
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": list})
}

// @Summary      Client roster
// @Description  Id number and name of every client, by name, for the booking form
// @Tags         Clients
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]interface{}
// @Router       /clients/roster [get]
func (h *ClientHandler) Roster(c *gin.Context) {
	roster, err := h.Service.Roster(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": services.UserMessage(err), "roster": roster})
		return
	}
	c.JSON(http.StatusOK, gin.H{"roster": roster})
}

// @Summary      Get a client
// @Tags         Clients
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Client ID"
// @Success      200  {object}  models.Client
// @Failure      404  {object}  map[string]string
// @Router       /clients/{id} [get]
func (h *ClientHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	client, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// @Summary      Register a client
// @Tags         Clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        client  body      models.ClientInput  true  "Client"
// @Success      201     {object}  services.ClientResult
// @Failure      400     {object}  map[string]string
// @Failure      409     {object}  map[string]string
// @Router       /clients [post]
func (h *ClientHandler) Create(c *gin.Context) {
	var req models.ClientInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.Service.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Update never changes the id number; the request does not carry one.
//
// @Summary      Update a client
// @Tags         Clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      int                  true  "Client ID"
// @Param        client  body      models.ClientUpdate  true  "Client"
// @Success      200     {object}  services.ClientResult
// @Failure      400     {object}  map[string]string
// @Failure      404     {object}  map[string]string
// @Router       /clients/{id} [put]
func (h *ClientHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req models.ClientUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.Service.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Delete a client
// @Description  Requires confirm=true. Appointments of the client are kept.
// @Tags         Clients
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int   true   "Client ID"
// @Param        confirm  query     bool  true   "Confirmation"
// @Success      200      {object}  services.ClientResult
// @Failure      412      {object}  map[string]string
// @Router       /clients/{id} [delete]
func (h *ClientHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	res, err := h.Service.Delete(c.Request.Context(), id, confirmed(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
