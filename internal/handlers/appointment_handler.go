package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"clinicdesk/internal/pdf"
	"clinicdesk/internal/scheduler"
	"clinicdesk/internal/services"
)

type AppointmentHandler struct {
	Service  *services.AppointmentService
	DaySheet *pdf.DaySheetGenerator
}

func NewAppointmentHandler(service *services.AppointmentService, daySheet *pdf.DaySheetGenerator) *AppointmentHandler {
	return &AppointmentHandler{Service: service, DaySheet: daySheet}
}

// @Summary      Appointment list
// @Description  Every appointment, earliest first
// @Tags         Appointments
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]interface{}
// @Router       /appointments [get]
func (h *AppointmentHandler) List(c *gin.Context) {
	list, err := h.Service.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": services.UserMessage(err), "appointments": list})
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": list})
}

// @Summary      Get an appointment
// @Tags         Appointments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Appointment ID"
// @Success      200  {object}  models.Appointment
// @Failure      404  {object}  map[string]string
// @Router       /appointments/{id} [get]
func (h *AppointmentHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	a, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// @Summary      Scheduler board
// @Description  Day slot grid for date (default today) or the full table
// @Tags         Appointments
// @Produce      json
// @Security     BearerAuth
// @Param        date  query     string  false  "YYYY-MM-DD"
// @Param        view  query     string  false  "grid or table"
// @Success      200   {object}  scheduler.Board
// @Failure      400   {object}  map[string]string
// @Router       /appointments/board [get]
func (h *AppointmentHandler) Board(c *gin.Context) {
	view, err := scheduler.ParseViewMode(c.Query("view"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	board, err := h.Service.Board(c.Request.Context(), strings.TrimSpace(c.Query("date")), view)
	if err != nil {
		if errors.Is(err, services.ErrLoadAppointments) {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": services.UserMessage(err), "board": board})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"board": board})
}

// @Summary      Time slots
// @Description  Hourly slot labels of the day grid
// @Tags         Appointments
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string][]string
// @Router       /appointments/slots [get]
func (h *AppointmentHandler) Slots(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"slots": scheduler.TimeSlots()})
}

// Form returns the blank booking form, which is also how an edit is
// cancelled. date, time and client_id_number prefill it.
//
// @Summary      Blank booking form
// @Tags         Appointments
// @Produce      json
// @Security     BearerAuth
// @Param        date              query     string  false  "YYYY-MM-DD"
// @Param        time              query     string  false  "HH:MM"
// @Param        client_id_number  query     string  false  "Client from the roster"
// @Success      200               {object}  map[string]interface{}
// @Failure      500               {object}  map[string]interface{}
// @Router       /appointments/form [get]
func (h *AppointmentHandler) Form(c *gin.Context) {
	form := h.Service.DefaultForm()
	if d := strings.TrimSpace(c.Query("date")); d != "" {
		form.Date = d
	}
	if t := strings.TrimSpace(c.Query("time")); t != "" {
		form.Time = t
	}
	if idNumber := strings.TrimSpace(c.Query("client_id_number")); idNumber != "" {
		selected, err := h.Service.SelectClient(c.Request.Context(), form, idNumber)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": services.UserMessage(err), "form": form})
			return
		}
		form = selected
	}
	c.JSON(http.StatusOK, gin.H{"form": form})
}

// @Summary      Begin editing
// @Description  Booking form loaded with the appointment; submitting it updates
// @Tags         Appointments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Appointment ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /appointments/{id}/form [get]
func (h *AppointmentHandler) EditForm(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	form, err := h.Service.BeginEdit(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": form})
}

// @Summary      Submit the booking form
// @Description  Inserts when editing_id is empty, otherwise updates that appointment
// @Tags         Appointments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        form  body      scheduler.Form  true  "Booking form"
// @Success      200   {object}  services.AppointmentResult
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /appointments/submit [post]
func (h *AppointmentHandler) Submit(c *gin.Context) {
	form, ok := bindForm(c)
	if !ok {
		return
	}
	h.write(c, http.StatusOK, func() (*services.AppointmentResult, error) {
		return h.Service.Submit(c.Request.Context(), form)
	})
}

// @Summary      Book an appointment
// @Tags         Appointments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        form  body      scheduler.Form  true  "Booking form"
// @Success      201   {object}  services.AppointmentResult
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /appointments [post]
func (h *AppointmentHandler) Create(c *gin.Context) {
	form, ok := bindForm(c)
	if !ok {
		return
	}
	h.write(c, http.StatusCreated, func() (*services.AppointmentResult, error) {
		return h.Service.Create(c.Request.Context(), form)
	})
}

// @Summary      Update an appointment
// @Tags         Appointments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int             true  "Appointment ID"
// @Param        form  body      scheduler.Form  true  "Booking form"
// @Success      200   {object}  services.AppointmentResult
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /appointments/{id} [put]
func (h *AppointmentHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	form, ok := bindForm(c)
	if !ok {
		return
	}
	h.write(c, http.StatusOK, func() (*services.AppointmentResult, error) {
		return h.Service.Update(c.Request.Context(), id, form)
	})
}

// @Summary      Delete an appointment
// @Tags         Appointments
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int   true  "Appointment ID"
// @Param        confirm  query     bool  true  "Confirmation"
// @Success      200      {object}  services.AppointmentResult
// @Failure      412      {object}  map[string]string
// @Router       /appointments/{id} [delete]
func (h *AppointmentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	h.write(c, http.StatusOK, func() (*services.AppointmentResult, error) {
		return h.Service.Delete(c.Request.Context(), id, confirmed(c))
	})
}

// @Summary      Day sheet
// @Description  Printable PDF of the slot grid for date (default today)
// @Tags         Appointments
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        date  query  string  false  "YYYY-MM-DD"
// @Success      200
// @Router       /appointments/day-sheet [get]
func (h *AppointmentHandler) DaySheetPDF(c *gin.Context) {
	board, err := h.Service.Board(c.Request.Context(), strings.TrimSpace(c.Query("date")), scheduler.ViewGrid)
	if err != nil {
		respondError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := h.DaySheet.Render(&buf, board, h.Service.Now()); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render day sheet"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="day-sheet-%s.pdf"`, board.Date))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (h *AppointmentHandler) write(c *gin.Context, status int, do func() (*services.AppointmentResult, error)) {
	res, err := do()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, res)
}

func bindForm(c *gin.Context) (scheduler.Form, bool) {
	var form scheduler.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return form, false
	}
	return form, true
}
