package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"clinicdesk/internal/handlers"
	"clinicdesk/internal/middleware"
	"clinicdesk/internal/monitoring"
	"clinicdesk/internal/services"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	Clients      *handlers.ClientHandler
	Appointments *handlers.AppointmentHandler
	Overview     *handlers.OverviewHandler
	Feed         *handlers.FeedHandler
}

func SetupRoutes(r *gin.Engine, h Handlers, auth services.AuthService, metrics *monitoring.Metrics) *gin.Engine {
	// ---- public
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(auth))

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/sign-in", h.Auth.SignIn)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/password-reset", h.Auth.RequestPasswordReset)
		authGroup.POST("/password-reset/confirm", h.Auth.ConfirmPasswordReset)
		authGroup.POST("/sign-out", h.Auth.SignOut)
	}

	// ---- protected
	api.GET("/session", h.Auth.Session)

	// CLIENTS
	clients := api.Group("/clients")
	{
		clients.GET("", h.Clients.List)
		clients.GET("/roster", h.Clients.Roster)
		clients.GET("/:id", h.Clients.Get)
		clients.POST("", h.Clients.Create)
		clients.PUT("/:id", h.Clients.Update)
		clients.DELETE("/:id", h.Clients.Delete)
	}

	// APPOINTMENTS
	appointments := api.Group("/appointments")
	{
		appointments.GET("", h.Appointments.List)
		appointments.GET("/board", h.Appointments.Board)
		appointments.GET("/slots", h.Appointments.Slots)
		appointments.GET("/form", h.Appointments.Form)
		appointments.GET("/day-sheet", h.Appointments.DaySheetPDF)
		appointments.GET("/:id", h.Appointments.Get)
		appointments.GET("/:id/form", h.Appointments.EditForm)
		appointments.POST("/submit", h.Appointments.Submit)
		appointments.POST("", h.Appointments.Create)
		appointments.PUT("/:id", h.Appointments.Update)
		appointments.DELETE("/:id", h.Appointments.Delete)
	}

	// OVERVIEW
	api.GET("/overview", h.Overview.Get)

	// LIVE FEED
	if h.Feed != nil {
		api.GET("/feed", h.Feed.Stream)
	}

	return r
}
