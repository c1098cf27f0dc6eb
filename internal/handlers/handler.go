package handlers

import (
	"terneo_bridge/internal/logger"
	"terneo_bridge/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Versioned API endpoints
	h.registerAPIRoutes(router)

	// Live event stream (HTTP upgrade) — same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/discovery", h.listDiscovered)
		h.registerDeviceRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerDeviceRoutes(api *gin.RouterGroup) {
	devices := api.Group("/devices")
	{
		devices.GET("", h.listDevices)
		devices.POST("", h.registerDevice)
		devices.DELETE("/:serial", h.unregisterDevice)

		devices.GET("/:serial", h.getDeviceState)
		devices.POST("/:serial/refresh", h.refreshDevice)

		devices.POST("/:serial/power", h.setPower)
		devices.POST("/:serial/setpoint", h.setSetpoint)
		devices.POST("/:serial/preset", h.setPreset)

		devices.GET("/:serial/schedule", h.getSchedule)
		devices.PUT("/:serial/schedule", h.setWeeklySchedule)
		devices.PUT("/:serial/schedule/:day", h.setScheduleDay)

		devices.PUT("/:serial/away", h.setAwayWindow)
		devices.POST("/:serial/parameters", h.setParameters)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
