package handlers

import (
	"net/http"

	"mixergy_bridge/internal/logger"
	"mixergy_bridge/internal/models"
	"mixergy_bridge/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Notifier signals that the cached tank state changed.
type Notifier interface {
	Subscribe(fn func()) (cancel func())
}

// EventSource streams tank events.
type EventSource interface {
	Subscribe(buffer int) (<-chan models.TankEvent, func())
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger

	updates Notifier
	events  EventSource
	metrics http.Handler
}

// Option configures optional Handler dependencies.
type Option func(*Handler)

// WithUpdates makes /ws push the state as soon as it changes.
func WithUpdates(n Notifier) Option { return func(h *Handler) { h.updates = n } }

// WithEvents forwards tank events to /ws clients.
func WithEvents(src EventSource) Option { return func(h *Handler) { h.events = src } }

// WithMetrics serves the given handler on /metrics.
func WithMetrics(m http.Handler) Option { return func(h *Handler) { h.metrics = m } }

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts ...Option) *Handler {
	h := &Handler{services: services, log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.operatorMiddleware)
	{
		h.registerTankRoutes(api)
	}
}

func (h *Handler) registerTankRoutes(api *gin.RouterGroup) {
	tank := api.Group("/tank")
	{
		tank.GET("/state", h.getState)
		tank.POST("/refresh", h.refresh)
		// Body example: {"charge":80}
		tank.POST("/charge", h.setCharge)
		tank.POST("/target-temperature", h.setTargetTemperature)
		tank.PATCH("/settings", h.updateSettings)
		tank.POST("/holiday", h.setHoliday)
		tank.DELETE("/holiday", h.clearHoliday)
		tank.PUT("/schedule", h.setSchedule)
	}
}
