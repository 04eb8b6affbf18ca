package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"hotel-service/internal/apperr"
	"hotel-service/internal/gateway"
	"hotel-service/internal/models"
	"hotel-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BookingService is the booking lifecycle used by the handlers.
type BookingService interface {
	CreateBooking(ctx context.Context, req *service.CreateBookingRequest) (*models.Booking, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	CancelBooking(ctx context.Context, id int64, reason string) (*models.Booking, error)
	ConfirmBooking(ctx context.Context, id int64) (*models.Booking, error)
	CheckIn(ctx context.Context, id int64) (*models.Booking, error)
	CheckOut(ctx context.Context, id int64) (*models.Booking, error)
}

// PaymentService issues payment URLs and reads payments.
type PaymentService interface {
	CreatePaymentURL(ctx context.Context, bookingID int64, clientIP string) (*gateway.PaymentRequest, error)
	GetPayment(ctx context.Context, bookingID int64) (*models.Payment, error)
}

// Reconciler applies gateway callbacks.
type Reconciler interface {
	Reconcile(ctx context.Context, params map[string]string) (*service.ReconcileResult, error)
}

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	bookings   BookingService
	payments   PaymentService
	reconciler Reconciler
	deps       map[string]Pinger
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler. deps are probed by /ready.
func NewHandler(bookings BookingService, payments PaymentService, reconciler Reconciler, deps map[string]Pinger, logger *zap.Logger) *Handler {
	return &Handler{
		bookings:   bookings,
		payments:   payments,
		reconciler: reconciler,
		deps:       deps,
		logger:     logger,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(requestLogger(h.logger))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/bookings", h.createBooking)
		v1.GET("/bookings/:id", h.getBooking)
		v1.POST("/bookings/:id/cancel", h.cancelBooking)
		v1.POST("/bookings/:id/confirm", h.confirmBooking)
		v1.POST("/bookings/:id/check-in", h.checkIn)
		v1.POST("/bookings/:id/check-out", h.checkOut)
		v1.POST("/bookings/:id/payment-url", h.createPaymentURL)
		v1.GET("/bookings/:id/payment", h.getPayment)

		v1.GET("/payments/vnpay/return", h.vnpayReturn)
		v1.GET("/payments/vnpay/ipn", h.vnpayIPN)
		v1.POST("/payments/vnpay/ipn", h.vnpayIPN)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready only when every dependency answers
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.deps))
	ready := true
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = "unavailable"
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status": status,
		"checks": checks,
		"time":   time.Now().Unix(),
	})
}

// createBooking handles booking creation
func (h *Handler) createBooking(c *gin.Context) {
	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	b, err := h.bookings.CreateBooking(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// getBooking handles get booking by ID
func (h *Handler) getBooking(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}
	b, err := h.bookings.GetBooking(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type cancelRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}

// cancelBooking cancels a booking; the JSON body with a reason is optional
func (h *Handler) cancelBooking(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	var req cancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request body",
				"details": err.Error(),
			})
			return
		}
	}

	b, err := h.bookings.CancelBooking(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) confirmBooking(c *gin.Context) {
	h.statusAction(c, h.bookings.ConfirmBooking)
}

func (h *Handler) checkIn(c *gin.Context) {
	h.statusAction(c, h.bookings.CheckIn)
}

func (h *Handler) checkOut(c *gin.Context) {
	h.statusAction(c, h.bookings.CheckOut)
}

func (h *Handler) statusAction(c *gin.Context, action func(context.Context, int64) (*models.Booking, error)) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}
	b, err := action(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// bookingID parses the :id path parameter, answering 400 when it is not a positive integer
func (h *Handler) bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(c, apperr.Validation("invalid booking id"))
		return 0, false
	}
	return id, true
}
