package handlers

import (
	"net/http"
	"strings"

	"fadetogo/middleware"
	"fadetogo/models"
	"fadetogo/services/booking"
	"fadetogo/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

type BookingHandler struct {
	Service booking.BookingService
}

func NewBookingHandler(svc booking.BookingService) *BookingHandler {
	return &BookingHandler{Service: svc}
}

func forbidden(c *gin.Context, message string) {
	utils.JSONError(c, http.StatusForbidden, "forbidden", message)
}

// canView reports whether the caller is a party to b.
func canView(c *gin.Context, b *models.Booking) bool {
	subject, role, ok := middleware.Caller(c)
	if !ok {
		return true
	}
	switch role {
	case utils.RoleCustomer:
		return b.CustomerID == subject
	case utils.RoleProvider:
		return b.ProviderID == subject
	}
	return false
}

// scopeToCaller pins the filter to the caller's own bookings. It reports
// false when the request names another account.
func scopeToCaller(c *gin.Context, filter *models.BookingFilter) bool {
	subject, role, ok := middleware.Caller(c)
	if !ok {
		return true
	}
	switch role {
	case utils.RoleCustomer:
		if filter.CustomerID != "" && filter.CustomerID != subject {
			return false
		}
		filter.CustomerID = subject
	case utils.RoleProvider:
		if filter.ProviderID != "" && filter.ProviderID != subject {
			return false
		}
		filter.ProviderID = subject
	default:
		return false
	}
	return true
}

// CreateBooking handles POST /api/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req booking.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid booking request: "+err.Error())
		return
	}
	// A customer token books for its own subject only.
	if subject, role, ok := middleware.Caller(c); ok {
		if role != utils.RoleCustomer {
			forbidden(c, "Only customers may request bookings")
			return
		}
		req.CustomerID = subject
	}

	b, err := h.Service.CreateBooking(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("Booking requested",
		zap.String("bookingId", b.ID), zap.String("providerId", b.ProviderID))
	c.JSON(http.StatusCreated, b)
}

// GetBooking handles GET /api/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	b, err := h.Service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !canView(c, b) {
		forbidden(c, "This booking belongs to another account")
		return
	}
	c.JSON(http.StatusOK, b)
}

// ListBookings handles GET /api/bookings?customerId=&providerId=&status=&limit=.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	filter := models.BookingFilter{
		CustomerID: strings.TrimSpace(c.Query("customerId")),
		ProviderID: strings.TrimSpace(c.Query("providerId")),
	}
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseBookingStatus(raw)
		if err != nil {
			respondError(c, err)
			return
		}
		filter.Status = status
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := cast.ToIntE(raw)
		if err != nil || limit < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	if !scopeToCaller(c, &filter) {
		forbidden(c, "Bookings of other accounts cannot be listed")
		return
	}

	bookings, err := h.Service.ListBookings(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}

// UpdateStatus handles PATCH /api/bookings/:id/status.
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "status is required")
		return
	}
	status, err := models.ParseBookingStatus(body.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	// Accepting, declining and completing are the provider's decisions.
	if subject, role, ok := middleware.Caller(c); ok {
		current, err := h.Service.GetBooking(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if role != utils.RoleProvider || current.ProviderID != subject {
			forbidden(c, "Only the booked provider may change this booking's status")
			return
		}
	}

	b, err := h.Service.UpdateStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
