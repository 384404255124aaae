package handlers

import (
	"errors"
	"net/http"
	"time"

	"fadetogo/models"
	"fadetogo/services/booking"
	"fadetogo/services/provider"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

type ProviderHandler struct {
	Settings provider.SettingsService
	Bookings booking.BookingService
}

func NewProviderHandler(settings provider.SettingsService, bookings booking.BookingService) *ProviderHandler {
	return &ProviderHandler{Settings: settings, Bookings: bookings}
}

// settingsRequest is the editable part of ProviderSettings. Omitted fields
// keep their stored value.
type settingsRequest struct {
	BaseLocation *models.Location               `json:"baseLocation"`
	Pricing      *models.PricingConfig          `json:"pricing"`
	WorkingHours map[string]models.WorkingHours `json:"workingHours"`
	IsAvailable  *bool                          `json:"isAvailable"`
	Timezone     *string                        `json:"timezone"`
}

func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		badRequest(c, key+" is required")
		return 0, false
	}
	v, err := cast.ToIntE(raw)
	if err != nil {
		badRequest(c, key+" must be an integer")
		return 0, false
	}
	return v, true
}

func queryFloat(c *gin.Context, key string) (float64, bool) {
	raw := c.Query(key)
	if raw == "" {
		badRequest(c, key+" is required")
		return 0, false
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		badRequest(c, key+" must be a number")
		return 0, false
	}
	return v, true
}

// GetSettings handles GET /api/providers/:id/settings.
func (h *ProviderHandler) GetSettings(c *gin.Context) {
	settings, err := h.Settings.GetSettings(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/providers/:id/settings.
func (h *ProviderHandler) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid settings payload: "+err.Error())
		return
	}

	providerID := c.Param("id")
	settings, err := h.Settings.GetSettings(c.Request.Context(), providerID)
	if errors.Is(err, models.ErrNotFound) {
		settings, err = models.NewProviderSettings(providerID), nil
	}
	if err != nil {
		respondError(c, err)
		return
	}

	if req.BaseLocation != nil {
		if err := req.BaseLocation.Validate(); err != nil {
			respondError(c, err)
			return
		}
		settings.BaseLocation = req.BaseLocation.ToGeoPoint()
	}
	if req.Pricing != nil {
		settings.Pricing = *req.Pricing
	}
	if req.WorkingHours != nil {
		settings.WorkingHours = req.WorkingHours
	}
	if req.IsAvailable != nil {
		settings.IsAvailable = *req.IsAvailable
	}
	if req.Timezone != nil {
		settings.Timezone = *req.Timezone
	}

	updated, err := h.Settings.UpdateSettings(c.Request.Context(), settings)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// UpdatePricing handles PUT /api/providers/:id/pricing.
func (h *ProviderHandler) UpdatePricing(c *gin.Context) {
	var cfg models.PricingConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		badRequest(c, "Invalid pricing payload: "+err.Error())
		return
	}
	settings, err := h.Settings.UpdatePricing(c.Request.Context(), c.Param("id"), cfg)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings.Pricing)
}

// ListServices handles GET /api/providers/:id/services.
func (h *ProviderHandler) ListServices(c *gin.Context) {
	services, err := h.Settings.ListServices(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if services == nil {
		services = []models.Service{}
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// AddService handles POST /api/providers/:id/services.
func (h *ProviderHandler) AddService(c *gin.Context) {
	var svc models.Service
	if err := c.ShouldBindJSON(&svc); err != nil {
		badRequest(c, "Invalid service payload: "+err.Error())
		return
	}
	created, err := h.Settings.AddService(c.Request.Context(), c.Param("id"), svc)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Quote handles GET /api/providers/:id/quote?lat=&lng=&basePriceCents=.
func (h *ProviderHandler) Quote(c *gin.Context) {
	lat, ok := queryFloat(c, "lat")
	if !ok {
		return
	}
	lng, ok := queryFloat(c, "lng")
	if !ok {
		return
	}
	base, ok := queryInt(c, "basePriceCents")
	if !ok {
		return
	}

	q, err := h.Bookings.Quote(c.Request.Context(), c.Param("id"), models.Cents(base),
		models.Location{Latitude: lat, Longitude: lng})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// Availability handles GET /api/providers/:id/availability?date=&durationMinutes=.
func (h *ProviderHandler) Availability(c *gin.Context) {
	date, err := time.Parse(time.DateOnly, c.Query("date"))
	if err != nil {
		badRequest(c, "date must be formatted as YYYY-MM-DD")
		return
	}
	duration, ok := queryInt(c, "durationMinutes")
	if !ok {
		return
	}

	resp, err := h.Bookings.Availability(c.Request.Context(), c.Param("id"), date, duration)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SlotCheck handles GET /api/providers/:id/slot-check?start=&durationMinutes=.
func (h *ProviderHandler) SlotCheck(c *gin.Context) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		badRequest(c, "start must be an RFC3339 timestamp")
		return
	}
	duration, ok := queryInt(c, "durationMinutes")
	if !ok {
		return
	}
	if duration <= 0 {
		badRequest(c, "durationMinutes must be positive")
		return
	}

	available := h.Bookings.IsSlotAvailable(c.Request.Context(), c.Param("id"), start, duration)
	c.JSON(http.StatusOK, gin.H{"available": available, "start": start.UTC(), "durationMinutes": duration})
}
