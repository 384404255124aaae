package routes

import (
	"time"

	"fadetogo/handlers"
	"fadetogo/middleware"
	"fadetogo/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers booking endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.Use(middleware.JWTAuthMiddleware(hb.AuthEnabled))
		api.POST("", hb.CreateBookingHandler)
		api.GET("", hb.ListBookingsHandler)
		api.GET("/:id", hb.GetBookingHandler)
		api.PATCH("/:id/status", hb.UpdateBookingStatusHandler)
	}
}

// RegisterProviderRoutes registers provider settings and availability endpoints.
func RegisterProviderRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/providers/:id")
	{
		// Public read endpoints used while a customer browses.
		api.GET("/quote", hb.QuoteHandler)
		api.GET("/availability", hb.AvailabilityHandler)
		api.GET("/slot-check", hb.SlotCheckHandler)
		api.GET("/settings", hb.GetSettingsHandler)
		api.GET("/services", hb.ListServicesHandler)

		// Only the provider may change its own settings.
		protected := api.Group("")
		protected.Use(middleware.JWTAuthMiddleware(hb.AuthEnabled), middleware.RequireProviderOwner())
		protected.PUT("/settings", hb.UpdateSettingsHandler)
		protected.PUT("/pricing", hb.UpdatePricingHandler)
		protected.POST("/services", hb.AddServiceHandler)
	}
}

// RegisterHealthRoutes registers liveness and readiness endpoints.
func RegisterHealthRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/healthz", hb.HealthzHandler)
	r.GET("/readyz", hb.ReadyzHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(utils.ErrorHandler(), handlers.RequestLogger(), middleware.RateLimitMiddleware(hb.MaxRequestsPerMin))

	RegisterHealthRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterProviderRoutes(r, hb)
}
