package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"amenity-booking-service/internal/config"
)

// NewRouter wires all routes. User-facing routes sit behind the booking API
// key (with optional JWT bearer), admin routes behind the admin key.
func NewRouter(cfg config.Config, h *Handler) *gin.Engine {
	router := gin.Default()

	router.GET("/health/live", h.HealthLive)
	router.GET("/health/ready", h.HealthReady)

	// OAuth2 callback (must stay outside auth)
	router.GET("/oauth2callback", h.GoogleOAuthCallback)

	api := router.Group("/v1", RequireAPIKey(APIKeyHeader, cfg.APIKey, cfg.JWTSecret))
	{
		api.GET("/amenities", h.ListAmenities)
		api.GET("/amenities/:id/availability", h.AmenityAvailability)

		api.POST("/bookings", h.CreateBooking)
		api.POST("/bookings/:id/cancel", h.CancelBooking)
		api.GET("/bookings/my", h.MyBookings)
		api.GET("/bookings/history", h.BookingHistory)

		api.GET("/calendar/auth", h.GoogleAuth)
		api.GET("/calendar/events", h.GoogleCalendarEvents)
	}

	admin := router.Group("/v1/admin", RequireAPIKey(AdminAPIKeyHeader, cfg.AdminAPIKey, ""))
	{
		admin.POST("/amenities", h.UpsertAmenity)
		admin.POST("/rules", h.UpdateAmenityRules)
	}

	return router
}

func Run(router *gin.Engine, addr string) {
	if err := router.Run(addr); err != nil && err != http.ErrServerClosed {
		panic(err)
	}
}
