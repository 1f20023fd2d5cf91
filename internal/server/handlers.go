package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"amenity-booking-service/internal/booking"
	"amenity-booking-service/internal/calendar"
	"amenity-booking-service/internal/config"
)

const (
	appName    = "amenity-booking-api"
	appVersion = "2.0.0"

	googleTokenHeader = "X-Google-Token"
)

// ReadyChecker is the store-side readiness probe.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}

type Handler struct {
	engine *booking.Engine
	admin  *booking.Admin
	cal    *calendar.Client
	ready  ReadyChecker
	cfg    config.Config
}

func NewHandler(engine *booking.Engine, admin *booking.Admin, cal *calendar.Client, ready ReadyChecker, cfg config.Config) *Handler {
	return &Handler{engine: engine, admin: admin, cal: cal, ready: ready, cfg: cfg}
}

// GET /health/live
func (h *Handler) HealthLive(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": appName, "version": appVersion})
}

// GET /health/ready
func (h *Handler) HealthReady(c *gin.Context) {
	if err := h.ready.Ready(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": appName, "version": appVersion})
}

// GET /v1/amenities?building_id=
func (h *Handler) ListAmenities(c *gin.Context) {
	buildingID := c.Query("building_id")
	if buildingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "building_id required"})
		return
	}

	amenities, err := h.engine.ListAmenities(c.Request.Context(), buildingID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if amenities == nil {
		amenities = []booking.Amenity{}
	}
	c.JSON(http.StatusOK, gin.H{"amenities": amenities})
}

// GET /v1/amenities/:id/availability?building_id=&day=
func (h *Handler) AmenityAvailability(c *gin.Context) {
	amenityID := c.Param("id")
	buildingID := c.Query("building_id")
	day := c.Query("day")
	if buildingID == "" || day == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "building_id and day required"})
		return
	}

	availability, err := h.engine.AmenityAvailability(c.Request.Context(), amenityID, buildingID, day)
	switch {
	case errors.Is(err, booking.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Amenity not found or inactive."})
	case errors.Is(err, booking.ErrRulesNotConfigured):
		c.JSON(http.StatusNotFound, gin.H{"error": "Amenity rules are not configured."})
	case errors.Is(err, booking.ErrBuildingMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amenity and building_id do not match."})
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		if availability.Slots == nil {
			availability.Slots = []booking.SlotAvailability{}
		}
		c.JSON(http.StatusOK, availability)
	}
}

type userBookingRequest struct {
	Intent          string `json:"intent" binding:"required"`
	BuildingID      string `json:"building_id"`
	UserID          string `json:"user_id"`
	Amenity         string `json:"amenity" binding:"required"`
	Date            string `json:"date" binding:"required"`
	Time            string `json:"time" binding:"required"`
	DurationMinutes int    `json:"duration_minutes"`
}

// POST /v1/bookings
func (h *Handler) CreateBooking(c *gin.Context) {
	var req userBookingRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// Building and user fall back to the configured defaults when omitted.
	if req.BuildingID == "" {
		req.BuildingID = h.cfg.DefaultBuildingID
	}
	if req.UserID == "" {
		req.UserID = h.cfg.DefaultUserID
	}
	if req.BuildingID == "" || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "building_id and user_id required"})
		return
	}

	intent := booking.BookingIntent{
		Intent:          req.Intent,
		BuildingID:      req.BuildingID,
		UserID:          req.UserID,
		Amenity:         req.Amenity,
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: req.DurationMinutes,
	}
	result := h.engine.Execute(c.Request.Context(), intent)
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}

	h.mirrorToCalendar(c, req.Amenity, result)
	c.JSON(http.StatusOK, result)
}

// mirrorToCalendar pushes a committed booking to the caller's Google Calendar
// when the integration is configured and a token was supplied. Best effort.
func (h *Handler) mirrorToCalendar(c *gin.Context, amenityName string, result booking.BookingResult) {
	if h.cal == nil || result.Status != booking.StatusBooked {
		return
	}
	raw := c.GetHeader(googleTokenHeader)
	if raw == "" {
		return
	}
	token, err := calendar.ParseToken(raw)
	if err != nil {
		log.Printf("server: ignoring malformed google token: %v", err)
		return
	}

	b := &booking.Booking{ID: result.BookingID}
	if result.StartTime != nil {
		b.StartTime = *result.StartTime
	}
	if result.EndTime != nil {
		b.EndTime = *result.EndTime
	}
	if _, err := h.cal.MirrorBooking(c.Request.Context(), token, amenityName, b); err != nil {
		log.Printf("server: calendar mirror failed for booking %s: %v", result.BookingID, err)
	}
}

type cancelBookingRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	BuildingID string `json:"building_id,omitempty"`
}

// POST /v1/bookings/:id/cancel
func (h *Handler) CancelBooking(c *gin.Context) {
	bookingID := c.Param("id")

	var req cancelBookingRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.engine.BookingByID(c.Request.Context(), bookingID)
	if errors.Is(err, booking.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if req.BuildingID != "" && b.BuildingID != req.BuildingID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Booking does not belong to this building."})
		return
	}
	if b.UserID != req.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Booking does not belong to this user."})
		return
	}

	result := h.engine.Execute(c.Request.Context(), booking.BookingIntent{
		Intent:     string(booking.IntentCancel),
		BookingID:  bookingID,
		UserID:     req.UserID,
		BuildingID: req.BuildingID,
	})
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /v1/bookings/my?user_id=&building_id=
func (h *Handler) MyBookings(c *gin.Context) {
	h.listUserBookings(c, false)
}

// GET /v1/bookings/history?user_id=&building_id=
func (h *Handler) BookingHistory(c *gin.Context) {
	h.listUserBookings(c, true)
}

func (h *Handler) listUserBookings(c *gin.Context, history bool) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}

	bookings, err := h.engine.UserBookings(c.Request.Context(), userID, c.Query("building_id"), history)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if bookings == nil {
		bookings = []booking.UserBooking{}
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// POST /v1/admin/amenities
func (h *Handler) UpsertAmenity(c *gin.Context) {
	var req booking.AmenityUpsertRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.admin.UpsertAmenity(c.Request.Context(), req)
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// POST /v1/admin/rules
func (h *Handler) UpdateAmenityRules(c *gin.Context) {
	var req booking.AmenityRuleUpdateRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.admin.UpdateAmenityRules(c.Request.Context(), req)
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /v1/calendar/auth?user_id=
func (h *Handler) GoogleAuth(c *gin.Context) {
	if h.cal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Calendar not configured"})
		return
	}

	state := fmt.Sprintf("user_%s_%d", c.Query("user_id"), time.Now().Unix())
	c.JSON(http.StatusOK, gin.H{
		"auth_url": h.cal.AuthCodeURL(state),
		"state":    state,
	})
}

// GET /oauth2callback
func (h *Handler) GoogleOAuthCallback(c *gin.Context) {
	if h.cal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Calendar not configured"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code required"})
		return
	}

	token, err := h.cal.Exchange(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to exchange code for token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Authorization successful",
		"state":   c.Query("state"),
		"token":   token,
	})
}

// GET /v1/calendar/events?calendar_id=&time_min=&time_max=
func (h *Handler) GoogleCalendarEvents(c *gin.Context) {
	if h.cal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Calendar not configured"})
		return
	}
	raw := c.GetHeader(googleTokenHeader)
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Google token required in " + googleTokenHeader + " header"})
		return
	}
	token, err := calendar.ParseToken(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events, err := h.cal.Events(c.Request.Context(), token,
		c.DefaultQuery("calendar_id", "primary"), c.Query("time_min"), c.Query("time_max"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if events == nil {
		events = []calendar.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}
