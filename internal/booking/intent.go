package booking

import (
	"fmt"
	"strings"
	"time"
)

// BookingIntent is the structured request the engine consumes. The excluded
// natural-language front end is responsible for producing it; the engine never
// parses free text.
type BookingIntent struct {
	Intent          string `json:"intent"`
	Amenity         string `json:"amenity,omitempty"`
	Date            string `json:"date,omitempty"` // local date, YYYY-MM-DD
	Time            string `json:"time,omitempty"` // local wall clock, HH:MM
	BuildingID      string `json:"building_id,omitempty"`
	UserID          string `json:"user_id,omitempty"`
	BookingID       string `json:"booking_id,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
}

func (i *BookingIntent) normalize() {
	i.Intent = strings.TrimSpace(i.Intent)
	i.Amenity = strings.TrimSpace(i.Amenity)
	i.Date = strings.TrimSpace(i.Date)
	i.Time = strings.TrimSpace(i.Time)
	i.BuildingID = strings.TrimSpace(i.BuildingID)
	i.UserID = strings.TrimSpace(i.UserID)
	i.BookingID = strings.TrimSpace(i.BookingID)
}

// hasSchedule reports whether amenity, date and time are all present.
func (i *BookingIntent) hasSchedule() bool {
	return i.Amenity != "" && i.Date != "" && i.Time != ""
}

// schedule parses the intent's local date and time. The day carries the date
// only; anchoring it in a building's timezone happens later. A negative
// duration is a shape error here, not a rule rejection: it would invert the
// interval and slip past every interval-based check.
func (i *BookingIntent) schedule() (time.Time, TimeOfDay, error) {
	day, err := time.Parse("2006-01-02", i.Date)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid date %q", i.Date)
	}
	tod, err := ParseTimeOfDay(i.Time)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid time %q", i.Time)
	}
	if i.DurationMinutes < 0 {
		return time.Time{}, 0, fmt.Errorf("invalid duration_minutes %d", i.DurationMinutes)
	}
	return day, tod, nil
}

// BookingResult is the outcome of one engine operation. Reason is set on
// rejections only; an empty reason is normalized to absent.
type BookingResult struct {
	Success   bool          `json:"success"`
	Reason    string        `json:"reason,omitempty"`
	BookingID string        `json:"booking_id,omitempty"`
	Status    BookingStatus `json:"status,omitempty"`
	AmenityID string        `json:"amenity_id,omitempty"`
	StartTime *time.Time    `json:"start_time,omitempty"`
	EndTime   *time.Time    `json:"end_time,omitempty"`
	Available *bool         `json:"available,omitempty"`
}

func reject(reason string) BookingResult {
	return BookingResult{Success: false, Reason: strings.TrimSpace(reason)}
}

func rejectUnavailable(reason string) BookingResult {
	res := reject(reason)
	res.Available = boolPtr(false)
	return res
}

func boolPtr(v bool) *bool { return &v }

func timePtr(t time.Time) *time.Time { return &t }

// AmenityUpsertRequest creates or edits an amenity within a building.
type AmenityUpsertRequest struct {
	BuildingID string `json:"building_id"`
	AmenityID  string `json:"amenity_id,omitempty"`
	Name       string `json:"name"`
	Capacity   int    `json:"capacity,omitempty"` // 0 means unspecified
	IsActive   *bool  `json:"is_active,omitempty"`
}

func (r *AmenityUpsertRequest) validate() error {
	r.BuildingID = strings.TrimSpace(r.BuildingID)
	r.AmenityID = strings.TrimSpace(r.AmenityID)
	r.Name = strings.TrimSpace(r.Name)
	if r.BuildingID == "" {
		return fmt.Errorf("building_id is required")
	}
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.Capacity < 0 {
		return fmt.Errorf("capacity must be at least 1")
	}
	return nil
}

func (r *AmenityUpsertRequest) active() bool {
	if r.IsActive == nil {
		return true
	}
	return *r.IsActive
}

// AmenityRuleUpdateRequest partially updates an amenity's rule record. Nil
// fields are left untouched.
type AmenityRuleUpdateRequest struct {
	BuildingID              string  `json:"building_id,omitempty"`
	AmenityID               string  `json:"amenity_id"`
	MaxCapacity             *int    `json:"max_capacity,omitempty"`
	MaxDurationMinutes      *int    `json:"max_duration_minutes,omitempty"`
	SlotLengthMinutes       *int    `json:"slot_length_minutes,omitempty"`
	AdvanceBookingLimitDays *int    `json:"advance_booking_limit_days,omitempty"`
	OperatingStartTime      *string `json:"operating_start_time,omitempty"`
	OperatingEndTime        *string `json:"operating_end_time,omitempty"`
	AllowOverlap            *bool   `json:"allow_overlap,omitempty"`
}

func (r *AmenityRuleUpdateRequest) validate() error {
	r.AmenityID = strings.TrimSpace(r.AmenityID)
	r.BuildingID = strings.TrimSpace(r.BuildingID)
	if r.AmenityID == "" {
		return fmt.Errorf("amenity_id is required")
	}
	for name, v := range map[string]*int{
		"max_capacity":         r.MaxCapacity,
		"max_duration_minutes": r.MaxDurationMinutes,
		"slot_length_minutes":  r.SlotLengthMinutes,
	} {
		if v != nil && *v < 1 {
			return fmt.Errorf("%s must be at least 1", name)
		}
	}
	if r.AdvanceBookingLimitDays != nil && *r.AdvanceBookingLimitDays < 0 {
		return fmt.Errorf("advance_booking_limit_days must not be negative")
	}
	if r.OperatingStartTime != nil {
		if _, err := ParseTimeOfDay(*r.OperatingStartTime); err != nil {
			return fmt.Errorf("operating_start_time: %w", err)
		}
	}
	if r.OperatingEndTime != nil {
		if _, err := ParseTimeOfDay(*r.OperatingEndTime); err != nil {
			return fmt.Errorf("operating_end_time: %w", err)
		}
	}
	return nil
}

// AdminActionResult is the outcome of an admin mutation.
type AdminActionResult struct {
	Success   bool   `json:"success"`
	Reason    string `json:"reason,omitempty"`
	AmenityID string `json:"amenity_id,omitempty"`
	RuleID    string `json:"rule_id,omitempty"`
}

func adminReject(reason string) AdminActionResult {
	return AdminActionResult{Success: false, Reason: strings.TrimSpace(reason)}
}

// SlotAvailability is one open slot in a day-availability listing.
type SlotAvailability struct {
	SlotStart         TimeOfDay `json:"slot_start"`
	SlotEnd           TimeOfDay `json:"slot_end"`
	RemainingCapacity int       `json:"remaining_capacity"`
	MaxCapacity       int       `json:"max_capacity"`
}

// AmenityAvailability is the per-slot listing for one amenity on one day.
// Slots with zero remaining capacity are omitted.
type AmenityAvailability struct {
	AmenityID         string             `json:"amenity_id"`
	BuildingID        string             `json:"building_id"`
	Date              string             `json:"date"`
	SlotLengthMinutes int                `json:"slot_length_minutes"`
	Slots             []SlotAvailability `json:"slots"`
}
