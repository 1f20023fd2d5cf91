package booking

import (
	"fmt"
	"time"
)

// IntentType is the closed set of intent kinds the engine understands. Loose
// wire aliases such as BOOK_AMENITY are folded into it by ParseIntentType.
type IntentType string

const (
	IntentBook              IntentType = "BOOK"
	IntentCancel            IntentType = "CANCEL"
	IntentCheckAvailability IntentType = "CHECK_AVAILABILITY"
)

// ParseIntentType normalizes a raw intent string. The second return value is
// false for anything outside the supported set.
func ParseIntentType(raw string) (IntentType, bool) {
	switch raw {
	case "BOOK", "BOOK_AMENITY":
		return IntentBook, true
	case "CANCEL", "CANCEL_BOOKING":
		return IntentCancel, true
	case "CHECK_AVAILABILITY":
		return IntentCheckAvailability, true
	}
	return "", false
}

type BookingStatus string

const (
	StatusBooked    BookingStatus = "BOOKED"
	StatusCancelled BookingStatus = "CANCELLED"
)

type Building struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone,omitempty"`
}

// Location resolves the building's IANA timezone, falling back to UTC when
// the zone is absent or invalid.
func (b *Building) Location() *time.Location {
	if b == nil || b.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type Amenity struct {
	ID         string `json:"amenity_id"`
	BuildingID string `json:"building_id"`
	Name       string `json:"name"`
	Capacity   int    `json:"capacity"`
	IsActive   bool   `json:"is_active"`
}

// AmenityRule holds the scheduling rules of one amenity. At most one rule
// exists per amenity (unique amenity_id).
type AmenityRule struct {
	ID                      string    `json:"rule_id"`
	BuildingID              string    `json:"building_id"`
	AmenityID               string    `json:"amenity_id"`
	MaxCapacity             int       `json:"max_capacity"`
	MaxDurationMinutes      int       `json:"max_duration_minutes"`
	SlotLengthMinutes       int       `json:"slot_length_minutes"`
	AdvanceBookingLimitDays int       `json:"advance_booking_limit_days"`
	OperatingStartTime      TimeOfDay `json:"operating_start_time"`
	OperatingEndTime        TimeOfDay `json:"operating_end_time"`
	AllowOverlap            bool      `json:"allow_overlap"`
	CreatedAt               time.Time `json:"created_at,omitempty"`
	UpdatedAt               time.Time `json:"updated_at,omitempty"`
}

// defaultRule returns a fresh rule with the stock defaults applied.
func defaultRule(amenityID, buildingID string) *AmenityRule {
	return &AmenityRule{
		AmenityID:               amenityID,
		BuildingID:              buildingID,
		MaxCapacity:             1,
		MaxDurationMinutes:      60,
		SlotLengthMinutes:       30,
		AdvanceBookingLimitDays: 7,
		OperatingStartTime:      MustTimeOfDay("06:00"),
		OperatingEndTime:        MustTimeOfDay("22:00"),
		AllowOverlap:            false,
	}
}

type Booking struct {
	ID         string        `json:"booking_id"`
	BuildingID string        `json:"building_id"`
	AmenityID  string        `json:"amenity_id"`
	UserID     string        `json:"user_id,omitempty"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	Status     BookingStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
}

// UserBooking is a booking joined with the amenity name for listing responses.
type UserBooking struct {
	Booking
	AmenityName string `json:"amenity_name"`
}

// TimeOfDay is a wall-clock time without a date, stored as minutes since
// midnight. Operating windows are TimeOfDay values.
type TimeOfDay int

// ParseTimeOfDay accepts "HH:MM", tolerating a trailing seconds component
// ("09:00:00" -> "09:00").
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) < 5 {
		return 0, fmt.Errorf("invalid time string: %s", s)
	}
	s = s[:5]
	tt, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return TimeOfDay(tt.Hour()*60 + tt.Minute()), nil
}

// MustTimeOfDay parses s or panics. For constants only.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) Hour() int    { return int(t) / 60 }
func (t TimeOfDay) Minute() int  { return int(t) % 60 }
func (t TimeOfDay) Minutes() int { return int(t) }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid time string: %s", data)
	}
	parsed, err := ParseTimeOfDay(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// On anchors the wall-clock value on the given date in loc.
func (t TimeOfDay) On(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, t.Hour(), t.Minute(), 0, 0, loc)
}
