package booking

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by lookups when no matching record exists.
// Implementations map their own no-rows condition to it.
var ErrNotFound = errors.New("record not found")

// errAbortTx forces a rollback after a business rejection. It never leaves
// the engine; callers of Store.WithTx treat it as a clean abort.
var errAbortTx = errors.New("abort transaction")

// Tx is one unit of work against the durable records. Methods taking a lock
// flag must, when it is set, hold exclusive row access until the unit of work
// ends, so that concurrent attempts against the same amenity serialize.
type Tx interface {
	// ResolveActiveAmenity finds an active amenity by case-insensitive name,
	// optionally scoped to a building. ErrNotFound when absent.
	ResolveActiveAmenity(ctx context.Context, name, buildingID string, lock bool) (*Amenity, error)
	AmenityByID(ctx context.Context, id string) (*Amenity, error)
	BuildingByID(ctx context.Context, id string) (*Building, error)
	RuleByAmenityID(ctx context.Context, amenityID string) (*AmenityRule, error)

	// OverlappingBookings returns BOOKED bookings of the amenity whose
	// interval overlaps [start, end) under the half-open test.
	OverlappingBookings(ctx context.Context, amenityID string, start, end time.Time, lock bool) ([]Booking, error)
	CountOverlappingBookings(ctx context.Context, amenityID string, start, end time.Time) (int, error)

	BookingByID(ctx context.Context, id string) (*Booking, error)
	// LatestBookedBooking finds the most recently created BOOKED booking for
	// the amenity starting exactly at start, optionally filtered by user.
	LatestBookedBooking(ctx context.Context, amenityID string, start time.Time, userID string, lock bool) (*Booking, error)
	InsertBooking(ctx context.Context, b *Booking) error
	UpdateBookingStatus(ctx context.Context, id string, status BookingStatus) error

	InsertAmenity(ctx context.Context, a *Amenity) error
	UpdateAmenity(ctx context.Context, a *Amenity) error
	InsertRule(ctx context.Context, r *AmenityRule) error
	UpdateRule(ctx context.Context, r *AmenityRule) error

	ListActiveAmenities(ctx context.Context, buildingID string) ([]Amenity, error)
	// UserBookings lists a user's bookings joined with amenity names. With
	// history false: BOOKED and starting at or after now, ascending. With
	// history true: cancelled or already ended, descending.
	UserBookings(ctx context.Context, userID, buildingID string, history bool, now time.Time) ([]UserBooking, error)
}

// Store provides transactional access to the shared calendar. WithTx commits
// when fn returns nil and rolls back otherwise; View runs fn without write
// intent and without honoring lock flags.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
