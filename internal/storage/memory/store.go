// Package memory holds an in-memory implementation of the booking store.
// A single mutex held for the lifetime of each unit of work serializes
// concurrent transactions, which is exactly the guarantee the engine asks of
// row locking. Backs the engine and transport tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"amenity-booking-service/internal/booking"
)

type Store struct {
	mu        sync.Mutex
	buildings map[string]booking.Building
	amenities map[string]booking.Amenity
	rules     map[string]booking.AmenityRule // keyed by amenity id
	bookings  map[string]booking.Booking
}

func New() *Store {
	return &Store{
		buildings: make(map[string]booking.Building),
		amenities: make(map[string]booking.Amenity),
		rules:     make(map[string]booking.AmenityRule),
		bookings:  make(map[string]booking.Booking),
	}
}

// PutBuilding seeds a building record. Buildings have no mutation API in the
// engine, so seeding goes through the store directly.
func (s *Store) PutBuilding(b booking.Building) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buildings[b.ID] = b
}

type snapshot struct {
	amenities map[string]booking.Amenity
	rules     map[string]booking.AmenityRule
	bookings  map[string]booking.Booking
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		amenities: make(map[string]booking.Amenity, len(s.amenities)),
		rules:     make(map[string]booking.AmenityRule, len(s.rules)),
		bookings:  make(map[string]booking.Booking, len(s.bookings)),
	}
	for k, v := range s.amenities {
		snap.amenities[k] = v
	}
	for k, v := range s.rules {
		snap.rules[k] = v
	}
	for k, v := range s.bookings {
		snap.bookings[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.amenities = snap.amenities
	s.rules = snap.rules
	s.bookings = snap.bookings
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx booking.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx, &tx{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx booking.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx, &tx{s: s})
}

// Ready satisfies the transport layer's readiness probe.
func (s *Store) Ready(ctx context.Context) error { return nil }

// tx operates on the store maps while the store mutex is held.
type tx struct {
	s *Store
}

func (t *tx) ResolveActiveAmenity(_ context.Context, name, buildingID string, _ bool) (*booking.Amenity, error) {
	for _, a := range t.s.amenities {
		if !a.IsActive || !strings.EqualFold(a.Name, name) {
			continue
		}
		if buildingID != "" && a.BuildingID != buildingID {
			continue
		}
		out := a
		return &out, nil
	}
	return nil, booking.ErrNotFound
}

func (t *tx) AmenityByID(_ context.Context, id string) (*booking.Amenity, error) {
	a, ok := t.s.amenities[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	out := a
	return &out, nil
}

func (t *tx) BuildingByID(_ context.Context, id string) (*booking.Building, error) {
	b, ok := t.s.buildings[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	out := b
	return &out, nil
}

func (t *tx) RuleByAmenityID(_ context.Context, amenityID string) (*booking.AmenityRule, error) {
	r, ok := t.s.rules[amenityID]
	if !ok {
		return nil, booking.ErrNotFound
	}
	out := r
	return &out, nil
}

func (t *tx) OverlappingBookings(_ context.Context, amenityID string, start, end time.Time, _ bool) ([]booking.Booking, error) {
	var out []booking.Booking
	for _, b := range t.s.bookings {
		if b.AmenityID != amenityID || b.Status != booking.StatusBooked {
			continue
		}
		if b.StartTime.Before(end) && b.EndTime.After(start) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (t *tx) CountOverlappingBookings(ctx context.Context, amenityID string, start, end time.Time) (int, error) {
	overlaps, err := t.OverlappingBookings(ctx, amenityID, start, end, false)
	if err != nil {
		return 0, err
	}
	return len(overlaps), nil
}

func (t *tx) BookingByID(_ context.Context, id string) (*booking.Booking, error) {
	b, ok := t.s.bookings[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	out := b
	return &out, nil
}

func (t *tx) LatestBookedBooking(_ context.Context, amenityID string, start time.Time, userID string, _ bool) (*booking.Booking, error) {
	var latest *booking.Booking
	for _, b := range t.s.bookings {
		if b.AmenityID != amenityID || b.Status != booking.StatusBooked || !b.StartTime.Equal(start) {
			continue
		}
		if userID != "" && b.UserID != userID {
			continue
		}
		if latest == nil || b.CreatedAt.After(latest.CreatedAt) {
			out := b
			latest = &out
		}
	}
	if latest == nil {
		return nil, booking.ErrNotFound
	}
	return latest, nil
}

func (t *tx) InsertBooking(_ context.Context, b *booking.Booking) error {
	t.s.bookings[b.ID] = *b
	return nil
}

func (t *tx) UpdateBookingStatus(_ context.Context, id string, status booking.BookingStatus) error {
	b, ok := t.s.bookings[id]
	if !ok {
		return booking.ErrNotFound
	}
	b.Status = status
	t.s.bookings[id] = b
	return nil
}

func (t *tx) InsertAmenity(_ context.Context, a *booking.Amenity) error {
	t.s.amenities[a.ID] = *a
	return nil
}

func (t *tx) UpdateAmenity(_ context.Context, a *booking.Amenity) error {
	if _, ok := t.s.amenities[a.ID]; !ok {
		return booking.ErrNotFound
	}
	t.s.amenities[a.ID] = *a
	return nil
}

func (t *tx) InsertRule(_ context.Context, r *booking.AmenityRule) error {
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	t.s.rules[r.AmenityID] = *r
	return nil
}

func (t *tx) UpdateRule(_ context.Context, r *booking.AmenityRule) error {
	if _, ok := t.s.rules[r.AmenityID]; !ok {
		return booking.ErrNotFound
	}
	r.UpdatedAt = time.Now().UTC()
	t.s.rules[r.AmenityID] = *r
	return nil
}

func (t *tx) ListActiveAmenities(_ context.Context, buildingID string) ([]booking.Amenity, error) {
	var out []booking.Amenity
	for _, a := range t.s.amenities {
		if a.IsActive && a.BuildingID == buildingID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (t *tx) UserBookings(_ context.Context, userID, buildingID string, history bool, now time.Time) ([]booking.UserBooking, error) {
	var out []booking.UserBooking
	for _, b := range t.s.bookings {
		if b.UserID != userID {
			continue
		}
		if buildingID != "" && b.BuildingID != buildingID {
			continue
		}
		if history {
			if b.Status != booking.StatusCancelled && !b.EndTime.Before(now) {
				continue
			}
		} else {
			if b.Status != booking.StatusBooked || b.StartTime.Before(now) {
				continue
			}
		}
		name := ""
		if a, ok := t.s.amenities[b.AmenityID]; ok {
			name = a.Name
		}
		out = append(out, booking.UserBooking{Booking: b, AmenityName: name})
	}
	if history {
		sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	}
	return out, nil
}
