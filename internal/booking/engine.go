package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Listing errors surfaced to the transport layer.
var (
	ErrRulesNotConfigured = errors.New("amenity rules are not configured")
	ErrBuildingMismatch   = errors.New("amenity and building_id do not match")
)

// Engine turns validated booking intents into committed or rejected state
// changes against the shared calendar. It holds no state across calls; every
// operation reads fresh records inside its own unit of work.
type Engine struct {
	store Store
	now   func() time.Time
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// Execute dispatches an intent to the matching operation. Every path returns
// a result value; no error escapes.
func (e *Engine) Execute(ctx context.Context, intent BookingIntent) BookingResult {
	intent.normalize()

	kind, ok := ParseIntentType(intent.Intent)
	if !ok {
		return rejectUnavailable("Unsupported intent.")
	}

	switch kind {
	case IntentCancel:
		return e.cancelBooking(ctx, intent)
	case IntentCheckAvailability:
		return e.checkAvailability(ctx, intent)
	default:
		return e.createBooking(ctx, intent)
	}
}

func (e *Engine) createBooking(ctx context.Context, intent BookingIntent) BookingResult {
	if !intent.hasSchedule() {
		return reject("Missing amenity/date/time for booking intent.")
	}
	day, tod, err := intent.schedule()
	if err != nil {
		return reject(fmt.Sprintf("Invalid intent payload: %v.", err))
	}

	var res BookingResult
	txErr := e.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		amenity, err := tx.ResolveActiveAmenity(ctx, intent.Amenity, intent.BuildingID, true)
		if errors.Is(err, ErrNotFound) {
			res = reject("Amenity not found or inactive.")
			return errAbortTx
		}
		if err != nil {
			return err
		}

		rule, err := tx.RuleByAmenityID(ctx, amenity.ID)
		if errors.Is(err, ErrNotFound) {
			res = reject("Amenity rules are not configured.")
			return errAbortTx
		}
		if err != nil {
			return err
		}

		loc, err := e.buildingLocation(ctx, tx, amenity.BuildingID)
		if err != nil {
			return err
		}

		startLocal := tod.On(day.Year(), day.Month(), day.Day(), loc)
		startUTC := startLocal.UTC()

		duration, check := ResolveDurationMinutes(intent.DurationMinutes, rule)
		if !check.Allowed {
			res = reject(check.Reason)
			return errAbortTx
		}

		endLocal := ComputeEndTime(startLocal, duration)
		endUTC := endLocal.UTC()

		if check := CheckAdvanceLimit(startUTC, rule, e.now()); !check.Allowed {
			res = reject(check.Reason)
			return errAbortTx
		}
		if check := CheckOperatingWindow(startLocal, endLocal, rule); !check.Allowed {
			res = reject(check.Reason)
			return errAbortTx
		}
		if check := CheckSlotAlignment(startLocal, endLocal, rule); !check.Allowed {
			res = reject(check.Reason)
			return errAbortTx
		}

		overlaps, err := tx.OverlappingBookings(ctx, amenity.ID, startUTC, endUTC, true)
		if err != nil {
			return err
		}
		if ok, reason := availabilityReason(overlaps, rule, startUTC, endUTC, intent.UserID); !ok {
			res = reject(reason)
			return errAbortTx
		}

		b := &Booking{
			ID:         uuid.NewString(),
			BuildingID: amenity.BuildingID,
			AmenityID:  amenity.ID,
			UserID:     intent.UserID,
			StartTime:  startUTC,
			EndTime:    endUTC,
			Status:     StatusBooked,
			CreatedAt:  e.now().UTC(),
		}
		if err := tx.InsertBooking(ctx, b); err != nil {
			return err
		}

		res = BookingResult{
			Success:   true,
			BookingID: b.ID,
			Status:    StatusBooked,
			AmenityID: amenity.ID,
			StartTime: timePtr(startUTC),
			EndTime:   timePtr(endUTC),
			Available: boolPtr(true),
		}
		return nil
	})
	if txErr != nil && !errors.Is(txErr, errAbortTx) {
		log.Printf("booking: create failed: %v", txErr)
		return reject("Database error while creating booking.")
	}
	return res
}

func (e *Engine) cancelBooking(ctx context.Context, intent BookingIntent) BookingResult {
	var (
		day time.Time
		tod TimeOfDay
	)
	if intent.BookingID == "" {
		if !intent.hasSchedule() {
			return reject("Missing amenity/date/time for cancel intent.")
		}
		var err error
		day, tod, err = intent.schedule()
		if err != nil {
			return reject(fmt.Sprintf("Invalid intent payload: %v.", err))
		}
	}

	var res BookingResult
	txErr := e.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var target *Booking

		if intent.BookingID != "" {
			b, err := tx.BookingByID(ctx, intent.BookingID)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			if b != nil && intent.UserID != "" && b.UserID != intent.UserID {
				res = reject("Booking does not belong to this user.")
				return errAbortTx
			}
			target = b
		} else {
			amenity, err := tx.ResolveActiveAmenity(ctx, intent.Amenity, intent.BuildingID, true)
			if errors.Is(err, ErrNotFound) {
				res = reject("Amenity not found.")
				return errAbortTx
			}
			if err != nil {
				return err
			}

			loc, err := e.buildingLocation(ctx, tx, amenity.BuildingID)
			if err != nil {
				return err
			}
			startUTC := tod.On(day.Year(), day.Month(), day.Day(), loc).UTC()

			b, err := tx.LatestBookedBooking(ctx, amenity.ID, startUTC, intent.UserID, true)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			target = b
		}

		if target == nil {
			res = reject("Booking not found.")
			return errAbortTx
		}
		if target.Status == StatusCancelled {
			res = reject("Booking already cancelled.")
			return errAbortTx
		}

		if err := tx.UpdateBookingStatus(ctx, target.ID, StatusCancelled); err != nil {
			return err
		}

		res = BookingResult{
			Success:   true,
			BookingID: target.ID,
			Status:    StatusCancelled,
			AmenityID: target.AmenityID,
			StartTime: timePtr(target.StartTime),
			EndTime:   timePtr(target.EndTime),
			Available: boolPtr(true),
		}
		return nil
	})
	if txErr != nil && !errors.Is(txErr, errAbortTx) {
		log.Printf("booking: cancel failed: %v", txErr)
		return reject("Database error while cancelling booking.")
	}
	return res
}

// checkAvailability runs the same resolution and rule pipeline as create but
// takes no locks and writes nothing.
func (e *Engine) checkAvailability(ctx context.Context, intent BookingIntent) BookingResult {
	if !intent.hasSchedule() {
		return rejectUnavailable("Missing amenity/date/time for availability intent.")
	}
	day, tod, err := intent.schedule()
	if err != nil {
		return rejectUnavailable(fmt.Sprintf("Invalid intent payload: %v.", err))
	}

	var res BookingResult
	viewErr := e.store.View(ctx, func(ctx context.Context, tx Tx) error {
		amenity, err := tx.ResolveActiveAmenity(ctx, intent.Amenity, intent.BuildingID, false)
		if errors.Is(err, ErrNotFound) {
			res = rejectUnavailable("Amenity not found or inactive.")
			return nil
		}
		if err != nil {
			return err
		}

		rule, err := tx.RuleByAmenityID(ctx, amenity.ID)
		if errors.Is(err, ErrNotFound) {
			res = rejectUnavailable("Amenity rules are not configured.")
			return nil
		}
		if err != nil {
			return err
		}

		loc, err := e.buildingLocation(ctx, tx, amenity.BuildingID)
		if err != nil {
			return err
		}
		startLocal := tod.On(day.Year(), day.Month(), day.Day(), loc)
		startUTC := startLocal.UTC()

		duration, check := ResolveDurationMinutes(intent.DurationMinutes, rule)
		if !check.Allowed {
			res = rejectUnavailable(check.Reason)
			return nil
		}

		endLocal := ComputeEndTime(startLocal, duration)
		endUTC := endLocal.UTC()

		for _, check := range []RuleCheck{
			CheckAdvanceLimit(startUTC, rule, e.now()),
			CheckOperatingWindow(startLocal, endLocal, rule),
			CheckSlotAlignment(startLocal, endLocal, rule),
		} {
			if !check.Allowed {
				res = rejectUnavailable(check.Reason)
				return nil
			}
		}

		overlaps, err := tx.OverlappingBookings(ctx, amenity.ID, startUTC, endUTC, false)
		if err != nil {
			return err
		}
		available, reason := availabilityReason(overlaps, rule, startUTC, endUTC, intent.UserID)

		res = BookingResult{
			Success:   available,
			Reason:    reason,
			AmenityID: amenity.ID,
			StartTime: timePtr(startUTC),
			EndTime:   timePtr(endUTC),
			Available: boolPtr(available),
		}
		return nil
	})
	if viewErr != nil {
		log.Printf("booking: availability check failed: %v", viewErr)
		return rejectUnavailable("Database error while checking availability.")
	}
	return res
}

// buildingLocation loads the amenity's building and resolves its timezone.
// A missing building falls back to UTC, matching the missing-zone rule.
func (e *Engine) buildingLocation(ctx context.Context, tx Tx, buildingID string) (*time.Location, error) {
	building, err := tx.BuildingByID(ctx, buildingID)
	if errors.Is(err, ErrNotFound) {
		return time.UTC, nil
	}
	if err != nil {
		return nil, err
	}
	return building.Location(), nil
}

// ListAmenities returns the active amenities of a building, name-sorted.
func (e *Engine) ListAmenities(ctx context.Context, buildingID string) ([]Amenity, error) {
	var out []Amenity
	err := e.store.View(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.ListActiveAmenities(ctx, buildingID)
		return err
	})
	return out, err
}

// AmenityAvailability lists the open slots of one amenity over its operating
// window on the given local day. Full slots are omitted.
func (e *Engine) AmenityAvailability(ctx context.Context, amenityID, buildingID, day string) (*AmenityAvailability, error) {
	date, err := time.Parse("2006-01-02", day)
	if err != nil {
		return nil, fmt.Errorf("invalid day %q", day)
	}

	var out *AmenityAvailability
	viewErr := e.store.View(ctx, func(ctx context.Context, tx Tx) error {
		amenity, err := tx.AmenityByID(ctx, amenityID)
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if !amenity.IsActive {
			return ErrNotFound
		}
		if amenity.BuildingID != buildingID {
			return ErrBuildingMismatch
		}

		rule, err := tx.RuleByAmenityID(ctx, amenity.ID)
		if errors.Is(err, ErrNotFound) {
			return ErrRulesNotConfigured
		}
		if err != nil {
			return err
		}

		loc, err := e.buildingLocation(ctx, tx, amenity.BuildingID)
		if err != nil {
			return err
		}

		dayStart := rule.OperatingStartTime.On(date.Year(), date.Month(), date.Day(), loc)
		dayEnd := rule.OperatingEndTime.On(date.Year(), date.Month(), date.Day(), loc)

		var open []SlotAvailability
		for _, slot := range SplitIntoSlots(dayStart, dayEnd, rule.SlotLengthMinutes) {
			count, err := tx.CountOverlappingBookings(ctx, amenity.ID, slot.Start.UTC(), slot.End.UTC())
			if err != nil {
				return err
			}
			remaining := rule.MaxCapacity - count
			if remaining <= 0 {
				continue
			}
			open = append(open, SlotAvailability{
				SlotStart:         todOf(slot.Start),
				SlotEnd:           todOf(slot.End),
				RemainingCapacity: remaining,
				MaxCapacity:       rule.MaxCapacity,
			})
		}

		out = &AmenityAvailability{
			AmenityID:         amenity.ID,
			BuildingID:        amenity.BuildingID,
			Date:              day,
			SlotLengthMinutes: rule.SlotLengthMinutes,
			Slots:             open,
		}
		return nil
	})
	if viewErr != nil {
		return nil, viewErr
	}
	return out, nil
}

// UserBookings lists a user's upcoming bookings, or their cancelled-and-past
// history when history is set.
func (e *Engine) UserBookings(ctx context.Context, userID, buildingID string, history bool) ([]UserBooking, error) {
	var out []UserBooking
	err := e.store.View(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.UserBookings(ctx, userID, buildingID, history, e.now().UTC())
		return err
	})
	return out, err
}

// BookingByID loads one booking for transport-layer ownership checks.
func (e *Engine) BookingByID(ctx context.Context, id string) (*Booking, error) {
	var out *Booking
	err := e.store.View(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.BookingByID(ctx, id)
		return err
	})
	return out, err
}

// todOf extracts the wall-clock time of day of a local instant.
func todOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}
