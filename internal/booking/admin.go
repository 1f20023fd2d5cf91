package booking

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// Admin validates and persists amenity and rule-set mutations. It shares the
// engine's store but nothing else.
type Admin struct {
	store Store
}

func NewAdmin(store Store) *Admin {
	return &Admin{store: store}
}

// UpsertAmenity creates an amenity in an existing building, or updates one in
// place when amenity_id resolves.
func (a *Admin) UpsertAmenity(ctx context.Context, req AmenityUpsertRequest) AdminActionResult {
	if err := req.validate(); err != nil {
		return adminReject(fmt.Sprintf("Invalid amenity payload: %v.", err))
	}

	var res AdminActionResult
	txErr := a.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.BuildingByID(ctx, req.BuildingID); err != nil {
			if errors.Is(err, ErrNotFound) {
				res = adminReject("Building not found.")
				return errAbortTx
			}
			return err
		}

		var amenity *Amenity
		if req.AmenityID != "" {
			existing, err := tx.AmenityByID(ctx, req.AmenityID)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			amenity = existing
		}

		if amenity != nil {
			if amenity.BuildingID != req.BuildingID {
				res = adminReject("Amenity belongs to a different building.")
				return errAbortTx
			}
			amenity.Name = req.Name
			if req.Capacity != 0 {
				amenity.Capacity = req.Capacity
			}
			amenity.IsActive = req.active()
			if err := tx.UpdateAmenity(ctx, amenity); err != nil {
				return err
			}
		} else {
			capacity := req.Capacity
			if capacity == 0 {
				capacity = 1
			}
			amenity = &Amenity{
				ID:         uuid.NewString(),
				BuildingID: req.BuildingID,
				Name:       req.Name,
				Capacity:   capacity,
				IsActive:   req.active(),
			}
			if err := tx.InsertAmenity(ctx, amenity); err != nil {
				return err
			}
		}

		res = AdminActionResult{Success: true, AmenityID: amenity.ID}
		return nil
	})
	if txErr != nil && !errors.Is(txErr, errAbortTx) {
		log.Printf("booking: amenity upsert failed: %v", txErr)
		return adminReject("Database error while upserting amenity.")
	}
	return res
}

// UpdateAmenityRules merges the present request fields into the amenity's
// rule record, creating it with defaults when absent. Cross-field invariants
// are re-validated after the merge; a violation rolls the whole mutation back.
func (a *Admin) UpdateAmenityRules(ctx context.Context, req AmenityRuleUpdateRequest) AdminActionResult {
	if err := req.validate(); err != nil {
		return adminReject(fmt.Sprintf("Invalid rule payload: %v.", err))
	}

	var res AdminActionResult
	txErr := a.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		amenity, err := tx.AmenityByID(ctx, req.AmenityID)
		if errors.Is(err, ErrNotFound) {
			res = adminReject("Amenity not found.")
			return errAbortTx
		}
		if err != nil {
			return err
		}
		if req.BuildingID != "" && req.BuildingID != amenity.BuildingID {
			res = adminReject("Amenity and building_id do not match.")
			return errAbortTx
		}

		rule, err := tx.RuleByAmenityID(ctx, req.AmenityID)
		create := errors.Is(err, ErrNotFound)
		if err != nil && !create {
			return err
		}
		if create {
			rule = defaultRule(req.AmenityID, amenity.BuildingID)
			rule.ID = uuid.NewString()
		} else {
			rule.BuildingID = amenity.BuildingID
		}

		if req.MaxCapacity != nil {
			rule.MaxCapacity = *req.MaxCapacity
		}
		if req.MaxDurationMinutes != nil {
			rule.MaxDurationMinutes = *req.MaxDurationMinutes
		}
		if req.SlotLengthMinutes != nil {
			rule.SlotLengthMinutes = *req.SlotLengthMinutes
		}
		if req.AdvanceBookingLimitDays != nil {
			rule.AdvanceBookingLimitDays = *req.AdvanceBookingLimitDays
		}
		if req.OperatingStartTime != nil {
			rule.OperatingStartTime = MustTimeOfDay(*req.OperatingStartTime)
		}
		if req.OperatingEndTime != nil {
			rule.OperatingEndTime = MustTimeOfDay(*req.OperatingEndTime)
		}
		if req.AllowOverlap != nil {
			rule.AllowOverlap = *req.AllowOverlap
		}

		if rule.MaxDurationMinutes < rule.SlotLengthMinutes {
			res = adminReject("max_duration_minutes must be greater than or equal to slot_length_minutes.")
			return errAbortTx
		}
		if rule.MaxDurationMinutes%rule.SlotLengthMinutes != 0 {
			res = adminReject("max_duration_minutes must be a multiple of slot_length_minutes.")
			return errAbortTx
		}
		if rule.OperatingStartTime >= rule.OperatingEndTime {
			res = adminReject("operating_start_time must be earlier than operating_end_time.")
			return errAbortTx
		}

		if create {
			err = tx.InsertRule(ctx, rule)
		} else {
			err = tx.UpdateRule(ctx, rule)
		}
		if err != nil {
			return err
		}

		res = AdminActionResult{Success: true, AmenityID: amenity.ID, RuleID: rule.ID}
		return nil
	})
	if txErr != nil && !errors.Is(txErr, errAbortTx) {
		log.Printf("booking: rule update failed: %v", txErr)
		return adminReject("Database error while updating rules.")
	}
	return res
}
