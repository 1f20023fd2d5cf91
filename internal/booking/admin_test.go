package booking_test

import (
	"context"
	"testing"

	"amenity-booking-service/internal/booking"
	"amenity-booking-service/internal/storage/memory"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }

func newAdminStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	store.PutBuilding(booking.Building{ID: testBuildingID, Name: "Harbor Tower", Timezone: "UTC"})
	store.PutBuilding(booking.Building{ID: "bldg-2", Name: "River House", Timezone: "UTC"})
	return store
}

func TestUpsertAmenity_Create(t *testing.T) {
	admin := booking.NewAdmin(newAdminStore(t))

	res := admin.UpsertAmenity(context.Background(), booking.AmenityUpsertRequest{
		BuildingID: testBuildingID,
		Name:       "Rooftop Terrace",
	})
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Reason)
	}
	if res.AmenityID == "" {
		t.Fatal("expected generated amenity id")
	}
}

func TestUpsertAmenity_UpdateInPlace(t *testing.T) {
	store := newAdminStore(t)
	admin := booking.NewAdmin(store)
	ctx := context.Background()

	created := admin.UpsertAmenity(ctx, booking.AmenityUpsertRequest{
		BuildingID: testBuildingID, Name: "Gym", Capacity: 5,
	})
	if !created.Success {
		t.Fatalf("create failed: %q", created.Reason)
	}

	updated := admin.UpsertAmenity(ctx, booking.AmenityUpsertRequest{
		BuildingID: testBuildingID,
		AmenityID:  created.AmenityID,
		Name:       "Fitness Studio",
		IsActive:   boolPtr(false),
	})
	if !updated.Success {
		t.Fatalf("update failed: %q", updated.Reason)
	}
	if updated.AmenityID != created.AmenityID {
		t.Fatalf("expected same amenity id, got %s", updated.AmenityID)
	}

	err := store.View(ctx, func(ctx context.Context, tx booking.Tx) error {
		a, err := tx.AmenityByID(ctx, created.AmenityID)
		if err != nil {
			return err
		}
		if a.Name != "Fitness Studio" {
			t.Fatalf("expected renamed amenity, got %q", a.Name)
		}
		if a.IsActive {
			t.Fatal("expected amenity deactivated")
		}
		// Capacity stays when the update leaves it unspecified.
		if a.Capacity != 5 {
			t.Fatalf("expected capacity 5 preserved, got %d", a.Capacity)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("load amenity: %v", err)
	}
}

func TestUpsertAmenity_BuildingNotFound(t *testing.T) {
	admin := booking.NewAdmin(newAdminStore(t))

	res := admin.UpsertAmenity(context.Background(), booking.AmenityUpsertRequest{
		BuildingID: "no-such-building", Name: "Gym",
	})
	if res.Success || res.Reason != "Building not found." {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestUpsertAmenity_WrongBuilding(t *testing.T) {
	admin := booking.NewAdmin(newAdminStore(t))
	ctx := context.Background()

	created := admin.UpsertAmenity(ctx, booking.AmenityUpsertRequest{
		BuildingID: testBuildingID, Name: "Gym",
	})
	if !created.Success {
		t.Fatalf("create failed: %q", created.Reason)
	}

	res := admin.UpsertAmenity(ctx, booking.AmenityUpsertRequest{
		BuildingID: "bldg-2", AmenityID: created.AmenityID, Name: "Gym",
	})
	if res.Success || res.Reason != "Amenity belongs to a different building." {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestUpsertAmenity_InvalidPayload(t *testing.T) {
	admin := booking.NewAdmin(newAdminStore(t))

	res := admin.UpsertAmenity(context.Background(), booking.AmenityUpsertRequest{
		BuildingID: testBuildingID,
	})
	if res.Success || res.Reason != "Invalid amenity payload: name is required." {
		t.Fatalf("unexpected result %+v", res)
	}
}

func createAmenity(t *testing.T, admin *booking.Admin) string {
	t.Helper()
	res := admin.UpsertAmenity(context.Background(), booking.AmenityUpsertRequest{
		BuildingID: testBuildingID, Name: "Gym",
	})
	if !res.Success {
		t.Fatalf("create amenity: %q", res.Reason)
	}
	return res.AmenityID
}

func TestUpdateAmenityRules_CreateWithDefaults(t *testing.T) {
	store := newAdminStore(t)
	admin := booking.NewAdmin(store)
	ctx := context.Background()
	amenityID := createAmenity(t, admin)

	res := admin.UpdateAmenityRules(ctx, booking.AmenityRuleUpdateRequest{
		AmenityID:   amenityID,
		MaxCapacity: intPtr(3),
	})
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Reason)
	}
	if res.RuleID == "" {
		t.Fatal("expected generated rule id")
	}

	err := store.View(ctx, func(ctx context.Context, tx booking.Tx) error {
		rule, err := tx.RuleByAmenityID(ctx, amenityID)
		if err != nil {
			return err
		}
		if rule.MaxCapacity != 3 {
			t.Fatalf("expected max capacity 3, got %d", rule.MaxCapacity)
		}
		// Unset fields take the stock defaults.
		if rule.SlotLengthMinutes != 30 || rule.MaxDurationMinutes != 60 || rule.AdvanceBookingLimitDays != 7 {
			t.Fatalf("unexpected defaults %+v", rule)
		}
		if rule.OperatingStartTime.String() != "06:00" || rule.OperatingEndTime.String() != "22:00" {
			t.Fatalf("unexpected operating window %s-%s", rule.OperatingStartTime, rule.OperatingEndTime)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("load rule: %v", err)
	}
}

func TestUpdateAmenityRules_PartialUpdate(t *testing.T) {
	store := newAdminStore(t)
	admin := booking.NewAdmin(store)
	ctx := context.Background()
	amenityID := createAmenity(t, admin)

	if res := admin.UpdateAmenityRules(ctx, booking.AmenityRuleUpdateRequest{
		AmenityID: amenityID, MaxCapacity: intPtr(4),
	}); !res.Success {
		t.Fatalf("create rule: %q", res.Reason)
	}

	res := admin.UpdateAmenityRules(ctx, booking.AmenityRuleUpdateRequest{
		AmenityID:          amenityID,
		MaxDurationMinutes: intPtr(120),
	})
	if !res.Success {
		t.Fatalf("partial update failed: %q", res.Reason)
	}

	err := store.View(ctx, func(ctx context.Context, tx booking.Tx) error {
		rule, err := tx.RuleByAmenityID(ctx, amenityID)
		if err != nil {
			return err
		}
		if rule.MaxDurationMinutes != 120 {
			t.Fatalf("expected max duration 120, got %d", rule.MaxDurationMinutes)
		}
		if rule.MaxCapacity != 4 {
			t.Fatalf("expected earlier capacity preserved, got %d", rule.MaxCapacity)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("load rule: %v", err)
	}
}

func TestUpdateAmenityRules_InvariantViolations(t *testing.T) {
	admin := booking.NewAdmin(newAdminStore(t))
	ctx := context.Background()
	amenityID := createAmenity(t, admin)

	cases := []struct {
		name   string
		req    booking.AmenityRuleUpdateRequest
		reason string
	}{
		{
			name:   "duration below slot length",
			req:    booking.AmenityRuleUpdateRequest{AmenityID: amenityID, MaxDurationMinutes: intPtr(20)},
			reason: "max_duration_minutes must be greater than or equal to slot_length_minutes.",
		},
		{
			name:   "duration not a slot multiple",
			req:    booking.AmenityRuleUpdateRequest{AmenityID: amenityID, MaxDurationMinutes: intPtr(50)},
			reason: "max_duration_minutes must be a multiple of slot_length_minutes.",
		},
		{
			name: "inverted operating window",
			req: booking.AmenityRuleUpdateRequest{
				AmenityID:          amenityID,
				OperatingStartTime: strPtr("22:00"),
				OperatingEndTime:   strPtr("06:00"),
			},
			reason: "operating_start_time must be earlier than operating_end_time.",
		},
	}
	for _, tc := range cases {
		res := admin.UpdateAmenityRules(ctx, tc.req)
		if res.Success || res.Reason != tc.reason {
			t.Fatalf("%s: unexpected result %+v", tc.name, res)
		}
	}
}

func TestUpdateAmenityRules_ViolationRollsBack(t *testing.T) {
	store := newAdminStore(t)
	admin := booking.NewAdmin(store)
	ctx := context.Background()
	amenityID := createAmenity(t, admin)

	if res := admin.UpdateAmenityRules(ctx, booking.AmenityRuleUpdateRequest{
		AmenityID: amenityID, MaxCapacity: intPtr(2),
	}); !res.Success {
		t.Fatalf("create rule: %q", res.Reason)
	}

	// A rejected merge must leave the stored rule untouched.
	res := admin.UpdateAmenityRules(ctx, booking.AmenityRuleUpdateRequest{
		AmenityID:          amenityID,
		MaxCapacity:        intPtr(9),
		MaxDurationMinutes: intPtr(50),
	})
	if res.Success {
		t.Fatal("expected rejection")
	}

	err := store.View(ctx, func(ctx context.Context, tx booking.Tx) error {
		rule, err := tx.RuleByAmenityID(ctx, amenityID)
		if err != nil {
			return err
		}
		if rule.MaxCapacity != 2 || rule.MaxDurationMinutes != 60 {
			t.Fatalf("expected rule unchanged, got %+v", rule)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("load rule: %v", err)
	}
}

func TestUpdateAmenityRules_AmenityNotFound(t *testing.T) {
	admin := booking.NewAdmin(newAdminStore(t))

	res := admin.UpdateAmenityRules(context.Background(), booking.AmenityRuleUpdateRequest{
		AmenityID: "no-such-amenity",
	})
	if res.Success || res.Reason != "Amenity not found." {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestUpdateAmenityRules_BuildingMismatch(t *testing.T) {
	admin := booking.NewAdmin(newAdminStore(t))
	amenityID := createAmenity(t, admin)

	res := admin.UpdateAmenityRules(context.Background(), booking.AmenityRuleUpdateRequest{
		AmenityID:  amenityID,
		BuildingID: "bldg-2",
	})
	if res.Success || res.Reason != "Amenity and building_id do not match." {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestUpdateAmenityRules_InvalidPayload(t *testing.T) {
	admin := booking.NewAdmin(newAdminStore(t))
	amenityID := createAmenity(t, admin)

	res := admin.UpdateAmenityRules(context.Background(), booking.AmenityRuleUpdateRequest{
		AmenityID:   amenityID,
		MaxCapacity: intPtr(0),
	})
	if res.Success || res.Reason != "Invalid rule payload: max_capacity must be at least 1." {
		t.Fatalf("unexpected result %+v", res)
	}
}
