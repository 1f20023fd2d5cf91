package booking

import (
	"testing"
	"time"
)

func testRule() *AmenityRule {
	return &AmenityRule{
		MaxCapacity:             2,
		MaxDurationMinutes:      60,
		SlotLengthMinutes:       30,
		AdvanceBookingLimitDays: 7,
		OperatingStartTime:      MustTimeOfDay("06:00"),
		OperatingEndTime:        MustTimeOfDay("22:00"),
	}
}

func TestResolveDurationMinutes_DefaultsToSlotLength(t *testing.T) {
	duration, check := ResolveDurationMinutes(0, testRule())
	if !check.Allowed {
		t.Fatalf("expected allowed, got %q", check.Reason)
	}
	if duration != 30 {
		t.Fatalf("expected default duration 30, got %d", duration)
	}
}

func TestResolveDurationMinutes_ExceedsMax(t *testing.T) {
	_, check := ResolveDurationMinutes(90, testRule())
	if check.Allowed {
		t.Fatal("expected rejection for 90 minutes")
	}
	if check.Reason != "Requested duration exceeds max_duration_minutes (60)." {
		t.Fatalf("unexpected reason %q", check.Reason)
	}
}

func TestResolveDurationMinutes_NotMultiple(t *testing.T) {
	_, check := ResolveDurationMinutes(45, testRule())
	if check.Allowed {
		t.Fatal("expected rejection for 45 minutes")
	}
	if check.Reason != "Duration must be a multiple of slot_length_minutes (30)." {
		t.Fatalf("unexpected reason %q", check.Reason)
	}
}

func TestResolveDurationMinutes_MaxAccepted(t *testing.T) {
	duration, check := ResolveDurationMinutes(60, testRule())
	if !check.Allowed {
		t.Fatalf("expected allowed, got %q", check.Reason)
	}
	if duration != 60 {
		t.Fatalf("expected duration 60, got %d", duration)
	}
}

func TestComputeEndTime(t *testing.T) {
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	end := ComputeEndTime(start, 90)
	want := time.Date(2026, 3, 10, 11, 30, 0, 0, time.UTC)
	if !end.Equal(want) {
		t.Fatalf("expected %v, got %v", want, end)
	}

	// Wall-clock addition across midnight normalizes the date.
	late := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	if got := ComputeEndTime(late, 60); got.Day() != 11 || got.Hour() != 0 || got.Minute() != 30 {
		t.Fatalf("expected next-day 00:30, got %v", got)
	}
}

func TestCheckAdvanceLimit(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rule := testRule()

	if check := CheckAdvanceLimit(now.Add(-time.Hour), rule, now); check.Allowed {
		t.Fatal("expected past start rejected")
	} else if check.Reason != "Requested time is in the past." {
		t.Fatalf("unexpected reason %q", check.Reason)
	}

	eightDays := now.AddDate(0, 0, 8)
	if check := CheckAdvanceLimit(eightDays, rule, now); check.Allowed {
		t.Fatal("expected start beyond window rejected")
	} else if check.Reason != "Requested time exceeds advance booking window (7 days)." {
		t.Fatalf("unexpected reason %q", check.Reason)
	}

	if check := CheckAdvanceLimit(now.AddDate(0, 0, 3), rule, now); !check.Allowed {
		t.Fatalf("expected allowed, got %q", check.Reason)
	}
}

func TestCheckOperatingWindow(t *testing.T) {
	rule := testRule()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	at := func(h, m int) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, time.UTC)
	}

	if check := CheckOperatingWindow(at(10, 0), at(11, 0), rule); !check.Allowed {
		t.Fatalf("expected 10:00-11:00 allowed, got %q", check.Reason)
	}
	// Closing-time boundary is inclusive.
	if check := CheckOperatingWindow(at(21, 0), at(22, 0), rule); !check.Allowed {
		t.Fatalf("expected 21:00-22:00 allowed, got %q", check.Reason)
	}

	if check := CheckOperatingWindow(at(5, 30), at(6, 30), rule); check.Allowed {
		t.Fatal("expected early start rejected")
	} else if check.Reason != "Requested time is outside operating hours (06:00 - 22:00)." {
		t.Fatalf("unexpected reason %q", check.Reason)
	}

	if check := CheckOperatingWindow(at(21, 30), at(22, 30), rule); check.Allowed {
		t.Fatal("expected late end rejected")
	}
}

func TestCheckSlotAlignment(t *testing.T) {
	rule := testRule()
	at := func(h, m int) time.Time {
		return time.Date(2026, 3, 10, h, m, 0, 0, time.UTC)
	}

	if check := CheckSlotAlignment(at(6, 0), at(7, 0), rule); !check.Allowed {
		t.Fatalf("expected 06:00-07:00 aligned, got %q", check.Reason)
	}

	if check := CheckSlotAlignment(at(6, 15), at(7, 0), rule); check.Allowed {
		t.Fatal("expected 06:15 start rejected")
	} else if check.Reason != "Booking must align with 30-minute slot boundaries." {
		t.Fatalf("unexpected reason %q", check.Reason)
	}

	if check := CheckSlotAlignment(at(5, 30), at(6, 30), rule); check.Allowed {
		t.Fatal("expected start before anchor rejected")
	} else if check.Reason != "Requested time is outside slot boundaries." {
		t.Fatalf("unexpected reason %q", check.Reason)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("09:30")
	if err != nil {
		t.Fatalf("expected parse, got %v", err)
	}
	if tod.Minutes() != 9*60+30 {
		t.Fatalf("expected 570 minutes, got %d", tod.Minutes())
	}

	// Trailing seconds are tolerated.
	if _, err := ParseTimeOfDay("09:00:00.000000"); err != nil {
		t.Fatalf("expected tolerant parse, got %v", err)
	}

	if _, err := ParseTimeOfDay("9am"); err == nil {
		t.Fatal("expected parse failure")
	}
	if _, err := ParseTimeOfDay(""); err == nil {
		t.Fatal("expected parse failure for empty string")
	}
}

func TestParseIntentType(t *testing.T) {
	cases := map[string]IntentType{
		"BOOK":               IntentBook,
		"BOOK_AMENITY":       IntentBook,
		"CANCEL":             IntentCancel,
		"CANCEL_BOOKING":     IntentCancel,
		"CHECK_AVAILABILITY": IntentCheckAvailability,
	}
	for raw, want := range cases {
		got, ok := ParseIntentType(raw)
		if !ok || got != want {
			t.Fatalf("ParseIntentType(%q) = %q, %v; want %q", raw, got, ok, want)
		}
	}
	if _, ok := ParseIntentType("ORDER_PIZZA"); ok {
		t.Fatal("expected unknown intent rejected")
	}
}
