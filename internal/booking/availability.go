package booking

import "time"

// SlotWindow is one fixed-width slot in the half-open interval [Start, End).
type SlotWindow struct {
	Start time.Time
	End   time.Time
}

// SplitIntoSlots partitions [start, end) into consecutive slots of
// slotMinutes beginning at start. Returns nil when start >= end.
func SplitIntoSlots(start, end time.Time, slotMinutes int) []SlotWindow {
	var slots []SlotWindow
	slotDelta := time.Duration(slotMinutes) * time.Minute
	for cursor := start; cursor.Before(end); cursor = cursor.Add(slotDelta) {
		slots = append(slots, SlotWindow{Start: cursor, End: cursor.Add(slotDelta)})
	}
	return slots
}

// overlapsRange is the half-open interval overlap test used everywhere:
// existing.start < end AND existing.end > start.
func overlapsRange(b *Booking, start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}

// SlotsWithinCapacity reports whether every slot covering [start, end) has
// room for one more booking. A multi-slot request needs capacity in every
// covered slot, not merely over the whole interval.
func SlotsWithinCapacity(overlaps []Booking, start, end time.Time, slotMinutes, maxCapacity int) bool {
	for _, slot := range SplitIntoSlots(start, end, slotMinutes) {
		concurrent := 0
		for i := range overlaps {
			if overlapsRange(&overlaps[i], slot.Start, slot.End) {
				concurrent++
			}
		}
		if concurrent >= maxCapacity {
			return false
		}
	}
	return true
}

// availabilityReason runs the user-overlap and per-slot capacity checks over
// a pre-fetched overlap set. It returns (false, reason) on the first failure.
func availabilityReason(overlaps []Booking, rule *AmenityRule, start, end time.Time, userID string) (bool, string) {
	if userID != "" {
		for i := range overlaps {
			if overlaps[i].UserID == userID {
				return false, "User already has an overlapping booking for this amenity."
			}
		}
	}

	if !SlotsWithinCapacity(overlaps, start, end, rule.SlotLengthMinutes, rule.MaxCapacity) {
		return false, "No capacity available for one or more requested slots."
	}

	return true, ""
}
