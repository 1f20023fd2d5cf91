package booking

import (
	"fmt"
	"time"
)

// RuleCheck is the outcome of one rule evaluation. Reason is stable text that
// callers surface verbatim.
type RuleCheck struct {
	Allowed bool
	Reason  string
}

func ruleOK() RuleCheck { return RuleCheck{Allowed: true} }

func ruleFail(format string, args ...any) RuleCheck {
	return RuleCheck{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}

// ResolveDurationMinutes picks the effective booking duration. A zero request
// defaults to one slot length. The returned check rejects durations over the
// maximum or not aligned to the slot length.
func ResolveDurationMinutes(requested int, rule *AmenityRule) (int, RuleCheck) {
	duration := requested
	if duration == 0 {
		duration = rule.SlotLengthMinutes
	}

	if duration > rule.MaxDurationMinutes {
		return duration, ruleFail("Requested duration exceeds max_duration_minutes (%d).", rule.MaxDurationMinutes)
	}

	if duration%rule.SlotLengthMinutes != 0 {
		return duration, ruleFail("Duration must be a multiple of slot_length_minutes (%d).", rule.SlotLengthMinutes)
	}

	return duration, ruleOK()
}

// ComputeEndTime adds minutes to a local wall-clock instant. The addition is
// wall-clock arithmetic on the local date, not absolute-duration arithmetic.
func ComputeEndTime(start time.Time, minutes int) time.Time {
	year, month, day := start.Date()
	return time.Date(year, month, day, start.Hour(), start.Minute()+minutes, start.Second(), 0, start.Location())
}

// CheckAdvanceLimit rejects start instants in the past or beyond the advance
// booking window, both relative to now (UTC).
func CheckAdvanceLimit(startUTC time.Time, rule *AmenityRule, now time.Time) RuleCheck {
	now = now.UTC()
	if startUTC.Before(now) {
		return ruleFail("Requested time is in the past.")
	}

	latestAllowed := now.AddDate(0, 0, rule.AdvanceBookingLimitDays)
	if startUTC.After(latestAllowed) {
		return ruleFail("Requested time exceeds advance booking window (%d days).", rule.AdvanceBookingLimitDays)
	}

	return ruleOK()
}

// CheckOperatingWindow compares the wall-clock time of day of both instants
// against the rule's operating hours. Dates are ignored.
func CheckOperatingWindow(startLocal, endLocal time.Time, rule *AmenityRule) RuleCheck {
	startTOD := startLocal.Hour()*60 + startLocal.Minute()
	endTOD := endLocal.Hour()*60 + endLocal.Minute()

	if startTOD < rule.OperatingStartTime.Minutes() || endTOD > rule.OperatingEndTime.Minutes() {
		return ruleFail("Requested time is outside operating hours (%s - %s).",
			rule.OperatingStartTime, rule.OperatingEndTime)
	}

	return ruleOK()
}

// CheckSlotAlignment verifies both instants sit on slot boundaries measured
// from the operating start time anchored on the request's local date.
func CheckSlotAlignment(startLocal, endLocal time.Time, rule *AmenityRule) RuleCheck {
	year, month, day := startLocal.Date()
	anchor := rule.OperatingStartTime.On(year, month, day, startLocal.Location())

	slotSeconds := int64(rule.SlotLengthMinutes) * 60
	startOffset := naiveUnix(startLocal) - naiveUnix(anchor)
	endOffset := naiveUnix(endLocal) - naiveUnix(anchor)

	if startOffset < 0 || endOffset <= 0 {
		return ruleFail("Requested time is outside slot boundaries.")
	}

	if startOffset%slotSeconds != 0 || endOffset%slotSeconds != 0 {
		return ruleFail("Booking must align with %d-minute slot boundaries.", rule.SlotLengthMinutes)
	}

	return ruleOK()
}

// naiveUnix maps a wall-clock value to seconds as if it were UTC, so offset
// arithmetic stays stable across DST transitions on the local date.
func naiveUnix(t time.Time) int64 {
	year, month, day := t.Date()
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), 0, time.UTC).Unix()
}
