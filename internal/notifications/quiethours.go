package notifications

import (
	"fmt"
	"time"
)

// QuietHoursStatus reports whether delivery is currently suppressed and,
// if so, when the window closes.
type QuietHoursStatus struct {
	InQuietHours   bool       `json:"in_quiet_hours"`
	NextActiveTime *time.Time `json:"next_active_time,omitempty"`
}

// ComputeQuietHours evaluates the [start, end) window against now,
// interpreted in the user's timezone. A window whose start is later than
// its end wraps past midnight, so 22:00-06:00 covers late evening and
// early morning. Empty bounds disable the window.
func ComputeQuietHours(start, end, timezone string, now time.Time) (QuietHoursStatus, error) {
	if start == "" || end == "" {
		return QuietHoursStatus{}, nil
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return QuietHoursStatus{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}

	startClock, err := time.Parse("15:04", start)
	if err != nil {
		return QuietHoursStatus{}, fmt.Errorf("invalid quiet hours start %q: %w", start, err)
	}
	endClock, err := time.Parse("15:04", end)
	if err != nil {
		return QuietHoursStatus{}, fmt.Errorf("invalid quiet hours end %q: %w", end, err)
	}

	local := now.In(loc)
	nowMinutes := local.Hour()*60 + local.Minute()
	startMinutes := startClock.Hour()*60 + startClock.Minute()
	endMinutes := endClock.Hour()*60 + endClock.Minute()

	var in bool
	if startMinutes <= endMinutes {
		in = nowMinutes >= startMinutes && nowMinutes < endMinutes
	} else {
		in = nowMinutes >= startMinutes || nowMinutes < endMinutes
	}
	if !in {
		return QuietHoursStatus{}, nil
	}

	// Next instant the window closes: today's end bound, or tomorrow's if
	// it has already passed.
	next := time.Date(local.Year(), local.Month(), local.Day(),
		endClock.Hour(), endClock.Minute(), 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return QuietHoursStatus{InQuietHours: true, NextActiveTime: &next}, nil
}
