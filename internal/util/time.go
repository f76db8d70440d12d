package util

import "time"

// CutoffFor returns hour:00 of now's calendar day in loc. Commands delivered
// before it are treated as leftovers from the previous round.
func CutoffFor(now time.Time, hour int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
}

// IsBeforeCutoff reports whether delivered precedes today's cutoff.
func IsBeforeCutoff(delivered, now time.Time, hour int, loc *time.Location) bool {
	return delivered.Before(CutoffFor(now, hour, loc))
}
