package booking

import (
	"time"

	"fadetogo/models"
)

// overlapsAny reports whether [start, end) intersects any slot other than
// the one belonging to excludeID.
func overlapsAny(slots []models.Slot, start, end time.Time, excludeID string) bool {
	for _, s := range slots {
		if excludeID != "" && s.BookingID == excludeID {
			continue
		}
		if s.Overlaps(start, end) {
			return true
		}
	}
	return false
}

// blocksCandidate reports whether a booking written concurrently with the
// candidate claims an overlapping interval. Declined and completed bookings
// never block.
func blocksCandidate(b *models.Booking, start, end time.Time, excludeID string) bool {
	if b.ID == excludeID {
		return false
	}
	if b.Status != models.StatusPending && b.Status != models.StatusAccepted {
		return false
	}
	return b.Slot().Overlaps(start, end)
}

// AvailableSlots returns start times within [windowStart, windowEnd), spaced
// by step, where a booking of the given duration overlaps no busy slot.
// Starts before now are skipped.
func AvailableSlots(windowStart, windowEnd time.Time, duration, step time.Duration, busy []models.Slot, now time.Time) []time.Time {
	if duration <= 0 || step <= 0 {
		return nil
	}
	if !windowEnd.After(windowStart) || windowStart.Add(duration).After(windowEnd) {
		return nil
	}

	var slots []time.Time
	for t := windowStart; !t.Add(duration).After(windowEnd); t = t.Add(step) {
		if t.Before(now) {
			continue
		}
		if !overlapsAny(busy, t, t.Add(duration), "") {
			slots = append(slots, t)
		}
	}
	return slots
}
