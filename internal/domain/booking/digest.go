package booking

import (
	"sort"
	"time"
)

// DigestItems selects the bookings worth nagging one party about: still
// Pending, that party's slot still NoResponse, submitted at least
// afterDays calendar days ago (day zero being the submission day), and
// not yet fully elapsed. Sorted by soonest start. Callers must suppress
// dispatch entirely when the result is empty.
func DigestItems(all []Booking, p Party, today time.Time, afterDays int) []Booking {
	var out []Booking
	for i := range all {
		b := all[i]
		if b.Status != StatusPending {
			continue
		}
		slot := b.ApprovalFor(p)
		if slot == nil || slot.Decision != DecisionNoResponse {
			continue
		}
		if DaysSince(b.CreatedAt, today) < afterDays {
			continue
		}
		if b.IsPast(today) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out
}
