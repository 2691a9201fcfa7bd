package booking

import "time"

// Legal status transitions. Canceled is terminal; everything non-terminal
// can reach it. Reopen is the only way out of Denied; a widening edit
// drops a confirmed booking back to pending.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusDenied, StatusCanceled},
	StatusConfirmed: {StatusPending, StatusDenied, StatusCanceled},
	StatusDenied:    {StatusPending, StatusCanceled},
	StatusCanceled:  {},
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves the booking to a new status after checking the table.
func (b *Booking) Transition(to Status, op string) error {
	if !CanTransition(b.Status, to) {
		return &StateTransitionError{Status: b.Status, Op: op, Reason: "transition not allowed"}
	}
	b.Status = to
	return nil
}

// GuardMutable is the shared guard on every user-initiated mutation: a
// booking whose span has fully elapsed is immutable. The system-initiated
// auto-cleanup is the one transition that skips this guard.
func (b *Booking) GuardMutable(today time.Time, op string) error {
	if b.Status == StatusCanceled {
		return &StateTransitionError{Status: b.Status, Op: op, Reason: "booking is canceled"}
	}
	if b.IsPast(today) {
		return &StateTransitionError{Status: b.Status, Op: op, Reason: "booking lies in the past"}
	}
	return nil
}
