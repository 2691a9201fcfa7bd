package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/kschlt/btznstn-sub003/internal/domain/booking"
	"github.com/kschlt/btznstn-sub003/internal/notify"
	"github.com/kschlt/btznstn-sub003/internal/store"
)

// Reopen puts a denied booking back in front of the approvers, optionally
// with changed fields or a moved span. The conflict check runs against
// whatever the span is after the changes: dates freed up since the denial
// can be re-claimed, dates taken in the meantime block the reopen. All
// three slots reset for a fresh round; the old round's decisions live on
// only in the timeline.
func (c *Coordinator) Reopen(ctx context.Context, id uuid.UUID, ident Identity, in EditInput) (*booking.Booking, error) {
	now := c.clock.Now()
	today := c.clock.Today()

	var out *booking.Booking
	var intents []notify.Intent
	err := c.store.Within(ctx, func(tx store.Tx) error {
		b, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if ident.Role != RoleRequester || !b.IsRequester(ident.Email) {
			return &booking.AuthorizationError{Op: "reopen"}
		}
		if b.Status != booking.StatusDenied {
			return &booking.StateTransitionError{
				Status: b.Status,
				Op:     "reopen",
				Reason: "only denied bookings can be reopened",
			}
		}
		if err := b.GuardMutable(today, "reopen"); err != nil {
			return err
		}

		old := b.Range()
		if err := applyFields(b, in, c.rules); err != nil {
			return err
		}
		rng := b.Range()
		// An unchanged span was acknowledged at submission; only a new
		// long span needs the confirmation again.
		longStayOK := in.LongStayConfirmed || !in.datesChanged()
		if err := c.rules.ValidateRange(rng, today, longStayOK); err != nil {
			return err
		}
		b.TotalDays = rng.TotalDays()

		if err := tx.LockCalendar(ctx); err != nil {
			return err
		}
		conflicts, err := tx.Conflicts(ctx, rng, b.ID)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			first := conflicts[0]
			return &booking.ConflictError{
				BookingID: first.ID.String(),
				Requester: first.Requester,
				Status:    first.Status,
			}
		}

		b.ResetApprovals()
		if err := b.Transition(booking.StatusPending, "reopen"); err != nil {
			return err
		}

		note := ""
		if in.datesChanged() && booking.ClassifyEdit(old, rng) != booking.EditUnchanged {
			note = spanChangeNote(old, rng)
		}
		if err := tx.AppendEvent(ctx, &booking.TimelineEvent{
			BookingID: b.ID,
			When:      now,
			Actor:     b.RequesterFirstName,
			Type:      booking.EventReopened,
			Note:      note,
		}); err != nil {
			return err
		}

		b.Touch(now)
		if err := tx.Update(ctx, b); err != nil {
			return err
		}
		out = b

		intents = append(intents, notify.Intent{
			Kind:       notify.KindReopened,
			BookingID:  b.ID,
			Recipients: c.approvers.NotifyEmails(),
			Data: map[string]string{
				"requester":  b.RequesterFirstName,
				"start_date": rng.Start.Format("2006-01-02"),
				"end_date":   rng.End.Format("2006-01-02"),
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.Info().Str("booking_id", id.String()).Msg("booking reopened")
	c.send(ctx, intents)
	return out, nil
}
