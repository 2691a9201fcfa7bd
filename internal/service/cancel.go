package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/kschlt/btznstn-sub003/internal/domain/booking"
	"github.com/kschlt/btznstn-sub003/internal/notify"
	"github.com/kschlt/btznstn-sub003/internal/store"
)

// Ack reports whether a cancel actually changed anything. Canceling an
// already-canceled booking is a benign repeat, not a failure.
type Ack struct {
	Applied bool
}

// Cancel withdraws a booking. Pending and denied bookings cancel freely;
// confirmed ones require a short note from the requester.
func (c *Coordinator) Cancel(ctx context.Context, id uuid.UUID, ident Identity, note string) (Ack, error) {
	now := c.clock.Now()
	today := c.clock.Today()
	note = strings.TrimSpace(note)

	var ack Ack
	var intents []notify.Intent
	err := c.store.Within(ctx, func(tx store.Tx) error {
		b, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if ident.Role != RoleRequester || !b.IsRequester(ident.Email) {
			return &booking.AuthorizationError{Op: "cancel"}
		}
		if b.Status == booking.StatusCanceled {
			return nil // idempotent repeat
		}
		if err := b.GuardMutable(today, "cancel"); err != nil {
			return err
		}
		if b.Status == booking.StatusConfirmed && note == "" {
			return &booking.ValidationError{Field: "note", Reason: "a short reason is required to cancel a confirmed booking"}
		}

		if err := b.Transition(booking.StatusCanceled, "cancel"); err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, &booking.TimelineEvent{
			BookingID: b.ID,
			When:      now,
			Actor:     b.RequesterFirstName,
			Type:      booking.EventCanceled,
			Note:      note,
		}); err != nil {
			return err
		}
		b.Touch(now)
		if err := tx.Update(ctx, b); err != nil {
			return err
		}

		ack.Applied = true
		intents = append(intents, notify.Intent{
			Kind:       notify.KindCanceled,
			BookingID:  b.ID,
			Recipients: append(c.approvers.NotifyEmails(), b.RequesterEmail),
			Data:       map[string]string{"requester": b.RequesterFirstName, "note": note},
		})
		return nil
	})
	if err != nil {
		return Ack{}, err
	}

	c.log.Info().Str("booking_id", id.String()).Bool("applied", ack.Applied).Msg("booking canceled")
	c.send(ctx, intents)
	return ack, nil
}
