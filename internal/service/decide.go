package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/kschlt/btznstn-sub003/internal/domain/booking"
	"github.com/kschlt/btznstn-sub003/internal/notify"
	"github.com/kschlt/btznstn-sub003/internal/store"
)

type DecideInput struct {
	Decision booking.Decision
	Comment  string
	// Acknowledge must be set to deny a booking that is already
	// confirmed ("are you sure" at the transport's discretion).
	Acknowledge bool
}

// Decide records one approver's decision and applies the resulting status
// transition. Concurrent decisions resolve first-action-wins: whoever
// acquires the booking's unit first is applied; a later conflicting call
// re-evaluates against the now-current slots and degrades to a no-op
// carrying the already-reached outcome, never an error.
func (c *Coordinator) Decide(ctx context.Context, id uuid.UUID, ident Identity, in DecideInput) (booking.DecisionResult, error) {
	if ident.Role != RoleApprover || !booking.ValidParty(ident.Party) {
		return booking.DecisionResult{}, &booking.AuthorizationError{Op: "decide"}
	}

	now := c.clock.Now()
	today := c.clock.Today()

	var res booking.DecisionResult
	var intents []notify.Intent
	err := c.store.Within(ctx, func(tx store.Tx) error {
		b, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := b.GuardMutable(today, "decide"); err != nil {
			return err
		}
		if b.Status == booking.StatusConfirmed && in.Decision == booking.DecisionDenied {
			// Late veto: the slot is already Approved, so the monotone
			// path would no-op. The acknowledgement flag unlocks the
			// override.
			if !in.Acknowledge {
				return &booking.StateTransitionError{
					Status: b.Status,
					Op:     "deny",
					Reason: "denying a confirmed booking requires acknowledgement",
				}
			}
			res, err = b.Veto(ident.Party, in.Comment, now)
		} else {
			res, err = b.RecordDecision(ident.Party, in.Decision, in.Comment, now)
		}
		if err != nil {
			return err
		}
		if !res.Applied {
			// Already decided, or the round is already denied. Nothing to
			// persist; the caller gets the standing outcome.
			return nil
		}

		evType := booking.EventApproved
		kind := notify.KindApproved
		if in.Decision == booking.DecisionDenied {
			evType = booking.EventDenied
			kind = notify.KindDenied
		}
		if err := tx.AppendEvent(ctx, &booking.TimelineEvent{
			BookingID: b.ID,
			When:      now,
			Actor:     string(ident.Party),
			Type:      evType,
			Note:      in.Comment,
		}); err != nil {
			return err
		}

		switch res.Outcome {
		case booking.OutcomeConfirmed:
			if err := b.Transition(booking.StatusConfirmed, "decide"); err != nil {
				return err
			}
			if err := tx.AppendEvent(ctx, &booking.TimelineEvent{
				BookingID: b.ID,
				When:      now,
				Actor:     string(ident.Party),
				Type:      booking.EventConfirmed,
				Note:      "all three parties approved",
			}); err != nil {
				return err
			}
			kind = notify.KindConfirmed
		case booking.OutcomeDenied:
			if b.Status != booking.StatusDenied {
				if err := b.Transition(booking.StatusDenied, "decide"); err != nil {
					return err
				}
			}
		}

		b.Touch(now)
		if err := tx.Update(ctx, b); err != nil {
			return err
		}

		recipients := []string{b.RequesterEmail}
		if kind == notify.KindConfirmed {
			recipients = append(recipients, c.approvers.NotifyEmails()...)
		}
		intents = append(intents, notify.Intent{
			Kind:       kind,
			BookingID:  b.ID,
			Recipients: recipients,
			Data: map[string]string{
				"party":   string(ident.Party),
				"outcome": string(res.Outcome),
			},
		})
		return nil
	})
	if err != nil {
		return booking.DecisionResult{}, err
	}

	c.log.Info().
		Str("booking_id", id.String()).
		Str("party", string(ident.Party)).
		Str("outcome", string(res.Outcome)).
		Bool("applied", res.Applied).
		Msg("decision recorded")

	c.send(ctx, intents)
	return res, nil
}
