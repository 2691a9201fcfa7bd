package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kschlt/btznstn-sub003/internal/domain/booking"
	"github.com/kschlt/btznstn-sub003/internal/notify"
	"github.com/kschlt/btznstn-sub003/internal/store"
)

// EditInput carries partial updates; nil fields stay untouched.
type EditInput struct {
	FirstName         *string
	Start             *time.Time
	End               *time.Time
	PartySize         *int
	Affiliation       *booking.Party
	Description       *string
	LongStayConfirmed bool
}

func (in EditInput) datesChanged() bool {
	return in.Start != nil || in.End != nil
}

// applyFields validates and applies the non-span fields plus the raw span
// bounds. Span-shape validation happens afterwards against today.
func applyFields(b *booking.Booking, in EditInput, rules booking.Rules) error {
	if in.FirstName != nil {
		name, err := booking.ValidateFirstName(*in.FirstName)
		if err != nil {
			return err
		}
		b.RequesterFirstName = name
	}
	if in.Description != nil {
		if err := booking.ValidateDescription(*in.Description); err != nil {
			return err
		}
		b.Description = *in.Description
	}
	if in.PartySize != nil {
		if err := rules.ValidatePartySize(*in.PartySize); err != nil {
			return err
		}
		b.PartySize = *in.PartySize
	}
	if in.Affiliation != nil {
		if !booking.ValidParty(*in.Affiliation) {
			return &booking.ValidationError{Field: "affiliation", Reason: "unknown affiliation"}
		}
		b.Affiliation = *in.Affiliation
	}
	if in.Start != nil {
		b.StartDate = booking.ToDate(*in.Start)
	}
	if in.End != nil {
		b.EndDate = booking.ToDate(*in.End)
	}
	return nil
}

// Edit applies a requester's changes. The span comparison decides the
// fate of existing approvals: widening (either bound moves outward)
// re-checks conflicts against the new span and resets all three slots for
// a new round; narrowing and pure field edits leave them alone. A
// first-name-only edit updates timestamps but writes no timeline entry.
func (c *Coordinator) Edit(ctx context.Context, id uuid.UUID, ident Identity, in EditInput) (*booking.Booking, error) {
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
			return &booking.AuthorizationError{Op: "edit"}
		}
		if err := b.GuardMutable(today, "edit"); err != nil {
			return err
		}
		if b.Status == booking.StatusDenied {
			return &booking.StateTransitionError{
				Status: b.Status,
				Op:     "edit",
				Reason: "reopen the request instead of editing it",
			}
		}

		old := b.Range()
		if err := applyFields(b, in, c.rules); err != nil {
			return err
		}

		if in.datesChanged() {
			rng := b.Range()
			if err := c.rules.ValidateRange(rng, today, in.LongStayConfirmed); err != nil {
				return err
			}
			b.TotalDays = rng.TotalDays()

			impact := booking.ClassifyEdit(old, rng)
			if impact == booking.EditWidening {
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
				// A widened confirmed booking needs its round of
				// approvals again.
				if b.Status == booking.StatusConfirmed {
					if err := b.Transition(booking.StatusPending, "edit"); err != nil {
						return err
					}
				}
				if err := tx.AppendEvent(ctx, &booking.TimelineEvent{
					BookingID: b.ID,
					When:      now,
					Actor:     b.RequesterFirstName,
					Type:      booking.EventApprovalsReset,
					Note:      "span widened",
				}); err != nil {
					return err
				}
				intents = append(intents, notify.Intent{
					Kind:       notify.KindEdited,
					BookingID:  b.ID,
					Recipients: c.approvers.NotifyEmails(),
					Data: map[string]string{
						"requester":  b.RequesterFirstName,
						"start_date": rng.Start.Format("2006-01-02"),
						"end_date":   rng.End.Format("2006-01-02"),
					},
				})
			}

			if impact != booking.EditUnchanged {
				if err := tx.AppendEvent(ctx, &booking.TimelineEvent{
					BookingID: b.ID,
					When:      now,
					Actor:     b.RequesterFirstName,
					Type:      booking.EventEdited,
					Note:      spanChangeNote(old, rng),
				}); err != nil {
					return err
				}
			}
		}

		b.Touch(now)
		if err := tx.Update(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.Info().Str("booking_id", id.String()).Msg("booking edited")
	c.send(ctx, intents)
	return out, nil
}

func spanChangeNote(old, updated booking.DateRange) string {
	return fmt.Sprintf("Dates: %s..%s -> %s..%s",
		old.Start.Format("2006-01-02"), old.End.Format("2006-01-02"),
		updated.Start.Format("2006-01-02"), updated.End.Format("2006-01-02"))
}
