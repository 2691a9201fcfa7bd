package service

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/kschlt/btznstn-sub003/internal/domain/booking"
	"github.com/kschlt/btznstn-sub003/internal/notify"
	"github.com/kschlt/btznstn-sub003/internal/store"
)

type SubmitInput struct {
	FirstName         string
	Email             string
	Start             time.Time
	End               time.Time
	PartySize         int
	Affiliation       booking.Party
	Description       string
	LongStayConfirmed bool
}

// Submit validates the request, claims the dates under the calendar lock
// and creates the booking together with its three approval slots and the
// initial timeline entry, all in one unit. If the requester is one of the
// approvers, their own slot is approved on the spot.
func (c *Coordinator) Submit(ctx context.Context, in SubmitInput) (*booking.Booking, error) {
	name, err := booking.ValidateFirstName(in.FirstName)
	if err != nil {
		return nil, err
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, &booking.ValidationError{Field: "requester_email", Reason: "invalid email address"}
	}
	if err := booking.ValidateDescription(in.Description); err != nil {
		return nil, err
	}
	if err := c.rules.ValidatePartySize(in.PartySize); err != nil {
		return nil, err
	}
	if !booking.ValidParty(in.Affiliation) {
		return nil, &booking.ValidationError{Field: "affiliation", Reason: "unknown affiliation"}
	}

	now := c.clock.Now()
	today := c.clock.Today()
	rng := booking.DateRange{Start: booking.ToDate(in.Start), End: booking.ToDate(in.End)}
	if err := c.rules.ValidateRange(rng, today, in.LongStayConfirmed); err != nil {
		return nil, err
	}

	b := &booking.Booking{
		ID:                 uuid.New(),
		StartDate:          rng.Start,
		EndDate:            rng.End,
		TotalDays:          rng.TotalDays(),
		PartySize:          in.PartySize,
		Affiliation:        in.Affiliation,
		Description:        in.Description,
		RequesterFirstName: name,
		RequesterEmail:     in.Email,
		Status:             booking.StatusPending,
		Round:              1,
		CreatedAt:          now,
		UpdatedAt:          now,
		LastActivityAt:     now,
	}
	for _, p := range booking.Parties() {
		b.Approvals = append(b.Approvals, booking.Approval{
			ID:        uuid.New(),
			BookingID: b.ID,
			Party:     p,
			Decision:  booking.DecisionNoResponse,
		})
	}

	var selfParty booking.Party
	err = c.store.Within(ctx, func(tx store.Tx) error {
		if err := tx.LockCalendar(ctx); err != nil {
			return err
		}
		conflicts, err := tx.Conflicts(ctx, rng, uuid.Nil)
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

		if ap, ok := c.approvers.ByEmail(in.Email); ok {
			if b.SelfApprove(ap.Party, now) {
				selfParty = ap.Party
			}
		}

		if err := tx.Insert(ctx, b); err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, &booking.TimelineEvent{
			BookingID: b.ID,
			When:      now,
			Actor:     name,
			Type:      booking.EventCreated,
		}); err != nil {
			return err
		}
		if selfParty != "" {
			if err := tx.AppendEvent(ctx, &booking.TimelineEvent{
				BookingID: b.ID,
				When:      now,
				Actor:     name,
				Type:      booking.EventSelfApproved,
				Note:      fmt.Sprintf("%s (self-approval)", selfParty),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.Info().
		Str("booking_id", b.ID.String()).
		Str("range", fmt.Sprintf("%s..%s", rng.Start.Format("2006-01-02"), rng.End.Format("2006-01-02"))).
		Msg("booking submitted")

	c.send(ctx, []notify.Intent{{
		Kind:       notify.KindSubmitted,
		BookingID:  b.ID,
		Recipients: c.approvers.NotifyEmails(),
		Data: map[string]string{
			"requester":  name,
			"start_date": rng.Start.Format("2006-01-02"),
			"end_date":   rng.End.Format("2006-01-02"),
		},
	}})
	return b, nil
}
