package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kschlt/btznstn-sub003/internal/domain/booking"
	"github.com/kschlt/btznstn-sub003/internal/notify"
)

// Read-only queries. These observe committed state only and take no
// locks.

func (c *Coordinator) Get(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return c.store.Get(ctx, id)
}

func (c *Coordinator) Timeline(ctx context.Context, id uuid.UUID) ([]booking.TimelineEvent, error) {
	return c.store.Events(ctx, id)
}

// Calendar lists Pending/Confirmed bookings overlapping the given month,
// soonest first.
func (c *Coordinator) Calendar(ctx context.Context, year int, month time.Month) ([]booking.Booking, error) {
	first := booking.Date(year, month, 1)
	last := first.AddDate(0, 1, -1)
	return c.store.ListOverlapping(ctx, booking.DateRange{Start: first, End: last})
}

func (c *Coordinator) ByRequester(ctx context.Context, email string, limit int) ([]booking.Booking, error) {
	return c.store.ListByRequester(ctx, email, limit)
}

// Outstanding lists Pending bookings still awaiting this party's
// decision, most recent activity first.
func (c *Coordinator) Outstanding(ctx context.Context, p booking.Party) ([]booking.Booking, error) {
	if !booking.ValidParty(p) {
		return nil, &booking.AuthorizationError{Op: "list outstanding"}
	}
	return c.store.ListPendingForParty(ctx, p)
}

// History lists everything the party was ever asked about, any status.
func (c *Coordinator) History(ctx context.Context, p booking.Party, limit int) ([]booking.Booking, error) {
	if !booking.ValidParty(p) {
		return nil, &booking.AuthorizationError{Op: "list history"}
	}
	return c.store.ListByParty(ctx, p, limit)
}

// DigestItems selects what the periodic reminder for one party should
// contain, given "now". Empty result means: send nothing.
func (c *Coordinator) DigestItems(ctx context.Context, p booking.Party, now time.Time) ([]booking.Booking, error) {
	if !booking.ValidParty(p) {
		return nil, &booking.AuthorizationError{Op: "digest"}
	}
	all, err := c.store.ListPendingForParty(ctx, p)
	if err != nil {
		return nil, err
	}
	return booking.DigestItems(all, p, booking.ToDate(now), c.rules.DigestAfterDays), nil
}

// DispatchDigests computes every approver's digest and hands non-empty
// ones to the dispatcher. Returns how many digests went out.
func (c *Coordinator) DispatchDigests(ctx context.Context, now time.Time) (int, error) {
	sent := 0
	for _, ap := range c.approvers {
		if !ap.Notify {
			continue
		}
		items, err := c.DigestItems(ctx, ap.Party, now)
		if err != nil {
			return sent, err
		}
		if len(items) == 0 {
			continue
		}
		data := map[string]string{"count": strconv.Itoa(len(items))}
		for i, b := range items {
			if i >= 5 {
				break
			}
			data["item_"+strconv.Itoa(i)] = b.StartDate.Format("2006-01-02") + " " + b.RequesterFirstName
		}
		c.send(ctx, []notify.Intent{{
			Kind:       notify.KindDigest,
			BookingID:  items[0].ID,
			Recipients: []string{ap.Email},
			Data:       data,
		}})
		sent++
	}
	return sent, nil
}
