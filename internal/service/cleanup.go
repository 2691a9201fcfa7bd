package service

import (
	"context"
	"errors"

	"github.com/kschlt/btznstn-sub003/internal/domain/booking"
	"github.com/kschlt/btznstn-sub003/internal/store"
)

// AutoCleanup cancels Pending bookings whose span elapsed without a
// decision. It is a normal serialized operation per booking with no
// special priority: each candidate is re-checked under its own lock, and
// losing a race to a concurrent action simply skips the row. No past-date
// guard applies and no notifications go out; this is housekeeping, not an
// action anybody took.
func (c *Coordinator) AutoCleanup(ctx context.Context) (int, error) {
	now := c.clock.Now()
	today := c.clock.Today()

	ids, err := c.store.ListPastPending(ctx, today)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, id := range ids {
		err := c.store.Within(ctx, func(tx store.Tx) error {
			b, err := tx.Get(ctx, id)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return nil
				}
				return err
			}
			if b.Status != booking.StatusPending || !b.IsPast(today) {
				return nil
			}
			if err := b.Transition(booking.StatusCanceled, "auto-cleanup"); err != nil {
				return err
			}
			if err := tx.AppendEvent(ctx, &booking.TimelineEvent{
				BookingID: b.ID,
				When:      now,
				Actor:     booking.SystemActor,
				Type:      booking.EventAutoCanceled,
				Note:      "span elapsed without a decision",
			}); err != nil {
				return err
			}
			b.Touch(now)
			if err := tx.Update(ctx, b); err != nil {
				return err
			}
			count++
			return nil
		})
		if err != nil {
			c.log.Warn().Err(err).Str("booking_id", id.String()).Msg("auto-cleanup skipped booking")
		}
	}

	if count > 0 {
		c.log.Info().Int("count", count).Msg("auto-cleanup canceled stale bookings")
	}
	return count, nil
}
