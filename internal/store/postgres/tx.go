package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/kschlt/btznstn-sub003/internal/domain/booking"
	"github.com/kschlt/btznstn-sub003/internal/store"
)

// calendarLockKey is the advisory-lock key shared by all date-claiming
// units. Transaction-scoped, so it releases on commit or rollback.
const calendarLockKey = int64(0x62747a6e) // "btzn"

type tx struct {
	q querier
}

var _ store.Tx = (*tx)(nil)

func (t *tx) Get(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return getBooking(ctx, t.q, id, true)
}

func (t *tx) LockCalendar(ctx context.Context) error {
	_, err := t.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, calendarLockKey)
	return err
}

func (t *tx) Conflicts(ctx context.Context, r booking.DateRange, exclude uuid.UUID) ([]store.Conflict, error) {
	rows, err := t.q.Query(ctx, `
SELECT id, requester_first_name, status
FROM bookings
WHERE status IN ('Pending','Confirmed')
  AND start_date <= $1 AND end_date >= $2
  AND id <> $3
ORDER BY start_date`, r.End, r.Start, exclude)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Conflict
	for rows.Next() {
		var c store.Conflict
		if err := rows.Scan(&c.ID, &c.Requester, &c.Status); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (t *tx) Insert(ctx context.Context, b *booking.Booking) error {
	_, err := t.q.Exec(ctx, `
INSERT INTO bookings (id, start_date, end_date, total_days, party_size, affiliation,
	requester_first_name, requester_email, description, status, round,
	created_at, updated_at, last_activity_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		b.ID, b.StartDate, b.EndDate, b.TotalDays, b.PartySize, b.Affiliation,
		b.RequesterFirstName, b.RequesterEmail, b.Description, b.Status, b.Round,
		b.CreatedAt, b.UpdatedAt, b.LastActivityAt,
	)
	if err != nil {
		return err
	}
	for i := range b.Approvals {
		a := &b.Approvals[i]
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		if _, err := t.q.Exec(ctx, `
INSERT INTO approvals (id, booking_id, party, decision, comment, decided_at)
VALUES ($1,$2,$3,$4,$5,$6)`,
			a.ID, a.BookingID, a.Party, a.Decision, a.Comment, a.DecidedAt); err != nil {
			return err
		}
	}
	return nil
}

func (t *tx) Update(ctx context.Context, b *booking.Booking) error {
	tag, err := t.q.Exec(ctx, `
UPDATE bookings
SET start_date=$2, end_date=$3, total_days=$4, party_size=$5, affiliation=$6,
	requester_first_name=$7, description=$8, status=$9, round=$10,
	updated_at=$11, last_activity_at=$12
WHERE id=$1`,
		b.ID, b.StartDate, b.EndDate, b.TotalDays, b.PartySize, b.Affiliation,
		b.RequesterFirstName, b.Description, b.Status, b.Round,
		b.UpdatedAt, b.LastActivityAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	for i := range b.Approvals {
		a := &b.Approvals[i]
		if _, err := t.q.Exec(ctx, `
UPDATE approvals
SET decision=$3, comment=$4, decided_at=$5
WHERE booking_id=$1 AND party=$2`,
			a.BookingID, a.Party, a.Decision, a.Comment, a.DecidedAt); err != nil {
			return err
		}
	}
	return nil
}

func (t *tx) AppendEvent(ctx context.Context, ev *booking.TimelineEvent) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	_, err := t.q.Exec(ctx, `
INSERT INTO timeline_events (id, booking_id, occurred_at, actor, event_type, note)
VALUES ($1,$2,$3,$4,$5,$6)`,
		ev.ID, ev.BookingID, ev.When, ev.Actor, ev.Type, ev.Note)
	return err
}
