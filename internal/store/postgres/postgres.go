// Package postgres is the pgx-backed Store. Units of work map to
// database transactions: the target booking row is read FOR UPDATE, and
// date-claiming units additionally take a transaction-scoped advisory
// lock on the calendar so the conflict scan and the write commit as one
// step. Conflict scans read committed rows only and never lock other
// bookings, so no unit ever holds two write locks.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kschlt/btznstn-sub003/internal/domain/booking"
	"github.com/kschlt/btznstn-sub003/internal/store"
)

type Store struct {
	pool *pgxpool.Pool
}

func Open(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnLifetime = 5 * time.Minute
	cfg.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

var _ store.Store = (*Store)(nil)

// querier is the overlap of pgxpool.Pool and pgx.Tx we use.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Store) Within(ctx context.Context, fn func(store.Tx) error) error {
	pgtx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = pgtx.Rollback(ctx) }()

	if err := fn(&tx{q: pgtx}); err != nil {
		return err
	}
	return pgtx.Commit(ctx)
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return getBooking(ctx, s.pool, id, false)
}

func (s *Store) Events(ctx context.Context, id uuid.UUID) ([]booking.TimelineEvent, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, booking_id, occurred_at, actor, event_type, note
FROM timeline_events
WHERE booking_id=$1
ORDER BY occurred_at, seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.TimelineEvent
	for rows.Next() {
		var ev booking.TimelineEvent
		if err := rows.Scan(&ev.ID, &ev.BookingID, &ev.When, &ev.Actor, &ev.Type, &ev.Note); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) ListOverlapping(ctx context.Context, r booking.DateRange) ([]booking.Booking, error) {
	return listBookings(ctx, s.pool, `
WHERE status IN ('Pending','Confirmed') AND start_date <= $1 AND end_date >= $2
ORDER BY start_date`, r.End, r.Start)
}

func (s *Store) ListByRequester(ctx context.Context, email string, limit int) ([]booking.Booking, error) {
	return listBookings(ctx, s.pool, `
WHERE lower(requester_email) = lower($1)
ORDER BY last_activity_at DESC
LIMIT $2`, email, limit)
}

func (s *Store) ListPendingForParty(ctx context.Context, p booking.Party) ([]booking.Booking, error) {
	return listBookings(ctx, s.pool, `
WHERE status='Pending' AND id IN (
	SELECT booking_id FROM approvals WHERE party=$1 AND decision='NoResponse'
)
ORDER BY last_activity_at DESC`, p)
}

func (s *Store) ListByParty(ctx context.Context, p booking.Party, limit int) ([]booking.Booking, error) {
	return listBookings(ctx, s.pool, `
WHERE id IN (SELECT booking_id FROM approvals WHERE party=$1)
ORDER BY last_activity_at DESC
LIMIT $2`, p, limit)
}

func (s *Store) ListPastPending(ctx context.Context, today time.Time) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM bookings WHERE status='Pending' AND end_date < $1 ORDER BY end_date`, today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

const bookingColumns = `
id, start_date, end_date, total_days, party_size, affiliation,
requester_first_name, requester_email, description, status, round,
created_at, updated_at, last_activity_at`

func scanBooking(row pgx.Row) (*booking.Booking, error) {
	var b booking.Booking
	err := row.Scan(
		&b.ID, &b.StartDate, &b.EndDate, &b.TotalDays, &b.PartySize, &b.Affiliation,
		&b.RequesterFirstName, &b.RequesterEmail, &b.Description, &b.Status, &b.Round,
		&b.CreatedAt, &b.UpdatedAt, &b.LastActivityAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	b.StartDate = booking.ToDate(b.StartDate)
	b.EndDate = booking.ToDate(b.EndDate)
	return &b, nil
}

func getBooking(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (*booking.Booking, error) {
	sql := `SELECT ` + bookingColumns + ` FROM bookings WHERE id=$1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	b, err := scanBooking(q.QueryRow(ctx, sql, id))
	if err != nil {
		return nil, err
	}
	if err := loadApprovals(ctx, q, b); err != nil {
		return nil, err
	}
	return b, nil
}

func loadApprovals(ctx context.Context, q querier, b *booking.Booking) error {
	rows, err := q.Query(ctx, `
SELECT id, booking_id, party, decision, comment, decided_at
FROM approvals
WHERE booking_id=$1
ORDER BY party`, b.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	b.Approvals = b.Approvals[:0]
	for rows.Next() {
		var a booking.Approval
		if err := rows.Scan(&a.ID, &a.BookingID, &a.Party, &a.Decision, &a.Comment, &a.DecidedAt); err != nil {
			return err
		}
		b.Approvals = append(b.Approvals, a)
	}
	return rows.Err()
}

func listBookings(ctx context.Context, q querier, tail string, args ...any) ([]booking.Booking, error) {
	rows, err := q.Query(ctx, `SELECT `+bookingColumns+` FROM bookings `+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := loadApprovals(ctx, q, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
