// Package store defines the persistence contract the booking core runs
// against. A Store must provide one thing above plain CRUD: an atomic
// unit of work in which the target booking stays locked from first read
// to final write, so that check-then-act sequences cannot interleave.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kschlt/btznstn-sub003/internal/domain/booking"
)

var ErrNotFound = errors.New("not found")

// Conflict is the display-safe slice of a blocking booking returned by
// overlap scans.
type Conflict struct {
	ID        uuid.UUID
	Requester string
	Status    booking.Status
}

// Tx is one atomic unit of work. Everything done through a Tx either
// fully commits or leaves no trace.
type Tx interface {
	// Get reads the booking aggregate and keeps it locked until the unit
	// ends. Concurrent units on the same booking serialize here.
	Get(ctx context.Context, id uuid.UUID) (*booking.Booking, error)

	// LockCalendar serializes units that are about to claim dates
	// (submissions and widening edits) against each other, so the
	// conflict scan and the write behave as one step. Held until the
	// unit ends.
	LockCalendar(ctx context.Context) error

	// Conflicts scans committed Pending/Confirmed bookings overlapping r,
	// excluding the given id (uuid.Nil to exclude nothing). It never
	// takes other bookings' write locks.
	Conflicts(ctx context.Context, r booking.DateRange, exclude uuid.UUID) ([]Conflict, error)

	// Insert stores a new aggregate with its approval slots.
	Insert(ctx context.Context, b *booking.Booking) error

	// Update persists the aggregate (status, span, fields, approvals) as
	// one write.
	Update(ctx context.Context, b *booking.Booking) error

	// AppendEvent adds one immutable timeline entry.
	AppendEvent(ctx context.Context, ev *booking.TimelineEvent) error
}

// Store is the persistence surface. Reads outside Within observe
// committed state only.
type Store interface {
	// Within runs fn as one atomic unit. If fn returns an error the unit
	// is rolled back and the error returned unchanged.
	Within(ctx context.Context, fn func(Tx) error) error

	Get(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	Events(ctx context.Context, id uuid.UUID) ([]booking.TimelineEvent, error)

	// ListOverlapping returns Pending/Confirmed bookings touching the
	// range, ordered by start date. Backs the public calendar.
	ListOverlapping(ctx context.Context, r booking.DateRange) ([]booking.Booking, error)

	// ListByRequester returns the requester's bookings, most recent
	// activity first.
	ListByRequester(ctx context.Context, email string, limit int) ([]booking.Booking, error)

	// ListPendingForParty returns Pending bookings whose slot for p is
	// still NoResponse, most recent activity first.
	ListPendingForParty(ctx context.Context, p booking.Party) ([]booking.Booking, error)

	// ListByParty returns every booking the party has a slot on,
	// regardless of status, most recent activity first.
	ListByParty(ctx context.Context, p booking.Party, limit int) ([]booking.Booking, error)

	// ListPastPending returns ids of Pending bookings whose span ended
	// before today. Feeds auto-cleanup.
	ListPastPending(ctx context.Context, today time.Time) ([]uuid.UUID, error)
}
