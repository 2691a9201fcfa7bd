// Package memory is the embedded Store: a map guarded by one mutex.
// Units of work take the write lock for their whole read-validate-write
// span, which serializes strictly more than the per-booking contract
// requires and is plenty for tests and single-process dev mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kschlt/btznstn-sub003/internal/domain/booking"
	"github.com/kschlt/btznstn-sub003/internal/store"
)

type Store struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]*booking.Booking
	events   map[uuid.UUID][]booking.TimelineEvent
}

func New() *Store {
	return &Store{
		bookings: make(map[uuid.UUID]*booking.Booking),
		events:   make(map[uuid.UUID][]booking.TimelineEvent),
	}
}

var _ store.Store = (*Store)(nil)

func clone(b *booking.Booking) *booking.Booking {
	cp := *b
	cp.Approvals = append([]booking.Approval(nil), b.Approvals...)
	return &cp
}

// tx stages writes and applies them only when the unit function returns
// without error, so a failed validator leaves no partial mutation.
type tx struct {
	s       *Store
	inserts []*booking.Booking
	updates []*booking.Booking
	events  []booking.TimelineEvent
}

func (s *Store) Within(ctx context.Context, fn func(store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{s: s}
	if err := fn(t); err != nil {
		return err
	}
	for _, b := range t.inserts {
		s.bookings[b.ID] = clone(b)
	}
	for _, b := range t.updates {
		s.bookings[b.ID] = clone(b)
	}
	for _, ev := range t.events {
		s.events[ev.BookingID] = append(s.events[ev.BookingID], ev)
	}
	return nil
}

func (t *tx) Get(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	b, ok := t.s.bookings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(b), nil
}

// LockCalendar is a no-op: the store-wide mutex already serializes every
// unit.
func (t *tx) LockCalendar(ctx context.Context) error { return nil }

func (t *tx) Conflicts(ctx context.Context, r booking.DateRange, exclude uuid.UUID) ([]store.Conflict, error) {
	var out []store.Conflict
	for _, b := range t.s.bookings {
		if b.ID == exclude {
			continue
		}
		if b.Status != booking.StatusPending && b.Status != booking.StatusConfirmed {
			continue
		}
		if b.Range().Overlaps(r) {
			out = append(out, store.Conflict{ID: b.ID, Requester: b.RequesterFirstName, Status: b.Status})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (t *tx) Insert(ctx context.Context, b *booking.Booking) error {
	t.inserts = append(t.inserts, clone(b))
	return nil
}

func (t *tx) Update(ctx context.Context, b *booking.Booking) error {
	if _, ok := t.s.bookings[b.ID]; !ok {
		return store.ErrNotFound
	}
	t.updates = append(t.updates, clone(b))
	return nil
}

func (t *tx) AppendEvent(ctx context.Context, ev *booking.TimelineEvent) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	t.events = append(t.events, *ev)
	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(b), nil
}

func (s *Store) Events(ctx context.Context, id uuid.UUID) ([]booking.TimelineEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	evs := s.events[id]
	out := make([]booking.TimelineEvent, len(evs))
	copy(out, evs)
	// Slice order is insertion order already; make timestamp order
	// explicit, keeping insertion order for ties.
	sort.SliceStable(out, func(i, j int) bool { return out[i].When.Before(out[j].When) })
	return out, nil
}

func (s *Store) ListOverlapping(ctx context.Context, r booking.DateRange) ([]booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []booking.Booking
	for _, b := range s.bookings {
		if b.Status != booking.StatusPending && b.Status != booking.StatusConfirmed {
			continue
		}
		if b.Range().Overlaps(r) {
			out = append(out, *clone(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (s *Store) ListByRequester(ctx context.Context, email string, limit int) ([]booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []booking.Booking
	for _, b := range s.bookings {
		if b.IsRequester(email) {
			out = append(out, *clone(b))
		}
	}
	sortByActivity(out)
	return capped(out, limit), nil
}

func (s *Store) ListPendingForParty(ctx context.Context, p booking.Party) ([]booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []booking.Booking
	for _, b := range s.bookings {
		if b.Status != booking.StatusPending {
			continue
		}
		if slot := b.ApprovalFor(p); slot != nil && slot.Decision == booking.DecisionNoResponse {
			out = append(out, *clone(b))
		}
	}
	sortByActivity(out)
	return out, nil
}

func (s *Store) ListByParty(ctx context.Context, p booking.Party, limit int) ([]booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []booking.Booking
	for _, b := range s.bookings {
		if b.ApprovalFor(p) != nil {
			out = append(out, *clone(b))
		}
	}
	sortByActivity(out)
	return capped(out, limit), nil
}

func (s *Store) ListPastPending(ctx context.Context, today time.Time) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []uuid.UUID
	for _, b := range s.bookings {
		if b.Status == booking.StatusPending && b.IsPast(today) {
			out = append(out, b.ID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func sortByActivity(bs []booking.Booking) {
	sort.Slice(bs, func(i, j int) bool { return bs[i].LastActivityAt.After(bs[j].LastActivityAt) })
}

func capped(bs []booking.Booking, limit int) []booking.Booking {
	if limit > 0 && len(bs) > limit {
		return bs[:limit]
	}
	return bs
}
