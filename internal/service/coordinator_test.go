package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kschlt/btznstn-sub003/internal/domain/booking"
	"github.com/kschlt/btznstn-sub003/internal/notify"
	"github.com/kschlt/btznstn-sub003/internal/store/memory"
)

// fakeClock pins "now" so span arithmetic is deterministic. Advance moves
// it forward.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock { return &fakeClock{now: now} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Today() time.Time { return booking.ToDate(c.Now()) }

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// captureDispatcher records every intent handed over post-commit.
type captureDispatcher struct {
	mu      sync.Mutex
	intents []notify.Intent
}

func (d *captureDispatcher) Dispatch(ctx context.Context, intents []notify.Intent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.intents = append(d.intents, intents...)
}

func (d *captureDispatcher) kinds() []notify.Kind {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]notify.Kind, len(d.intents))
	for i, in := range d.intents {
		out[i] = in.Kind
	}
	return out
}

const (
	ingeborgMail = "ingeborg@example.com"
	corneliaMail = "cornelia@example.com"
	angelikaMail = "angelika@example.com"
)

func testApprovers() Approvers {
	return Approvers{
		{Party: booking.PartyIngeborg, Email: ingeborgMail, Notify: true},
		{Party: booking.PartyCornelia, Email: corneliaMail, Notify: true},
		{Party: booking.PartyAngelika, Email: angelikaMail, Notify: true},
	}
}

type fixture struct {
	coord *Coordinator
	store *memory.Store
	clock *fakeClock
	disp  *captureDispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	clock := newFakeClock(time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC))
	disp := &captureDispatcher{}
	coord := New(st, clock, booking.DefaultRules(), testApprovers(), disp, zerolog.Nop())
	return &fixture{coord: coord, store: st, clock: clock, disp: disp}
}

func (f *fixture) submit(t *testing.T, start, end time.Time) *booking.Booking {
	t.Helper()
	b, err := f.coord.Submit(context.Background(), SubmitInput{
		FirstName:         "Helga",
		Email:             "helga@example.com",
		Start:             start,
		End:               end,
		PartySize:         4,
		Affiliation:       booking.PartyCornelia,
		Description:       "Osterferien",
		LongStayConfirmed: end.Sub(start) >= 7*24*time.Hour,
	})
	require.NoError(t, err)
	return b
}

func requester(b *booking.Booking) Identity {
	return Identity{Role: RoleRequester, Email: b.RequesterEmail}
}

func approver(p booking.Party) Identity {
	return Identity{Role: RoleApprover, Party: p}
}

func (f *fixture) approveAll(t *testing.T, b *booking.Booking) {
	t.Helper()
	for _, p := range booking.Parties() {
		if slot := b.ApprovalFor(p); slot != nil && slot.Decision != booking.DecisionNoResponse {
			continue
		}
		_, err := f.coord.Decide(context.Background(), b.ID, approver(p), DecideInput{Decision: booking.DecisionApproved})
		require.NoError(t, err)
	}
}
