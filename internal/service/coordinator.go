// Package service is the serialization point for every state-mutating
// booking operation. Each public method runs as one store unit of work:
// lock the target booking, re-read, validate, apply the transition,
// append the timeline entry — then, only after the unit has committed,
// hand notification intents to the dispatcher. A validator failure aborts
// the whole unit with no partial mutation.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kschlt/btznstn-sub003/internal/domain/booking"
	"github.com/kschlt/btznstn-sub003/internal/notify"
	"github.com/kschlt/btznstn-sub003/internal/store"
)

// Clock supplies "now" and the civil date in the house calendar
// (Europe/Berlin). Stable within one operation.
type Clock interface {
	Now() time.Time
	Today() time.Time
}

// WallClock reads the system clock in a fixed location.
type WallClock struct {
	Loc *time.Location
}

func (c WallClock) Now() time.Time   { return time.Now().In(c.Loc) }
func (c WallClock) Today() time.Time { return booking.ToDate(c.Now()) }

// Approver binds one of the three fixed parties to its contact address.
type Approver struct {
	Party  booking.Party
	Email  string
	Notify bool
}

// Approvers is the immutable reviewer set, threaded in at construction
// rather than looked up from ambient state.
type Approvers [3]Approver

func (a Approvers) ByEmail(email string) (Approver, bool) {
	for _, ap := range a {
		if ap.Email != "" && strings.EqualFold(ap.Email, email) {
			return ap, true
		}
	}
	return Approver{}, false
}

func (a Approvers) ByParty(p booking.Party) (Approver, bool) {
	for _, ap := range a {
		if ap.Party == p {
			return ap, true
		}
	}
	return Approver{}, false
}

// NotifyEmails returns the addresses of approvers who have notifications
// enabled.
func (a Approvers) NotifyEmails() []string {
	var out []string
	for _, ap := range a {
		if ap.Notify {
			out = append(out, ap.Email)
		}
	}
	return out
}

// Role is what the token layer resolved the caller to. The coordinator
// trusts this resolution; it does no cryptographic work itself.
type Role string

const (
	RoleAnonymous Role = ""
	RoleRequester Role = "requester"
	RoleApprover  Role = "approver"
)

type Identity struct {
	Role  Role
	Email string
	Party booking.Party // set for approvers
}

type Coordinator struct {
	store      store.Store
	clock      Clock
	rules      booking.Rules
	approvers  Approvers
	dispatcher notify.Dispatcher
	log        zerolog.Logger
}

func New(st store.Store, clock Clock, rules booking.Rules, approvers Approvers, d notify.Dispatcher, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		store:      st,
		clock:      clock,
		rules:      rules,
		approvers:  approvers,
		dispatcher: d,
		log:        log.With().Str("component", "coordinator").Logger(),
	}
}

func (c *Coordinator) Rules() booking.Rules { return c.rules }

// send runs after the unit of work has committed; the dispatcher contract
// forbids blocking, so the core never waits on delivery.
func (c *Coordinator) send(ctx context.Context, intents []notify.Intent) {
	if c.dispatcher == nil || len(intents) == 0 {
		return
	}
	c.dispatcher.Dispatch(ctx, intents)
}
