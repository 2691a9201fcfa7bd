// Package booking holds the domain model for whole-day booking requests
// on the house calendar: the booking aggregate, the three-party approval
// state, the status machine and the edit/digest rules. Everything here is
// pure; persistence and locking live in the store layer.
package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Party is one of the three fixed approvers. The same names double as the
// visual affiliation tag on a booking; the tag has no effect on approvals.
type Party string

const (
	PartyIngeborg Party = "Ingeborg"
	PartyCornelia Party = "Cornelia"
	PartyAngelika Party = "Angelika"
)

// Parties returns the fixed approver set, in canonical order.
func Parties() [3]Party {
	return [3]Party{PartyIngeborg, PartyCornelia, PartyAngelika}
}

func ValidParty(p Party) bool {
	switch p {
	case PartyIngeborg, PartyCornelia, PartyAngelika:
		return true
	}
	return false
}

type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusDenied    Status = "Denied"
	StatusCanceled  Status = "Canceled"
)

type Decision string

const (
	DecisionNoResponse Decision = "NoResponse"
	DecisionApproved   Decision = "Approved"
	DecisionDenied     Decision = "Denied"
)

// Approval is one party's decision slot for the current approval round.
// There are always exactly three per booking.
type Approval struct {
	ID        uuid.UUID
	BookingID uuid.UUID
	Party     Party
	Decision  Decision
	Comment   string
	DecidedAt *time.Time
}

// Booking is the aggregate: status, span and the three approval slots are
// one consistency domain and are always written together.
type Booking struct {
	ID        uuid.UUID
	StartDate time.Time // civil date, midnight UTC
	EndDate   time.Time // inclusive
	TotalDays int

	PartySize   int
	Affiliation Party
	Description string

	RequesterFirstName string
	RequesterEmail     string // never exposed outside owner views

	Status Status
	Round  int // approval round, bumped on every reset

	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastActivityAt time.Time

	Approvals []Approval
}

func (b *Booking) Range() DateRange {
	return DateRange{Start: b.StartDate, End: b.EndDate}
}

// IsPast reports whether the booking's span has fully elapsed.
func (b *Booking) IsPast(today time.Time) bool {
	return b.EndDate.Before(today)
}

func (b *Booking) ApprovalFor(p Party) *Approval {
	for i := range b.Approvals {
		if b.Approvals[i].Party == p {
			return &b.Approvals[i]
		}
	}
	return nil
}

// IsRequester matches the caller's email against the booking owner,
// case-insensitively.
func (b *Booking) IsRequester(email string) bool {
	return email != "" && strings.EqualFold(b.RequesterEmail, email)
}

// Touch advances the activity timestamps. LastActivityAt never moves
// backwards, even with a skewed caller clock.
func (b *Booking) Touch(now time.Time) {
	b.UpdatedAt = now
	if now.After(b.LastActivityAt) {
		b.LastActivityAt = now
	}
}

// TimelineEvent is one append-only audit entry. Events are never mutated
// or deleted while the booking exists; ordering is by When, ties by
// insertion order.
type TimelineEvent struct {
	ID        uuid.UUID
	BookingID uuid.UUID
	When      time.Time
	Actor     string // requester first name, party name, or "System"
	Type      EventType
	Note      string
}

type EventType string

const (
	EventCreated        EventType = "Created"
	EventSelfApproved   EventType = "SelfApproved"
	EventApproved       EventType = "Approved"
	EventDenied         EventType = "Denied"
	EventConfirmed      EventType = "Confirmed"
	EventEdited         EventType = "Edited"
	EventApprovalsReset EventType = "ApprovalsReset"
	EventCanceled       EventType = "Canceled"
	EventReopened       EventType = "Reopened"
	EventAutoCanceled   EventType = "AutoCanceled"
)

// SystemActor is the actor recorded for operations nobody triggered by
// hand (auto-cleanup).
const SystemActor = "System"
