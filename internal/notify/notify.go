// Package notify carries notification intents out of the booking core.
// The core computes intents inside its unit of work and hands them over
// only after the unit has committed; delivery, retries and templating are
// entirely the dispatcher's problem.
package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Kind string

const (
	KindSubmitted Kind = "submitted"
	KindApproved  Kind = "approved"
	KindDenied    Kind = "denied"
	KindConfirmed Kind = "confirmed"
	KindEdited    Kind = "edited"
	KindCanceled  Kind = "canceled"
	KindReopened  Kind = "reopened"
	KindDigest    Kind = "digest"
)

// Intent is one outbound message request: what happened, to whom, and the
// substitution data a template would need.
type Intent struct {
	Kind       Kind
	BookingID  uuid.UUID
	Recipients []string
	Data       map[string]string
}

type Dispatcher interface {
	// Dispatch must not block the caller on delivery.
	Dispatch(ctx context.Context, intents []Intent)
}

// LogDispatcher writes every intent to the log instead of delivering it.
// Stands in for a mail transport in dev and tests.
type LogDispatcher struct {
	Log zerolog.Logger
}

func (d *LogDispatcher) Dispatch(ctx context.Context, intents []Intent) {
	for _, in := range intents {
		d.Log.Info().
			Str("kind", string(in.Kind)).
			Str("booking_id", in.BookingID.String()).
			Strs("recipients", in.Recipients).
			Interface("data", in.Data).
			Msg("notification intent")
	}
}
