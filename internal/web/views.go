package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kschlt/btznstn-sub003/internal/domain/booking"
	"github.com/kschlt/btznstn-sub003/internal/store"
	"github.com/kschlt/btznstn-sub003/internal/token"
)

const dateFormat = "2006-01-02"

type approvalView struct {
	Party     booking.Party    `json:"party"`
	Decision  booking.Decision `json:"decision"`
	Comment   string           `json:"comment,omitempty"`
	DecidedAt *time.Time       `json:"decided_at,omitempty"`
}

type eventView struct {
	When  time.Time         `json:"when"`
	Actor string            `json:"actor"`
	Type  booking.EventType `json:"type"`
	Note  string            `json:"note,omitempty"`
}

// bookingView is the owner/approver view: everything except the
// requester's email, which only ever travels inside tokens.
type bookingView struct {
	ID             string         `json:"id"`
	FirstName      string         `json:"requester_first_name"`
	StartDate      string         `json:"start_date"`
	EndDate        string         `json:"end_date"`
	TotalDays      int            `json:"total_days"`
	PartySize      int            `json:"party_size"`
	Affiliation    booking.Party  `json:"affiliation"`
	Description    string         `json:"description,omitempty"`
	Status         booking.Status `json:"status"`
	Round          int            `json:"round"`
	IsPast         bool           `json:"is_past"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	LastActivityAt time.Time      `json:"last_activity_at"`
	Approvals      []approvalView `json:"approvals,omitempty"`
	Timeline       []eventView    `json:"timeline,omitempty"`
}

// publicView is what the open calendar shows: no description, no
// approvals, no timeline.
type publicView struct {
	ID          string         `json:"id"`
	FirstName   string         `json:"requester_first_name"`
	StartDate   string         `json:"start_date"`
	EndDate     string         `json:"end_date"`
	TotalDays   int            `json:"total_days"`
	PartySize   int            `json:"party_size"`
	Affiliation booking.Party  `json:"affiliation"`
	Status      booking.Status `json:"status"`
	IsPast      bool           `json:"is_past"`
}

func toBookingView(b *booking.Booking, events []booking.TimelineEvent, today time.Time) bookingView {
	v := bookingView{
		ID:             b.ID.String(),
		FirstName:      b.RequesterFirstName,
		StartDate:      b.StartDate.Format(dateFormat),
		EndDate:        b.EndDate.Format(dateFormat),
		TotalDays:      b.TotalDays,
		PartySize:      b.PartySize,
		Affiliation:    b.Affiliation,
		Description:    b.Description,
		Status:         b.Status,
		Round:          b.Round,
		IsPast:         b.IsPast(today),
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
		LastActivityAt: b.LastActivityAt,
	}
	for _, a := range b.Approvals {
		v.Approvals = append(v.Approvals, approvalView{
			Party: a.Party, Decision: a.Decision, Comment: a.Comment, DecidedAt: a.DecidedAt,
		})
	}
	for _, ev := range events {
		v.Timeline = append(v.Timeline, eventView{When: ev.When, Actor: ev.Actor, Type: ev.Type, Note: ev.Note})
	}
	return v
}

func toPublicView(b *booking.Booking, today time.Time) publicView {
	return publicView{
		ID:          b.ID.String(),
		FirstName:   b.RequesterFirstName,
		StartDate:   b.StartDate.Format(dateFormat),
		EndDate:     b.EndDate.Format(dateFormat),
		TotalDays:   b.TotalDays,
		PartySize:   b.PartySize,
		Affiliation: b.Affiliation,
		Status:      b.Status,
		IsPast:      b.IsPast(today),
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

var statusGerman = map[booking.Status]string{
	booking.StatusPending:   "Ausstehend",
	booking.StatusConfirmed: "Bestätigt",
}

// writeError maps core errors to status codes and the German messages
// the frontend shows verbatim; Detail keeps the structured English cause.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		ce *booking.ConflictError
		ve *booking.ValidationError
		se *booking.StateTransitionError
		ae *booking.AuthorizationError
	)
	switch {
	case errors.As(err, &ce):
		st := statusGerman[ce.Status]
		if st == "" {
			st = string(ce.Status)
		}
		writeJSON(w, http.StatusConflict, errorBody{
			Error:   "conflict",
			Message: fmt.Sprintf("Dieser Zeitraum überschneidet sich mit einer bestehenden Buchung (%s – %s).", ce.Requester, st),
			Detail:  ce.Error(),
		})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   "validation",
			Message: "Bitte überprüfe deine Eingaben.",
			Detail:  ve.Error(),
		})
	case errors.As(err, &se):
		writeJSON(w, http.StatusConflict, errorBody{
			Error:   "state",
			Message: "Diese Aktion ist für den aktuellen Status nicht möglich.",
			Detail:  se.Error(),
		})
	case errors.As(err, &ae):
		writeJSON(w, http.StatusForbidden, errorBody{
			Error:   "forbidden",
			Message: "Du hast keinen Zugriff auf diesen Eintrag.",
			Detail:  ae.Error(),
		})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{
			Error:   "not_found",
			Message: "Der Eintrag konnte leider nicht gefunden werden.",
		})
	case errors.Is(err, token.ErrInvalid):
		writeJSON(w, http.StatusUnauthorized, errorBody{
			Error:   "invalid_token",
			Message: "Ungültiger Zugangslink.",
		})
	default:
		s.Log.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error:   "internal",
			Message: "Ein unerwarteter Fehler ist aufgetreten.",
		})
	}
}
