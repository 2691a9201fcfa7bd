package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/kschlt/btznstn-sub003/internal/domain/booking"
	"github.com/kschlt/btznstn-sub003/internal/service"
	"github.com/kschlt/btznstn-sub003/internal/store"
	"github.com/kschlt/btznstn-sub003/internal/token"
)

func partyFromClaims(claims token.Claims) booking.Party {
	p := booking.Party(claims.Party)
	if !booking.ValidParty(p) {
		return ""
	}
	return p
}

func (s *Server) decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &booking.ValidationError{Field: "body", Reason: "malformed JSON"}
	}
	return nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, &booking.ValidationError{Field: "id", Reason: "not a valid booking id"}
	}
	return id, nil
}

func parseDate(field, raw string) (time.Time, error) {
	d, err := time.ParseInLocation(dateFormat, raw, time.UTC)
	if err != nil {
		return time.Time{}, &booking.ValidationError{Field: field, Reason: "expected YYYY-MM-DD"}
	}
	return d, nil
}

type submitRequest struct {
	FirstName         string `json:"requester_first_name"`
	Email             string `json:"requester_email"`
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
	PartySize         int    `json:"party_size"`
	Affiliation       string `json:"affiliation"`
	Description       string `json:"description"`
	LongStayConfirmed bool   `json:"long_stay_confirmed"`
}

type submitResponse struct {
	Booking   bookingView `json:"booking"`
	Token     string      `json:"access_token"`
	ManageURL string      `json:"manage_url"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		s.writeError(w, err)
		return
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		s.writeError(w, err)
		return
	}
	b, err := s.Coord.Submit(r.Context(), service.SubmitInput{
		FirstName:         req.FirstName,
		Email:             req.Email,
		Start:             start,
		End:               end,
		PartySize:         req.PartySize,
		Affiliation:       booking.Party(req.Affiliation),
		Description:       req.Description,
		LongStayConfirmed: req.LongStayConfirmed,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	// The requester's only credential is this link; the booking mail
	// carries the same token.
	tok, err := s.Tokens.Encode(token.Claims{
		Role:      token.RoleRequester,
		Email:     b.RequesterEmail,
		BookingID: b.ID.String(),
		IssuedAt:  s.Clock.Now().Unix(),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{
		Booking:   toBookingView(b, nil, s.Clock.Today()),
		Token:     tok,
		ManageURL: fmt.Sprintf("%s/bookings/%s?token=%s", s.BaseURL, b.ID, tok),
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ident, claims, err := s.identity(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	b, err := s.Coord.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !s.mayView(b, ident, claims) {
		// Anonymous callers see pending/confirmed entries in public
		// form; everything else looks like it does not exist.
		if ident.Role == service.RoleAnonymous {
			if b.Status == booking.StatusPending || b.Status == booking.StatusConfirmed {
				writeJSON(w, http.StatusOK, toPublicView(b, s.Clock.Today()))
			} else {
				s.writeError(w, store.ErrNotFound)
			}
			return
		}
		s.writeError(w, &booking.AuthorizationError{Op: "view"})
		return
	}
	events, err := s.Coord.Timeline(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingView(b, events, s.Clock.Today()))
}

// mayView grants the full view to approvers and to the requester whose
// token was minted for this booking.
func (s *Server) mayView(b *booking.Booking, ident service.Identity, claims token.Claims) bool {
	switch ident.Role {
	case service.RoleApprover:
		return true
	case service.RoleRequester:
		return claims.BookingID == b.ID.String() && b.IsRequester(ident.Email)
	default:
		return false
	}
}

type editRequest struct {
	FirstName         *string `json:"requester_first_name"`
	StartDate         *string `json:"start_date"`
	EndDate           *string `json:"end_date"`
	PartySize         *int    `json:"party_size"`
	Affiliation       *string `json:"affiliation"`
	Description       *string `json:"description"`
	LongStayConfirmed bool    `json:"long_stay_confirmed"`
}

func (req editRequest) toInput() (service.EditInput, error) {
	in := service.EditInput{
		FirstName:         req.FirstName,
		PartySize:         req.PartySize,
		Description:       req.Description,
		LongStayConfirmed: req.LongStayConfirmed,
	}
	if req.Affiliation != nil {
		p := booking.Party(*req.Affiliation)
		in.Affiliation = &p
	}
	if req.StartDate != nil {
		d, err := parseDate("start_date", *req.StartDate)
		if err != nil {
			return in, err
		}
		in.Start = &d
	}
	if req.EndDate != nil {
		d, err := parseDate("end_date", *req.EndDate)
		if err != nil {
			return in, err
		}
		in.End = &d
	}
	return in, nil
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	id, ident, ok := s.authedBooking(w, r)
	if !ok {
		return
	}
	var req editRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		s.writeError(w, err)
		return
	}
	b, err := s.Coord.Edit(r.Context(), id, ident, in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingView(b, nil, s.Clock.Today()))
}

type cancelRequest struct {
	Note string `json:"note"`
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, ident, ok := s.authedBooking(w, r)
	if !ok {
		return
	}
	var req cancelRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	ack, err := s.Coord.Cancel(r.Context(), id, ident, req.Note)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"applied": ack.Applied})
}

type decideRequest struct {
	Decision    string `json:"decision"`
	Comment     string `json:"comment"`
	Acknowledge bool   `json:"acknowledge"`
}

type decideResponse struct {
	Applied bool            `json:"applied"`
	Outcome booking.Outcome `json:"outcome"`
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ident, _, err := s.identity(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req decideRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.Coord.Decide(r.Context(), id, ident, service.DecideInput{
		Decision:    booking.Decision(req.Decision),
		Comment:     req.Comment,
		Acknowledge: req.Acknowledge,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decideResponse{Applied: res.Applied, Outcome: res.Outcome})
}

func (s *Server) handleReopen(w http.ResponseWriter, r *http.Request) {
	id, ident, ok := s.authedBooking(w, r)
	if !ok {
		return
	}
	var req editRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		s.writeError(w, err)
		return
	}
	b, err := s.Coord.Reopen(r.Context(), id, ident, in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingView(b, nil, s.Clock.Today()))
}

// authedBooking resolves the path id and a requester identity whose token
// was minted for that booking. Approver tokens do not pass: requester
// operations stay with the requester.
func (s *Server) authedBooking(w http.ResponseWriter, r *http.Request) (uuid.UUID, service.Identity, bool) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return uuid.Nil, service.Identity{}, false
	}
	ident, claims, err := s.identity(r)
	if err != nil {
		s.writeError(w, err)
		return uuid.Nil, service.Identity{}, false
	}
	if ident.Role != service.RoleRequester || claims.BookingID != id.String() {
		s.writeError(w, &booking.AuthorizationError{Op: "manage"})
		return uuid.Nil, service.Identity{}, false
	}
	return id, ident, true
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	now := s.Clock.Now()
	year, month := now.Year(), int(now.Month())
	if raw := r.URL.Query().Get("year"); raw != "" {
		if year, _ = strconv.Atoi(raw); year < 2000 || year > 2200 {
			s.writeError(w, &booking.ValidationError{Field: "year", Reason: "out of range"})
			return
		}
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		if month, _ = strconv.Atoi(raw); month < 1 || month > 12 {
			s.writeError(w, &booking.ValidationError{Field: "month", Reason: "out of range"})
			return
		}
	}
	items, err := s.Coord.Calendar(r.Context(), year, time.Month(month))
	if err != nil {
		s.writeError(w, err)
		return
	}
	today := s.Clock.Today()
	out := make([]publicView, 0, len(items))
	for i := range items {
		out = append(out, toPublicView(&items[i], today))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMyBookings(w http.ResponseWriter, r *http.Request) {
	ident, _, err := s.identity(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ident.Role != service.RoleRequester {
		s.writeError(w, &booking.AuthorizationError{Op: "list own bookings"})
		return
	}
	items, err := s.Coord.ByRequester(r.Context(), ident.Email, 50)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeBookingList(w, items)
}

func (s *Server) handleOutstanding(w http.ResponseWriter, r *http.Request) {
	p, ok := s.approverParty(w, r)
	if !ok {
		return
	}
	items, err := s.Coord.Outstanding(r.Context(), p)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeBookingList(w, items)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	p, ok := s.approverParty(w, r)
	if !ok {
		return
	}
	items, err := s.Coord.History(r.Context(), p, 50)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeBookingList(w, items)
}

func (s *Server) approverParty(w http.ResponseWriter, r *http.Request) (booking.Party, bool) {
	ident, _, err := s.identity(r)
	if err != nil {
		s.writeError(w, err)
		return "", false
	}
	if ident.Role != service.RoleApprover || !booking.ValidParty(ident.Party) {
		s.writeError(w, &booking.AuthorizationError{Op: "approver listing"})
		return "", false
	}
	return ident.Party, true
}

func (s *Server) writeBookingList(w http.ResponseWriter, items []booking.Booking) {
	today := s.Clock.Today()
	out := make([]bookingView, 0, len(items))
	for i := range items {
		out = append(out, toBookingView(&items[i], nil, today))
	}
	writeJSON(w, http.StatusOK, out)
}
