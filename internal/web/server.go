// Package web is the JSON surface over the booking core. It resolves
// access-link tokens to identities, translates coordinator errors to
// status codes and user-facing messages, and owns nothing the core cares
// about.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/kschlt/btznstn-sub003/internal/service"
	"github.com/kschlt/btznstn-sub003/internal/token"
)

type Server struct {
	Coord   *service.Coordinator
	Tokens  *token.Codec
	Clock   service.Clock
	BaseURL string
	Log     zerolog.Logger
}

func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/bookings", s.handleSubmit).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}", s.handleGet).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}", s.handleEdit).Methods(http.MethodPatch)
	api.HandleFunc("/bookings/{id}/cancel", s.handleCancel).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/decision", s.handleDecide).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/reopen", s.handleReopen).Methods(http.MethodPost)
	api.HandleFunc("/calendar", s.handleCalendar).Methods(http.MethodGet)
	api.HandleFunc("/my/bookings", s.handleMyBookings).Methods(http.MethodGet)
	api.HandleFunc("/approver/outstanding", s.handleOutstanding).Methods(http.MethodGet)
	api.HandleFunc("/approver/history", s.handleHistory).Methods(http.MethodGet)

	return r
}

// identity decodes the request's token into a coordinator identity.
// Anonymous (no token) is a valid resolution; a malformed token is not.
func (s *Server) identity(r *http.Request) (service.Identity, token.Claims, error) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		return service.Identity{Role: service.RoleAnonymous}, token.Claims{}, nil
	}
	claims, err := s.Tokens.Decode(raw)
	if err != nil {
		return service.Identity{}, token.Claims{}, err
	}
	ident := service.Identity{Email: claims.Email}
	switch claims.Role {
	case token.RoleRequester:
		ident.Role = service.RoleRequester
	case token.RoleApprover:
		ident.Role = service.RoleApprover
		ident.Party = partyFromClaims(claims)
	}
	return ident, claims, nil
}

func Start(ctx context.Context, addr string, h http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info().Str("addr", addr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
