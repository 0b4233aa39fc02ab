// Package api exposes the booking engine over HTTP. Handlers stay thin:
// decode, call the service, map errors to status codes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"canchapp/internal/auth"
	"canchapp/internal/database"
	"canchapp/internal/models"
	"canchapp/internal/service"
)

// ReservationCore is the service surface the handlers need.
type ReservationCore interface {
	ListFacilities(ctx context.Context) ([]models.Facility, error)
	GetAvailableSlots(ctx context.Context, facilityID int64, date string) ([]string, error)
	CreateReservation(ctx context.Context, userID, facilityID int64, date, timeStr string) (*models.Reservation, error)
	CancelReservation(ctx context.Context, userID, reservationID int64) error
	ListUserReservations(ctx context.Context, userID int64) ([]models.Reservation, error)
}

// Authenticator resolves a bearer token to a session.
type Authenticator interface {
	Resolve(ctx context.Context, token string) (*auth.Session, error)
}

// HTTPServer serves the public booking API and the manager endpoints.
type HTTPServer struct {
	core     ReservationCore
	sessions Authenticator
	store    AdminStore
	managers map[int64]bool
	server   *http.Server
	logger   *zerolog.Logger
}

// NewHTTPServer builds the server with its routes registered. managers holds
// the user IDs allowed on the /api/admin endpoints.
func NewHTTPServer(core ReservationCore, sessions Authenticator, store AdminStore, managers []int64, port int, logger *zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		core:     core,
		sessions: sessions,
		store:    store,
		managers: make(map[int64]bool, len(managers)),
		logger:   logger,
	}
	for _, id := range managers {
		s.managers[id] = true
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/facilities", s.handleFacilities)
	mux.HandleFunc("/api/availability", s.handleAvailability)
	mux.HandleFunc("/api/reservations", s.withUser(s.handleReservations))
	mux.HandleFunc("/api/reservations/", s.withUser(s.handleReservationByID))
	mux.HandleFunc("/api/me/telegram", s.withUser(s.handleLinkTelegram))
	mux.HandleFunc("/api/admin/facilities", s.withManager(s.handleAdminFacilities))
	mux.HandleFunc("/api/admin/facilities/", s.withManager(s.handleAdminFacilityByID))
	mux.HandleFunc("/api/admin/rules/", s.withManager(s.handleAdminRuleByID))
	mux.HandleFunc("/api/admin/holidays", s.withManager(s.handleAdminHolidays))
	mux.HandleFunc("/api/admin/users", s.withManager(s.handleAdminUsers))

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("API server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service-layer errors onto HTTP status codes.
// Internal faults are logged, never echoed to the client.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Reason)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, database.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot is already reserved")
	case errors.Is(err, database.ErrUserAlreadyBooked):
		writeError(w, http.StatusConflict, "you already have a reservation for this date")
	default:
		s.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type contextKey string

const sessionKey contextKey = "session"

// withUser requires a valid bearer token and stashes the session in the
// request context.
func (s *HTTPServer) withUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		session, err := s.sessions.Resolve(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrSessionNotFound) {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			s.logger.Error().Err(err).Msg("session lookup failed")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), sessionKey, session)))
	}
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}

func sessionFrom(r *http.Request) *auth.Session {
	session, _ := r.Context().Value(sessionKey).(*auth.Session)
	return session
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
