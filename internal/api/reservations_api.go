package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"canchapp/internal/metrics"
	"canchapp/internal/models"
)

// CreateReservationRequest is the request body for POST /api/reservations.
type CreateReservationRequest struct {
	FacilityID int64  `json:"facility_id"`
	Date       string `json:"date"` // Format: YYYY-MM-DD
	Time       string `json:"time"` // Format: HH:MM
}

// ReservationResponse represents a reservation in API responses.
type ReservationResponse struct {
	ID         int64  `json:"id"`
	FacilityID int64  `json:"facility_id"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Status     string `json:"status"`
}

// handleReservations serves the collection endpoint. Requires a session.
// GET  /api/reservations  — the caller's reservation history
// POST /api/reservations  — book a slot
func (s *HTTPServer) handleReservations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listReservations(w, r)
	case http.MethodPost:
		s.createReservation(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) listReservations(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reservations_list")
	session := sessionFrom(r)

	reservations, err := s.core.ListUserReservations(r.Context(), session.UserID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	out := make([]ReservationResponse, 0, len(reservations))
	for _, res := range reservations {
		out = append(out, reservationResponse(res))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reservations": out})
}

func (s *HTTPServer) createReservation(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reservations_create")
	session := sessionFrom(r)

	var req CreateReservationRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.FacilityID <= 0 || req.Date == "" || req.Time == "" {
		writeError(w, http.StatusBadRequest, "facility_id, date and time are required")
		return
	}

	reservation, err := s.core.CreateReservation(r.Context(), session.UserID, req.FacilityID, req.Date, req.Time)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, reservationResponse(*reservation))
}

// handleReservationByID serves the item endpoint. Requires a session.
// DELETE /api/reservations/{id} — cancel a reservation
func (s *HTTPServer) handleReservationByID(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reservations_cancel")
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id, err := parseID(strings.TrimPrefix(r.URL.Path, "/api/reservations/"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	session := sessionFrom(r)
	if err := s.core.CancelReservation(r.Context(), session.UserID, id); err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": models.StatusCancelled})
}

func reservationResponse(r models.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:         r.ID,
		FacilityID: r.FacilityID,
		Date:       r.Date,
		Time:       r.Time,
		Status:     r.Status,
	}
}
