package api

import (
	"net/http"

	"canchapp/internal/metrics"
)

// AvailabilityResponse is the response for GET /api/availability.
type AvailabilityResponse struct {
	FacilityID int64    `json:"facility_id"`
	Date       string   `json:"date"`
	Slots      []string `json:"slots"`
}

// handleAvailability returns the free slot start times for a facility on a
// date. Public, no authentication.
// GET /api/availability?facility_id=1&date=YYYY-MM-DD
func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("availability")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	facilityID, err := parseID(r.URL.Query().Get("facility_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "facility_id is required and must be a positive integer")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required; expected YYYY-MM-DD")
		return
	}

	slots, err := s.core.GetAvailableSlots(r.Context(), facilityID, date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AvailabilityResponse{
		FacilityID: facilityID,
		Date:       date,
		Slots:      slots,
	})
}
