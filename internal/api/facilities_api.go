package api

import (
	"net/http"

	"canchapp/internal/metrics"
	"canchapp/internal/models"
)

// FacilityResponse represents a facility in API responses.
type FacilityResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Address      string  `json:"address,omitempty"`
	Surface      string  `json:"surface,omitempty"`
	Capacity     int     `json:"capacity"`
	PricePerHour float64 `json:"price_per_hour"`
	Description  string  `json:"description,omitempty"`
}

// handleFacilities lists facilities open for booking.
// GET /api/facilities
func (s *HTTPServer) handleFacilities(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("facilities")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	facilities, err := s.core.ListFacilities(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	out := make([]FacilityResponse, 0, len(facilities))
	for _, f := range facilities {
		out = append(out, facilityResponse(f))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"facilities": out})
}

func facilityResponse(f models.Facility) FacilityResponse {
	return FacilityResponse{
		ID:           f.ID,
		Name:         f.Name,
		Address:      f.Address,
		Surface:      f.Surface,
		Capacity:     f.Capacity,
		PricePerHour: f.PricePerHour,
		Description:  f.Description,
	}
}
