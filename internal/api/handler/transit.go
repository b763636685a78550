package handler

import (
	"net/http"
	"strings"

	"github.com/stormadvisor/stormadvisor/internal/api/models"
	"github.com/stormadvisor/stormadvisor/internal/api/response"
	"github.com/stormadvisor/stormadvisor/internal/transit"
)

// TransitHandler handles transit status endpoints.
type TransitHandler struct {
	service *transit.Service
}

// NewTransitHandler creates a new TransitHandler.
func NewTransitHandler(service *transit.Service) *TransitHandler {
	return &TransitHandler{service: service}
}

// GetStatus handles GET /v1/transit/status - current subway and PATH status
// for a trip. Lines may be restricted with ?lines=A,C,E.
func (h *TransitHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := models.TransitStatusRequest{
		Origin:      q.Get("origin"),
		Destination: q.Get("destination"),
	}
	if raw := q.Get("lines"); raw != "" {
		for _, line := range strings.Split(raw, ",") {
			if line = strings.TrimSpace(line); line != "" {
				input.Lines = append(input.Lines, line)
			}
		}
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, r, "request validation failed", fieldErrors(err))
		return
	}

	status := h.service.GetStatus(r.Context(), input.Origin, input.Destination, input.Lines)
	response.JSON(w, r, http.StatusOK, status)
}
