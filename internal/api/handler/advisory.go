// Package handler provides HTTP handlers for the StormAdvisor API.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/stormadvisor/stormadvisor/internal/advisory"
	"github.com/stormadvisor/stormadvisor/internal/api/models"
	"github.com/stormadvisor/stormadvisor/internal/api/response"
	"github.com/stormadvisor/stormadvisor/internal/travel"
)

// AdvisoryHandler handles trip advisory endpoints.
type AdvisoryHandler struct {
	service *advisory.Service
}

// NewAdvisoryHandler creates a new AdvisoryHandler.
func NewAdvisoryHandler(service *advisory.Service) *AdvisoryHandler {
	return &AdvisoryHandler{service: service}
}

// Evaluate handles POST /v1/advisories:evaluate - run the full advisory
// pipeline for one trip.
func (h *AdvisoryHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var input models.AdvisoryRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, r, "request validation failed", fieldErrors(err))
		return
	}

	req := advisory.Request{
		Origin:      input.Origin,
		Destination: input.Destination,
		OriginCoords: travel.Coordinate{
			Lat: input.OriginPoint.Lat,
			Lon: input.OriginPoint.Lon,
		},
		Lines: input.Lines,
	}
	if input.DestinationPoint != nil {
		req.DestinationCoords = &travel.Coordinate{
			Lat: input.DestinationPoint.Lat,
			Lon: input.DestinationPoint.Lon,
		}
	}

	result := h.service.Advise(r.Context(), req)
	response.JSON(w, r, http.StatusOK, result)
}
