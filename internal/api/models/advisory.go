package models

// AdvisoryRequest is the request body for evaluating a trip.
type AdvisoryRequest struct {
	// Origin is the free-text origin label (e.g. "Hoboken, NJ").
	Origin string `json:"origin" validate:"required,min=1,max=120"`

	// Destination is the free-text destination label.
	Destination string `json:"destination" validate:"required,min=1,max=120"`

	// OriginPoint is the origin coordinate. A pointer so that presence is
	// what required checks; the zero coordinate itself is valid.
	OriginPoint *Point `json:"originPoint" validate:"required"`

	// DestinationPoint, when supplied, skips geocoding the destination label.
	DestinationPoint *Point `json:"destinationPoint,omitempty"`

	// Lines optionally restricts transit status to specific subway lines.
	Lines []string `json:"lines,omitempty" validate:"omitempty,max=25,dive,min=1,max=3"`
}

// TransitStatusRequest carries the query parameters of the transit status
// endpoint.
type TransitStatusRequest struct {
	Origin      string   `json:"origin" validate:"required,min=1,max=120"`
	Destination string   `json:"destination" validate:"required,min=1,max=120"`
	Lines       []string `json:"lines,omitempty" validate:"omitempty,max=25,dive,min=1,max=3"`
}
