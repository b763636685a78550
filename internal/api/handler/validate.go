package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/stormadvisor/stormadvisor/internal/api/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// fieldErrors converts validator errors into the Problem field-error shape.
func fieldErrors(err error) []models.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, models.FieldError{
			Field:   strings.ToLower(fe.Field()[:1]) + fe.Field()[1:],
			Message: "failed validation: " + fe.Tag(),
			Code:    fe.Tag(),
		})
	}
	return out
}
