package services

import (
	"errors"

	nxhttp "github.com/shashiranjanraj/nexus/pkg/http"
	"github.com/shashiranjanraj/nexus/pkg/validate"
)

// failureMessage is the user-facing text for err.
func failureMessage(err error, fallback string) string {
	var apiErr *nxhttp.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var verrs validate.Errors
	if errors.As(err, &verrs) {
		return verrs.First()
	}
	return fallback
}
