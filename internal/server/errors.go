package server

import (
	"net/http"

	svrErrors "github.com/ezoic/svrdash/pkg/errors"
)

// statusFor maps an error to the HTTP status shown to the user.
func statusFor(err error) int {
	switch {
	case svrErrors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case svrErrors.Is(err, ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	case svrErrors.Is(err, svrErrors.ErrNotFitted):
		return http.StatusConflict
	case svrErrors.Is(err, svrErrors.ErrInvalidInput),
		svrErrors.Is(err, svrErrors.ErrDimensionMismatch),
		svrErrors.Is(err, svrErrors.ErrEmptyData):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
