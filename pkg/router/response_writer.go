package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/tinkerborg/otaupdate/internal/apperr"
)

type ResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w ResponseWriter) JSON(response any) error {
	w.Header().Set("Content-Type", "application/json")

	return json.NewEncoder(w).Encode(response)
}

func (w *ResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(w.statusCode)
}

func (w ResponseWriter) WithStatus(statusCode int) ResponseWriter {
	w.WriteHeader(statusCode)
	return w
}

// Error translates err into an HTTP status using the apperr taxonomy and
// writes the HTTPError body. If a status was already set via WithStatus
// it is honored instead of re-deriving one from err.
func (w ResponseWriter) Error(err error) error {
	if w.statusCode == 0 {
		w.WriteHeader(statusFor(err))
	}

	return json.NewEncoder(w).Encode(HTTPError{Code: w.statusCode, Message: err.Error()})
}

func (w ResponseWriter) Errorf(format string, a ...any) error {
	return w.Error(fmt.Errorf(format, a...))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInputInvalid):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrAuthMissing), errors.Is(err, apperr.ErrAuthFailed):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, apperr.ErrStoreUnavailable), errors.Is(err, apperr.ErrSigningFailed):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

type HTTPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
