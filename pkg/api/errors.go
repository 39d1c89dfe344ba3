package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// Error categories surfaced to clients (spec.md §7).
const (
	CategoryIntegration = "INTEGRATION_ERROR"
	CategoryTimeout     = "TIMEOUT"
	CategoryValidation  = "VALIDATION_ERROR"
	CategoryUnknown     = "UNKNOWN"
)

// errorResponse is the JSON body of every non-2xx API response.
type errorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category"`
}

// ValidationError marks a request as rejected for a client-fixable reason
// (missing/malformed field), mapping to CategoryValidation and 400.
type ValidationError struct {
	Field, Reason string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Reason }

// httpError builds the category-tagged JSON error body for status.
func httpError(status int, category, message string) *echo.HTTPError {
	return echo.NewHTTPError(status, errorResponse{Error: message, Category: category})
}

// mapError maps an orchestrator/store/run-lookup error to an HTTP
// response in one of the four categories spec.md §7 defines. Unexpected
// errors are logged before being collapsed to CategoryUnknown so no
// internal detail (including a masked oracle credential, belt-and-braces
// with the masking service) reaches the client.
func mapError(err error) *echo.HTTPError {
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return httpError(http.StatusBadRequest, CategoryValidation, valErr.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return httpError(http.StatusGatewayTimeout, CategoryTimeout, "request timed out")
	}

	slog.Error("unexpected api error", "error", err)
	return httpError(http.StatusInternalServerError, CategoryUnknown, "internal server error")
}
