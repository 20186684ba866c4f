package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/commune-dev/commune/pkg/commune"
)

// ErrorResponse is the response body for a failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps a service error to an HTTP status code. Not-found sentinels
// become 404, uniqueness conflicts 409, store failures 502, everything else
// 500.
func statusFor(err error) int {
	var storeErr *commune.StoreError
	switch {
	case commune.IsNotFound(err):
		return http.StatusNotFound
	case commune.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, commune.ErrInvalidParentKind):
		return http.StatusBadRequest
	case errors.As(err, &storeErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a JSON error body with the status derived from err
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, statusFor(err))
	render.JSON(w, r, ErrorResponse{Error: err.Error()})
}
