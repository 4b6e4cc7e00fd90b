package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/filemill/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps the error taxonomy onto HTTP statuses. Unrecognized
// errors stay opaque 500s.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidArgument),
		errors.Is(err, common.ErrInvalidEmail),
		errors.Is(err, common.ErrInvalidPassword):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotLoggedIn),
		errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrNotAdmin),
		errors.Is(err, common.ErrNotOwned):
		return http.StatusForbidden
	case errors.Is(err, common.ErrUserNotFound),
		errors.Is(err, common.ErrFileNotFound),
		errors.Is(err, common.ErrToolNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrUserAlreadyExists),
		errors.Is(err, common.ErrFileAlreadyExists),
		errors.Is(err, common.ErrCannotDeleteLastAdmin):
		return http.StatusConflict
	case errors.Is(err, common.ErrProcessingTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
