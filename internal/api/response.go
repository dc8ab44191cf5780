package api

import (
	"encoding/json"
	"net/http"

	"github.com/wardenhq/warden/internal/core"
)

// ErrorResponse is the error body for every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes the error as JSON. Anything that is not an AppError is
// reported as internal without leaking its message.
func WriteError(w http.ResponseWriter, err error) {
	appErr, ok := core.AsAppError(err)
	if !ok {
		appErr = core.NewAppError(core.ErrInternal, "internal server error")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Code.HTTPStatus())
	json.NewEncoder(w).Encode(ErrorResponse{
		Code:    string(appErr.Code),
		Message: appErr.Message,
	})
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
