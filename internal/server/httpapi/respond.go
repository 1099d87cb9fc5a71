package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/agrocms/internal/common"
	"github.com/dmitrijs2005/agrocms/internal/logging"
)

type messageResponse struct {
	Message string              `json:"message"`
	Errors  []common.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// writeError maps service errors to responses. Anything unrecognised is
// logged and answered with a generic 500 carrying fallback.
func writeError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error, fallback string) {
	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid data", Errors: verr.Fields})
	case errors.Is(err, common.ErrorValidation):
		writeMessage(w, http.StatusBadRequest, "Invalid data")
	case errors.Is(err, common.ErrorNotFound):
		writeMessage(w, http.StatusNotFound, "Not found")
	case errors.Is(err, common.ErrorConflict):
		writeMessage(w, http.StatusBadRequest, "Already exists")
	case errors.Is(err, common.ErrorInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, common.ErrorUnauthorized):
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, common.ErrorForbidden):
		writeMessage(w, http.StatusForbidden, "Forbidden - Admin access required")
	default:
		log.Error(r.Context(), fallback, "error", err, "path", r.URL.Path)
		writeMessage(w, http.StatusInternalServerError, fallback)
	}
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
