package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hazyhaar/medqc/fault"
)

// statusError carries an explicit HTTP status for request-shape problems
// that have no fault code.
type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string { return e.message }

func httpError(status int, message string) error {
	return &statusError{status: status, message: message}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// writeError renders the JSON error envelope, mapping fault codes onto
// HTTP statuses. Unrecognized errors become opaque 500s.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	body := errorBody{Code: "INTERNAL", Message: "internal server error"}

	var se *statusError
	switch {
	case errors.As(err, &se):
		status = se.status
		body = errorBody{Code: http.StatusText(se.status), Message: se.message}
	default:
		if code, ok := fault.CodeOf(err); ok {
			body = errorBody{Code: string(code), Message: err.Error()}
			switch code {
			case fault.NoDoc:
				status = http.StatusNotFound
			case fault.NoText:
				status = http.StatusConflict
			case fault.Unsupported:
				status = http.StatusUnsupportedMediaType
			}
		}
	}
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorEnvelope{Error: body})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
