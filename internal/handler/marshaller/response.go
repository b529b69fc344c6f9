// Package marshaller turns service results and errors into HTTP responses.
// Every error body has the shape {"detail": ...}.
package marshaller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/trackly/trackly-api/internal/service"
	"github.com/trackly/trackly-api/internal/service/dto"
)

// ErrorBody is the JSON document written for every failed request.
type ErrorBody struct {
	Detail string           `json:"detail"`
	Errors []dto.FieldError `json:"errors,omitempty"`
}

// kinds lists service error kinds with their status and fallback detail.
// Order matters: the first match wins.
var kinds = []struct {
	err    error
	status int
	detail string
}{
	{service.ErrUnauthorized, http.StatusUnauthorized, "Not authenticated"},
	{service.ErrForbidden, http.StatusForbidden, "Not enough permissions"},
	{service.ErrNotFound, http.StatusNotFound, "Not found"},
	{service.ErrConflict, http.StatusConflict, "Conflict"},
	{service.ErrTooLarge, http.StatusRequestEntityTooLarge, "Payload too large"},
	{service.ErrInvalidInput, http.StatusBadRequest, "Invalid request"},
}

// JSON writes v as the response body.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes the status and body err maps to.
func Error(w http.ResponseWriter, err error) {
	status, body := Describe(err)
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	JSON(w, status, body)
}

// Describe maps err to a status code and a client-safe body. Unknown errors
// become a 500 with a generic detail; their text never reaches the client.
func Describe(err error) (int, ErrorBody) {
	var verr *dto.ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity, ErrorBody{Detail: verr.Error(), Errors: verr.Fields}
	}

	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.status, ErrorBody{Detail: detail(err, k.err, k.detail)}
		}
	}
	return http.StatusInternalServerError, ErrorBody{Detail: "Internal server error"}
}

// detail strips the "<kind>: " prefix services put in front of client text.
func detail(err, kind error, fallback string) string {
	msg := err.Error()
	prefix := kind.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		if d := msg[i+len(prefix):]; d != "" {
			return d
		}
	}
	return fallback
}

// Decode reads a JSON request body into v. Malformed input comes back as a
// *dto.ValidationError, which Error reports as 422.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return &dto.ValidationError{Fields: []dto.FieldError{{Field: "body", Message: "Request body is not valid JSON"}}}
	}
	return nil
}
