package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5/middleware"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/oapi-codegen/nullable"

	"github.com/tripsync/tripsync-api/internal/app/apperr"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 10 << 20

const (
	codeInvalidJSON   = "INVALID_JSON"
	codeRouteNotFound = "ROUTE_NOT_FOUND"
	codeInternal      = "INTERNAL_ERROR"
	codeRateLimited   = "RATE_LIMITED"
)

type errorResponse struct {
	Error     string                            `json:"error"`
	Message   string                            `json:"message,omitempty"`
	Code      string                            `json:"code,omitempty"`
	Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
	RequestID nullable.Nullable[string]         `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAppError(w http.ResponseWriter, r *http.Request, ae *apperr.Error) {
	er := errorResponse{
		Error:   ae.Title,
		Message: ae.Message,
		Code:    ae.Code,
	}
	if er.Error == "" {
		er.Error = http.StatusText(ae.Status)
	}
	if len(ae.Details) > 0 {
		er.Details = nullable.NewNullableWithValue(ae.Details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		er.RequestID = nullable.NewNullableWithValue(rid)
	}
	writeJSON(w, ae.Status, er)
}

// writeError renders err. Anything that is not an *apperr.Error is a 500; its text is only
// exposed outside production.
func writeError(w http.ResponseWriter, r *http.Request, err error, production bool) {
	if ae, ok := apperr.As(err); ok {
		writeAppError(w, r, ae)
		return
	}

	rid := middleware.GetReqID(r.Context())
	log.Printf("[%s] %s %s: internal error: %v", rid, r.Method, r.URL.Path, err)

	msg := "Something went wrong"
	if !production {
		msg = err.Error()
	}
	writeAppError(w, r, apperr.New(http.StatusInternalServerError, codeInternal, "Internal Server Error", msg))
}

func errInvalidJSON() *apperr.Error {
	return apperr.New(http.StatusBadRequest, codeInvalidJSON, "Invalid JSON", "Request body contains invalid JSON")
}

// decodeJSON reads the request body into dst. An empty body decodes as {} so that missing fields
// surface as validation errors rather than parse errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return apperr.New(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Payload too large", "Request body is too large")
		}
		return errInvalidJSON()
	}
	if len(body) == 0 {
		body = []byte("{}")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errInvalidJSON()
	}
	return nil
}

// validationError converts ozzo validation output into a 400 whose message names the first
// failing field and whose details list every field.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var ie validation.InternalError
	if errors.As(err, &ie) {
		return ie.InternalError()
	}
	var ve validation.Errors
	if !errors.As(err, &ve) {
		return apperr.Validation(err.Error(), nil)
	}

	fields := make([]string, 0, len(ve))
	details := make(map[string]any, len(ve))
	for f, e := range ve {
		fields = append(fields, f)
		details[f] = e.Error()
	}
	sort.Strings(fields)
	first := fields[0]
	return apperr.Validation(first+": "+ve[first].Error(), details)
}
