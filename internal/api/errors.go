package api

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Error represents a structured error response. Detail is set only on 500
// responses.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Common error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeUnauthorized   = "unauthorised"
	ErrCodeForbidden      = "forbidden"
	ErrCodeInternal       = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeMethodNotAllow = "method_not_allowed"
	ErrCodeUnavailable    = "unavailable"
)

// Fixed client-facing messages of the authorization chain.
const (
	msgNoToken          = "No token provided"
	msgInvalidToken     = "Invalid token"
	msgTokenMismatch    = "Unauthorized user or token mismatch"
	msgBadCredentials   = "Invalid email or password"
	msgAdminsOnly       = "Access denied. Admins only."
	msgAdminsOrManagers = "Access denied. Admins or Managers only."
	msgNotAssignee      = "You are not authorized to update this task"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeValidationError writes a 400 for a domain validation failure.
func writeValidationError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeForbidden writes a 403 error response.
func writeForbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

// writeInternalError writes a 500 error response. err, when set, becomes
// the detail field.
func writeInternalError(w http.ResponseWriter, message string, err error) {
	e := Error{
		Status:  http.StatusInternalServerError,
		Code:    ErrCodeInternal,
		Message: message,
	}
	if err != nil {
		e.Detail = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, e)
}

// decodeJSON reads the request body into v. An empty body is an error.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	return json.NewDecoder(r.Body).Decode(v)
}
