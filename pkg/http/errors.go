package http

import (
	"encoding/json"
	"errors"
	"fmt"
	gohttp "net/http"
	"sort"
	"strings"
)

const fallbackMessage = "API request failed"

// APIError is a non-2xx answer from the backend. Message is what the backend
// said, ready to show to the user.
type APIError struct {
	Status  int
	Code    string
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	return e.Message
}

// TransportError means no HTTP response was received at all.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("http: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == gohttp.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return StatusOf(err) == gohttp.StatusNotFound
}

// errorBody covers the shapes the backend uses for failures:
//
//	{"detail": "No active account found with the given credentials"}
//	{"error": {"code": "out_of_stock", "message": "…"}}
//	{"username": ["A user with that username already exists."]}
type errorBody struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newAPIError(r *Response) *APIError {
	e := &APIError{Status: r.StatusCode, Body: r.Raw}

	if !r.IsJSON() {
		e.Message = fmt.Sprintf("Server Error: %d", r.StatusCode)
		return e
	}

	var body errorBody
	if err := json.Unmarshal(r.Raw, &body); err != nil {
		e.Message = fallbackMessage
		return e
	}

	e.Code = body.Code
	switch {
	case body.Detail != "":
		e.Message = body.Detail
	case body.Error != nil && body.Error.Message != "":
		e.Message = body.Error.Message
		if body.Error.Code != "" {
			e.Code = body.Error.Code
		}
	default:
		e.Message = fieldError(r.Raw)
	}
	return e
}

// fieldError picks the first (alphabetical) field validation message.
func fieldError(raw []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || len(fields) == 0 {
		return fallbackMessage
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		var msgs []string
		if err := json.Unmarshal(fields[k], &msgs); err == nil && len(msgs) > 0 {
			if k == "non_field_errors" {
				return msgs[0]
			}
			return k + ": " + strings.TrimSpace(msgs[0])
		}
	}
	return fallbackMessage
}
