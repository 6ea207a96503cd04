package adminapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies failures so callers branch on a discriminant instead of
// matching message text.
type ErrorKind string

const (
	KindUnauthorized ErrorKind = "unauthorized"
	KindValidation   ErrorKind = "validation"
	KindServer       ErrorKind = "server"
	KindNetwork      ErrorKind = "network"
)

// APIError is returned for every failed call made through Client.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf reports the kind of err, or "" when err is not an APIError.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsUnauthorized reports whether err is an authentication failure.
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}

// MessageOf returns the human readable message carried by err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindServer
	}
}

type errorBody struct {
	Error   any `json:"error"`
	Message any `json:"message"`
}

// errorMessage derives the message for a failed response body: the JSON
// "error" field, then "message", then the raw text, then a synthesized
// status message.
func errorMessage(status int, body []byte) string {
	text := strings.TrimSpace(string(body))
	if text != "" {
		var parsed errorBody
		if err := json.Unmarshal(body, &parsed); err == nil {
			if msg := stringField(parsed.Error); msg != "" {
				return msg
			}
			if msg := stringField(parsed.Message); msg != "" {
				return msg
			}
		}
		if !looksLikeJSONObject(text) {
			return text
		}
	}
	return fmt.Sprintf("Request failed with status %d", status)
}

func stringField(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// A JSON object without error/message fields carries no readable text.
func looksLikeJSONObject(text string) bool {
	if !strings.HasPrefix(text, "{") {
		return false
	}
	return json.Valid([]byte(text))
}

func newStatusError(status int, body []byte) *APIError {
	return &APIError{
		Kind:    kindForStatus(status),
		Status:  status,
		Message: errorMessage(status, body),
	}
}

func newNetworkError(err error) *APIError {
	return &APIError{
		Kind:    KindNetwork,
		Message: err.Error(),
		Err:     err,
	}
}
