package contentful

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound matches API errors for records that do not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized matches API errors caused by a missing or under-scoped token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSpaceNotFound is returned by Environment.Verify when the space is missing.
	ErrSpaceNotFound = errors.New("space not found")

	// ErrEnvironmentNotFound is returned by Environment.Verify when the space
	// exists but the environment or alias does not.
	ErrEnvironmentNotFound = errors.New("environment not found")
)

// APIError is a non-2xx response from the Content Management API.
type APIError struct {
	StatusCode int
	ErrorID    string // sys.id of the error body, e.g. "NotFound"
	Message    string
	RequestID  string
	Body       string
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: string(body)}

	var payload struct {
		Sys struct {
			ID string `json:"id"`
		} `json:"sys"`
		Message   string `json:"message"`
		RequestID string `json:"requestId"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.ErrorID = payload.Sys.ID
		apiErr.Message = payload.Message
		apiErr.RequestID = payload.RequestID
	}
	return apiErr
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Body
	}
	if e.ErrorID != "" {
		return fmt.Sprintf("contentful API returned %d (%s): %s", e.StatusCode, e.ErrorID, msg)
	}
	return fmt.Sprintf("contentful API returned %d: %s", e.StatusCode, msg)
}

// Is lets errors.Is match ErrNotFound and ErrUnauthorized by status code.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}
