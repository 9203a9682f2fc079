package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorised indicates the access token is invalid or expired.
	ErrUnauthorised = errors.New("graph: unauthorised")

	// ErrForbidden indicates the application lacks a required permission.
	ErrForbidden = errors.New("graph: forbidden")

	ErrNotFound    = errors.New("graph: not found")
	ErrRateLimited = errors.New("graph: rate limited")
	ErrBadRequest  = errors.New("graph: bad request")
	ErrServerError = errors.New("graph: server error")
)

// APIError is a non-2xx response from Microsoft Graph
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Unwrap exposes the sentinel for the status code so callers can use errors.Is
func (e *APIError) Unwrap() error {
	return statusError(e.StatusCode)
}

func statusError(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorised
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusBadRequest:
		return ErrBadRequest
	default:
		if statusCode >= 500 {
			return ErrServerError
		}
		return nil
	}
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// newAPIError picks the most specific description available in body:
// error.message, then error.code, then a generic status line.
func newAPIError(statusCode int, body json.RawMessage) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		apiErr.Code = parsed.Error.Code
		apiErr.Message = parsed.Error.Message
	}

	if apiErr.Message == "" {
		apiErr.Message = apiErr.Code
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("Graph API request failed with status %d", statusCode)
	}
	return apiErr
}
