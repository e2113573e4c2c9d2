package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// DefaultMessage is the last-resort message when nothing more specific is
// known.
const DefaultMessage = "Something went wrong. Please try again."

var statusMessages = map[int]string{
	http.StatusBadRequest:          "Bad request. Please check your input.",
	http.StatusUnauthorized:        "Your session has expired. Please sign in again.",
	http.StatusForbidden:           "You don't have permission to perform this action.",
	http.StatusNotFound:            "The requested resource was not found.",
	http.StatusUnprocessableEntity: "Validation error. Please check your input.",
	http.StatusInternalServerError: "Server error. Please try again later.",
	http.StatusBadGateway:          "Bad gateway. Please try again later.",
	http.StatusServiceUnavailable:  "Service unavailable. Please try again later.",
}

// StatusMessage returns the generic message for a status code, or "".
func StatusMessage(code int) string {
	return statusMessages[code]
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
	// Locations maps each validation location (as sent by the backend, e.g.
	// "body.budget") to its messages.
	Locations map[string][]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("client: %d: %s", e.Status, e.Message)
}

// StatusCode reports the HTTP status.
func (e *APIError) StatusCode() int {
	return e.Status
}

// ErrUnauthorized is matched by errors.Is for 401 responses.
var ErrUnauthorized = errors.New("client: unauthorized")

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

type detailItem struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// parseError builds an APIError from a response body. Either detail shape is
// accepted: a plain string or a list of {loc, msg} objects.
func parseError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var payload errorBody
	if len(strings.TrimSpace(string(body))) > 0 && json.Unmarshal(body, &payload) == nil {
		var detail string
		if json.Unmarshal(payload.Detail, &detail) == nil && strings.TrimSpace(detail) != "" {
			apiErr.Message = strings.TrimSpace(detail)
		}

		var items []detailItem
		if apiErr.Message == "" && json.Unmarshal(payload.Detail, &items) == nil && len(items) > 0 {
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				msg := strings.TrimSpace(item.Msg)
				if msg == "" {
					continue
				}
				msgs = append(msgs, msg)
				if loc := joinLoc(item.Loc); loc != "" {
					if apiErr.Locations == nil {
						apiErr.Locations = make(map[string][]string)
					}
					apiErr.Locations[loc] = append(apiErr.Locations[loc], msg)
				}
			}
			apiErr.Message = strings.Join(normalizeMessages(msgs), "; ")
		}

		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(payload.Message)
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = StatusMessage(status)
	}
	if apiErr.Message == "" {
		apiErr.Message = DefaultMessage
	}
	return apiErr
}

func joinLoc(loc []any) string {
	parts := make([]string, 0, len(loc))
	for _, seg := range loc {
		s := strings.TrimSpace(fmt.Sprint(seg))
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ".")
}

// Message extracts a human-readable reason from any error returned by this
// package or the network layer.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if errors.Is(err, context.Canceled) {
		return "The request was cancelled."
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The request timed out. Please try again."
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "The request timed out. Please try again."
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Sprintf("Network error: %v", urlErr.Err)
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return DefaultMessage
}
