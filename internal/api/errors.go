package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/remoshock/remoshock/internal/command"
	"github.com/remoshock/remoshock/internal/randomizer"
)

// APIError represents an API-layer error with HTTP status code.
type APIError struct {
	Code       string
	Message    string
	Details    interface{}
	StatusCode int
}

// ErrBadRequest marks malformed or missing request parameters.
var ErrBadRequest = errors.New("BAD_REQUEST")

// NewAPIError creates a new API error.
func NewAPIError(code string, message string, statusCode int, details interface{}) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		Details:    details,
		StatusCode: statusCode,
	}
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// badRequest creates a 400 error for a malformed parameter.
func badRequest(format string, args ...interface{}) *APIError {
	return NewAPIError("BAD_REQUEST", fmt.Sprintf(format, args...), http.StatusBadRequest, nil)
}

// ToAPIError maps an error to an API error.
func ToAPIError(err error) *APIError {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, ErrBadRequest):
		return NewAPIError("BAD_REQUEST", err.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, command.ErrInvalidReceiver):
		return NewAPIError("INVALID_RECEIVER", err.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, command.ErrInvalidRange):
		return NewAPIError("INVALID_RANGE", err.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, randomizer.ErrInvalidConfig):
		return NewAPIError("INVALID_RANDOMIZER_CONFIG", "Invalid randomizer configuration",
			http.StatusBadRequest, violations(err))
	default:
		return NewAPIError("INTERNAL", "Internal server error", http.StatusInternalServerError,
			map[string]interface{}{"original": err.Error()})
	}
}

// violations lists the messages of a joined validation error.
func violations(err error) []string {
	var messages []string
	for _, line := range strings.Split(err.Error(), "\n") {
		messages = append(messages, strings.TrimPrefix(line, randomizer.ErrInvalidConfig.Error()+": "))
	}
	return messages
}

// WriteAPIError writes err in the error envelope.
func WriteAPIError(w http.ResponseWriter, err error) {
	apiErr := ToAPIError(err)
	WriteError(w, apiErr.StatusCode, apiErr.Code, apiErr.Message, apiErr.Details)
}
