package api

import (
	"fmt"
	"net/http"
	"strings"
)

// Error is a failed backend response.
type Error struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s", e.StatusCode, e.Message)
}

func newResponseError(statusCode int, message string) *Error {
	if message == "" {
		message = strings.ToLower(http.StatusText(statusCode))
	}

	return &Error{
		StatusCode: statusCode,
		Message:    message,
	}
}
