package translate

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"voicetrans/internal/services"
)

// NetworkMessage is shown when the server cannot be reached.
const NetworkMessage = "Unable to connect to server. Please check your internet connection."

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	// Message is the server-provided message, or a generic one for the status.
	Message    string
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("translate request: http %d: %s", e.StatusCode, e.Message)
}

// Unwrap tags every status error as a server error.
func (e *StatusError) Unwrap() error { return services.ErrServer }

// statusMessage picks the message shown for an HTTP failure, preferring the
// server's own message.
func statusMessage(status int, serverMessage string) string {
	if msg := strings.TrimSpace(serverMessage); msg != "" {
		return msg
	}
	switch status {
	case http.StatusBadRequest:
		return "Invalid request data"
	case http.StatusUnauthorized:
		return "Please login again"
	case http.StatusForbidden:
		return "Access denied"
	case http.StatusNotFound:
		return "Resource not found"
	case http.StatusUnprocessableEntity:
		return "Invalid input data"
	case http.StatusInternalServerError:
		return "Internal server error"
	default:
		return "Something went wrong"
	}
}

// UserMessage returns the text to show a person for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Message
	}
	if errors.Is(err, services.ErrTransport) || errors.Is(err, services.ErrTimeout) {
		return NetworkMessage
	}
	return err.Error()
}
