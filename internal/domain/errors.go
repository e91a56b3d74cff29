package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrTypeMismatch = errors.New("type mismatch")
	ErrValidation   = errors.New("validation failed")
	ErrTimeout      = errors.New("request timed out")
	ErrNetwork      = errors.New("network error")
)

// HTTPError is a non-2xx answer from the live hub.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("hub API error %d: %s", e.StatusCode, e.Body)
}

func DeviceNotFound(id string) error {
	return fmt.Errorf("device with ID %s %w", id, ErrNotFound)
}

func RoomNotFound(id string) error {
	return fmt.Errorf("room with ID %s %w", id, ErrNotFound)
}
