package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnavailable marks a backend that cannot run at all: missing
	// credentials, missing binary, or a disabled configuration section.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrBackendFailure marks a backend that was attempted and failed.
	ErrBackendFailure = errors.New("backend failure")
	// ErrConfiguration marks invalid or contradictory settings.
	ErrConfiguration = errors.New("configuration error")
	// ErrTimeout marks a backend attempt that exceeded its deadline.
	ErrTimeout = errors.New("timeout")
	// ErrExhausted marks a chain whose every eligible backend failed.
	ErrExhausted = errors.New("all backends exhausted")
	// ErrIntegrity marks cached audio whose content digest no longer
	// matches its file name.
	ErrIntegrity = errors.New("integrity mismatch")
	// ErrBusy marks an operation refused because another process holds
	// the exclusivity lock.
	ErrBusy = errors.New("busy")
)

// Wrap builds an error message that includes backend context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, backend, operation, message string, err error) error {
	detail := buildDetail(backend, operation, message)
	if marker == nil {
		marker = ErrBackendFailure
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retriable reports whether the chain should continue to the next backend
// after this failure. Configuration errors abort the chain; everything else
// falls through.
func Retriable(err error) bool {
	return !errors.Is(err, ErrConfiguration)
}

func buildDetail(backend, operation, message string) string {
	parts := make([]string, 0, 3)
	if backend = strings.TrimSpace(backend); backend != "" {
		parts = append(parts, backend)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
