package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPrecondition marks operations aborted before any side effect:
	// missing token, missing photo, missing GPS.
	ErrPrecondition = errors.New("precondition failed")
	// ErrNoResponse marks transport failures where the remote endpoint
	// never answered.
	ErrNoResponse = errors.New("no response")
	// ErrInvalidResponse marks responses that answered but could not be
	// interpreted (malformed JSON, unexpected schema).
	ErrInvalidResponse = errors.New("invalid response")
	// ErrConfiguration marks unusable local settings.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrInvalidResponse
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
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
