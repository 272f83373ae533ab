package remote

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidSpaceID indicates a malformed space identifier at construction time.
	ErrInvalidSpaceID = errors.New("remote: invalid space id")
	// ErrInvalidToken indicates an empty or malformed access token at construction time.
	ErrInvalidToken = errors.New("remote: invalid access token")
	// ErrNotFound matches APIError values with a 404 status.
	ErrNotFound = errors.New("remote: not found")
	// ErrUnauthorized matches APIError values with a 401 or 403 status.
	ErrUnauthorized = errors.New("remote: unauthorized")
	// ErrVersionRequired indicates a publish call without a known version.
	ErrVersionRequired = errors.New("remote: resource version is required")
)

// APIError is the decoded error body returned by the platform.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	code := e.Code
	if code == "" {
		code = http.StatusText(e.Status)
	}
	if e.Message == "" {
		return fmt.Sprintf("remote: %d %s", e.Status, code)
	}
	return fmt.Sprintf("remote: %d %s: %s", e.Status, code, e.Message)
}

// Is lets errors.Is match the status sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	default:
		return false
	}
}

// ErrorCode extracts the platform error id (e.g. "AccessTokenInvalid") when
// err wraps an APIError.
func ErrorCode(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}
