package analysis

import (
	"errors"
	"fmt"
)

// ErrUnsupportedMedia indicates the input matched no known media type.
var ErrUnsupportedMedia = errors.New("unsupported media type")

// Failure reasons carried by ExternalServiceError
const (
	ReasonRateLimit   = "rate_limit"
	ReasonServerError = "server_error"
)

// ExternalServiceError is raised when a provider returns HTTP 429/5xx or an
// otherwise unusable response. The router switches on it to decide fallback.
type ExternalServiceError struct {
	Service string
	Reason  string
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Service, e.Reason)
}

// FileTooLargeError is raised before any network call
type FileTooLargeError struct {
	SizeBytes int64
	MaxBytes  int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file too large: %d bytes (max %d)", e.SizeBytes, e.MaxBytes)
}

// VideoTooLongError is raised after the duration probe, before extraction
type VideoTooLongError struct {
	DurationSec float64
	MaxSec      float64
}

func (e *VideoTooLongError) Error() string {
	return fmt.Sprintf("video too long: %.0fs (max %.0fs)", e.DurationSec, e.MaxSec)
}
