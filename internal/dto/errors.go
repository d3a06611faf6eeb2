package dto

import "fmt"

// NotFoundError maps to 404.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// ValidationError maps to 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UnsupportedFileTypeError maps to 415.
type UnsupportedFileTypeError struct {
	FileName string
}

func (e *UnsupportedFileTypeError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.FileName)
}

// ExtractionFailedError maps to 422. The file extension was accepted but the
// content could not be parsed.
type ExtractionFailedError struct {
	FileName string
	Reason   string
}

func (e *ExtractionFailedError) Error() string {
	return fmt.Sprintf("failed to extract text from %s: %s", e.FileName, e.Reason)
}

// UpstreamError maps to 502. Service names: "mistral", "qdrant".
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream service %s failed: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// RateLimitedError maps to 429.
type RateLimitedError struct {
	Service string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited by %s", e.Service)
}

// UnauthorizedError maps to 401.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	if e.Message == "" {
		return "unauthorized"
	}
	return e.Message
}
