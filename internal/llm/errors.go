package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrGroundingUnsupported is returned when a provider has no search tool.
	ErrGroundingUnsupported = errors.New("search grounding not supported by this provider")
	// ErrUnsupportedProvider is returned by NewClient for unknown provider names.
	ErrUnsupportedProvider = errors.New("unsupported LLM provider")
	// ErrMissingAPIKey is returned by NewClient when no credential is configured.
	ErrMissingAPIKey = errors.New("API key is required")
)

// Kind tags a provider failure as worth waiting out or not.
type Kind int

const (
	KindFatal Kind = iota
	KindTransient
)

func (k Kind) String() string {
	if k == KindTransient {
		return "transient"
	}
	return "fatal"
}

// ProviderError wraps an SDK error with its classification.
type ProviderError struct {
	Provider   string
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API error (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s API error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a provider failure expected to clear up
// after waiting (quota, overload, temporary unavailability).
func IsTransient(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == KindTransient
}

// transientMarkers are substrings providers put in quota and overload errors.
var transientMarkers = []string{
	"429",
	"RESOURCE_EXHAUSTED",
	"503",
	"UNAVAILABLE",
	"OVERLOADED",
}

// classify builds a ProviderError from an SDK error. statusCode is 0 when the
// SDK did not expose one; the error text is inspected either way.
func classify(provider string, statusCode int, err error) error {
	kind := KindFatal
	if isTransientStatus(statusCode) || hasTransientMarker(err.Error()) {
		kind = KindTransient
	}
	return &ProviderError{
		Provider:   provider,
		Kind:       kind,
		StatusCode: statusCode,
		Err:        err,
	}
}

func isTransientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, 529: // 529: Anthropic overloaded
		return true
	}
	return false
}

func hasTransientMarker(msg string) bool {
	upper := strings.ToUpper(msg)
	for _, marker := range transientMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}
