// Package source tracks the web addresses a session knows about and their processing status.
package source

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrInvalidAddress is returned when a candidate is not an absolute URL
	ErrInvalidAddress = errors.New("invalid address")
	// ErrDuplicateSource is returned when an address is already tracked
	ErrDuplicateSource = errors.New("source already added")
	// ErrNotFound is returned when an address is not tracked
	ErrNotFound = errors.New("source not found")
	// ErrInvalidTransition is returned when a status change breaks the lifecycle
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Status is the processing state of a Source.
type Status string

const (
	// StatusLoading means a fetch is in flight
	StatusLoading Status = "loading"
	// StatusReady means content is available (or the source was discovered)
	StatusReady Status = "ready"
	// StatusFailed means every fetch strategy was exhausted
	StatusFailed Status = "error"
)

// Source is a tracked address plus its processing status.
type Source struct {
	Address    string `json:"address"`
	Status     Status `json:"status"`
	Discovered bool   `json:"discovered,omitempty"`
}

// IsValidURL reports whether candidate parses as an absolute URL with a scheme and an authority.
// It never fails; parse errors map to false.
func IsValidURL(candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return false
	}
	parsed, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	return parsed.Scheme != "" && parsed.Host != ""
}

// Validate returns ErrInvalidAddress wrapped with the candidate when IsValidURL is false.
func Validate(candidate string) error {
	if !IsValidURL(candidate) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, candidate)
	}
	return nil
}

// Normalize trims whitespace and a trailing slash so that equivalent addresses compare equal.
func Normalize(address string) string {
	return strings.TrimSuffix(strings.TrimSpace(address), "/")
}
