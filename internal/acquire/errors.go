package acquire

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreachableSource is matched by every chain exhaustion error
	ErrUnreachableSource = errors.New("source unreachable")
	// ErrIsolationBlocked is returned when the rendered page cannot be read
	ErrIsolationBlocked = errors.New("isolated rendering blocked")
	// ErrLoadTimeout is returned when the isolated rendering does not finish in time
	ErrLoadTimeout = errors.New("isolated rendering timed out")
	// ErrEmptyContent is returned when a response parsed but held nothing readable
	ErrEmptyContent = errors.New("no readable content")
	// ErrNoSnapshot is returned when the snapshot service has no copy of the page
	ErrNoSnapshot = errors.New("no cached snapshot available")
)

// UnreachableSourceError is returned once every strategy has failed for URL.
type UnreachableSourceError struct {
	URL      string
	Attempts []string // Strategy names in the order they were tried
	Last     error
}

func (e *UnreachableSourceError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("all fetch strategies failed for %s: %v", e.URL, e.Last)
	}
	return fmt.Sprintf("all fetch strategies failed for %s", e.URL)
}

func (e *UnreachableSourceError) Unwrap() error {
	return e.Last
}

// Is makes errors.Is(err, ErrUnreachableSource) hold for any exhaustion.
func (e *UnreachableSourceError) Is(target error) bool {
	return target == ErrUnreachableSource
}
