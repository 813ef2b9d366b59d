package startgg

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when the API explicitly reports an entity as null.
// It is a semantic absence, not a failure: callers skip the unit and move on.
var ErrNotFound = eris.New("startgg: entity not found")

// ErrNoPhase is returned when an event has no phases, meaning seed data is
// unavailable. Callers treat this as "seeds unavailable, continue".
var ErrNoPhase = eris.New("startgg: event has no phases")

// FetchError reports a structurally malformed response: the envelope decoded
// as JSON but an expected key path into the payload is missing or null.
// It is never retried and aborts the current unit of work.
type FetchError struct {
	Op   string
	Path []string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("startgg: %s: missing key path %v in response", e.Op, e.Path)
}
