package manager

import (
	"time"

	"github.com/google/uuid"
)

// timestampLayout names artifacts down to the second so the formatted
// timestamp alone is informative, rather than relying on the UUID suffix
// to disambiguate two runs started on the same day.
const timestampLayout = "2006-01-02-15-04-05"

// RunIdentity names every output artifact a run produces, so concurrent
// runs against the same sinks never collide.
type RunIdentity struct {
	FormattedTimestamp string
	UUID               string
}

// NewRunIdentity derives a RunIdentity from the wall-clock instant a run
// starts.
func NewRunIdentity(now time.Time) RunIdentity {
	return RunIdentity{
		FormattedTimestamp: now.UTC().Format(timestampLayout),
		UUID:               uuid.NewString(),
	}
}
