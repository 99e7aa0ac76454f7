package session

import (
	"fmt"

	"github.com/mmcdole/scout/internal/domain"
)

// State is the resolution state of the current generation
type State int

const (
	// StateIdle means no query is outstanding (new session, after Cancel or Dispose)
	StateIdle State = iota
	// StatePending means the current query is waiting on the backend
	StatePending
	// StateReady means Result holds the answer (possibly empty)
	StateReady
	// StateFailed means Err holds the failure for this generation
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Snapshot is the published view of the current generation.
// Exactly one of Result / Err is set when settled.
type Snapshot struct {
	Generation uint64
	Query      domain.Query
	State      State
	Result     *domain.ResultSet
	Err        error
}

// Settled reports whether the snapshot is ready or failed
func (s Snapshot) Settled() bool {
	return s.State == StateReady || s.State == StateFailed
}

// FailureError is a backend failure attached to the generation that caused it
type FailureError struct {
	Generation uint64
	Query      domain.Query
	Err        error
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("search %q (generation %d): %v", e.Query.Text, e.Generation, e.Err)
}

func (e *FailureError) Unwrap() error {
	return e.Err
}

// Stats are counters for a session's lifetime
type Stats struct {
	Generation   uint64
	BackendCalls uint64 // Requests actually sent to the client
	CacheHits    uint64
	Joined       uint64 // Submissions that attached to an in-flight request
	Discarded    uint64 // Responses dropped because their generation was stale
	CacheLen     int
}
