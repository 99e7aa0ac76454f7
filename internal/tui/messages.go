package tui

import (
	"github.com/mmcdole/scout/internal/domain"
	"github.com/mmcdole/scout/internal/session"
)

// Message types for the TUI

// debounceMsg fires when the input has been idle long enough. Only the
// message carrying the latest edit sequence submits.
type debounceMsg struct {
	seq int
}

// SnapshotMsg carries a settled snapshot from the session
type SnapshotMsg struct {
	Snapshot session.Snapshot
	Err      error
}

// SuggestionsMsg carries history suggestions for the text they were computed for
type SuggestionsMsg struct {
	Text    string
	Entries []domain.HistoryEntry
}

// HistoryClearedMsg signals that the history store was wiped
type HistoryClearedMsg struct {
	Err error
}
