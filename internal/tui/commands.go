package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/scout/internal/domain"
)

const maxSuggestions = 5

// Command factories for async operations

// WaitCmd suspends until the session's current generation settles
func WaitCmd(s Session) tea.Cmd {
	return func() tea.Msg {
		snap, err := s.Wait(context.Background())
		return SnapshotMsg{Snapshot: snap, Err: err}
	}
}

// debounceCmd schedules a submit check for edit seq
func debounceCmd(d time.Duration, seq int) tea.Cmd {
	if d <= 0 {
		return func() tea.Msg { return debounceMsg{seq: seq} }
	}
	return tea.Tick(d, func(time.Time) tea.Msg {
		return debounceMsg{seq: seq}
	})
}

// SuggestCmd looks up history suggestions for text
func SuggestCmd(history domain.HistoryStore, text string) tea.Cmd {
	if history == nil {
		return nil
	}
	return func() tea.Msg {
		entries, err := history.Suggest(text, maxSuggestions)
		if err != nil {
			return SuggestionsMsg{Text: text}
		}
		return SuggestionsMsg{Text: text, Entries: entries}
	}
}

// ClearHistoryCmd wipes the history store
func ClearHistoryCmd(history domain.HistoryStore) tea.Cmd {
	if history == nil {
		return nil
	}
	return func() tea.Msg {
		return HistoryClearedMsg{Err: history.Clear()}
	}
}
