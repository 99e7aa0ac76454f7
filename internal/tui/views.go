package tui

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/scout/internal/domain"
	"github.com/mmcdole/scout/internal/session"
	"github.com/mmcdole/scout/internal/tui/styles"
	"github.com/sahilm/fuzzy"
)

// View renders the search screen
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("scout"))
	b.WriteString("\n")
	b.WriteString(styles.InputBoxStyle.Width(max(20, m.width-4)).Render(m.input.View()))
	b.WriteString("\n")

	if s := m.renderSuggestions(); s != "" {
		b.WriteString(s)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.renderBody())
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(styles.DimStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.renderHelp())

	return b.String()
}

// renderBody shows exactly one of: hint, loading, failure, empty, results
func (m Model) renderBody() string {
	switch m.snap.State {
	case session.StatePending:
		return m.spinner.View() + styles.SubtitleStyle.Render(fmt.Sprintf(" Searching for %q...", m.snap.Query.Text))

	case session.StateFailed:
		return styles.ErrorStyle.Render(describeFailure(m.snap.Err))

	case session.StateReady:
		if m.snap.Query.IsEmpty() {
			return styles.DimStyle.Render("Type to search")
		}
		if m.snap.Result.IsEmpty() {
			return styles.DimStyle.Render(fmt.Sprintf("No results for %q", m.snap.Query.Text))
		}
		return m.renderResults(m.snap.Result)

	default:
		return styles.DimStyle.Render("Type to search")
	}
}

func (m Model) renderResults(rs *domain.ResultSet) string {
	var b strings.Builder

	visible := max(1, m.height-10)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := min(len(rs.Items), start+visible)
	width := max(20, m.width-4)

	for i := start; i < end; i++ {
		b.WriteString(renderItem(rs.Items[i], i == m.cursor, width))
		b.WriteString("\n")
	}

	b.WriteString(styles.DimStyle.Render(summary(rs)))
	return b.String()
}

func renderItem(item domain.Item, selected bool, width int) string {
	title := styles.Truncate(item.Title, width/2)
	detail := item.Description
	if item.ThumbnailURL != "" {
		if u, err := url.Parse(item.ThumbnailURL); err == nil {
			detail = strings.TrimSpace(detail + " [img " + u.Host + "]")
		}
	}
	detail = styles.Truncate(detail, width-lipgloss.Width(title)-4)

	if selected {
		return styles.SelectedRowStyle.Render("> "+title) + " " + styles.SubtitleStyle.Render(detail)
	}
	return styles.NormalRowStyle.Render("  "+title) + " " + styles.DimStyle.Render(detail)
}

func summary(rs *domain.ResultSet) string {
	size := rs.Query.PageSize
	if size <= 0 {
		size = domain.DefaultPageSize
	}
	pages := (rs.TotalCount + size - 1) / size
	s := fmt.Sprintf("page %d of %d · %d results", rs.Query.Page+1, max(1, pages), rs.TotalCount)
	if rs.FromCache {
		s += " · cached"
	}
	return s
}

// renderSuggestions lists history entries, highlighting what matches the input
func (m Model) renderSuggestions() string {
	if len(m.suggestions) == 0 {
		return ""
	}

	texts := make([]string, len(m.suggestions))
	for i, e := range m.suggestions {
		texts[i] = e.Text
	}

	matched := make(map[int][]int)
	if pattern := strings.ToLower(strings.TrimSpace(m.input.Value())); pattern != "" {
		lower := make([]string, len(texts))
		for i, t := range texts {
			lower[i] = strings.ToLower(t)
		}
		for _, match := range fuzzy.Find(pattern, lower) {
			// Offsets are only valid when lowering kept the byte layout
			if len(lower[match.Index]) == len(texts[match.Index]) {
				matched[match.Index] = match.MatchedIndexes
			}
		}
	}

	parts := make([]string, len(texts))
	for i, t := range texts {
		parts[i] = styles.Highlight(t, matched[i], styles.DimStyle)
	}
	return styles.DimStyle.Render("recent: ") + strings.Join(parts, styles.DimStyle.Render(" · "))
}

func (m Model) renderHelp() string {
	bindings := m.keys.ShortHelp()
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return styles.DimStyle.Render(strings.Join(parts, " · "))
}

// describeFailure turns a session failure into a user-facing line
func describeFailure(err error) string {
	switch {
	case err == nil:
		return "Search failed"
	case errors.Is(err, domain.ErrAuthFailed):
		return "Search failed: the backend rejected the configured token"
	case errors.Is(err, domain.ErrTransport):
		return "Search failed: backend unreachable (" + err.Error() + ")"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "Search failed: unexpected response from backend"
	default:
		return "Search failed: " + err.Error()
	}
}
