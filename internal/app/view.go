package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/linusboehm/rats3/internal/keymap"
)

const (
	defaultViewWidth  = 80
	defaultViewHeight = 24
	paneChromeWidth   = 2 // border columns
	paneChromeHeight  = 2 // border rows
	statusBarHeight   = 1
)

func (m *Model) viewWidth() int {
	if m.width <= 0 {
		return defaultViewWidth
	}
	return m.width
}

func (m *Model) viewHeight() int {
	if m.height <= 0 {
		return defaultViewHeight
	}
	return m.height
}

func (m *Model) explorerWidth() int {
	w := m.viewWidth() * (100 - m.widthPercent) / 100
	if w < 10 {
		w = 10
	}
	return w - paneChromeWidth
}

func (m *Model) previewWidth() int {
	w := m.viewWidth() - (m.explorerWidth() + paneChromeWidth)
	if w < 10 {
		w = 10
	}
	return w - paneChromeWidth
}

func (m *Model) listHeight() int {
	h := m.viewHeight() - statusBarHeight - paneChromeHeight
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) previewHeight() int {
	return m.listHeight()
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	explorer := m.renderExplorer()
	previewPane := m.renderPreviewPane()
	main := lipgloss.JoinHorizontal(lipgloss.Top, explorer, previewPane)

	switch m.mode {
	case ModeHistory:
		main = m.renderOverlay(m.renderHistoryOverlay())
	case ModeDownload:
		main = m.renderOverlay(m.renderDownloadOverlay())
	case ModeHelp:
		main = m.renderOverlay(m.renderHelpOverlay())
	}

	return main + "\n" + m.renderStatusBar()
}

func (m *Model) renderExplorer() string {
	width := m.explorerWidth()
	height := m.listHeight()

	lines := make([]string, 0, height)
	offset := scrollOffset(m.cursor, len(m.filtered), height)
	for i := offset; i < len(m.filtered) && i < offset+height; i++ {
		entry := m.filtered[i]
		name := entry.Name
		if entry.Dir {
			name += "/"
		}
		line := runewidth.Truncate(name, width, "…")
		switch {
		case i == m.cursor:
			line = cursorLineStyle.Width(width).Render(line)
		case entry.Dir:
			line = dirStyle.Render(line)
		}
		lines = append(lines, line)
	}
	for len(lines) < height {
		lines = append(lines, "")
	}

	style := paneStyle
	if m.focus == FocusExplorer {
		style = focusedPaneStyle
	}
	return style.Width(width).Height(height).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderPreviewPane() string {
	width := m.previewWidth()
	height := m.previewHeight()

	lines := make([]string, 0, height)
	for i := m.previewScroll; i < len(m.previewLines) && i < m.previewScroll+height; i++ {
		line := m.previewLines[i]
		if i == 0 && len(m.previewLines) == 1 && m.fetching {
			line = m.spinner.View() + " " + line
		}
		line = ansi.Truncate(line, width, "…")
		if m.focus == FocusPreview {
			switch {
			case m.mode == ModeVisualPreview && inRange(i, m.visualAnchor, m.previewCursor):
				line = visualLineStyle.Width(width).Render(line)
			case m.mode == ModePreviewSearch && m.isCurrentPreviewMatch(i):
				line = cursorLineStyle.Width(width).Render(line)
			case m.mode == ModePreviewSearch && m.isPreviewMatch(i):
				line = matchStyle.Render(ansi.Strip(line))
			case i == m.previewCursor:
				line = cursorLineStyle.Width(width).Render(line)
			}
		}
		lines = append(lines, line)
	}
	for len(lines) < height {
		lines = append(lines, "")
	}

	style := paneStyle
	if m.focus == FocusPreview {
		style = focusedPaneStyle
	}
	return style.Width(width).Height(height).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderStatusBar() string {
	var left string
	switch m.mode {
	case ModeSearch:
		left = "/" + m.query
	case ModePreviewSearch:
		left = "/" + m.previewQuery
		if len(m.previewMatches) > 0 {
			left += matchStyle.Render(fmt.Sprintf(" %d/%d", m.previewMatch+1, len(m.previewMatches)))
		} else if m.previewQuery != "" {
			left += pendingStyle.Render(" no matches")
		}
	case ModeVisualPreview:
		lo, hi := m.visualAnchor, m.previewCursor
		if lo > hi {
			lo, hi = hi, lo
		}
		left = fmt.Sprintf("VISUAL %d-%d", lo+1, hi+1)
	default:
		left = titleStyle.Render(m.backend.DisplayPath(m.root))
		if m.query != "" {
			left += "  " + matchStyle.Render("/"+m.query)
		}
	}

	var right string
	if m.status.text != "" {
		right = m.status.severity.style().Render(m.status.text)
	}
	if m.resolver.Pending() || m.searchResolver.Pending() {
		right += pendingStyle.Render(" …")
	}

	gap := m.viewWidth() - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m *Model) renderHistoryOverlay() string {
	entries := m.filteredHistory()
	var b strings.Builder
	b.WriteString(titleStyle.Render("History"))
	if m.historyFilter != "" {
		b.WriteString("  /" + m.historyFilter)
	}
	b.WriteString("\n\n")
	if len(entries) == 0 {
		b.WriteString("(empty)")
	}
	width := m.viewWidth() / 2
	for i, key := range entries {
		line := runewidth.Truncate(key, width, "…")
		if i == m.historyCursor {
			line = cursorLineStyle.Width(width).Render(line)
		}
		b.WriteString(line + "\n")
	}
	return overlayStyle.Render(b.String())
}

func (m *Model) renderDownloadOverlay() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Download "+m.downloadEntry.Name) + "\n\n")
	for i, dest := range m.cfg.Destinations() {
		line := fmt.Sprintf("%s (%s)", dest.Name, dest.Path)
		if i == m.downloadCursor {
			line = cursorLineStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return overlayStyle.Render(b.String())
}

func (m *Model) renderHelpOverlay() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Key bindings") + "\n\n")
	for _, action := range keymap.Actions {
		specs := m.bindingSpecs[action]
		if len(specs) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("%-16s %s\n", action.String(), strings.Join(specs, "  ")))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%-16s /\n", "search"))
	b.WriteString(fmt.Sprintf("%-16s Esc\n", "back"))
	return overlayStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// renderOverlay centers an overlay in the pane area. The panes behind
// it are not composited; the overlay takes the whole frame.
func (m *Model) renderOverlay(overlay string) string {
	height := m.viewHeight() - statusBarHeight
	return lipgloss.Place(m.viewWidth(), height, lipgloss.Center, lipgloss.Center, overlay)
}

func (m *Model) isPreviewMatch(i int) bool {
	for _, line := range m.previewMatches {
		if line == i {
			return true
		}
	}
	return false
}

func (m *Model) isCurrentPreviewMatch(i int) bool {
	return len(m.previewMatches) > 0 &&
		m.previewMatch < len(m.previewMatches) &&
		m.previewMatches[m.previewMatch] == i
}

// scrollOffset keeps cursor visible in a window of height rows.
func scrollOffset(cursor, total, height int) int {
	if total <= height {
		return 0
	}
	offset := cursor - height/2
	if offset < 0 {
		offset = 0
	}
	if offset > total-height {
		offset = total - height
	}
	return offset
}

func inRange(i, a, b int) bool {
	if a > b {
		a, b = b, a
	}
	return i >= a && i <= b
}
