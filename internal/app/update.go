package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/linusboehm/rats3/internal/backend"
	"github.com/linusboehm/rats3/internal/config"
	"github.com/linusboehm/rats3/internal/fuzzy"
	"github.com/linusboehm/rats3/internal/keymap"
	"github.com/linusboehm/rats3/internal/logging"
	"github.com/linusboehm/rats3/internal/preview"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	seqBefore := m.statusSeq
	cmd := m.update(msg)
	if m.statusSeq != seqBefore && m.status.text != "" {
		cmd = tea.Batch(cmd, m.statusExpiryCmd())
	}
	return m, cmd
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.rerenderPreview()
		return nil

	case tea.KeyMsg:
		chord, ok := keymap.FromKeyString(msg.String())
		if !ok {
			return nil
		}
		return m.handleChord(chord)

	case listLoadedMsg:
		return m.handleListLoaded(msg)

	case previewLoadedMsg:
		return m.handlePreviewLoaded(msg)

	case downloadDoneMsg:
		return m.handleDownloadDone(msg)

	case sequenceTimeoutMsg:
		return m.handleSequenceTimeout()

	case statusExpiredMsg:
		m.clearStatusIfSeq(msg.seq)
		return nil

	case spinner.TickMsg:
		if !m.fetching {
			return nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) handleChord(chord keymap.Chord) tea.Cmd {
	switch m.mode {
	case ModeSearch:
		return m.handleSearchChord(chord)
	case ModeHistory:
		return m.handleHistoryChord(chord)
	case ModeDownload:
		return m.handleDownloadChord(chord)
	case ModeHelp:
		return m.handleHelpChord(chord)
	case ModePreviewSearch:
		return m.handlePreviewSearchChord(chord)
	default:
		return m.handleNormalChord(chord)
	}
}

var (
	chordEsc       = keymap.Chord{Key: "esc"}
	chordEnter     = keymap.Chord{Key: "enter"}
	chordBackspace = keymap.Chord{Key: "backspace"}
	chordUp        = keymap.Chord{Key: "up"}
	chordDown      = keymap.Chord{Key: "down"}
	chordSlash     = keymap.Chord{Key: "/"}
	chordHelp      = keymap.Chord{Key: "?"}
	chordCtrlJ     = keymap.Chord{Ctrl: true, Key: "j"}
	chordCtrlK     = keymap.Chord{Ctrl: true, Key: "k"}
)

func (m *Model) handleNormalChord(chord keymap.Chord) tea.Cmd {
	// Enter-search, Esc and the help toggle are fixed, not rebindable.
	// "/" keys on focus: the explorer gets the entry filter, the
	// preview gets an in-content line search.
	if chord == chordSlash && m.mode == ModeNormal {
		m.resolver.Reset()
		if m.focus == FocusPreview {
			m.mode = ModePreviewSearch
			m.previewQuery = ""
			m.previewMatches = nil
			m.previewMatch = 0
			return nil
		}
		m.mode = ModeSearch
		return nil
	}
	if chord == chordHelp && m.mode == ModeNormal {
		m.resolver.Reset()
		m.mode = ModeHelp
		return nil
	}
	if chord == chordEsc {
		if m.mode == ModeVisualPreview {
			m.mode = ModeNormal
			return nil
		}
		m.resolver.Reset()
		return nil
	}
	return m.processResolutions(m.resolver.Feed(chord, time.Now()))
}

func (m *Model) processResolutions(resolutions []keymap.Resolution) tea.Cmd {
	var cmds []tea.Cmd
	for _, res := range resolutions {
		switch {
		case res.Pending:
			cmds = append(cmds, m.sequenceTimeoutCmd())
		case res.Matched:
			cmds = append(cmds, m.applyAction(res.Action))
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) applyAction(action keymap.Action) tea.Cmd {
	if m.mode == ModeVisualPreview {
		return m.applyVisualAction(action)
	}

	switch action {
	case keymap.ActionQuit:
		m.quitting = true
		return tea.Quit

	case keymap.ActionMoveUp:
		return m.move(-1)
	case keymap.ActionMoveDown:
		return m.move(1)
	case keymap.ActionJumpUp:
		return m.move(-m.halfPage())
	case keymap.ActionJumpDown:
		return m.move(m.halfPage())
	case keymap.ActionJumpToTop:
		return m.moveTo(0)
	case keymap.ActionJumpToBottom:
		return m.moveTo(1 << 30)

	case keymap.ActionNavigateInto:
		if m.focus == FocusPreview {
			m.resize(widthResizeStep)
			return nil
		}
		entry, ok := m.selection()
		if !ok || !entry.Dir {
			return nil
		}
		return m.loadListCmd(entry.Path)

	case keymap.ActionNavigateUp:
		if m.focus == FocusPreview {
			m.resize(-widthResizeStep)
			return nil
		}
		parent, ok := m.backend.Parent(m.root)
		if !ok {
			return nil
		}
		return m.loadListCmd(parent)

	case keymap.ActionClearSearch:
		m.query = ""
		m.applyFilter()
		return m.refreshPreview()

	case keymap.ActionDownloadMode:
		entry, ok := m.selection()
		if !ok {
			return nil
		}
		m.mode = ModeDownload
		m.downloadEntry = entry
		m.downloadCursor = 0
		return nil

	case keymap.ActionHistoryMode:
		m.mode = ModeHistory
		m.historyEntries = m.history.List()
		m.historyCursor = 0
		m.historyFilter = ""
		return nil

	case keymap.ActionCopyPath, keymap.ActionYank:
		entry, ok := m.selection()
		if !ok {
			return nil
		}
		m.copyWithStatus(m.backend.DisplayPath(entry.Path), "copied path")
		return nil

	case keymap.ActionToggleFocus:
		if m.mode == ModeNormal {
			if m.focus == FocusExplorer {
				m.focus = FocusPreview
			} else {
				m.focus = FocusExplorer
			}
		}
		return nil
	case keymap.ActionFocusPreview:
		if m.mode == ModeNormal {
			m.focus = FocusPreview
		}
		return nil
	case keymap.ActionFocusExplorer:
		if m.mode == ModeNormal {
			m.focus = FocusExplorer
		}
		return nil

	case keymap.ActionVisualMode:
		if m.focus == FocusPreview && len(m.previewLines) > 0 {
			m.mode = ModeVisualPreview
			m.visualAnchor = m.previewCursor
		}
		return nil

	case keymap.ActionResizeLeft:
		m.resize(-widthResizeStep)
		return nil
	case keymap.ActionResizeRight:
		m.resize(widthResizeStep)
		return nil

	case keymap.ActionToggleWrap:
		m.wrap = !m.wrap
		m.rerenderPreview()
		return nil
	}
	return nil
}

// applyVisualAction restricts the action set while a line range is being
// selected. Copy and yank commit; movement extends the range.
func (m *Model) applyVisualAction(action keymap.Action) tea.Cmd {
	switch action {
	case keymap.ActionQuit:
		m.quitting = true
		return tea.Quit
	case keymap.ActionMoveUp:
		m.movePreview(-1)
	case keymap.ActionMoveDown:
		m.movePreview(1)
	case keymap.ActionJumpUp:
		m.movePreview(-m.halfPage())
	case keymap.ActionJumpDown:
		m.movePreview(m.halfPage())
	case keymap.ActionJumpToTop:
		m.previewCursor = 0
		m.scrollPreviewIntoView()
	case keymap.ActionJumpToBottom:
		m.previewCursor = len(m.previewLines) - 1
		m.clampPreviewCursor()
	case keymap.ActionYank, keymap.ActionCopyPath:
		m.yankSelection()
	case keymap.ActionVisualMode:
		m.mode = ModeNormal
	}
	return nil
}

func (m *Model) yankSelection() {
	lo, hi := m.visualAnchor, m.previewCursor
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo < 0 || hi >= len(m.previewLines) {
		m.mode = ModeNormal
		return
	}
	lines := make([]string, 0, hi-lo+1)
	for _, line := range m.previewLines[lo : hi+1] {
		lines = append(lines, ansi.Strip(line))
	}
	m.copyWithStatus(strings.Join(lines, "\n"), fmt.Sprintf("yanked %d lines", len(lines)))
	m.mode = ModeNormal
}

// move routes a cursor delta by focus: the explorer cursor when the
// listing is focused, the preview cursor line otherwise.
func (m *Model) move(delta int) tea.Cmd {
	if m.focus == FocusPreview {
		m.movePreview(delta)
		return nil
	}
	return m.moveTo(m.cursor + delta)
}

func (m *Model) moveTo(target int) tea.Cmd {
	if m.focus == FocusPreview {
		m.previewCursor = target
		m.clampPreviewCursor()
		return nil
	}
	if target >= len(m.filtered) {
		target = len(m.filtered) - 1
	}
	if target < 0 {
		target = 0
	}
	if target == m.cursor {
		return nil
	}
	m.cursor = target
	return m.refreshPreview()
}

func (m *Model) movePreview(delta int) {
	m.previewCursor += delta
	m.clampPreviewCursor()
}

func (m *Model) halfPage() int {
	h := m.listHeight() / 2
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) resize(delta int) {
	m.widthPercent = config.ClampWidthPercent(m.widthPercent + delta)
	m.rerenderPreview()
}

func (m *Model) handleSearchChord(chord keymap.Chord) tea.Cmd {
	switch chord {
	case chordEsc:
		m.searchResolver.Reset()
		m.query = ""
		m.mode = ModeNormal
		m.applyFilter()
		return m.refreshPreview()
	case chordEnter:
		m.searchResolver.Reset()
		m.mode = ModeNormal
		entry, ok := m.selection()
		if !ok {
			return nil
		}
		if entry.Dir {
			return m.loadListCmd(entry.Path)
		}
		m.focus = FocusPreview
		return nil
	case chordBackspace:
		if m.query != "" {
			runes := []rune(m.query)
			m.query = string(runes[:len(runes)-1])
			m.applyFilter()
			return m.refreshPreview()
		}
		return nil
	case chordUp:
		return m.moveExplorer(-1)
	case chordDown:
		return m.moveExplorer(1)
	}

	var cmds []tea.Cmd
	for _, res := range m.searchResolver.Feed(chord, time.Now()) {
		switch {
		case res.Pending:
			cmds = append(cmds, m.sequenceTimeoutCmd())
		case res.Matched:
			switch res.Action {
			case keymap.ActionQuit:
				m.quitting = true
				cmds = append(cmds, tea.Quit)
			case keymap.ActionClearSearch:
				m.query = ""
				m.mode = ModeNormal
				m.applyFilter()
				cmds = append(cmds, m.refreshPreview())
			}
		default:
			cmds = append(cmds, m.appendQueryChord(res.Chord))
		}
	}
	return tea.Batch(cmds...)
}

// appendQueryChord treats an unbound chord as text. Modified chords and
// named keys are ignored rather than inserted.
func (m *Model) appendQueryChord(chord keymap.Chord) tea.Cmd {
	r, ok := chord.IsLiteral()
	if !ok || chord.Ctrl || chord.Alt {
		return nil
	}
	m.query += string(r)
	m.applyFilter()
	return m.refreshPreview()
}

// moveExplorer moves the listing cursor regardless of focus, for modes
// where the motion target is unambiguous.
func (m *Model) moveExplorer(delta int) tea.Cmd {
	target := m.cursor + delta
	if target >= len(m.filtered) {
		target = len(m.filtered) - 1
	}
	if target < 0 {
		target = 0
	}
	if target == m.cursor {
		return nil
	}
	m.cursor = target
	return m.refreshPreview()
}

func (m *Model) handleHistoryChord(chord keymap.Chord) tea.Cmd {
	entries := m.filteredHistory()
	switch chord {
	case chordEsc:
		m.mode = ModeNormal
		return nil
	case chordEnter:
		if m.historyCursor < 0 || m.historyCursor >= len(entries) {
			return nil
		}
		// Entries persist across sessions as display paths, which may
		// belong to a different bucket or local root than the one this
		// session was started with.
		root, ok := m.backend.PathFromDisplay(entries[m.historyCursor])
		if !ok {
			m.setStatusError("cannot open " + entries[m.historyCursor] + " with the current backend")
			return nil
		}
		m.mode = ModeNormal
		return m.loadListCmd(root)
	case chordUp:
		if m.historyCursor > 0 {
			m.historyCursor--
		}
		return nil
	case chordDown:
		if m.historyCursor < len(entries)-1 {
			m.historyCursor++
		}
		return nil
	case chordBackspace:
		if m.historyFilter != "" {
			runes := []rune(m.historyFilter)
			m.historyFilter = string(runes[:len(runes)-1])
			m.historyCursor = 0
		}
		return nil
	}
	if r, ok := chord.IsLiteral(); ok && !chord.Ctrl && !chord.Alt {
		m.historyFilter += string(r)
		m.historyCursor = 0
	}
	return nil
}

func (m *Model) handlePreviewSearchChord(chord keymap.Chord) tea.Cmd {
	switch chord {
	case chordEsc:
		m.clearPreviewSearch()
		return nil
	case chordEnter:
		m.jumpToPreviewMatch()
		m.clearPreviewSearch()
		return nil
	case chordDown, chordCtrlJ:
		m.previewSearchNext()
		return nil
	case chordUp, chordCtrlK:
		m.previewSearchPrev()
		return nil
	case chordBackspace:
		if m.previewQuery != "" {
			runes := []rune(m.previewQuery)
			m.previewQuery = string(runes[:len(runes)-1])
			m.updatePreviewMatches()
		}
		return nil
	}
	if r, ok := chord.IsLiteral(); ok && !chord.Ctrl && !chord.Alt {
		m.previewQuery += string(r)
		m.updatePreviewMatches()
	}
	return nil
}

// updatePreviewMatches recomputes matching line numbers for the current
// query. Typing only highlights; the cursor moves on next/prev/confirm.
func (m *Model) updatePreviewMatches() {
	m.previewMatches = m.previewMatches[:0]
	m.previewMatch = 0
	if m.previewQuery == "" {
		return
	}
	for i, line := range m.previewLines {
		if fuzzy.Matches(m.previewQuery, ansi.Strip(line)) {
			m.previewMatches = append(m.previewMatches, i)
		}
	}
}

func (m *Model) previewSearchNext() {
	if len(m.previewMatches) == 0 {
		return
	}
	m.previewMatch = (m.previewMatch + 1) % len(m.previewMatches)
	m.jumpToPreviewMatch()
}

func (m *Model) previewSearchPrev() {
	if len(m.previewMatches) == 0 {
		return
	}
	m.previewMatch--
	if m.previewMatch < 0 {
		m.previewMatch = len(m.previewMatches) - 1
	}
	m.jumpToPreviewMatch()
}

func (m *Model) jumpToPreviewMatch() {
	if m.previewMatch < 0 || m.previewMatch >= len(m.previewMatches) {
		return
	}
	line := m.previewMatches[m.previewMatch]
	m.previewCursor = line
	m.previewScroll = scrollOffset(line, len(m.previewLines), m.previewHeight())
}

func (m *Model) clearPreviewSearch() {
	m.mode = ModeNormal
	m.previewQuery = ""
	m.previewMatches = nil
	m.previewMatch = 0
}

func (m *Model) handleHelpChord(chord keymap.Chord) tea.Cmd {
	switch chord {
	case chordEsc, chordHelp:
		m.mode = ModeNormal
	}
	return nil
}

func (m *Model) filteredHistory() []string {
	if m.historyFilter == "" {
		return m.historyEntries
	}
	matches := fuzzyFilterStrings(m.historyFilter, m.historyEntries)
	return matches
}

func (m *Model) handleDownloadChord(chord keymap.Chord) tea.Cmd {
	dests := m.cfg.Destinations()
	switch chord {
	case chordEsc:
		m.mode = ModeNormal
		return nil
	case chordEnter:
		if m.downloadCursor < 0 || m.downloadCursor >= len(dests) {
			return nil
		}
		m.mode = ModeNormal
		dest := dests[m.downloadCursor]
		m.setStatusInfo(fmt.Sprintf("downloading %s to %s", m.downloadEntry.Name, dest.Name))
		return m.downloadCmd(m.downloadEntry, dest)
	case chordUp:
		if m.downloadCursor > 0 {
			m.downloadCursor--
		}
		return nil
	case chordDown:
		if m.downloadCursor < len(dests)-1 {
			m.downloadCursor++
		}
		return nil
	}
	switch r, _ := chord.IsLiteral(); r {
	case 'k':
		if m.downloadCursor > 0 {
			m.downloadCursor--
		}
	case 'j':
		if m.downloadCursor < len(dests)-1 {
			m.downloadCursor++
		}
	}
	return nil
}

func (m *Model) handleListLoaded(msg listLoadedMsg) tea.Cmd {
	if msg.err != nil {
		m.log.Warn("listing failed", logging.F("root", msg.root), logging.F("err", msg.err))
		m.setStatusError("listing failed: " + msg.err.Error())
		return nil
	}
	rootChanged := msg.root != m.root || m.entries == nil
	m.root = msg.root
	m.entries = msg.result.Entries
	if rootChanged {
		m.cache.Clear()
		m.query = ""
		m.cursor = 0
		if recordableRoot(m.root) {
			m.history.Record(m.backend.DisplayPath(m.root))
		}
	}
	m.applyFilter()
	return m.refreshPreview()
}

// recordableRoot filters what lands in the visited list. The backend
// root itself and prefixes whose last component is all digits (build
// numbers, timestamped folders) are skipped.
func recordableRoot(root string) bool {
	root = strings.Trim(root, "/")
	if root == "" {
		return false
	}
	last := root
	if idx := strings.LastIndex(root, "/"); idx >= 0 {
		last = root[idx+1:]
	}
	for _, r := range last {
		if r < '0' || r > '9' {
			return true
		}
	}
	return false
}

func (m *Model) handlePreviewLoaded(msg previewLoadedMsg) tea.Cmd {
	if m.inflight > 0 {
		m.inflight--
	}
	m.fetching = m.inflight > 0

	if msg.root != m.root {
		// The user changed roots while the fetch ran; the path is
		// meaningless under the new root.
		m.cache.Abort(msg.path)
		return nil
	}

	content := msg.content
	if msg.err != nil {
		m.log.Warn("preview fetch failed", logging.F("path", msg.path), logging.F("err", msg.err))
		content = backend.PreviewContent{Kind: backend.PreviewError, Message: msg.err.Error()}
		m.setStatusError("preview failed: " + msg.err.Error())
	}
	m.cache.Put(msg.path, content)

	if entry, ok := m.selection(); ok && entry.Path == msg.path {
		m.resetPreviewPane(preview.Render(msg.path, content, m.previewWidth(), m.wrap))
	}
	return nil
}

func (m *Model) handleDownloadDone(msg downloadDoneMsg) tea.Cmd {
	switch {
	case msg.err != nil:
		m.setStatusError(fmt.Sprintf("download of %s failed: %v", msg.name, msg.err))
	case msg.tree && msg.stats.Failed > 0:
		m.setStatusWarning(fmt.Sprintf("downloaded %d files to %s, %d failed",
			msg.stats.Written, msg.dest, msg.stats.Failed))
	case msg.tree:
		m.setStatusSuccess(fmt.Sprintf("downloaded %d files to %s", msg.stats.Written, msg.dest))
	default:
		m.setStatusSuccess(fmt.Sprintf("downloaded %s to %s", msg.name, msg.dest))
	}
	return nil
}

func (m *Model) handleSequenceTimeout() tea.Cmd {
	now := time.Now()
	if m.mode == ModeSearch {
		var cmds []tea.Cmd
		for _, res := range m.searchResolver.Expire(now) {
			if res.Matched && res.Action == keymap.ActionClearSearch {
				m.query = ""
				m.mode = ModeNormal
				m.applyFilter()
				cmds = append(cmds, m.refreshPreview())
				continue
			}
			if !res.Matched && !res.Pending {
				cmds = append(cmds, m.appendQueryChord(res.Chord))
			}
		}
		return tea.Batch(cmds...)
	}
	return m.processResolutions(m.resolver.Expire(now))
}
