// Package app drives the interactive browser: one bubbletea model
// owning mode, focus, cursors and the orchestration of backend calls.
package app

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/linusboehm/rats3/internal/backend"
	"github.com/linusboehm/rats3/internal/config"
	"github.com/linusboehm/rats3/internal/fuzzy"
	"github.com/linusboehm/rats3/internal/history"
	"github.com/linusboehm/rats3/internal/keymap"
	"github.com/linusboehm/rats3/internal/logging"
	"github.com/linusboehm/rats3/internal/preview"
)

// Mode is the interaction mode. Focus is a separate axis: VisualPreview
// is only reachable with Focus=Preview, every other combination is
// legal.
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
	ModeVisualPreview
	ModeHistory
	ModeDownload
	ModeHelp
	ModePreviewSearch
)

type Focus int

const (
	FocusExplorer Focus = iota
	FocusPreview
)

const widthResizeStep = 5

type Model struct {
	backend backend.Backend
	cfg     config.Config
	log     logging.Logger

	resolver       *keymap.Resolver
	searchResolver *keymap.Resolver
	bindingSpecs   map[keymap.Action][]string

	cache   *preview.Cache
	history *history.Store

	mode  Mode
	focus Focus

	root     string
	entries  []backend.Entry
	filtered []backend.Entry
	cursor   int
	query    string

	previewLines  []string
	previewScroll int
	previewCursor int
	visualAnchor  int
	wrap          bool
	widthPercent  int

	previewQuery   string
	previewMatches []int
	previewMatch   int

	historyEntries []string
	historyCursor  int
	historyFilter  string

	downloadEntry  backend.Entry
	downloadCursor int

	status    statusMessage
	statusSeq int

	spinner  spinner.Model
	fetching bool
	inflight int

	width  int
	height int

	quitting bool
}

// New builds the model. The binding table comes from the config's
// key_bindings table merged over the defaults; unknown actions and
// malformed specs are dropped.
func New(be backend.Backend, cfg config.Config, root string, hist *history.Store, log logging.Logger) *Model {
	if log == nil {
		log = logging.Nop()
	}
	if hist == nil {
		hist = history.NewStore(0)
	}

	specs := keymap.DefaultSpecs()
	for name, raw := range cfg.KeyBindings {
		action, ok := keymap.ActionFromName(name)
		if !ok {
			log.Warn("unknown action in key_bindings", logging.F("action", name))
			continue
		}
		specs[action] = raw
	}
	table := keymap.ParseTable(specs)
	for _, warning := range table.Lint() {
		log.Warn("key binding overlap", logging.F("detail", warning))
	}

	// Query editing gets its own table so single-letter motions fall
	// through as text instead of moving the cursor.
	searchTable := keymap.ParseTable(map[keymap.Action][]string{
		keymap.ActionQuit:        specs[keymap.ActionQuit],
		keymap.ActionClearSearch: specs[keymap.ActionClearSearch],
	})

	timeout := time.Duration(cfg.SequenceTimeoutMs()) * time.Millisecond

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		backend:        be,
		cfg:            cfg,
		log:            log,
		resolver:       keymap.NewResolver(table, timeout),
		searchResolver: keymap.NewResolver(searchTable, timeout),
		bindingSpecs:   specs,
		cache:          preview.NewCache(),
		history:        hist,
		root:           root,
		widthPercent:   cfg.WidthPercent(),
		spinner:        sp,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadListCmd(m.root), m.spinner.Tick)
}

// SetStartupWarning surfaces a non-fatal startup problem in the status
// bar once the UI is running.
func (m *Model) SetStartupWarning(text string) {
	m.setStatusWarning(text)
}

// Location returns the current listing root as a display path, for the
// caller to persist.
func (m *Model) Location() string {
	return m.backend.DisplayPath(m.root)
}

// History exposes the visited locations for the same purpose.
func (m *Model) History() []string {
	return m.history.List()
}

func (m *Model) selection() (backend.Entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return backend.Entry{}, false
	}
	return m.filtered[m.cursor], true
}

func fuzzyFilterStrings(query string, candidates []string) []string {
	matches := fuzzy.Filter(query, candidates)
	out := make([]string, len(matches))
	for i, match := range matches {
		out[i] = match.Str
	}
	return out
}

// applyFilter recomputes the visible entries from the query and keeps
// the cursor on a valid row.
func (m *Model) applyFilter() {
	if m.query == "" {
		m.filtered = m.entries
	} else {
		names := make([]string, len(m.entries))
		for i, e := range m.entries {
			names[i] = e.Name
		}
		matches := fuzzy.Filter(m.query, names)
		m.filtered = make([]backend.Entry, len(matches))
		for i, match := range matches {
			m.filtered[i] = m.entries[match.Index]
		}
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = len(m.filtered) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// refreshPreview renders the cached content for the current selection
// and starts a fetch when the path is new. Returns a command when a
// fetch was launched.
func (m *Model) refreshPreview() tea.Cmd {
	entry, ok := m.selection()
	if !ok {
		m.resetPreviewPane(nil)
		return nil
	}
	if entry.Dir {
		m.resetPreviewPane(preview.Render(entry.Path, backend.PreviewContent{Kind: backend.PreviewDirectory}, m.previewWidth(), m.wrap))
		return nil
	}

	var cmd tea.Cmd
	if m.cache.StartFetch(entry.Path) {
		cmd = m.fetchPreviewCmd(m.root, entry.Path)
		m.inflight++
		if !m.fetching {
			m.fetching = true
			cmd = tea.Batch(cmd, m.spinner.Tick)
		}
	}
	content, _ := m.cache.Get(entry.Path)
	m.resetPreviewPane(preview.Render(entry.Path, content, m.previewWidth(), m.wrap))
	return cmd
}

func (m *Model) resetPreviewPane(lines []string) {
	m.previewLines = lines
	m.previewScroll = 0
	m.previewCursor = 0
	m.visualAnchor = 0
	// Match line numbers belong to the previous content.
	m.previewMatches = nil
	m.previewMatch = 0
}

// rerenderPreview redraws the pane without resetting scroll position,
// for wrap toggles and resizes.
func (m *Model) rerenderPreview() {
	entry, ok := m.selection()
	if !ok || entry.Dir {
		return
	}
	content, ok := m.cache.Get(entry.Path)
	if !ok {
		return
	}
	m.previewLines = preview.Render(entry.Path, content, m.previewWidth(), m.wrap)
	m.clampPreviewCursor()
	if m.mode == ModePreviewSearch {
		m.updatePreviewMatches()
	}
}

func (m *Model) clampPreviewCursor() {
	if max := len(m.previewLines) - 1; m.previewCursor > max {
		m.previewCursor = max
	}
	if m.previewCursor < 0 {
		m.previewCursor = 0
	}
	if max := len(m.previewLines) - 1; m.visualAnchor > max {
		m.visualAnchor = max
	}
	if m.visualAnchor < 0 {
		m.visualAnchor = 0
	}
	m.scrollPreviewIntoView()
}

func (m *Model) scrollPreviewIntoView() {
	h := m.previewHeight()
	if h <= 0 {
		return
	}
	if m.previewCursor < m.previewScroll {
		m.previewScroll = m.previewCursor
	}
	if m.previewCursor >= m.previewScroll+h {
		m.previewScroll = m.previewCursor - h + 1
	}
	if m.previewScroll < 0 {
		m.previewScroll = 0
	}
}

func (m *Model) loadListCmd(root string) tea.Cmd {
	be := m.backend
	return func() tea.Msg {
		result, err := be.List(context.Background(), root)
		return listLoadedMsg{root: root, result: result, err: err}
	}
}

func (m *Model) fetchPreviewCmd(root, path string) tea.Cmd {
	be := m.backend
	maxBytes := m.cfg.PreviewMaxBytes()
	return func() tea.Msg {
		content, err := be.FetchPreview(context.Background(), path, maxBytes)
		return previewLoadedMsg{root: root, path: path, content: content, err: err}
	}
}

func (m *Model) downloadCmd(entry backend.Entry, dest config.DownloadDestination) tea.Cmd {
	be := m.backend
	return func() tea.Msg {
		destPath, err := config.ExpandPath(dest.Path)
		if err != nil {
			return downloadDoneMsg{name: entry.Name, dest: dest.Path, err: err}
		}
		target := filepath.Join(destPath, entry.Name)
		if entry.Dir {
			stats, err := be.DownloadTree(context.Background(), entry.Path, target)
			return downloadDoneMsg{name: entry.Name, dest: target, tree: true, stats: stats, err: err}
		}
		err = be.DownloadFile(context.Background(), entry.Path, target)
		return downloadDoneMsg{name: entry.Name, dest: target, err: err}
	}
}

func (m *Model) sequenceTimeoutCmd() tea.Cmd {
	return tea.Tick(m.resolver.Timeout(), func(t time.Time) tea.Msg {
		return sequenceTimeoutMsg{at: t}
	})
}

func (m *Model) statusExpiryCmd() tea.Cmd {
	seq := m.statusSeq
	d := time.Duration(m.cfg.StatusTimeoutSecs()) * time.Second
	return tea.Tick(d, func(time.Time) tea.Msg {
		return statusExpiredMsg{seq: seq}
	})
}
