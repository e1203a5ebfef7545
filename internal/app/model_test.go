package app

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linusboehm/rats3/internal/backend"
	"github.com/linusboehm/rats3/internal/config"
	"github.com/linusboehm/rats3/internal/keymap"
)

type stubBackend struct {
	listings  map[string][]backend.Entry
	listErr   error
	previews  map[string]backend.PreviewContent
	fetches   int
	downloads []string
	treeStats backend.TreeStats
}

func (s *stubBackend) List(ctx context.Context, prefix string) (backend.ListResult, error) {
	if s.listErr != nil {
		return backend.ListResult{}, s.listErr
	}
	entries, ok := s.listings[prefix]
	if !ok {
		return backend.ListResult{}, fmt.Errorf("no listing for %q", prefix)
	}
	return backend.ListResult{Entries: entries, Prefix: prefix}, nil
}

func (s *stubBackend) FetchPreview(ctx context.Context, path string, maxBytes int64) (backend.PreviewContent, error) {
	s.fetches++
	if pc, ok := s.previews[path]; ok {
		return pc, nil
	}
	return backend.PreviewContent{Kind: backend.PreviewText, Text: "stub\n"}, nil
}

func (s *stubBackend) DownloadFile(ctx context.Context, path, destination string) error {
	s.downloads = append(s.downloads, path)
	return nil
}

func (s *stubBackend) DownloadTree(ctx context.Context, prefix, destDir string) (backend.TreeStats, error) {
	s.downloads = append(s.downloads, prefix+"/...")
	return s.treeStats, nil
}

func (s *stubBackend) Parent(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", true
	}
	return path[:idx], true
}

func (s *stubBackend) DisplayPath(path string) string {
	return "stub://" + path
}

func (s *stubBackend) PathFromDisplay(display string) (string, bool) {
	return strings.CutPrefix(display, "stub://")
}

func file(name, path string) backend.Entry {
	return backend.Entry{Name: name, Size: 1, Path: path}
}

func dir(name, path string) backend.Entry {
	return backend.Entry{Name: name, Dir: true, Size: -1, Path: path}
}

func newTestModel(t *testing.T, be *stubBackend) *Model {
	t.Helper()
	m := New(be, config.Default(), "", nil, nil)
	m.width = 80
	m.height = 24
	msg, ok := m.loadListCmd(m.root)().(listLoadedMsg)
	if !ok {
		t.Fatal("expected listLoadedMsg")
	}
	if cmd := m.handleListLoaded(msg); cmd != nil {
		// Drain the initial preview fetch so tests start from a settled
		// state.
		if pmsg, ok := previewMsgFrom(cmd); ok {
			m.handlePreviewLoaded(pmsg)
		}
	}
	return m
}

// previewMsgFrom executes a command tree and returns the first preview
// completion found, skipping spinner ticks and other scheduling noise.
func previewMsgFrom(cmd tea.Cmd) (previewLoadedMsg, bool) {
	if cmd == nil {
		return previewLoadedMsg{}, false
	}
	switch msg := cmd().(type) {
	case previewLoadedMsg:
		return msg, true
	case tea.BatchMsg:
		for _, c := range msg {
			if pm, ok := previewMsgFrom(c); ok {
				return pm, true
			}
		}
	}
	return previewLoadedMsg{}, false
}

func findPreviewMsg(t *testing.T, cmd tea.Cmd) previewLoadedMsg {
	t.Helper()
	msg, ok := previewMsgFrom(cmd)
	if !ok {
		t.Fatal("expected a previewLoadedMsg")
	}
	return msg
}

func defaultStub() *stubBackend {
	return &stubBackend{
		listings: map[string][]backend.Entry{
			"": {
				dir("docs", "docs"),
				file("a.txt", "a.txt"),
				file("b.txt", "b.txt"),
			},
			"docs": {
				file("guide.md", "docs/guide.md"),
			},
		},
		previews: map[string]backend.PreviewContent{
			"a.txt": {Kind: backend.PreviewText, Text: "alpha\nbeta\ngamma\ndelta\n"},
		},
	}
}

func TestInitialListing(t *testing.T) {
	m := newTestModel(t, defaultStub())
	if len(m.filtered) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(m.filtered))
	}
	if m.filtered[0].Name != "docs" {
		t.Fatalf("expected docs first, got %q", m.filtered[0].Name)
	}
	// The backend root itself never lands in the visited list.
	if hist := m.History(); len(hist) != 0 {
		t.Fatalf("expected empty history, got %v", hist)
	}
}

func TestNavigateIntoDirectory(t *testing.T) {
	m := newTestModel(t, defaultStub())
	m.cache.Put("a.txt", backend.PreviewContent{Kind: backend.PreviewText, Text: "x"})

	cmd := m.applyAction(keymap.ActionNavigateInto)
	if cmd == nil {
		t.Fatal("expected a listing command")
	}
	msg, ok := cmd().(listLoadedMsg)
	if !ok {
		t.Fatal("expected listLoadedMsg")
	}
	m.handleListLoaded(msg)

	if m.root != "docs" {
		t.Fatalf("expected root docs, got %q", m.root)
	}
	if len(m.filtered) != 1 || m.filtered[0].Name != "guide.md" {
		t.Fatalf("unexpected entries %+v", m.filtered)
	}
	if m.cache.Len() != 0 {
		t.Fatal("expected cache cleared on root change")
	}
	if hist := m.History(); len(hist) != 1 || hist[0] != "stub://docs" {
		t.Fatalf("expected display path at history front, got %v", hist)
	}
}

func TestNavigateUpFocusRemap(t *testing.T) {
	m := newTestModel(t, defaultStub())
	msg := m.applyAction(keymap.ActionNavigateInto)().(listLoadedMsg)
	m.handleListLoaded(msg)

	// Preview focus turns the same action into a pane resize.
	m.focus = FocusPreview
	before := m.widthPercent
	if cmd := m.applyAction(keymap.ActionNavigateUp); cmd != nil {
		t.Fatal("expected no command while resizing")
	}
	if m.widthPercent != before-widthResizeStep {
		t.Fatalf("expected width %d, got %d", before-widthResizeStep, m.widthPercent)
	}
	if m.root != "docs" {
		t.Fatalf("expected root unchanged, got %q", m.root)
	}

	// Explorer focus restores directory-up navigation.
	m.focus = FocusExplorer
	cmd := m.applyAction(keymap.ActionNavigateUp)
	if cmd == nil {
		t.Fatal("expected a listing command")
	}
	m.handleListLoaded(cmd().(listLoadedMsg))
	if m.root != "" {
		t.Fatalf("expected root back at top, got %q", m.root)
	}
}

func TestListingFailureLeavesStateUnchanged(t *testing.T) {
	stub := defaultStub()
	m := newTestModel(t, stub)
	m.cursor = 1

	stub.listErr = fmt.Errorf("access denied")
	cmd := m.applyAction(keymap.ActionNavigateInto)
	if cmd != nil {
		// cursor sits on a file; move to the directory first
		t.Fatal("expected nil for file selection")
	}
	m.cursor = 0
	msg := m.applyAction(keymap.ActionNavigateInto)().(listLoadedMsg)
	m.handleListLoaded(msg)

	if m.root != "" {
		t.Fatalf("expected root unchanged, got %q", m.root)
	}
	if m.cursor != 0 {
		t.Fatalf("expected cursor unchanged, got %d", m.cursor)
	}
	if m.status.severity != statusError || m.status.text == "" {
		t.Fatalf("expected error status, got %+v", m.status)
	}
	if m.mode != ModeNormal {
		t.Fatalf("expected mode unchanged, got %v", m.mode)
	}
}

func TestPreviewFetchedOncePerPath(t *testing.T) {
	stub := defaultStub()
	m := newTestModel(t, stub)
	stub.fetches = 0

	m.cursor = 1 // a.txt
	cmd := m.refreshPreview()
	if cmd == nil {
		t.Fatal("expected a fetch command for an uncached path")
	}
	if again := m.refreshPreview(); again != nil {
		t.Fatal("expected no second fetch while the first is in flight")
	}

	msg := findPreviewMsg(t, cmd)
	m.handlePreviewLoaded(msg)
	if stub.fetches != 1 {
		t.Fatalf("expected exactly 1 fetch, got %d", stub.fetches)
	}
	if got := strings.Join(m.previewLines, "|"); !strings.Contains(got, "alpha") {
		t.Fatalf("expected preview content, got %q", got)
	}
	if m.refreshPreview() != nil {
		t.Fatal("expected cached path not to refetch")
	}
}

func TestStalePreviewDiscarded(t *testing.T) {
	m := newTestModel(t, defaultStub())
	m.cursor = 1
	before := append([]string{}, m.previewLines...)

	m.handlePreviewLoaded(previewLoadedMsg{
		root:    "somewhere/else",
		path:    "a.txt",
		content: backend.PreviewContent{Kind: backend.PreviewText, Text: "stale"},
	})

	if m.cache.Len() != 0 {
		t.Fatal("expected stale result not to be cached")
	}
	if strings.Join(m.previewLines, "|") != strings.Join(before, "|") {
		t.Fatal("expected preview pane unchanged by stale result")
	}
}

func TestResizeClamped(t *testing.T) {
	m := newTestModel(t, defaultStub())
	m.widthPercent = 20
	m.resize(-widthResizeStep)
	if m.widthPercent != 20 {
		t.Fatalf("expected floor at 20, got %d", m.widthPercent)
	}
	m.widthPercent = 80
	m.resize(widthResizeStep)
	if m.widthPercent != 80 {
		t.Fatalf("expected ceiling at 80, got %d", m.widthPercent)
	}
}
