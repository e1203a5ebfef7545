package app

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/linusboehm/rats3/internal/keymap"
)

func plainView(m *Model) string {
	return ansi.Strip(m.View())
}

func TestViewListsEntries(t *testing.T) {
	m := newTestModel(t, defaultStub())
	view := plainView(m)
	for _, name := range []string{"docs/", "a.txt", "b.txt"} {
		if !strings.Contains(view, name) {
			t.Fatalf("expected view to contain %q:\n%s", name, view)
		}
	}
	if !strings.Contains(view, "stub://") {
		t.Fatalf("expected display path in status bar:\n%s", view)
	}
}

func TestViewShowsSearchQuery(t *testing.T) {
	m := newTestModel(t, defaultStub())
	m.handleChord(chordSlash)
	typeChars(t, m, "a.")
	view := plainView(m)
	if !strings.Contains(view, "/a.") {
		t.Fatalf("expected query in status bar:\n%s", view)
	}
	if strings.Contains(view, "b.txt") {
		t.Fatalf("expected filtered entry hidden:\n%s", view)
	}
}

func TestViewShowsStatusMessage(t *testing.T) {
	m := newTestModel(t, defaultStub())
	m.setStatusError("listing failed: boom")
	if view := plainView(m); !strings.Contains(view, "listing failed: boom") {
		t.Fatalf("expected status message:\n%s", view)
	}
}

func TestViewHistoryOverlay(t *testing.T) {
	m := newTestModel(t, defaultStub())
	m.applyAction(keymap.ActionHistoryMode)
	if view := plainView(m); !strings.Contains(view, "History") {
		t.Fatalf("expected history overlay:\n%s", view)
	}
}

func TestViewDownloadOverlay(t *testing.T) {
	m := newTestModel(t, defaultStub())
	m.cursor = 1
	m.applyAction(keymap.ActionDownloadMode)
	view := plainView(m)
	if !strings.Contains(view, "Download a.txt") {
		t.Fatalf("expected download overlay title:\n%s", view)
	}
	if !strings.Contains(view, "Downloads") || !strings.Contains(view, "/tmp") {
		t.Fatalf("expected destinations listed:\n%s", view)
	}
}

func TestViewHelpOverlay(t *testing.T) {
	m := newTestModel(t, defaultStub())
	m.handleChord(chordHelp)
	view := plainView(m)
	if !strings.Contains(view, "Key bindings") {
		t.Fatalf("expected help overlay title:\n%s", view)
	}
	for _, want := range []string{"move_down", "jump_to_top", "gg", "toggle_wrap"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected binding %q listed:\n%s", want, view)
		}
	}
}

func TestViewQuitting(t *testing.T) {
	m := newTestModel(t, defaultStub())
	m.applyAction(keymap.ActionQuit)
	if got := m.View(); got != "" {
		t.Fatalf("expected empty view while quitting, got %q", got)
	}
}
