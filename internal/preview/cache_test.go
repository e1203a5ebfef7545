package preview

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/linusboehm/rats3/internal/backend"
)

func TestStartFetchDedupesInFlight(t *testing.T) {
	c := NewCache()
	if !c.StartFetch("a.txt") {
		t.Fatal("expected first StartFetch to launch")
	}
	if c.StartFetch("a.txt") {
		t.Fatal("expected second StartFetch for the same path to be suppressed")
	}

	pc, ok := c.Get("a.txt")
	if !ok || pc.Kind != backend.PreviewLoading {
		t.Fatalf("expected loading placeholder while in flight, got (%+v, %v)", pc, ok)
	}
}

func TestPutCompletesFetch(t *testing.T) {
	c := NewCache()
	c.StartFetch("a.txt")
	c.Put("a.txt", backend.PreviewContent{Kind: backend.PreviewText, Text: "hi"})

	pc, ok := c.Get("a.txt")
	if !ok || pc.Kind != backend.PreviewText || pc.Text != "hi" {
		t.Fatalf("expected stored text content, got (%+v, %v)", pc, ok)
	}
	if c.StartFetch("a.txt") {
		t.Fatal("expected cached path not to refetch")
	}
}

func TestAbortAllowsRetry(t *testing.T) {
	c := NewCache()
	c.StartFetch("a.txt")
	c.Abort("a.txt")
	if _, ok := c.Get("a.txt"); ok {
		t.Fatal("expected aborted path to be absent")
	}
	if !c.StartFetch("a.txt") {
		t.Fatal("expected aborted path to be fetchable again")
	}
}

func TestClearDropsEverything(t *testing.T) {
	c := NewCache()
	c.StartFetch("a.txt")
	c.Put("a.txt", backend.PreviewContent{Kind: backend.PreviewText})
	c.StartFetch("b.txt")
	c.Clear()

	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", c.Len())
	}
	if _, ok := c.Get("b.txt"); ok {
		t.Fatal("expected in-flight mark to be cleared too")
	}
}

func TestRenderTextSplitsLines(t *testing.T) {
	pc := backend.PreviewContent{Kind: backend.PreviewText, Text: "package main\n\nfunc main() {}\n"}
	lines := Render("main.go", pc, 0, false)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), lines)
	}
	if got := ansi.Strip(lines[0]); got != "package main" {
		t.Fatalf("expected first line 'package main', got %q", got)
	}
}

func TestRenderWrapFoldsLongLines(t *testing.T) {
	long := strings.Repeat("word ", 20)
	pc := backend.PreviewContent{Kind: backend.PreviewText, Text: long + "\n"}
	unwrapped := Render("notes.txt", pc, 20, false)
	wrapped := Render("notes.txt", pc, 20, true)
	if len(wrapped) <= len(unwrapped) {
		t.Fatalf("expected wrapping to add lines: %d vs %d", len(wrapped), len(unwrapped))
	}
	for _, line := range wrapped {
		if w := len(ansi.Strip(line)); w > 20 {
			t.Fatalf("wrapped line exceeds width: %q", line)
		}
	}
}

func TestRenderNonText(t *testing.T) {
	cases := []struct {
		pc   backend.PreviewContent
		want string
	}{
		{backend.PreviewContent{Kind: backend.PreviewLoading}, "Loading..."},
		{backend.PreviewContent{Kind: backend.PreviewDirectory}, "Directory"},
		{backend.PreviewContent{Kind: backend.PreviewTooLarge, Size: 4096}, "File too large for preview (4.0 KiB)"},
		{backend.PreviewContent{Kind: backend.PreviewBinary, MIME: "image/png", Size: 10}, "Binary file: image/png (10 B)"},
		{backend.PreviewContent{Kind: backend.PreviewError, Message: "file not found"}, "file not found"},
	}
	for _, tc := range cases {
		lines := Render("x", tc.pc, 0, false)
		if len(lines) != 1 || lines[0] != tc.want {
			t.Fatalf("expected [%q], got %q", tc.want, lines)
		}
	}
}
