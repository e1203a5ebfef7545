package backend

import (
	"context"
	"sort"
	"time"
	"unicode/utf8"
)

// Entry is one row of a listing. Size is -1 when unknown (directories,
// synthesized prefixes). Path is the full path or key relative to the
// backend root, always slash-separated.
type Entry struct {
	Name     string
	Dir      bool
	Size     int64
	Modified time.Time
	Path     string
}

// ListResult is an ordered listing: directories first, then leaf entries,
// case-sensitive lexicographic within each group.
type ListResult struct {
	Entries []Entry
	Prefix  string
}

type PreviewKind int

const (
	PreviewLoading PreviewKind = iota
	PreviewText
	PreviewBinary
	PreviewTooLarge
	PreviewDirectory
	PreviewError
)

// PreviewContent is the raw preview payload. Text carries the file body;
// rendering (highlighting, wrapping) happens in the preview package.
type PreviewContent struct {
	Kind    PreviewKind
	Text    string
	MIME    string
	Size    int64
	Message string
}

// TreeStats reports a best-effort tree download.
type TreeStats struct {
	Written int
	Failed  int
}

// Backend is the read-only capability surface over a hierarchical store.
// There is deliberately no mutating operation anywhere on this interface:
// neither implementation can alter remote state, by construction.
type Backend interface {
	// List returns all entries directly under prefix. Remote
	// implementations follow continuation tokens until exhausted or a
	// configured page cap, merging pages before returning.
	List(ctx context.Context, prefix string) (ListResult, error)

	// FetchPreview checks size metadata first and returns TooLarge
	// without transferring the body when it exceeds maxBytes.
	FetchPreview(ctx context.Context, path string, maxBytes int64) (PreviewContent, error)

	// DownloadFile copies one file to the destination path, creating
	// parent directories as needed.
	DownloadFile(ctx context.Context, path, destination string) error

	// DownloadTree recreates the hierarchy under prefix inside destDir.
	// Individual file failures are counted, not fatal.
	DownloadTree(ctx context.Context, prefix, destDir string) (TreeStats, error)

	// Parent returns the path one level up, or false at the root.
	Parent(path string) (string, bool)

	// DisplayPath renders a path for the user, including the scheme.
	DisplayPath(path string) string

	// PathFromDisplay inverts DisplayPath. It returns false when the
	// display path belongs to a different backend, bucket, or root.
	PathFromDisplay(display string) (string, bool)
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Dir != entries[j].Dir {
			return entries[i].Dir
		}
		return entries[i].Name < entries[j].Name
	})
}

// isText accepts valid UTF-8 with no NUL bytes as previewable text.
func isText(data []byte) bool {
	if !utf8.Valid(data) {
		return false
	}
	for _, b := range data {
		if b == 0 {
			return false
		}
	}
	return true
}

func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
