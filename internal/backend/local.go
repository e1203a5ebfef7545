package backend

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/linusboehm/rats3/internal/logging"
)

// Local serves a directory tree rooted at a fixed directory. Paths are
// slash-separated keys relative to the root, the same shape the remote
// backend uses, so the controller never cares which one it holds.
type Local struct {
	root string
	log  logging.Logger
}

func NewLocal(root string, log logging.Logger) (*Local, error) {
	if log == nil {
		log = logging.Nop()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root %q: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %q is not a directory", abs)
	}
	return &Local{root: abs, log: log}, nil
}

func (l *Local) resolve(path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return l.root
	}
	return filepath.Join(l.root, filepath.FromSlash(path))
}

func (l *Local) List(ctx context.Context, prefix string) (ListResult, error) {
	dir := l.resolve(prefix)
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return ListResult{}, fmt.Errorf("read directory %q: %w", dir, err)
	}

	prefix = strings.Trim(prefix, "/")
	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		entry := Entry{
			Name: de.Name(),
			Dir:  de.IsDir(),
			Size: -1,
			Path: joinKey(prefix, de.Name()),
		}
		if info, err := de.Info(); err == nil {
			entry.Modified = info.ModTime()
			if !de.IsDir() {
				entry.Size = info.Size()
			}
		}
		entries = append(entries, entry)
	}
	sortEntries(entries)
	l.log.Debug("listed directory", logging.F("prefix", prefix), logging.F("entries", len(entries)))
	return ListResult{Entries: entries, Prefix: prefix}, nil
}

func (l *Local) FetchPreview(ctx context.Context, path string, maxBytes int64) (PreviewContent, error) {
	file := l.resolve(path)
	info, err := os.Stat(file)
	if err != nil {
		if os.IsNotExist(err) {
			return PreviewContent{Kind: PreviewError, Message: "file not found"}, nil
		}
		return PreviewContent{}, fmt.Errorf("stat %q: %w", file, err)
	}
	if info.IsDir() {
		return PreviewContent{Kind: PreviewDirectory}, nil
	}
	if info.Size() > maxBytes {
		return PreviewContent{Kind: PreviewTooLarge, Size: info.Size()}, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return PreviewContent{}, fmt.Errorf("read %q: %w", file, err)
	}
	if isText(data) {
		return PreviewContent{Kind: PreviewText, Text: string(data), Size: info.Size()}, nil
	}
	mimeType := mime.TypeByExtension(filepath.Ext(file))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return PreviewContent{Kind: PreviewBinary, MIME: mimeType, Size: info.Size()}, nil
}

func (l *Local) DownloadFile(ctx context.Context, path, destination string) error {
	src, err := os.Open(l.resolve(path))
	if err != nil {
		return fmt.Errorf("open %q: %w", path, err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}
	dest, err := os.Create(destination)
	if err != nil {
		return fmt.Errorf("create %q: %w", destination, err)
	}
	if _, err := io.Copy(dest, src); err != nil {
		dest.Close()
		return fmt.Errorf("copy to %q: %w", destination, err)
	}
	return dest.Close()
}

func (l *Local) DownloadTree(ctx context.Context, prefix, destDir string) (TreeStats, error) {
	root := l.resolve(prefix)
	var stats TreeStats
	err := filepath.WalkDir(root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			stats.Failed++
			l.log.Warn("walk failed", logging.F("path", path), logging.F("err", err))
			return nil
		}
		if de.IsDir() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			stats.Failed++
			return nil
		}
		dest := filepath.Join(destDir, rel)
		key := joinKey(strings.Trim(prefix, "/"), filepath.ToSlash(rel))
		if err := l.DownloadFile(ctx, key, dest); err != nil {
			stats.Failed++
			l.log.Warn("download failed", logging.F("path", key), logging.F("err", err))
			return nil
		}
		stats.Written++
		return nil
	})
	if err != nil {
		return stats, err
	}
	return stats, nil
}

func (l *Local) Parent(path string) (string, bool) {
	path = strings.Trim(path, "/")
	if path == "" {
		return "", false
	}
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", true
	}
	return path[:idx], true
}

func (l *Local) DisplayPath(path string) string {
	return "local://" + l.resolve(path)
}

func (l *Local) PathFromDisplay(display string) (string, bool) {
	rest, ok := strings.CutPrefix(display, "local://")
	if !ok {
		return "", false
	}
	rel, err := filepath.Rel(l.root, filepath.Clean(rest))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	if rel == "." {
		return "", true
	}
	return filepath.ToSlash(rel), true
}
