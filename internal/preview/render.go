package preview

import (
	"fmt"
	"path"
	"strings"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/wordwrap"

	"github.com/linusboehm/rats3/internal/backend"
)

var (
	chromaStyle     = styles.Get("monokai")
	chromaFormatter = formatters.TTY256
)

// Render turns fetched content into display lines. Text is
// syntax-highlighted by filename; wrap folds long lines at width
// instead of letting the viewport clip them.
func Render(filePath string, pc backend.PreviewContent, width int, wrap bool) []string {
	switch pc.Kind {
	case backend.PreviewLoading:
		return []string{"Loading..."}
	case backend.PreviewDirectory:
		return []string{"Directory"}
	case backend.PreviewTooLarge:
		return []string{fmt.Sprintf("File too large for preview (%s)", humanSize(pc.Size))}
	case backend.PreviewBinary:
		mimeType := pc.MIME
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		return []string{fmt.Sprintf("Binary file: %s (%s)", mimeType, humanSize(pc.Size))}
	case backend.PreviewError:
		return []string{pc.Message}
	}

	text := highlight(path.Base(filePath), pc.Text)
	if wrap && width > 0 {
		text = wordwrap.String(text, width)
	}
	lines := strings.Split(text, "\n")
	// The highlighter may leave a reset sequence after the final
	// newline; drop trailing lines with no visible content.
	for len(lines) > 0 && ansi.Strip(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func highlight(filename, content string) string {
	lexer := lexers.Match(filename)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		return content
	}
	var sb strings.Builder
	if err := chromaFormatter.Format(&sb, chromaStyle, iterator); err != nil {
		return content
	}
	return sb.String()
}

func humanSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
