package app

import (
	"time"

	"github.com/linusboehm/rats3/internal/backend"
)

// listLoadedMsg delivers a completed directory listing. root is the
// prefix the listing was requested for; a mismatch with the model's
// current root means the user navigated away and the result is stale.
type listLoadedMsg struct {
	root   string
	result backend.ListResult
	err    error
}

// previewLoadedMsg delivers a completed preview fetch.
type previewLoadedMsg struct {
	root    string
	path    string
	content backend.PreviewContent
	err     error
}

// downloadDoneMsg reports the outcome of a download started from the
// download overlay.
type downloadDoneMsg struct {
	name  string
	dest  string
	tree  bool
	stats backend.TreeStats
	err   error
}

// sequenceTimeoutMsg fires when a buffered key sequence may have
// expired.
type sequenceTimeoutMsg struct {
	at time.Time
}

// statusExpiredMsg clears the status line if it still shows the message
// the timer was armed for.
type statusExpiredMsg struct {
	seq int
}
