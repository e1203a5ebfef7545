package app

// statusSeverity selects the status line style.
type statusSeverity int

const (
	statusInfo statusSeverity = iota
	statusSuccess
	statusWarning
	statusError
)

type statusMessage struct {
	text     string
	severity statusSeverity
	seq      int
}

func (m *Model) setStatus(severity statusSeverity, text string) {
	m.statusSeq++
	m.status = statusMessage{text: text, severity: severity, seq: m.statusSeq}
}

func (m *Model) setStatusInfo(text string)    { m.setStatus(statusInfo, text) }
func (m *Model) setStatusSuccess(text string) { m.setStatus(statusSuccess, text) }
func (m *Model) setStatusWarning(text string) { m.setStatus(statusWarning, text) }
func (m *Model) setStatusError(text string)   { m.setStatus(statusError, text) }

func (m *Model) clearStatusIfSeq(seq int) {
	if m.status.seq == seq {
		m.status = statusMessage{seq: m.statusSeq}
	}
}
