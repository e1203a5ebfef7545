package keymap

import (
	"fmt"
	"time"
)

// Binding associates an action with the sequences that trigger it.
type Binding struct {
	Action    Action
	Sequences [][]Chord
}

type tableEntry struct {
	action Action
	seq    []Chord
}

// Table is the immutable binding table built once at startup. Entries keep
// declaration order: when a chord completes more than one binding, the
// entry declared first wins. That is documented behavior, not a bug; Lint
// surfaces the overlaps.
type Table struct {
	entries []tableEntry
}

// NewTable flattens bindings into declaration order.
func NewTable(bindings []Binding) *Table {
	t := &Table{}
	for _, b := range bindings {
		for _, seq := range b.Sequences {
			if len(seq) == 0 {
				continue
			}
			t.entries = append(t.entries, tableEntry{action: b.Action, seq: seq})
		}
	}
	return t
}

// ParseTable builds a table from key-spec strings per action, walking
// actions in declaration order. Specs that fail to parse are dropped
// silently; the binding simply does not register.
func ParseTable(specs map[Action][]string) *Table {
	var bindings []Binding
	for _, action := range Actions {
		var seqs [][]Chord
		for _, spec := range specs[action] {
			seq, err := ParseSequence(spec)
			if err != nil {
				continue
			}
			seqs = append(seqs, seq)
		}
		if len(seqs) > 0 {
			bindings = append(bindings, Binding{Action: action, Sequences: seqs})
		}
	}
	return NewTable(bindings)
}

func chordsEqual(a, b []Chord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// matchExact returns the first declared entry whose sequence equals seq.
func (t *Table) matchExact(seq []Chord) (Action, bool) {
	for _, e := range t.entries {
		if chordsEqual(e.seq, seq) {
			return e.action, true
		}
	}
	return ActionNone, false
}

// isPrefix reports whether seq is a strict prefix of any bound sequence.
func (t *Table) isPrefix(seq []Chord) bool {
	for _, e := range t.entries {
		if len(e.seq) <= len(seq) {
			continue
		}
		if chordsEqual(e.seq[:len(seq)], seq) {
			return true
		}
	}
	return false
}

// Lint reports overlapping bindings: duplicates and sequences shadowed by
// an earlier single or prefix binding. Warnings only; resolution order is
// not changed.
func (t *Table) Lint() []string {
	var warnings []string
	for i, a := range t.entries {
		for _, b := range t.entries[i+1:] {
			switch {
			case chordsEqual(a.seq, b.seq):
				warnings = append(warnings, fmt.Sprintf(
					"%q bound to both %s and %s; %s wins",
					sequenceString(a.seq), a.action, b.action, a.action))
			case len(a.seq) < len(b.seq) && chordsEqual(b.seq[:len(a.seq)], a.seq):
				warnings = append(warnings, fmt.Sprintf(
					"%s binding %q shadows %s binding %q",
					a.action, sequenceString(a.seq), b.action, sequenceString(b.seq)))
			}
		}
	}
	return warnings
}

// Resolution is the outcome of feeding one chord to the resolver. A chord
// that neither matched nor started a sequence comes back with both flags
// false; query-editing contexts then treat it as a literal character.
type Resolution struct {
	Action  Action
	Chord   Chord
	Matched bool
	Pending bool
}

// Resolver is a small automaton over the binding table: Idle when the
// buffer is empty, PendingSequence(buffer, deadline) otherwise.
type Resolver struct {
	table    *Table
	timeout  time.Duration
	buffer   []Chord
	deadline time.Time
}

const DefaultSequenceTimeout = 750 * time.Millisecond

func NewResolver(table *Table, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultSequenceTimeout
	}
	return &Resolver{table: table, timeout: timeout}
}

// Pending reports whether a partially-entered sequence is buffered.
func (r *Resolver) Pending() bool {
	return len(r.buffer) > 0
}

// Reset discards any buffered sequence.
func (r *Resolver) Reset() {
	r.buffer = nil
}

// Feed processes one chord. An expired buffer is flushed first, so a
// caller that never runs timers still converges.
func (r *Resolver) Feed(chord Chord, now time.Time) []Resolution {
	var out []Resolution
	if len(r.buffer) > 0 && now.After(r.deadline) {
		out = r.flush(now)
	}
	return append(out, r.feed(chord, now)...)
}

func (r *Resolver) feed(chord Chord, now time.Time) []Resolution {
	if len(r.buffer) == 0 {
		if action, ok := r.table.matchExact([]Chord{chord}); ok {
			return []Resolution{{Action: action, Chord: chord, Matched: true}}
		}
		if r.table.isPrefix([]Chord{chord}) {
			r.buffer = []Chord{chord}
			r.deadline = now.Add(r.timeout)
			return []Resolution{{Chord: chord, Pending: true}}
		}
		return []Resolution{{Chord: chord}}
	}

	cand := append(append([]Chord{}, r.buffer...), chord)
	if action, ok := r.table.matchExact(cand); ok {
		r.buffer = nil
		return []Resolution{{Action: action, Chord: chord, Matched: true}}
	}
	if r.table.isPrefix(cand) {
		r.buffer = cand
		r.deadline = now.Add(r.timeout)
		return []Resolution{{Chord: chord, Pending: true}}
	}
	// Abandoned sequence: the buffered chords are dropped and the new
	// chord retried on its own.
	r.buffer = nil
	return r.feed(chord, now)
}

// Expire flushes the buffer if its deadline has passed. The first buffered
// chord is retried standalone (single bindings only, so it cannot re-enter
// the pending state), the remainder is re-fed.
func (r *Resolver) Expire(now time.Time) []Resolution {
	if len(r.buffer) == 0 || now.Before(r.deadline) {
		return nil
	}
	return r.flush(now)
}

func (r *Resolver) flush(now time.Time) []Resolution {
	buffered := r.buffer
	r.buffer = nil

	var out []Resolution
	first := buffered[0]
	if action, ok := r.table.matchExact([]Chord{first}); ok {
		out = append(out, Resolution{Action: action, Chord: first, Matched: true})
	} else {
		out = append(out, Resolution{Chord: first})
	}
	for _, chord := range buffered[1:] {
		out = append(out, r.feed(chord, now)...)
	}
	return out
}

// Timeout returns the configured sequence timeout.
func (r *Resolver) Timeout() time.Duration {
	return r.timeout
}
