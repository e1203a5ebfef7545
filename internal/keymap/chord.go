package keymap

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Chord is a single key press with its modifier set. Key holds either a
// single case-sensitive literal character or one of the canonical named
// keys below ("enter", "pgup", ...).
type Chord struct {
	Ctrl  bool
	Alt   bool
	Shift bool
	Key   string
}

// canonicalNames maps every accepted key-name spelling (lowercased) to the
// canonical token. Canonical tokens match what bubbletea reports for the
// same key, so chords from config and chords from input compare directly.
var canonicalNames = map[string]string{
	"enter":     "enter",
	"return":    "enter",
	"tab":       "tab",
	"backspace": "backspace",
	"escape":    "esc",
	"esc":       "esc",
	"space":     "space",
	"up":        "up",
	"down":      "down",
	"left":      "left",
	"right":     "right",
	"home":      "home",
	"end":       "end",
	"pageup":    "pgup",
	"pagedown":  "pgdown",
	"delete":    "delete",
	"del":       "delete",
	"insert":    "insert",
	"ins":       "insert",
}

var displayNames = map[string]string{
	"enter":     "Enter",
	"tab":       "Tab",
	"backspace": "Backspace",
	"esc":       "Esc",
	"space":     "Space",
	"up":        "Up",
	"down":      "Down",
	"left":      "Left",
	"right":     "Right",
	"home":      "Home",
	"end":       "End",
	"pgup":      "PageUp",
	"pgdown":    "PageDown",
	"delete":    "Delete",
	"insert":    "Insert",
}

// ParseChord parses a key-spec string such as "k", "G", "Ctrl-d", or
// "Alt-Enter". Modifier names are case-sensitive; literal characters keep
// their case. Shift plus a lowercase letter normalizes to the uppercase
// literal, which is how terminals deliver it.
func ParseChord(spec string) (Chord, error) {
	var c Chord
	rest := spec
	for {
		switch {
		case strings.HasPrefix(rest, "Ctrl-") && len(rest) > len("Ctrl-"):
			c.Ctrl = true
			rest = rest[len("Ctrl-"):]
		case strings.HasPrefix(rest, "Alt-") && len(rest) > len("Alt-"):
			c.Alt = true
			rest = rest[len("Alt-"):]
		case strings.HasPrefix(rest, "Shift-") && len(rest) > len("Shift-"):
			c.Shift = true
			rest = rest[len("Shift-"):]
		default:
			return finishChord(c, rest, spec)
		}
	}
}

func finishChord(c Chord, name, spec string) (Chord, error) {
	if name == "" {
		return Chord{}, fmt.Errorf("key spec %q has no key name", spec)
	}
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		if r == ' ' {
			c.Key = "space"
			return c, nil
		}
		// Terminals report shifted letters as the uppercase literal
		// with no modifier, so the flag is folded into the character.
		if c.Shift && unicode.IsLetter(r) {
			r = unicode.ToUpper(r)
			c.Shift = false
		}
		c.Key = string(r)
		return c, nil
	}
	canon, ok := canonicalNames[strings.ToLower(name)]
	if !ok {
		return Chord{}, fmt.Errorf("unknown key name %q in spec %q", name, spec)
	}
	c.Key = canon
	return c, nil
}

// String renders the chord back into key-spec form. Parsing the result
// yields an equivalent chord.
func (c Chord) String() string {
	var b strings.Builder
	if c.Ctrl {
		b.WriteString("Ctrl-")
	}
	if c.Alt {
		b.WriteString("Alt-")
	}
	if c.Shift {
		b.WriteString("Shift-")
	}
	if display, ok := displayNames[c.Key]; ok && utf8.RuneCountInString(c.Key) > 1 {
		b.WriteString(display)
	} else {
		b.WriteString(c.Key)
	}
	return b.String()
}

// IsLiteral reports whether the chord is an unmodified printable character,
// usable as free text in query-editing contexts.
func (c Chord) IsLiteral() (rune, bool) {
	if c.Ctrl || c.Alt {
		return 0, false
	}
	if c.Key == "space" {
		return ' ', true
	}
	if utf8.RuneCountInString(c.Key) != 1 {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(c.Key)
	if !unicode.IsPrint(r) {
		return 0, false
	}
	return r, true
}

// ParseSequence parses a sequence spec: space-separated chord specs, where
// a bare run of literal characters ("gg") counts one chord per character.
func ParseSequence(spec string) ([]Chord, error) {
	fields := strings.Fields(spec)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty key spec")
	}
	var seq []Chord
	for _, field := range fields {
		chord, err := ParseChord(field)
		if err == nil {
			seq = append(seq, chord)
			continue
		}
		expanded, expandErr := expandLiteralRun(field)
		if expandErr != nil {
			return nil, err
		}
		seq = append(seq, expanded...)
	}
	return seq, nil
}

// expandLiteralRun turns "gg" into two single-character chords. Runs must
// be plain printable characters with no modifier prefixes.
func expandLiteralRun(field string) ([]Chord, error) {
	var seq []Chord
	for _, r := range field {
		if !unicode.IsPrint(r) || r == ' ' {
			return nil, fmt.Errorf("invalid literal run %q", field)
		}
		seq = append(seq, Chord{Key: string(r)})
	}
	if len(seq) < 2 {
		return nil, fmt.Errorf("invalid literal run %q", field)
	}
	return seq, nil
}

// FromKeyString converts a terminal key report in bubbletea's format
// ("g", "G", "ctrl+u", "shift+up", "enter", " ") into a Chord.
func FromKeyString(s string) (Chord, bool) {
	if s == "" {
		return Chord{}, false
	}
	if s == " " {
		return Chord{Key: "space"}, true
	}
	if s == "+" {
		return Chord{Key: "+"}, true
	}
	var c Chord
	rest := s
	for {
		switch {
		case strings.HasPrefix(rest, "ctrl+") && len(rest) > len("ctrl+"):
			c.Ctrl = true
			rest = rest[len("ctrl+"):]
		case strings.HasPrefix(rest, "alt+") && len(rest) > len("alt+"):
			c.Alt = true
			rest = rest[len("alt+"):]
		case strings.HasPrefix(rest, "shift+") && len(rest) > len("shift+"):
			c.Shift = true
			rest = rest[len("shift+"):]
		default:
			if utf8.RuneCountInString(rest) == 1 {
				if c.Shift {
					r, _ := utf8.DecodeRuneInString(rest)
					if unicode.IsLower(r) {
						rest = string(unicode.ToUpper(r))
						c.Shift = false
					}
				}
				c.Key = rest
				return c, true
			}
			if _, ok := displayNames[rest]; ok {
				c.Key = rest
				return c, true
			}
			return Chord{}, false
		}
	}
}

func sequenceString(seq []Chord) string {
	parts := make([]string, len(seq))
	for i, c := range seq {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
