// Package extract classifies flattened reference-page text into labeled
// lore records using keyword-driven section detection.
package extract

import "strings"

// State is a section of the page the scanner is currently collecting.
type State int

const (
	StateNone State = iota
	StateSectionA
	StateSectionB
)

func (s State) String() string {
	switch s {
	case StateSectionA:
		return "section_a"
	case StateSectionB:
		return "section_b"
	default:
		return "none"
	}
}

// Rules configure a sectioned scan. A line containing any keyword from
// HeadersA, HeadersB or Terminators (checked in that order) switches state and
// is not stored.
type Rules struct {
	HeadersA    []string
	HeadersB    []string
	Terminators []string

	// MinLengthA and MinLengthB are exclusive lower bounds on stored line length.
	MinLengthA int
	MinLengthB int

	// CapA and CapB bound the number of lines kept per section.
	CapA int
	CapB int

	// FallbackMinLength is the exclusive lower bound on lines captured while
	// no section is active.
	FallbackMinLength int
	// FallbackCap bounds the fallback buffer. Ignored when FallbackIntoA is set.
	FallbackCap int
	// FallbackIntoA routes early lines into section A while it is still empty
	// instead of a separate fallback buffer.
	FallbackIntoA bool
}

// Sections is the raw output of a scan before joining.
type Sections struct {
	A        []string
	B        []string
	Fallback []string
}

type transition struct {
	keywords []string
	next     State
}

// Scan runs the section state machine over text.
func Scan(text string, rules Rules) Sections {
	transitions := []transition{
		{keywords: rules.HeadersA, next: StateSectionA},
		{keywords: rules.HeadersB, next: StateSectionB},
		{keywords: rules.Terminators, next: StateNone},
	}

	var out Sections
	state := StateNone

	for _, line := range Lines(text) {
		if next, ok := match(line, transitions); ok {
			state = next
			continue
		}

		length := len([]rune(line))
		switch state {
		case StateSectionA:
			if length > rules.MinLengthA {
				out.A = append(out.A, line)
			}
		case StateSectionB:
			if length > rules.MinLengthB {
				out.B = append(out.B, line)
			}
		case StateNone:
			if length <= rules.FallbackMinLength {
				continue
			}
			if rules.FallbackIntoA {
				if len(out.A) == 0 {
					out.A = append(out.A, line)
				}
				continue
			}
			if len(out.Fallback) < rules.FallbackCap {
				out.Fallback = append(out.Fallback, line)
			}
		}
	}

	out.A = capLines(out.A, rules.CapA)
	out.B = capLines(out.B, rules.CapB)
	return out
}

// Lines splits text into trimmed, non-blank lines.
func Lines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lines = append(lines, trimmed)
	}
	return lines
}

func match(line string, transitions []transition) (State, bool) {
	lower := strings.ToLower(line)
	for _, t := range transitions {
		if containsAny(lower, t.keywords) {
			return t.next, true
		}
	}
	return StateNone, false
}

func containsAny(lower string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func capLines(lines []string, limit int) []string {
	if limit > 0 && len(lines) > limit {
		return lines[:limit]
	}
	return lines
}
