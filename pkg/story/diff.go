package story

import (
	"strings"
	"unicode"

	"github.com/aryann/difflib"
)

// TokenizeWords splits s into alternating runs of whitespace, word characters
// and punctuation. Joining the tokens yields s again.
func TokenizeWords(s string) []string {
	var out []string
	var cur []rune
	kind := -1 // 0=space,1=word,2=punct
	flush := func() {
		if len(cur) == 0 {
			return
		}
		out = append(out, string(cur))
		cur = cur[:0]
	}
	for _, r := range s {
		k := 2
		switch {
		case unicode.IsSpace(r):
			k = 0
		case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '-' || r == '\'':
			k = 1
		}
		if k != kind {
			flush()
			kind = k
		}
		cur = append(cur, r)
	}
	flush()
	return out
}

type Op int

const (
	OpRemove Op = -1
	OpKeep   Op = 0
	OpAdd    Op = 1
)

type WordDelta struct {
	Op   Op
	Text string
}

// DiffWords computes a word-level diff from a to b.
func DiffWords(a, b string) []WordDelta {
	recs := difflib.Diff(TokenizeWords(a), TokenizeWords(b))
	out := make([]WordDelta, 0, len(recs))
	for _, r := range recs {
		switch r.Delta {
		case difflib.Common:
			out = append(out, WordDelta{Op: OpKeep, Text: r.Payload})
		case difflib.LeftOnly:
			out = append(out, WordDelta{Op: OpRemove, Text: r.Payload})
		case difflib.RightOnly:
			out = append(out, WordDelta{Op: OpAdd, Text: r.Payload})
		}
	}
	return out
}

// FormatDiff renders deltas inline, wrapping removals in [-…-] and additions in {+…+}.
// Adjacent deltas with the same op share one marker.
func FormatDiff(deltas []WordDelta) string {
	var b strings.Builder
	open := OpKeep
	closeMarker := func() {
		switch open {
		case OpRemove:
			b.WriteString("-]")
		case OpAdd:
			b.WriteString("+}")
		}
	}
	for _, d := range deltas {
		if d.Op != open {
			closeMarker()
			switch d.Op {
			case OpRemove:
				b.WriteString("[-")
			case OpAdd:
				b.WriteString("{+")
			}
			open = d.Op
		}
		b.WriteString(d.Text)
	}
	closeMarker()
	return b.String()
}

// Changed reports whether any delta is an addition or removal.
func Changed(deltas []WordDelta) bool {
	for _, d := range deltas {
		if d.Op != OpKeep {
			return true
		}
	}
	return false
}
