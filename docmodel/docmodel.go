// Package docmodel builds the canonical text representation of a document:
// one concatenated full text plus a page offset table. It is a pure
// transformation — extraction and persistence live elsewhere.
package docmodel

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hazyhaar/medqc/model"
)

// PageSeparator is the single character inserted between consecutive pages,
// so global offsets are computable from prior page lengths plus one
// separator per boundary.
const PageSeparator = '\n'

// minNativeRunes is the whitespace-stripped text length below which a
// document is classified scanned. This is a coarse "no usable text layer"
// heuristic, not OCR detection: a native PDF with almost no text trips it
// just the same.
const minNativeRunes = 10

// Text is the composed full text of a document with its page offset table.
type Text struct {
	Full    string
	Pages   []model.Page
	Scanned bool
}

// Compose concatenates ordered page texts into one full text and derives
// the page offset table. Empty input yields empty text, no pages, and
// Scanned=true.
func Compose(pages []string) Text {
	var sb strings.Builder
	spans := make([]model.Page, 0, len(pages))
	for i, p := range pages {
		if i > 0 {
			sb.WriteByte(PageSeparator)
		}
		start := sb.Len()
		sb.WriteString(p)
		spans = append(spans, model.Page{Number: i, Start: start, End: sb.Len()})
	}
	full := sb.String()
	return Text{
		Full:    full,
		Pages:   spans,
		Scanned: strippedLen(full) < minNativeRunes,
	}
}

// strippedLen counts the runes of s that are not whitespace.
func strippedLen(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// RuneOffset returns the rune index of byte offset off within s.
// Offsets in the middle of a rune count as the rune they fall in.
func RuneOffset(s string, off int) int {
	if off > len(s) {
		off = len(s)
	}
	return utf8.RuneCountInString(s[:off])
}
