// Package extract turns source medical documents into per-page plain text.
//
// Extraction is format-specific and offset-agnostic: it produces raw page
// strings plus the producer tag of the generating software, and leaves
// offset bookkeeping to docmodel.Compose. Formats without a physical page
// model (DOCX, plain text) yield a single pseudo-page.
package extract

import (
	"path/filepath"
	"strings"

	"github.com/hazyhaar/medqc/fault"
)

// Result is the raw output of one extraction.
type Result struct {
	Pages    []string
	Producer string
}

// FromFile extracts text from the file at path, dispatching on the file
// extension. Unknown extensions return an UNSUPPORTED fault.
func FromFile(path string) (Result, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return fromPDF(path)
	case ".docx":
		return fromDOCX(path)
	case ".txt":
		return fromText(path)
	default:
		return Result{}, fault.New(fault.Unsupported, "unsupported document format %q", filepath.Ext(path))
	}
}
