// Package idgen provides pluggable ID generation.
//
// Pipeline run IDs come from the Default generator; document IDs are
// derived from content so that re-ingesting the same file on the same day
// yields the same ID.
package idgen

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator producing RFC 9562 UUID v7 strings,
// time-sortable and globally unique.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed wraps a Generator and prepends a fixed prefix to every ID.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Default is the generator for run and request identifiers.
var Default Generator = UUIDv7()

// New produces an ID using the Default generator.
func New() string {
	return Default()
}

// docIDPrefix tags generated document identifiers.
const docIDPrefix = "KZ"

// DocID derives a document identifier from the ingestion date and the
// file's SHA-256, e.g. "KZ-20260828-9F2C41AB". Deterministic for the same
// content on the same day.
func DocID(t time.Time, sha256hex string) string {
	short := sha256hex
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s-%s-%s", docIDPrefix, t.UTC().Format("20060102"), strings.ToUpper(short))
}
