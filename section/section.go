// Package section partitions a document's full text into an ordered,
// non-overlapping sequence of labeled sections using a fixed catalog of
// cue rules. The engine is pure: it consumes text and produces section
// records; reading and persisting them is the pipeline's job.
package section

import (
	"fmt"
	"sort"

	"github.com/hazyhaar/medqc/docmodel"
	"github.com/hazyhaar/medqc/model"
)

// ProximityWindow is the suppression distance, in runes, under which two
// cue matches collapse to one section boundary. Multiple rules firing on
// nearly the same position (overlapping synonyms) must not create
// zero-width sliver sections. Measured in runes so Cyrillic and Latin
// text behave identically.
const ProximityWindow = 2

// Engine evaluates a cue-rule catalog over full text.
type Engine struct {
	rules []Rule
}

// NewEngine creates an Engine. With no rules given, the default clinical
// catalog is used.
func NewEngine(rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Engine{rules: rules}
}

type candidate struct {
	label     string
	kind      model.SectionKind
	start     int // byte offset
	runeStart int
	priority  int
}

// Partition scans full with every rule, resolves overlapping candidates,
// and returns the final ordered partition. Consecutive sections are
// contiguous; the last section ends at len(full). A text matching no cue
// yields a nil slice, not one catch-all section.
func (e *Engine) Partition(full string) []model.Section {
	var cands []candidate
	for _, r := range e.rules {
		for _, start := range r.starts(full) {
			cands = append(cands, candidate{
				label:     r.Label,
				kind:      r.Kind,
				start:     start,
				runeStart: docmodel.RuneOffset(full, start),
				priority:  r.Priority,
			})
		}
	}
	if len(cands) == 0 {
		return nil
	}

	// Earliest position first; rule importance breaks ties.
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].start != cands[j].start {
			return cands[i].start < cands[j].start
		}
		return cands[i].priority > cands[j].priority
	})

	// Greedy acceptance with proximity suppression against every
	// already-accepted start.
	var accepted []candidate
	for _, c := range cands {
		if tooClose(accepted, c.runeStart) {
			continue
		}
		accepted = append(accepted, c)
	}

	sort.Slice(accepted, func(i, j int) bool { return accepted[i].start < accepted[j].start })

	secs := make([]model.Section, 0, len(accepted))
	for i, c := range accepted {
		end := len(full)
		if i+1 < len(accepted) {
			end = accepted[i+1].start
		}
		secs = append(secs, model.Section{
			ID:    fmt.Sprintf("S%d", i+1),
			Label: c.label,
			Kind:  c.kind,
			Start: c.start,
			End:   end,
		})
	}
	return secs
}

func tooClose(accepted []candidate, runeStart int) bool {
	for _, a := range accepted {
		d := runeStart - a.runeStart
		if d < 0 {
			d = -d
		}
		if d < ProximityWindow {
			return true
		}
	}
	return false
}
