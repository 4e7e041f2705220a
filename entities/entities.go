// Package entities produces typed, position-anchored entities by running
// independent recognizer families over section-scoped text slices. Each
// family reports offsets local to its slice; the engine translates them
// into document-global coordinates, so every entity falls within its
// owning section.
//
// All families require sections: a document with zero sections yields zero
// entities. Families are independent — a timestamp and a vital reading can
// legitimately share a line, and no cross-family deduplication happens.
package entities

import (
	"encoding/json"

	"github.com/hazyhaar/medqc/model"
)

// Family is one entity-recognition strategy with its own scoping and
// matching rules. Recognize receives the section record and its text slice
// and returns entities with slice-local offsets.
type Family interface {
	Name() string
	Recognize(sec model.Section, text string) []model.Entity
}

// DefaultFamilies returns the four production recognizer families.
func DefaultFamilies() []Family {
	return []Family{
		&Temporal{},
		&Diagnosis{},
		&Medication{},
		&Vitals{},
	}
}

// Engine applies recognizer families per section.
type Engine struct {
	families []Family
}

// NewEngine creates an Engine. With no families given, the default set is
// used.
func NewEngine(families ...Family) *Engine {
	if len(families) == 0 {
		families = DefaultFamilies()
	}
	return &Engine{families: families}
}

// Recognize runs every family over every section and returns all entities
// in document-global coordinates, tagged with their owning section id.
// Sections whose range does not fit full are skipped rather than panicking
// on a stale boundary.
func (e *Engine) Recognize(full string, secs []model.Section) []model.Entity {
	var out []model.Entity
	for _, sec := range secs {
		if sec.Start < 0 || sec.End > len(full) || sec.Start >= sec.End {
			continue
		}
		slice := full[sec.Start:sec.End]
		for _, f := range e.families {
			for _, ent := range f.Recognize(sec, slice) {
				ent.Start += sec.Start
				ent.End += sec.Start
				ent.SectionID = sec.ID
				out = append(out, ent)
			}
		}
	}
	return out
}

// newEntity builds an entity with a marshalled payload. The payload structs
// are plain data, so marshalling cannot fail.
func newEntity(typ model.EntityType, start, end int, confidence float64, payload any) model.Entity {
	b, _ := json.Marshal(payload)
	return model.Entity{
		Type:       typ,
		Start:      start,
		End:        end,
		Value:      b,
		Source:     "regex",
		Confidence: confidence,
	}
}
