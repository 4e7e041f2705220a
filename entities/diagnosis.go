package entities

import (
	"regexp"

	"github.com/hazyhaar/medqc/model"
)

// icdRe matches code-shaped tokens: an uppercase Latin letter followed by
// two digits, optionally a dotted sub-code (ICD-10 shape, e.g. I10, J18.9).
var icdRe = regexp.MustCompile(`\b[A-Z]\d{2}(?:\.\d{1,2})?\b`)

// diagKeywordRe matches diagnosis-indicating keywords.
var diagKeywordRe = regexp.MustCompile(`(?i)диагноз|мкб(?:-10)?|\bicd\b|\bds\b`)

// Diagnosis recognizes ICD-shaped codes, gated per section: the section
// must contain a diagnosis keyword OR already contain a code-shaped token.
// The dual gate avoids spurious matches on unrelated alphanumeric tokens
// while still catching bare codes once a keyword appears anywhere in the
// section. Known trade-off: one keyword in a large section opens the gate
// for every code-shaped token in it, diagnosis-related or not.
type Diagnosis struct{}

func (d *Diagnosis) Name() string { return "diagnosis" }

func (d *Diagnosis) Recognize(_ model.Section, text string) []model.Entity {
	if !diagKeywordRe.MatchString(text) && !icdRe.MatchString(text) {
		return nil
	}
	var out []model.Entity
	for _, m := range icdRe.FindAllStringIndex(text, -1) {
		v := model.DiagnosisValue{ICD: text[m[0]:m[1]]}
		out = append(out, newEntity(model.TypeDiagnosis, m[0], m[1], 0.9, v))
	}
	return out
}
