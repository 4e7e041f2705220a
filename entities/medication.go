package entities

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hazyhaar/medqc/model"
)

// Order-line patterns. RE2's \b is ASCII-only, so Cyrillic alternations
// carry no boundary anchors; longer alternatives come first because Go
// regexp alternation is leftmost-first.
var (
	doseRe  = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(мкг|мг|мл|ед|таб|г)`)
	routeRe = regexp.MustCompile(`(?i)перорально|внутривенно|внутримышечно|подкожно|сублингвально|в/в|в/м|п/к|per\s+os`)
	freqRe  = regexp.MustCompile(`(?i)\d+\s*раз(?:а)?\s*(?:/|в\s*)\s*сут(?:ки)?|\d+\s*раза?\s*в\s*день|\d+\s*р/[дс]|каждые\s+\d+\s*час(?:а|ов)?`)
)

// minOrderLineRunes is the length under which an order line is noise.
const minOrderLineRunes = 5

// Medication recognizes medication-order lines. It is scoped strictly to
// sections of kind "orders" and works line by line: a line is emitted only
// if at least one of dose, route or frequency is found on it. The payload
// carries the full line plus the normalized dose (decimal comma converted
// to decimal point), route token and frequency token, each independently
// optional.
type Medication struct{}

func (m *Medication) Name() string { return "medication" }

func (m *Medication) Recognize(sec model.Section, text string) []model.Entity {
	if sec.Kind != model.KindOrders {
		return nil
	}
	var out []model.Entity
	offset := 0
	for _, line := range strings.Split(text, "\n") {
		lineStart := offset
		offset += len(line) + 1

		trimmed := strings.TrimSpace(line)
		if utf8.RuneCountInString(trimmed) < minOrderLineRunes {
			continue
		}

		var v model.MedicationValue
		if d := doseRe.FindStringSubmatch(line); d != nil {
			v.Dose = strings.ReplaceAll(d[1], ",", ".") + " " + d[2]
		}
		if r := routeRe.FindString(line); r != "" {
			v.Route = r
		}
		if f := freqRe.FindString(line); f != "" {
			v.Freq = f
		}
		if v.Dose == "" && v.Route == "" && v.Freq == "" {
			continue
		}
		v.Text = trimmed

		out = append(out, newEntity(model.TypeMedication, lineStart, lineStart+len(line), 0.8, v))
	}
	return out
}
