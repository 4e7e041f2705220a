package entities

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hazyhaar/medqc/model"
)

// vitalPattern is one data-described vital matcher. spanGroup selects the
// submatch used as the evidencing span (0 = whole match); build turns the
// submatch texts into a typed payload, or reports false to drop the match.
type vitalPattern struct {
	kind      string
	re        *regexp.Regexp
	spanGroup int
	build     func(groups []string) (model.VitalValue, bool)
}

// The temperature label includes bare "Т"/"t", so it needs an explicit
// letter/digit guard (RE2's \b is ASCII-only and useless around Cyrillic).
// Label-to-number windows are rune-counted character classes ({0,20} and
// {0,10}), matching the fixed windows of the catalog.
var vitalPatterns = []vitalPattern{
	{
		kind:      model.VitalTemperature,
		re:        regexp.MustCompile(`(?i)(?:^|[^\pL\pN])((?:температура|темп\.?|t°|т°|t|т)[^0-9\n]{0,20}(\d{2}(?:[.,]\d{1,2})?))`),
		spanGroup: 1,
		build: func(g []string) (model.VitalValue, bool) {
			f, err := strconv.ParseFloat(strings.ReplaceAll(g[2], ",", "."), 64)
			if err != nil {
				return model.VitalValue{}, false
			}
			return model.VitalValue{Kind: model.VitalTemperature, Value: f, Unit: "°C"}, true
		},
	},
	{
		kind: model.VitalBloodPressure,
		re:   regexp.MustCompile(`(\d{2,3})\s*/\s*(\d{2,3})(?:\s*мм\s*рт\.?\s*ст\.?)?`),
		build: func(g []string) (model.VitalValue, bool) {
			sys, err1 := strconv.Atoi(g[1])
			dia, err2 := strconv.Atoi(g[2])
			if err1 != nil || err2 != nil {
				return model.VitalValue{}, false
			}
			return model.VitalValue{Kind: model.VitalBloodPressure, Systolic: sys, Diastolic: dia, Unit: "мм рт. ст."}, true
		},
	},
	{
		kind: model.VitalSpO2,
		re:   regexp.MustCompile(`(?i)(?:spo₂|spo2|sp02|сатурация)[^0-9\n]{0,10}(\d{2,3})\s*%?`),
		build: func(g []string) (model.VitalValue, bool) {
			n, err := strconv.Atoi(g[1])
			if err != nil {
				return model.VitalValue{}, false
			}
			return model.VitalValue{Kind: model.VitalSpO2, Value: float64(n), Unit: "%"}, true
		},
	},
}

// Vitals recognizes temperature, blood pressure and oxygen saturation
// readings in every section. Each match becomes one vital entity with a
// kind tag and typed numeric fields.
type Vitals struct{}

func (v *Vitals) Name() string { return "vitals" }

func (v *Vitals) Recognize(_ model.Section, text string) []model.Entity {
	var out []model.Entity
	for _, p := range vitalPatterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(text, -1) {
			groups := make([]string, 0, len(m)/2)
			for i := 0; i < len(m); i += 2 {
				if m[i] < 0 {
					groups = append(groups, "")
					continue
				}
				groups = append(groups, text[m[i]:m[i+1]])
			}
			val, ok := p.build(groups)
			if !ok {
				continue
			}
			start, end := m[2*p.spanGroup], m[2*p.spanGroup+1]
			out = append(out, newEntity(model.TypeVital, start, end, 0.9, val))
		}
	}
	return out
}
