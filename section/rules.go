package section

import (
	"regexp"

	"github.com/hazyhaar/medqc/model"
)

// Rule is one cue in the section catalog: a textual trigger bound to a
// label, a kind, and a priority weight used to break ties between rules
// firing at the same position.
type Rule struct {
	Label    string
	Kind     model.SectionKind
	Priority int
	re       *regexp.Regexp
}

// NewRule compiles a cue rule. pattern is a case-insensitive alternation of
// triggers; it is wrapped in letter/digit boundary guards, since RE2's \b
// is ASCII-only and unusable around Cyrillic triggers.
func NewRule(label string, kind model.SectionKind, pattern string, priority int) Rule {
	re := regexp.MustCompile(`(?i)(?:^|[^\pL\pN])(` + pattern + `)(?:[^\pL\pN]|$)`)
	return Rule{Label: label, Kind: kind, Priority: priority, re: re}
}

// starts returns the byte offsets of every trigger match in full.
func (r Rule) starts(full string) []int {
	ms := r.re.FindAllStringSubmatchIndex(full, -1)
	if len(ms) == 0 {
		return nil
	}
	out := make([]int, 0, len(ms))
	for _, m := range ms {
		out = append(out, m[2]) // start of the trigger group, not the guard
	}
	return out
}

// DefaultRules is the fixed catalog of section-defining cues for clinical
// records (Russian-language stationary/ER charts).
func DefaultRules() []Rule {
	return []Rule{
		NewRule("Поступление", model.KindAdmit, `Поступление|Госпитализац(?:ия|ии)|Время поступления`, 90),
		NewRule("Триаж", model.KindTriage, `Триаж|Triage|Категория приоритета`, 80),
		NewRule("Осмотр при поступлении", model.KindInitialExam, `Осмотр при поступлении|Первичный осмотр`, 80),
		NewRule("Ежедневная запись", model.KindDailyNote, `Ежедневн(?:ая|ые) запись|Дневниковая запись`, 50),
		NewRule("План лечения", model.KindPlan, `План лечения|План обследования|План ведения`, 60),
		NewRule("Лист назначений", model.KindOrders, `Лист назначений|Назначения|Ордер[- ]сет`, 70),
		NewRule("Показатели здоровья", model.KindVitals, `Показатели здоровья|Температурный лист|Витальные|T°|ЧСС|АД|SpO₂`, 40),
		NewRule("ЭКГ", model.KindECG, `ЭКГ|ECG`, 60),
		NewRule("Эпикриз", model.KindEpicrisis, `Эпикриз|Выписной эпикриз|Переводной эпикриз`, 70),
	}
}
