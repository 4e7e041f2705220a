package entities

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hazyhaar/medqc/model"
)

// dateTimeRe matches dd.mm.yyyy (also - and / separators, 2-digit years),
// an optional "г." marker, and an optional trailing hh:mm.
var dateTimeRe = regexp.MustCompile(`\b(\d{1,2}[./-]\d{1,2}[./-]\d{2,4})(?:\s*[гГ]\.?)?(?:[\s,;]+(\d{1,2}:\d{2}))?`)

// timeOnlyRe matches bare hh:mm tokens.
var timeOnlyRe = regexp.MustCompile(`\b\d{1,2}:\d{2}\b`)

// Temporal recognizes date-only, date+time and time-only lexical forms in
// every section. Each match becomes one datetime entity carrying the raw
// matched text plus an ISO-8601 normalization when the date is valid.
type Temporal struct{}

func (t *Temporal) Name() string { return "temporal" }

func (t *Temporal) Recognize(_ model.Section, text string) []model.Entity {
	var out []model.Entity
	type span struct{ start, end int }
	var taken []span

	for _, m := range dateTimeRe.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		date := text[m[2]:m[3]]
		var clock string
		if m[4] >= 0 {
			clock = text[m[4]:m[5]]
		}
		v := model.DatetimeValue{Raw: text[start:end], ISO: toISO(date, clock)}
		out = append(out, newEntity(model.TypeDatetime, start, end, 0.9, v))
		taken = append(taken, span{start, end})
	}

	// Time-only forms, skipping clocks already consumed by a date+time match.
	for _, m := range timeOnlyRe.FindAllStringIndex(text, -1) {
		covered := false
		for _, s := range taken {
			if m[0] >= s.start && m[1] <= s.end {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		v := model.DatetimeValue{Raw: text[m[0]:m[1]]}
		out = append(out, newEntity(model.TypeDatetime, m[0], m[1], 0.9, v))
	}
	return out
}

var dateSepRe = regexp.MustCompile(`[/-]`)

// toISO normalizes strings like "25.04.2025" plus "14:05" into
// "2025-04-25T14:05:00". Separators - and / are accepted, 2-digit years
// are expanded to 20xx, and a missing clock means midnight. Returns ""
// for dates that do not survive calendar validation.
func toISO(date, clock string) string {
	parts := strings.Split(dateSepRe.ReplaceAllString(strings.TrimSpace(date), "."), ".")
	if len(parts) < 3 {
		return ""
	}
	d, err1 := strconv.Atoi(parts[0])
	mo, err2 := strconv.Atoi(parts[1])
	ys := parts[2]
	if len(ys) == 2 {
		ys = "20" + ys
	}
	y, err3 := strconv.Atoi(ys)
	if err1 != nil || err2 != nil || err3 != nil {
		return ""
	}
	hh, mm := 0, 0
	if clock != "" {
		if h, m, ok := strings.Cut(strings.TrimSpace(clock), ":"); ok {
			hh, _ = strconv.Atoi(h)
			mm, _ = strconv.Atoi(m)
		}
	}
	if hh > 23 || mm > 59 {
		return ""
	}
	dt := time.Date(y, time.Month(mo), d, hh, mm, 0, 0, time.UTC)
	// time.Date normalizes overflow (e.g. 31.02 → 03.03); reject it.
	if dt.Year() != y || int(dt.Month()) != mo || dt.Day() != d {
		return ""
	}
	return dt.Format("2006-01-02T15:04:05")
}
