package section

import (
	"reflect"
	"strings"
	"testing"

	"github.com/hazyhaar/medqc/model"
)

const chartText = "Поступление 25.04.2025 14:05\n" +
	"Первичный осмотр: состояние средней тяжести.\n" +
	"План лечения: антибактериальная терапия.\n" +
	"Лист назначений:\nЦефтриаксон 1 г в/в 2 раза/сут\n" +
	"Эпикриз: выписан с улучшением."

func TestPartition_OrderAndContiguity(t *testing.T) {
	secs := NewEngine().Partition(chartText)
	if len(secs) != 5 {
		t.Fatalf("sections: got %d, want 5: %+v", len(secs), secs)
	}

	kinds := []model.SectionKind{
		model.KindAdmit, model.KindInitialExam, model.KindPlan,
		model.KindOrders, model.KindEpicrisis,
	}
	for i, s := range secs {
		if s.Kind != kinds[i] {
			t.Errorf("section %d: kind = %q, want %q", i, s.Kind, kinds[i])
		}
		if s.Start >= s.End {
			t.Errorf("section %d: empty range [%d, %d)", i, s.Start, s.End)
		}
		if i > 0 && secs[i-1].End != s.Start {
			t.Errorf("section %d: gap between %d and %d", i, secs[i-1].End, s.Start)
		}
		if want := "S" + string(rune('1'+i)); s.ID != want {
			t.Errorf("section %d: id = %q, want %q", i, s.ID, want)
		}
	}
	if last := secs[len(secs)-1]; last.End != len(chartText) {
		t.Errorf("last end = %d, want %d", last.End, len(chartText))
	}
	if secs[0].Start != 0 {
		t.Errorf("first start = %d", secs[0].Start)
	}
}

func TestPartition_Idempotent(t *testing.T) {
	e := NewEngine()
	first := e.Partition(chartText)
	second := e.Partition(chartText)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("partition not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestPartition_NoCues(t *testing.T) {
	secs := NewEngine().Partition("обычный текст без заголовков разделов")
	if len(secs) != 0 {
		t.Errorf("got %d sections, want 0", len(secs))
	}
}

func TestPartition_Empty(t *testing.T) {
	if secs := NewEngine().Partition(""); len(secs) != 0 {
		t.Errorf("got %d sections for empty text", len(secs))
	}
}

func TestPartition_SameOffsetPriorityWins(t *testing.T) {
	// Two rules firing at the same position collapse to the
	// higher-priority one.
	e := NewEngine(
		NewRule("Низкий", model.KindDailyNote, `Запись осмотра`, 50),
		NewRule("Высокий", model.KindInitialExam, `Запись`, 80),
	)
	secs := e.Partition("Запись осмотра от 25.04")
	if len(secs) != 1 {
		t.Fatalf("sections: got %d, want 1: %+v", len(secs), secs)
	}
	if secs[0].Label != "Высокий" {
		t.Errorf("label = %q, want higher-priority rule", secs[0].Label)
	}
}

func TestPartition_ProximityWindowIsRunes(t *testing.T) {
	// Starts one rune apart must collapse even in Cyrillic text, where
	// one rune is two bytes. The № trigger starts one rune before the
	// word trigger.
	e := NewEngine(
		NewRule("Символ", model.KindPlan, `№Запись`, 90),
		NewRule("Слово", model.KindDailyNote, `Запись`, 50),
	)
	secs := e.Partition("х №Запись дневника")
	if len(secs) != 1 {
		t.Fatalf("sections: got %d, want 1: %+v", len(secs), secs)
	}
	if secs[0].Label != "Символ" {
		t.Errorf("label = %q, want earlier higher-priority rule", secs[0].Label)
	}
}

func TestPartition_DistantCuesNotSuppressed(t *testing.T) {
	e := NewEngine(
		NewRule("А", model.KindTriage, `Триаж`, 80),
		NewRule("Б", model.KindECG, `ЭКГ`, 60),
	)
	secs := e.Partition("Триаж выполнен. ЭКГ снята.")
	if len(secs) != 2 {
		t.Fatalf("sections: got %d, want 2: %+v", len(secs), secs)
	}
}

func TestPartition_ShortSectionAccepted(t *testing.T) {
	// A cue inside another section's nominal range beyond the window
	// starts a new section, however short.
	text := "Триаж ЭКГ " + strings.Repeat("текст ", 10)
	secs := NewEngine().Partition(text)
	if len(secs) != 2 {
		t.Fatalf("sections: got %d, want 2: %+v", len(secs), secs)
	}
	if secs[0].End != secs[1].Start {
		t.Errorf("sections not contiguous: %+v", secs)
	}
}

func TestPartition_CaseInsensitive(t *testing.T) {
	secs := NewEngine().Partition("ТРИАЖ пациента")
	if len(secs) != 1 || secs[0].Kind != model.KindTriage {
		t.Fatalf("got %+v", secs)
	}
}
