package docmodel

import "testing"

func TestCompose_Offsets(t *testing.T) {
	pages := []string{"первая страница", "вторая", "", "третья стр."}
	txt := Compose(pages)

	if len(txt.Pages) != len(pages) {
		t.Fatalf("pages: got %d, want %d", len(txt.Pages), len(pages))
	}
	for i, p := range txt.Pages {
		if p.Number != i {
			t.Errorf("page %d: number = %d", i, p.Number)
		}
		if got := txt.Full[p.Start:p.End]; got != pages[i] {
			t.Errorf("page %d: slice = %q, want %q", i, got, pages[i])
		}
	}
	// Contiguity: one separator between consecutive pages.
	for i := 1; i < len(txt.Pages); i++ {
		if txt.Pages[i].Start != txt.Pages[i-1].End+1 {
			t.Errorf("page %d: start %d, prev end %d", i, txt.Pages[i].Start, txt.Pages[i-1].End)
		}
	}
	if last := txt.Pages[len(txt.Pages)-1]; last.End != len(txt.Full) {
		t.Errorf("last end = %d, len = %d", last.End, len(txt.Full))
	}
}

func TestCompose_Empty(t *testing.T) {
	txt := Compose(nil)
	if txt.Full != "" {
		t.Errorf("full = %q", txt.Full)
	}
	if len(txt.Pages) != 0 {
		t.Errorf("pages = %d", len(txt.Pages))
	}
	if !txt.Scanned {
		t.Error("empty document should be flagged scanned")
	}
}

func TestCompose_ScannedHeuristic(t *testing.T) {
	cases := []struct {
		name    string
		pages   []string
		scanned bool
	}{
		{"whitespace only", []string{"   \n\t ", "  \n"}, true},
		{"nine chars", []string{"абвгд", "еж з"}, true},
		{"ten chars", []string{"абвгд", "ежзик"}, false},
		{"native text", []string{"Осмотр при поступлении: состояние удовлетворительное."}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Compose(tc.pages).Scanned; got != tc.scanned {
				t.Errorf("scanned = %v, want %v", got, tc.scanned)
			}
		})
	}
}

func TestRuneOffset(t *testing.T) {
	s := "аб cd"
	// "а"=2 bytes, "б"=2 bytes, space, "c", "d".
	if got := RuneOffset(s, 4); got != 2 {
		t.Errorf("RuneOffset(4) = %d, want 2", got)
	}
	if got := RuneOffset(s, len(s)); got != 5 {
		t.Errorf("RuneOffset(len) = %d, want 5", got)
	}
	if got := RuneOffset(s, 100); got != 5 {
		t.Errorf("RuneOffset(past end) = %d, want 5", got)
	}
}
