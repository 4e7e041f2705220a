package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/medqc/fault"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFromFile_Text(t *testing.T) {
	path := writeFile(t, "chart.txt", "Триаж пациента.\r\nДиагноз: I10\r\n")
	res, err := FromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Pages) != 1 {
		t.Fatalf("pages: got %d, want 1", len(res.Pages))
	}
	if strings.Contains(res.Pages[0], "\r") {
		t.Errorf("line endings not normalized: %q", res.Pages[0])
	}
	if !strings.Contains(res.Pages[0], "Диагноз: I10") {
		t.Errorf("content lost: %q", res.Pages[0])
	}
	if res.Producer != "text" {
		t.Errorf("producer = %q", res.Producer)
	}
}

func TestFromFile_ExtensionCaseInsensitive(t *testing.T) {
	path := writeFile(t, "chart.TXT", "Эпикриз")
	if _, err := FromFile(path); err != nil {
		t.Fatalf("uppercase extension rejected: %v", err)
	}
}

func TestFromFile_Unsupported(t *testing.T) {
	path := writeFile(t, "chart.odt", "данные")
	_, err := FromFile(path)
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if code, ok := fault.CodeOf(err); !ok || code != fault.Unsupported {
		t.Errorf("code = %v, %v; want UNSUPPORTED", code, ok)
	}
}

func TestTextFromStream_Operators(t *testing.T) {
	stream := "BT\n" +
		"(Hello) Tj\n" +
		"0 -14 Td\n" +
		"[(Wo) -120 (rld)] TJ\n" +
		"T*\n" +
		"(Next\\040line) '\n" +
		"ET"
	got := textFromStream(stream)
	if !strings.Contains(got, "Hello World") {
		t.Errorf("Tj/TJ text missing: %q", got)
	}
	if !strings.Contains(got, "Next line") {
		t.Errorf("octal escape or ' operator mishandled: %q", got)
	}
	if !strings.Contains(got, "\n") {
		t.Errorf("line structure lost: %q", got)
	}
}

func TestDecodePDFString(t *testing.T) {
	cases := map[string]string{
		`plain`:        "plain",
		`a\(b\)c`:      "a(b)c",
		`tab\there`:    "tab\there",
		`oct\101l`:     "octAl",
		`back\\slash`:  `back\slash`,
		`newline\nend`: "newline\nend",
	}
	for in, want := range cases {
		if got := decodePDFString(in); got != want {
			t.Errorf("decode %q = %q, want %q", in, got, want)
		}
	}
}
