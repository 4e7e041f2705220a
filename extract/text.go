package extract

import (
	"os"
	"strings"
)

// fromText reads a plain-text file as a single page, normalizing line
// endings to \n.
func fromText(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return Result{Pages: []string{text}, Producer: "text"}, nil
}
