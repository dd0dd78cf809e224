package router

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/tbrownhe/guibank/internal/plugin"
)

// readCSV loads a delimited text file both as the raw 2-D cell array the
// plugins consume and as plain text for matching. Institutions disagree on
// column counts even within one file, so no per-record field validation
// happens here.
func readCSV(path string) (*plugin.Input, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	text := strings.TrimPrefix(string(raw), "\uFEFF")

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv %s: %w", path, err)
	}

	return &plugin.Input{
		Text: text,
		CSV:  &plugin.CSVTable{Records: records, Raw: text},
	}, nil
}
