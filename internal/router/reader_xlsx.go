package router

import (
	"fmt"
	"strings"

	"github.com/tbrownhe/guibank/internal/plugin"
	"github.com/xuri/excelize/v2"
)

// readXLSX loads every worksheet into a sheet-name keyed row map, dropping
// fully blank rows, and flattens the whole workbook to plain text for
// matching.
func readXLSX(path string) (*plugin.Input, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := make(map[string][][]string)
	var textParts []string

	for _, name := range f.GetSheetList() {
		rows, rowErr := f.GetRows(name)
		if rowErr != nil {
			return nil, fmt.Errorf("failed to read sheet %s of %s: %w", name, path, rowErr)
		}

		var clean [][]string
		for _, row := range rows {
			if rowHasContent(row) {
				clean = append(clean, row)
				textParts = append(textParts, strings.Join(row, ", "))
			}
		}
		sheets[name] = clean
	}

	return &plugin.Input{
		Text:   strings.Join(textParts, "\n"),
		Sheets: sheets,
	}, nil
}

func rowHasContent(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return true
		}
	}
	return false
}
