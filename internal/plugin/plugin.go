// Package plugin defines the contract every statement parsing implementation
// satisfies: a metadata block describing the statement type it handles and a
// single Parse capability that turns extracted document content into a
// Statement. Institutions share nothing beyond this contract.
package plugin

import (
	"github.com/tbrownhe/guibank/internal/common"
	"github.com/tbrownhe/guibank/internal/model"
)

// Metadata describes a parsing implementation. Every field is required;
// a plugin with any blank field is rejected at load time.
type Metadata struct {
	PluginID         string
	Version          string
	Suffix           string
	Company          string
	StatementType    string
	SearchExpression string
	Instructions     string
}

// Plugin is the single capability all parsing implementations expose.
type Plugin interface {
	Metadata() Metadata
	Parse(input *Input) (*model.Statement, error)
}

// Input carries the flat text used for plugin matching plus the richer
// format-specific payload the matched plugin actually consumes. Exactly one
// of the format fields is populated, according to the file suffix.
type Input struct {
	// Text is the whole document flattened to plain text.
	Text string

	PDF    *PDFDocument
	CSV    *CSVTable
	Sheets map[string][][]string
	Raw    []byte
}

// PDFDocument is the text layer extracted from a page-layout document.
type PDFDocument struct {
	// Lines are all non-blank rows across all pages, whitespace-collapsed.
	Lines []string
	Pages []PDFPage
}

// PDFPage keeps per-page rows with horizontal word positions, for plugins
// whose table geometry must be recomputed page by page.
type PDFPage struct {
	Rows []PDFRow
}

// PDFRow is one visual row of words, ordered left to right.
type PDFRow struct {
	Words []PDFWord
}

// PDFWord is a positioned text fragment.
type PDFWord struct {
	Text string
	X    float64
	W    float64
}

// Line joins the row's words into a single cleaned line.
func (r PDFRow) Line() string {
	parts := make([]string, 0, len(r.Words))
	for _, w := range r.Words {
		parts = append(parts, w.Text)
	}
	return joinWords(parts)
}

// CSVTable is the raw cell array of a delimited text file. Raw preserves the
// original file text for plugins that re-read it with their own mapping.
type CSVTable struct {
	Records [][]string
	Raw     string
}

// ValidateMetadata enforces the plugin metadata contract: every field
// non-empty. Violations are load-time errors, never runtime surprises.
func ValidateMetadata(meta Metadata) error {
	var missing []string
	for _, field := range []struct {
		name  string
		value string
	}{
		{"plugin_id", meta.PluginID},
		{"version", meta.Version},
		{"suffix", meta.Suffix},
		{"company", meta.Company},
		{"statement_type", meta.StatementType},
		{"search_expression", meta.SearchExpression},
		{"instructions", meta.Instructions},
	} {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return &common.ContractViolationError{PluginID: meta.PluginID, Missing: missing}
	}
	return nil
}

func joinWords(parts []string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}
