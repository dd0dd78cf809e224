package router

import (
	"fmt"
	"strings"

	"github.com/dslipak/pdf"
	"github.com/tbrownhe/guibank/internal/plugin"
)

// readPDF extracts the text layer of a page-layout document: cleaned lines
// for matching and label hunting, plus per-page positioned words for plugins
// that must recompute table geometry page by page. OCR is out of scope; a
// PDF without a text layer simply yields nothing to match.
func readPDF(path string) (*plugin.Input, error) {
	r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf %s: %w", path, err)
	}

	doc := &plugin.PDFDocument{}
	var lines []string

	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, rowErr := p.GetTextByRow()
		if rowErr != nil {
			return nil, fmt.Errorf("failed to extract text from page %d of %s: %w", i, path, rowErr)
		}

		page := plugin.PDFPage{}
		for _, row := range rows {
			words := mergeFragments(row.Content)
			if len(words) == 0 {
				continue
			}
			pdfRow := plugin.PDFRow{Words: words}
			page.Rows = append(page.Rows, pdfRow)
			lines = append(lines, pdfRow.Line())
		}
		doc.Pages = append(doc.Pages, page)
	}

	doc.Lines = lines
	return &plugin.Input{
		Text: strings.Join(lines, "\n"),
		PDF:  doc,
	}, nil
}

// mergeFragments joins adjacent text fragments into words. Extractors often
// emit sub-word runs; fragments separated by less than a fraction of the
// font size belong to the same word.
func mergeFragments(frags []pdf.Text) []plugin.PDFWord {
	var words []plugin.PDFWord
	var cur *plugin.PDFWord
	var curEnd float64

	for _, f := range frags {
		s := f.S
		if strings.TrimSpace(s) == "" {
			cur = nil
			continue
		}
		gap := f.X - curEnd
		maxGap := f.FontSize * 0.25
		if maxGap < 1.0 {
			maxGap = 1.0
		}
		if cur != nil && gap <= maxGap {
			cur.Text += s
			cur.W = f.X + f.W - cur.X
			curEnd = f.X + f.W
			continue
		}
		words = append(words, plugin.PDFWord{Text: s, X: f.X, W: f.W})
		cur = &words[len(words)-1]
		curEnd = f.X + f.W
	}

	for i := range words {
		words[i].Text = strings.TrimSpace(words[i].Text)
	}
	return words
}
