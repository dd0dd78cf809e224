// Package wellsfargo parses Wells Fargo checking and savings statements.
// The activity table drifts horizontally between pages, so column edges are
// measured from the header row of each page rather than assumed fixed.
package wellsfargo

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tbrownhe/guibank/internal/model"
	"github.com/tbrownhe/guibank/internal/plugin"
	"github.com/tbrownhe/guibank/internal/textparse"
)

// PluginID identifies this parser's artifact.
const PluginID = "pdf_wellsfargo"

var (
	endDateRe    = regexp.MustCompile(`[A-Z][a-z]+ \d{1,2}, \d{4}`)
	beginDateRe  = regexp.MustCompile(`[Bb]eginning balance on (\d{1,2}/\d{1,2})`)
	accountNumRe = regexp.MustCompile(`Account number:\s*(\d{4,})`)
	amountRe     = regexp.MustCompile(`-?[\d,]+\.\d{2}`)
)

// columnSlack widens measured column edges to absorb kerning jitter.
const columnSlack = 2.0

// Parser implements the plugin contract for Wells Fargo deposit statements.
type Parser struct {
	startDate time.Time
	endDate   time.Time
}

// New creates the parser.
func New() *Parser {
	return &Parser{}
}

// Metadata describes the statement type this parser handles.
func (p *Parser) Metadata() plugin.Metadata {
	return plugin.Metadata{
		PluginID:         PluginID,
		Version:          "0.1.1",
		Suffix:           ".pdf",
		Company:          "Wells Fargo",
		StatementType:    "Checking or Savings Account Statement",
		SearchExpression: "wells fargo everyday checking||wells fargo way2save",
		Instructions: "Login to https://www.wellsfargo.com/ and open" +
			" Statements & Documents for the deposit account. Download the" +
			" monthly statement PDF.",
	}
}

// Parse extracts one account from the statement.
func (p *Parser) Parse(input *plugin.Input) (*model.Statement, error) {
	if input.PDF == nil {
		return nil, fmt.Errorf("expected pdf input")
	}
	doc := input.PDF

	if err := p.parseDates(doc.Lines); err != nil {
		return nil, err
	}

	accountNum, err := parseAccountNumber(doc.Lines)
	if err != nil {
		return nil, err
	}

	startBal, endBal, err := parseBalances(doc.Lines)
	if err != nil {
		return nil, err
	}

	transactions, err := p.parseTransactions(doc)
	if err != nil {
		return nil, err
	}

	return &model.Statement{
		StartDate: p.startDate,
		EndDate:   p.endDate,
		Accounts: []model.Account{{
			AccountNum:   accountNum,
			StartBalance: startBal,
			EndBalance:   endBal,
			Transactions: transactions,
		}},
	}, nil
}

// parseDates reads the closing date from the cover ("March 31, 2021") and
// resolves the mm/dd beginning-balance date against the year preceding it.
func (p *Parser) parseDates(lines []string) error {
	_, endLine, err := textparse.FindLineRegex(lines, endDateRe)
	if err != nil {
		return fmt.Errorf("failed to find statement end date: %w", err)
	}
	end, err := time.Parse("January 2, 2006", endDateRe.FindString(endLine))
	if err != nil {
		return fmt.Errorf("failed to parse statement end date: %w", err)
	}

	_, beginLine, err := textparse.FindLineRegex(lines, beginDateRe)
	if err != nil {
		return fmt.Errorf("failed to find statement start date: %w", err)
	}
	start, err := textparse.AbsoluteDate(
		beginDateRe.FindStringSubmatch(beginLine)[1], end.AddDate(-1, 0, 1), end)
	if err != nil {
		return fmt.Errorf("failed to parse statement start date: %w", err)
	}

	p.startDate, p.endDate = start, end
	return nil
}

func parseAccountNumber(lines []string) (string, error) {
	_, line, err := textparse.FindLineRegex(lines, accountNumRe)
	if err != nil {
		return "", fmt.Errorf("failed to find account number: %w", err)
	}
	return accountNumRe.FindStringSubmatch(line)[1], nil
}

func parseBalances(lines []string) (start, end decimal.Decimal, err error) {
	start, err = balanceLine(lines, "Beginning balance")
	if err != nil {
		return start, end, err
	}
	end, err = balanceLine(lines, "Ending balance")
	if err != nil {
		return start, end, err
	}
	return start, end, nil
}

func balanceLine(lines []string, pattern string) (decimal.Decimal, error) {
	_, line, err := textparse.FindLineContains(lines, pattern, 0)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to find %q line: %w", pattern, err)
	}
	amt := amountRe.FindString(line)
	if amt == "" {
		return decimal.Zero, fmt.Errorf("no amount on %q line %q", pattern, line)
	}
	return textparse.ParseAmount(amt)
}

// activityColumns holds the right edges of the activity table's columns on
// one page, measured from the header row. The date and check-number cells
// are left-aligned; the three money columns are right-aligned under their
// headings.
type activityColumns struct {
	date         float64
	number       float64
	description  float64
	additions    float64
	subtractions float64
}

// tableCell is an index into the six-cell activity row.
type tableCell int

const (
	cellDate tableCell = iota
	cellNumber
	cellDescription
	cellAdditions
	cellSubtractions
	cellBalance
	cellCount
)

// findColumns locates the activity header row on a page:
//
//	Date  Number  Description  Additions  Subtractions  Ending daily balance
//
// and derives the column edges from the header word positions. Pages with no
// activity table return ok=false.
func findColumns(page *plugin.PDFPage) (cols activityColumns, headerRow int, ok bool) {
	for i := range page.Rows {
		row := &page.Rows[i]
		var date, number, desc, add, sub *plugin.PDFWord
		for j := range row.Words {
			w := &row.Words[j]
			switch w.Text {
			case "Date":
				date = w
			case "Number":
				number = w
			case "Description":
				desc = w
			case "Additions", "Deposits/":
				add = w
			case "Subtractions", "Withdrawals/":
				sub = w
			}
		}
		if date == nil || desc == nil || add == nil || sub == nil {
			continue
		}
		cols = activityColumns{
			date:         desc.X - columnSlack,
			description:  add.X - columnSlack,
			additions:    add.X + add.W + columnSlack,
			subtractions: sub.X + sub.W + columnSlack,
		}
		if number != nil {
			cols.date = number.X - columnSlack
			cols.number = desc.X - columnSlack
		} else {
			cols.number = cols.date
		}
		return cols, i, true
	}
	return activityColumns{}, 0, false
}

// cellFor assigns a word to its column by position. Money cells are
// right-aligned, so the word's right edge decides among them.
func (c *activityColumns) cellFor(w *plugin.PDFWord) tableCell {
	switch {
	case w.X < c.date:
		return cellDate
	case w.X < c.number:
		return cellNumber
	case w.X+w.W <= c.description:
		return cellDescription
	case w.X+w.W <= c.additions:
		return cellAdditions
	case w.X+w.W <= c.subtractions:
		return cellSubtractions
	default:
		return cellBalance
	}
}

var activityDateRe = regexp.MustCompile(`^\d{1,2}/\d{1,2}$`)

// parseTransactions walks the activity table page by page. Each page's
// columns are measured fresh. Continuation rows (description text with no
// date) fold into the preceding transaction.
func (p *Parser) parseTransactions(doc *plugin.PDFDocument) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for pageNum := range doc.Pages {
		page := &doc.Pages[pageNum]
		cols, headerRow, ok := findColumns(page)
		if !ok {
			continue
		}

		pageTxns, err := p.parsePage(page, cols, headerRow)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNum+1, err)
		}
		transactions = append(transactions, pageTxns...)
	}
	if len(transactions) == 0 {
		return nil, fmt.Errorf("no activity rows found")
	}
	return transactions, nil
}

func (p *Parser) parsePage(page *plugin.PDFPage, cols activityColumns, headerRow int) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for i := headerRow + 1; i < len(page.Rows); i++ {
		cells := splitRow(&page.Rows[i], &cols)

		if strings.HasPrefix(cells[cellDate], "Ending balance") ||
			strings.HasPrefix(cells[cellDate], "Totals") {
			break
		}

		if !activityDateRe.MatchString(cells[cellDate]) {
			// Continuation of the previous description.
			if cells[cellDescription] != "" && len(transactions) > 0 {
				last := &transactions[len(transactions)-1]
				last.Description += " " + cells[cellDescription]
			}
			continue
		}

		txn, err := p.parseRow(cells)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}
	return transactions, nil
}

func splitRow(row *plugin.PDFRow, cols *activityColumns) [cellCount]string {
	var cells [cellCount]string
	for i := range row.Words {
		w := &row.Words[i]
		cell := cols.cellFor(w)
		if cells[cell] == "" {
			cells[cell] = w.Text
		} else {
			cells[cell] += " " + w.Text
		}
	}
	return cells
}

func (p *Parser) parseRow(cells [cellCount]string) (model.Transaction, error) {
	date, err := textparse.AbsoluteDate(cells[cellDate], p.startDate, p.endDate)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("bad activity date %q: %w", cells[cellDate], err)
	}

	amount := decimal.Zero
	if cells[cellAdditions] != "" {
		amount, err = textparse.ParseAmount(cells[cellAdditions])
		if err != nil {
			return model.Transaction{}, fmt.Errorf("bad addition %q: %w", cells[cellAdditions], err)
		}
	}
	if cells[cellSubtractions] != "" {
		sub, subErr := textparse.ParseAmount(cells[cellSubtractions])
		if subErr != nil {
			return model.Transaction{}, fmt.Errorf("bad subtraction %q: %w", cells[cellSubtractions], subErr)
		}
		amount = amount.Sub(sub)
	}

	desc := cells[cellDescription]
	if cells[cellNumber] != "" && cells[cellNumber] != cells[cellDate] {
		desc = strings.TrimSpace("Check " + cells[cellNumber] + " " + desc)
	}

	return model.Transaction{
		TransactionDate: date,
		PostingDate:     date,
		Amount:          amount,
		Description:     desc,
	}, nil
}
