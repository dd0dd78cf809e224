// Package citi parses Citi credit card statements. The activity table shows
// a sale date and a post date per purchase, and long descriptions wrap onto
// rows that carry the amount alone, so each dated row may need to look ahead
// a few rows for its amount. Marginalia printed right of the Amount column
// is cut off by position before any text parsing.
package citi

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
const PluginID = "pdf_citi"

var (
	periodRe    = regexp.MustCompile(`Billing Period:\s*(\d{2}/\d{2}/\d{2})-(\d{2}/\d{2}/\d{2})`)
	shortDateRe = regexp.MustCompile(`^\d{2}/\d{2}$`)
	amountRe    = regexp.MustCompile(`-?\$[\d,]+\.\d{2}`)
)

// amountLookahead bounds how many wrapped rows to scan for a purchase's
// amount before giving up on the row.
const amountLookahead = 5

const columnSlack = 2.0

// Parser implements the plugin contract for Citi card statements.
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
		Version:          "0.1.0",
		Suffix:           ".pdf",
		Company:          "Citibank",
		StatementType:    "Credit Card Statement",
		SearchExpression: "www.citicards.com&&billing period",
		Instructions: "Login to https://www.citi.com/ and open Statements" +
			" for the card. Download the monthly statement PDF.",
	}
}

// Parse extracts the single card account from the statement. Card balances
// are printed as amounts owed; they are negated here so that debt is
// negative and payments raise the balance toward zero.
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

	startBal, err := balanceLine(doc.Lines, "Previous balance")
	if err != nil {
		return nil, err
	}
	endBal, err := balanceLine(doc.Lines, "New balance")
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

// parseDates reads "Billing Period: 12/04/20-01/05/21".
func (p *Parser) parseDates(lines []string) error {
	_, line, err := textparse.FindLineRegex(lines, periodRe)
	if err != nil {
		return fmt.Errorf("failed to find billing period: %w", err)
	}
	m := periodRe.FindStringSubmatch(line)

	start, err := time.Parse("01/02/06", m[1])
	if err != nil {
		return fmt.Errorf("failed to parse billing period start: %w", err)
	}
	end, err := time.Parse("01/02/06", m[2])
	if err != nil {
		return fmt.Errorf("failed to parse billing period end: %w", err)
	}

	p.startDate, p.endDate = start, end
	return nil
}

func parseAccountNumber(lines []string) (string, error) {
	_, line, err := textparse.FindLineContains(lines, "Account number ending in:", 0)
	if err != nil {
		return "", fmt.Errorf("failed to find account number: %w", err)
	}
	words := strings.Fields(line)
	return words[len(words)-1], nil
}

func balanceLine(lines []string, pattern string) (bal decimal.Decimal, err error) {
	_, line, err := textparse.FindLineContains(lines, pattern, 0)
	if err != nil {
		return bal, fmt.Errorf("failed to find %q line: %w", pattern, err)
	}
	amt := amountRe.FindString(line)
	if amt == "" {
		return bal, fmt.Errorf("no amount on %q line %q", pattern, line)
	}
	parsed, err := textparse.ParseAmount(amt)
	if err != nil {
		return bal, err
	}
	return parsed.Neg(), nil
}

// amountBound locates the Amount column header on a page and returns the
// right edge of the column. Words beyond it (rewards footnotes, section
// rules) are discarded. Pages without an activity header return ok=false.
func amountBound(page *plugin.PDFPage) (bound float64, ok bool) {
	for i := range page.Rows {
		row := &page.Rows[i]
		var sawDate, sawDesc bool
		var amount *plugin.PDFWord
		for j := range row.Words {
			w := &row.Words[j]
			switch strings.ToLower(w.Text) {
			case "date":
				sawDate = true
			case "description":
				sawDesc = true
			case "amount":
				amount = w
			}
		}
		if sawDate && sawDesc && amount != nil {
			return amount.X + amount.W + columnSlack, true
		}
	}
	return 0, false
}

// rowWithin rebuilds a row's text from the words left of the column bound.
func rowWithin(row *plugin.PDFRow, bound float64) string {
	var b strings.Builder
	for i := range row.Words {
		w := &row.Words[i]
		if w.X+w.W > bound {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w.Text)
	}
	return b.String()
}

func (p *Parser) parseTransactions(doc *plugin.PDFDocument) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for pageNum := range doc.Pages {
		page := &doc.Pages[pageNum]
		bound, ok := amountBound(page)
		if !ok {
			continue
		}

		rows := make([]string, 0, len(page.Rows))
		for i := range page.Rows {
			rows = append(rows, rowWithin(&page.Rows[i], bound))
		}

		pageTxns, err := p.parsePage(rows)
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

// parsePage walks truncated rows. A transaction starts at a row whose first
// word is mm/dd; its amount is on that row or within the next few wrapped
// rows, none of which may themselves start a transaction.
func (p *Parser) parsePage(rows []string) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for i, row := range rows {
		words := strings.Fields(row)
		if len(words) == 0 || !shortDateRe.MatchString(words[0]) {
			continue
		}

		amt, descTail := findAmount(rows, i)
		if amt == "" {
			continue
		}

		txn, err := p.parseRow(words, amt, descTail)
		if err != nil {
			return nil, fmt.Errorf("row %q: %w", row, err)
		}
		transactions = append(transactions, txn)
	}
	return transactions, nil
}

// findAmount scans from the dated row forward for the first dollar amount,
// stopping if a new dated row begins. Wrapped description text collected
// along the way is returned for appending.
func findAmount(rows []string, start int) (amount string, descTail []string) {
	for i := start; i < len(rows) && i < start+amountLookahead; i++ {
		row := rows[i]
		if i > start {
			words := strings.Fields(row)
			if len(words) > 0 && shortDateRe.MatchString(words[0]) {
				return "", nil
			}
		}
		if m := amountRe.FindString(row); m != "" {
			if i > start {
				descTail = append(descTail, strings.TrimSpace(amountRe.ReplaceAllString(row, "")))
			}
			return m, descTail
		}
		if i > start && strings.TrimSpace(row) != "" {
			descTail = append(descTail, strings.TrimSpace(row))
		}
	}
	return "", nil
}

// parseRow reads [saleDate [postDate] desc... [amount]]. Charges print
// positive on the statement and are stored negative; payments print with a
// leading minus and are stored positive.
func (p *Parser) parseRow(words []string, amt string, descTail []string) (model.Transaction, error) {
	saleDate, err := textparse.AbsoluteDate(words[0], p.startDate, p.endDate)
	if err != nil {
		return model.Transaction{}, err
	}

	rest := words[1:]
	postDate := saleDate
	if len(rest) > 0 && shortDateRe.MatchString(rest[0]) {
		postDate, err = textparse.AbsoluteDate(rest[0], p.startDate, p.endDate)
		if err != nil {
			return model.Transaction{}, err
		}
		rest = rest[1:]
	}

	amount, err := textparse.ParseAmount(amt)
	if err != nil {
		return model.Transaction{}, err
	}

	desc := make([]string, 0, len(rest)+len(descTail))
	for _, w := range rest {
		if w == amt {
			continue
		}
		desc = append(desc, w)
	}
	desc = append(desc, descTail...)

	return model.Transaction{
		TransactionDate: saleDate,
		PostingDate:     postDate,
		Amount:          amount.Neg(),
		Description:     strings.Join(desc, " "),
	}, nil
}
