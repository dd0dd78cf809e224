// Package fedloan parses FedLoan Servicing account history workbooks. The
// workbook has one sheet of history rows under a preamble; columns are found
// by header name since the export reorders them between revisions. Amounts
// and balances print as debt owed and are negated so loan debt is negative.
package fedloan

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tbrownhe/guibank/internal/model"
	"github.com/tbrownhe/guibank/internal/plugin"
	"github.com/tbrownhe/guibank/internal/textparse"
)

// PluginID identifies this parser's artifact.
const PluginID = "xlsx_fedloan"

// accountLabel stands in for an account number; the export carries none.
const accountLabel = "FedLoan Servicing"

var dateLayouts = []string{"01/02/2006", "1/2/2006", "2006-01-02", "01-02-06"}

// Parser implements the plugin contract for FedLoan account history.
type Parser struct{}

// New creates the parser.
func New() *Parser {
	return &Parser{}
}

// Metadata describes the statement type this parser handles.
func (p *Parser) Metadata() plugin.Metadata {
	return plugin.Metadata{
		PluginID:         PluginID,
		Version:          "0.1.0",
		Suffix:           ".xlsx",
		Company:          "FedLoan Servicing",
		StatementType:    "Student Loan Account History",
		SearchExpression: "fedloan servicing&&effective date",
		Instructions: "Login to https://myfedloan.org/ and open Account" +
			" History. Export the full history as an Excel workbook.",
	}
}

// Parse reads the first sheet containing a history header and builds one
// loan account from its rows.
func (p *Parser) Parse(input *plugin.Input) (*model.Statement, error) {
	if len(input.Sheets) == 0 {
		return nil, fmt.Errorf("expected xlsx input")
	}

	rows, cols, err := findHistory(input.Sheets)
	if err != nil {
		return nil, err
	}

	transactions, balances, span, err := parseRows(rows, cols)
	if err != nil {
		return nil, err
	}
	if len(transactions) == 0 {
		return nil, fmt.Errorf("no history rows found")
	}

	// The first balance already includes the first amount; back it out to
	// recover the balance before the history began.
	startBal := balances[0].Sub(transactions[0].Amount).Round(2)

	return &model.Statement{
		StartDate: span[0],
		EndDate:   span[1],
		Accounts: []model.Account{{
			AccountNum:   accountLabel,
			StartBalance: startBal,
			EndBalance:   balances[len(balances)-1],
			Transactions: transactions,
		}},
	}, nil
}

// historyColumns maps the headers this parser needs to column indices.
type historyColumns struct {
	date     int
	loanType int
	tranType int
	amount   int
	balance  int
}

// findHistory scans every sheet for a row holding the history headers and
// returns the rows below it plus the resolved column layout.
func findHistory(sheets map[string][][]string) ([][]string, historyColumns, error) {
	for _, rows := range sheets {
		for i, row := range rows {
			cols, ok := matchHeader(row)
			if ok {
				return rows[i+1:], cols, nil
			}
		}
	}
	return nil, historyColumns{}, fmt.Errorf("no history header found in any sheet")
}

func matchHeader(row []string) (historyColumns, bool) {
	cols := historyColumns{date: -1, loanType: -1, tranType: -1, amount: -1, balance: -1}
	for i, cell := range row {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "effective date":
			cols.date = i
		case "loan type":
			cols.loanType = i
		case "transaction type":
			cols.tranType = i
		case "amount":
			cols.amount = i
		case "balance":
			cols.balance = i
		}
	}
	ok := cols.date >= 0 && cols.tranType >= 0 && cols.amount >= 0 && cols.balance >= 0
	return cols, ok
}

func parseRows(rows [][]string, cols historyColumns) ([]model.Transaction, []decimal.Decimal, [2]time.Time, error) {
	var (
		transactions []model.Transaction
		balances     []decimal.Decimal
		span         [2]time.Time
	)
	for _, row := range rows {
		if cols.balance >= len(row) || strings.TrimSpace(row[cols.date]) == "" {
			continue
		}

		date, err := parseDate(row[cols.date])
		if err != nil {
			return nil, nil, span, err
		}
		amount, err := textparse.ParseAmount(row[cols.amount])
		if err != nil {
			return nil, nil, span, fmt.Errorf("bad amount %q on %s: %w", row[cols.amount], row[cols.date], err)
		}
		balance, err := textparse.ParseAmount(row[cols.balance])
		if err != nil {
			return nil, nil, span, fmt.Errorf("bad balance %q on %s: %w", row[cols.balance], row[cols.date], err)
		}

		desc := strings.TrimSpace(row[cols.tranType])
		if cols.loanType >= 0 && cols.loanType < len(row) {
			if lt := strings.TrimSpace(row[cols.loanType]); lt != "" {
				desc = lt + " " + desc
			}
		}

		if span[0].IsZero() || date.Before(span[0]) {
			span[0] = date
		}
		if date.After(span[1]) {
			span[1] = date
		}

		transactions = append(transactions, model.Transaction{
			TransactionDate: date,
			PostingDate:     date,
			Amount:          amount.Neg(),
			Description:     desc,
		})
		balances = append(balances, balance.Neg())
	}
	return transactions, balances, span, nil
}

func parseDate(cell string) (time.Time, error) {
	cell = strings.TrimSpace(cell)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", cell)
}
