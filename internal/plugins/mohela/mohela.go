// Package mohela parses MOHELA student loan payment history exports. The
// export is CSV in name only: the server prepends an HTML doctype to the
// first header cell, which has to be stripped before the file parses. Each
// source row is one payment broken into principal, interest, and fee
// portions; rows are melted into separate transactions per portion so the
// ledger shows where each dollar went.
package mohela

import (
	"fmt"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/tbrownhe/guibank/internal/model"
	"github.com/tbrownhe/guibank/internal/plugin"
	"github.com/tbrownhe/guibank/internal/textparse"
)

// PluginID identifies this parser's artifact.
const PluginID = "csv_mohela"

// accountLabel stands in for an account number; the export carries none.
const accountLabel = "MOHELA Student Loan"

// historyRow is one row of the payment history export.
type historyRow struct {
	Date        string `csv:"Date"`
	Description string `csv:"Description"`
	Principal   string `csv:"Principal"`
	Interest    string `csv:"Interest"`
	Fees        string `csv:"Fees"`
	Total       string `csv:"Total"`
}

// Parser implements the plugin contract for MOHELA payment history.
type Parser struct{}

// New creates the parser.
func New() *Parser {
	return &Parser{}
}

// Metadata describes the statement type this parser handles. The search
// expression keys on the stray doctype since it reliably opens every export.
func (p *Parser) Metadata() plugin.Metadata {
	return plugin.Metadata{
		PluginID:         PluginID,
		Version:          "0.2.0",
		Suffix:           ".csv",
		Company:          "MOHELA",
		StatementType:    "Student Loan Payment History",
		SearchExpression: "html 4.0 transitional//en",
		Instructions: "Login to https://www.mohela.com/ and open Payment" +
			" History. Choose Download > CSV for the full history.",
	}
}

// Parse reads the repaired CSV and melts each payment row into per-portion
// transactions. Loan debt is carried negative: payments raise the balance
// toward zero, accrued interest and fees push it down.
func (p *Parser) Parse(input *plugin.Input) (*model.Statement, error) {
	if input.CSV == nil {
		return nil, fmt.Errorf("expected csv input")
	}

	var rows []historyRow
	if err := gocsv.UnmarshalString(repairHeader(input.CSV.Raw), &rows); err != nil {
		return nil, fmt.Errorf("failed to parse payment history: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("payment history is empty")
	}

	var (
		transactions []model.Transaction
		minDate      time.Time
		maxDate      time.Time
	)
	for _, row := range rows {
		date, err := time.Parse("01/02/2006", strings.TrimSpace(row.Date))
		if err != nil {
			return nil, fmt.Errorf("bad date %q: %w", row.Date, err)
		}
		if minDate.IsZero() || date.Before(minDate) {
			minDate = date
		}
		if date.After(maxDate) {
			maxDate = date
		}

		melted, err := meltRow(date, row)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, melted...)
	}

	var sum decimal.Decimal
	for _, txn := range transactions {
		sum = sum.Add(txn.Amount)
	}

	return &model.Statement{
		StartDate: minDate,
		EndDate:   maxDate,
		Accounts: []model.Account{{
			AccountNum:   accountLabel,
			StartBalance: decimal.Zero,
			EndBalance:   sum.Round(2),
			Transactions: transactions,
		}},
	}, nil
}

// repairHeader strips the HTML doctype glued onto the first header cell,
// leaving the cell as plain "Date". Clean files pass through unchanged.
func repairHeader(raw string) string {
	line, rest, _ := strings.Cut(raw, "\n")
	if !strings.HasPrefix(line, "<!") {
		return raw
	}
	cell, tail, _ := strings.Cut(line, ",")
	if i := strings.LastIndex(cell, ">"); i >= 0 {
		cell = cell[i+1:]
	}
	return cell + "," + tail + "\n" + rest
}

// meltRow splits one export row into transactions. The principal portion
// carries the row's description; interest and fee portions are labeled so
// they stay distinguishable after dedup hashing.
func meltRow(date time.Time, row historyRow) ([]model.Transaction, error) {
	desc := strings.TrimSpace(row.Description)

	portions := []struct {
		value  string
		label  string
		negate bool
	}{
		{row.Principal, desc, false},
		{row.Interest, desc + " INTEREST", true},
		{row.Fees, desc + " FEES", true},
	}

	var transactions []model.Transaction
	for _, portion := range portions {
		value := strings.TrimSpace(portion.value)
		if value == "" {
			continue
		}
		amount, err := textparse.ParseAmount(value)
		if err != nil {
			return nil, fmt.Errorf("bad amount %q on %s: %w", portion.value, row.Date, err)
		}
		if amount.IsZero() {
			continue
		}
		if portion.negate {
			amount = amount.Neg()
		}
		transactions = append(transactions, model.Transaction{
			TransactionDate: date,
			PostingDate:     date,
			Amount:          amount,
			Description:     portion.label,
		})
	}
	return transactions, nil
}
