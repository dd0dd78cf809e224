// Package ofx parses OFX and QFX downloads. Unlike the PDF parsers this one
// reads a machine format, but banks still emit sloppy SGML, so the raw bytes
// are repaired before handing them to ofxgo. Bank and credit card statements
// in one file become separate accounts.
package ofx

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
	"github.com/tbrownhe/guibank/internal/model"
	"github.com/tbrownhe/guibank/internal/plugin"
)

// PluginID identifies this parser's artifact.
const PluginID = "ofx_generic"

var (
	severityRe = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	openTagRe  = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Parser implements the plugin contract for OFX/QFX downloads.
type Parser struct{}

// New creates the parser.
func New() *Parser {
	return &Parser{}
}

// Metadata describes the statement type this parser handles. It matches any
// institution's OFX download, so it should sort after more specific plugins.
func (p *Parser) Metadata() plugin.Metadata {
	return plugin.Metadata{
		PluginID:         PluginID,
		Version:          "0.3.0",
		Suffix:           ".ofx",
		Company:          "Generic OFX",
		StatementType:    "OFX/QFX Account Download",
		SearchExpression: "ofxheader||<ofx>",
		Instructions: "Use your bank's Download or Export feature and choose" +
			" the OFX, QFX, or Quicken format.",
	}
}

// Parse repairs and decodes the download, producing one account per bank or
// card statement in the file.
func (p *Parser) Parse(input *plugin.Input) (*model.Statement, error) {
	if len(input.Raw) == 0 {
		return nil, fmt.Errorf("expected raw ofx input")
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocess(string(input.Raw))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ofx: %w", err)
	}

	stmt := &model.Statement{}
	for _, msg := range resp.Bank {
		if bank, ok := msg.(*ofxgo.StatementResponse); ok {
			acct, acctErr := convertStatement(
				string(bank.BankAcctFrom.AcctID), bank.BankTranList, bank.BalAmt, stmt)
			if acctErr != nil {
				return nil, acctErr
			}
			stmt.Accounts = append(stmt.Accounts, acct)
		}
	}
	for _, msg := range resp.CreditCard {
		if card, ok := msg.(*ofxgo.CCStatementResponse); ok {
			acct, acctErr := convertStatement(
				string(card.CCAcctFrom.AcctID), card.BankTranList, card.BalAmt, stmt)
			if acctErr != nil {
				return nil, acctErr
			}
			stmt.Accounts = append(stmt.Accounts, acct)
		}
	}

	if len(stmt.Accounts) == 0 {
		return nil, fmt.Errorf("no bank or credit card statements in file")
	}
	return stmt, nil
}

// preprocess fixes the formatting defects banks commonly ship: leading blank
// lines before the header, mixed-case SEVERITY values, and SGML opening tags
// missing their closing bracket.
func preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRe.ReplaceAllStringFunc(content, strings.ToUpper)
	content = openTagRe.ReplaceAllString(content, "$1>")
	return content
}

// convertStatement builds one account from a transaction list and its ledger
// balance, widening the enclosing statement's date range as it goes. The
// start balance is recovered by backing the transaction sum out of the
// ledger balance.
func convertStatement(accountNum string, list *ofxgo.TransactionList, ledgerBal ofxgo.Amount, stmt *model.Statement) (model.Account, error) {
	if list == nil {
		return model.Account{}, fmt.Errorf("account %s: no transaction list", accountNum)
	}

	endBal, err := ratToDecimal(&ledgerBal.Rat)
	if err != nil {
		return model.Account{}, fmt.Errorf("account %s: bad ledger balance: %w", accountNum, err)
	}

	var (
		transactions []model.Transaction
		sum          decimal.Decimal
	)
	for _, ofxTxn := range list.Transactions {
		amount, amtErr := ratToDecimal(&ofxTxn.TrnAmt.Rat)
		if amtErr != nil {
			return model.Account{}, fmt.Errorf("account %s: bad amount for %s: %w", accountNum, ofxTxn.FiTID, amtErr)
		}
		sum = sum.Add(amount)
		transactions = append(transactions, model.Transaction{
			TransactionDate: dateOnly(ofxTxn.DtPosted.Time),
			PostingDate:     dateOnly(ofxTxn.DtPosted.Time),
			Amount:          amount,
			Description:     describe(&ofxTxn),
		})
	}

	widenRange(stmt, dateOnly(list.DtStart.Time), dateOnly(list.DtEnd.Time))

	return model.Account{
		AccountNum:   accountNum,
		StartBalance: endBal.Sub(sum).Round(2),
		EndBalance:   endBal,
		Transactions: transactions,
	}, nil
}

// describe prefers the payee name over the raw NAME field, falling back to
// the memo when NAME is missing.
func describe(txn *ofxgo.Transaction) string {
	if txn.Payee != nil && txn.Payee.Name != "" {
		return strings.TrimSpace(string(txn.Payee.Name))
	}
	if txn.Name != "" {
		return strings.TrimSpace(string(txn.Name))
	}
	return strings.TrimSpace(string(txn.Memo))
}

func ratToDecimal(r *big.Rat) (decimal.Decimal, error) {
	return decimal.NewFromString(r.FloatString(2))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func widenRange(stmt *model.Statement, start, end time.Time) {
	if stmt.StartDate.IsZero() || start.Before(stmt.StartDate) {
		stmt.StartDate = start
	}
	if end.After(stmt.EndDate) {
		stmt.EndDate = end
	}
}
