// Package occubank parses Oregon Community Credit Union member statements.
// One document bundles the savings and checking products, so a statement
// yields two accounts split on their section header lines.
package occubank

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
const PluginID = "pdf_occubank"

const headerDate = "01/02/06"

var (
	fromRe      = regexp.MustCompile(`FROM (\d{2}/\d{2}/\d{2})`)
	toRe        = regexp.MustCompile(`TO (\d{2}/\d{2}/\d{2})`)
	leadingDate = regexp.MustCompile(`^\d{2}/\d{2}\s`)
)

// Parser implements the plugin contract for OCCU member statements.
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
		Company:          "Oregon Community Credit Union",
		StatementType:    "Member Account Statement",
		SearchExpression: "member statement&&oregon community credit union",
		Instructions: "Login to https://www.myoccu.org/, then navigate to" +
			" Accounts > eDocuments > Statements. Select a monthly member" +
			" statement and save the PDF.",
	}
}

// Parse extracts the statement date range and both account sections.
func (p *Parser) Parse(input *plugin.Input) (*model.Statement, error) {
	if input.PDF == nil {
		return nil, fmt.Errorf("expected pdf input")
	}
	lines := input.PDF.Lines

	if err := p.parseDates(lines); err != nil {
		return nil, err
	}

	accounts, err := p.extractAccounts(lines)
	if err != nil {
		return nil, err
	}

	return &model.Statement{
		StartDate: p.startDate,
		EndDate:   p.endDate,
		Accounts:  accounts,
	}, nil
}

// parseDates reads the FROM/TO header lines:
//
//	MEMBER STATEMENT
//	FROM 03/01/21
//	TO 03/31/21
func (p *Parser) parseDates(lines []string) error {
	_, fromLine, err := textparse.FindLineRegex(lines, fromRe)
	if err != nil {
		return fmt.Errorf("failed to find statement start date: %w", err)
	}
	_, toLine, err := textparse.FindLineRegex(lines, toRe)
	if err != nil {
		return fmt.Errorf("failed to find statement end date: %w", err)
	}

	start, err := time.Parse(headerDate, fromRe.FindStringSubmatch(fromLine)[1])
	if err != nil {
		return fmt.Errorf("failed to parse statement start date: %w", err)
	}
	end, err := time.Parse(headerDate, toRe.FindStringSubmatch(toLine)[1])
	if err != nil {
		return fmt.Errorf("failed to parse statement end date: %w", err)
	}

	p.startDate, p.endDate = start, end
	return nil
}

// extractAccounts splits the statement into the savings and checking
// sections. A personal credit line or other loan section may follow the
// checking section and is excluded; loan products have their own statements.
func (p *Parser) extractAccounts(lines []string) ([]model.Account, error) {
	iSav, savLine, err := textparse.FindLineContains(lines, "PRIMARY SAVINGS", 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find savings section: %w", err)
	}
	iChk, chkLine, err := textparse.FindLineContains(lines, "REMARKABLE CHECKING", iSav+1)
	if err != nil {
		return nil, fmt.Errorf("failed to find checking section: %w", err)
	}

	iMax := len(lines)
	if i, _, findErr := textparse.FindLineStartsWith(lines, "XXXXX", iChk+1); findErr == nil && i < iMax {
		iMax = i
	}
	if i, _, findErr := textparse.FindLineContains(lines, "PERSONAL CREDIT LINE", iChk+1); findErr == nil && i < iMax {
		iMax = i
	}

	sections := []struct {
		accountNum string
		lines      []string
	}{
		{strings.Fields(savLine)[0], lines[iSav:iChk]},
		{strings.Fields(chkLine)[0], lines[iChk:iMax]},
	}

	accounts := make([]model.Account, 0, len(sections))
	for _, section := range sections {
		acct, acctErr := p.extractAccount(section.accountNum, section.lines)
		if acctErr != nil {
			return nil, fmt.Errorf("account %s: %w", section.accountNum, acctErr)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

func (p *Parser) extractAccount(accountNum string, lines []string) (model.Account, error) {
	start, end, err := sectionBalances(lines)
	if err != nil {
		return model.Account{}, err
	}

	transactions, err := p.parseTransactions(lines)
	if err != nil {
		return model.Account{}, err
	}

	return model.Account{
		AccountNum:   accountNum,
		StartBalance: start,
		EndBalance:   end,
		Transactions: transactions,
	}, nil
}

// sectionBalances pulls the dotted-leader balance lines:
//
//	Previous Balance........................... $1,234.56
//	Ending Balance............................. $987.65
func sectionBalances(lines []string) (start, end decimal.Decimal, err error) {
	for i, pattern := range []string{"Previous Balance", "Ending Balance"} {
		_, line, findErr := textparse.FindLineContains(lines, pattern, 0)
		if findErr != nil {
			return start, end, fmt.Errorf("failed to find %q: %w", pattern, findErr)
		}
		words := strings.Fields(line)
		bal, parseErr := textparse.ParseAmount(words[len(words)-1])
		if parseErr != nil {
			return start, end, fmt.Errorf("failed to parse %q balance: %w", pattern, parseErr)
		}
		if i == 0 {
			start = bal
		} else {
			end = bal
		}
	}
	return start, end, nil
}

// parseTransactions keeps lines with a leading mm/dd date whose last two
// words are both dollar amounts (amount, running balance). Subtractions
// print with a trailing minus sign.
func (p *Parser) parseTransactions(lines []string) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for _, line := range lines {
		if !leadingDate.MatchString(line) {
			continue
		}
		words := strings.Fields(line)
		if len(words) < 3 || !strings.Contains(words[len(words)-2], "$") || !strings.Contains(words[len(words)-1], "$") {
			continue
		}

		date, err := textparse.AbsoluteDate(words[0], p.startDate, p.endDate)
		if err != nil {
			return nil, fmt.Errorf("bad transaction date in %q: %w", line, err)
		}
		amount, err := textparse.ParseAmount(words[len(words)-2])
		if err != nil {
			return nil, fmt.Errorf("bad amount in %q: %w", line, err)
		}

		desc := words[1 : len(words)-2]
		if len(desc) > 0 && desc[0] == "#" {
			desc = desc[1:]
		}

		transactions = append(transactions, model.Transaction{
			TransactionDate: date,
			PostingDate:     date,
			Amount:          amount,
			Description:     strings.Join(desc, " "),
		})
	}
	return transactions, nil
}
