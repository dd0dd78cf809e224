package wellsfargo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbrownhe/guibank/internal/plugin"
)

func word(text string, x, w float64) plugin.PDFWord {
	return plugin.PDFWord{Text: text, X: x, W: w}
}

func activityPage() plugin.PDFPage {
	return plugin.PDFPage{
		Rows: []plugin.PDFRow{
			{Words: []plugin.PDFWord{
				word("Transaction", 30, 70), word("history", 105, 40),
			}},
			{Words: []plugin.PDFWord{
				word("Date", 30, 22), word("Description", 80, 60),
				word("Additions", 300, 45), word("Subtractions", 380, 60),
				word("Ending", 480, 35), word("daily", 520, 25), word("balance", 550, 40),
			}},
			{Words: []plugin.PDFWord{
				word("3/10", 30, 22), word("DEPOSIT", 85, 45), word("50.00", 320, 25),
			}},
			{Words: []plugin.PDFWord{
				word("3/12", 30, 22), word("POS", 85, 22), word("PURCHASE", 112, 48),
				word("20.00", 400, 28),
			}},
			{Words: []plugin.PDFWord{
				// Wrapped description continues the previous row.
				word("CARD", 85, 28), word("1234", 118, 24),
			}},
			{Words: []plugin.PDFWord{
				word("Ending", 30, 35), word("balance", 70, 40), word("on", 115, 14),
				word("3/31", 134, 22), word("1,030.00", 550, 45),
			}},
		},
	}
}

func testDocument() *plugin.PDFDocument {
	return &plugin.PDFDocument{
		Lines: []string{
			"Wells Fargo Everyday Checking",
			"March 31, 2021",
			"Account number: 123456789",
			"Beginning balance on 3/1 1,000.00",
			"Ending balance on 3/31 1,030.00",
		},
		Pages: []plugin.PDFPage{activityPage()},
	}
}

func TestParse(t *testing.T) {
	stmt, err := New().Parse(&plugin.Input{PDF: testDocument()})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), stmt.StartDate)
	assert.Equal(t, time.Date(2021, 3, 31, 0, 0, 0, 0, time.UTC), stmt.EndDate)

	require.Len(t, stmt.Accounts, 1)
	acct := stmt.Accounts[0]
	assert.Equal(t, "123456789", acct.AccountNum)
	assert.Equal(t, "1000.00", acct.StartBalance.StringFixed(2))
	assert.Equal(t, "1030.00", acct.EndBalance.StringFixed(2))

	require.Len(t, acct.Transactions, 2)

	deposit := acct.Transactions[0]
	assert.Equal(t, time.Date(2021, 3, 10, 0, 0, 0, 0, time.UTC), deposit.PostingDate)
	assert.Equal(t, "50.00", deposit.Amount.StringFixed(2))
	assert.Equal(t, "DEPOSIT", deposit.Description)

	purchase := acct.Transactions[1]
	assert.Equal(t, "-20.00", purchase.Amount.StringFixed(2))
	assert.Equal(t, "POS PURCHASE CARD 1234", purchase.Description)

	assert.True(t, acct.BalanceDiscrepancy().IsZero())
}

// Column boundaries come from each page's own header row, so a second page
// whose table is shifted right still parses.
func TestParseShiftedSecondPage(t *testing.T) {
	shifted := plugin.PDFPage{
		Rows: []plugin.PDFRow{
			{Words: []plugin.PDFWord{
				word("Date", 60, 22), word("Description", 120, 60),
				word("Additions", 340, 45), word("Subtractions", 420, 60),
			}},
			{Words: []plugin.PDFWord{
				word("3/20", 60, 22), word("ATM", 125, 22), word("WITHDRAWAL", 152, 60),
				word("40.00", 440, 28),
			}},
		},
	}

	doc := testDocument()
	doc.Lines[4] = "Ending balance on 3/31 990.00"
	doc.Pages = append(doc.Pages, shifted)

	stmt, err := New().Parse(&plugin.Input{PDF: doc})
	require.NoError(t, err)

	acct := stmt.Accounts[0]
	require.Len(t, acct.Transactions, 3)
	withdrawal := acct.Transactions[2]
	assert.Equal(t, "-40.00", withdrawal.Amount.StringFixed(2))
	assert.Equal(t, "ATM WITHDRAWAL", withdrawal.Description)
	assert.True(t, acct.BalanceDiscrepancy().IsZero())
}

func TestParseErrors(t *testing.T) {
	t.Run("not a pdf input", func(t *testing.T) {
		_, err := New().Parse(&plugin.Input{Text: "whatever"})
		assert.Error(t, err)
	})

	t.Run("no activity table", func(t *testing.T) {
		doc := testDocument()
		doc.Pages = nil
		_, err := New().Parse(&plugin.Input{PDF: doc})
		assert.Error(t, err)
	})

	t.Run("missing account number", func(t *testing.T) {
		doc := testDocument()
		doc.Lines[2] = "Account: redacted"
		_, err := New().Parse(&plugin.Input{PDF: doc})
		assert.Error(t, err)
	})
}

func TestMetadataMatchesContract(t *testing.T) {
	meta := New().Metadata()
	assert.Equal(t, PluginID, meta.PluginID)
	assert.NoError(t, plugin.ValidateMetadata(meta))
}
