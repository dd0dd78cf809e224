package fedloan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbrownhe/guibank/internal/plugin"
)

func testSheets() map[string][][]string {
	return map[string][][]string{
		"Sheet 1": {
			{"FedLoan Servicing"},
			{"Account History"},
			{"Effective Date", "Loan Type", "Transaction Type", "Amount", "Balance"},
			{"01/10/2020", "DIRECT STAFFORD", "PAYMENT", "-100.00", "5,000.00"},
			{"02/10/2020", "DIRECT STAFFORD", "PAYMENT", "-100.00", "4,900.00"},
			{""},
		},
	}
}

func TestParse(t *testing.T) {
	stmt, err := New().Parse(&plugin.Input{Sheets: testSheets()})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2020, 1, 10, 0, 0, 0, 0, time.UTC), stmt.StartDate)
	assert.Equal(t, time.Date(2020, 2, 10, 0, 0, 0, 0, time.UTC), stmt.EndDate)

	require.Len(t, stmt.Accounts, 1)
	acct := stmt.Accounts[0]
	assert.Equal(t, accountLabel, acct.AccountNum)

	// Debt is carried negative; the start balance backs the first payment
	// out of the first reported balance.
	assert.Equal(t, "-5100.00", acct.StartBalance.StringFixed(2))
	assert.Equal(t, "-4900.00", acct.EndBalance.StringFixed(2))

	require.Len(t, acct.Transactions, 2)
	assert.Equal(t, "100.00", acct.Transactions[0].Amount.StringFixed(2))
	assert.Equal(t, "DIRECT STAFFORD PAYMENT", acct.Transactions[0].Description)
	assert.True(t, acct.BalanceDiscrepancy().IsZero())
}

func TestParseColumnOrderIndependent(t *testing.T) {
	sheets := map[string][][]string{
		"Export": {
			{"Balance", "Amount", "Transaction Type", "Effective Date"},
			{"200.00", "-50.00", "PAYMENT", "03/05/2021"},
		},
	}

	stmt, err := New().Parse(&plugin.Input{Sheets: sheets})
	require.NoError(t, err)

	acct := stmt.Accounts[0]
	require.Len(t, acct.Transactions, 1)
	assert.Equal(t, "50.00", acct.Transactions[0].Amount.StringFixed(2))
	assert.Equal(t, "PAYMENT", acct.Transactions[0].Description)
	assert.Equal(t, "-200.00", acct.EndBalance.StringFixed(2))
}

func TestParseErrors(t *testing.T) {
	t.Run("no sheets", func(t *testing.T) {
		_, err := New().Parse(&plugin.Input{Text: "whatever"})
		assert.Error(t, err)
	})

	t.Run("no history header", func(t *testing.T) {
		sheets := map[string][][]string{"Sheet 1": {{"nothing", "useful"}}}
		_, err := New().Parse(&plugin.Input{Sheets: sheets})
		assert.Error(t, err)
	})

	t.Run("bad amount", func(t *testing.T) {
		sheets := testSheets()
		sheets["Sheet 1"][3][3] = "n/a"
		_, err := New().Parse(&plugin.Input{Sheets: sheets})
		assert.Error(t, err)
	})
}

func TestMetadataMatchesContract(t *testing.T) {
	meta := New().Metadata()
	assert.Equal(t, PluginID, meta.PluginID)
	assert.NoError(t, plugin.ValidateMetadata(meta))
}
