package router

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbrownhe/guibank/internal/common"
	"github.com/tbrownhe/guibank/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validStatement() *model.Statement {
	stmt := &model.Statement{
		StartDate: day(2021, 3, 1),
		EndDate:   day(2021, 3, 31),
		Accounts: []model.Account{{
			AccountNum:   "12345",
			StartBalance: decimal.NewFromFloat(100.00),
			EndBalance:   decimal.NewFromFloat(130.00),
			Transactions: []model.Transaction{
				{
					TransactionDate: day(2021, 3, 10),
					PostingDate:     day(2021, 3, 12),
					Amount:          decimal.NewFromFloat(50.00),
					Description:     "DEPOSIT",
				},
				{
					TransactionDate: day(2021, 3, 20),
					PostingDate:     day(2021, 3, 20),
					Amount:          decimal.NewFromFloat(-20.00),
					Description:     "GROCERIES",
				},
			},
		}},
	}
	Reconcile(stmt)
	return stmt
}

func TestValidateAccepts(t *testing.T) {
	assert.NoError(t, Validate(validStatement()))
}

func TestValidateCollectsAllViolations(t *testing.T) {
	stmt := validStatement()
	stmt.EndDate = day(2021, 2, 1)                                    // inverted range
	stmt.Accounts[0].AccountNum = ""                                  // missing number
	stmt.Accounts[0].Transactions[0].Description = ""                 // empty description
	stmt.Accounts[0].Transactions[1].PostingDate = day(2021, 6, 1)    // outside range
	stmt.Accounts[0].EndBalance = decimal.NewFromFloat(999.99)        // discrepancy

	err := Validate(stmt)
	require.Error(t, err)

	var sve *common.SchemaViolationError
	require.ErrorAs(t, err, &sve)
	assert.GreaterOrEqual(t, len(sve.Violations), 4)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Statement)
	}{
		{
			name:   "no accounts",
			mutate: func(s *model.Statement) { s.Accounts = nil },
		},
		{
			name:   "unset dates",
			mutate: func(s *model.Statement) { s.StartDate, s.EndDate = time.Time{}, time.Time{} },
		},
		{
			name: "zero posting date",
			mutate: func(s *model.Statement) {
				s.Accounts[0].Transactions[0].PostingDate = time.Time{}
			},
		},
		{
			name: "transaction date too far from posting date",
			mutate: func(s *model.Statement) {
				s.Accounts[0].Transactions[0].TransactionDate = day(2020, 12, 1)
			},
		},
		{
			name: "unreconciled balance",
			mutate: func(s *model.Statement) {
				s.Accounts[0].Transactions[0].Balance = decimal.NullDecimal{}
			},
		},
		{
			name: "balance discrepancy",
			mutate: func(s *model.Statement) {
				s.Accounts[0].EndBalance = decimal.NewFromFloat(130.01)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := validStatement()
			tt.mutate(stmt)

			err := Validate(stmt)
			var sve *common.SchemaViolationError
			assert.ErrorAs(t, err, &sve)
		})
	}
}

func TestReconcile(t *testing.T) {
	t.Run("fills running balances in date order", func(t *testing.T) {
		stmt := &model.Statement{
			StartDate: day(2021, 3, 1),
			EndDate:   day(2021, 3, 31),
			Accounts: []model.Account{{
				AccountNum:   "12345",
				StartBalance: decimal.NewFromFloat(100.00),
				EndBalance:   decimal.NewFromFloat(130.00),
				Transactions: []model.Transaction{
					// Deliberately out of order.
					{PostingDate: day(2021, 3, 20), Amount: decimal.NewFromFloat(-20.00), Description: "B"},
					{PostingDate: day(2021, 3, 12), Amount: decimal.NewFromFloat(50.00), Description: "A"},
				},
			}},
		}

		Reconcile(stmt)

		txns := stmt.Accounts[0].Transactions
		require.Equal(t, "A", txns[0].Description)
		require.True(t, txns[0].Balance.Valid)
		assert.Equal(t, "150.00", txns[0].Balance.Decimal.StringFixed(2))
		assert.Equal(t, "130.00", txns[1].Balance.Decimal.StringFixed(2))
	})

	t.Run("random transaction sequences reconcile and validate", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))

		for trial := 0; trial < 100; trial++ {
			count := 1 + rng.Intn(40)
			start := decimal.New(int64(rng.Intn(500_000)-250_000), -2)

			sum := decimal.Zero
			transactions := make([]model.Transaction, count)
			for i := range transactions {
				amount := decimal.New(int64(rng.Intn(200_000)-100_000), -2)
				sum = sum.Add(amount)
				posted := day(2021, 3, 1+rng.Intn(31))
				transactions[i] = model.Transaction{
					TransactionDate: posted,
					PostingDate:     posted,
					Amount:          amount,
					Description:     "TXN",
				}
			}

			stmt := &model.Statement{
				StartDate: day(2021, 3, 1),
				EndDate:   day(2021, 3, 31),
				Accounts: []model.Account{{
					AccountNum:   "12345",
					StartBalance: start,
					EndBalance:   start.Add(sum).Round(2),
					Transactions: transactions,
				}},
			}

			Reconcile(stmt)

			// Every balance is the previous balance plus the amount.
			acct := stmt.Accounts[0]
			running := acct.StartBalance
			for _, txn := range acct.Transactions {
				running = running.Add(txn.Amount).Round(2)
				require.True(t, txn.Balance.Valid)
				require.True(t, running.Equal(txn.Balance.Decimal),
					"trial %d: want %s got %s", trial, running, txn.Balance.Decimal)
			}
			require.True(t, acct.BalanceDiscrepancy().IsZero(), "trial %d", trial)
			require.NoError(t, Validate(stmt), "trial %d", trial)

			// Reconciling consistent balances changes nothing.
			before := make([]decimal.Decimal, count)
			for i, txn := range acct.Transactions {
				before[i] = txn.Balance.Decimal
			}
			Reconcile(stmt)
			for i, txn := range stmt.Accounts[0].Transactions {
				require.True(t, before[i].Equal(txn.Balance.Decimal), "trial %d txn %d", trial, i)
			}
		}
	})

	t.Run("overwrites plugin-supplied balances", func(t *testing.T) {
		stmt := &model.Statement{
			Accounts: []model.Account{{
				StartBalance: decimal.NewFromFloat(10.00),
				Transactions: []model.Transaction{{
					PostingDate: day(2021, 3, 12),
					Amount:      decimal.NewFromFloat(5.00),
					Balance:     decimal.NewNullDecimal(decimal.NewFromFloat(999.00)),
				}},
			}},
		}

		Reconcile(stmt)

		assert.Equal(t, "15.00", stmt.Accounts[0].Transactions[0].Balance.Decimal.StringFixed(2))
	})
}
