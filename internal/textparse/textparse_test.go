package textparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "$1,234.56", want: "1234.56"},
		{in: "1234.56", want: "1234.56"},
		{in: "-$12.00", want: "-12"},
		{in: "($45.00)", want: "-45"},
		{in: "(45.00)", want: "-45"},
		{in: "$12.34-", want: "-12.34"},
		{in: " $0.01 ", want: "0.01"},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
		{in: "$", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFindLine(t *testing.T) {
	lines := []string{
		"MEMBER STATEMENT",
		"FROM 03/01/21",
		"Previous Balance...... $100.00",
		"03/05 DEPOSIT $50.00 $150.00",
	}

	i, line, err := FindLineStartsWith(lines, "FROM", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, i)
	assert.Equal(t, "FROM 03/01/21", line)

	i, _, err = FindLineContains(lines, "Balance", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, i)

	// start offset skips earlier hits
	_, _, err = FindLineContains(lines, "Balance", 3)
	assert.Error(t, err)

	_, _, err = FindLineStartsWith(lines, "TO", 0)
	assert.Error(t, err)
}

func TestAbsoluteDate(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	t.Run("inside range", func(t *testing.T) {
		got, err := AbsoluteDate("03/15", day(2021, 3, 1), day(2021, 3, 31))
		require.NoError(t, err)
		assert.Equal(t, day(2021, 3, 15), got)
	})

	t.Run("range spans new year", func(t *testing.T) {
		start, end := day(2020, 12, 4), day(2021, 1, 5)

		got, err := AbsoluteDate("12/28", start, end)
		require.NoError(t, err)
		assert.Equal(t, day(2020, 12, 28), got)

		got, err = AbsoluteDate("01/03", start, end)
		require.NoError(t, err)
		assert.Equal(t, day(2021, 1, 3), got)
	})

	t.Run("sale date slightly before range picks nearest year", func(t *testing.T) {
		// A purchase from late November on a December statement.
		got, err := AbsoluteDate("11/28", day(2020, 12, 4), day(2021, 1, 5))
		require.NoError(t, err)
		assert.Equal(t, day(2020, 11, 28), got)
	})

	t.Run("invalid input", func(t *testing.T) {
		for _, in := range []string{"", "0315", "13/01", "03/32", "3/x"} {
			_, err := AbsoluteDate(in, day(2021, 3, 1), day(2021, 3, 31))
			assert.Error(t, err, "input %q", in)
		}
	})
}
