package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotal(t *testing.T) {
	cases := map[string]string{
		"1year":  "54.99",
		"2years": "84.99",
		"3years": "104.99",
	}
	for period, want := range cases {
		t.Run(period, func(t *testing.T) {
			got, err := Total(period)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(want).Equal(got), "got %s", got)
			assert.Equal(t, want, got.StringFixed(2))
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("5years")
	assert.ErrorIs(t, err, ErrUnknownPeriod)

	_, err = Total("")
	assert.ErrorIs(t, err, ErrUnknownPeriod)
}

func TestPeriods_Ordered(t *testing.T) {
	ps := Periods()
	require.Len(t, ps, 3)
	assert.Equal(t, OneYear, ps[0].Period)
	assert.Equal(t, TwoYears, ps[1].Period)
	assert.Equal(t, ThreeYears, ps[2].Period)
}

func TestCents(t *testing.T) {
	assert.Equal(t, int64(8499), Cents(MustTotal(TwoYears)))
	assert.Equal(t, int64(1), Cents(decimal.RequireFromString("0.005")))
}

func TestMustTotal_Panics(t *testing.T) {
	assert.Panics(t, func() { MustTotal("weekly") })
}
