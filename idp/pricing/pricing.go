// Package pricing holds the static IDP price table.
package pricing

import (
	"sort"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var ErrUnknownPeriod = errors.New("unknown IDP period")

// Period is the validity option chosen on the application form.
type Period string

const (
	OneYear    Period = "1year"
	TwoYears   Period = "2years"
	ThreeYears Period = "3years"
)

type Price struct {
	Period     Period
	Label      string
	Price      decimal.Decimal
	Processing decimal.Decimal
}

// Total is the amount charged at checkout.
func (p Price) Total() decimal.Decimal {
	return p.Price.Add(p.Processing)
}

var table = map[Period]Price{
	OneYear:    {Period: OneYear, Label: "1 Year", Price: decimal.RequireFromString("49.99"), Processing: decimal.RequireFromString("5.00")},
	TwoYears:   {Period: TwoYears, Label: "2 Years", Price: decimal.RequireFromString("79.99"), Processing: decimal.RequireFromString("5.00")},
	ThreeYears: {Period: ThreeYears, Label: "3 Years", Price: decimal.RequireFromString("99.99"), Processing: decimal.RequireFromString("5.00")},
}

func Lookup(period string) (Price, error) {
	p, ok := table[Period(period)]
	if !ok {
		return Price{}, errors.Wrapf(ErrUnknownPeriod, "%q", period)
	}
	return p, nil
}

func Total(period string) (decimal.Decimal, error) {
	p, err := Lookup(period)
	if err != nil {
		return decimal.Zero, err
	}
	return p.Total(), nil
}

// MustTotal panics on an unknown period. Use for compile-time constants only.
func MustTotal(period Period) decimal.Decimal {
	t, err := Total(string(period))
	if err != nil {
		panic(err)
	}
	return t
}

// Periods returns all known prices ordered by price.
func Periods() []Price {
	out := make([]Price, 0, len(table))
	for _, p := range table {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Price.LessThan(out[j].Price)
	})
	return out
}

// Cents converts an amount to minor currency units, rounding half away from zero.
func Cents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
