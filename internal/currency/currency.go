// Package currency renders amounts in the user's preferred currency.
package currency

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"

	"finstudent/internal/core"
)

// DefaultCode is used when no preference is stored or a code is unknown.
const DefaultCode = "USD"

// Option describes one supported currency.
type Option struct {
	Code   string
	Symbol string
	Name   string
}

var options = map[string]Option{
	"USD": {Code: "USD", Symbol: "$", Name: "US Dollar"},
	"EUR": {Code: "EUR", Symbol: "€", Name: "Euro"},
	"GBP": {Code: "GBP", Symbol: "£", Name: "British Pound"},
	"CAD": {Code: "CAD", Symbol: "C$", Name: "Canadian Dollar"},
	"NGN": {Code: "NGN", Symbol: "₦", Name: "Nigerian Naira"},
}

// Lookup returns the option for code, falling back to USD.
func Lookup(code string) Option {
	if opt, ok := options[code]; ok {
		return opt
	}
	return options[DefaultCode]
}

// IsSupported reports whether code is one of the supported currencies.
func IsSupported(code string) bool {
	_, ok := options[code]
	return ok
}

// Options lists the supported currencies sorted by code.
func Options() []Option {
	out := make([]Option, 0, len(options))
	for _, opt := range options {
		out = append(out, opt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Format renders amount with the currency symbol, thousands separators and
// exactly two decimals, e.g. "$1,234.50" or "-₦12.00".
func Format(amount core.Money, code string) string {
	opt := Lookup(code)
	sign := ""
	if amount.IsNegative() {
		sign = "-"
	}
	cents := amount.Abs().Cents
	return fmt.Sprintf("%s%s%s.%02d", sign, opt.Symbol, humanize.Comma(cents/100), cents%100)
}

// FormatCompact shortens large amounts to one decimal with a K or M suffix.
// Amounts whose K form would round to 1000.0K are shown in millions.
func FormatCompact(amount core.Money, code string) string {
	opt := Lookup(code)
	sign := ""
	if amount.IsNegative() {
		sign = "-"
	}
	cents := amount.Abs().Cents

	// Tenths of a thousand and of a million, rounded half up.
	kTenths := (cents + 5_000) / 10_000
	mTenths := (cents + 5_000_000) / 10_000_000
	switch {
	case cents >= 100_000_000 || kTenths >= 10_000:
		return fmt.Sprintf("%s%s%d.%dM", sign, opt.Symbol, mTenths/10, mTenths%10)
	case cents >= 100_000:
		return fmt.Sprintf("%s%s%d.%dK", sign, opt.Symbol, kTenths/10, kTenths%10)
	default:
		return fmt.Sprintf("%s%s%d.%02d", sign, opt.Symbol, cents/100, cents%100)
	}
}
