// Package money renders cart totals as localized currency strings.
package money

import (
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	// DefaultLocale is used when no locale is configured.
	DefaultLocale = "en-US"
	// DefaultSymbol is the currency symbol prefixed to every amount.
	DefaultSymbol = "$"

	fractionDigits = 2
)

// Formatter prints amounts with locale grouping, two fraction digits and a
// symbol prefix, e.g. "$1,234.50" or "-$5.00".
type Formatter struct {
	locale language.Tag
	symbol string
}

// New builds a Formatter for a BCP 47 locale such as "en-US". An empty or
// unparsable locale falls back to DefaultLocale.
func New(locale, symbol string) *Formatter {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil || tag == language.Und {
		tag = language.AmericanEnglish
	}
	return &Formatter{
		locale: tag,
		symbol: symbol,
	}
}

// Default returns the en-US dollar formatter.
func Default() *Formatter {
	return New(DefaultLocale, DefaultSymbol)
}

// Locale reports the tag the formatter groups digits for.
func (f *Formatter) Locale() language.Tag {
	if f == nil {
		return language.AmericanEnglish
	}
	return f.locale
}

// Symbol reports the currency symbol.
func (f *Formatter) Symbol() string {
	if f == nil {
		return DefaultSymbol
	}
	return f.symbol
}

// Format renders amount. The zero amount renders as "$0.00". The whole part
// is grouped from its int64 value; cents come from the decimal's fixed
// string.
func (f *Formatter) Format(amount decimal.Decimal) string {
	if f == nil {
		f = Default()
	}
	rounded := amount.Round(fractionDigits)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}
	whole, cents, _ := strings.Cut(rounded.StringFixed(fractionDigits), ".")
	printer := message.NewPrinter(f.locale)
	if rounded.LessThan(maxGrouped) {
		whole = printer.Sprintf("%v", number.Decimal(rounded.IntPart()))
	}
	return sign + f.symbol + whole + decimalSeparator(printer) + cents
}

// maxGrouped bounds the amounts whose whole part fits an int64; larger ones
// are printed without grouping.
var maxGrouped = decimal.NewFromInt(math.MaxInt64)

func decimalSeparator(printer *message.Printer) string {
	sample := printer.Sprintf("%v", number.Decimal(0.5, number.Scale(1)))
	sep := strings.TrimFunc(sample, unicode.IsDigit)
	if sep == "" {
		return "."
	}
	return sep
}

// Zero is Format(0); consumers use it as the empty-cart total.
func (f *Formatter) Zero() string {
	return f.Format(decimal.Zero)
}
