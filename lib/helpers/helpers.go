package helpers

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatPriceRounded rounds to two decimals but drops trailing zeros, keeping at
// least one fractional digit: 51000 -> 51000.0, 51000.456 -> 51000.46
func FormatPriceRounded(price decimal.Decimal) string {
	s := price.Round(2).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// FormatThreshold renders a threshold the way the user typed its value
func FormatThreshold(threshold decimal.Decimal) string {
	return threshold.String()
}

// FormatPriceUS renders a price with thousands separators, e.g. 51,000.46
func FormatPriceUS(price decimal.Decimal) string {
	f, _ := price.Round(2).Float64()
	return humanize.CommafWithDigits(f, 2)
}

// FormatCount renders an integer with thousands separators
func FormatCount(n int) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%d", n)
}
