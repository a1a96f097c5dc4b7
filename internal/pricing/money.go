package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var grouping = message.NewPrinter(language.English)

// FormatAmount renders a monetary value with thousands separators and exactly
// two fraction digits, without a currency symbol. Table cells in the PDF use
// this form.
func FormatAmount(d decimal.Decimal) string {
	rounded := d.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	units := rounded.IntPart()
	paise := rounded.Sub(decimal.NewFromInt(units)).Shift(2).IntPart()
	return fmt.Sprintf("%s%s.%02d", sign, grouping.Sprintf("%d", units), paise)
}

// FormatCurrency renders a monetary value with the rupee symbol. Every place
// money is displayed goes through this routine so rounding stays consistent.
func FormatCurrency(d decimal.Decimal) string {
	return "₹" + FormatAmount(d)
}

// FormatPercent renders a percentage with one fraction digit, or the literal
// "0" when the value is zero, matching the line-item discount column.
func FormatPercent(d decimal.Decimal) string {
	if d.IsZero() {
		return "0"
	}
	return d.StringFixed(1) + "%"
}
