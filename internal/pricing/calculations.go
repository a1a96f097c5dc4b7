// Package pricing implements the quotation totals arithmetic. All monetary
// values are decimal to keep repeated calculations bit-identical; rounding to
// two places happens only when amounts are formatted for display.
package pricing

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// Line carries the cached per-item amounts the totals computation trusts.
// Both values are frozen when the item is added to a draft; the engine never
// re-derives them from quantity and unit price.
type Line struct {
	DiscountAmount decimal.Decimal
	TotalPrice     decimal.Decimal
}

// Breakdown is the totals block stored on a quotation.
type Breakdown struct {
	Subtotal            decimal.Decimal `json:"subtotal"`
	DiscountPercent     decimal.Decimal `json:"discount_percent"`
	DiscountAmount      decimal.Decimal `json:"discount_amount"`
	TotalDiscountAmount decimal.Decimal `json:"total_discount_amount"`
	TaxableAmount       decimal.Decimal `json:"taxable_amount"`
	GSTPercent          decimal.Decimal `json:"gst_percent"`
	GSTAmount           decimal.Decimal `json:"gst_amount"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
}

// LineAmounts computes the discount and total for a single line item at
// add time. gross = qty x unitPrice, discount = gross x discountPercent/100.
func LineAmounts(quantity int64, unitPrice, discountPercent decimal.Decimal) (discountAmount, totalPrice decimal.Decimal) {
	gross := unitPrice.Mul(decimal.NewFromInt(quantity))
	discountAmount = gross.Mul(discountPercent).Div(oneHundred)
	totalPrice = gross.Sub(discountAmount)
	return discountAmount, totalPrice
}

// ComputeTotals folds the cached line amounts into a quotation-level
// breakdown. The additional discount applies to the subtotal, GST applies to
// the discounted (taxable) amount. Items are summed left to right.
//
// Percentages outside [0,100] are the caller's responsibility; they are not
// clamped here.
func ComputeTotals(items []Line, additionalDiscountPercent, gstPercent decimal.Decimal) Breakdown {
	subtotal := decimal.Zero
	itemDiscounts := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.TotalPrice)
		itemDiscounts = itemDiscounts.Add(item.DiscountAmount)
	}

	discountAmount := subtotal.Mul(additionalDiscountPercent).Div(oneHundred)
	taxableAmount := subtotal.Sub(discountAmount)
	gstAmount := taxableAmount.Mul(gstPercent).Div(oneHundred)

	return Breakdown{
		Subtotal:            subtotal,
		DiscountPercent:     additionalDiscountPercent,
		DiscountAmount:      discountAmount,
		TotalDiscountAmount: itemDiscounts.Add(discountAmount),
		TaxableAmount:       taxableAmount,
		GSTPercent:          gstPercent,
		GSTAmount:           gstAmount,
		TotalAmount:         taxableAmount.Add(gstAmount),
	}
}
