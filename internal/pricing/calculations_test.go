package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestLineAmounts(t *testing.T) {
	discount, total := LineAmounts(2, dec("100.00"), dec("10"))

	assert.True(t, dec("20.00").Equal(discount), "discount = %s", discount)
	assert.True(t, dec("180.00").Equal(total), "total = %s", total)
}

func TestLineAmounts_NoDiscount(t *testing.T) {
	discount, total := LineAmounts(3, dec("49.99"), decimal.Zero)

	assert.True(t, discount.IsZero())
	assert.True(t, dec("149.97").Equal(total))
}

func TestComputeTotals_GSTScenario(t *testing.T) {
	discount, total := LineAmounts(2, dec("100.00"), dec("10"))
	items := []Line{{DiscountAmount: discount, TotalPrice: total}}

	breakdown := ComputeTotals(items, decimal.Zero, dec("18"))

	assert.True(t, dec("180.00").Equal(breakdown.Subtotal), "subtotal = %s", breakdown.Subtotal)
	assert.True(t, dec("180.00").Equal(breakdown.TaxableAmount))
	assert.True(t, dec("32.40").Equal(breakdown.GSTAmount), "gst = %s", breakdown.GSTAmount)
	assert.True(t, dec("212.40").Equal(breakdown.TotalAmount), "total = %s", breakdown.TotalAmount)
	assert.True(t, dec("20.00").Equal(breakdown.TotalDiscountAmount))
}

func TestComputeTotals_SubtotalIsExactSum(t *testing.T) {
	items := []Line{
		{TotalPrice: dec("0.10")},
		{TotalPrice: dec("0.20")},
		{TotalPrice: dec("0.30")},
	}

	breakdown := ComputeTotals(items, decimal.Zero, decimal.Zero)

	// Decimal equality, no float drift.
	assert.True(t, dec("0.60").Equal(breakdown.Subtotal))
	assert.True(t, breakdown.Subtotal.Equal(breakdown.TotalAmount))
}

func TestComputeTotals_ZeroRates(t *testing.T) {
	items := []Line{{TotalPrice: dec("1234.56")}}

	breakdown := ComputeTotals(items, decimal.Zero, decimal.Zero)

	assert.True(t, breakdown.Subtotal.Equal(breakdown.TotalAmount))
	assert.True(t, breakdown.GSTAmount.IsZero())
	assert.True(t, breakdown.DiscountAmount.IsZero())
}

func TestComputeTotals_EmptyItems(t *testing.T) {
	breakdown := ComputeTotals(nil, dec("5"), dec("18"))

	assert.True(t, breakdown.Subtotal.IsZero())
	assert.True(t, breakdown.DiscountAmount.IsZero())
	assert.True(t, breakdown.TotalDiscountAmount.IsZero())
	assert.True(t, breakdown.TaxableAmount.IsZero())
	assert.True(t, breakdown.GSTAmount.IsZero())
	assert.True(t, breakdown.TotalAmount.IsZero())
}

func TestComputeTotals_AdditionalDiscount(t *testing.T) {
	items := []Line{
		{DiscountAmount: dec("10.00"), TotalPrice: dec("90.00")},
		{DiscountAmount: decimal.Zero, TotalPrice: dec("110.00")},
	}

	breakdown := ComputeTotals(items, dec("10"), dec("18"))

	assert.True(t, dec("200.00").Equal(breakdown.Subtotal))
	assert.True(t, dec("20.00").Equal(breakdown.DiscountAmount))
	assert.True(t, dec("30.00").Equal(breakdown.TotalDiscountAmount))
	assert.True(t, dec("180.00").Equal(breakdown.TaxableAmount))
	assert.True(t, dec("32.40").Equal(breakdown.GSTAmount))
	assert.True(t, dec("212.40").Equal(breakdown.TotalAmount))
}

func TestComputeTotals_GSTMonotonic(t *testing.T) {
	items := []Line{{TotalPrice: dec("500.00")}}

	previous := ComputeTotals(items, decimal.Zero, decimal.Zero).TotalAmount
	for _, pct := range []string{"5", "12", "18", "28"} {
		current := ComputeTotals(items, decimal.Zero, dec(pct)).TotalAmount
		require.True(t, current.GreaterThan(previous), "total must grow with GST %s%%", pct)
		previous = current
	}
}

func TestComputeTotals_Deterministic(t *testing.T) {
	items := []Line{
		{DiscountAmount: dec("1.23"), TotalPrice: dec("98.77")},
		{DiscountAmount: dec("4.56"), TotalPrice: dec("195.44")},
	}

	first := ComputeTotals(items, dec("2.5"), dec("18"))
	second := ComputeTotals(items, dec("2.5"), dec("18"))

	assert.Equal(t, first.TotalAmount.String(), second.TotalAmount.String())
	assert.Equal(t, first.TaxableAmount.String(), second.TaxableAmount.String())
}
