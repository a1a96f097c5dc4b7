package quotes

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quotemill/quotemill/internal/pricing"
)

// PartySnapshot is a point-in-time copy of a party's details. Quotations
// embed one for the issuing company and one for the client; edits to the
// live company profile never reach documents that were already generated.
type PartySnapshot struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	ContactPerson string `json:"contact_person,omitempty"`
	GSTNumber     string `json:"gst_number,omitempty"`
	MSMENumber    string `json:"msme_number,omitempty"`
}

// LineItem is one priced row on a quotation. DiscountAmount and TotalPrice
// are computed when the item is added and frozen from then on; totals are
// always derived from these cached values, never re-derived from quantity
// and unit price.
type LineItem struct {
	PartNo          string          `json:"part_no"`
	Description     string          `json:"description"`
	HSN             string          `json:"hsn"`
	Quantity        int64           `json:"qty"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DeliveryWeeks   int             `json:"delivery_weeks,omitempty"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TotalPrice      decimal.Decimal `json:"total_price"`
}

// Terms is the terms-and-conditions block printed on the document.
type Terms struct {
	Payment      string `json:"payment"`
	Price        string `json:"price"`
	Freight      string `json:"freight"`
	Additional   string `json:"additional"`
	Warranty     string `json:"warranty"`
	Cancellation string `json:"cancellation"`
	Penalty      string `json:"penalty"`
}

// Quotation is the stored document record. Monetary figures are frozen at
// creation; regenerating the PDF re-reads this record as-is.
type Quotation struct {
	Reference    string            `json:"quote_ref"`
	QuoteDate    time.Time         `json:"quote_date"`
	ValidityDays int               `json:"validity_days"`
	ValidUntil   time.Time         `json:"validity_date"`
	Subject      string            `json:"subject,omitempty"`
	Company      PartySnapshot     `json:"company"`
	Client       PartySnapshot     `json:"client"`
	Items        []LineItem        `json:"line_items"`
	Totals       pricing.Breakdown `json:"totals"`
	Terms        Terms             `json:"terms"`
	CreatedAt    time.Time         `json:"created_at"`
}

// PricingLines adapts the stored items for the totals engine.
func (q *Quotation) PricingLines() []pricing.Line {
	lines := make([]pricing.Line, 0, len(q.Items))
	for _, item := range q.Items {
		lines = append(lines, pricing.Line{
			DiscountAmount: item.DiscountAmount,
			TotalPrice:     item.TotalPrice,
		})
	}
	return lines
}
