package quotes

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateLineItemRequest describes one line on an incoming quotation. The
// server computes and freezes the discount amount and line total; clients
// never supply derived figures.
type CreateLineItemRequest struct {
	PartNo          string          `json:"part_no" validate:"required"`
	Description     string          `json:"description" validate:"required"`
	HSN             string          `json:"hsn"`
	Quantity        int64           `json:"qty" validate:"required,gt=0"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DeliveryWeeks   int             `json:"delivery_weeks" validate:"gte=0"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// PartyOverride carries optional inline overrides for the company snapshot.
// Empty fields fall back to the saved company profile.
type PartyOverride struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	GSTNumber  string `json:"gst_number"`
	MSMENumber string `json:"msme_number"`
}

// ClientDetails is the customer block on a new quotation.
type ClientDetails struct {
	Name          string `json:"name" validate:"required"`
	Address       string `json:"address"`
	Email         string `json:"email" validate:"omitempty,email"`
	Phone         string `json:"phone"`
	ContactPerson string `json:"contact_person"`
}

// TermsRequest overrides the default terms block. Warranty, cancellation and
// penalty default to the company profile when empty.
type TermsRequest struct {
	Payment      string `json:"payment"`
	Price        string `json:"price"`
	Freight      string `json:"freight"`
	Additional   string `json:"additional"`
	Warranty     string `json:"warranty"`
	Cancellation string `json:"cancellation"`
	Penalty      string `json:"penalty"`
}

// CreateQuotationRequest creates a quotation either from inline items or from
// a previously built draft (DraftID). Exactly one of Items/DraftID is used;
// inline items win when both are present.
type CreateQuotationRequest struct {
	Reference       string                  `json:"quote_ref"`
	QuoteDate       time.Time               `json:"quote_date"`
	ValidityDays    int                     `json:"validity_days" validate:"gte=1"`
	Subject         string                  `json:"subject"`
	Client          ClientDetails           `json:"client" validate:"required"`
	Company         *PartyOverride          `json:"company,omitempty"`
	Items           []CreateLineItemRequest `json:"line_items" validate:"omitempty,dive"`
	DraftID         string                  `json:"draft_id"`
	DiscountPercent decimal.Decimal         `json:"discount_percent"`
	// GSTPercent defaults to 18 when omitted; an explicit zero means zero tax.
	GSTPercent      *decimal.Decimal        `json:"gst_percent"`
	Terms           TermsRequest            `json:"terms"`
}

// ListQuotationsRequest pages through stored quotations.
type ListQuotationsRequest struct {
	Limit  int `json:"limit" validate:"gte=0,lte=1000"`
	Offset int `json:"offset" validate:"gte=0"`
}

// QuotationSummary is the listing row: enough to render the manage screen
// without shipping full line items.
type QuotationSummary struct {
	Reference   string          `json:"quote_ref"`
	QuoteDate   time.Time       `json:"quote_date"`
	ClientName  string          `json:"client_name"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
	CreatedAt   time.Time       `json:"created_at"`
}
