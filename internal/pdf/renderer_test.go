package pdf

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotemill/quotemill/internal/company"
	"github.com/quotemill/quotemill/internal/pricing"
	"github.com/quotemill/quotemill/internal/quotes"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func sampleQuotation() *quotes.Quotation {
	profile := company.DefaultProfile()
	created := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

	items := []quotes.LineItem{
		{
			PartNo:          "VFD-220",
			Description:     "Variable frequency drive, 2.2 kW",
			HSN:             "8504",
			Quantity:        2,
			UnitPrice:       dec("100.00"),
			DeliveryWeeks:   4,
			DiscountPercent: dec("10"),
			DiscountAmount:  dec("20.00"),
			TotalPrice:      dec("180.00"),
		},
		{
			PartNo:          "ENC-05",
			Description:     "Incremental encoder",
			HSN:             "9031",
			Quantity:        1,
			UnitPrice:       dec("50.00"),
			DiscountPercent: decimal.Zero,
			DiscountAmount:  decimal.Zero,
			TotalPrice:      dec("50.00"),
		},
	}

	q := &quotes.Quotation{
		Reference:    "Q20250314001",
		QuoteDate:    time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		ValidityDays: 30,
		ValidUntil:   time.Date(2025, 4, 13, 0, 0, 0, 0, time.UTC),
		Subject:      "Quotation for automation components",
		Company: quotes.PartySnapshot{
			Name:       profile.Name,
			Address:    profile.Address,
			Email:      profile.Email,
			Phone:      profile.Phone,
			GSTNumber:  profile.GSTNumber,
			MSMENumber: profile.MSMENumber,
		},
		Client: quotes.PartySnapshot{
			Name:          "Acme Engineering Pvt Ltd",
			Address:       "Plot 14, MIDC, Pune",
			Email:         "purchase@acme.example",
			Phone:         "+91 9000000000",
			ContactPerson: "R. Sharma",
		},
		Items: items,
		Terms: quotes.Terms{
			Payment:      "100% advance along with PO",
			Price:        "Ex-works",
			Freight:      "Extra at actual",
			Additional:   "Prices are valid for the quoted quantities only",
			Warranty:     "12 months from dispatch",
			Cancellation: "Orders once placed cannot be cancelled",
			Penalty:      "No penalty clauses are accepted",
		},
		CreatedAt: created,
	}
	q.Totals = pricing.ComputeTotals(q.PricingLines(), decimal.Zero, dec("18"))
	return q
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(2, 2, color.RGBA{R: 37, G: 99, B: 235, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// ============================================================
// Render
// ============================================================

func TestRenderProducesPDF(t *testing.T) {
	r := NewRenderer()
	out, err := r.Render(sampleQuotation(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "output should be a PDF document")
}

func TestRenderIsDeterministic(t *testing.T) {
	r := NewRenderer()

	first, err := r.Render(sampleQuotation(), nil)
	require.NoError(t, err)

	// The underlying writer orders font resources from a map, so a single
	// re-render can match by chance. Repeat until a flip would be certain.
	for i := 0; i < 16; i++ {
		again, err := r.Render(sampleQuotation(), nil)
		require.NoError(t, err)
		require.True(t, bytes.Equal(first, again), "re-rendering the same quotation must be byte-identical (attempt %d)", i)
	}
}

func TestRenderPinsModificationDate(t *testing.T) {
	r := NewRenderer()
	out, err := r.Render(sampleQuotation(), nil)
	require.NoError(t, err)

	// Both dates come from the record's CreatedAt, never the wall clock.
	assert.Contains(t, string(out), "/CreationDate (D:20250314103000)")
	assert.Contains(t, string(out), "/ModDate (D:20250314103000)")
}

func TestNormalizeDocument(t *testing.T) {
	in := []byte("2 0 obj\n/Font <<\n/Fbeef 8 0 R\n/Fcafe 7 0 R\n/Fabad 9 0 R\n>>\nendobj\n" +
		"5 0 obj\n/CreationDate (D:20250314103000)\n/ModDate (D:20990101000000)\nendobj\n")
	want := "2 0 obj\n/Font <<\n/Fabad 9 0 R\n/Fbeef 8 0 R\n/Fcafe 7 0 R\n>>\nendobj\n" +
		"5 0 obj\n/CreationDate (D:20250314103000)\n/ModDate (D:20250314103000)\nendobj\n"

	got := normalizeDocument(append([]byte(nil), in...))

	assert.Equal(t, want, string(got))
	assert.Len(t, got, len(in), "normalization must preserve byte offsets")
}

func TestRenderWithLogo(t *testing.T) {
	r := NewRenderer()
	out, err := r.Render(sampleQuotation(), pngBytes(t))
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRenderUndecodableLogoFallsBack(t *testing.T) {
	r := NewRenderer()
	out, err := r.Render(sampleQuotation(), []byte("not an image"))
	require.NoError(t, err, "bad logo bytes degrade to a placeholder, not an error")
	assert.NotEmpty(t, out)
}

func TestRenderEmptyItems(t *testing.T) {
	q := sampleQuotation()
	q.Items = nil
	q.Totals = pricing.ComputeTotals(nil, decimal.Zero, dec("18"))

	r := NewRenderer()
	out, err := r.Render(q, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRenderManyItemsSpansPages(t *testing.T) {
	q := sampleQuotation()
	base := q.Items[0]
	q.Items = nil
	for i := 0; i < 60; i++ {
		q.Items = append(q.Items, base)
	}
	q.Totals = pricing.ComputeTotals(q.PricingLines(), decimal.Zero, dec("18"))

	r := NewRenderer()
	out, err := r.Render(q, nil)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	// Page objects are "/Type /Page"; the page tree is "/Type /Pages".
	pages := bytes.Count(out, []byte("/Type /Page")) - bytes.Count(out, []byte("/Type /Pages"))
	assert.GreaterOrEqual(t, pages, 4, "sixty items must spill across several pages")
}

func TestDocumentRepeatsTableHeaderOnBreak(t *testing.T) {
	d := &document{m: maroto.New(config.NewBuilder().Build())}
	d.used = pageBodyHeight - 5

	d.addTableRow(summaryRow("Total Amount:", "100.00"), summaryRowHeight)

	assert.Equal(t, tableHeaderHeight+summaryRowHeight, d.used,
		"a row that opens a new page gets the table header above it")
}

func TestDocumentEnsureBreaksPage(t *testing.T) {
	d := &document{m: maroto.New(config.NewBuilder().Build())}
	d.used = pageBodyHeight - 10

	assert.False(t, d.ensure(10), "exactly fitting content stays on the page")
	assert.True(t, d.ensure(11))
	assert.Zero(t, d.used)
}

func TestRenderRejectsEmptyReference(t *testing.T) {
	q := sampleQuotation()
	q.Reference = "  "

	r := NewRenderer()
	_, err := r.Render(q, nil)

	var rerr *RenderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "reference", rerr.Field)
}

func TestRenderRejectsNilQuotation(t *testing.T) {
	r := NewRenderer()
	_, err := r.Render(nil, nil)

	var rerr *RenderError
	require.ErrorAs(t, err, &rerr)
}

// ============================================================
// Helpers
// ============================================================

func TestQuantityLabel(t *testing.T) {
	assert.Equal(t, "1 No", quantityLabel(1))
	assert.Equal(t, "2 Nos", quantityLabel(2))
	assert.Equal(t, "100 Nos", quantityLabel(100))
}

func TestGSTLabel(t *testing.T) {
	q := sampleQuotation()
	assert.Equal(t, "GST (18%):", gstLabel(q))

	q.Totals.GSTPercent = dec("12.5")
	assert.Equal(t, "GST (12.5%):", gstLabel(q))

	q.Totals.GSTPercent = decimal.Zero
	assert.Equal(t, "GST (0%):", gstLabel(q))
}

func TestSniffImage(t *testing.T) {
	ext, ok := sniffImage(pngBytes(t))
	require.True(t, ok)
	assert.Equal(t, "png", string(ext))

	_, ok = sniffImage([]byte("garbage"))
	assert.False(t, ok)

	_, ok = sniffImage(nil)
	assert.False(t, ok)
}
