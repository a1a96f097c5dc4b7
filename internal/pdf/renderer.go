// Package pdf assembles the quotation document. Rendering is a pure function
// of the stored quotation record plus static layout constants: the same
// record always produces byte-identical output, which is what makes
// regenerating a past quotation safe.
package pdf

import (
	"bytes"
	"fmt"
	"image"
	"regexp"
	"sort"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	mimage "github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/quotemill/quotemill/internal/pricing"
	"github.com/quotemill/quotemill/internal/quotes"
)

const (
	dateLayout = "02-Jan-2006"

	// Vertical budget per page for body rows. Conservative against the A4
	// body so our page-break accounting never disagrees with the engine's.
	pageBodyHeight = 250.0

	lineHeight        = 4.0
	tableHeaderHeight = 9.0
	summaryRowHeight  = 7.0

	logoPlaceholder = "[LOGO]"

	greetingLine1 = "Dear Sir/Madam,"
	greetingLine2 = "We thank you for your interest shown in our products. We are hereby quoting for your requirements."
	closingLine   = "We hope you find our offer in line with your requirement; however, any queries feel free to contact us."
)

var (
	headerBg   = props.Color{Red: 37, Green: 99, Blue: 235}
	headerText = props.Color{Red: 245, Green: 245, Blue: 245}
	summaryBg  = props.Color{Red: 248, Green: 250, Blue: 252}
	titleColor = props.Color{Red: 37, Green: 99, Blue: 235}
	bodyColor  = props.Color{Red: 30, Green: 41, Blue: 59}
)

// RenderError reports a structurally unrenderable quotation, naming the
// offending field.
type RenderError struct {
	Field  string
	Reason string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("pdf: cannot render quotation: %s %s", e.Field, e.Reason)
}

// Renderer builds quotation PDFs in memory.
type Renderer struct{}

// NewRenderer constructs a Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render produces the PDF bytes for a quotation. logo may be nil; bytes that
// do not decode as PNG or JPEG degrade to a text placeholder instead of
// failing the render. A quotation without line items still renders, showing
// summary rows at zero.
func (r *Renderer) Render(q *quotes.Quotation, logo []byte) ([]byte, error) {
	if q == nil {
		return nil, &RenderError{Field: "quotation", Reason: "is nil"}
	}
	if strings.TrimSpace(q.Reference) == "" {
		return nil, &RenderError{Field: "reference", Reason: "is empty"}
	}
	if q.Company.Name == "" {
		return nil, &RenderError{Field: "company.name", Reason: "is empty"}
	}

	cfg := config.NewBuilder().
		WithLeftMargin(12.7).
		WithTopMargin(12.7).
		WithRightMargin(12.7).
		WithCreationDate(q.CreatedAt).
		Build()

	d := &document{m: maroto.New(cfg)}

	r.addHeader(d, q, logo)
	r.addTitle(d)
	r.addParties(d, q)
	r.addSubject(d, q)
	r.addGreeting(d)
	r.addItemTable(d, q)
	r.addTerms(d, q)
	r.addClosing(d, q)

	out, err := d.m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generate: %w", err)
	}
	return normalizeDocument(out.GetBytes()), nil
}

var (
	fontDictPattern     = regexp.MustCompile(`/Font <<\n((?:/F[0-9A-Za-z]+ \d+ 0 R\n)+)>>`)
	modDatePattern      = regexp.MustCompile(`/ModDate \(([^)]+)\)`)
	creationDatePattern = regexp.MustCompile(`/CreationDate \(([^)]+)\)`)
)

// normalizeDocument rewrites the two spots the underlying writer does not
// emit deterministically: /Font resource dictionaries list fonts in map
// iteration order, and /ModDate carries the render wall clock instead of the
// pinned creation date. Both rewrites are in place and length-preserving, so
// every xref offset stays valid.
func normalizeDocument(data []byte) []byte {
	for _, loc := range fontDictPattern.FindAllSubmatchIndex(data, -1) {
		block := data[loc[2]:loc[3]]
		entries := bytes.Split(bytes.TrimSuffix(block, []byte("\n")), []byte("\n"))
		sort.Slice(entries, func(i, j int) bool { return bytes.Compare(entries[i], entries[j]) < 0 })
		copy(block, bytes.Join(entries, []byte("\n")))
	}
	if mod := modDatePattern.FindSubmatchIndex(data); mod != nil {
		if created := creationDatePattern.FindSubmatch(data); created != nil && len(created[1]) == mod[3]-mod[2] {
			copy(data[mod[2]:mod[3]], created[1])
		}
	}
	return data
}

// document tracks the vertical space consumed on the current page so the
// line-item table can repeat its header row after a page break.
type document struct {
	m    core.Maroto
	used float64
}

func (d *document) add(r core.Row, height float64) {
	if d.used+height > pageBodyHeight {
		d.pageBreak()
	}
	d.m.AddRows(r)
	d.used += height
}

func (d *document) pageBreak() {
	if remaining := pageBodyHeight - d.used; remaining > 0 {
		d.m.AddRow(remaining, col.New(12))
	}
	d.used = 0
}

// ensure starts a new page when fewer than height millimetres remain.
func (d *document) ensure(height float64) bool {
	if d.used+height > pageBodyHeight {
		d.pageBreak()
		return true
	}
	return false
}

// addTableRow appends a table row, repeating the table header when the row
// opens a new page.
func (d *document) addTableRow(r core.Row, height float64) {
	if d.ensure(height) {
		d.add(tableHeaderRow(), tableHeaderHeight)
	}
	d.add(r, height)
}

func (r *Renderer) addHeader(d *document, q *quotes.Quotation, logo []byte) {
	logoCol := col.New(4)
	if ext, ok := sniffImage(logo); ok {
		logoCol.Add(mimage.NewFromBytes(logo, ext, props.Rect{Percent: 75}))
	} else {
		logoCol.Add(text.New(logoPlaceholder, props.Text{Size: 10, Color: &bodyColor}))
	}

	companyCol := col.New(6).Add(
		text.New(q.Company.Name, props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right, Color: &bodyColor}),
		text.New(q.Company.Address, props.Text{Size: 8, Top: 5, Align: align.Right, Color: &bodyColor}),
		text.New("Email: "+q.Company.Email, props.Text{Size: 8, Top: 14, Align: align.Right, Color: &bodyColor}),
		text.New("Contact: "+q.Company.Phone, props.Text{Size: 8, Top: 18, Align: align.Right, Color: &bodyColor}),
		text.New("GST: "+q.Company.GSTNumber, props.Text{Size: 8, Top: 22, Align: align.Right, Color: &bodyColor}),
		text.New("MSME: "+q.Company.MSMENumber, props.Text{Size: 8, Top: 26, Align: align.Right, Color: &bodyColor}),
	)

	d.add(row.New(32).Add(logoCol, col.New(2), companyCol), 32)
}

func (r *Renderer) addTitle(d *document) {
	d.add(row.New(14).Add(col.New(12).Add(
		text.New("QUOTATION", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Center,
			Top:   3,
			Color: &titleColor,
		}),
	)), 14)
}

func (r *Renderer) addParties(d *document, q *quotes.Quotation) {
	clientCol := col.New(6).Add(
		text.New("To:", props.Text{Size: 9, Style: fontstyle.Bold, Color: &bodyColor}),
		text.New(q.Client.Name, props.Text{Size: 9, Top: 5, Color: &bodyColor}),
		text.New(q.Client.Address, props.Text{Size: 8, Top: 10, Color: &bodyColor}),
		text.New("Email: "+q.Client.Email, props.Text{Size: 8, Top: 19, Color: &bodyColor}),
		text.New("Contact: "+q.Client.Phone, props.Text{Size: 8, Top: 23, Color: &bodyColor}),
		text.New("Attn: "+q.Client.ContactPerson, props.Text{Size: 8, Top: 27, Color: &bodyColor}),
	)

	metaCol := col.New(6).Add(
		text.New("Quotation No: "+q.Reference, props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right, Color: &bodyColor}),
		text.New("Date: "+q.QuoteDate.Format(dateLayout), props.Text{Size: 9, Top: 5, Align: align.Right, Color: &bodyColor}),
		text.New("Valid Till: "+q.ValidUntil.Format(dateLayout), props.Text{Size: 9, Top: 10, Align: align.Right, Color: &bodyColor}),
	)

	d.add(row.New(33).Add(clientCol, metaCol), 33)
}

func (r *Renderer) addSubject(d *document, q *quotes.Quotation) {
	if q.Subject == "" {
		return
	}
	d.add(row.New(8).Add(
		col.New(1).Add(text.New("SUB:", props.Text{Size: 9, Style: fontstyle.Bold, Color: &bodyColor})),
		col.New(11).Add(text.New(q.Subject, props.Text{Size: 9, Color: &bodyColor})),
	), 8)
}

func (r *Renderer) addGreeting(d *document) {
	d.add(row.New(16).Add(col.New(12).Add(
		text.New(greetingLine1, props.Text{Size: 9, Color: &bodyColor}),
		text.New(greetingLine2, props.Text{Size: 9, Top: 7, Color: &bodyColor}),
	)), 16)
}

func tableHeaderRow() core.Row {
	header := func(label string, span int) core.Col {
		return col.New(span).Add(text.New(label, props.Text{
			Size:  8,
			Style: fontstyle.Bold,
			Align: align.Center,
			Top:   2,
			Color: &headerText,
		}))
	}
	hr := row.New(9).Add(
		header("Sr.", 1),
		header("Item Description", 4),
		header("HSN/SAC", 1),
		header("Qty/UOM", 1),
		header("Rate", 2),
		header("Disc.", 1),
		header("Total", 2),
	)
	hr.WithStyle(&props.Cell{BackgroundColor: &headerBg})
	return hr
}

func (r *Renderer) addItemTable(d *document, q *quotes.Quotation) {
	d.ensure(tableHeaderHeight + 14) // keep the header attached to at least one row
	d.add(tableHeaderRow(), tableHeaderHeight)

	for idx, item := range q.Items {
		descLines := []string{item.PartNo, item.Description}
		if item.DeliveryWeeks > 0 {
			descLines = append(descLines, fmt.Sprintf("Delivery: %d weeks", item.DeliveryWeeks))
		}
		height := 6 + lineHeight*float64(len(descLines))

		descCol := col.New(4)
		for i, l := range descLines {
			style := fontstyle.Normal
			if i == 0 {
				style = fontstyle.Bold
			}
			descCol.Add(text.New(l, props.Text{Size: 8, Top: 1 + lineHeight*float64(i), Style: style, Color: &bodyColor}))
		}

		ir := row.New(height).Add(
			col.New(1).Add(text.New(fmt.Sprintf("%d", idx+1), props.Text{Size: 8, Top: 1, Align: align.Center, Color: &bodyColor})),
			descCol,
			col.New(1).Add(text.New(item.HSN, props.Text{Size: 8, Top: 1, Align: align.Center, Color: &bodyColor})),
			col.New(1).Add(text.New(quantityLabel(item.Quantity), props.Text{Size: 8, Top: 1, Align: align.Right, Color: &bodyColor})),
			col.New(2).Add(text.New(pricing.FormatAmount(item.UnitPrice), props.Text{Size: 8, Top: 1, Align: align.Right, Color: &bodyColor})),
			col.New(1).Add(text.New(pricing.FormatPercent(item.DiscountPercent), props.Text{Size: 8, Top: 1, Align: align.Right, Color: &bodyColor})),
			col.New(2).Add(text.New(pricing.FormatAmount(item.TotalPrice), props.Text{Size: 8, Top: 1, Align: align.Right, Color: &bodyColor})),
		)
		d.addTableRow(ir, height)
	}

	// Summary rows belong to the table: kept together, and when they open a
	// new page the table header is repeated above them.
	summaryHeight := 2 * summaryRowHeight
	if q.Totals.TotalDiscountAmount.IsPositive() {
		summaryHeight += summaryRowHeight
	}
	if d.ensure(summaryHeight) {
		d.add(tableHeaderRow(), tableHeaderHeight)
	}
	if q.Totals.TotalDiscountAmount.IsPositive() {
		d.add(summaryRow("Discount:", "-"+pricing.FormatAmount(q.Totals.TotalDiscountAmount)), summaryRowHeight)
	}
	d.add(summaryRow(gstLabel(q), pricing.FormatAmount(q.Totals.GSTAmount)), summaryRowHeight)
	d.add(summaryRow("Total Amount:", pricing.FormatAmount(q.Totals.TotalAmount)), summaryRowHeight)
}

func summaryRow(label, value string) core.Row {
	sr := row.New(summaryRowHeight).Add(
		col.New(8),
		col.New(2).Add(text.New(label, props.Text{Size: 8, Style: fontstyle.Bold, Top: 1.5, Align: align.Right, Color: &bodyColor})),
		col.New(2).Add(text.New(value, props.Text{Size: 8, Style: fontstyle.Bold, Top: 1.5, Align: align.Right, Color: &bodyColor})),
	)
	sr.WithStyle(&props.Cell{BackgroundColor: &summaryBg})
	return sr
}

func gstLabel(q *quotes.Quotation) string {
	pct := q.Totals.GSTPercent.StringFixed(1)
	pct = strings.TrimSuffix(pct, ".0")
	return fmt.Sprintf("GST (%s%%):", pct)
}

func quantityLabel(qty int64) string {
	if qty == 1 {
		return "1 No"
	}
	return fmt.Sprintf("%d Nos", qty)
}

func (r *Renderer) addTerms(d *document, q *quotes.Quotation) {
	d.ensure(40)

	d.add(row.New(10).Add(col.New(12).Add(
		text.New("Terms & Conditions", props.Text{Size: 12, Style: fontstyle.Bold, Top: 2, Color: &bodyColor}),
	)), 10)
	d.add(row.New(2).Add(line.NewCol(12)), 2)

	terms := []struct {
		label  string
		value  string
		height float64
	}{
		{"Payment:", q.Terms.Payment, 6},
		{"Price:", q.Terms.Price, 6},
		{"Freight & Transit Insurance:", q.Terms.Freight, 6},
		{"Additional Terms:", q.Terms.Additional, termHeight(q.Terms.Additional)},
		{"Offer Validity:", q.ValidUntil.Format(dateLayout), 6},
		{"Warranty:", q.Terms.Warranty, termHeight(q.Terms.Warranty)},
		{"Cancellation:", q.Terms.Cancellation, termHeight(q.Terms.Cancellation)},
		{"Penalty:", q.Terms.Penalty, termHeight(q.Terms.Penalty)},
	}
	for _, t := range terms {
		tr := row.New(t.height).Add(
			col.New(3).Add(text.New(t.label, props.Text{Size: 8, Style: fontstyle.Bold, Top: 1, Color: &bodyColor})),
			col.New(9).Add(text.New(t.value, props.Text{Size: 8, Top: 1, Color: &bodyColor})),
		)
		d.add(tr, t.height)
	}
}

// termHeight gives long free-text terms room to wrap.
func termHeight(value string) float64 {
	lines := 1 + len(value)/95 + strings.Count(value, "\n")
	return 2 + lineHeight*float64(lines)
}

func (r *Renderer) addClosing(d *document, q *quotes.Quotation) {
	d.ensure(40)

	d.add(row.New(12).Add(col.New(12).Add(
		text.New(closingLine, props.Text{Size: 9, Top: 3, Color: &bodyColor}),
	)), 12)

	d.add(row.New(26).Add(col.New(12).Add(
		text.New("Cordially yours,", props.Text{Size: 9, Color: &bodyColor}),
		text.New(q.Company.Name, props.Text{Size: 9, Style: fontstyle.Bold, Top: 9, Color: &bodyColor}),
		text.New("Contact: "+q.Company.Phone, props.Text{Size: 8, Top: 14, Color: &bodyColor}),
		text.New("Email: "+q.Company.Email, props.Text{Size: 8, Top: 18, Color: &bodyColor}),
	)), 26)
}

// sniffImage reports whether data decodes as a supported logo format and
// returns the matching maroto extension.
func sniffImage(data []byte) (extension.Type, bool) {
	if len(data) == 0 {
		return "", false
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", false
	}
	switch format {
	case "png":
		return extension.Png, true
	case "jpeg":
		return extension.Jpg, true
	default:
		return "", false
	}
}
