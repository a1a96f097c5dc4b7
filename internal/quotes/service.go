package quotes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/quotemill/quotemill/internal/company"
	"github.com/quotemill/quotemill/internal/observability"
	"github.com/quotemill/quotemill/internal/pricing"
)

// Default terms applied when the request leaves a field empty. Warranty,
// cancellation and penalty come from the company profile instead.
const (
	defaultPayment      = "100% Against PI"
	defaultPrice        = "Ex-works, Mumbai"
	defaultFreight      = "In your scope"
	defaultAdditional   = "Packing: 2% Extra.\nInstallation & Commissioning charges not included."
	defaultValidityDays = 15
)

var defaultGSTPercent = decimal.NewFromInt(18)

var (
	ErrNoItems        = errors.New("quotation requires at least one line item")
	ErrInvalidPercent = errors.New("percent must be between 0 and 100")
)

// DocumentRenderer produces the printable document for a stored quotation.
type DocumentRenderer interface {
	Render(q *Quotation, logo []byte) ([]byte, error)
}

// ExportEnqueuer hands a quotation off for background export.
type ExportEnqueuer interface {
	EnqueueExport(ctx context.Context, reference string) error
}

type Service struct {
	repo     Repository
	drafts   *DraftStore
	company  *company.Service
	renderer DocumentRenderer
	exports  ExportEnqueuer
	logger   *slog.Logger
	metrics  *observability.Metrics
	render   singleflight.Group
	now      func() time.Time
}

// NewService wires the quotation workflows. drafts, exports and metrics may
// be nil when the deployment runs without Redis, a worker or scraping.
func NewService(repo Repository, drafts *DraftStore, companySvc *company.Service, renderer DocumentRenderer, exports ExportEnqueuer, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		repo:     repo,
		drafts:   drafts,
		company:  companySvc,
		renderer: renderer,
		exports:  exports,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Create freezes a new quotation: the company snapshot, per-line amounts and
// the totals breakdown are all computed once here and never recomputed.
func (s *Service) Create(ctx context.Context, req CreateQuotationRequest) (*Quotation, error) {
	if err := validatePercent(req.DiscountPercent); err != nil {
		return nil, fmt.Errorf("discount_percent: %w", err)
	}
	gstPercent := defaultGSTPercent
	if req.GSTPercent != nil {
		gstPercent = *req.GSTPercent
	}
	if err := validatePercent(gstPercent); err != nil {
		return nil, fmt.Errorf("gst_percent: %w", err)
	}

	items, err := s.resolveItems(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	profile, err := s.company.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load company profile: %w", err)
	}

	now := s.now().UTC()
	quoteDate := req.QuoteDate
	if quoteDate.IsZero() {
		quoteDate = now.Truncate(24 * time.Hour)
	}
	validityDays := req.ValidityDays
	if validityDays <= 0 {
		validityDays = defaultValidityDays
	}

	q := Quotation{
		QuoteDate:    quoteDate,
		ValidityDays: validityDays,
		ValidUntil:   quoteDate.AddDate(0, 0, validityDays),
		Subject:      req.Subject,
		Company:      companySnapshot(profile, req.Company),
		Client: PartySnapshot{
			Name:          req.Client.Name,
			Address:       req.Client.Address,
			Email:         req.Client.Email,
			Phone:         req.Client.Phone,
			ContactPerson: req.Client.ContactPerson,
		},
		Items:     items,
		Terms:     resolveTerms(req.Terms, profile),
		CreatedAt: now,
	}

	lines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, pricing.Line{DiscountAmount: item.DiscountAmount, TotalPrice: item.TotalPrice})
	}
	q.Totals = pricing.ComputeTotals(lines, req.DiscountPercent, gstPercent)

	if req.Reference != "" {
		q.Reference = req.Reference
		if err := s.repo.Append(ctx, q); err != nil {
			return nil, err
		}
	} else if err := s.appendWithGeneratedRef(ctx, &q); err != nil {
		return nil, err
	}

	if req.DraftID != "" && len(req.Items) == 0 && s.drafts != nil {
		if err := s.drafts.Delete(ctx, req.DraftID); err != nil {
			s.logger.Warn("consumed draft not deleted", slog.String("draft_id", req.DraftID), slog.Any("error", err))
		}
	}

	s.metrics.QuotationCreated()
	s.logger.Info("quotation created",
		slog.String("reference", q.Reference),
		slog.Int("items", len(q.Items)),
		slog.String("total", q.Totals.TotalAmount.StringFixed(2)))
	return &q, nil
}

// appendWithGeneratedRef assigns the next daily reference and retries on a
// duplicate, which can happen when two quotations are created concurrently
// for the same day.
func (s *Service) appendWithGeneratedRef(ctx context.Context, q *Quotation) error {
	prefix := "Q" + q.QuoteDate.Format("20060102")
	for attempt := 0; attempt < 5; attempt++ {
		count, err := s.repo.CountByPrefix(ctx, prefix)
		if err != nil {
			return fmt.Errorf("sequence reference: %w", err)
		}
		q.Reference = fmt.Sprintf("%s%03d", prefix, count+1+attempt)

		err = s.repo.Append(ctx, *q)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrDuplicateRef) {
			return err
		}
	}
	return fmt.Errorf("sequence reference: exhausted retries for prefix %s", prefix)
}

func (s *Service) resolveItems(ctx context.Context, req CreateQuotationRequest) ([]LineItem, error) {
	if len(req.Items) > 0 {
		items := make([]LineItem, 0, len(req.Items))
		for i, ir := range req.Items {
			if err := validateItem(ir); err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			discountAmount, totalPrice := pricing.LineAmounts(ir.Quantity, ir.UnitPrice, ir.DiscountPercent)
			items = append(items, LineItem{
				PartNo:          ir.PartNo,
				Description:     ir.Description,
				HSN:             ir.HSN,
				Quantity:        ir.Quantity,
				UnitPrice:       ir.UnitPrice,
				DeliveryWeeks:   ir.DeliveryWeeks,
				DiscountPercent: ir.DiscountPercent,
				DiscountAmount:  discountAmount,
				TotalPrice:      totalPrice,
			})
		}
		return items, nil
	}

	if req.DraftID != "" {
		if s.drafts == nil {
			return nil, ErrDraftNotFound
		}
		d, err := s.drafts.Get(ctx, req.DraftID)
		if err != nil {
			return nil, err
		}
		return d.Items, nil
	}

	return nil, nil
}

// Get loads a stored quotation.
func (s *Service) Get(ctx context.Context, reference string) (*Quotation, error) {
	return s.repo.GetByReference(ctx, reference)
}

// List pages through stored quotations, newest first.
func (s *Service) List(ctx context.Context, req ListQuotationsRequest) ([]QuotationSummary, int, error) {
	return s.repo.List(ctx, req)
}

// ClearAll deletes every stored quotation.
func (s *Service) ClearAll(ctx context.Context) error {
	if err := s.repo.ClearAll(ctx); err != nil {
		return err
	}
	s.logger.Info("quotation history cleared")
	return nil
}

// RenderPDF regenerates the document for a stored quotation. Renders are
// deduplicated per reference with singleflight: concurrent downloads of the
// same quotation share one render.
func (s *Service) RenderPDF(ctx context.Context, reference string) ([]byte, string, error) {
	v, err, _ := s.render.Do(reference, func() (any, error) {
		q, err := s.repo.GetByReference(ctx, reference)
		if err != nil {
			return nil, err
		}

		logo, err := s.company.Logo(ctx)
		if err != nil && !errors.Is(err, company.ErrNoLogo) {
			s.logger.Warn("logo unavailable, rendering placeholder", slog.Any("error", err))
			logo = nil
		}

		start := s.now()
		data, err := s.renderer.Render(q, logo)
		if err != nil {
			return nil, err
		}
		s.metrics.ObserveRender(s.now().Sub(start))
		return data, nil
	})
	if err != nil {
		return nil, "", err
	}
	return v.([]byte), DocumentFilename(reference), nil
}

// Export enqueues a background render-and-store of the quotation document.
func (s *Service) Export(ctx context.Context, reference string) error {
	if _, err := s.repo.GetByReference(ctx, reference); err != nil {
		return err
	}
	if s.exports == nil {
		return errors.New("export worker not configured")
	}
	return s.exports.EnqueueExport(ctx, reference)
}

// Document returns a previously exported PDF.
func (s *Service) Document(ctx context.Context, reference string) ([]byte, string, error) {
	data, err := s.repo.GetDocument(ctx, reference)
	if err != nil {
		return nil, "", err
	}
	return data, DocumentFilename(reference), nil
}

// DocumentFilename is the download name for a quotation PDF.
func DocumentFilename(reference string) string {
	return fmt.Sprintf("Quotation_%s.pdf", reference)
}

func companySnapshot(profile company.Profile, override *PartyOverride) PartySnapshot {
	snap := PartySnapshot{
		Name:       profile.Name,
		Address:    profile.Address,
		Email:      profile.Email,
		Phone:      profile.Phone,
		GSTNumber:  profile.GSTNumber,
		MSMENumber: profile.MSMENumber,
	}
	if override == nil {
		return snap
	}
	if override.Name != "" {
		snap.Name = override.Name
	}
	if override.Address != "" {
		snap.Address = override.Address
	}
	if override.Email != "" {
		snap.Email = override.Email
	}
	if override.Phone != "" {
		snap.Phone = override.Phone
	}
	if override.GSTNumber != "" {
		snap.GSTNumber = override.GSTNumber
	}
	if override.MSMENumber != "" {
		snap.MSMENumber = override.MSMENumber
	}
	return snap
}

func resolveTerms(req TermsRequest, profile company.Profile) Terms {
	t := Terms{
		Payment:      req.Payment,
		Price:        req.Price,
		Freight:      req.Freight,
		Additional:   req.Additional,
		Warranty:     req.Warranty,
		Cancellation: req.Cancellation,
		Penalty:      req.Penalty,
	}
	if t.Payment == "" {
		t.Payment = defaultPayment
	}
	if t.Price == "" {
		t.Price = defaultPrice
	}
	if t.Freight == "" {
		t.Freight = defaultFreight
	}
	if t.Additional == "" {
		t.Additional = defaultAdditional
	}
	if t.Warranty == "" {
		t.Warranty = profile.Warranty
	}
	if t.Cancellation == "" {
		t.Cancellation = profile.Cancellation
	}
	if t.Penalty == "" {
		t.Penalty = profile.Penalty
	}
	return t
}

func validatePercent(p decimal.Decimal) error {
	if p.IsNegative() || p.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidPercent
	}
	return nil
}
