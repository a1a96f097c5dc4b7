package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/quotemill/quotemill/internal/pricing"
)

const draftKeyPrefix = "quotemill:draft:"

var (
	ErrDraftNotFound = errors.New("draft not found or expired")
	ErrItemIndex     = errors.New("line item index out of range")
	// ErrInvalidItem wraps line-item validation failures.
	ErrInvalidItem = errors.New("invalid line item")
)

// Draft is the in-progress line-item buffer a quotation is built from. It
// lives in Redis with a TTL; abandoned drafts expire on their own.
type Draft struct {
	ID        string     `json:"id"`
	Items     []LineItem `json:"line_items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// DraftStore persists drafts in Redis.
type DraftStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewDraftStore instantiates the store. ttl bounds how long an untouched
// draft survives.
func NewDraftStore(client *redis.Client, ttl time.Duration) *DraftStore {
	return &DraftStore{client: client, ttl: ttl, now: time.Now}
}

func draftKey(id string) string { return draftKeyPrefix + id }

// Create starts an empty draft.
func (s *DraftStore) Create(ctx context.Context) (*Draft, error) {
	now := s.now().UTC()
	d := &Draft{
		ID:        uuid.NewString(),
		Items:     []LineItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Get loads a draft by id.
func (s *DraftStore) Get(ctx context.Context, id string) (*Draft, error) {
	raw, err := s.client.Get(ctx, draftKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &d, nil
}

// AddItem validates the incoming line, computes and freezes its derived
// amounts, and appends it to the draft.
func (s *DraftStore) AddItem(ctx context.Context, id string, req CreateLineItemRequest) (*Draft, error) {
	if err := validateItem(req); err != nil {
		return nil, err
	}

	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	discountAmount, totalPrice := pricing.LineAmounts(req.Quantity, req.UnitPrice, req.DiscountPercent)
	d.Items = append(d.Items, LineItem{
		PartNo:          req.PartNo,
		Description:     req.Description,
		HSN:             req.HSN,
		Quantity:        req.Quantity,
		UnitPrice:       req.UnitPrice,
		DeliveryWeeks:   req.DeliveryWeeks,
		DiscountPercent: req.DiscountPercent,
		DiscountAmount:  discountAmount,
		TotalPrice:      totalPrice,
	})
	d.UpdatedAt = s.now().UTC()

	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// RemoveItem deletes the item at the given zero-based position.
func (s *DraftStore) RemoveItem(ctx context.Context, id string, index int) (*Draft, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(d.Items) {
		return nil, ErrItemIndex
	}
	d.Items = append(d.Items[:index], d.Items[index+1:]...)
	d.UpdatedAt = s.now().UTC()

	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Clear empties the draft's items without deleting the draft itself.
func (s *DraftStore) Clear(ctx context.Context, id string) (*Draft, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Items = []LineItem{}
	d.UpdatedAt = s.now().UTC()

	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Delete removes the draft entirely. Deleting an unknown draft is a no-op.
func (s *DraftStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, draftKey(id)).Err()
}

func (s *DraftStore) save(ctx context.Context, d *Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.client.Set(ctx, draftKey(d.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store draft: %w", err)
	}
	return nil
}

func validateItem(req CreateLineItemRequest) error {
	if req.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidItem)
	}
	if req.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit price cannot be negative", ErrInvalidItem)
	}
	if req.DiscountPercent.IsNegative() || req.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: discount percent must be between 0 and 100", ErrInvalidItem)
	}
	return nil
}
