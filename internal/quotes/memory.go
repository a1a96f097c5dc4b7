package quotes

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryRepository keeps quotations in an in-memory slice, in insertion
// order. It matches the storage contract for callers that do not want a
// database (and for tests). Reference collisions are not guarded here,
// mirroring the accepted limitation of the original store.
type MemoryRepository struct {
	mu        sync.RWMutex
	records   []Quotation
	documents map[string]storedDocument
}

type storedDocument struct {
	data       []byte
	renderedAt time.Time
}

// NewMemoryRepository constructs an empty in-memory store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{documents: make(map[string]storedDocument)}
}

func (m *MemoryRepository) Append(_ context.Context, q Quotation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, q)
	return nil
}

func (m *MemoryRepository) GetByReference(_ context.Context, reference string) (*Quotation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.records {
		if m.records[i].Reference == reference {
			q := m.records[i]
			return &q, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) List(_ context.Context, req ListQuotationsRequest) ([]QuotationSummary, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := len(m.records)
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}

	var summaries []QuotationSummary
	// Newest first, matching the Postgres ordering.
	for i := total - 1 - req.Offset; i >= 0 && len(summaries) < limit; i-- {
		q := m.records[i]
		summaries = append(summaries, QuotationSummary{
			Reference:   q.Reference,
			QuoteDate:   q.QuoteDate,
			ClientName:  q.Client.Name,
			TotalAmount: q.Totals.TotalAmount,
			ItemCount:   len(q.Items),
			CreatedAt:   q.CreatedAt,
		})
	}
	return summaries, total, nil
}

func (m *MemoryRepository) ClearAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
	m.documents = make(map[string]storedDocument)
	return nil
}

func (m *MemoryRepository) CountByPrefix(_ context.Context, prefix string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for i := range m.records {
		if strings.HasPrefix(m.records[i].Reference, prefix) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryRepository) SaveDocument(_ context.Context, reference string, data []byte, renderedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	m.documents[reference] = storedDocument{data: stored, renderedAt: renderedAt}
	return nil
}

func (m *MemoryRepository) GetDocument(_ context.Context, reference string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[reference]
	if !ok {
		return nil, ErrNoDocument
	}
	return doc.data, nil
}

func (m *MemoryRepository) PurgeDocumentsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var purged int64
	for ref, doc := range m.documents {
		if doc.renderedAt.Before(cutoff) {
			delete(m.documents, ref)
			purged++
		}
	}
	return purged, nil
}
