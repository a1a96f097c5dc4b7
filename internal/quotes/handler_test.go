package quotes

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotemill/quotemill/internal/company"
)

func newTestServer(t *testing.T) (*httptest.Server, *Service) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := NewMemoryRepository()
	drafts := NewDraftStore(client, time.Hour)
	companySvc := company.NewService(&fakeCompanyRepo{}, nil, slog.Default())
	svc := NewService(repo, drafts, companySvc, &fakeRenderer{}, &fakeExports{}, slog.Default(), nil)
	svc.now = func() time.Time {
		return time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	}

	handler := NewHandler(slog.Default(), svc, drafts)
	r := chi.NewRouter()
	r.Route("/quotations", handler.MountRoutes)
	r.Route("/drafts", handler.MountDraftRoutes)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, svc
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func createBody() map[string]any {
	return map[string]any{
		"quote_date":    "2025-03-14T00:00:00Z",
		"validity_days": 30,
		"client":        map[string]any{"name": "Acme Engineering"},
		"line_items": []map[string]any{
			{
				"part_no":          "VFD-220",
				"description":      "Variable frequency drive",
				"hsn":              "8504",
				"qty":              2,
				"unit_price":       "100",
				"discount_percent": "10",
			},
		},
	}
}

func TestCreateQuotationEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/quotations", createBody())
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var q Quotation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&q))
	assert.Equal(t, "Q20250314001", q.Reference)
	assert.Equal(t, "212.4", q.Totals.TotalAmount.String())
}

func TestCreateQuotationValidation(t *testing.T) {
	server, _ := newTestServer(t)

	body := createBody()
	delete(body, "client")

	resp := postJSON(t, server.URL+"/quotations", body)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDuplicateReferenceConflict(t *testing.T) {
	server, svc := newTestServer(t)

	// The memory store does not guard references, so seed the duplicate
	// condition through a repo that does.
	body := createBody()
	body["quote_ref"] = "Q-DUP-1"
	resp := postJSON(t, server.URL+"/quotations", body)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	svc.repo = duplicateRepo{Repository: svc.repo}
	resp = postJSON(t, server.URL+"/quotations", body)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGetQuotationEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/quotations", createBody())
	resp.Body.Close()

	resp, err := http.Get(server.URL + "/quotations/Q20250314001")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var q Quotation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&q))
	assert.Equal(t, "Acme Engineering", q.Client.Name)

	resp, err = http.Get(server.URL + "/quotations/Q19990101001")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListQuotationsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	for i := 0; i < 3; i++ {
		resp := postJSON(t, server.URL+"/quotations", createBody())
		resp.Body.Close()
	}

	resp, err := http.Get(server.URL + "/quotations?limit=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Quotations []QuotationSummary `json:"quotations"`
		Total      int                `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 3, out.Total)
	assert.Len(t, out.Quotations, 2)
}

func TestDownloadPDFEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/quotations", createBody())
	resp.Body.Close()

	resp, err := http.Get(server.URL + "/quotations/Q20250314001/pdf")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Quotation_Q20250314001.pdf"`, resp.Header.Get("Content-Disposition"))
}

func TestClearAllEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/quotations", createBody())
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/quotations", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(server.URL + "/quotations")
	require.NoError(t, err)
	defer resp.Body.Close()
	var out struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 0, out.Total)
}

func TestDraftWorkflowEndToEnd(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/drafts", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var d Draft
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&d))
	resp.Body.Close()

	resp = postJSON(t, server.URL+"/drafts/"+d.ID+"/items", map[string]any{
		"part_no":          "VFD-220",
		"description":      "Variable frequency drive",
		"qty":              2,
		"unit_price":       "100",
		"discount_percent": "10",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&d))
	resp.Body.Close()
	require.Len(t, d.Items, 1)

	// Create the quotation from the draft; the draft is consumed.
	resp = postJSON(t, server.URL+"/quotations", map[string]any{
		"quote_date":    "2025-03-14T00:00:00Z",
		"validity_days": 15,
		"client":        map[string]any{"name": "Acme Engineering"},
		"draft_id":      d.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var q Quotation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&q))
	resp.Body.Close()
	assert.Len(t, q.Items, 1)

	resp, err := http.Get(server.URL + "/drafts/" + d.ID)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDraftRemoveItemEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/drafts", nil)
	var d Draft
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&d))
	resp.Body.Close()

	resp = postJSON(t, server.URL+"/drafts/"+d.ID+"/items", map[string]any{
		"part_no": "A", "description": "a", "qty": 1, "unit_price": "10",
	})
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/drafts/"+d.ID+"/items/0", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&d))
	assert.Empty(t, d.Items)

	req, err = http.NewRequest(http.MethodDelete, server.URL+"/drafts/"+d.ID+"/items/9", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// duplicateRepo forces Append to fail with ErrDuplicateRef.
type duplicateRepo struct {
	Repository
}

func (duplicateRepo) Append(context.Context, Quotation) error {
	return ErrDuplicateRef
}
