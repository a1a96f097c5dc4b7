package quotes

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/quotemill/quotemill/internal/platform/httpx"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	drafts   *DraftStore
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, drafts *DraftStore) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		drafts:   drafts,
		validate: validator.New(),
	}
}

// ============================================================
// Quotations
// ============================================================

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateQuotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	q, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondError(w, "create quotation", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListQuotationsRequest{
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	summaries, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, "list quotations", err)
		return
	}
	if summaries == nil {
		summaries = []QuotationSummary{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"quotations": summaries,
		"total":      total,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.Get(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		h.respondError(w, "get quotation", err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	data, filename, err := h.service.RenderPDF(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		h.respondError(w, "render quotation pdf", err)
		return
	}
	writePDF(w, data, filename)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if err := h.service.Export(r.Context(), reference); err != nil {
		h.respondError(w, "enqueue quotation export", err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{
		"reference": reference,
		"status":    "queued",
	})
}

func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	data, filename, err := h.service.Document(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		h.respondError(w, "get exported document", err)
		return
	}
	writePDF(w, data, filename)
}

func (h *Handler) ClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearAll(r.Context()); err != nil {
		h.respondError(w, "clear quotations", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================
// Drafts
// ============================================================

func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.Create(r.Context())
	if err != nil {
		h.respondError(w, "create draft", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, d)
}

func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "get draft", err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) AddDraftItem(w http.ResponseWriter, r *http.Request) {
	var req CreateLineItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	d, err := h.drafts.AddItem(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondError(w, "add draft item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) RemoveDraftItem(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Index", "item index must be an integer")
		return
	}

	d, err := h.drafts.RemoveItem(r.Context(), chi.URLParam(r, "id"), index)
	if err != nil {
		h.respondError(w, "remove draft item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) ClearDraftItems(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.Clear(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "clear draft items", err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.drafts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, "delete draft", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================
// Helpers
// ============================================================

func (h *Handler) respondError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDraftNotFound), errors.Is(err, ErrNoDocument):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicateRef):
		httpx.Problem(w, http.StatusConflict, "Duplicate Reference", err.Error())
	case errors.Is(err, ErrNoItems),
		errors.Is(err, ErrInvalidPercent),
		errors.Is(err, ErrInvalidItem),
		errors.Is(err, ErrItemIndex):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(action, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func writePDF(w http.ResponseWriter, data []byte, filename string) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}
