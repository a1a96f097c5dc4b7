package quotes

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches the quotation endpoints. The caller mounts this under
// /quotations.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Delete("/", h.ClearAll)
	r.Get("/{reference}", h.Get)
	r.Get("/{reference}/pdf", h.DownloadPDF)
	r.Post("/{reference}/export", h.Export)
	r.Get("/{reference}/document", h.Document)
}

// MountDraftRoutes attaches the draft line-item buffer endpoints. The caller
// mounts this under /drafts.
func (h *Handler) MountDraftRoutes(r chi.Router) {
	r.Post("/", h.CreateDraft)
	r.Get("/{id}", h.GetDraft)
	r.Delete("/{id}", h.DeleteDraft)
	r.Post("/{id}/items", h.AddDraftItem)
	r.Delete("/{id}/items", h.ClearDraftItems)
	r.Delete("/{id}/items/{index}", h.RemoveDraftItem)
}
