package company

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/quotemill/quotemill/internal/platform/httpx"
)

// maxLogoBytes bounds logo uploads; anything bigger than this is not a logo.
const maxLogoBytes = 2 << 20

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Get(r.Context())
	if err != nil {
		h.logger.Error("get company profile", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var p Profile
	if err := httpx.DecodeJSON(r, &p); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(p); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.Save(r.Context(), p); err != nil {
		h.logger.Error("save company profile", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) GetLogo(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Logo(r.Context())
	if err != nil {
		if errors.Is(err, ErrNoLogo) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no logo uploaded")
			return
		}
		h.logger.Error("get company logo", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) SaveLogo(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxLogoBytes+1))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if len(data) > maxLogoBytes {
		httpx.Problem(w, http.StatusRequestEntityTooLarge, "Too Large", "logo exceeds 2 MiB")
		return
	}
	if err := h.service.SaveLogo(r.Context(), data); err != nil {
		if errors.Is(err, ErrInvalidLogo) {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Logo", err.Error())
			return
		}
		h.logger.Error("save company logo", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
