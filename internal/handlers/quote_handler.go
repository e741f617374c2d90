package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/proposal-service/internal/models"
	"github.com/senyabanana/proposal-service/internal/services"
	"github.com/senyabanana/proposal-service/internal/utils"
)

// QuoteHandler - структура для обработки HTTP-запросов к предложениям и версиям.
type QuoteHandler struct {
	base
	Service *services.QuoteService
}

// NewQuoteHandler создаёт новый экземпляр QuoteHandler.
func NewQuoteHandler(service *services.QuoteService, logger *log.Logger, timeout time.Duration) *QuoteHandler {
	return &QuoteHandler{
		base:    base{Logger: logger, Timeout: timeout},
		Service: service,
	}
}

// CreateQuote обрабатывает запросы для создания предложения.
func (h *QuoteHandler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	author, ok := subject(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.context(r)
	defer cancel()

	var quoteReq models.QuoteRequest
	if err := decode(r, &quoteReq); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	detail, err := h.Service.CreateQuote(ctx, quoteReq, author)
	if err != nil {
		h.fail(w, err, "failed to create quote")
		return
	}
	h.respond(w, http.StatusOK, detail)
}

// GetQuotes обрабатывает запросы для получения списка предложений.
func (h *QuoteHandler) GetQuotes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	limit, offset, err := utils.ParseLimitOffset(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	if err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	quotes, err := h.Service.ListQuotes(ctx, r.URL.Query()["status"], limit, offset)
	if err != nil {
		h.fail(w, err, "failed to fetch quotes")
		return
	}
	h.respond(w, http.StatusOK, quotes)
}

// GetQuote обрабатывает запросы для получения предложения с текущей версией.
func (h *QuoteHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	detail, err := h.Service.GetQuote(ctx, r.PathValue("quoteId"))
	if err != nil {
		h.fail(w, err, "failed to fetch quote")
		return
	}
	h.respond(w, http.StatusOK, detail)
}

// UpdateQuoteStatus обрабатывает запросы для изменения статуса предложения автором.
func (h *QuoteHandler) UpdateQuoteStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	status := models.QuoteStatus(r.URL.Query().Get("status"))
	if status == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "status is required")
		return
	}

	quote, err := h.Service.UpdateQuoteStatus(ctx, r.PathValue("quoteId"), status)
	if err != nil {
		h.fail(w, err, "failed to update quote status")
		return
	}
	h.respond(w, http.StatusOK, quote)
}

// GetVersions обрабатывает запросы для получения истории версий.
func (h *QuoteHandler) GetVersions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	versions, err := h.Service.ListVersions(ctx, r.PathValue("quoteId"))
	if err != nil {
		h.fail(w, err, "failed to fetch versions")
		return
	}
	h.respond(w, http.StatusOK, versions)
}

// CreateVersion обрабатывает запросы для создания новой версии.
func (h *QuoteHandler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	author, ok := subject(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.context(r)
	defer cancel()

	version, err := h.Service.CreateVersion(ctx, r.PathValue("quoteId"), author)
	if err != nil {
		h.fail(w, err, "failed to create version")
		return
	}
	h.respond(w, http.StatusOK, version)
}

// GetVersion обрабатывает запросы для получения конкретной версии.
func (h *QuoteHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	detail, err := h.Service.GetVersion(ctx, r.PathValue("versionId"))
	if err != nil {
		h.fail(w, err, "failed to fetch version")
		return
	}
	h.respond(w, http.StatusOK, detail)
}

// UpdateVersionTerms обрабатывает запросы для изменения GST и условий версии.
func (h *QuoteHandler) UpdateVersionTerms(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var termsReq models.VersionTermsRequest
	if err := decode(r, &termsReq); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	version, err := h.Service.UpdateVersionTerms(ctx, r.PathValue("versionId"), termsReq)
	if err != nil {
		h.fail(w, err, "failed to update version terms")
		return
	}
	h.respond(w, http.StatusOK, version)
}
