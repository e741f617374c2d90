package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/proposal-service/internal/models"
	"github.com/senyabanana/proposal-service/internal/services"
	"github.com/senyabanana/proposal-service/internal/utils"
)

// viewedCookiePrefix - отметка браузера о том, что просмотр уже записан.
const viewedCookiePrefix = "quote_viewed_"

// PublishHandler - структура для обработки публикации и клиентских ответов.
type PublishHandler struct {
	base
	Service *services.PublishService
}

// NewPublishHandler создаёт новый экземпляр PublishHandler.
func NewPublishHandler(service *services.PublishService, logger *log.Logger, timeout time.Duration) *PublishHandler {
	return &PublishHandler{
		base:    base{Logger: logger, Timeout: timeout},
		Service: service,
	}
}

// PublishQuote обрабатывает запросы для выдачи кода доступа к предложению.
// Тело запроса необязательно.
func (h *PublishHandler) PublishQuote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var publishReq models.PublishRequest
	if err := decode(r, &publishReq); err != nil && !errors.Is(err, io.EOF) {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.PublishQuote(ctx, r.PathValue("quoteId"), publishReq)
	if err != nil {
		h.fail(w, err, "failed to publish quote")
		return
	}
	h.respond(w, http.StatusOK, result)
}

// ViewQuote обрабатывает клиентский просмотр предложения по коду доступа.
func (h *PublishHandler) ViewQuote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	quoteNumber := r.PathValue("quoteNumber")
	cookieName := viewedCookiePrefix + quoteNumber
	_, cookieErr := r.Cookie(cookieName)
	alreadyViewed := cookieErr == nil

	view, err := h.Service.ViewQuote(ctx, quoteNumber, r.URL.Query().Get("code"), alreadyViewed)
	if err != nil {
		h.fail(w, err, "failed to fetch quote")
		return
	}

	if !alreadyViewed {
		http.SetCookie(w, &http.Cookie{
			Name:     cookieName,
			Value:    "1",
			Path:     "/",
			MaxAge:   int((365 * 24 * time.Hour).Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	h.respond(w, http.StatusOK, view)
}

// RecordAction обрабатывает ответ клиента: viewed, approved или rejected.
func (h *PublishHandler) RecordAction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var actionReq models.QuoteActionRequest
	if err := decode(r, &actionReq); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	action, err := h.Service.RecordQuoteAction(ctx, r.PathValue("quoteNumber"), r.URL.Query().Get("code"), actionReq)
	if err != nil {
		h.fail(w, err, "failed to record quote action")
		return
	}
	h.respond(w, http.StatusOK, action)
}
