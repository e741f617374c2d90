package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/proposal-service/internal/middleware"
	"github.com/senyabanana/proposal-service/internal/models"
	"github.com/senyabanana/proposal-service/internal/services"
	"github.com/senyabanana/proposal-service/internal/utils"
)

// DeliveryHandler - структура для обработки запросов к проектам и списаниям времени.
type DeliveryHandler struct {
	base
	Projects *services.ProjectService
	Time     *services.TimeService
}

// NewDeliveryHandler создаёт новый экземпляр DeliveryHandler.
func NewDeliveryHandler(projects *services.ProjectService, timeService *services.TimeService, logger *log.Logger, timeout time.Duration) *DeliveryHandler {
	return &DeliveryHandler{
		base:     base{Logger: logger, Timeout: timeout},
		Projects: projects,
		Time:     timeService,
	}
}

// GetQuoteProject обрабатывает запросы для получения проекта по предложению.
func (h *DeliveryHandler) GetQuoteProject(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	project, err := h.Projects.GetProjectByQuote(ctx, r.PathValue("quoteId"))
	if err != nil {
		h.fail(w, err, "failed to fetch project")
		return
	}
	h.respond(w, http.StatusOK, project)
}

// GetProgress обрабатывает запросы для получения прогресса проекта.
func (h *DeliveryHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	progress, err := h.Projects.Progress(ctx, r.PathValue("projectId"))
	if err != nil {
		h.fail(w, err, "failed to fetch project progress")
		return
	}
	h.respond(w, http.StatusOK, progress)
}

// GetTimeEntries обрабатывает запросы для получения списаний по этапу.
func (h *DeliveryHandler) GetTimeEntries(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	entries, err := h.Time.ListTimeEntries(ctx, r.PathValue("milestoneId"))
	if err != nil {
		h.fail(w, err, "failed to fetch time entries")
		return
	}
	h.respond(w, http.StatusOK, entries)
}

// LogTime обрабатывает запросы для списания времени на этап.
func (h *DeliveryHandler) LogTime(w http.ResponseWriter, r *http.Request) {
	author, ok := subject(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.context(r)
	defer cancel()

	var logReq models.LogTimeRequest
	if err := decode(r, &logReq); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	logReq.ProjectMilestoneID = r.PathValue("milestoneId")

	result, err := h.Time.LogTime(ctx, logReq, author)
	if err != nil {
		h.fail(w, err, "failed to log time")
		return
	}
	h.allocationResult(w, result)
}

// EditTimeEntry обрабатывает запросы для изменения списания.
func (h *DeliveryHandler) EditTimeEntry(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var editReq models.EditTimeEntryRequest
	if err := decode(r, &editReq); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Time.EditTimeEntry(ctx, r.PathValue("entryId"), editReq)
	if err != nil {
		h.fail(w, err, "failed to edit time entry")
		return
	}
	h.allocationResult(w, result)
}

// DeleteTimeEntry обрабатывает запросы для удаления списания.
func (h *DeliveryHandler) DeleteTimeEntry(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	entryId := r.PathValue("entryId")
	if err := h.Time.DeleteTimeEntry(ctx, entryId); err != nil {
		h.fail(w, err, "failed to delete time entry")
		return
	}
	author, _ := middleware.Subject(r.Context())
	h.Logger.Printf("time entry %s deleted by %s", entryId, author)
	w.WriteHeader(http.StatusNoContent)
}
