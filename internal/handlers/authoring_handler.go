package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/proposal-service/internal/models"
	"github.com/senyabanana/proposal-service/internal/services"
	"github.com/senyabanana/proposal-service/internal/utils"
)

// AuthoringHandler - структура для обработки HTTP-запросов к результатам и этапам.
type AuthoringHandler struct {
	base
	Service *services.AuthoringService
}

// NewAuthoringHandler создаёт новый экземпляр AuthoringHandler.
func NewAuthoringHandler(service *services.AuthoringService, logger *log.Logger, timeout time.Duration) *AuthoringHandler {
	return &AuthoringHandler{
		base:    base{Logger: logger, Timeout: timeout},
		Service: service,
	}
}

// editFocus - новая сущность в draft; клиент сразу открывает её на редактирование.
type editFocus[T any] struct {
	Item      T    `json:"item"`
	EditFocus bool `json:"editFocus"`
}

// AddDeliverable обрабатывает запросы для добавления пустого результата.
func (h *AuthoringHandler) AddDeliverable(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	deliverable, err := h.Service.AddDeliverable(ctx, r.PathValue("versionId"))
	if err != nil {
		h.fail(w, err, "failed to add deliverable")
		return
	}
	h.respond(w, http.StatusOK, editFocus[*models.Deliverable]{Item: deliverable, EditFocus: true})
}

// SaveDeliverable обрабатывает запросы для сохранения результата.
func (h *AuthoringHandler) SaveDeliverable(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var deliverableReq models.DeliverableRequest
	if err := decode(r, &deliverableReq); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	deliverable, err := h.Service.UpsertDeliverable(ctx, r.PathValue("versionId"), deliverableReq)
	if err != nil {
		h.fail(w, err, "failed to save deliverable")
		return
	}
	h.respond(w, http.StatusOK, deliverable)
}

// EditDeliverable обрабатывает запросы для снятия блокировки с результата.
func (h *AuthoringHandler) EditDeliverable(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	deliverable, err := h.Service.EditDeliverable(ctx, r.PathValue("deliverableId"))
	if err != nil {
		h.fail(w, err, "failed to edit deliverable")
		return
	}
	h.respond(w, http.StatusOK, deliverable)
}

// DeleteDeliverable обрабатывает запросы для удаления результата.
func (h *AuthoringHandler) DeleteDeliverable(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	version, err := h.Service.DeleteDeliverable(ctx, r.PathValue("deliverableId"))
	if err != nil {
		h.fail(w, err, "failed to delete deliverable")
		return
	}
	h.respond(w, http.StatusOK, version)
}

// AddMilestone обрабатывает запросы для добавления пустого этапа.
func (h *AuthoringHandler) AddMilestone(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	milestone, err := h.Service.AddMilestone(ctx, r.PathValue("deliverableId"))
	if err != nil {
		h.fail(w, err, "failed to add milestone")
		return
	}
	h.respond(w, http.StatusOK, editFocus[*models.Milestone]{Item: milestone, EditFocus: true})
}

// SaveMilestone обрабатывает запросы для сохранения этапа.
func (h *AuthoringHandler) SaveMilestone(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var milestoneReq models.MilestoneRequest
	if err := decode(r, &milestoneReq); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	milestone, err := h.Service.UpsertMilestone(ctx, r.PathValue("deliverableId"), milestoneReq)
	if err != nil {
		h.fail(w, err, "failed to save milestone")
		return
	}
	h.respond(w, http.StatusOK, milestone)
}

// EditMilestone обрабатывает запросы для снятия блокировки с этапа.
func (h *AuthoringHandler) EditMilestone(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	milestone, err := h.Service.EditMilestone(ctx, r.PathValue("milestoneId"))
	if err != nil {
		h.fail(w, err, "failed to edit milestone")
		return
	}
	h.respond(w, http.StatusOK, milestone)
}

// DeleteMilestone обрабатывает запросы для удаления этапа.
func (h *AuthoringHandler) DeleteMilestone(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	deliverable, err := h.Service.DeleteMilestone(ctx, r.PathValue("milestoneId"))
	if err != nil {
		h.fail(w, err, "failed to delete milestone")
		return
	}
	h.respond(w, http.StatusOK, deliverable)
}
