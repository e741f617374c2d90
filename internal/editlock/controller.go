// Package editlock управляет переключением draft/locked для результатов и этапов.
package editlock

import (
	"errors"

	"github.com/senyabanana/proposal-service/internal/models"
)

// Event - событие, меняющее состояние редактирования.
type Event string

const (
	Save Event = "save" // Успешное сохранение
	Edit Event = "edit" // Явный запрос пользователя на редактирование
)

// ErrLocked возвращается при попытке сохранить заблокированную сущность.
var ErrLocked = errors.New("entity is locked, request edit first")

// ErrIncomplete возвращается, если сохранение не может заблокировать сущность.
var ErrIncomplete = errors.New("entity is incomplete")

var allowedTransition = map[models.CompletionState]map[Event]models.CompletionState{
	models.DraftState: {
		Save: models.LockedState,
		Edit: models.DraftState,
	},
	models.LockedState: {
		Edit: models.DraftState,
	},
}

// Initial - состояние новой сущности.
func Initial() models.CompletionState {
	return models.DraftState
}

// Transition возвращает следующее состояние. complete учитывается только для Save.
func Transition(current models.CompletionState, event Event, complete bool) (models.CompletionState, error) {
	if current == "" {
		current = Initial()
	}
	next, ok := allowedTransition[current][event]
	if !ok {
		return current, ErrLocked
	}
	if event == Save && !complete {
		return current, ErrIncomplete
	}
	return next, nil
}

// CanSave сообщает, открыта ли сущность для сохранения.
func CanSave(current models.CompletionState) bool {
	_, ok := allowedTransition[current][Save]
	return ok || current == ""
}
