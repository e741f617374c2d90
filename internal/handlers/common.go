package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/proposal-service/internal/middleware"
	"github.com/senyabanana/proposal-service/internal/models"
	"github.com/senyabanana/proposal-service/internal/utils"
)

// base - общие поля обработчиков.
type base struct {
	Logger  *log.Logger
	Timeout time.Duration
}

func (h base) context(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.Timeout)
}

// fail переводит ошибку сервиса в ответ. Неизвестные ошибки скрываются за fallback.
func (h base) fail(w http.ResponseWriter, err error, fallback string) {
	h.Logger.Println(err)
	var errorResponse *models.ErrorResponse
	if errors.As(err, &errorResponse) {
		if errorResponse.StatusCode == 0 {
			errorResponse.StatusCode = http.StatusBadRequest
		}
		utils.SendError(w, errorResponse)
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		utils.SendErrorResponse(w, http.StatusGatewayTimeout, "request timed out")
		return
	}
	utils.SendErrorResponse(w, http.StatusInternalServerError, fallback)
}

func (h base) respond(w http.ResponseWriter, statusCode int, body any) {
	if err := utils.SendJSON(w, statusCode, body); err != nil {
		h.Logger.Println(err)
	}
}

func decode(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

// subject возвращает автора запроса; маршрут должен быть закрыт middleware.Auth.
func subject(w http.ResponseWriter, r *http.Request) (string, bool) {
	sub, ok := middleware.Subject(r.Context())
	if !ok {
		utils.SendError(w, &models.ErrorResponse{
			StatusCode: http.StatusUnauthorized,
			Kind:       models.Unauthenticated,
			Message:    "authenticated subject required",
		})
	}
	return sub, ok
}

// allocationResult отвечает на списание времени: 428 для неподтверждённого превышения.
func (h base) allocationResult(w http.ResponseWriter, result *models.LogTimeResult) {
	if result.Entry == nil && result.Warning != nil {
		h.respond(w, http.StatusPreconditionRequired, result)
		return
	}
	h.respond(w, http.StatusOK, result)
}
