// Package allocation проверяет, укладывается ли запрошенное количество часов в бюджет.
//
// Протокол общий для двух мест вызова: предложить -> (принято | предупреждение) ->
// подтвердить и повторить. Политика места вызова определяет, можно ли подтвердить
// превышение.
package allocation

import (
	"time"

	"github.com/senyabanana/proposal-service/internal/models"
	"github.com/senyabanana/proposal-service/internal/validation"

	"github.com/shopspring/decimal"
)

// MaxEntryHours - верхняя граница часов одного списания.
var MaxEntryHours = decimal.NewFromInt(12)

// Policy настраивает проверку для конкретного места вызова.
type Policy struct {
	Enabled       bool // false - бюджет не проверяется вовсе
	AllowOverride bool // false - превышение блокируется без возможности подтверждения
}

var (
	// AuthoringPolicy - этап составления предложения: превышение блокирует сохранение.
	AuthoringPolicy = Policy{Enabled: true, AllowOverride: false}
	// DeliveryPolicy - списание времени: превышение можно подтвердить.
	DeliveryPolicy = Policy{Enabled: true, AllowOverride: true}
)

// Request - входные данные проверки.
type Request struct {
	Budget                 decimal.Decimal // 0 - без ограничения
	CommittedExcludingThis decimal.Decimal
	Requested              decimal.Decimal
	OverrideAccepted       bool
}

// Decision - результат проверки.
type Decision struct {
	Accepted   bool
	Overridden bool
	Warning    *models.OverAllocationWarning
}

// Guard применяет политику к запросам.
type Guard struct {
	Policy Policy
}

func NewGuard(policy Policy) Guard {
	return Guard{Policy: policy}
}

// Check решает, можно ли выполнить запись.
func (g Guard) Check(req Request) Decision {
	if !g.Policy.Enabled || req.Budget.IsZero() {
		return Decision{Accepted: true}
	}

	after := req.CommittedExcludingThis.Add(req.Requested)
	if after.LessThanOrEqual(req.Budget) {
		return Decision{Accepted: true}
	}

	warning := &models.OverAllocationWarning{
		Budget:    req.Budget,
		Remaining: decimal.Max(decimal.Zero, req.Budget.Sub(req.CommittedExcludingThis)),
		Requested: req.Requested,
		OverBy:    after.Sub(req.Budget),
	}
	if req.OverrideAccepted && g.Policy.AllowOverride {
		return Decision{Accepted: true, Overridden: true, Warning: warning}
	}
	return Decision{Accepted: false, Warning: warning}
}

// ValidateTimeEntry проверяет жёсткие ограничения списания, которые нельзя подтвердить.
func ValidateTimeEntry(hours decimal.Decimal, entryDate time.Time, milestoneID string) validation.Violations {
	v := validation.Violations{}
	validation.Required("projectMilestoneId", milestoneID, v)
	if entryDate.IsZero() {
		v["entryDate"] = "required"
	}
	validation.RangeExclusiveMin("hours", hours, decimal.Zero, MaxEntryHours, v)
	return v
}
