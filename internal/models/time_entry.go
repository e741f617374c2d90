package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout - формат календарной даты списания.
const DateLayout = "2006-01-02"

// TimeEntry представляет списание часов на этап проекта.
type TimeEntry struct {
	ID                 string          `json:"id"`
	ProjectMilestoneID string          `json:"projectMilestoneId"`
	EntryDate          time.Time       `json:"-"`
	Hours              decimal.Decimal `json:"hours"`
	Note               string          `json:"note"`
	CreatedBy          string          `json:"createdBy"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// MarshalJSON выводит дату списания без времени суток.
func (e TimeEntry) MarshalJSON() ([]byte, error) {
	type alias TimeEntry
	return json.Marshal(struct {
		alias
		EntryDate string `json:"entryDate"`
	}{alias: alias(e), EntryDate: e.EntryDate.Format(DateLayout)})
}

// LogTimeRequest представляет структуру запроса для списания времени.
type LogTimeRequest struct {
	ProjectMilestoneID string          `json:"projectMilestoneId"`
	Hours              decimal.Decimal `json:"hours"`
	Note               string          `json:"note"`
	EntryDate          string          `json:"entryDate"`
	OverrideAccepted   bool            `json:"overrideAccepted"`
}

// EditTimeEntryRequest - изменение существующего списания. Отсутствующие поля не меняются.
type EditTimeEntryRequest struct {
	Hours            *decimal.Decimal `json:"hours"`
	Note             *string          `json:"note"`
	EntryDate        *string          `json:"entryDate"`
	OverrideAccepted bool             `json:"overrideAccepted"`
}

// OverAllocationWarning - предупреждение о превышении бюджета часов.
// Не является ошибкой: повторная отправка с overrideAccepted=true выполняет запись.
type OverAllocationWarning struct {
	Budget    decimal.Decimal `json:"budget"`
	Remaining decimal.Decimal `json:"remaining"`
	Requested decimal.Decimal `json:"requested"`
	OverBy    decimal.Decimal `json:"overBy"`
}

// LogTimeResult - итог списания: запись, либо предупреждение без записи.
// При подтверждённом превышении заполнены оба поля.
type LogTimeResult struct {
	Entry      *TimeEntry             `json:"entry,omitempty"`
	Warning    *OverAllocationWarning `json:"warning,omitempty"`
	Overridden bool                   `json:"overridden,omitempty"`
}
