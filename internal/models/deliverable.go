package models

import "github.com/shopspring/decimal"

type (
	PricingMode     string // Способ ценообразования результата
	PricingUnit     string // Единица измерения этапа
	DeliveryMode    string // Кто выполняет этап
	CompletionState string // Состояние редактирования
)

const (
	FixedPrice    PricingMode = "fixed_price"     // Фиксированная цена
	RolledUpHours PricingMode = "rolled_up_hours" // Ставка × сумма единиц этапов

	Hours PricingUnit = "hours"
	Each  PricingUnit = "each"

	InternalDelivery DeliveryMode = "internal"
	SupplierDelivery DeliveryMode = "supplier"

	DraftState  CompletionState = "draft"  // Открыт для редактирования
	LockedState CompletionState = "locked" // Заморожен после сохранения
)

// Deliverable представляет позицию предложения.
type Deliverable struct {
	ID                string          `json:"id"`
	QuoteVersionID    string          `json:"quoteVersionId"`
	Order             int             `json:"order"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	PricingMode       PricingMode     `json:"pricingMode"`
	FixedPriceExGST   decimal.Decimal `json:"fixedPriceExGst"`
	DefaultClientRate decimal.Decimal `json:"defaultClientRate"`
	BudgetHours       decimal.Decimal `json:"budgetHours"`
	TotalUnits        decimal.Decimal `json:"totalUnits"`
	SubtotalExGST     decimal.Decimal `json:"subtotalExGst"`
	State             CompletionState `json:"completionState"`
	Milestones        []Milestone     `json:"milestones,omitempty"`
}

// DeliverableRequest представляет структуру запроса для сохранения результата.
// Пустой ID означает создание.
type DeliverableRequest struct {
	ID                string          `json:"id"`
	Order             *int            `json:"order"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	PricingMode       PricingMode     `json:"pricingMode"`
	FixedPriceExGST   decimal.Decimal `json:"fixedPriceExGst"`
	DefaultClientRate decimal.Decimal `json:"defaultClientRate"`
	BudgetHours       decimal.Decimal `json:"budgetHours"`
}

// Milestone представляет этап работ внутри результата.
type Milestone struct {
	ID                string          `json:"id"`
	DeliverableID     string          `json:"deliverableId"`
	Order             int             `json:"order"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	PricingUnit       PricingUnit     `json:"pricingUnit"`
	Quantity          decimal.Decimal `json:"quantity"`
	EstimatedHours    decimal.Decimal `json:"estimatedHours"`
	Billable          bool            `json:"billable"`
	DeliveryMode      DeliveryMode    `json:"deliveryMode"`
	SupplierName      string          `json:"supplierName"`
	CostRate          decimal.Decimal `json:"costRate"`
	ClientRate        decimal.Decimal `json:"clientRate"`
	ClientAmountExGST decimal.Decimal `json:"clientAmountExGst"`
	State             CompletionState `json:"completionState"`
}

// MilestoneRequest представляет структуру запроса для сохранения этапа.
// Пустой ID означает создание.
type MilestoneRequest struct {
	ID             string          `json:"id"`
	Order          *int            `json:"order"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	PricingUnit    PricingUnit     `json:"pricingUnit"`
	Quantity       decimal.Decimal `json:"quantity"`
	EstimatedHours decimal.Decimal `json:"estimatedHours"`
	Billable       bool            `json:"billable"`
	DeliveryMode   DeliveryMode    `json:"deliveryMode"`
	SupplierName   string          `json:"supplierName"`
	CostRate       decimal.Decimal `json:"costRate"`
	ClientRate     decimal.Decimal `json:"clientRate"`
}
