package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteStatus - статус коммерческого предложения.
type QuoteStatus string

const (
	DraftQuote     QuoteStatus = "draft"     // Предложение в работе
	PublishedQuote QuoteStatus = "published" // Клиенту выдан код доступа
	ApprovedQuote  QuoteStatus = "approved"  // Клиент принял предложение
	RejectedQuote  QuoteStatus = "rejected"  // Клиент отклонил предложение
)

// IsTerminal сообщает, записан ли ответ клиента.
func (s QuoteStatus) IsTerminal() bool {
	return s == ApprovedQuote || s == RejectedQuote
}

// Quote представляет модель коммерческого предложения.
type Quote struct {
	ID              string      `json:"id"`
	QuoteNumber     string      `json:"quoteNumber"`
	Title           string      `json:"title"`
	Status          QuoteStatus `json:"status"`
	OrganisationRef string      `json:"organisationRef"`
	ContactRef      string      `json:"contactRef"`
	ContactEmail    string      `json:"contactEmail,omitempty"`
	Currency        string      `json:"currency"`
	CreatedBy       string      `json:"createdBy"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// QuoteRequest представляет структуру запроса для создания предложения.
type QuoteRequest struct {
	Title           string `json:"title"`
	OrganisationRef string `json:"organisationRef"`
	ContactRef      string `json:"contactRef"`
	ContactEmail    string `json:"contactEmail"`
	Currency        string `json:"currency"`
}

// PricingPolicy описывает правила начисления GST для версии.
type PricingPolicy struct {
	GSTEnabled       bool            `json:"gstEnabled"`
	GSTRate          decimal.Decimal `json:"gstRate"`
	PricesIncludeGST bool            `json:"pricesIncludeGst"`
}

// QuoteNotes - текстовые условия версии.
type QuoteNotes struct {
	ClientNotes string `json:"clientNotes"`
	Assumptions string `json:"assumptions"`
	Exclusions  string `json:"exclusions"`
	Terms       string `json:"terms"`
}

// QuoteVersion представляет пронумерованный снимок коммерческих условий.
type QuoteVersion struct {
	ID            string          `json:"id"`
	QuoteID       string          `json:"quoteId"`
	VersionNumber int             `json:"versionNumber"`
	Pricing       PricingPolicy   `json:"pricing"`
	SubtotalExGST decimal.Decimal `json:"subtotalExGst"`
	GSTAmount     decimal.Decimal `json:"gstAmount"`
	TotalIncGST   decimal.Decimal `json:"totalIncGst"`
	Notes         QuoteNotes      `json:"notes"`
	CreatedBy     string          `json:"createdBy"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// VersionTermsRequest - запрос на изменение условий текущей версии.
// Отсутствующие поля не меняются.
type VersionTermsRequest struct {
	Pricing *PricingPolicy `json:"pricing"`
	Notes   *QuoteNotes    `json:"notes"`
}

// QuoteDetail - предложение вместе с текущей версией и её структурой.
type QuoteDetail struct {
	Quote        Quote         `json:"quote"`
	Version      QuoteVersion  `json:"version"`
	Deliverables []Deliverable `json:"deliverables"`
	Response     *QuoteAction  `json:"response,omitempty"`
}
