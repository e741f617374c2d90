package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteActionType - действие клиента над опубликованным предложением.
type QuoteActionType string

const (
	ViewedAction   QuoteActionType = "viewed"   // Клиент открыл предложение
	ApprovedAction QuoteActionType = "approved" // Клиент принял предложение
	RejectedAction QuoteActionType = "rejected" // Клиент отклонил предложение
)

// IsTerminal сообщает, закрывает ли действие предложение для ответа.
func (a QuoteActionType) IsTerminal() bool {
	return a == ApprovedAction || a == RejectedAction
}

// QuoteAccessCode связывает клиентскую сессию с версией предложения.
type QuoteAccessCode struct {
	ID             string     `json:"id"`
	QuoteID        string     `json:"quoteId"`
	QuoteVersionID string     `json:"quoteVersionId"`
	Code           string     `json:"code"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Expired сообщает, истёк ли код к моменту now.
func (c QuoteAccessCode) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// QuoteAction представляет запись о действии клиента.
type QuoteAction struct {
	ID             string          `json:"id"`
	QuoteID        string          `json:"quoteId"`
	QuoteVersionID string          `json:"quoteVersionId"`
	Action         QuoteActionType `json:"action"`
	ClientName     string          `json:"clientName"`
	Note           string          `json:"note,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// QuoteActionRequest представляет структуру запроса клиента.
type QuoteActionRequest struct {
	Action     QuoteActionType `json:"action"`
	ClientName string          `json:"clientName"`
	Note       string          `json:"note"`
}

// PublishRequest - запрос на публикацию предложения.
type PublishRequest struct {
	ExpiresAt *time.Time `json:"expiresAt"`
}

// PublishResult - результат публикации.
type PublishResult struct {
	AccessCode string     `json:"accessCode"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	Link       string     `json:"link"`
	EmailSent  bool       `json:"emailSent"`
	EmailError string     `json:"emailError,omitempty"`
}

// PublicMilestone - этап в клиентском представлении, без себестоимости.
type PublicMilestone struct {
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	PricingUnit       PricingUnit     `json:"pricingUnit"`
	Units             decimal.Decimal `json:"units"`
	ClientAmountExGST decimal.Decimal `json:"clientAmountExGst"`
}

// PublicDeliverable - результат в клиентском представлении.
type PublicDeliverable struct {
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	PricingMode   PricingMode       `json:"pricingMode"`
	TotalUnits    decimal.Decimal   `json:"totalUnits"`
	SubtotalExGST decimal.Decimal   `json:"subtotalExGst"`
	Milestones    []PublicMilestone `json:"milestones"`
}

// PublicQuoteView - то, что видит клиент по коду доступа.
type PublicQuoteView struct {
	QuoteNumber   string              `json:"quoteNumber"`
	Title         string              `json:"title"`
	Currency      string              `json:"currency"`
	VersionNumber int                 `json:"versionNumber"`
	Pricing       PricingPolicy       `json:"pricing"`
	SubtotalExGST decimal.Decimal     `json:"subtotalExGst"`
	GSTAmount     decimal.Decimal     `json:"gstAmount"`
	TotalIncGST   decimal.Decimal     `json:"totalIncGst"`
	Notes         QuoteNotes          `json:"notes"`
	Deliverables  []PublicDeliverable `json:"deliverables"`
	Response      *QuoteAction        `json:"response,omitempty"`
	CanRespond    bool                `json:"canRespond"`
}
