package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Project создаётся после принятия предложения и хранит собственные копии структуры.
type Project struct {
	ID             string               `json:"id"`
	QuoteID        string               `json:"quoteId"`
	QuoteVersionID string               `json:"quoteVersionId"`
	Title          string               `json:"title"`
	CreatedAt      time.Time            `json:"createdAt"`
	Deliverables   []ProjectDeliverable `json:"deliverables,omitempty"`
}

// ProjectDeliverable - копия результата с бюджетом часов.
type ProjectDeliverable struct {
	ID                  string             `json:"id"`
	ProjectID           string             `json:"projectId"`
	SourceDeliverableID string             `json:"sourceDeliverableId"`
	Order               int                `json:"order"`
	Title               string             `json:"title"`
	PlannedHours        decimal.Decimal    `json:"plannedHours"`
	Milestones          []ProjectMilestone `json:"milestones,omitempty"`
}

// ProjectMilestone - копия этапа, к которой списывается время.
type ProjectMilestone struct {
	ID                   string          `json:"id"`
	ProjectDeliverableID string          `json:"projectDeliverableId"`
	SourceMilestoneID    string          `json:"sourceMilestoneId"`
	Order                int             `json:"order"`
	Title                string          `json:"title"`
	PlannedHours         decimal.Decimal `json:"plannedHours"`
}

// Progress - плановые и списанные часы на одном уровне.
type Progress struct {
	PlannedHours decimal.Decimal `json:"plannedHours"`
	LoggedHours  decimal.Decimal `json:"loggedHours"`
	Percent      int             `json:"percent"`
}

// MilestoneProgress - прогресс этапа проекта.
type MilestoneProgress struct {
	MilestoneID string `json:"milestoneId"`
	Title       string `json:"title"`
	Progress
}

// DeliverableProgress - прогресс результата проекта.
type DeliverableProgress struct {
	DeliverableID string `json:"deliverableId"`
	Title         string `json:"title"`
	Progress
	Milestones []MilestoneProgress `json:"milestones"`
}

// ProjectProgress - прогресс проекта целиком.
type ProjectProgress struct {
	ProjectID string `json:"projectId"`
	Progress
	Deliverables []DeliverableProgress `json:"deliverables"`
}
