package repository

import (
	"context"
	"errors"

	"github.com/senyabanana/proposal-service/internal/models"

	"github.com/shopspring/decimal"
)

// ErrNotFound возвращается, если запись не найдена.
var ErrNotFound = errors.New("record not found")

// QuoteRepository - интерфейс для работы с предложениями и их версиями.
type QuoteRepository interface {
	NextQuoteSequence(ctx context.Context) (int64, error)
	CreateQuote(ctx context.Context, q *models.Quote) error
	GetQuote(ctx context.Context, quoteId string) (*models.Quote, error)
	GetQuoteByNumber(ctx context.Context, quoteNumber string) (*models.Quote, error)
	ListQuotes(ctx context.Context, statuses []string, limit, offset int) ([]models.Quote, error)
	UpdateQuoteStatus(ctx context.Context, quoteId string, status models.QuoteStatus) error

	CreateVersion(ctx context.Context, v *models.QuoteVersion) error
	GetVersion(ctx context.Context, versionId string) (*models.QuoteVersion, error)
	ListVersions(ctx context.Context, quoteId string) ([]models.QuoteVersion, error)
	MaxVersionNumber(ctx context.Context, quoteId string) (int, error)
	UpdateVersion(ctx context.Context, v *models.QuoteVersion) error
}

// DeliverableRepository - интерфейс для работы с результатами и этапами.
type DeliverableRepository interface {
	CreateDeliverable(ctx context.Context, d *models.Deliverable) error
	UpdateDeliverable(ctx context.Context, d *models.Deliverable) error
	GetDeliverable(ctx context.Context, deliverableId string) (*models.Deliverable, error)
	ListDeliverables(ctx context.Context, versionId string) ([]models.Deliverable, error)
	DeleteDeliverable(ctx context.Context, deliverableId string) error

	CreateMilestone(ctx context.Context, m *models.Milestone) error
	UpdateMilestone(ctx context.Context, m *models.Milestone) error
	GetMilestone(ctx context.Context, milestoneId string) (*models.Milestone, error)
	ListMilestones(ctx context.Context, deliverableId string) ([]models.Milestone, error)
	DeleteMilestone(ctx context.Context, milestoneId string) error
}

// ProjectRepository - интерфейс для работы с проектами.
type ProjectRepository interface {
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, projectId string) (*models.Project, error)
	GetProjectByQuote(ctx context.Context, quoteId string) (*models.Project, error)
	GetProjectMilestone(ctx context.Context, milestoneId string) (*models.ProjectMilestone, error)
	GetProjectDeliverable(ctx context.Context, deliverableId string) (*models.ProjectDeliverable, error)
}

// TimeEntryRepository - интерфейс для работы со списаниями времени.
type TimeEntryRepository interface {
	CreateTimeEntry(ctx context.Context, e *models.TimeEntry) error
	GetTimeEntry(ctx context.Context, entryId string) (*models.TimeEntry, error)
	UpdateTimeEntry(ctx context.Context, e *models.TimeEntry) error
	DeleteTimeEntry(ctx context.Context, entryId string) error
	ListTimeEntries(ctx context.Context, milestoneId string) ([]models.TimeEntry, error)
	ListProjectTimeEntries(ctx context.Context, projectId string) ([]models.TimeEntry, error)
	// SumDeliverableHours суммирует часы по всем этапам результата проекта,
	// не учитывая списание excludeEntryId (пустая строка - учитывать все).
	SumDeliverableHours(ctx context.Context, deliverableId, excludeEntryId string) (decimal.Decimal, error)
}

// AccessRepository - интерфейс для кодов доступа и действий клиентов.
type AccessRepository interface {
	UpsertAccessCode(ctx context.Context, c *models.QuoteAccessCode) error
	GetAccessCode(ctx context.Context, quoteId string) (*models.QuoteAccessCode, error)
	CreateQuoteAction(ctx context.Context, a *models.QuoteAction) error
	ListQuoteActions(ctx context.Context, quoteId string) ([]models.QuoteAction, error)
	// GetTerminalAction возвращает ответ клиента по версии или ErrNotFound.
	GetTerminalAction(ctx context.Context, versionId string) (*models.QuoteAction, error)
}

// Store объединяет репозитории и выполняет их в одной транзакции.
type Store interface {
	QuoteRepository
	DeliverableRepository
	ProjectRepository
	TimeEntryRepository
	AccessRepository

	// InTx выполняет fn в транзакции; ошибка fn откатывает все изменения.
	InTx(ctx context.Context, fn func(tx Store) error) error
	// Ping проверяет доступность хранилища.
	Ping(ctx context.Context) error
}
