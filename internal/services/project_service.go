package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/senyabanana/proposal-service/internal/ledger"
	"github.com/senyabanana/proposal-service/internal/models"
	"github.com/senyabanana/proposal-service/internal/repository"

	"github.com/shopspring/decimal"
)

type ProjectService struct {
	Store  repository.Store
	Logger *log.Logger
	now    func() time.Time
}

// NewProjectService создаёт новый экземпляр ProjectService.
func NewProjectService(store repository.Store, logger *log.Logger) *ProjectService {
	return &ProjectService{Store: store, Logger: logger, now: time.Now}
}

// materialize копирует структуру принятой версии в проект. Повторный вызов возвращает уже созданный проект.
func (s *ProjectService) materialize(ctx context.Context, tx repository.Store, quote *models.Quote, versionId string) (*models.Project, error) {
	existing, err := tx.GetProjectByQuote(ctx, quote.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	deliverables, err := loadTree(ctx, tx, versionId)
	if err != nil {
		return nil, err
	}

	project := &models.Project{
		QuoteID:        quote.ID,
		QuoteVersionID: versionId,
		Title:          quote.Title,
		CreatedAt:      s.now(),
	}
	for _, d := range deliverables {
		pd := models.ProjectDeliverable{
			SourceDeliverableID: d.ID,
			Order:               d.Order,
			Title:               d.Title,
			PlannedHours:        decimal.Zero,
		}
		for _, m := range d.Milestones {
			pd.Milestones = append(pd.Milestones, models.ProjectMilestone{
				SourceMilestoneID: m.ID,
				Order:             m.Order,
				Title:             m.Title,
				PlannedHours:      m.EstimatedHours,
			})
			pd.PlannedHours = pd.PlannedHours.Add(m.EstimatedHours)
		}
		project.Deliverables = append(project.Deliverables, pd)
	}

	if err := tx.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Printf("quote %s: project %s materialized", quote.QuoteNumber, project.ID)
	}
	return project, nil
}

// MaterializeProject создаёт проект по принятому предложению.
func (s *ProjectService) MaterializeProject(ctx context.Context, quoteId string) (*models.Project, error) {
	var project *models.Project
	err := s.Store.InTx(ctx, func(tx repository.Store) error {
		quote, err := tx.GetQuote(ctx, quoteId)
		if err != nil {
			return notFound(err, "quote", quoteId)
		}
		if quote.Status != models.ApprovedQuote {
			return models.NewStateConflictError("quote is not approved", quote.Status)
		}
		actions, err := tx.ListQuoteActions(ctx, quoteId)
		if err != nil {
			return err
		}
		versionId := ""
		for _, a := range actions {
			if a.Action == models.ApprovedAction {
				versionId = a.QuoteVersionID
			}
		}
		if versionId == "" {
			return models.NewStateConflictError("quote has no approved version", quote.Status)
		}
		project, err = s.materialize(ctx, tx, quote, versionId)
		return err
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// GetProjectByQuote возвращает проект, созданный из предложения.
func (s *ProjectService) GetProjectByQuote(ctx context.Context, quoteId string) (*models.Project, error) {
	project, err := s.Store.GetProjectByQuote(ctx, quoteId)
	if err != nil {
		return nil, notFound(err, "project for quote", quoteId)
	}
	return project, nil
}

// GetProject возвращает проект со структурой.
func (s *ProjectService) GetProject(ctx context.Context, projectId string) (*models.Project, error) {
	project, err := s.Store.GetProject(ctx, projectId)
	if err != nil {
		return nil, notFound(err, "project", projectId)
	}
	return project, nil
}

// Progress считает плановые и списанные часы проекта на всех уровнях.
func (s *ProjectService) Progress(ctx context.Context, projectId string) (*models.ProjectProgress, error) {
	project, err := s.GetProject(ctx, projectId)
	if err != nil {
		return nil, err
	}
	entries, err := s.Store.ListProjectTimeEntries(ctx, projectId)
	if err != nil {
		return nil, err
	}
	progress := ledger.Build(*project, entries)
	return &progress, nil
}
