package services

import (
	"context"
	"log"
	"time"

	"github.com/senyabanana/proposal-service/internal/allocation"
	"github.com/senyabanana/proposal-service/internal/metrics"
	"github.com/senyabanana/proposal-service/internal/models"
	"github.com/senyabanana/proposal-service/internal/repository"
	"github.com/senyabanana/proposal-service/internal/validation"
)

// TimeService списывает время на этапы проекта с проверкой бюджета результата.
type TimeService struct {
	Store   repository.Store
	Guard   allocation.Guard
	Metrics *metrics.Metrics
	Logger  *log.Logger
	now     func() time.Time
}

// NewTimeService создаёт новый экземпляр TimeService.
func NewTimeService(store repository.Store, m *metrics.Metrics, logger *log.Logger) *TimeService {
	return &TimeService{
		Store:   store,
		Guard:   allocation.NewGuard(allocation.DeliveryPolicy),
		Metrics: m,
		Logger:  logger,
		now:     time.Now,
	}
}

func parseEntryDate(value string, v validation.Violations) time.Time {
	if value == "" {
		return time.Time{}
	}
	date, err := time.Parse(models.DateLayout, value)
	if err != nil {
		v["entryDate"] = "invalid_date"
		return time.Time{}
	}
	return date
}

// check выполняет проверку бюджета результата, к которому относится этап.
func (s *TimeService) check(ctx context.Context, tx repository.Store, milestoneId, excludeEntryId string, req allocation.Request) (allocation.Decision, error) {
	milestone, err := tx.GetProjectMilestone(ctx, milestoneId)
	if err != nil {
		return allocation.Decision{}, notFound(err, "project milestone", milestoneId)
	}
	deliverable, err := tx.GetProjectDeliverable(ctx, milestone.ProjectDeliverableID)
	if err != nil {
		return allocation.Decision{}, notFound(err, "project deliverable", milestone.ProjectDeliverableID)
	}
	committed, err := tx.SumDeliverableHours(ctx, deliverable.ID, excludeEntryId)
	if err != nil {
		return allocation.Decision{}, err
	}

	req.Budget = deliverable.PlannedHours
	req.CommittedExcludingThis = committed
	decision := s.Guard.Check(req)
	if s.Metrics != nil {
		switch {
		case !decision.Accepted:
			s.Metrics.AllocationWarnings.WithLabelValues("delivery").Inc()
		case decision.Overridden:
			s.Metrics.AllocationOverride.Inc()
		}
	}
	return decision, nil
}

// LogTime создаёт списание. При превышении бюджета без подтверждения запись не выполняется,
// а в результате возвращается предупреждение.
func (s *TimeService) LogTime(ctx context.Context, req models.LogTimeRequest, subject string) (*models.LogTimeResult, error) {
	v := validation.Violations{}
	entryDate := parseEntryDate(req.EntryDate, v)
	for field, reason := range allocation.ValidateTimeEntry(req.Hours, entryDate, req.ProjectMilestoneID) {
		if _, ok := v[field]; !ok {
			v[field] = reason
		}
	}
	if !v.Empty() {
		return nil, invalid(v)
	}

	result := &models.LogTimeResult{}
	err := s.Store.InTx(ctx, func(tx repository.Store) error {
		decision, err := s.check(ctx, tx, req.ProjectMilestoneID, "", allocation.Request{
			Requested:        req.Hours,
			OverrideAccepted: req.OverrideAccepted,
		})
		if err != nil {
			return err
		}
		result.Warning = decision.Warning
		result.Overridden = decision.Overridden
		if !decision.Accepted {
			return nil
		}

		entry := &models.TimeEntry{
			ProjectMilestoneID: req.ProjectMilestoneID,
			EntryDate:          entryDate,
			Hours:              req.Hours,
			Note:               req.Note,
			CreatedBy:          subject,
			CreatedAt:          s.now(),
		}
		if err := tx.CreateTimeEntry(ctx, entry); err != nil {
			return err
		}
		result.Entry = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Overridden {
		s.Logger.Printf("time entry %s logged over budget by %s", result.Entry.ID, result.Warning.OverBy)
	}
	return result, nil
}

// EditTimeEntry меняет списание. Бюджет проверяется по сумме без старого значения записи.
func (s *TimeService) EditTimeEntry(ctx context.Context, entryId string, req models.EditTimeEntryRequest) (*models.LogTimeResult, error) {
	result := &models.LogTimeResult{}
	err := s.Store.InTx(ctx, func(tx repository.Store) error {
		entry, err := tx.GetTimeEntry(ctx, entryId)
		if err != nil {
			return notFound(err, "time entry", entryId)
		}

		v := validation.Violations{}
		if req.Hours != nil {
			entry.Hours = *req.Hours
		}
		if req.Note != nil {
			entry.Note = *req.Note
		}
		if req.EntryDate != nil {
			entry.EntryDate = parseEntryDate(*req.EntryDate, v)
		}
		for field, reason := range allocation.ValidateTimeEntry(entry.Hours, entry.EntryDate, entry.ProjectMilestoneID) {
			if _, ok := v[field]; !ok {
				v[field] = reason
			}
		}
		if !v.Empty() {
			return invalid(v)
		}

		decision, err := s.check(ctx, tx, entry.ProjectMilestoneID, entry.ID, allocation.Request{
			Requested:        entry.Hours,
			OverrideAccepted: req.OverrideAccepted,
		})
		if err != nil {
			return err
		}
		result.Warning = decision.Warning
		result.Overridden = decision.Overridden
		if !decision.Accepted {
			return nil
		}

		if err := tx.UpdateTimeEntry(ctx, entry); err != nil {
			return err
		}
		result.Entry = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteTimeEntry удаляет списание. Удаление только уменьшает нагрузку на бюджет и не блокируется.
func (s *TimeService) DeleteTimeEntry(ctx context.Context, entryId string) error {
	return s.Store.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.GetTimeEntry(ctx, entryId); err != nil {
			return notFound(err, "time entry", entryId)
		}
		return tx.DeleteTimeEntry(ctx, entryId)
	})
}

// ListTimeEntries возвращает списания этапа проекта.
func (s *TimeService) ListTimeEntries(ctx context.Context, milestoneId string) ([]models.TimeEntry, error) {
	if _, err := s.Store.GetProjectMilestone(ctx, milestoneId); err != nil {
		return nil, notFound(err, "project milestone", milestoneId)
	}
	return s.Store.ListTimeEntries(ctx, milestoneId)
}
