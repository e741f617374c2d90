package services

import (
	"context"
	"errors"
	"log"

	"github.com/senyabanana/proposal-service/internal/allocation"
	"github.com/senyabanana/proposal-service/internal/editlock"
	"github.com/senyabanana/proposal-service/internal/metrics"
	"github.com/senyabanana/proposal-service/internal/models"
	"github.com/senyabanana/proposal-service/internal/repository"
	"github.com/senyabanana/proposal-service/internal/validation"

	"github.com/shopspring/decimal"
)

// AuthoringService редактирует результаты и этапы текущей версии предложения.
type AuthoringService struct {
	Store   repository.Store
	Guard   allocation.Guard
	Metrics *metrics.Metrics
	Logger  *log.Logger
}

// NewAuthoringService создаёт новый экземпляр AuthoringService.
// hourCap включает жёсткий лимит часов этапов по бюджету результата.
func NewAuthoringService(store repository.Store, hourCap bool, m *metrics.Metrics, logger *log.Logger) *AuthoringService {
	policy := allocation.AuthoringPolicy
	policy.Enabled = hourCap
	return &AuthoringService{Store: store, Guard: allocation.NewGuard(policy), Metrics: m, Logger: logger}
}

func lockConflict(entity string, state models.CompletionState) error {
	return models.NewStateConflictError(entity+" is locked, request edit first", state)
}

// AddDeliverable добавляет незаполненный результат в статусе draft.
func (s *AuthoringService) AddDeliverable(ctx context.Context, versionId string) (*models.Deliverable, error) {
	var created *models.Deliverable
	err := s.Store.InTx(ctx, func(tx repository.Store) error {
		if _, err := editableVersion(ctx, tx, versionId); err != nil {
			return err
		}
		existing, err := tx.ListDeliverables(ctx, versionId)
		if err != nil {
			return err
		}

		created = &models.Deliverable{
			QuoteVersionID: versionId,
			Order:          nextOrder(len(existing), lastDeliverableOrder(existing)),
			PricingMode:    models.RolledUpHours,
			State:          editlock.Initial(),
		}
		return tx.CreateDeliverable(ctx, created)
	})
	if err != nil {
		return nil, err
	}
	created.Milestones = []models.Milestone{}
	return created, nil
}

func lastDeliverableOrder(ds []models.Deliverable) int {
	if len(ds) == 0 {
		return 0
	}
	return ds[len(ds)-1].Order
}

func nextOrder(count, last int) int {
	if last >= count {
		return last + 1
	}
	return count + 1
}

func validateDeliverable(d models.Deliverable) validation.Violations {
	v := validation.Violations{}
	validation.Required("title", d.Title, v)
	validation.OneOf("pricingMode", d.PricingMode, []models.PricingMode{models.FixedPrice, models.RolledUpHours}, v)
	validation.NonNegative("fixedPriceExGst", d.FixedPriceExGST, v)
	validation.NonNegative("defaultClientRate", d.DefaultClientRate, v)
	validation.NonNegative("budgetHours", d.BudgetHours, v)
	return v
}

// UpsertDeliverable сохраняет результат и блокирует его.
// Пустой ID в запросе создаёт новый результат сразу в сохранённом виде.
func (s *AuthoringService) UpsertDeliverable(ctx context.Context, versionId string, req models.DeliverableRequest) (*models.Deliverable, error) {
	var saved *models.Deliverable
	err := s.Store.InTx(ctx, func(tx repository.Store) error {
		if _, err := editableVersion(ctx, tx, versionId); err != nil {
			return err
		}

		d := &models.Deliverable{QuoteVersionID: versionId, State: editlock.Initial()}
		isNew := req.ID == ""
		if isNew {
			existing, err := tx.ListDeliverables(ctx, versionId)
			if err != nil {
				return err
			}
			d.Order = nextOrder(len(existing), lastDeliverableOrder(existing))
		} else {
			stored, err := tx.GetDeliverable(ctx, req.ID)
			if err != nil || stored.QuoteVersionID != versionId {
				return notFound(orNotFound(err), "deliverable", req.ID)
			}
			d = stored
		}
		if !editlock.CanSave(d.State) {
			return lockConflict("deliverable", d.State)
		}

		if req.Order != nil {
			d.Order = *req.Order
		}
		d.Title = req.Title
		d.Description = req.Description
		d.PricingMode = req.PricingMode
		d.FixedPriceExGST = req.FixedPriceExGST
		d.DefaultClientRate = req.DefaultClientRate
		d.BudgetHours = req.BudgetHours

		if v := validateDeliverable(*d); !v.Empty() {
			return invalid(v)
		}
		next, err := editlock.Transition(d.State, editlock.Save, true)
		if err != nil {
			return lockConflict("deliverable", d.State)
		}
		d.State = next

		if isNew {
			if err := tx.CreateDeliverable(ctx, d); err != nil {
				return err
			}
		}
		if err := recomputeDeliverable(ctx, tx, d); err != nil {
			return err
		}
		saved = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// orNotFound нужен, когда запись найдена, но принадлежит другому родителю.
func orNotFound(err error) error {
	if err == nil {
		return repository.ErrNotFound
	}
	return err
}

// EditDeliverable снимает блокировку с результата.
func (s *AuthoringService) EditDeliverable(ctx context.Context, deliverableId string) (*models.Deliverable, error) {
	var d *models.Deliverable
	err := s.Store.InTx(ctx, func(tx repository.Store) error {
		var err error
		d, err = tx.GetDeliverable(ctx, deliverableId)
		if err != nil {
			return notFound(err, "deliverable", deliverableId)
		}
		if _, err := editableVersion(ctx, tx, d.QuoteVersionID); err != nil {
			return err
		}
		next, err := editlock.Transition(d.State, editlock.Edit, false)
		if err != nil {
			return lockConflict("deliverable", d.State)
		}
		d.State = next
		if err := tx.UpdateDeliverable(ctx, d); err != nil {
			return err
		}
		d.Milestones, err = tx.ListMilestones(ctx, d.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDeliverable удаляет результат в любом состоянии и пересчитывает версию.
func (s *AuthoringService) DeleteDeliverable(ctx context.Context, deliverableId string) (*models.QuoteVersion, error) {
	var version *models.QuoteVersion
	err := s.Store.InTx(ctx, func(tx repository.Store) error {
		d, err := tx.GetDeliverable(ctx, deliverableId)
		if err != nil {
			return notFound(err, "deliverable", deliverableId)
		}
		if _, err := editableVersion(ctx, tx, d.QuoteVersionID); err != nil {
			return err
		}
		if err := tx.DeleteDeliverable(ctx, deliverableId); err != nil {
			return err
		}
		version, err = recomputeVersion(ctx, tx, d.QuoteVersionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

// deliverableForMilestones загружает результат и проверяет, что его версию можно менять.
func deliverableForMilestones(ctx context.Context, tx repository.Store, deliverableId string) (*models.Deliverable, error) {
	d, err := tx.GetDeliverable(ctx, deliverableId)
	if err != nil {
		return nil, notFound(err, "deliverable", deliverableId)
	}
	if _, err := editableVersion(ctx, tx, d.QuoteVersionID); err != nil {
		return nil, err
	}
	return d, nil
}

// AddMilestone добавляет незаполненный этап в статусе draft.
func (s *AuthoringService) AddMilestone(ctx context.Context, deliverableId string) (*models.Milestone, error) {
	var created *models.Milestone
	err := s.Store.InTx(ctx, func(tx repository.Store) error {
		if _, err := deliverableForMilestones(ctx, tx, deliverableId); err != nil {
			return err
		}
		existing, err := tx.ListMilestones(ctx, deliverableId)
		if err != nil {
			return err
		}
		last := 0
		if len(existing) > 0 {
			last = existing[len(existing)-1].Order
		}

		created = &models.Milestone{
			DeliverableID: deliverableId,
			Order:         nextOrder(len(existing), last),
			PricingUnit:   models.Hours,
			Billable:      true,
			DeliveryMode:  models.InternalDelivery,
			State:         editlock.Initial(),
		}
		return tx.CreateMilestone(ctx, created)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func validateMilestone(m models.Milestone) validation.Violations {
	v := validation.Violations{}
	validation.Required("title", m.Title, v)
	validation.OneOf("pricingUnit", m.PricingUnit, []models.PricingUnit{models.Hours, models.Each}, v)
	validation.OneOf("deliveryMode", m.DeliveryMode, []models.DeliveryMode{models.InternalDelivery, models.SupplierDelivery}, v)
	validation.NonNegative("quantity", m.Quantity, v)
	validation.NonNegative("estimatedHours", m.EstimatedHours, v)
	validation.NonNegative("costRate", m.CostRate, v)
	validation.NonNegative("clientRate", m.ClientRate, v)
	if m.PricingUnit == models.Each {
		validation.Positive("quantity", m.Quantity, v)
	} else {
		validation.Positive("estimatedHours", m.EstimatedHours, v)
	}
	if m.DeliveryMode == models.SupplierDelivery {
		validation.Required("supplierName", m.SupplierName, v)
	}
	return v
}

// UpsertMilestone сохраняет этап и блокирует его.
// Превышение бюджета часов результата при включённом лимите не даёт сохранить этап.
func (s *AuthoringService) UpsertMilestone(ctx context.Context, deliverableId string, req models.MilestoneRequest) (*models.Milestone, error) {
	var saved *models.Milestone
	err := s.Store.InTx(ctx, func(tx repository.Store) error {
		d, err := deliverableForMilestones(ctx, tx, deliverableId)
		if err != nil {
			return err
		}
		siblings, err := tx.ListMilestones(ctx, deliverableId)
		if err != nil {
			return err
		}

		m := &models.Milestone{DeliverableID: deliverableId, State: editlock.Initial()}
		isNew := req.ID == ""
		if isNew {
			last := 0
			if len(siblings) > 0 {
				last = siblings[len(siblings)-1].Order
			}
			m.Order = nextOrder(len(siblings), last)
		} else {
			stored, err := tx.GetMilestone(ctx, req.ID)
			if err != nil || stored.DeliverableID != deliverableId {
				return notFound(orNotFound(err), "milestone", req.ID)
			}
			m = stored
		}
		if !editlock.CanSave(m.State) {
			return lockConflict("milestone", m.State)
		}

		if req.Order != nil {
			m.Order = *req.Order
		}
		m.Title = req.Title
		m.Description = req.Description
		m.PricingUnit = req.PricingUnit
		m.Quantity = req.Quantity
		m.EstimatedHours = req.EstimatedHours
		m.Billable = req.Billable
		m.DeliveryMode = req.DeliveryMode
		m.SupplierName = req.SupplierName
		m.CostRate = req.CostRate
		m.ClientRate = req.ClientRate

		if v := validateMilestone(*m); !v.Empty() {
			return invalid(v)
		}

		committed := decimal.Zero
		for _, sibling := range siblings {
			if sibling.ID != m.ID {
				committed = committed.Add(sibling.EstimatedHours)
			}
		}
		decision := s.Guard.Check(allocation.Request{
			Budget:                 d.BudgetHours,
			CommittedExcludingThis: committed,
			Requested:              m.EstimatedHours,
		})
		if !decision.Accepted {
			if s.Metrics != nil {
				s.Metrics.AllocationWarnings.WithLabelValues("authoring").Inc()
			}
			return models.NewValidationError("milestone hours exceed the deliverable budget", decision.Warning)
		}

		next, err := editlock.Transition(m.State, editlock.Save, true)
		if err != nil {
			return lockConflict("milestone", m.State)
		}
		m.State = next

		if isNew {
			err = tx.CreateMilestone(ctx, m)
		} else {
			err = tx.UpdateMilestone(ctx, m)
		}
		if err != nil {
			return err
		}
		if err := recomputeDeliverable(ctx, tx, d); err != nil {
			return err
		}
		for _, stored := range d.Milestones {
			if stored.ID == m.ID {
				saved = &stored
			}
		}
		if saved == nil {
			return errors.New("saved milestone missing after recompute")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// EditMilestone снимает блокировку с этапа.
func (s *AuthoringService) EditMilestone(ctx context.Context, milestoneId string) (*models.Milestone, error) {
	var m *models.Milestone
	err := s.Store.InTx(ctx, func(tx repository.Store) error {
		var err error
		m, err = tx.GetMilestone(ctx, milestoneId)
		if err != nil {
			return notFound(err, "milestone", milestoneId)
		}
		if _, err := deliverableForMilestones(ctx, tx, m.DeliverableID); err != nil {
			return err
		}
		next, err := editlock.Transition(m.State, editlock.Edit, false)
		if err != nil {
			return lockConflict("milestone", m.State)
		}
		m.State = next
		return tx.UpdateMilestone(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteMilestone удаляет этап в любом состоянии и пересчитывает результат и версию.
func (s *AuthoringService) DeleteMilestone(ctx context.Context, milestoneId string) (*models.Deliverable, error) {
	var d *models.Deliverable
	err := s.Store.InTx(ctx, func(tx repository.Store) error {
		m, err := tx.GetMilestone(ctx, milestoneId)
		if err != nil {
			return notFound(err, "milestone", milestoneId)
		}
		d, err = deliverableForMilestones(ctx, tx, m.DeliverableID)
		if err != nil {
			return err
		}
		if err := tx.DeleteMilestone(ctx, milestoneId); err != nil {
			return err
		}
		return recomputeDeliverable(ctx, tx, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}
