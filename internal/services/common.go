package services

import (
	"context"
	"errors"

	"github.com/senyabanana/proposal-service/internal/models"
	"github.com/senyabanana/proposal-service/internal/pricing"
	"github.com/senyabanana/proposal-service/internal/repository"
	"github.com/senyabanana/proposal-service/internal/validation"
)

// notFound переводит repository.ErrNotFound в NotFoundError, остальные ошибки возвращает как есть.
func notFound(err error, entity, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewNotFoundError(entity, id)
	}
	return err
}

func invalid(v validation.Violations) error {
	return models.NewValidationError("invalid or missing fields", v)
}

// currentVersion возвращает версию с наибольшим номером.
func currentVersion(ctx context.Context, store repository.Store, quoteId string) (*models.QuoteVersion, error) {
	versions, err := store.ListVersions(ctx, quoteId)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, models.NewNotFoundError("quote version for quote", quoteId)
	}
	return &versions[len(versions)-1], nil
}

// editableVersion загружает версию и проверяет, что её содержимое ещё можно менять:
// версия текущая и клиент по ней не ответил.
func editableVersion(ctx context.Context, store repository.Store, versionId string) (*models.QuoteVersion, error) {
	v, err := store.GetVersion(ctx, versionId)
	if err != nil {
		return nil, notFound(err, "quote version", versionId)
	}

	latest, err := store.MaxVersionNumber(ctx, v.QuoteID)
	if err != nil {
		return nil, err
	}
	if v.VersionNumber != latest {
		return nil, models.NewStateConflictError("quote version is not current", map[string]int{
			"versionNumber":  v.VersionNumber,
			"currentVersion": latest,
		})
	}

	action, err := store.GetTerminalAction(ctx, v.ID)
	switch {
	case err == nil:
		return nil, models.NewStateConflictError("quote version already has a client response", action.Action)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}
	return v, nil
}

// loadTree возвращает результаты версии вместе с этапами.
func loadTree(ctx context.Context, store repository.Store, versionId string) ([]models.Deliverable, error) {
	deliverables, err := store.ListDeliverables(ctx, versionId)
	if err != nil {
		return nil, err
	}
	for i := range deliverables {
		milestones, err := store.ListMilestones(ctx, deliverables[i].ID)
		if err != nil {
			return nil, err
		}
		deliverables[i].Milestones = milestones
	}
	return deliverables, nil
}

// recomputeVersion пересчитывает итоги версии по сохранённым результатам.
func recomputeVersion(ctx context.Context, store repository.Store, versionId string) (*models.QuoteVersion, error) {
	v, err := store.GetVersion(ctx, versionId)
	if err != nil {
		return nil, notFound(err, "quote version", versionId)
	}
	deliverables, err := store.ListDeliverables(ctx, versionId)
	if err != nil {
		return nil, err
	}
	pricing.RecomputeVersion(v, deliverables)
	if err := store.UpdateVersion(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// recomputeDeliverable пересчитывает суммы этапов и результата, затем итоги версии.
// Вызывается в той же транзакции, что и изменение.
func recomputeDeliverable(ctx context.Context, store repository.Store, d *models.Deliverable) error {
	milestones, err := store.ListMilestones(ctx, d.ID)
	if err != nil {
		return err
	}
	pricing.RecomputeDeliverable(d, milestones)
	for i := range milestones {
		if err := store.UpdateMilestone(ctx, &milestones[i]); err != nil {
			return err
		}
	}
	if err := store.UpdateDeliverable(ctx, d); err != nil {
		return err
	}
	d.Milestones = milestones

	_, err = recomputeVersion(ctx, store, d.QuoteVersionID)
	return err
}

// seedPlaceholder добавляет в пустую версию один незаполненный результат.
func seedPlaceholder(ctx context.Context, store repository.Store, versionId string) error {
	return store.CreateDeliverable(ctx, &models.Deliverable{
		QuoteVersionID: versionId,
		Order:          1,
		PricingMode:    models.RolledUpHours,
		State:          models.DraftState,
	})
}
