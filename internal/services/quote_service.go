package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/proposal-service/internal/models"
	"github.com/senyabanana/proposal-service/internal/repository"
	"github.com/senyabanana/proposal-service/internal/validation"
)

// QuoteDefaults - значения, которые получает новое предложение.
type QuoteDefaults struct {
	Currency string
	Pricing  models.PricingPolicy
}

type QuoteService struct {
	Store    repository.Store
	Defaults QuoteDefaults
	Logger   *log.Logger
	now      func() time.Time
}

// NewQuoteService создаёт новый экземпляр QuoteService.
func NewQuoteService(store repository.Store, defaults QuoteDefaults, logger *log.Logger) *QuoteService {
	return &QuoteService{Store: store, Defaults: defaults, Logger: logger, now: time.Now}
}

// Автор может только публиковать и снимать с публикации; approved/rejected ставит клиент.
var allowedStatusTransition = map[models.QuoteStatus][]models.QuoteStatus{
	models.DraftQuote:     {models.PublishedQuote},
	models.PublishedQuote: {models.DraftQuote},
}

// CreateQuote создает предложение с первой версией и пустым результатом.
func (s *QuoteService) CreateQuote(ctx context.Context, req models.QuoteRequest, subject string) (*models.QuoteDetail, error) {
	v := validation.Violations{}
	validation.Required("title", req.Title, v)
	validation.Required("organisationRef", req.OrganisationRef, v)
	if !v.Empty() {
		return nil, invalid(v)
	}

	currency := req.Currency
	if currency == "" {
		currency = s.Defaults.Currency
	}

	var quoteId string
	err := s.Store.InTx(ctx, func(tx repository.Store) error {
		seq, err := tx.NextQuoteSequence(ctx)
		if err != nil {
			return err
		}

		now := s.now()
		quote := &models.Quote{
			QuoteNumber:     fmt.Sprintf("Q-%05d", seq),
			Title:           req.Title,
			Status:          models.DraftQuote,
			OrganisationRef: req.OrganisationRef,
			ContactRef:      req.ContactRef,
			ContactEmail:    req.ContactEmail,
			Currency:        currency,
			CreatedBy:       subject,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.CreateQuote(ctx, quote); err != nil {
			return err
		}

		version := &models.QuoteVersion{
			QuoteID:       quote.ID,
			VersionNumber: 1,
			Pricing:       s.Defaults.Pricing,
			CreatedBy:     subject,
			CreatedAt:     now,
		}
		if err := tx.CreateVersion(ctx, version); err != nil {
			return err
		}
		if err := seedPlaceholder(ctx, tx, version.ID); err != nil {
			return err
		}
		if _, err := recomputeVersion(ctx, tx, version.ID); err != nil {
			return err
		}
		quoteId = quote.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetQuote(ctx, quoteId)
}

// ListQuotes получает список предложений с фильтром по статусу.
func (s *QuoteService) ListQuotes(ctx context.Context, statuses []string, limit, offset int) ([]models.Quote, error) {
	allowedStatuses := map[models.QuoteStatus]bool{
		models.DraftQuote:     true,
		models.PublishedQuote: true,
		models.ApprovedQuote:  true,
		models.RejectedQuote:  true,
	}
	for _, status := range statuses {
		if !allowedStatuses[models.QuoteStatus(status)] {
			return nil, models.NewErrorResponse(http.StatusBadRequest, fmt.Sprintf("unsupported status: %s", status))
		}
	}
	return s.Store.ListQuotes(ctx, statuses, limit, offset)
}

// GetQuote возвращает предложение с текущей версией, её структурой и ответом клиента.
func (s *QuoteService) GetQuote(ctx context.Context, quoteId string) (*models.QuoteDetail, error) {
	v, err := currentVersion(ctx, s.Store, quoteId)
	if err != nil {
		if _, qerr := s.Store.GetQuote(ctx, quoteId); qerr != nil {
			return nil, notFound(qerr, "quote", quoteId)
		}
		return nil, err
	}
	return s.versionDetail(ctx, v)
}

// GetVersion возвращает конкретную версию предложения со структурой.
func (s *QuoteService) GetVersion(ctx context.Context, versionId string) (*models.QuoteDetail, error) {
	v, err := s.Store.GetVersion(ctx, versionId)
	if err != nil {
		return nil, notFound(err, "quote version", versionId)
	}
	return s.versionDetail(ctx, v)
}

func (s *QuoteService) versionDetail(ctx context.Context, v *models.QuoteVersion) (*models.QuoteDetail, error) {
	quote, err := s.Store.GetQuote(ctx, v.QuoteID)
	if err != nil {
		return nil, notFound(err, "quote", v.QuoteID)
	}
	deliverables, err := loadTree(ctx, s.Store, v.ID)
	if err != nil {
		return nil, err
	}

	detail := &models.QuoteDetail{Quote: *quote, Version: *v, Deliverables: deliverables}
	action, err := s.Store.GetTerminalAction(ctx, v.ID)
	switch {
	case err == nil:
		detail.Response = action
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}
	return detail, nil
}

// UpdateQuoteStatus меняет статус предложения со стороны автора.
func (s *QuoteService) UpdateQuoteStatus(ctx context.Context, quoteId string, status models.QuoteStatus) (*models.Quote, error) {
	if status != models.DraftQuote && status != models.PublishedQuote {
		if status.IsTerminal() {
			return nil, models.NewErrorResponse(http.StatusBadRequest, "approved and rejected statuses are set only by the client")
		}
		return nil, models.NewErrorResponse(http.StatusBadRequest, fmt.Sprintf("unsupported status: %s", status))
	}

	var updated *models.Quote
	err := s.Store.InTx(ctx, func(tx repository.Store) error {
		quote, err := tx.GetQuote(ctx, quoteId)
		if err != nil {
			return notFound(err, "quote", quoteId)
		}
		if quote.Status.IsTerminal() {
			return models.NewStateConflictError("quote already has a client response", quote.Status)
		}

		if quote.Status != status {
			valid := false
			for _, next := range allowedStatusTransition[quote.Status] {
				if next == status {
					valid = true
				}
			}
			if !valid {
				return models.NewStateConflictError(fmt.Sprintf("cannot change status from %s to %s", quote.Status, status), quote.Status)
			}
			if err := tx.UpdateQuoteStatus(ctx, quoteId, status); err != nil {
				return err
			}
		}

		updated, err = tx.GetQuote(ctx, quoteId)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListVersions возвращает историю версий предложения.
func (s *QuoteService) ListVersions(ctx context.Context, quoteId string) ([]models.QuoteVersion, error) {
	if _, err := s.Store.GetQuote(ctx, quoteId); err != nil {
		return nil, notFound(err, "quote", quoteId)
	}
	return s.Store.ListVersions(ctx, quoteId)
}

// CreateVersion создает следующую версию предложения.
// Новая версия наследует условия предыдущей, но не её результаты; предложение возвращается в draft.
func (s *QuoteService) CreateVersion(ctx context.Context, quoteId, subject string) (*models.QuoteVersion, error) {
	var created *models.QuoteVersion
	err := s.Store.InTx(ctx, func(tx repository.Store) error {
		quote, err := tx.GetQuote(ctx, quoteId)
		if err != nil {
			return notFound(err, "quote", quoteId)
		}

		previous, err := currentVersion(ctx, tx, quoteId)
		if err != nil {
			return err
		}
		latest, err := tx.MaxVersionNumber(ctx, quoteId)
		if err != nil {
			return err
		}

		version := &models.QuoteVersion{
			QuoteID:       quoteId,
			VersionNumber: latest + 1,
			Pricing:       previous.Pricing,
			Notes:         previous.Notes,
			CreatedBy:     subject,
			CreatedAt:     s.now(),
		}
		if err := tx.CreateVersion(ctx, version); err != nil {
			return err
		}
		if err := seedPlaceholder(ctx, tx, version.ID); err != nil {
			return err
		}
		if quote.Status != models.DraftQuote {
			if err := tx.UpdateQuoteStatus(ctx, quoteId, models.DraftQuote); err != nil {
				return err
			}
		}

		created, err = recomputeVersion(ctx, tx, version.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Printf("quote %s: created version %d", quoteId, created.VersionNumber)
	return created, nil
}

// UpdateVersionTerms меняет политику GST и текстовые условия текущей версии.
func (s *QuoteService) UpdateVersionTerms(ctx context.Context, versionId string, req models.VersionTermsRequest) (*models.QuoteVersion, error) {
	if req.Pricing != nil {
		v := validation.Violations{}
		validation.NonNegative("pricing.gstRate", req.Pricing.GSTRate, v)
		if !v.Empty() {
			return nil, invalid(v)
		}
	}

	var updated *models.QuoteVersion
	err := s.Store.InTx(ctx, func(tx repository.Store) error {
		version, err := editableVersion(ctx, tx, versionId)
		if err != nil {
			return err
		}
		if req.Pricing != nil {
			version.Pricing = *req.Pricing
		}
		if req.Notes != nil {
			version.Notes = *req.Notes
		}
		if err := tx.UpdateVersion(ctx, version); err != nil {
			return err
		}
		updated, err = recomputeVersion(ctx, tx, versionId)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
