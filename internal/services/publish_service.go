package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/senyabanana/proposal-service/internal/mailer"
	"github.com/senyabanana/proposal-service/internal/metrics"
	"github.com/senyabanana/proposal-service/internal/models"
	"github.com/senyabanana/proposal-service/internal/repository"
	"github.com/senyabanana/proposal-service/internal/validation"
)

// Алфавит кода доступа без похожих символов (0/O, 1/I).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 8

// NewAccessCode генерирует случайный код доступа.
func NewAccessCode() (string, error) {
	var b strings.Builder
	limit := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// PublishConfig - адреса для писем и ссылок портала.
type PublishConfig struct {
	PortalURL   string
	NotifyEmail string
}

// PublishService выдаёт клиенту код доступа и записывает его ответ.
type PublishService struct {
	Store    repository.Store
	Projects *ProjectService
	Mailer   mailer.Mailer
	Metrics  *metrics.Metrics
	Config   PublishConfig
	Logger   *log.Logger
	now      func() time.Time
	newCode  func() (string, error)
}

// NewPublishService создаёт новый экземпляр PublishService.
func NewPublishService(store repository.Store, projects *ProjectService, mail mailer.Mailer, m *metrics.Metrics, cfg PublishConfig, logger *log.Logger) *PublishService {
	return &PublishService{
		Store:    store,
		Projects: projects,
		Mailer:   mail,
		Metrics:  m,
		Config:   cfg,
		Logger:   logger,
		now:      time.Now,
		newCode:  NewAccessCode,
	}
}

func (s *PublishService) portalLink(quoteNumber, code string) string {
	base := strings.TrimRight(s.Config.PortalURL, "/")
	return fmt.Sprintf("%s/quotes/%s?code=%s", base, url.PathEscape(quoteNumber), url.QueryEscape(code))
}

// PublishQuote выдаёт код доступа к текущей версии и переводит предложение в published.
// Для уже опубликованной версии код сохраняется, меняется только срок действия.
func (s *PublishService) PublishQuote(ctx context.Context, quoteId string, req models.PublishRequest) (*models.PublishResult, error) {
	if req.ExpiresAt != nil && !req.ExpiresAt.After(s.now()) {
		return nil, invalid(validation.Violations{"expiresAt": "must_be_in_future"})
	}

	var quote *models.Quote
	var code *models.QuoteAccessCode
	err := s.Store.InTx(ctx, func(tx repository.Store) error {
		var err error
		quote, err = tx.GetQuote(ctx, quoteId)
		if err != nil {
			return notFound(err, "quote", quoteId)
		}
		version, err := currentVersion(ctx, tx, quoteId)
		if err != nil {
			return err
		}
		if _, err := editableVersion(ctx, tx, version.ID); err != nil {
			return err
		}

		code = &models.QuoteAccessCode{
			QuoteID:        quoteId,
			QuoteVersionID: version.ID,
			ExpiresAt:      req.ExpiresAt,
			CreatedAt:      s.now(),
		}
		existing, err := tx.GetAccessCode(ctx, quoteId)
		switch {
		case err == nil && existing.QuoteVersionID == version.ID:
			code.Code = existing.Code
		case err == nil || errors.Is(err, repository.ErrNotFound):
			if code.Code, err = s.newCode(); err != nil {
				return err
			}
		default:
			return err
		}

		if err := tx.UpsertAccessCode(ctx, code); err != nil {
			return err
		}
		if quote.Status != models.PublishedQuote {
			return tx.UpdateQuoteStatus(ctx, quoteId, models.PublishedQuote)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Metrics != nil {
		s.Metrics.QuotesPublished.Inc()
	}
	result := &models.PublishResult{
		AccessCode: code.Code,
		ExpiresAt:  code.ExpiresAt,
		Link:       s.portalLink(quote.QuoteNumber, code.Code),
	}

	// Ошибка письма не отменяет публикацию.
	if quote.ContactEmail != "" && s.Mailer != nil {
		msg := mailer.QuotePublished(quote.ContactEmail, quote.QuoteNumber, quote.Title, result.Link)
		if err := s.Mailer.Send(ctx, msg); err != nil {
			s.Logger.Printf("quote %s: failed to send publish email: %v", quote.QuoteNumber, err)
			if s.Metrics != nil {
				s.Metrics.EmailFailures.Inc()
			}
			result.EmailError = err.Error()
		} else {
			result.EmailSent = true
		}
	}
	return result, nil
}

// verifyAccess проверяет код доступа по номеру предложения.
func verifyAccess(ctx context.Context, store repository.Store, quoteNumber, code string, now time.Time) (*models.Quote, *models.QuoteAccessCode, error) {
	quote, err := store.GetQuoteByNumber(ctx, quoteNumber)
	if err != nil {
		return nil, nil, notFound(err, "quote", quoteNumber)
	}
	access, err := store.GetAccessCode(ctx, quote.ID)
	if err != nil {
		return nil, nil, notFound(err, "access code for quote", quoteNumber)
	}
	if code == "" || subtle.ConstantTimeCompare([]byte(access.Code), []byte(code)) != 1 {
		return nil, nil, models.NewNotFoundError("access code for quote", quoteNumber)
	}
	if access.Expired(now) {
		return nil, nil, models.NewStateConflictError("access code expired", access.ExpiresAt)
	}
	return quote, access, nil
}

// VerifyAccess проверяет код доступа клиента.
func (s *PublishService) VerifyAccess(ctx context.Context, quoteNumber, code string) (*models.Quote, error) {
	quote, _, err := verifyAccess(ctx, s.Store, quoteNumber, code, s.now())
	return quote, err
}

func publicDeliverables(deliverables []models.Deliverable) []models.PublicDeliverable {
	out := make([]models.PublicDeliverable, 0, len(deliverables))
	for _, d := range deliverables {
		pd := models.PublicDeliverable{
			Title:         d.Title,
			Description:   d.Description,
			PricingMode:   d.PricingMode,
			TotalUnits:    d.TotalUnits,
			SubtotalExGST: d.SubtotalExGST,
			Milestones:    []models.PublicMilestone{},
		}
		for _, m := range d.Milestones {
			units := m.Quantity
			if m.PricingUnit == models.Hours {
				units = m.EstimatedHours
			}
			pd.Milestones = append(pd.Milestones, models.PublicMilestone{
				Title:             m.Title,
				Description:       m.Description,
				PricingUnit:       m.PricingUnit,
				Units:             units,
				ClientAmountExGST: m.ClientAmountExGST,
			})
		}
		out = append(out, pd)
	}
	return out
}

// ViewQuote возвращает клиентское представление версии, привязанной к коду.
// Просмотр записывается, если у клиента ещё нет отметки о нём.
func (s *PublishService) ViewQuote(ctx context.Context, quoteNumber, code string, alreadyViewed bool) (*models.PublicQuoteView, error) {
	var view *models.PublicQuoteView
	recorded := false
	err := s.Store.InTx(ctx, func(tx repository.Store) error {
		quote, access, err := verifyAccess(ctx, tx, quoteNumber, code, s.now())
		if err != nil {
			return err
		}
		version, err := tx.GetVersion(ctx, access.QuoteVersionID)
		if err != nil {
			return notFound(err, "quote version", access.QuoteVersionID)
		}
		deliverables, err := loadTree(ctx, tx, version.ID)
		if err != nil {
			return err
		}
		latest, err := tx.MaxVersionNumber(ctx, quote.ID)
		if err != nil {
			return err
		}

		view = &models.PublicQuoteView{
			QuoteNumber:   quote.QuoteNumber,
			Title:         quote.Title,
			Currency:      quote.Currency,
			VersionNumber: version.VersionNumber,
			Pricing:       version.Pricing,
			SubtotalExGST: version.SubtotalExGST,
			GSTAmount:     version.GSTAmount,
			TotalIncGST:   version.TotalIncGST,
			Notes:         version.Notes,
			Deliverables:  publicDeliverables(deliverables),
		}

		response, err := tx.GetTerminalAction(ctx, version.ID)
		switch {
		case err == nil:
			view.Response = response
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
		view.CanRespond = view.Response == nil &&
			version.VersionNumber == latest &&
			quote.Status == models.PublishedQuote

		if alreadyViewed {
			return nil
		}
		recorded = true
		return tx.CreateQuoteAction(ctx, &models.QuoteAction{
			QuoteID:        quote.ID,
			QuoteVersionID: version.ID,
			Action:         models.ViewedAction,
			CreatedAt:      s.now(),
		})
	})
	if err != nil {
		return nil, err
	}
	if recorded && s.Metrics != nil {
		s.Metrics.QuoteActions.WithLabelValues(string(models.ViewedAction)).Inc()
	}
	return view, nil
}

// RecordQuoteAction записывает действие клиента. approved и rejected - окончательные:
// после них версия закрыта для ответов, а approved создаёт проект.
func (s *PublishService) RecordQuoteAction(ctx context.Context, quoteNumber, code string, req models.QuoteActionRequest) (*models.QuoteAction, error) {
	v := validation.Violations{}
	validation.OneOf("action", req.Action, []models.QuoteActionType{models.ViewedAction, models.ApprovedAction, models.RejectedAction}, v)
	if req.Action.IsTerminal() {
		validation.Required("clientName", req.ClientName, v)
	}
	if !v.Empty() {
		return nil, invalid(v)
	}

	var quote *models.Quote
	var action *models.QuoteAction
	err := s.Store.InTx(ctx, func(tx repository.Store) error {
		var access *models.QuoteAccessCode
		var err error
		quote, access, err = verifyAccess(ctx, tx, quoteNumber, code, s.now())
		if err != nil {
			return err
		}

		action = &models.QuoteAction{
			QuoteID:        quote.ID,
			QuoteVersionID: access.QuoteVersionID,
			Action:         req.Action,
			ClientName:     req.ClientName,
			Note:           req.Note,
			CreatedAt:      s.now(),
		}
		if !req.Action.IsTerminal() {
			return tx.CreateQuoteAction(ctx, action)
		}

		existing, err := tx.GetTerminalAction(ctx, access.QuoteVersionID)
		switch {
		case err == nil:
			return models.NewStateConflictError("quote already has a client response", existing)
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
		version, err := editableVersion(ctx, tx, access.QuoteVersionID)
		if err != nil {
			return err
		}
		if quote.Status != models.PublishedQuote {
			return models.NewStateConflictError("quote is not open for response", quote.Status)
		}

		if err := tx.CreateQuoteAction(ctx, action); err != nil {
			return err
		}
		status := models.RejectedQuote
		if req.Action == models.ApprovedAction {
			status = models.ApprovedQuote
		}
		if err := tx.UpdateQuoteStatus(ctx, quote.ID, status); err != nil {
			return err
		}
		if status == models.ApprovedQuote {
			if _, err := s.Projects.materialize(ctx, tx, quote, version.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Metrics != nil {
		s.Metrics.QuoteActions.WithLabelValues(string(req.Action)).Inc()
	}
	if req.Action.IsTerminal() {
		s.Logger.Printf("quote %s: %s by %s", quote.QuoteNumber, req.Action, req.ClientName)
		s.notify(ctx, quote, action)
	}
	return action, nil
}

// notify отправляет внутреннее уведомление об ответе клиента; ошибка только логируется.
func (s *PublishService) notify(ctx context.Context, quote *models.Quote, action *models.QuoteAction) {
	if s.Mailer == nil || s.Config.NotifyEmail == "" {
		return
	}
	msg := mailer.QuoteResponded(s.Config.NotifyEmail, quote.QuoteNumber, string(action.Action), action.ClientName, action.Note)
	if err := s.Mailer.Send(ctx, msg); err != nil {
		s.Logger.Printf("quote %s: failed to send response notification: %v", quote.QuoteNumber, err)
		if s.Metrics != nil {
			s.Metrics.EmailFailures.Inc()
		}
	}
}
