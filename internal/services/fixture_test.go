package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/senyabanana/proposal-service/internal/mailer"
	"github.com/senyabanana/proposal-service/internal/metrics"
	"github.com/senyabanana/proposal-service/internal/models"
	"github.com/senyabanana/proposal-service/internal/repository/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fixture struct {
	store     *memory.Store
	mail      *fakeMailer
	metrics   *metrics.Metrics
	quotes    *QuoteService
	authoring *AuthoringService
	projects  *ProjectService
	publish   *PublishService
	time      *TimeService
}

func newFixture(t *testing.T, hourCap bool) *fixture {
	t.Helper()
	store := memory.NewStore()
	logger := log.New(io.Discard, "", 0)
	clock := func() time.Time { return testNow }

	f := &fixture{store: store, mail: &fakeMailer{}, metrics: metrics.New()}
	f.quotes = NewQuoteService(store, QuoteDefaults{
		Currency: "AUD",
		Pricing:  models.PricingPolicy{GSTEnabled: true, GSTRate: decimal.RequireFromString("0.1")},
	}, logger)
	f.quotes.now = clock
	f.authoring = NewAuthoringService(store, hourCap, f.metrics, logger)
	f.projects = NewProjectService(store, logger)
	f.projects.now = clock
	f.publish = NewPublishService(store, f.projects, f.mail, f.metrics, PublishConfig{
		PortalURL:   "https://portal.example.com/",
		NotifyEmail: "ops@example.com",
	}, logger)
	f.publish.now = clock
	codes := 0
	f.publish.newCode = func() (string, error) {
		codes++
		return fmt.Sprintf("CODE%04d", codes), nil
	}
	f.time = NewTimeService(store, f.metrics, logger)
	f.time.now = clock
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireKind(t *testing.T, err error, kind models.ErrorKind) *models.ErrorResponse {
	t.Helper()
	var errorResponse *models.ErrorResponse
	require.True(t, errors.As(err, &errorResponse), "expected ErrorResponse, got %v", err)
	assert.Equal(t, kind, errorResponse.Kind)
	return errorResponse
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

// newQuote создаёт предложение и возвращает его вместе с пустым результатом первой версии.
func (f *fixture) newQuote(t *testing.T, email string) (*models.QuoteDetail, models.Deliverable) {
	t.Helper()
	detail, err := f.quotes.CreateQuote(context.Background(), models.QuoteRequest{
		Title:           "Site safety audit",
		OrganisationRef: "org-1",
		ContactRef:      "contact-1",
		ContactEmail:    email,
	}, "author-1")
	require.NoError(t, err)
	require.Len(t, detail.Deliverables, 1)
	return detail, detail.Deliverables[0]
}

// saveRolledUp сохраняет результат в режиме rolled_up_hours с этапами по заданным часам.
func (f *fixture) saveRolledUp(t *testing.T, versionId, deliverableId string, rate, budget string, hours ...string) *models.Deliverable {
	t.Helper()
	ctx := context.Background()
	d, err := f.authoring.UpsertDeliverable(ctx, versionId, models.DeliverableRequest{
		ID:                deliverableId,
		Title:             "Audit",
		PricingMode:       models.RolledUpHours,
		DefaultClientRate: dec(rate),
		BudgetHours:       dec(budget),
	})
	require.NoError(t, err)
	for i, h := range hours {
		_, err := f.authoring.UpsertMilestone(ctx, d.ID, models.MilestoneRequest{
			Title:          fmt.Sprintf("Milestone %d", i+1),
			PricingUnit:    models.Hours,
			EstimatedHours: dec(h),
			Billable:       true,
			DeliveryMode:   models.InternalDelivery,
		})
		require.NoError(t, err)
	}
	stored, err := f.store.GetDeliverable(ctx, d.ID)
	require.NoError(t, err)
	return stored
}

// approved проводит предложение через публикацию и принятие, возвращая созданный проект.
func (f *fixture) approved(t *testing.T, hours ...string) *models.Project {
	t.Helper()
	ctx := context.Background()
	detail, placeholder := f.newQuote(t, "")
	f.saveRolledUp(t, detail.Version.ID, placeholder.ID, "150", "0", hours...)

	res, err := f.publish.PublishQuote(ctx, detail.Quote.ID, models.PublishRequest{})
	require.NoError(t, err)
	_, err = f.publish.RecordQuoteAction(ctx, detail.Quote.QuoteNumber, res.AccessCode, models.QuoteActionRequest{
		Action:     models.ApprovedAction,
		ClientName: "Jordan",
	})
	require.NoError(t, err)

	project, err := f.projects.GetProjectByQuote(ctx, detail.Quote.ID)
	require.NoError(t, err)
	return project
}
