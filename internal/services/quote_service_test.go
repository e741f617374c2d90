package services

import (
	"context"
	"testing"

	"github.com/senyabanana/proposal-service/internal/models"
	"github.com/senyabanana/proposal-service/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateQuote(t *testing.T) {
	f := newFixture(t, false)
	detail, placeholder := f.newQuote(t, "")

	assert.Equal(t, "Q-00001", detail.Quote.QuoteNumber)
	assert.Equal(t, models.DraftQuote, detail.Quote.Status)
	assert.Equal(t, "AUD", detail.Quote.Currency)
	assert.Equal(t, "author-1", detail.Quote.CreatedBy)
	assert.Equal(t, 1, detail.Version.VersionNumber)
	assert.True(t, detail.Version.Pricing.GSTEnabled)
	assert.Equal(t, models.DraftState, placeholder.State)
	assert.Nil(t, detail.Response)

	second, _ := f.newQuote(t, "")
	assert.Equal(t, "Q-00002", second.Quote.QuoteNumber)
}

func TestCreateQuoteValidation(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.quotes.CreateQuote(context.Background(), models.QuoteRequest{}, "author-1")
	errorResponse := requireKind(t, err, models.ValidationError)
	assert.Equal(t, validation.Violations{"title": "required", "organisationRef": "required"}, errorResponse.Details)
}

func TestCreateVersionIncrements(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	detail, placeholder := f.newQuote(t, "")
	f.saveRolledUp(t, detail.Version.ID, placeholder.ID, "100", "0", "4")

	_, err := f.quotes.UpdateQuoteStatus(ctx, detail.Quote.ID, models.PublishedQuote)
	require.NoError(t, err)

	v2, err := f.quotes.CreateVersion(ctx, detail.Quote.ID, "author-1")
	require.NoError(t, err)
	v3, err := f.quotes.CreateVersion(ctx, detail.Quote.ID, "author-1")
	require.NoError(t, err)

	assert.Equal(t, 2, v2.VersionNumber)
	assert.Equal(t, 3, v3.VersionNumber)
	assert.True(t, v3.SubtotalExGST.IsZero())

	versions, err := f.quotes.ListVersions(ctx, detail.Quote.ID)
	require.NoError(t, err)
	require.Len(t, versions, 3)

	current, err := f.quotes.GetQuote(ctx, detail.Quote.ID)
	require.NoError(t, err)
	assert.Equal(t, v3.ID, current.Version.ID)
	assert.Equal(t, models.DraftQuote, current.Quote.Status)
	require.Len(t, current.Deliverables, 1)
	assert.Equal(t, models.DraftState, current.Deliverables[0].State)

	// Прежняя версия остаётся историей и не редактируется.
	old, err := f.quotes.GetVersion(ctx, detail.Version.ID)
	require.NoError(t, err)
	assertDecimal(t, "400", old.Version.SubtotalExGST)
	_, err = f.authoring.AddDeliverable(ctx, detail.Version.ID)
	requireKind(t, err, models.StateConflictError)
}

func TestCreateVersionUnknownQuote(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.quotes.CreateVersion(context.Background(), "missing", "author-1")
	requireKind(t, err, models.NotFoundError)
}

func TestUpdateQuoteStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	detail, _ := f.newQuote(t, "")

	tests := []struct {
		name   string
		status models.QuoteStatus
		want   models.QuoteStatus
		code   int
	}{
		{name: "publish", status: models.PublishedQuote, want: models.PublishedQuote},
		{name: "withdraw", status: models.DraftQuote, want: models.DraftQuote},
		{name: "same status", status: models.DraftQuote, want: models.DraftQuote},
		{name: "client only", status: models.ApprovedQuote, code: 400},
		{name: "unknown", status: "archived", code: 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := f.quotes.UpdateQuoteStatus(ctx, detail.Quote.ID, tt.status)
			if tt.code != 0 {
				var errorResponse *models.ErrorResponse
				require.ErrorAs(t, err, &errorResponse)
				assert.Equal(t, tt.code, errorResponse.StatusCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, quote.Status)
		})
	}
}

func TestUpdateQuoteStatusAfterResponse(t *testing.T) {
	f := newFixture(t, false)
	project := f.approved(t, "5")

	_, err := f.quotes.UpdateQuoteStatus(context.Background(), project.QuoteID, models.DraftQuote)
	errorResponse := requireKind(t, err, models.StateConflictError)
	assert.Equal(t, models.ApprovedQuote, errorResponse.Details)
}

func TestListQuotes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	first, _ := f.newQuote(t, "")
	f.newQuote(t, "")
	_, err := f.quotes.UpdateQuoteStatus(ctx, first.Quote.ID, models.PublishedQuote)
	require.NoError(t, err)

	all, err := f.quotes.ListQuotes(ctx, nil, 5, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	published, err := f.quotes.ListQuotes(ctx, []string{"published"}, 5, 0)
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, first.Quote.ID, published[0].ID)

	_, err = f.quotes.ListQuotes(ctx, []string{"archived"}, 5, 0)
	assert.Error(t, err)
}

func TestUpdateVersionTermsGST(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	detail, placeholder := f.newQuote(t, "")
	f.saveRolledUp(t, detail.Version.ID, placeholder.ID, "150", "0", "10", "5")

	tests := []struct {
		name     string
		policy   models.PricingPolicy
		subtotal string
		gst      string
		total    string
	}{
		{name: "exclusive", policy: models.PricingPolicy{GSTEnabled: true, GSTRate: dec("0.1")}, subtotal: "2250", gst: "225", total: "2475"},
		{name: "disabled", policy: models.PricingPolicy{GSTEnabled: false, GSTRate: dec("0.1")}, subtotal: "2250", gst: "0", total: "2250"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := tt.policy
			v, err := f.quotes.UpdateVersionTerms(ctx, detail.Version.ID, models.VersionTermsRequest{Pricing: &policy})
			require.NoError(t, err)
			assertDecimal(t, tt.subtotal, v.SubtotalExGST)
			assertDecimal(t, tt.gst, v.GSTAmount)
			assertDecimal(t, tt.total, v.TotalIncGST)
			assert.True(t, v.TotalIncGST.Equal(v.SubtotalExGST.Add(v.GSTAmount)))
		})
	}

	t.Run("inclusive", func(t *testing.T) {
		policy := models.PricingPolicy{GSTEnabled: true, GSTRate: dec("0.1"), PricesIncludeGST: true}
		notes := models.QuoteNotes{Terms: "30 days"}
		v, err := f.quotes.UpdateVersionTerms(ctx, detail.Version.ID, models.VersionTermsRequest{Pricing: &policy, Notes: &notes})
		require.NoError(t, err)
		assertDecimal(t, "2250", v.TotalIncGST)
		assert.True(t, v.SubtotalExGST.Equal(v.TotalIncGST.Div(dec("1.1"))))
		assert.True(t, v.TotalIncGST.Equal(v.SubtotalExGST.Add(v.GSTAmount)))
		assert.Equal(t, "30 days", v.Notes.Terms)
	})

	t.Run("negative rate", func(t *testing.T) {
		policy := models.PricingPolicy{GSTEnabled: true, GSTRate: dec("-0.1")}
		_, err := f.quotes.UpdateVersionTerms(ctx, detail.Version.ID, models.VersionTermsRequest{Pricing: &policy})
		requireKind(t, err, models.ValidationError)
	})
}
