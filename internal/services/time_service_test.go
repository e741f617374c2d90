package services

import (
	"context"
	"testing"

	"github.com/senyabanana/proposal-service/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) logTime(t *testing.T, milestoneId, hours string, override bool) *models.LogTimeResult {
	t.Helper()
	res, err := f.time.LogTime(context.Background(), models.LogTimeRequest{
		ProjectMilestoneID: milestoneId,
		Hours:              dec(hours),
		EntryDate:          "2024-03-01",
		OverrideAccepted:   override,
	}, "author-1")
	require.NoError(t, err)
	return res
}

func TestLogTimeOverrideProtocol(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	project := f.approved(t, "20", "20")
	require.Len(t, project.Deliverables, 1)
	d := project.Deliverables[0]
	assertDecimal(t, "40", d.PlannedHours)
	m1, m2 := d.Milestones[0], d.Milestones[1]

	for _, h := range []string{"12", "12", "11"} {
		res := f.logTime(t, m1.ID, h, false)
		require.NotNil(t, res.Entry)
		assert.Nil(t, res.Warning)
	}

	res := f.logTime(t, m2.ID, "10", false)
	assert.Nil(t, res.Entry)
	require.NotNil(t, res.Warning)
	assertDecimal(t, "40", res.Warning.Budget)
	assertDecimal(t, "5", res.Warning.Remaining)
	assertDecimal(t, "10", res.Warning.Requested)
	assertDecimal(t, "5", res.Warning.OverBy)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AllocationWarnings.WithLabelValues("delivery")))

	entries, err := f.time.ListTimeEntries(ctx, m2.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	res = f.logTime(t, m2.ID, "10", true)
	require.NotNil(t, res.Entry)
	assert.True(t, res.Overridden)
	assertDecimal(t, "10", res.Entry.Hours)
	assert.Equal(t, "author-1", res.Entry.CreatedBy)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AllocationOverride))

	entries, err = f.time.ListTimeEntries(ctx, m2.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestLogTimeWithinBudgetIgnoresOverrideFlag(t *testing.T) {
	f := newFixture(t, false)
	project := f.approved(t, "8")
	m := project.Deliverables[0].Milestones[0]

	res := f.logTime(t, m.ID, "8", true)
	require.NotNil(t, res.Entry)
	assert.Nil(t, res.Warning)
	assert.False(t, res.Overridden)
}

func TestLogTimeValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	project := f.approved(t, "40")
	m := project.Deliverables[0].Milestones[0]

	tests := []struct {
		name  string
		req   models.LogTimeRequest
		field string
	}{
		{name: "zero hours", req: models.LogTimeRequest{ProjectMilestoneID: m.ID, Hours: decimal.Zero, EntryDate: "2024-03-01"}, field: "hours"},
		{name: "above daily max", req: models.LogTimeRequest{ProjectMilestoneID: m.ID, Hours: dec("12.01"), EntryDate: "2024-03-01"}, field: "hours"},
		{name: "negative hours", req: models.LogTimeRequest{ProjectMilestoneID: m.ID, Hours: dec("-1"), EntryDate: "2024-03-01"}, field: "hours"},
		{name: "missing date", req: models.LogTimeRequest{ProjectMilestoneID: m.ID, Hours: dec("1")}, field: "entryDate"},
		{name: "invalid date", req: models.LogTimeRequest{ProjectMilestoneID: m.ID, Hours: dec("1"), EntryDate: "01/03/2024"}, field: "entryDate"},
		{name: "missing milestone", req: models.LogTimeRequest{Hours: dec("1"), EntryDate: "2024-03-01"}, field: "projectMilestoneId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.time.LogTime(ctx, tt.req, "author-1")
			errorResponse := requireKind(t, err, models.ValidationError)
			assert.Contains(t, errorResponse.Details, tt.field)
		})
	}

	res := f.logTime(t, m.ID, "12", false)
	require.NotNil(t, res.Entry)
	assert.Equal(t, "2024-03-01", res.Entry.EntryDate.Format(models.DateLayout))

	_, err := f.time.LogTime(ctx, models.LogTimeRequest{
		ProjectMilestoneID: "missing",
		Hours:              dec("1"),
		EntryDate:          "2024-03-01",
	}, "author-1")
	requireKind(t, err, models.NotFoundError)
}

func TestEditTimeEntryExcludesOwnHours(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	project := f.approved(t, "10")
	m := project.Deliverables[0].Milestones[0]

	first := f.logTime(t, m.ID, "6", false).Entry
	f.logTime(t, m.ID, "4", false)

	note := "site visit"
	same := dec("6")
	res, err := f.time.EditTimeEntry(ctx, first.ID, models.EditTimeEntryRequest{Hours: &same, Note: &note})
	require.NoError(t, err)
	require.NotNil(t, res.Entry)
	assert.Nil(t, res.Warning)
	assert.Equal(t, "site visit", res.Entry.Note)

	more := dec("7")
	res, err = f.time.EditTimeEntry(ctx, first.ID, models.EditTimeEntryRequest{Hours: &more})
	require.NoError(t, err)
	assert.Nil(t, res.Entry)
	require.NotNil(t, res.Warning)
	assertDecimal(t, "6", res.Warning.Remaining)
	assertDecimal(t, "1", res.Warning.OverBy)

	stored, err := f.store.GetTimeEntry(ctx, first.ID)
	require.NoError(t, err)
	assertDecimal(t, "6", stored.Hours)

	res, err = f.time.EditTimeEntry(ctx, first.ID, models.EditTimeEntryRequest{Hours: &more, OverrideAccepted: true})
	require.NoError(t, err)
	require.NotNil(t, res.Entry)
	assert.True(t, res.Overridden)
	assertDecimal(t, "7", res.Entry.Hours)

	tooMany := dec("13")
	_, err = f.time.EditTimeEntry(ctx, first.ID, models.EditTimeEntryRequest{Hours: &tooMany})
	requireKind(t, err, models.ValidationError)

	badDate := "yesterday"
	_, err = f.time.EditTimeEntry(ctx, first.ID, models.EditTimeEntryRequest{EntryDate: &badDate})
	requireKind(t, err, models.ValidationError)

	_, err = f.time.EditTimeEntry(ctx, "missing", models.EditTimeEntryRequest{Note: &note})
	requireKind(t, err, models.NotFoundError)
}

func TestDeleteTimeEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	project := f.approved(t, "10")
	m := project.Deliverables[0].Milestones[0]

	entry := f.logTime(t, m.ID, "10", false).Entry
	require.NoError(t, f.time.DeleteTimeEntry(ctx, entry.ID))

	err := f.time.DeleteTimeEntry(ctx, entry.ID)
	requireKind(t, err, models.NotFoundError)

	res := f.logTime(t, m.ID, "10", false)
	require.NotNil(t, res.Entry)
	assert.Nil(t, res.Warning)
}
