package services

import (
	"context"
	"testing"

	"github.com/senyabanana/proposal-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterializeProject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	project := f.approved(t, "10", "5")

	require.Len(t, project.Deliverables, 1)
	d := project.Deliverables[0]
	assert.Equal(t, "Audit", d.Title)
	assertDecimal(t, "15", d.PlannedHours)
	require.Len(t, d.Milestones, 2)
	assertDecimal(t, "10", d.Milestones[0].PlannedHours)
	assertDecimal(t, "5", d.Milestones[1].PlannedHours)
	assert.NotEmpty(t, d.Milestones[0].SourceMilestoneID)

	again, err := f.projects.MaterializeProject(ctx, project.QuoteID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, again.ID)
}

func TestMaterializeProjectRequiresApproval(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	detail, _ := f.newQuote(t, "")

	_, err := f.projects.MaterializeProject(ctx, detail.Quote.ID)
	requireKind(t, err, models.StateConflictError)

	_, err = f.projects.MaterializeProject(ctx, "missing")
	requireKind(t, err, models.NotFoundError)
}

func TestProjectSurvivesNewVersion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	project := f.approved(t, "10", "5")

	version, err := f.quotes.CreateVersion(ctx, project.QuoteID, "author-1")
	require.NoError(t, err)
	assert.Equal(t, 2, version.VersionNumber)
	d, err := f.authoring.AddDeliverable(ctx, version.ID)
	require.NoError(t, err)
	f.saveRolledUp(t, version.ID, d.ID, "150", "0", "100")

	stored, err := f.projects.GetProjectByQuote(ctx, project.QuoteID)
	require.NoError(t, err)
	assert.Equal(t, project.QuoteVersionID, stored.QuoteVersionID)
	require.Len(t, stored.Deliverables, 1)
	assertDecimal(t, "15", stored.Deliverables[0].PlannedHours)
}

func TestProjectProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	project := f.approved(t, "8", "4")
	m1, m2 := project.Deliverables[0].Milestones[0], project.Deliverables[0].Milestones[1]

	f.logTime(t, m1.ID, "6", false)
	f.logTime(t, m2.ID, "1", false)

	progress, err := f.projects.Progress(ctx, project.ID)
	require.NoError(t, err)
	assertDecimal(t, "12", progress.PlannedHours)
	assertDecimal(t, "7", progress.LoggedHours)
	assert.Equal(t, 58, progress.Percent)

	require.Len(t, progress.Deliverables, 1)
	milestones := progress.Deliverables[0].Milestones
	require.Len(t, milestones, 2)
	assert.Equal(t, 75, milestones[0].Percent)
	assert.Equal(t, 25, milestones[1].Percent)

	f.logTime(t, m2.ID, "5", true)
	progress, err = f.projects.Progress(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, progress.Deliverables[0].Milestones[1].Percent)

	_, err = f.projects.Progress(ctx, "missing")
	requireKind(t, err, models.NotFoundError)
}
