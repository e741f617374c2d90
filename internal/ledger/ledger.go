// Package ledger считает списанные часы и прогресс проекта.
package ledger

import (
	"github.com/senyabanana/proposal-service/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LoggedHours суммирует часы списаний по этапу.
func LoggedHours(entries []models.TimeEntry, milestoneID string) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.ProjectMilestoneID == milestoneID {
			total = total.Add(e.Hours)
		}
	}
	return total
}

// DeliverableLoggedHours суммирует часы по всем этапам результата.
func DeliverableLoggedHours(d models.ProjectDeliverable, entries []models.TimeEntry) decimal.Decimal {
	total := decimal.Zero
	for _, m := range d.Milestones {
		total = total.Add(LoggedHours(entries, m.ID))
	}
	return total
}

// ProgressPercent возвращает процент 0..100, округлённый половиной вверх.
func ProgressPercent(planned, logged decimal.Decimal) int {
	if !planned.IsPositive() {
		return 0
	}
	pct := logged.Mul(hundred).Div(planned).Round(0)
	if pct.GreaterThan(hundred) {
		return 100
	}
	return int(pct.IntPart())
}

func progress(planned, logged decimal.Decimal) models.Progress {
	return models.Progress{PlannedHours: planned, LoggedHours: logged, Percent: ProgressPercent(planned, logged)}
}

// Build собирает прогресс на уровнях этапа, результата и проекта.
func Build(p models.Project, entries []models.TimeEntry) models.ProjectProgress {
	out := models.ProjectProgress{ProjectID: p.ID, Deliverables: []models.DeliverableProgress{}}
	planned, logged := decimal.Zero, decimal.Zero

	for _, d := range p.Deliverables {
		dp := models.DeliverableProgress{DeliverableID: d.ID, Title: d.Title, Milestones: []models.MilestoneProgress{}}
		for _, m := range d.Milestones {
			dp.Milestones = append(dp.Milestones, models.MilestoneProgress{
				MilestoneID: m.ID,
				Title:       m.Title,
				Progress:    progress(m.PlannedHours, LoggedHours(entries, m.ID)),
			})
		}
		dLogged := DeliverableLoggedHours(d, entries)
		dp.Progress = progress(d.PlannedHours, dLogged)
		out.Deliverables = append(out.Deliverables, dp)

		planned = planned.Add(d.PlannedHours)
		logged = logged.Add(dLogged)
	}
	out.Progress = progress(planned, logged)
	return out
}
