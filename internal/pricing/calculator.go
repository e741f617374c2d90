// Package pricing содержит чистые функции расчёта сумм предложения.
package pricing

import (
	"github.com/senyabanana/proposal-service/internal/models"

	"github.com/shopspring/decimal"
)

// MilestoneUnits возвращает количество единиц этапа: часы для hours, иначе quantity.
func MilestoneUnits(m models.Milestone) decimal.Decimal {
	if m.PricingUnit == models.Hours {
		return m.EstimatedHours
	}
	return m.Quantity
}

// DeliverableTotalUnits суммирует единицы всех этапов результата.
func DeliverableTotalUnits(milestones []models.Milestone) decimal.Decimal {
	total := decimal.Zero
	for _, m := range milestones {
		total = total.Add(MilestoneUnits(m))
	}
	return total
}

// DeliverableSubtotal возвращает стоимость результата без GST.
func DeliverableSubtotal(d models.Deliverable, milestones []models.Milestone) decimal.Decimal {
	if d.PricingMode == models.FixedPrice {
		return d.FixedPriceExGST
	}
	return d.DefaultClientRate.Mul(DeliverableTotalUnits(milestones))
}

// MilestoneClientAmount считает сумму этапа по ставке результата.
// Собственная ClientRate этапа в расчёт не входит.
func MilestoneClientAmount(m models.Milestone, d models.Deliverable) decimal.Decimal {
	return MilestoneUnits(m).Mul(d.DefaultClientRate)
}

// VersionSubtotal суммирует стоимости результатов версии.
func VersionSubtotal(deliverables []models.Deliverable) decimal.Decimal {
	total := decimal.Zero
	for _, d := range deliverables {
		total = total.Add(d.SubtotalExGST)
	}
	return total
}

// Totals - итоговые суммы версии.
type Totals struct {
	SubtotalExGST decimal.Decimal
	GSTAmount     decimal.Decimal
	TotalIncGST   decimal.Decimal
}

// ApplyGST применяет политику GST к сумме результатов.
// При PricesIncludeGST сумма считается уже включающей налог.
func ApplyGST(sum decimal.Decimal, policy models.PricingPolicy) Totals {
	if !policy.GSTEnabled {
		return Totals{SubtotalExGST: sum, GSTAmount: decimal.Zero, TotalIncGST: sum}
	}
	if policy.PricesIncludeGST {
		subtotal := sum.Div(decimal.NewFromInt(1).Add(policy.GSTRate))
		return Totals{SubtotalExGST: subtotal, GSTAmount: sum.Sub(subtotal), TotalIncGST: sum}
	}
	gst := sum.Mul(policy.GSTRate)
	return Totals{SubtotalExGST: sum, GSTAmount: gst, TotalIncGST: sum.Add(gst)}
}

// RecomputeDeliverable обновляет производные поля результата и его этапов.
func RecomputeDeliverable(d *models.Deliverable, milestones []models.Milestone) {
	for i := range milestones {
		milestones[i].ClientAmountExGST = MilestoneClientAmount(milestones[i], *d)
	}
	d.TotalUnits = DeliverableTotalUnits(milestones)
	d.SubtotalExGST = DeliverableSubtotal(*d, milestones)
}

// RecomputeVersion обновляет итоги версии по её результатам.
func RecomputeVersion(v *models.QuoteVersion, deliverables []models.Deliverable) {
	t := ApplyGST(VersionSubtotal(deliverables), v.Pricing)
	v.SubtotalExGST = t.SubtotalExGST
	v.GSTAmount = t.GSTAmount
	v.TotalIncGST = t.TotalIncGST
}
