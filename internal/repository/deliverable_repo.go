package repository

import (
	"context"
	"fmt"

	"github.com/senyabanana/proposal-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const deliverableColumns = `id, quote_version_id, sort_order, title, description, pricing_mode,
	fixed_price_ex_gst, default_client_rate, budget_hours, total_units, subtotal_ex_gst, completion_state`

const milestoneColumns = `id, deliverable_id, sort_order, title, description, pricing_unit, quantity,
	estimated_hours, billable, delivery_mode, supplier_name, cost_rate, client_rate, client_amount_ex_gst, completion_state`

func scanDeliverable(row pgx.Row) (*models.Deliverable, error) {
	var d models.Deliverable
	err := row.Scan(
		&d.ID,
		&d.QuoteVersionID,
		&d.Order,
		&d.Title,
		&d.Description,
		&d.PricingMode,
		&d.FixedPriceExGST,
		&d.DefaultClientRate,
		&d.BudgetHours,
		&d.TotalUnits,
		&d.SubtotalExGST,
		&d.State)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanMilestone(row pgx.Row) (*models.Milestone, error) {
	var m models.Milestone
	err := row.Scan(
		&m.ID,
		&m.DeliverableID,
		&m.Order,
		&m.Title,
		&m.Description,
		&m.PricingUnit,
		&m.Quantity,
		&m.EstimatedHours,
		&m.Billable,
		&m.DeliveryMode,
		&m.SupplierName,
		&m.CostRate,
		&m.ClientRate,
		&m.ClientAmountExGST,
		&m.State)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateDeliverable создает новый результат.
func (r *PostgresStore) CreateDeliverable(ctx context.Context, d *models.Deliverable) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	_, err := r.DB.Exec(ctx, `
       INSERT INTO deliverables (`+deliverableColumns+`)
       VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
   `,
		d.ID,
		d.QuoteVersionID,
		d.Order,
		d.Title,
		d.Description,
		d.PricingMode,
		d.FixedPriceExGST,
		d.DefaultClientRate,
		d.BudgetHours,
		d.TotalUnits,
		d.SubtotalExGST,
		d.State)
	if err != nil {
		return fmt.Errorf("failed to insert deliverable: %w", err)
	}
	return nil
}

// UpdateDeliverable сохраняет все поля результата, включая производные.
func (r *PostgresStore) UpdateDeliverable(ctx context.Context, d *models.Deliverable) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE deliverables SET
			sort_order = $1, title = $2, description = $3, pricing_mode = $4,
			fixed_price_ex_gst = $5, default_client_rate = $6, budget_hours = $7,
			total_units = $8, subtotal_ex_gst = $9, completion_state = $10
		WHERE id = $11`,
		d.Order,
		d.Title,
		d.Description,
		d.PricingMode,
		d.FixedPriceExGST,
		d.DefaultClientRate,
		d.BudgetHours,
		d.TotalUnits,
		d.SubtotalExGST,
		d.State,
		d.ID)
	return expectAffected(tag, err, "deliverable")
}

// GetDeliverable возвращает результат по ID без этапов.
func (r *PostgresStore) GetDeliverable(ctx context.Context, deliverableId string) (*models.Deliverable, error) {
	d, err := scanDeliverable(r.DB.QueryRow(ctx, `SELECT `+deliverableColumns+` FROM deliverables WHERE id = $1`, deliverableId))
	return d, notFound(err, "deliverable")
}

// ListDeliverables возвращает результаты версии по порядку.
func (r *PostgresStore) ListDeliverables(ctx context.Context, versionId string) ([]models.Deliverable, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+deliverableColumns+` FROM deliverables WHERE quote_version_id = $1 ORDER BY sort_order, id`, versionId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deliverables := []models.Deliverable{}
	for rows.Next() {
		d, err := scanDeliverable(rows)
		if err != nil {
			return nil, err
		}
		deliverables = append(deliverables, *d)
	}
	return deliverables, rows.Err()
}

// DeleteDeliverable удаляет результат вместе с этапами.
func (r *PostgresStore) DeleteDeliverable(ctx context.Context, deliverableId string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM deliverables WHERE id = $1`, deliverableId)
	return expectAffected(tag, err, "deliverable")
}

// CreateMilestone создает новый этап.
func (r *PostgresStore) CreateMilestone(ctx context.Context, m *models.Milestone) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	_, err := r.DB.Exec(ctx, `
       INSERT INTO milestones (`+milestoneColumns+`)
       VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
   `,
		m.ID,
		m.DeliverableID,
		m.Order,
		m.Title,
		m.Description,
		m.PricingUnit,
		m.Quantity,
		m.EstimatedHours,
		m.Billable,
		m.DeliveryMode,
		m.SupplierName,
		m.CostRate,
		m.ClientRate,
		m.ClientAmountExGST,
		m.State)
	if err != nil {
		return fmt.Errorf("failed to insert milestone: %w", err)
	}
	return nil
}

// UpdateMilestone сохраняет все поля этапа.
func (r *PostgresStore) UpdateMilestone(ctx context.Context, m *models.Milestone) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE milestones SET
			sort_order = $1, title = $2, description = $3, pricing_unit = $4, quantity = $5,
			estimated_hours = $6, billable = $7, delivery_mode = $8, supplier_name = $9,
			cost_rate = $10, client_rate = $11, client_amount_ex_gst = $12, completion_state = $13
		WHERE id = $14`,
		m.Order,
		m.Title,
		m.Description,
		m.PricingUnit,
		m.Quantity,
		m.EstimatedHours,
		m.Billable,
		m.DeliveryMode,
		m.SupplierName,
		m.CostRate,
		m.ClientRate,
		m.ClientAmountExGST,
		m.State,
		m.ID)
	return expectAffected(tag, err, "milestone")
}

// GetMilestone возвращает этап по ID.
func (r *PostgresStore) GetMilestone(ctx context.Context, milestoneId string) (*models.Milestone, error) {
	m, err := scanMilestone(r.DB.QueryRow(ctx, `SELECT `+milestoneColumns+` FROM milestones WHERE id = $1`, milestoneId))
	return m, notFound(err, "milestone")
}

// ListMilestones возвращает этапы результата по порядку.
func (r *PostgresStore) ListMilestones(ctx context.Context, deliverableId string) ([]models.Milestone, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+milestoneColumns+` FROM milestones WHERE deliverable_id = $1 ORDER BY sort_order, id`, deliverableId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	milestones := []models.Milestone{}
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, *m)
	}
	return milestones, rows.Err()
}

// DeleteMilestone удаляет этап.
func (r *PostgresStore) DeleteMilestone(ctx context.Context, milestoneId string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM milestones WHERE id = $1`, milestoneId)
	return expectAffected(tag, err, "milestone")
}
