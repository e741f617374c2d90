package repository

import (
	"context"
	"fmt"

	"github.com/senyabanana/proposal-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const timeEntryColumns = `id, project_milestone_id, entry_date, hours, note, created_by, created_at`

func scanTimeEntry(row pgx.Row) (*models.TimeEntry, error) {
	var e models.TimeEntry
	if err := row.Scan(&e.ID, &e.ProjectMilestoneID, &e.EntryDate, &e.Hours, &e.Note, &e.CreatedBy, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *PostgresStore) listTimeEntries(ctx context.Context, query string, arg string) ([]models.TimeEntry, error) {
	rows, err := r.DB.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.TimeEntry{}
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// CreateTimeEntry создает новое списание.
func (r *PostgresStore) CreateTimeEntry(ctx context.Context, e *models.TimeEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	_, err := r.DB.Exec(ctx, `
       INSERT INTO time_entries (`+timeEntryColumns+`)
       VALUES ($1, $2, $3, $4, $5, $6, $7)
   `, e.ID, e.ProjectMilestoneID, e.EntryDate, e.Hours, e.Note, e.CreatedBy, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert time entry: %w", err)
	}
	return nil
}

// GetTimeEntry возвращает списание по ID.
func (r *PostgresStore) GetTimeEntry(ctx context.Context, entryId string) (*models.TimeEntry, error) {
	e, err := scanTimeEntry(r.DB.QueryRow(ctx, `SELECT `+timeEntryColumns+` FROM time_entries WHERE id = $1`, entryId))
	return e, notFound(err, "time entry")
}

// UpdateTimeEntry сохраняет часы, дату и заметку списания.
func (r *PostgresStore) UpdateTimeEntry(ctx context.Context, e *models.TimeEntry) error {
	tag, err := r.DB.Exec(ctx, `UPDATE time_entries SET entry_date = $1, hours = $2, note = $3 WHERE id = $4`,
		e.EntryDate, e.Hours, e.Note, e.ID)
	return expectAffected(tag, err, "time entry")
}

// DeleteTimeEntry удаляет списание.
func (r *PostgresStore) DeleteTimeEntry(ctx context.Context, entryId string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM time_entries WHERE id = $1`, entryId)
	return expectAffected(tag, err, "time entry")
}

// ListTimeEntries возвращает списания этапа по дате.
func (r *PostgresStore) ListTimeEntries(ctx context.Context, milestoneId string) ([]models.TimeEntry, error) {
	return r.listTimeEntries(ctx, `SELECT `+timeEntryColumns+` FROM time_entries
		WHERE project_milestone_id = $1 ORDER BY entry_date, created_at`, milestoneId)
}

// ListProjectTimeEntries возвращает все списания проекта.
func (r *PostgresStore) ListProjectTimeEntries(ctx context.Context, projectId string) ([]models.TimeEntry, error) {
	return r.listTimeEntries(ctx, `SELECT te.id, te.project_milestone_id, te.entry_date, te.hours, te.note, te.created_by, te.created_at
		FROM time_entries te
		JOIN project_milestones pm ON pm.id = te.project_milestone_id
		JOIN project_deliverables pd ON pd.id = pm.project_deliverable_id
		WHERE pd.project_id = $1 ORDER BY te.entry_date, te.created_at`, projectId)
}

// SumDeliverableHours суммирует часы по результату проекта без учёта excludeEntryId.
func (r *PostgresStore) SumDeliverableHours(ctx context.Context, deliverableId, excludeEntryId string) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(te.hours), 0)
		FROM time_entries te
		JOIN project_milestones pm ON pm.id = te.project_milestone_id
		WHERE pm.project_deliverable_id = $1`
	args := []interface{}{deliverableId}
	if excludeEntryId != "" {
		query += ` AND te.id <> $2`
		args = append(args, excludeEntryId)
	}

	var total decimal.Decimal
	if err := r.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
