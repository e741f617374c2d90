package repository

import (
	"context"
	"fmt"

	"github.com/senyabanana/proposal-service/internal/models"

	"github.com/google/uuid"
)

// CreateProject создает проект вместе с копиями результатов и этапов.
func (r *PostgresStore) CreateProject(ctx context.Context, p *models.Project) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	_, err := r.DB.Exec(ctx, `
       INSERT INTO projects (id, quote_id, quote_version_id, title, created_at)
       VALUES ($1, $2, $3, $4, $5)
   `, p.ID, p.QuoteID, p.QuoteVersionID, p.Title, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}

	for i := range p.Deliverables {
		d := &p.Deliverables[i]
		if d.ID == "" {
			d.ID = uuid.New().String()
		}
		d.ProjectID = p.ID
		_, err = r.DB.Exec(ctx, `
			INSERT INTO project_deliverables (id, project_id, source_deliverable_id, sort_order, title, planned_hours)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			d.ID, d.ProjectID, d.SourceDeliverableID, d.Order, d.Title, d.PlannedHours)
		if err != nil {
			return fmt.Errorf("failed to insert project deliverable: %w", err)
		}

		for j := range d.Milestones {
			m := &d.Milestones[j]
			if m.ID == "" {
				m.ID = uuid.New().String()
			}
			m.ProjectDeliverableID = d.ID
			_, err = r.DB.Exec(ctx, `
				INSERT INTO project_milestones (id, project_deliverable_id, source_milestone_id, sort_order, title, planned_hours)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				m.ID, m.ProjectDeliverableID, m.SourceMilestoneID, m.Order, m.Title, m.PlannedHours)
			if err != nil {
				return fmt.Errorf("failed to insert project milestone: %w", err)
			}
		}
	}
	return nil
}

// GetProject возвращает проект с результатами и этапами.
func (r *PostgresStore) GetProject(ctx context.Context, projectId string) (*models.Project, error) {
	var p models.Project
	err := r.DB.QueryRow(ctx, `SELECT id, quote_id, quote_version_id, title, created_at FROM projects WHERE id = $1`, projectId).
		Scan(&p.ID, &p.QuoteID, &p.QuoteVersionID, &p.Title, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err, "project")
	}
	if err := r.loadProjectTree(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProjectByQuote возвращает проект, созданный из предложения.
func (r *PostgresStore) GetProjectByQuote(ctx context.Context, quoteId string) (*models.Project, error) {
	var projectId string
	err := r.DB.QueryRow(ctx, `SELECT id FROM projects WHERE quote_id = $1`, quoteId).Scan(&projectId)
	if err != nil {
		return nil, notFound(err, "project")
	}
	return r.GetProject(ctx, projectId)
}

func (r *PostgresStore) loadProjectTree(ctx context.Context, p *models.Project) error {
	rows, err := r.DB.Query(ctx, `
		SELECT id, project_id, source_deliverable_id, sort_order, title, planned_hours
		FROM project_deliverables WHERE project_id = $1 ORDER BY sort_order, id`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	index := map[string]int{}
	p.Deliverables = []models.ProjectDeliverable{}
	for rows.Next() {
		var d models.ProjectDeliverable
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.SourceDeliverableID, &d.Order, &d.Title, &d.PlannedHours); err != nil {
			return err
		}
		d.Milestones = []models.ProjectMilestone{}
		index[d.ID] = len(p.Deliverables)
		p.Deliverables = append(p.Deliverables, d)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	mrows, err := r.DB.Query(ctx, `
		SELECT pm.id, pm.project_deliverable_id, pm.source_milestone_id, pm.sort_order, pm.title, pm.planned_hours
		FROM project_milestones pm
		JOIN project_deliverables pd ON pd.id = pm.project_deliverable_id
		WHERE pd.project_id = $1 ORDER BY pm.sort_order, pm.id`, p.ID)
	if err != nil {
		return err
	}
	defer mrows.Close()

	for mrows.Next() {
		var m models.ProjectMilestone
		if err := mrows.Scan(&m.ID, &m.ProjectDeliverableID, &m.SourceMilestoneID, &m.Order, &m.Title, &m.PlannedHours); err != nil {
			return err
		}
		if i, ok := index[m.ProjectDeliverableID]; ok {
			p.Deliverables[i].Milestones = append(p.Deliverables[i].Milestones, m)
		}
	}
	return mrows.Err()
}

// GetProjectMilestone возвращает этап проекта по ID.
func (r *PostgresStore) GetProjectMilestone(ctx context.Context, milestoneId string) (*models.ProjectMilestone, error) {
	var m models.ProjectMilestone
	err := r.DB.QueryRow(ctx, `
		SELECT id, project_deliverable_id, source_milestone_id, sort_order, title, planned_hours
		FROM project_milestones WHERE id = $1`, milestoneId).
		Scan(&m.ID, &m.ProjectDeliverableID, &m.SourceMilestoneID, &m.Order, &m.Title, &m.PlannedHours)
	if err != nil {
		return nil, notFound(err, "project milestone")
	}
	return &m, nil
}

// GetProjectDeliverable возвращает результат проекта по ID без этапов.
func (r *PostgresStore) GetProjectDeliverable(ctx context.Context, deliverableId string) (*models.ProjectDeliverable, error) {
	var d models.ProjectDeliverable
	err := r.DB.QueryRow(ctx, `
		SELECT id, project_id, source_deliverable_id, sort_order, title, planned_hours
		FROM project_deliverables WHERE id = $1`, deliverableId).
		Scan(&d.ID, &d.ProjectID, &d.SourceDeliverableID, &d.Order, &d.Title, &d.PlannedHours)
	if err != nil {
		return nil, notFound(err, "project deliverable")
	}
	return &d, nil
}
