package repository

import (
	"context"
	"fmt"

	"github.com/senyabanana/proposal-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const actionColumns = `id, quote_id, quote_version_id, action, client_name, note, created_at`

func scanAction(row pgx.Row) (*models.QuoteAction, error) {
	var a models.QuoteAction
	if err := row.Scan(&a.ID, &a.QuoteID, &a.QuoteVersionID, &a.Action, &a.ClientName, &a.Note, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// UpsertAccessCode сохраняет единственный действующий код предложения, перезаписывая предыдущий.
func (r *PostgresStore) UpsertAccessCode(ctx context.Context, c *models.QuoteAccessCode) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	err := r.DB.QueryRow(ctx, `
		INSERT INTO quote_access_codes (id, quote_id, quote_version_id, code, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (quote_id) DO UPDATE SET
			quote_version_id = EXCLUDED.quote_version_id,
			code = EXCLUDED.code,
			expires_at = EXCLUDED.expires_at,
			created_at = EXCLUDED.created_at
		RETURNING id`,
		c.ID, c.QuoteID, c.QuoteVersionID, c.Code, c.ExpiresAt, c.CreatedAt).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert access code: %w", err)
	}
	return nil
}

// GetAccessCode возвращает действующий код предложения.
func (r *PostgresStore) GetAccessCode(ctx context.Context, quoteId string) (*models.QuoteAccessCode, error) {
	var c models.QuoteAccessCode
	err := r.DB.QueryRow(ctx, `
		SELECT id, quote_id, quote_version_id, code, expires_at, created_at
		FROM quote_access_codes WHERE quote_id = $1`, quoteId).
		Scan(&c.ID, &c.QuoteID, &c.QuoteVersionID, &c.Code, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		return nil, notFound(err, "access code")
	}
	return &c, nil
}

// CreateQuoteAction записывает действие клиента.
func (r *PostgresStore) CreateQuoteAction(ctx context.Context, a *models.QuoteAction) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	_, err := r.DB.Exec(ctx, `
       INSERT INTO quote_actions (`+actionColumns+`)
       VALUES ($1, $2, $3, $4, $5, $6, $7)
   `, a.ID, a.QuoteID, a.QuoteVersionID, a.Action, a.ClientName, a.Note, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert quote action: %w", err)
	}
	return nil
}

// ListQuoteActions возвращает действия клиента по предложению в порядке записи.
func (r *PostgresStore) ListQuoteActions(ctx context.Context, quoteId string) ([]models.QuoteAction, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+actionColumns+` FROM quote_actions WHERE quote_id = $1 ORDER BY created_at`, quoteId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	actions := []models.QuoteAction{}
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, *a)
	}
	return actions, rows.Err()
}

// GetTerminalAction возвращает ответ клиента (approved/rejected) по версии.
func (r *PostgresStore) GetTerminalAction(ctx context.Context, versionId string) (*models.QuoteAction, error) {
	a, err := scanAction(r.DB.QueryRow(ctx, `SELECT `+actionColumns+` FROM quote_actions
		WHERE quote_version_id = $1 AND action IN ('approved', 'rejected')`, versionId))
	return a, notFound(err, "quote action")
}
