package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/senyabanana/proposal-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

const quoteColumns = `id, quote_number, title, status, organisation_ref, contact_ref, contact_email, currency, created_by, created_at, updated_at`

const versionColumns = `id, quote_id, version_number, gst_enabled, gst_rate, prices_include_gst,
	subtotal_ex_gst, gst_amount, total_inc_gst, client_notes, assumptions, exclusions, terms, created_by, created_at`

func scanQuote(row pgx.Row) (*models.Quote, error) {
	var q models.Quote
	err := row.Scan(
		&q.ID,
		&q.QuoteNumber,
		&q.Title,
		&q.Status,
		&q.OrganisationRef,
		&q.ContactRef,
		&q.ContactEmail,
		&q.Currency,
		&q.CreatedBy,
		&q.CreatedAt,
		&q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func scanVersion(row pgx.Row) (*models.QuoteVersion, error) {
	var v models.QuoteVersion
	err := row.Scan(
		&v.ID,
		&v.QuoteID,
		&v.VersionNumber,
		&v.Pricing.GSTEnabled,
		&v.Pricing.GSTRate,
		&v.Pricing.PricesIncludeGST,
		&v.SubtotalExGST,
		&v.GSTAmount,
		&v.TotalIncGST,
		&v.Notes.ClientNotes,
		&v.Notes.Assumptions,
		&v.Notes.Exclusions,
		&v.Notes.Terms,
		&v.CreatedBy,
		&v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// NextQuoteSequence возвращает следующий номер предложения.
func (r *PostgresStore) NextQuoteSequence(ctx context.Context) (int64, error) {
	var seq int64
	err := r.DB.QueryRow(ctx, `SELECT nextval('quote_number_seq')`).Scan(&seq)
	return seq, err
}

// CreateQuote создает новое предложение.
func (r *PostgresStore) CreateQuote(ctx context.Context, q *models.Quote) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	_, err := r.DB.Exec(ctx, `
       INSERT INTO quotes (`+quoteColumns+`)
       VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
   `,
		q.ID,
		q.QuoteNumber,
		q.Title,
		q.Status,
		q.OrganisationRef,
		q.ContactRef,
		q.ContactEmail,
		q.Currency,
		q.CreatedBy,
		q.CreatedAt,
		q.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert quote: %w", err)
	}
	return nil
}

// GetQuote возвращает предложение по ID.
func (r *PostgresStore) GetQuote(ctx context.Context, quoteId string) (*models.Quote, error) {
	q, err := scanQuote(r.DB.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, quoteId))
	return q, notFound(err, "quote")
}

// GetQuoteByNumber возвращает предложение по номеру.
func (r *PostgresStore) GetQuoteByNumber(ctx context.Context, quoteNumber string) (*models.Quote, error) {
	q, err := scanQuote(r.DB.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE quote_number = $1`, quoteNumber))
	return q, notFound(err, "quote")
}

// ListQuotes возвращает список предложений, опционально фильтруя по статусам.
func (r *PostgresStore) ListQuotes(ctx context.Context, statuses []string, limit, offset int) ([]models.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes`
	var filters []string
	var args []interface{}
	argIndex := 1

	if len(statuses) > 0 {
		filters = append(filters, fmt.Sprintf("status = ANY($%d)", argIndex))
		args = append(args, pq.Array(statuses))
		argIndex++
	}

	if len(filters) > 0 {
		query += " WHERE " + strings.Join(filters, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quotes := []models.Quote{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, *q)
	}
	return quotes, rows.Err()
}

// UpdateQuoteStatus меняет статус предложения.
func (r *PostgresStore) UpdateQuoteStatus(ctx context.Context, quoteId string, status models.QuoteStatus) error {
	tag, err := r.DB.Exec(ctx, `UPDATE quotes SET status = $1, updated_at = now() WHERE id = $2`, status, quoteId)
	return expectAffected(tag, err, "quote")
}

// CreateVersion создает новую версию предложения.
func (r *PostgresStore) CreateVersion(ctx context.Context, v *models.QuoteVersion) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	_, err := r.DB.Exec(ctx, `
       INSERT INTO quote_versions (`+versionColumns+`)
       VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
   `,
		v.ID,
		v.QuoteID,
		v.VersionNumber,
		v.Pricing.GSTEnabled,
		v.Pricing.GSTRate,
		v.Pricing.PricesIncludeGST,
		v.SubtotalExGST,
		v.GSTAmount,
		v.TotalIncGST,
		v.Notes.ClientNotes,
		v.Notes.Assumptions,
		v.Notes.Exclusions,
		v.Notes.Terms,
		v.CreatedBy,
		v.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert quote version: %w", err)
	}
	return nil
}

// GetVersion возвращает версию по ID.
func (r *PostgresStore) GetVersion(ctx context.Context, versionId string) (*models.QuoteVersion, error) {
	v, err := scanVersion(r.DB.QueryRow(ctx, `SELECT `+versionColumns+` FROM quote_versions WHERE id = $1`, versionId))
	return v, notFound(err, "quote version")
}

// ListVersions возвращает все версии предложения по возрастанию номера.
func (r *PostgresStore) ListVersions(ctx context.Context, quoteId string) ([]models.QuoteVersion, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+versionColumns+` FROM quote_versions WHERE quote_id = $1 ORDER BY version_number`, quoteId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	versions := []models.QuoteVersion{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *v)
	}
	return versions, rows.Err()
}

// MaxVersionNumber возвращает наибольший номер версии или 0.
func (r *PostgresStore) MaxVersionNumber(ctx context.Context, quoteId string) (int, error) {
	var maxVersion int
	err := r.DB.QueryRow(ctx, `SELECT COALESCE(MAX(version_number), 0) FROM quote_versions WHERE quote_id = $1`, quoteId).Scan(&maxVersion)
	return maxVersion, err
}

// UpdateVersion сохраняет условия и итоги версии.
func (r *PostgresStore) UpdateVersion(ctx context.Context, v *models.QuoteVersion) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE quote_versions SET
			gst_enabled = $1, gst_rate = $2, prices_include_gst = $3,
			subtotal_ex_gst = $4, gst_amount = $5, total_inc_gst = $6,
			client_notes = $7, assumptions = $8, exclusions = $9, terms = $10
		WHERE id = $11`,
		v.Pricing.GSTEnabled,
		v.Pricing.GSTRate,
		v.Pricing.PricesIncludeGST,
		v.SubtotalExGST,
		v.GSTAmount,
		v.TotalIncGST,
		v.Notes.ClientNotes,
		v.Notes.Assumptions,
		v.Notes.Exclusions,
		v.Notes.Terms,
		v.ID)
	return expectAffected(tag, err, "quote version")
}
