package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/fdg312/macro-coach/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateReport сохраняет метаданные отчёта. Data пишется только в local режиме.
func (p *PostgresStorage) CreateReport(ctx context.Context, report *storage.ReportMeta) error {
	if err := p.ready(); err != nil {
		return err
	}

	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	report.CreatedAt = time.Now().UTC()

	const query = `
		INSERT INTO reports (id, user_id, format, from_date, to_date, object_key, size_bytes, status, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := p.pool.Exec(ctx, query,
		report.ID,
		report.UserID,
		report.Format,
		report.FromDate,
		report.ToDate,
		report.ObjectKey,
		report.SizeBytes,
		report.Status,
		report.Data,
		report.CreatedAt,
	)
	return err
}

func (p *PostgresStorage) GetReport(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}

	const query = `
		SELECT id, user_id, format, from_date::text, to_date::text, object_key, size_bytes, status, data, created_at
		FROM reports
		WHERE id = $1
	`

	var r storage.ReportMeta
	err := p.pool.QueryRow(ctx, query, id).Scan(
		&r.ID, &r.UserID, &r.Format, &r.FromDate, &r.ToDate, &r.ObjectKey, &r.SizeBytes, &r.Status, &r.Data, &r.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *PostgresStorage) ListReports(ctx context.Context, userID string, limit int) ([]storage.ReportMeta, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT id, user_id, format, from_date::text, to_date::text, object_key, size_bytes, status, created_at
		FROM reports
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := p.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]storage.ReportMeta, 0)
	for rows.Next() {
		var r storage.ReportMeta
		if err := rows.Scan(&r.ID, &r.UserID, &r.Format, &r.FromDate, &r.ToDate, &r.ObjectKey, &r.SizeBytes, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
