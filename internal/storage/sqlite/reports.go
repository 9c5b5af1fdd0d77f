package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fdg312/macro-coach/internal/storage"
	"github.com/google/uuid"
)

func (s *SQLiteStorage) CreateReport(ctx context.Context, report *storage.ReportMeta) error {
	if err := s.ready(); err != nil {
		return err
	}

	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	report.CreatedAt = time.Now().UTC()

	const query = `
		INSERT INTO reports (id, user_id, format, from_date, to_date, object_key, size_bytes, status, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		report.ID.String(),
		report.UserID,
		report.Format,
		report.FromDate,
		report.ToDate,
		report.ObjectKey,
		report.SizeBytes,
		report.Status,
		report.Data,
		formatTime(report.CreatedAt),
	)
	return err
}

func (s *SQLiteStorage) GetReport(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	const query = `
		SELECT id, user_id, format, from_date, to_date, object_key, size_bytes, status, data, created_at
		FROM reports WHERE id = ?
	`
	r, err := scanReport(s.db.QueryRowContext(ctx, query, id.String()), true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return r, err
}

func (s *SQLiteStorage) ListReports(ctx context.Context, userID string, limit int) ([]storage.ReportMeta, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT id, user_id, format, from_date, to_date, object_key, size_bytes, status, created_at
		FROM reports WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]storage.ReportMeta, 0)
	for rows.Next() {
		r, err := scanReport(rows, false)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}

func scanReport(row rowScanner, withData bool) (*storage.ReportMeta, error) {
	var r storage.ReportMeta
	var id, createdAt string
	dest := []any{&id, &r.UserID, &r.Format, &r.FromDate, &r.ToDate, &r.ObjectKey, &r.SizeBytes, &r.Status}
	if withData {
		dest = append(dest, &r.Data)
	}
	dest = append(dest, &createdAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	var err error
	if r.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &r, nil
}
