package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fdg312/macro-coach/internal/storage"
	"github.com/google/uuid"
)

const insertMetricSQL = `
	INSERT INTO health_metrics (
		id, user_id, timestamp, kcal_out, heart_rate, steps, sleep_score, weight,
		protein_g, carbs_g, fat_g, kcal_in, workout_type, rpe, workout_duration_minutes,
		source, confidence, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertMetric(ctx context.Context, db execer, m *storage.HealthMetric) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx, insertMetricSQL,
		m.ID.String(), m.UserID, formatTime(m.Timestamp), m.KcalOut, m.HeartRate, m.Steps, m.SleepScore, m.Weight,
		m.ProteinG, m.CarbsG, m.FatG, m.KcalIn, m.WorkoutType, m.RPE, m.WorkoutDurationMinutes,
		m.Source, m.Confidence, formatTime(m.CreatedAt),
	)
	return err
}

func (s *SQLiteStorage) InsertMetric(ctx context.Context, metric *storage.HealthMetric) error {
	if err := s.ready(); err != nil {
		return err
	}
	return insertMetric(ctx, s.db, metric)
}

func (s *SQLiteStorage) InsertMetrics(ctx context.Context, metrics []storage.HealthMetric) error {
	if err := s.ready(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for i := range metrics {
		if err := insertMetric(ctx, tx, &metrics[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert metric batch: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStorage) ListMetrics(ctx context.Context, q storage.MetricQuery) ([]storage.HealthMetric, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	limit := -1 // SQLite: отрицательный LIMIT значит без ограничения
	if q.Limit > 0 {
		limit = q.Limit
	}

	const query = `
		SELECT id, user_id, timestamp, kcal_out, heart_rate, steps, sleep_score, weight,
			protein_g, carbs_g, fat_g, kcal_in, workout_type, rpe, workout_duration_minutes,
			source, confidence, created_at
		FROM health_metrics
		WHERE user_id = ?
		  AND (? IS NULL OR timestamp >= ?)
		  AND (? IS NULL OR timestamp <= ?)
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ?
	`

	start := formatTimePtr(q.Start)
	end := formatTimePtr(q.End)
	rows, err := s.db.QueryContext(ctx, query, q.UserID, start, start, end, end, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]storage.HealthMetric, 0)
	for rows.Next() {
		var m storage.HealthMetric
		var id, ts, createdAt string
		var source sql.NullString
		if err := rows.Scan(
			&id, &m.UserID, &ts, &m.KcalOut, &m.HeartRate, &m.Steps, &m.SleepScore, &m.Weight,
			&m.ProteinG, &m.CarbsG, &m.FatG, &m.KcalIn, &m.WorkoutType, &m.RPE, &m.WorkoutDurationMinutes,
			&source, &m.Confidence, &createdAt,
		); err != nil {
			return nil, err
		}
		if m.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if m.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		if m.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		m.Source = source.String
		result = append(result, m)
	}
	return result, rows.Err()
}
