package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/fdg312/macro-coach/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const insertMetricSQL = `
	INSERT INTO health_metrics (
		id, user_id, timestamp, kcal_out, heart_rate, steps, sleep_score, weight,
		protein_g, carbs_g, fat_g, kcal_in, workout_type, rpe, workout_duration_minutes,
		source, confidence, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
`

const listMetricsSQL = `
	SELECT id, user_id, timestamp, kcal_out, heart_rate, steps, sleep_score, weight,
		protein_g, carbs_g, fat_g, kcal_in, workout_type, rpe, workout_duration_minutes,
		source, confidence, created_at
	FROM health_metrics
	WHERE user_id = $1
	  AND ($2::timestamptz IS NULL OR timestamp >= $2)
	  AND ($3::timestamptz IS NULL OR timestamp <= $3)
	ORDER BY timestamp DESC, created_at DESC
	LIMIT $4
`

func prepareMetric(m *storage.HealthMetric) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
}

func metricArgs(m *storage.HealthMetric) []any {
	return []any{
		m.ID, m.UserID, m.Timestamp, m.KcalOut, m.HeartRate, m.Steps, m.SleepScore, m.Weight,
		m.ProteinG, m.CarbsG, m.FatG, m.KcalIn, m.WorkoutType, m.RPE, m.WorkoutDurationMinutes,
		m.Source, m.Confidence, m.CreatedAt,
	}
}

func (p *PostgresStorage) InsertMetric(ctx context.Context, metric *storage.HealthMetric) error {
	if err := p.ready(); err != nil {
		return err
	}

	prepareMetric(metric)
	_, err := p.pool.Exec(ctx, insertMetricSQL, metricArgs(metric)...)
	return err
}

func (p *PostgresStorage) InsertMetrics(ctx context.Context, metrics []storage.HealthMetric) error {
	if err := p.ready(); err != nil {
		return err
	}
	if len(metrics) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range metrics {
		prepareMetric(&metrics[i])
		batch.Queue(insertMetricSQL, metricArgs(&metrics[i])...)
	}

	br := p.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range metrics {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert metric batch: %w", err)
		}
	}
	return nil
}

func (p *PostgresStorage) ListMetrics(ctx context.Context, q storage.MetricQuery) ([]storage.HealthMetric, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}

	// LIMIT NULL = без лимита
	var limit *int
	if q.Limit > 0 {
		limit = &q.Limit
	}

	rows, err := p.pool.Query(ctx, listMetricsSQL, q.UserID, q.Start, q.End, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]storage.HealthMetric, 0)
	for rows.Next() {
		var m storage.HealthMetric
		var source *string
		if err := rows.Scan(
			&m.ID, &m.UserID, &m.Timestamp, &m.KcalOut, &m.HeartRate, &m.Steps, &m.SleepScore, &m.Weight,
			&m.ProteinG, &m.CarbsG, &m.FatG, &m.KcalIn, &m.WorkoutType, &m.RPE, &m.WorkoutDurationMinutes,
			&source, &m.Confidence, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		if source != nil {
			m.Source = *source
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
