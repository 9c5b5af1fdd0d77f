package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fdg312/macro-coach/internal/storage"
	"github.com/jackc/pgx/v5"
)

const planColumns = `
	user_id, date, target_kcal, target_protein_g, target_carbs_g, target_fat_g,
	target_steps, target_workout_minutes, suggested_meals, plan_reasoning, adjustments_made, created_at
`

func (p *PostgresStorage) UpsertPlan(ctx context.Context, plan *storage.DailyPlan) error {
	if err := p.ready(); err != nil {
		return err
	}

	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}
	meals, err := json.Marshal(nonNilMeals(plan.SuggestedMeals))
	if err != nil {
		return fmt.Errorf("marshal meals: %w", err)
	}

	const query = `
		INSERT INTO daily_plans (` + planColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id, date) DO UPDATE SET
			target_kcal = EXCLUDED.target_kcal,
			target_protein_g = EXCLUDED.target_protein_g,
			target_carbs_g = EXCLUDED.target_carbs_g,
			target_fat_g = EXCLUDED.target_fat_g,
			target_steps = EXCLUDED.target_steps,
			target_workout_minutes = EXCLUDED.target_workout_minutes,
			suggested_meals = EXCLUDED.suggested_meals,
			plan_reasoning = EXCLUDED.plan_reasoning,
			adjustments_made = EXCLUDED.adjustments_made,
			created_at = EXCLUDED.created_at
	`

	_, err = p.pool.Exec(ctx, query,
		plan.UserID,
		plan.Date,
		plan.TargetKcal,
		plan.TargetProteinG,
		plan.TargetCarbsG,
		plan.TargetFatG,
		plan.TargetSteps,
		plan.TargetWorkoutMinutes,
		meals,
		plan.PlanReasoning,
		nonNilStrings(plan.AdjustmentsMade),
		plan.CreatedAt,
	)
	return err
}

func (p *PostgresStorage) GetPlan(ctx context.Context, userID, date string) (*storage.DailyPlan, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}

	query := `SELECT ` + planColumns + ` FROM daily_plans WHERE user_id = $1 AND date = $2::date`
	plan, err := scanPlan(p.pool.QueryRow(ctx, query, userID, date))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return plan, err
}

func (p *PostgresStorage) ListPlans(ctx context.Context, userID string, limit int) ([]storage.DailyPlan, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 30
	}

	query := `SELECT ` + planColumns + ` FROM daily_plans WHERE user_id = $1 ORDER BY date DESC LIMIT $2`
	rows, err := p.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]storage.DailyPlan, 0)
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *plan)
	}
	return result, rows.Err()
}

func scanPlan(row pgx.Row) (*storage.DailyPlan, error) {
	var plan storage.DailyPlan
	var date time.Time
	var meals []byte
	err := row.Scan(
		&plan.UserID,
		&date,
		&plan.TargetKcal,
		&plan.TargetProteinG,
		&plan.TargetCarbsG,
		&plan.TargetFatG,
		&plan.TargetSteps,
		&plan.TargetWorkoutMinutes,
		&meals,
		&plan.PlanReasoning,
		&plan.AdjustmentsMade,
		&plan.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	plan.Date = date.Format("2006-01-02")
	if len(meals) > 0 {
		if err := json.Unmarshal(meals, &plan.SuggestedMeals); err != nil {
			return nil, fmt.Errorf("decode meals: %w", err)
		}
	}
	return &plan, nil
}

func nonNilMeals(v []storage.Meal) []storage.Meal {
	if v == nil {
		return []storage.Meal{}
	}
	return v
}
