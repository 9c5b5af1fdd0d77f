package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fdg312/macro-coach/internal/storage"
)

const planColumns = `
	user_id, date, target_kcal, target_protein_g, target_carbs_g, target_fat_g,
	target_steps, target_workout_minutes, suggested_meals, plan_reasoning, adjustments_made, created_at
`

func (s *SQLiteStorage) UpsertPlan(ctx context.Context, plan *storage.DailyPlan) error {
	if err := s.ready(); err != nil {
		return err
	}

	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}
	meals := plan.SuggestedMeals
	if meals == nil {
		meals = []storage.Meal{}
	}
	mealsJSON, err := json.Marshal(meals)
	if err != nil {
		return fmt.Errorf("marshal meals: %w", err)
	}
	adjustments, err := encodeStrings(plan.AdjustmentsMade)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO daily_plans (` + planColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, date) DO UPDATE SET
			target_kcal = excluded.target_kcal,
			target_protein_g = excluded.target_protein_g,
			target_carbs_g = excluded.target_carbs_g,
			target_fat_g = excluded.target_fat_g,
			target_steps = excluded.target_steps,
			target_workout_minutes = excluded.target_workout_minutes,
			suggested_meals = excluded.suggested_meals,
			plan_reasoning = excluded.plan_reasoning,
			adjustments_made = excluded.adjustments_made,
			created_at = excluded.created_at
	`

	_, err = s.db.ExecContext(ctx, query,
		plan.UserID,
		plan.Date,
		plan.TargetKcal,
		plan.TargetProteinG,
		plan.TargetCarbsG,
		plan.TargetFatG,
		plan.TargetSteps,
		plan.TargetWorkoutMinutes,
		string(mealsJSON),
		plan.PlanReasoning,
		adjustments,
		formatTime(plan.CreatedAt),
	)
	return err
}

func (s *SQLiteStorage) GetPlan(ctx context.Context, userID, date string) (*storage.DailyPlan, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM daily_plans WHERE user_id = ? AND date = ?`, userID, date)
	plan, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return plan, err
}

func (s *SQLiteStorage) ListPlans(ctx context.Context, userID string, limit int) ([]storage.DailyPlan, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 30
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+planColumns+` FROM daily_plans WHERE user_id = ? ORDER BY date DESC LIMIT ?`, userID, limit)
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

func scanPlan(row rowScanner) (*storage.DailyPlan, error) {
	var plan storage.DailyPlan
	var meals, adjustments, createdAt string
	err := row.Scan(
		&plan.UserID,
		&plan.Date,
		&plan.TargetKcal,
		&plan.TargetProteinG,
		&plan.TargetCarbsG,
		&plan.TargetFatG,
		&plan.TargetSteps,
		&plan.TargetWorkoutMinutes,
		&meals,
		&plan.PlanReasoning,
		&adjustments,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(meals), &plan.SuggestedMeals); err != nil {
		return nil, fmt.Errorf("decode meals: %w", err)
	}
	if plan.AdjustmentsMade, err = decodeStrings(adjustments); err != nil {
		return nil, err
	}
	if plan.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &plan, nil
}
