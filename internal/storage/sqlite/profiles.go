package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fdg312/macro-coach/internal/storage"
)

const profileColumns = `
	user_id, age, gender, height_cm, activity_level, goal, target_weight_kg, target_kcal_deficit,
	protein_percent, carbs_percent, fat_percent, dietary_restrictions, allergies,
	prefer_turkish_cuisine, created_at, updated_at
`

func (s *SQLiteStorage) UpsertProfile(ctx context.Context, profile *storage.UserProfile) error {
	if err := s.ready(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	restrictions, err := encodeStrings(profile.DietaryRestrictions)
	if err != nil {
		return err
	}
	allergies, err := encodeStrings(profile.Allergies)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO user_profiles (` + profileColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			age = excluded.age,
			gender = excluded.gender,
			height_cm = excluded.height_cm,
			activity_level = excluded.activity_level,
			goal = excluded.goal,
			target_weight_kg = excluded.target_weight_kg,
			target_kcal_deficit = excluded.target_kcal_deficit,
			protein_percent = excluded.protein_percent,
			carbs_percent = excluded.carbs_percent,
			fat_percent = excluded.fat_percent,
			dietary_restrictions = excluded.dietary_restrictions,
			allergies = excluded.allergies,
			prefer_turkish_cuisine = excluded.prefer_turkish_cuisine,
			updated_at = excluded.updated_at
		RETURNING created_at
	`

	var createdAt string
	err = s.db.QueryRowContext(ctx, query,
		profile.UserID,
		profile.Age,
		profile.Gender,
		profile.HeightCM,
		profile.ActivityLevel,
		profile.Goal,
		profile.TargetWeightKG,
		profile.TargetKcalDeficit,
		profile.ProteinPercent,
		profile.CarbsPercent,
		profile.FatPercent,
		restrictions,
		allergies,
		profile.PreferTurkishCuisine,
		formatTime(profile.CreatedAt),
		formatTime(profile.UpdatedAt),
	).Scan(&createdAt)
	if err != nil {
		return err
	}
	profile.CreatedAt, err = parseTime(createdAt)
	return err
}

func (s *SQLiteStorage) GetProfile(ctx context.Context, userID string) (*storage.UserProfile, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE user_id = ?`, userID)
	profile, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *SQLiteStorage) ListProfiles(ctx context.Context) ([]storage.UserProfile, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM user_profiles ORDER BY user_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]storage.UserProfile, 0)
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *profile)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*storage.UserProfile, error) {
	var prof storage.UserProfile
	var restrictions, allergies, createdAt, updatedAt string
	err := row.Scan(
		&prof.UserID,
		&prof.Age,
		&prof.Gender,
		&prof.HeightCM,
		&prof.ActivityLevel,
		&prof.Goal,
		&prof.TargetWeightKG,
		&prof.TargetKcalDeficit,
		&prof.ProteinPercent,
		&prof.CarbsPercent,
		&prof.FatPercent,
		&restrictions,
		&allergies,
		&prof.PreferTurkishCuisine,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if prof.DietaryRestrictions, err = decodeStrings(restrictions); err != nil {
		return nil, err
	}
	if prof.Allergies, err = decodeStrings(allergies); err != nil {
		return nil, err
	}
	if prof.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if prof.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &prof, nil
}
