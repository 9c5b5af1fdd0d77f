package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/fdg312/macro-coach/internal/storage"
	"github.com/jackc/pgx/v5"
)

const profileColumns = `
	user_id, age, gender, height_cm, activity_level, goal, target_weight_kg, target_kcal_deficit,
	protein_percent, carbs_percent, fat_percent, dietary_restrictions, allergies,
	prefer_turkish_cuisine, created_at, updated_at
`

func (p *PostgresStorage) UpsertProfile(ctx context.Context, profile *storage.UserProfile) error {
	if err := p.ready(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	// created_at сохраняется при замене, всё остальное перезаписывается
	const query = `
		INSERT INTO user_profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (user_id) DO UPDATE SET
			age = EXCLUDED.age,
			gender = EXCLUDED.gender,
			height_cm = EXCLUDED.height_cm,
			activity_level = EXCLUDED.activity_level,
			goal = EXCLUDED.goal,
			target_weight_kg = EXCLUDED.target_weight_kg,
			target_kcal_deficit = EXCLUDED.target_kcal_deficit,
			protein_percent = EXCLUDED.protein_percent,
			carbs_percent = EXCLUDED.carbs_percent,
			fat_percent = EXCLUDED.fat_percent,
			dietary_restrictions = EXCLUDED.dietary_restrictions,
			allergies = EXCLUDED.allergies,
			prefer_turkish_cuisine = EXCLUDED.prefer_turkish_cuisine,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at
	`

	return p.pool.QueryRow(ctx, query,
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
		nonNilStrings(profile.DietaryRestrictions),
		nonNilStrings(profile.Allergies),
		profile.PreferTurkishCuisine,
		profile.CreatedAt,
		profile.UpdatedAt,
	).Scan(&profile.CreatedAt)
}

func (p *PostgresStorage) GetProfile(ctx context.Context, userID string) (*storage.UserProfile, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}

	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE user_id = $1`
	profile, err := scanProfile(p.pool.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (p *PostgresStorage) ListProfiles(ctx context.Context) ([]storage.UserProfile, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, `SELECT `+profileColumns+` FROM user_profiles ORDER BY user_id ASC`)
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

func scanProfile(row pgx.Row) (*storage.UserProfile, error) {
	var prof storage.UserProfile
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
		&prof.DietaryRestrictions,
		&prof.Allergies,
		&prof.PreferTurkishCuisine,
		&prof.CreatedAt,
		&prof.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &prof, nil
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
