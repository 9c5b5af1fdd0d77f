package chat

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fdg312/macro-coach/internal/metrics"
	"github.com/fdg312/macro-coach/internal/storage"
)

var ErrInvalidProfileInput = errors.New("invalid profile input")

var (
	weightRe  = regexp.MustCompile(`(\d+\.?\d*)\s*kg`)
	stepsRe   = regexp.MustCompile(`(\d+)\s*steps`)
	kcalRe    = regexp.MustCompile(`(\d+)\s*(calories|kcal)`)
	proteinRe = regexp.MustCompile(`(\d+\.?\d*)\s*g.*protein`)
	rpeRe     = regexp.MustCompile(`rpe\s*(\d+)`)
	numberRe  = regexp.MustCompile(`^(\d+(?:\.\d+)?)`)
)

// ParseAdd разбирает свободный текст /add в метрику. ok=false, если ничего не распознано.
func ParseAdd(text string, at time.Time) (metrics.CreateMetricRequest, bool) {
	lower := strings.ToLower(text)
	req := metrics.CreateMetricRequest{Timestamp: &at, Source: "manual"}
	found := false

	if strings.Contains(lower, "weight") || strings.Contains(lower, "kg") {
		if m := weightRe.FindStringSubmatch(lower); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
				req.Weight = &v
				found = true
			}
		}
	}

	if strings.Contains(lower, "steps") {
		if m := stepsRe.FindStringSubmatch(lower); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil {
				req.Steps = &v
				found = true
			}
		}
	}

	if strings.Contains(lower, "calories") || strings.Contains(lower, "kcal") {
		if m := kcalRe.FindStringSubmatch(lower); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				req.KcalIn = &v
				found = true
			}
		}
	}

	if strings.Contains(lower, "protein") {
		if m := proteinRe.FindStringSubmatch(lower); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				req.ProteinG = &v
				found = true
			}
		}
	}

	if strings.Contains(lower, "workout") || strings.Contains(lower, "exercise") {
		workout := storage.WorkoutOther
		switch {
		case strings.Contains(lower, "strength") || strings.Contains(lower, "weights"):
			workout = storage.WorkoutStrength
		case strings.Contains(lower, "cardio") || strings.Contains(lower, "running"):
			workout = storage.WorkoutCardio
		}
		req.WorkoutType = &workout
		found = true

		if m := rpeRe.FindStringSubmatch(lower); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil {
				v = min(max(v, 1), 10)
				req.RPE = &v
			}
		}
	}

	return req, found
}

// applyProfilePairs применяет "key: value, key: value" к профилю.
func applyProfilePairs(profile *storage.UserProfile, input string) error {
	for _, pair := range strings.Split(input, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			return fmt.Errorf("%w: expected key: value, got %q", ErrInvalidProfileInput, pair)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.ToLower(strings.TrimSpace(value))

		switch key {
		case "age":
			n, err := leadingNumber(value)
			if err != nil {
				return fmt.Errorf("%w: age %q", ErrInvalidProfileInput, value)
			}
			profile.Age = int(n)
		case "gender":
			profile.Gender = value
		case "height":
			n, err := leadingNumber(value)
			if err != nil {
				return fmt.Errorf("%w: height %q", ErrInvalidProfileInput, value)
			}
			profile.HeightCM = n
		case "weight", "target", "target_weight":
			n, err := leadingNumber(value)
			if err != nil {
				return fmt.Errorf("%w: target weight %q", ErrInvalidProfileInput, value)
			}
			profile.TargetWeightKG = &n
		case "activity", "activity_level":
			profile.ActivityLevel = value
		case "goal":
			profile.Goal = value
		default:
			return fmt.Errorf("%w: unknown field %q", ErrInvalidProfileInput, key)
		}
	}
	return nil
}

func leadingNumber(value string) (float64, error) {
	m := numberRe.FindStringSubmatch(value)
	if m == nil {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(m[1], 64)
}
