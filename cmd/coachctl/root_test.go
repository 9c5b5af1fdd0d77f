package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fdg312/macro-coach/internal/seed"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// флаги пакетные: сбрасываем между вызовами
	storageMode, sqlitePath, verbose = "", "", false
	planDate, planExclude, planAsJSON, planFromList = "", nil, false, false
	seedDays, seedValue, seedNoPlan = seed.DefaultDays, seed.DefaultSeed, false
	analyzeDays = 7

	t.Setenv("REDIS_URL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_URL_POOLED", "")
	t.Setenv("DATABASE_URL_DIRECT", "")
	t.Setenv("MEALS_MODE", "mock")

	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootHelp(t *testing.T) {
	out, err := run(t, "--help")
	if err != nil {
		t.Fatalf("execute root help: %v", err)
	}
	for _, sub := range []string{"seed", "plan", "status", "analyze"} {
		if !strings.Contains(out, sub) {
			t.Errorf("help output missing %q", sub)
		}
	}
}

func TestSeedInMemory(t *testing.T) {
	out, err := run(t, "--storage", "memory", "seed", "--days", "5")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.Contains(out, "Seeded 2 users (demo_user, fitness_enthusiast)") {
		t.Errorf("unexpected seed output: %s", out)
	}
	if !strings.Contains(out, "2 plans") {
		t.Errorf("expected plans in output: %s", out)
	}
}

func TestSeedThenInspectSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coach.db")

	if _, err := run(t, "--sqlite", path, "seed"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	out, err := run(t, "--sqlite", path, "analyze", "demo_user", "--days", "30")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.Contains(out, "Workout days:") || !strings.Contains(out, "DATE\tKCAL_IN") {
		t.Errorf("unexpected analyze output: %s", out)
	}

	out, err = run(t, "--sqlite", path, "plan", "demo_user", "--show")
	if err != nil {
		t.Fatalf("plan --show: %v", err)
	}
	if !strings.Contains(out, "Plan ") || !strings.Contains(out, "MEAL_ID") {
		t.Errorf("unexpected plan output: %s", out)
	}

	out, err = run(t, "--sqlite", path, "status", "fitness_enthusiast")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, `"user_id": "fitness_enthusiast"`) {
		t.Errorf("unexpected status output: %s", out)
	}
}

func TestAnalyzeWithoutData(t *testing.T) {
	out, err := run(t, "--storage", "memory", "analyze", "nobody")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.Contains(out, "No recent metrics available") {
		t.Errorf("expected no-data message, got: %s", out)
	}
}

func TestPlanRequiresUser(t *testing.T) {
	if _, err := run(t, "--storage", "memory", "plan"); err == nil {
		t.Fatal("expected error without user_id")
	}
}
