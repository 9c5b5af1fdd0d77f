package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/fdg312/macro-coach/internal/planner"
	"github.com/fdg312/macro-coach/internal/plans"
	"github.com/fdg312/macro-coach/internal/seed"
	"github.com/fdg312/macro-coach/internal/storage"
)

var (
	seedDays   int
	seedValue  int64
	seedNoPlan bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load deterministic demo users, metric history and tomorrow's plans",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			planService := a.plans
			if seedNoPlan {
				planService = nil
			}
			result, err := seed.Run(ctx, a.store, planService, seed.Options{
				Days: seedDays,
				Seed: seedValue,
				Loc:  a.metrics.Location(),
			}, newLogger(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users (%s): %d metrics, %d plans\n",
				len(result.Users), strings.Join(result.Users, ", "), result.Metrics, result.Plans)
			return nil
		})
	},
}

var (
	planDate     string
	planExclude  []string
	planAsJSON   bool
	planFromList bool
)

var planCmd = &cobra.Command{
	Use:   "plan <user_id>",
	Short: "Generate (or with --show, print the stored) daily plan for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID := args[0]
		return withApp(cmd, func(ctx context.Context, a *app) error {
			stored, err := loadPlan(ctx, a, userID)
			if err != nil {
				return err
			}
			plan := plans.ToDTO(*stored)

			out := cmd.OutOrStdout()
			if planAsJSON {
				return printJSON(out, plan)
			}

			fmt.Fprintf(out, "Plan %s for %s\n", plan.Date, plan.UserID)
			fmt.Fprintf(out, "  target: %s kcal  P %.1fg  C %.1fg  F %.1fg\n",
				humanize.Comma(int64(plan.TargetKcal)), plan.TargetProteinG, plan.TargetCarbsG, plan.TargetFatG)
			fmt.Fprintf(out, "  steps: %s  workout: %d min\n", humanize.Comma(int64(plan.TargetSteps)), plan.TargetWorkoutMinutes)
			fmt.Fprintln(out, "MEAL_ID\tTYPE\tKCAL\tNAME")
			for _, m := range plan.SuggestedMeals {
				fmt.Fprintf(out, "%s\t%s\t%d\t%s\n", m.MealID, m.MealType, m.Kcal, m.Name)
			}
			if plan.PlanReasoning != "" {
				fmt.Fprintf(out, "\n%s\n", plan.PlanReasoning)
			}
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <user_id>",
	Short: "Print today's status (summary, progress, plan and remaining macros) as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			st, err := a.status.UserStatus(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		})
	},
}

// loadPlan: --show читает сохранённый план (по умолчанию на завтра), иначе генерирует новый.
func loadPlan(ctx context.Context, a *app, userID string) (*storage.DailyPlan, error) {
	if !planFromList {
		return a.plans.Generate(ctx, userID, planDate, planExclude)
	}
	date := planDate
	if date == "" {
		date = planner.NewEngine(a.metrics.Location()).Tomorrow()
	}
	return a.plans.Get(ctx, userID, date)
}

var analyzeDays int

var analyzeCmd = &cobra.Command{
	Use:   "analyze <user_id>",
	Short: "Summarize progress over the last N days",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			report, err := a.metrics.Progress(ctx, args[0], analyzeDays)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report.NoData {
				fmt.Fprintln(out, report.Error)
				return nil
			}

			fmt.Fprintf(out, "Window: %d days (%d with data)\n", report.WindowDays, report.TotalDays)
			fmt.Fprintf(out, "Avg intake: %s kcal, protein %.1fg\n", humanize.Comma(int64(report.AvgKcalIn)), report.AvgProteinG)
			fmt.Fprintf(out, "Avg steps: %s\n", humanize.Comma(int64(report.AvgSteps)))
			if report.WeightChangeKG != nil {
				fmt.Fprintf(out, "Weight: %s (%+.1f kg)\n", report.WeightTrend, *report.WeightChangeKG)
			} else {
				fmt.Fprintf(out, "Weight: %s\n", report.WeightTrend)
			}
			fmt.Fprintf(out, "Workout days: %d\n", report.WorkoutDays)

			fmt.Fprintln(out, "DATE\tKCAL_IN\tKCAL_OUT\tPROTEIN\tSTEPS\tWEIGHT\tWORKOUTS")
			for _, d := range report.Days {
				weight := "-"
				if d.Weight != nil {
					weight = fmt.Sprintf("%.1f", *d.Weight)
				}
				fmt.Fprintf(out, "%s\t%.0f\t%.0f\t%.1f\t%d\t%s\t%d\n",
					d.Date, d.KcalIn, d.KcalOut, d.ProteinG, d.Steps, weight, d.Workouts)
			}
			return nil
		})
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedDays, "days", seed.DefaultDays, "Days of history per demo user")
	seedCmd.Flags().Int64Var(&seedValue, "seed", seed.DefaultSeed, "Random seed")
	seedCmd.Flags().BoolVar(&seedNoPlan, "no-plan", false, "Skip generating tomorrow's plans")

	planCmd.Flags().StringVar(&planDate, "date", "", "Plan date YYYY-MM-DD (default: tomorrow)")
	planCmd.Flags().StringSliceVar(&planExclude, "exclude", nil, "Ingredients to exclude (comma separated)")
	planCmd.Flags().BoolVar(&planAsJSON, "json", false, "Print the plan as JSON")
	planCmd.Flags().BoolVar(&planFromList, "show", false, "Print the stored plan instead of generating one")

	analyzeCmd.Flags().IntVar(&analyzeDays, "days", 7, "Window size in days")

	rootCmd.AddCommand(seedCmd, planCmd, statusCmd, analyzeCmd)
}
