// Package chat is the command layer on top of metrics, profiles, plans and status.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fdg312/macro-coach/internal/meals"
	"github.com/fdg312/macro-coach/internal/metrics"
	"github.com/fdg312/macro-coach/internal/planner"
	"github.com/fdg312/macro-coach/internal/plans"
	"github.com/fdg312/macro-coach/internal/profiles"
	"github.com/fdg312/macro-coach/internal/status"
	"github.com/fdg312/macro-coach/internal/storage"
	"github.com/google/uuid"
)

var ErrInvalidRequest = errors.New("invalid request")

const (
	defaultListLimit = 50
	maxListLimit     = 200
	swapSearchPlans  = 14
	shownMeals       = 3
	shownIngredients = 5
	longDateLayout   = "January 02, 2006"
)

type Logger interface {
	Printf(format string, args ...any)
}

type Service struct {
	chatStorage storage.ChatStorage
	metrics     *metrics.Service
	profiles    *profiles.Service
	plans       *plans.Service
	status      *status.Service
	logger      Logger
	now         func() time.Time
}

func NewService(
	chatStorage storage.ChatStorage,
	metricsService *metrics.Service,
	profilesService *profiles.Service,
	plansService *plans.Service,
	statusService *status.Service,
	logger Logger,
) *Service {
	return &Service{
		chatStorage: chatStorage,
		metrics:     metricsService,
		profiles:    profilesService,
		plans:       plansService,
		status:      statusService,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// HandleMessage выполняет команду или свободный текст и сохраняет обмен.
// Ошибки команд не возвращаются наружу: пользователь получает извинение,
// а обмен записывается с command_type = "error".
func (s *Service) HandleMessage(ctx context.Context, userID, text string) (*Reply, error) {
	userID = strings.TrimSpace(userID)
	text = strings.TrimSpace(text)
	if userID == "" || text == "" {
		return nil, ErrInvalidRequest
	}

	response, commandType, err := s.dispatch(ctx, userID, text)
	if err != nil {
		return s.storeFailure(ctx, userID, text, err), nil
	}

	msg := &storage.ChatMessage{
		ID:          uuid.New(),
		UserID:      userID,
		Message:     text,
		Response:    response,
		CommandType: commandType,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.chatStorage.InsertMessage(ctx, msg); err != nil {
		return s.storeFailure(ctx, userID, text, fmt.Errorf("store chat message: %w", err)), nil
	}

	return replyOf(msg), nil
}

func (s *Service) ListMessages(ctx context.Context, userID string, limit int) ([]storage.ChatMessage, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidRequest
	}
	return s.chatStorage.ListMessages(ctx, userID, normalizeLimit(limit))
}

func (s *Service) storeFailure(ctx context.Context, userID, text string, cause error) *Reply {
	s.logf("WARN chat: user=%s message=%q: %v", userID, text, cause)

	contextData, _ := json.Marshal(map[string]string{"error": cause.Error()})
	msg := &storage.ChatMessage{
		ID:          uuid.New(),
		UserID:      userID,
		Message:     text,
		Response:    "Sorry, I encountered an error: " + cause.Error(),
		CommandType: CommandError,
		ContextData: contextData,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.chatStorage.InsertMessage(ctx, msg); err != nil {
		s.logf("WARN chat: failed to store error exchange for %s: %v", userID, err)
	}
	return replyOf(msg)
}

func (s *Service) dispatch(ctx context.Context, userID, text string) (string, string, error) {
	if !strings.HasPrefix(text, "/") {
		response, err := s.naturalLanguage(ctx, userID, text)
		return response, CommandChat, err
	}

	fields := strings.Fields(text)
	command := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	args := strings.TrimSpace(strings.TrimPrefix(text, fields[0]))

	var (
		response string
		err      error
	)
	switch command {
	case CommandStatus:
		response, err = s.statusReply(ctx, userID)
	case CommandPlan:
		response, err = s.planReply(ctx, userID)
	case CommandSwap:
		if len(fields) < 2 {
			response = "Usage: /swap <meal_id>"
		} else {
			response, err = s.swapReply(ctx, userID, fields[1])
		}
	case CommandAdd:
		response, err = s.addReply(ctx, userID, args)
	case CommandProfile:
		response, err = s.profileReply(ctx, userID, args)
	case CommandHelp:
		response = helpText
	default:
		response = fmt.Sprintf("Unknown command: %s. Type /help for available commands.", command)
	}
	return response, command, err
}

func (s *Service) naturalLanguage(ctx context.Context, userID, text string) (string, error) {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "status", "how am i", "progress", "today"):
		return s.statusReply(ctx, userID)
	case containsAny(lower, "plan", "tomorrow", "what should i eat"):
		return s.planReply(ctx, userID)
	case strings.Contains(lower, "help"):
		return helpText, nil
	default:
		return guidanceText, nil
	}
}

func (s *Service) statusReply(ctx context.Context, userID string) (string, error) {
	st, err := s.status.UserStatus(ctx, userID)
	if err != nil {
		return "", err
	}

	summary := st.DailySummary
	if !summary.HasData() {
		return "📊 No data logged for today yet. Use /add to log your first metrics!", nil
	}

	lines := []string{
		fmt.Sprintf("📊 **Daily Status - %s**\n", longDate(st.Date)),
		fmt.Sprintf("🔥 **Calories:** %.0f in / %.0f out", deref(summary.KcalIn), deref(summary.KcalOut)),
		fmt.Sprintf("📈 **Balance:** %+.0f kcal\n", deref(summary.KcalBalance)),
		fmt.Sprintf("🥩 **Protein:** %.1fg", deref(summary.ProteinG)),
		fmt.Sprintf("🍞 **Carbs:** %.1fg", deref(summary.CarbsG)),
		fmt.Sprintf("🥑 **Fat:** %.1fg\n", deref(summary.FatG)),
	}

	steps := 0
	if summary.Steps != nil {
		steps = *summary.Steps
	}
	lines = append(lines, fmt.Sprintf("👟 **Steps:** %s", humanize.Comma(int64(steps))))

	if summary.Weight != nil {
		lines = append(lines, fmt.Sprintf("⚖️ **Weight:** %.1f kg", *summary.Weight))
	}
	if len(summary.Workouts) > 0 {
		lines = append(lines, fmt.Sprintf("💪 **Workouts:** %d completed", len(summary.Workouts)))
	}

	if p := st.Progress; p != nil && !p.NoData {
		lines = append(lines,
			fmt.Sprintf("\n📈 **%d-Day Progress:**", p.WindowDays),
			fmt.Sprintf("• Weight trend: %s", p.WeightTrend),
			fmt.Sprintf("• Avg calories: %d/day", p.AvgKcalIn),
			fmt.Sprintf("• Avg steps: %s/day", humanize.Comma(int64(p.AvgSteps))),
			fmt.Sprintf("• Workout days: %d/%d", p.WorkoutDays, p.TotalDays),
		)
	}

	if r := st.Remaining; r != nil {
		lines = append(lines, fmt.Sprintf("\n🎯 **Left for today:** %.0f kcal, %.0fg protein", r.Kcal, r.ProteinG))
	}

	lines = append(lines, "\n💬 Type /plan for tomorrow's recommendations!")
	return strings.Join(lines, "\n"), nil
}

func (s *Service) planReply(ctx context.Context, userID string) (string, error) {
	plan, err := s.plans.Generate(ctx, userID, "", nil)
	if errors.Is(err, plans.ErrProfileNotFound) {
		return profileNeededText, nil
	}
	if err != nil {
		return "", err
	}

	lines := []string{
		fmt.Sprintf("📅 **Plan for %s**\n", longDate(plan.Date)),
		"🎯 **Daily Targets:**",
		fmt.Sprintf("• Calories: %d kcal", plan.TargetKcal),
		fmt.Sprintf("• Protein: %.0fg", plan.TargetProteinG),
		fmt.Sprintf("• Carbs: %.0fg", plan.TargetCarbsG),
		fmt.Sprintf("• Fat: %.0fg", plan.TargetFatG),
		fmt.Sprintf("• Steps: %s", humanize.Comma(int64(plan.TargetSteps))),
		fmt.Sprintf("• Workout: %d minutes\n", plan.TargetWorkoutMinutes),
		"🍽️ **Suggested Meals:**",
	}

	for i, meal := range plan.SuggestedMeals {
		if i == shownMeals {
			break
		}
		lines = append(lines,
			fmt.Sprintf("\n**%d. %s** (%s)", i+1, meal.Name, meal.MealType),
			fmt.Sprintf("   • %d kcal, %.0fg protein", meal.Kcal, meal.ProteinG),
			fmt.Sprintf("   • Prep: %dmin | Cook: %dmin", meal.PrepTimeMinutes, meal.CookTimeMinutes),
			fmt.Sprintf("   • ID: `%s`", meal.MealID),
		)
	}

	lines = append(lines,
		"\n🧠 **Plan Reasoning:**",
		plan.PlanReasoning,
		"\n💡 Use /swap <meal_id> to replace any meal!",
	)
	return strings.Join(lines, "\n"), nil
}

func (s *Service) swapReply(ctx context.Context, userID, mealID string) (string, error) {
	if _, err := s.profiles.Get(ctx, userID); err != nil {
		if errors.Is(err, profiles.ErrNotFound) {
			return "❌ Please set up your profile first with /profile", nil
		}
		return "", err
	}

	recent, err := s.plans.List(ctx, userID, swapSearchPlans)
	if err != nil {
		return "", err
	}

	date := ""
	for _, p := range recent {
		if meal, _ := meals.FindMeal(p, mealID); meal != nil {
			date = p.Date
			break
		}
	}
	if date == "" {
		return fmt.Sprintf("❌ Couldn't find meal with ID: %s", mealID), nil
	}

	_, meal, err := s.plans.SwapMeal(ctx, userID, date, mealID)
	if errors.Is(err, plans.ErrMealNotFound) {
		return fmt.Sprintf("❌ Couldn't find meal with ID: %s", mealID), nil
	}
	if err != nil {
		return "", err
	}

	lines := []string{
		"✅ **Meal Swapped Successfully!**\n",
		fmt.Sprintf("🆕 **New Meal:** %s", meal.Name),
		fmt.Sprintf("📊 **Nutrition:** %d kcal, %.0fg protein", meal.Kcal, meal.ProteinG),
		fmt.Sprintf("⏱️ **Time:** %d minutes total", meal.PrepTimeMinutes+meal.CookTimeMinutes),
		fmt.Sprintf("🆔 **New ID:** `%s`\n", meal.MealID),
		"**Ingredients:**",
	}
	for i, ing := range meal.Ingredients {
		if i == shownIngredients {
			break
		}
		lines = append(lines, fmt.Sprintf("• %s%s %s", strconv.FormatFloat(ing.Amount, 'f', -1, 64), ing.Unit, ing.Name))
	}
	return strings.Join(lines, "\n"), nil
}

func (s *Service) addReply(ctx context.Context, userID, data string) (string, error) {
	req, ok := ParseAdd(data, s.now().UTC())
	if !ok {
		return addFormatsText, nil
	}

	if _, err := s.metrics.Store(ctx, userID, req); err != nil {
		return "", err
	}

	var confirmations []string
	if req.Weight != nil {
		confirmations = append(confirmations, fmt.Sprintf("⚖️ Weight: %s kg", strconv.FormatFloat(*req.Weight, 'f', -1, 64)))
	}
	if req.Steps != nil {
		confirmations = append(confirmations, fmt.Sprintf("👟 Steps: %s", humanize.Comma(int64(*req.Steps))))
	}
	if req.KcalIn != nil {
		confirmations = append(confirmations, fmt.Sprintf("🍽️ Calories: %.0f kcal", *req.KcalIn))
	}
	if req.ProteinG != nil {
		confirmations = append(confirmations, fmt.Sprintf("🥩 Protein: %sg", strconv.FormatFloat(*req.ProteinG, 'f', -1, 64)))
	}
	if req.WorkoutType != nil {
		confirmations = append(confirmations, fmt.Sprintf("💪 Workout: %s", *req.WorkoutType))
		if req.RPE != nil {
			confirmations = append(confirmations, fmt.Sprintf("🔥 RPE: %d/10", *req.RPE))
		}
	}
	return "✅ **Logged Successfully:**\n" + strings.Join(confirmations, "\n"), nil
}

// profileReply делает read-modify-write: частичного обновления в хранилище нет.
func (s *Service) profileReply(ctx context.Context, userID, data string) (string, error) {
	if data == "" {
		return profileGuideText, nil
	}

	profile, err := s.profiles.Get(ctx, userID)
	switch {
	case errors.Is(err, profiles.ErrNotFound):
		profile = &storage.UserProfile{
			UserID:               userID,
			ProteinPercent:       profiles.DefaultProteinPercent,
			CarbsPercent:         profiles.DefaultCarbsPercent,
			FatPercent:           profiles.DefaultFatPercent,
			PreferTurkishCuisine: true,
		}
	case err != nil:
		return "", err
	}

	if err := applyProfilePairs(profile, data); err != nil {
		return "", err
	}
	if err := s.profiles.Save(ctx, profile); err != nil {
		return "", err
	}

	line := fmt.Sprintf("%d y/o %s, %.0f cm, %s, goal: %s",
		profile.Age, profile.Gender, profile.HeightCM, profile.ActivityLevel, profile.Goal)
	if profile.TargetWeightKG != nil {
		line += fmt.Sprintf(", target %.1f kg", *profile.TargetWeightKG)
	}
	return "✅ **Profile saved!**\n\n👤 " + line + "\n\n💬 Type /plan for tomorrow's recommendations!", nil
}

func (s *Service) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

func replyOf(msg *storage.ChatMessage) *Reply {
	return &Reply{
		MessageID:   msg.ID,
		UserID:      msg.UserID,
		Response:    msg.Response,
		CommandType: msg.CommandType,
		CreatedAt:   msg.CreatedAt,
	}
}

func longDate(date string) string {
	t, err := time.Parse(planner.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format(longDateLayout)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
