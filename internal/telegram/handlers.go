package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ivsol/smartquiz-bot/internal/domain"
)

// ensureSettings makes sure a settings row exists; users without one get
// the defaults persisted so later in-place updates have a row to hit.
func (r *Router) ensureSettings(ctx context.Context, userID int64) (domain.UserSettings, error) {
	settings, err := r.repo.GetUserSettings(ctx, userID)
	if err != nil {
		return domain.UserSettings{}, err
	}
	if err := r.repo.SaveUserSettings(ctx, userID, settings); err != nil {
		return domain.UserSettings{}, err
	}
	return settings, nil
}

// --- Core commands ---

func (r *Router) handleStart(ctx context.Context, userID, chatID int64) {
	if _, err := r.ensureSettings(ctx, userID); err != nil {
		r.log.Error("ensureSettings failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, "Profile initialization error. Please try again later.")
		return
	}
	r.sendWithMenu(chatID, startText)
}

func (r *Router) handleHelp(chatID int64) {
	r.sendText(chatID, helpText)
}

// --- Question set ---

func (r *Router) handleAddQA(ctx context.Context, userID, chatID int64, args string) {
	parts := strings.SplitN(args, "||", 2)
	if len(parts) != 2 {
		r.sendText(chatID, addQAUsage)
		return
	}

	question := domain.SanitizeText(parts[0], domain.MaxQuestionLength)
	answer := domain.SanitizeText(parts[1], domain.MaxAnswerLength)
	if err := domain.ValidateQAPair(question, answer); err != nil {
		r.sendText(chatID, "❌ "+err.Error())
		return
	}

	item, err := r.repo.AddUserQA(ctx, userID, question, answer, time.Now())
	if err != nil {
		r.log.Error("add question failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, "❌ Could not save the question.")
		return
	}

	items, err := r.repo.GetUserQA(ctx, userID)
	if err != nil {
		r.log.Error("list questions failed", zap.Error(err), zap.Int64("userID", userID))
	}
	r.sendText(chatID, fmt.Sprintf(
		"Question added!\n\nQuestion: %s\nAnswer: %s\nID: %d\n\nTotal questions: %d",
		item.Question, item.Answer, item.ID, len(items),
	))
}

func (r *Router) handleMyQA(ctx context.Context, userID, chatID int64) {
	items, err := r.repo.GetUserQA(ctx, userID)
	if err != nil {
		r.log.Error("list questions failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, "❌ Could not read your questions.")
		return
	}
	if len(items) == 0 {
		r.sendText(chatID, "You have no questions yet.\n\nAdd one with /add_qa Question || Answer")
		return
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Your questions (%d):\n\n", len(items)))
	for _, item := range items {
		b.WriteString(fmt.Sprintf("%d. %s — %s\n", item.ID, item.Question, item.Answer))
	}
	r.sendText(chatID, b.String())
}

func (r *Router) handleRemoveQA(ctx context.Context, userID, chatID int64, args string) {
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		r.sendText(chatID, "❌ Wrong format!\n\nUse: /remove_qa <ID>\nSee IDs with /my_qa")
		return
	}

	removed, err := r.repo.RemoveUserQA(ctx, userID, id)
	if err != nil {
		r.log.Error("remove question failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, "❌ Could not delete the question.")
		return
	}
	if !removed {
		r.sendText(chatID, fmt.Sprintf("❌ Question with ID %d not found.", id))
		return
	}
	r.sendText(chatID, fmt.Sprintf("Question %d deleted.", id))
}

func (r *Router) handleClearQA(ctx context.Context, userID, chatID int64) {
	items, err := r.repo.GetUserQA(ctx, userID)
	if err != nil {
		r.log.Error("list questions failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, "❌ Could not read your questions.")
		return
	}
	if len(items) == 0 {
		r.sendText(chatID, "You have no questions anyway.")
		return
	}

	// Clearing the set implies stopping the quiz.
	r.engine.Stop(ctx, userID)
	if err := r.repo.SetActive(ctx, userID, false); err != nil {
		r.log.Error("deactivate failed", zap.Error(err), zap.Int64("userID", userID))
	}

	n, err := r.repo.ClearUserQA(ctx, userID)
	if err != nil {
		r.log.Error("clear questions failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, "❌ Could not clear your questions.")
		return
	}
	r.sendText(chatID, fmt.Sprintf(
		"All questions cleared!\n\nDeleted: %d\nThe quiz is stopped.\n\nAdd new ones with /add_qa", n,
	))
}

// --- Quiz control ---

func (r *Router) handleStartQuiz(ctx context.Context, userID, chatID int64) {
	items, err := r.repo.GetUserQA(ctx, userID)
	if err != nil {
		r.log.Error("list questions failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, "❌ Could not read your questions.")
		return
	}
	if len(items) == 0 {
		r.sendText(chatID, "❌ Add questions first!\n\nYou have none yet.\nUse: /add_qa Question || Answer")
		return
	}

	settings, err := r.ensureSettings(ctx, userID)
	if err != nil {
		r.log.Error("ensureSettings failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, "❌ Could not read your settings.")
		return
	}
	if r.engine.IsRunning(userID) {
		r.sendText(chatID, "ℹ️ The quiz is already running!\n\nUse /stop_quiz to stop, or /settings to adjust.")
		return
	}

	// The loop assumes validated settings; reject broken ones here.
	if err := domain.ValidateDailyGoal(settings.DailyGoal); err != nil {
		r.sendText(chatID, fmt.Sprintf("❌ Bad daily goal (%d): %s\n\nFix it with /set_daily <n>", settings.DailyGoal, err))
		return
	}
	if err := domain.ValidateIntervalBounds(settings.MinIntervalMin, settings.MaxIntervalMin); err != nil {
		r.sendText(chatID, fmt.Sprintf(
			"❌ Bad interval (%d–%d): %s\n\nFix it with /set_interval <min> <max>",
			settings.MinIntervalMin, settings.MaxIntervalMin, err,
		))
		return
	}

	if err := r.repo.SetActive(ctx, userID, true); err != nil {
		r.log.Error("activate failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, "❌ Could not start the quiz.")
		return
	}
	r.engine.Start(ctx, userID, chatID)

	r.sendWithMenu(chatID, fmt.Sprintf(
		"🚀 Quiz started!\n\n"+
			"• Questions: %d\n"+
			"• Daily goal: %d\n"+
			"• Interval: %d–%d min\n\n"+
			"Questions arrive at random moments inside your interval, within "+
			"the weekly schedule. Answer by just typing the answer.",
		len(items), settings.DailyGoal, settings.MinIntervalMin, settings.MaxIntervalMin,
	))
}

func (r *Router) handleStopQuiz(ctx context.Context, userID, chatID int64) {
	if !r.engine.IsRunning(userID) {
		r.sendText(chatID, "ℹ️ The quiz is not running.\n\nUse /start_quiz to start it.")
		return
	}

	r.engine.Stop(ctx, userID)
	if err := r.repo.SetActive(ctx, userID, false); err != nil {
		r.log.Error("deactivate failed", zap.Error(err), zap.Int64("userID", userID))
	}

	settings, err := r.repo.GetUserSettings(ctx, userID)
	if err != nil {
		r.log.Error("read settings failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, "Quiz stopped.")
		return
	}
	agg, err := r.repo.GetAggregateStats(ctx, userID)
	if err != nil {
		r.log.Error("read stats failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, "Quiz stopped.")
		return
	}

	r.sendWithMenu(chatID, fmt.Sprintf(
		"Quiz stopped\n\n"+
			"Today:\n"+
			"• Questions asked: %d\n"+
			"• Daily goal: %d\n\n"+
			"Overall:\n"+
			"• Total answers: %d\n"+
			"• Correct: %d\n"+
			"• Current streak: %d\n\n"+
			"Start again with /start_quiz",
		settings.QuestionsToday, settings.DailyGoal,
		agg.TotalAnswered, agg.CorrectAnswers, agg.CurrentStreak,
	))
}

func (r *Router) handleStatus(ctx context.Context, userID, chatID int64) {
	st, err := r.engine.Status(ctx, userID)
	if err != nil {
		r.log.Error("status failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, "❌ Could not read your status.")
		return
	}

	state := "⏸ stopped"
	if st.Active {
		state = "✅ running"
	}
	r.sendText(chatID, fmt.Sprintf(
		"🧾 Quiz status:\n\n"+
			"• State: %s\n"+
			"• Today: %d/%d questions\n"+
			"• Next question: %s",
		state, st.QuestionsToday, st.DailyGoal, st.NextSendHint,
	))
}

// --- Settings ---

func (r *Router) handleSettings(ctx context.Context, userID, chatID int64) {
	settings, err := r.repo.GetUserSettings(ctx, userID)
	if err != nil {
		r.log.Error("read settings failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, "❌ Could not read your settings.")
		return
	}
	items, err := r.repo.GetUserQA(ctx, userID)
	if err != nil {
		r.log.Error("list questions failed", zap.Error(err), zap.Int64("userID", userID))
	}

	r.sendText(chatID, fmt.Sprintf(
		"🧾 Your settings:\n\n"+
			"• Questions: %d\n"+
			"• Daily goal: %d (today: %d)\n"+
			"• Interval: %d–%d min\n\n"+
			"%s\n"+
			"Adjust with /set_daily, /set_interval, /set_day.",
		len(items), settings.DailyGoal, settings.QuestionsToday,
		settings.MinIntervalMin, settings.MaxIntervalMin,
		formatSchedule(settings.Schedule),
	))
}

func (r *Router) handleSetDaily(ctx context.Context, userID, chatID int64, args string) {
	goal, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		r.sendText(chatID, "❌ Wrong format!\n\nUse: /set_daily <n>\nExample: /set_daily 15")
		return
	}
	if err := domain.ValidateDailyGoal(goal); err != nil {
		r.sendText(chatID, "❌ "+err.Error())
		return
	}

	settings, err := r.ensureSettings(ctx, userID)
	if err != nil {
		r.log.Error("ensureSettings failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, "❌ Could not save the goal.")
		return
	}
	old := settings.DailyGoal
	settings.DailyGoal = goal
	if err := r.repo.SaveUserSettings(ctx, userID, settings); err != nil {
		r.log.Error("save settings failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, "❌ Could not save the goal.")
		return
	}

	r.sendText(chatID, fmt.Sprintf(
		"✅ Daily goal updated!\n\n• Was: %d per day\n• Now: %d per day\n\nToday: %d/%d",
		old, goal, settings.QuestionsToday, goal,
	))
}

func (r *Router) handleSetInterval(ctx context.Context, userID, chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		r.sendText(chatID, "❌ Wrong format!\n\nUse: /set_interval <min> <max>\nExample: /set_interval 30 120")
		return
	}
	minM, err1 := strconv.Atoi(fields[0])
	maxM, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		r.sendText(chatID, "❌ Intervals must be numbers.")
		return
	}
	if err := domain.ValidateIntervalBounds(minM, maxM); err != nil {
		r.sendText(chatID, "❌ "+err.Error())
		return
	}

	settings, err := r.ensureSettings(ctx, userID)
	if err != nil {
		r.log.Error("ensureSettings failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, "❌ Could not save the interval.")
		return
	}
	oldMin, oldMax := settings.MinIntervalMin, settings.MaxIntervalMin
	settings.MinIntervalMin, settings.MaxIntervalMin = minM, maxM
	if err := r.repo.SaveUserSettings(ctx, userID, settings); err != nil {
		r.log.Error("save settings failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, "❌ Could not save the interval.")
		return
	}

	r.sendText(chatID, fmt.Sprintf(
		"✅ Interval updated!\n\n• Was: %d–%d min\n• Now: %d–%d min\n\n"+
			"Questions will arrive at random moments inside this range.",
		oldMin, oldMax, minM, maxM,
	))
}

func (r *Router) handleSetSchedule(ctx context.Context, userID, chatID int64) {
	settings, err := r.repo.GetUserSettings(ctx, userID)
	if err != nil {
		r.log.Error("read settings failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, "❌ Could not read your schedule.")
		return
	}

	r.sendText(chatID, formatSchedule(settings.Schedule)+
		"\nChange a day with:\n"+
		"/set_day <day> <start> <end> <on|off>\n\n"+
		"• <day>: mon, tue, wed, thu, fri, sat, sun\n"+
		"• <start>, <end>: HH:MM\n\n"+
		"Examples:\n"+
		"• /set_day mon 09:00 18:00 on\n"+
		"• /set_day sat 10:00 16:00 off",
	)
}

func (r *Router) handleSetDay(ctx context.Context, userID, chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) != 4 {
		r.sendText(chatID, "❌ Wrong format!\n\nUse: /set_day <day> <start> <end> <on|off>\nExample: /set_day mon 09:00 18:00 on")
		return
	}

	day, err := domain.ParseWeekday(fields[0])
	if err != nil {
		r.sendText(chatID, "❌ "+err.Error())
		return
	}
	startM, err := domain.ParseClockMinutes(fields[1])
	if err != nil {
		r.sendText(chatID, "❌ Bad start time: "+err.Error())
		return
	}
	endM, err := domain.ParseClockMinutes(fields[2])
	if err != nil {
		r.sendText(chatID, "❌ Bad end time: "+err.Error())
		return
	}
	var enabled bool
	switch strings.ToLower(fields[3]) {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		r.sendText(chatID, "❌ Status must be 'on' or 'off'.")
		return
	}

	window := domain.DayWindow{StartM: startM, EndM: endM, Enabled: enabled}
	if err := domain.ValidateDayWindow(window); err != nil {
		r.sendText(chatID, "❌ "+err.Error())
		return
	}

	settings, err := r.ensureSettings(ctx, userID)
	if err != nil {
		r.log.Error("ensureSettings failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, "❌ Could not save the schedule.")
		return
	}
	settings.Schedule[day] = window
	if err := r.repo.SaveUserSettings(ctx, userID, settings); err != nil {
		r.log.Error("save settings failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, "❌ Could not save the schedule.")
		return
	}

	status := "enabled"
	if !enabled {
		status = "disabled"
	}
	r.sendText(chatID, fmt.Sprintf(
		"✅ Schedule updated!\n\n%s %s\nWindow: %s–%s\n\nSee the full schedule: /set_schedule",
		day.String(), status, domain.FormatMinutes(startM), domain.FormatMinutes(endM),
	))
}

// --- Statistics ---

func (r *Router) handleStats(ctx context.Context, userID, chatID int64) {
	ins, err := r.insights.ForUser(ctx, userID, r.engine.IsRunning(userID))
	if err != nil {
		r.log.Error("insights failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, "❌ Could not read your statistics.")
		return
	}

	state := "⏸ stopped"
	if ins.QuizActive {
		state = "✅ running"
	}
	r.sendText(chatID, fmt.Sprintf(
		"📊 Your statistics:\n\n"+
			"• Quiz: %s\n"+
			"• Questions in set: %d\n\n"+
			"Performance:\n"+
			"• Total answers: %d\n"+
			"• Correct: %d (%.0f%%)\n"+
			"• Current streak: %d\n"+
			"• Best streak: %d\n"+
			"• Avg response time: %.1f sec\n\n"+
			"Today:\n"+
			"• Progress: %d/%d (%.0f%%)\n\n"+
			"Study time: %d min",
		state, ins.TotalQuestions,
		ins.Aggregate.TotalAnswered, ins.Aggregate.CorrectAnswers, ins.CorrectRate,
		ins.Aggregate.CurrentStreak, ins.Aggregate.BestStreak, ins.Aggregate.AvgResponseSec,
		ins.QuestionsToday, ins.DailyGoal, ins.CompletionRate,
		ins.Aggregate.TotalStudyMinutes,
	))
}

func (r *Router) handleQuestionStats(ctx context.Context, userID, chatID int64) {
	ins, err := r.insights.ForUser(ctx, userID, r.engine.IsRunning(userID))
	if err != nil {
		r.log.Error("insights failed", zap.Error(err), zap.Int64("userID", userID))
		r.sendText(chatID, "❌ Could not read your statistics.")
		return
	}
	if len(ins.Questions) == 0 {
		r.sendText(chatID, "No questions have been asked yet.")
		return
	}

	var b strings.Builder
	b.WriteString("📈 Question breakdown (hardest first):\n\n")
	for _, q := range ins.Questions {
		b.WriteString(fmt.Sprintf(
			"%d. %s\n   %s • %.0f%% correct • asked %d times\n",
			q.ID, q.Question, q.Difficulty, q.SuccessRate, q.TimesAsked,
		))
	}
	r.sendText(chatID, b.String())
}

func formatSchedule(s domain.WeekSchedule) string {
	var b strings.Builder
	b.WriteString("Weekly schedule:\n")
	for d := time.Monday; ; d = (d + 1) % 7 {
		w := s[d]
		mark := "✅"
		if !w.Enabled {
			mark = "❌"
		}
		b.WriteString(fmt.Sprintf("%s %s: %s–%s\n",
			mark, d.String(), domain.FormatMinutes(w.StartM), domain.FormatMinutes(w.EndM)))
		if d == time.Sunday {
			break
		}
	}
	return b.String()
}
