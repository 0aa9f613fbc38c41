package insights

import (
	"context"
	"sort"

	"github.com/ivsol/smartquiz-bot/internal/domain"
	"github.com/ivsol/smartquiz-bot/internal/store"
)

// Difficulty labels derived from a question's success rate.
const (
	DifficultyHard   = "hard"   // success rate < 30%
	DifficultyMedium = "medium" // success rate < 70%
	DifficultyEasy   = "easy"
)

// QuestionInsight is one question's review summary.
type QuestionInsight struct {
	ID          int64
	Question    string
	Difficulty  string
	SuccessRate float64 // percent
	TimesAsked  int
}

// UserInsights aggregates a user's performance for the stats commands.
type UserInsights struct {
	TotalQuestions int
	QuizActive     bool
	Aggregate      domain.AggregateStats
	CorrectRate    float64 // percent
	QuestionsToday int
	DailyGoal      int
	CompletionRate float64 // percent of today's goal
	Questions      []QuestionInsight
}

// Service computes per-user insight summaries from the store.
type Service struct {
	repo store.Repo
}

func New(repo store.Repo) *Service {
	return &Service{repo: repo}
}

// ForUser assembles the full insight view for one user. Questions never
// asked are omitted from the per-question analysis.
func (s *Service) ForUser(ctx context.Context, userID int64, quizActive bool) (UserInsights, error) {
	settings, err := s.repo.GetUserSettings(ctx, userID)
	if err != nil {
		return UserInsights{}, err
	}
	agg, err := s.repo.GetAggregateStats(ctx, userID)
	if err != nil {
		return UserInsights{}, err
	}
	items, err := s.repo.GetUserQA(ctx, userID)
	if err != nil {
		return UserInsights{}, err
	}
	questionStats, err := s.repo.GetQuestionStats(ctx, userID)
	if err != nil {
		return UserInsights{}, err
	}

	ins := UserInsights{
		TotalQuestions: len(items),
		QuizActive:     quizActive,
		Aggregate:      agg,
		QuestionsToday: settings.QuestionsToday,
		DailyGoal:      settings.DailyGoal,
	}
	if agg.TotalAnswered > 0 {
		ins.CorrectRate = float64(agg.CorrectAnswers) / float64(agg.TotalAnswered) * 100
	}
	if settings.DailyGoal > 0 {
		ins.CompletionRate = float64(settings.QuestionsToday) / float64(settings.DailyGoal) * 100
	}

	for _, item := range items {
		st, ok := questionStats[item.ID]
		if !ok || st.TimesAsked == 0 {
			continue
		}
		rate := float64(st.TimesCorrect) / float64(st.TimesAsked) * 100
		ins.Questions = append(ins.Questions, QuestionInsight{
			ID:          item.ID,
			Question:    item.Question,
			Difficulty:  DifficultyFor(rate),
			SuccessRate: rate,
			TimesAsked:  st.TimesAsked,
		})
	}
	// Hardest first, so the list surfaces what needs drilling.
	sort.Slice(ins.Questions, func(i, j int) bool {
		return ins.Questions[i].SuccessRate < ins.Questions[j].SuccessRate
	})

	return ins, nil
}

// DifficultyFor maps a success-rate percentage to a label.
func DifficultyFor(successRatePct float64) string {
	switch {
	case successRatePct < 30:
		return DifficultyHard
	case successRatePct < 70:
		return DifficultyMedium
	default:
		return DifficultyEasy
	}
}
