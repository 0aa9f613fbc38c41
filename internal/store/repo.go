package store

import (
	"context"
	"time"

	"github.com/ivsol/smartquiz-bot/internal/domain"
)

// Repo defines storage operations for quiz users. It is a superset of
// quiz.Store: the command handlers additionally manage the question set,
// record answers and toggle the active flag.
type Repo interface {
	// Settings. GetUserSettings applies the lazy daily reset: when the
	// stored last-reset date differs from today, questions_today goes back
	// to zero before the row is returned.
	GetUserSettings(ctx context.Context, userID int64) (domain.UserSettings, error)
	SaveUserSettings(ctx context.Context, userID int64, s domain.UserSettings) error
	SetActive(ctx context.Context, userID int64, active bool) error
	IncrementQuestionsToday(ctx context.Context, userID int64, at time.Time) error

	// Question set.
	GetUserQA(ctx context.Context, userID int64) ([]domain.QAItem, error)
	AddUserQA(ctx context.Context, userID int64, question, answer string, at time.Time) (domain.QAItem, error)
	RemoveUserQA(ctx context.Context, userID int64, questionID int64) (bool, error)
	ClearUserQA(ctx context.Context, userID int64) (int, error)

	// Statistics.
	GetAggregateStats(ctx context.Context, userID int64) (domain.AggregateStats, error)
	GetQuestionStats(ctx context.Context, userID int64) (map[int64]domain.QuestionStats, error)
	RecordAnswer(ctx context.Context, userID, questionID int64, correct bool, responseSec float64, quality int, at time.Time) error
	UpdateQuestionLastReviewed(ctx context.Context, userID int64, questionID int64, at time.Time) error
	AddStudyTime(ctx context.Context, userID int64, at time.Time) error

	// Pending question.
	SaveCurrentQuestion(ctx context.Context, userID int64, item domain.QAItem, askedAt time.Time) error
	GetCurrentQuestion(ctx context.Context, userID int64) (*domain.CurrentQuestion, error)
	RemoveCurrentQuestion(ctx context.Context, userID int64) error

	Close() error
}
