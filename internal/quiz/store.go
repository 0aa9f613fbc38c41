package quiz

import (
	"context"
	"time"

	"github.com/ivsol/smartquiz-bot/internal/domain"
)

// Store defines the storage operations the scheduling engine needs. Calls
// may block; each user's loop waits on its own calls only.
type Store interface {
	GetUserSettings(ctx context.Context, userID int64) (domain.UserSettings, error)
	IncrementQuestionsToday(ctx context.Context, userID int64, at time.Time) error
	GetUserQA(ctx context.Context, userID int64) ([]domain.QAItem, error)
	GetAggregateStats(ctx context.Context, userID int64) (domain.AggregateStats, error)
	GetQuestionStats(ctx context.Context, userID int64) (map[int64]domain.QuestionStats, error)
	SaveCurrentQuestion(ctx context.Context, userID int64, item domain.QAItem, askedAt time.Time) error
	RemoveCurrentQuestion(ctx context.Context, userID int64) error
	UpdateQuestionLastReviewed(ctx context.Context, userID int64, questionID int64, at time.Time) error
	AddStudyTime(ctx context.Context, userID int64, at time.Time) error
}
