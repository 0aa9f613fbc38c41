package domain

import "time"

// DayWindow is the sending window for a single weekday, in minutes from
// midnight (0..1439). A disabled day never sends.
type DayWindow struct {
	StartM  int
	EndM    int
	Enabled bool
}

// WeekSchedule holds one window per weekday, indexed by time.Weekday
// (Sunday = 0).
type WeekSchedule [7]DayWindow

// UserSettings is the per-user quiz configuration. QuestionsToday is reset
// lazily: whenever LastResetDate differs from the current date on read.
type UserSettings struct {
	Active         bool
	DailyGoal      int
	MinIntervalMin int // minutes between questions, lower bound
	MaxIntervalMin int // minutes between questions, upper bound
	QuestionsToday int
	LastResetDate  string // YYYY-MM-DD
	LastQuestionAt *time.Time
	Schedule       WeekSchedule
	CreatedAt      time.Time
}

// QAItem is one question/answer pair. IDs are sequential per user and are
// not reissued after a delete.
type QAItem struct {
	ID        int64
	Question  string
	Answer    string
	CreatedAt time.Time
}

// QuestionStats is the per-question review history used by the selector.
type QuestionStats struct {
	TimesAsked        int
	TimesCorrect      int
	TotalResponseSec  float64
	LastQuality       int // 0..5
	LastReviewed      *time.Time
}

// AggregateStats is the per-user answer history. The interval calculator
// only looks at TotalAnswered and CorrectAnswers.
type AggregateStats struct {
	TotalAnswered     int
	CorrectAnswers    int
	IncorrectAnswers  int
	CurrentStreak     int
	BestStreak        int
	AvgResponseSec    float64
	TotalStudyMinutes int
	LastStudyAt       *time.Time
}

// CurrentQuestion is the single question awaiting an answer for a user.
type CurrentQuestion struct {
	Item    QAItem
	AskedAt time.Time
}

// Accuracy returns the answered-correctly ratio, 0 when nothing answered.
func (a AggregateStats) Accuracy() float64 {
	if a.TotalAnswered == 0 {
		return 0
	}
	return float64(a.CorrectAnswers) / float64(a.TotalAnswered)
}

const (
	DefaultDailyGoal      = 10
	DefaultMinIntervalMin = 30
	DefaultMaxIntervalMin = 120
)

// DefaultSchedule is Mon–Fri 09:00–21:00 and Sat–Sun 10:00–18:00, all
// enabled.
func DefaultSchedule() WeekSchedule {
	var s WeekSchedule
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d == time.Saturday || d == time.Sunday {
			s[d] = DayWindow{StartM: 10 * 60, EndM: 18 * 60, Enabled: true}
		} else {
			s[d] = DayWindow{StartM: 9 * 60, EndM: 21 * 60, Enabled: true}
		}
	}
	return s
}

// DefaultSettings are applied to users that have never been configured.
func DefaultSettings(now time.Time) UserSettings {
	return UserSettings{
		Active:         false,
		DailyGoal:      DefaultDailyGoal,
		MinIntervalMin: DefaultMinIntervalMin,
		MaxIntervalMin: DefaultMaxIntervalMin,
		QuestionsToday: 0,
		LastResetDate:  now.Format(DateLayout),
		Schedule:       DefaultSchedule(),
		CreatedAt:      now,
	}
}

// DateLayout is the layout used for LastResetDate comparisons.
const DateLayout = "2006-01-02"
