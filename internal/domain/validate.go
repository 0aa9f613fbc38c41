package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	MaxDailyGoal      = 50
	MaxIntervalBound  = 480 // minutes
	MaxQuestionLength = 500
	MaxAnswerLength   = 200
)

var (
	ErrGoalOutOfRange     = errors.New("daily goal must be between 1 and 50")
	ErrIntervalOutOfRange = errors.New("interval must be between 1 and 480 minutes")
	ErrIntervalInverted   = errors.New("min interval must be less than max interval")
	ErrWindowInverted     = errors.New("window start must be before window end")
	ErrEmptyQuestion      = errors.New("question must not be empty")
	ErrEmptyAnswer        = errors.New("answer must not be empty")
	ErrQuestionTooLong    = errors.New("question too long")
	ErrAnswerTooLong      = errors.New("answer too long")
)

// ValidateDailyGoal checks the questions-per-day target.
func ValidateDailyGoal(goal int) error {
	if goal < 1 || goal > MaxDailyGoal {
		return ErrGoalOutOfRange
	}
	return nil
}

// ValidateIntervalBounds checks the min/max minute bounds used by the
// interval calculator. The scheduler assumes these hold.
func ValidateIntervalBounds(minM, maxM int) error {
	if minM < 1 || maxM > MaxIntervalBound {
		return ErrIntervalOutOfRange
	}
	if minM >= maxM {
		return ErrIntervalInverted
	}
	return nil
}

// ValidateDayWindow checks one weekday window. Inverted (midnight-crossing)
// windows are rejected rather than wrapped.
func ValidateDayWindow(w DayWindow) error {
	if w.StartM < 0 || w.StartM > 1439 || w.EndM < 0 || w.EndM > 1439 {
		return errors.New("window time out of range")
	}
	if w.StartM >= w.EndM {
		return ErrWindowInverted
	}
	return nil
}

// ValidateQAPair checks a question/answer pair before it is stored.
func ValidateQAPair(question, answer string) error {
	if question == "" {
		return ErrEmptyQuestion
	}
	if answer == "" {
		return ErrEmptyAnswer
	}
	if len([]rune(question)) > MaxQuestionLength {
		return fmt.Errorf("%w (max %d characters)", ErrQuestionTooLong, MaxQuestionLength)
	}
	if len([]rune(answer)) > MaxAnswerLength {
		return fmt.Errorf("%w (max %d characters)", ErrAnswerTooLong, MaxAnswerLength)
	}
	return nil
}

// SanitizeText collapses whitespace and truncates to maxLen runes.
func SanitizeText(s string, maxLen int) string {
	out := strings.Join(strings.Fields(s), " ")
	r := []rune(out)
	if len(r) > maxLen {
		out = string(r[:maxLen-3]) + "..."
	}
	return out
}

// ParseClockMinutes parses "HH:MM" into minutes from midnight.
func ParseClockMinutes(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, errors.New("expected HH:MM")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, errors.New("invalid hour")
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, errors.New("invalid minute")
	}
	return h*60 + m, nil
}

// FormatMinutes returns HH:MM for minutes since midnight (00:00..23:59).
func FormatMinutes(mins int) string {
	if mins < 0 {
		mins = 0
	}
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// ParseWeekday maps short day names (mon..sun) to time.Weekday.
func ParseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mon":
		return time.Monday, nil
	case "tue":
		return time.Tuesday, nil
	case "wed":
		return time.Wednesday, nil
	case "thu":
		return time.Thursday, nil
	case "fri":
		return time.Friday, nil
	case "sat":
		return time.Saturday, nil
	case "sun":
		return time.Sunday, nil
	}
	return 0, errors.New("unknown day, use: mon, tue, wed, thu, fri, sat, sun")
}
