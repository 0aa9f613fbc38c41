package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/ivsol/smartquiz-bot/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// --- Settings ---

// GetUserSettings returns a user's settings, applying the lazy daily reset:
// if the stored last_reset_date differs from today, questions_today is
// zeroed and persisted before the row is returned. Users with no stored
// row get the defaults (unsaved).
func (r *SQLiteRepo) GetUserSettings(ctx context.Context, userID int64) (domain.UserSettings, error) {
	now := time.Now()

	row := r.db.QueryRowContext(ctx, `
		SELECT active, daily_goal, min_interval_min, max_interval_min,
		       questions_today, last_reset_date, last_question_at, created_at
		FROM user_settings
		WHERE user_id = ?`,
		userID,
	)

	var (
		activeInt   int
		s           domain.UserSettings
		lastQNS     sql.NullInt64
		createdUnix int64
	)
	err := row.Scan(
		&activeInt, &s.DailyGoal, &s.MinIntervalMin, &s.MaxIntervalMin,
		&s.QuestionsToday, &s.LastResetDate, &lastQNS, &createdUnix,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultSettings(now), nil
	}
	if err != nil {
		return domain.UserSettings{}, err
	}

	s.Active = activeInt != 0
	s.LastQuestionAt = fromNullInt64(lastQNS)
	s.CreatedAt = time.Unix(createdUnix, 0).UTC()

	s.Schedule, err = r.loadSchedule(ctx, userID)
	if err != nil {
		return domain.UserSettings{}, err
	}

	if today := now.Format(domain.DateLayout); s.LastResetDate != today {
		s.QuestionsToday = 0
		s.LastResetDate = today
		_, err := r.db.ExecContext(ctx, `
			UPDATE user_settings
			SET questions_today = 0, last_reset_date = ?
			WHERE user_id = ?`,
			today, userID,
		)
		if err != nil {
			return domain.UserSettings{}, err
		}
	}

	return s, nil
}

func (r *SQLiteRepo) loadSchedule(ctx context.Context, userID int64) (domain.WeekSchedule, error) {
	schedule := domain.DefaultSchedule()

	rows, err := r.db.QueryContext(ctx, `
		SELECT weekday, start_m, end_m, enabled
		FROM day_windows
		WHERE user_id = ?`,
		userID,
	)
	if err != nil {
		return schedule, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			weekday    int
			w          domain.DayWindow
			enabledInt int
		)
		if err := rows.Scan(&weekday, &w.StartM, &w.EndM, &enabledInt); err != nil {
			return schedule, err
		}
		if weekday < 0 || weekday > 6 {
			continue
		}
		w.Enabled = enabledInt != 0
		schedule[weekday] = w
	}
	return schedule, rows.Err()
}

// SaveUserSettings upserts a user's settings row and all seven weekday
// windows in one transaction.
func (r *SQLiteRepo) SaveUserSettings(ctx context.Context, userID int64, s domain.UserSettings) error {
	created := s.CreatedAt.UTC().Unix()
	if s.CreatedAt.IsZero() {
		created = time.Now().UTC().Unix()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_settings (
			user_id, active, daily_goal, min_interval_min, max_interval_min,
			questions_today, last_reset_date, last_question_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			active           = excluded.active,
			daily_goal       = excluded.daily_goal,
			min_interval_min = excluded.min_interval_min,
			max_interval_min = excluded.max_interval_min,
			questions_today  = excluded.questions_today,
			last_reset_date  = excluded.last_reset_date,
			last_question_at = excluded.last_question_at`,
		userID, boolToInt(s.Active), s.DailyGoal, s.MinIntervalMin, s.MaxIntervalMin,
		s.QuestionsToday, s.LastResetDate, toNullInt64(s.LastQuestionAt), created,
	)
	if err != nil {
		return err
	}

	for weekday, w := range s.Schedule {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO day_windows (user_id, weekday, start_m, end_m, enabled)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(user_id, weekday) DO UPDATE SET
				start_m = excluded.start_m,
				end_m   = excluded.end_m,
				enabled = excluded.enabled`,
			userID, weekday, w.StartM, w.EndM, boolToInt(w.Enabled),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SetActive toggles the active flag for an existing user.
func (r *SQLiteRepo) SetActive(ctx context.Context, userID int64, active bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE user_settings
		SET active = ?
		WHERE user_id = ?`,
		boolToInt(active), userID,
	)
	return err
}

// IncrementQuestionsToday bumps the daily counter and stamps the last
// question time after a confirmed delivery.
func (r *SQLiteRepo) IncrementQuestionsToday(ctx context.Context, userID int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE user_settings
		SET questions_today = questions_today + 1, last_question_at = ?
		WHERE user_id = ?`,
		at.UTC().Unix(), userID,
	)
	return err
}

// --- Question set ---

// GetUserQA returns the user's question set ordered by ID.
func (r *SQLiteRepo) GetUserQA(ctx context.Context, userID int64) ([]domain.QAItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, question, answer, created_at
		FROM qa_items
		WHERE user_id = ?
		ORDER BY id ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.QAItem
	for rows.Next() {
		var (
			item        domain.QAItem
			createdUnix int64
		)
		if err := rows.Scan(&item.ID, &item.Question, &item.Answer, &createdUnix); err != nil {
			return nil, err
		}
		item.CreatedAt = time.Unix(createdUnix, 0).UTC()
		items = append(items, item)
	}
	return items, rows.Err()
}

// AddUserQA inserts a new question with the next sequential ID and returns it.
func (r *SQLiteRepo) AddUserQA(ctx context.Context, userID int64, question, answer string, at time.Time) (domain.QAItem, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.QAItem{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var nextID int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(id), 0) + 1 FROM qa_items WHERE user_id = ?`,
		userID,
	).Scan(&nextID)
	if err != nil {
		return domain.QAItem{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO qa_items (user_id, id, question, answer, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		userID, nextID, question, answer, at.UTC().Unix(),
	)
	if err != nil {
		return domain.QAItem{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.QAItem{}, err
	}

	return domain.QAItem{ID: nextID, Question: question, Answer: answer, CreatedAt: at.UTC()}, nil
}

// RemoveUserQA deletes one question; false when the ID was unknown.
func (r *SQLiteRepo) RemoveUserQA(ctx context.Context, userID int64, questionID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM qa_items WHERE user_id = ? AND id = ?`,
		userID, questionID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ClearUserQA deletes the whole question set and returns how many went.
func (r *SQLiteRepo) ClearUserQA(ctx context.Context, userID int64) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM qa_items WHERE user_id = ?`,
		userID,
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// --- Statistics ---

// GetAggregateStats returns a user's answer history; zero values when the
// user has never answered.
func (r *SQLiteRepo) GetAggregateStats(ctx context.Context, userID int64) (domain.AggregateStats, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT total_answered, correct_answers, incorrect_answers,
		       current_streak, best_streak, avg_response_sec,
		       total_study_minutes, last_study_at
		FROM user_stats
		WHERE user_id = ?`,
		userID,
	)

	var (
		a      domain.AggregateStats
		lastNS sql.NullInt64
	)
	err := row.Scan(
		&a.TotalAnswered, &a.CorrectAnswers, &a.IncorrectAnswers,
		&a.CurrentStreak, &a.BestStreak, &a.AvgResponseSec,
		&a.TotalStudyMinutes, &lastNS,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AggregateStats{}, nil
	}
	if err != nil {
		return domain.AggregateStats{}, err
	}
	a.LastStudyAt = fromNullInt64(lastNS)
	return a, nil
}

// GetQuestionStats returns per-question review history keyed by question ID.
func (r *SQLiteRepo) GetQuestionStats(ctx context.Context, userID int64) (map[int64]domain.QuestionStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT question_id, times_asked, times_correct, total_response_sec,
		       last_quality, last_reviewed
		FROM question_stats
		WHERE user_id = ?`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[int64]domain.QuestionStats)
	for rows.Next() {
		var (
			questionID int64
			st         domain.QuestionStats
			reviewedNS sql.NullInt64
		)
		if err := rows.Scan(
			&questionID, &st.TimesAsked, &st.TimesCorrect,
			&st.TotalResponseSec, &st.LastQuality, &reviewedNS,
		); err != nil {
			return nil, err
		}
		st.LastReviewed = fromNullInt64(reviewedNS)
		stats[questionID] = st
	}
	return stats, rows.Err()
}

// RecordAnswer applies one answered question to both the aggregate and the
// per-question statistics in a single transaction: totals, streaks, running
// average response time, last quality and review timestamp.
func (r *SQLiteRepo) RecordAnswer(ctx context.Context, userID, questionID int64, correct bool, responseSec float64, quality int, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		a      domain.AggregateStats
		lastNS sql.NullInt64
	)
	err = tx.QueryRowContext(ctx, `
		SELECT total_answered, correct_answers, incorrect_answers,
		       current_streak, best_streak, avg_response_sec,
		       total_study_minutes, last_study_at
		FROM user_stats
		WHERE user_id = ?`,
		userID,
	).Scan(
		&a.TotalAnswered, &a.CorrectAnswers, &a.IncorrectAnswers,
		&a.CurrentStreak, &a.BestStreak, &a.AvgResponseSec,
		&a.TotalStudyMinutes, &lastNS,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	a.LastStudyAt = fromNullInt64(lastNS)

	a.TotalAnswered++
	if correct {
		a.CorrectAnswers++
		a.CurrentStreak++
		if a.CurrentStreak > a.BestStreak {
			a.BestStreak = a.CurrentStreak
		}
	} else {
		a.IncorrectAnswers++
		a.CurrentStreak = 0
	}
	// Running average over all answered questions.
	totalTime := a.AvgResponseSec * float64(a.TotalAnswered-1)
	a.AvgResponseSec = (totalTime + responseSec) / float64(a.TotalAnswered)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_stats (
			user_id, total_answered, correct_answers, incorrect_answers,
			current_streak, best_streak, avg_response_sec,
			total_study_minutes, last_study_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			total_answered    = excluded.total_answered,
			correct_answers   = excluded.correct_answers,
			incorrect_answers = excluded.incorrect_answers,
			current_streak    = excluded.current_streak,
			best_streak       = excluded.best_streak,
			avg_response_sec  = excluded.avg_response_sec,
			last_study_at     = excluded.last_study_at`,
		userID, a.TotalAnswered, a.CorrectAnswers, a.IncorrectAnswers,
		a.CurrentStreak, a.BestStreak, a.AvgResponseSec,
		a.TotalStudyMinutes, at.UTC().Unix(),
	)
	if err != nil {
		return err
	}

	correctInc := 0
	if correct {
		correctInc = 1
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO question_stats (
			user_id, question_id, times_asked, times_correct,
			total_response_sec, last_quality, last_reviewed
		) VALUES (?, ?, 1, ?, ?, ?, ?)
		ON CONFLICT(user_id, question_id) DO UPDATE SET
			times_asked        = question_stats.times_asked + 1,
			times_correct      = question_stats.times_correct + ?,
			total_response_sec = question_stats.total_response_sec + ?,
			last_quality       = ?,
			last_reviewed      = ?`,
		userID, questionID, correctInc, responseSec, quality, at.UTC().Unix(),
		correctInc, responseSec, quality, at.UTC().Unix(),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateQuestionLastReviewed stamps a question as just shown, creating its
// stats row on first delivery.
func (r *SQLiteRepo) UpdateQuestionLastReviewed(ctx context.Context, userID int64, questionID int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO question_stats (
			user_id, question_id, times_asked, times_correct,
			total_response_sec, last_quality, last_reviewed
		) VALUES (?, ?, 0, 0, 0, 0, ?)
		ON CONFLICT(user_id, question_id) DO UPDATE SET
			last_reviewed = excluded.last_reviewed`,
		userID, questionID, at.UTC().Unix(),
	)
	return err
}

// AddStudyTime accrues the minutes elapsed since the previous study moment
// and moves the marker forward.
func (r *SQLiteRepo) AddStudyTime(ctx context.Context, userID int64, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var lastNS sql.NullInt64
	err = tx.QueryRowContext(ctx, `
		SELECT last_study_at FROM user_stats WHERE user_id = ?`,
		userID,
	).Scan(&lastNS)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	deltaMin := 0
	if last := fromNullInt64(lastNS); last != nil {
		deltaMin = int(at.Sub(*last).Minutes())
		if deltaMin < 0 {
			deltaMin = 0
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_stats (user_id, total_study_minutes, last_study_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			total_study_minutes = user_stats.total_study_minutes + ?,
			last_study_at       = excluded.last_study_at`,
		userID, deltaMin, at.UTC().Unix(), deltaMin,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// --- Pending question ---

// SaveCurrentQuestion records the question awaiting an answer; at most one
// per user.
func (r *SQLiteRepo) SaveCurrentQuestion(ctx context.Context, userID int64, item domain.QAItem, askedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO current_questions (user_id, question_id, question, answer, asked_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			question_id = excluded.question_id,
			question    = excluded.question,
			answer      = excluded.answer,
			asked_at    = excluded.asked_at`,
		userID, item.ID, item.Question, item.Answer, askedAt.UTC().Unix(),
	)
	return err
}

// GetCurrentQuestion returns the pending question, or nil when none.
func (r *SQLiteRepo) GetCurrentQuestion(ctx context.Context, userID int64) (*domain.CurrentQuestion, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT question_id, question, answer, asked_at
		FROM current_questions
		WHERE user_id = ?`,
		userID,
	)

	var (
		cq        domain.CurrentQuestion
		askedUnix int64
	)
	err := row.Scan(&cq.Item.ID, &cq.Item.Question, &cq.Item.Answer, &askedUnix)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cq.AskedAt = time.Unix(askedUnix, 0).UTC()
	return &cq, nil
}

// RemoveCurrentQuestion clears the pending question; a no-op when none.
func (r *SQLiteRepo) RemoveCurrentQuestion(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM current_questions WHERE user_id = ?`,
		userID,
	)
	return err
}
