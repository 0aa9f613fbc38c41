package quiz

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ivsol/smartquiz-bot/internal/domain"
)

// Sender is the minimal interface the engine needs to deliver a message.
// telegram.Sender implements it.
type Sender interface {
	SendMessage(chatID int64, text string) error
}

const (
	questionPrefix = "❓ Question: "

	emptyQuestionsNotice = "You have no quiz questions yet!\n\n" +
		"Add some with:\n" +
		"/add_qa Question || Answer\n\n" +
		"For example:\n" +
		"/add_qa Capital of France || Paris"
)

// Status describes a user's quiz loop for the status command.
type Status struct {
	Active         bool
	QuestionsToday int
	DailyGoal      int
	NextSendHint   string
}

// Engine runs one scheduling loop per active user and tracks them in a
// registry keyed by user ID. Start and Stop are idempotent; at most one
// loop exists per user at any time.
type Engine struct {
	store         Store
	sender        Sender
	clock         Clock
	log           *zap.Logger
	pollInterval  time.Duration // wait between gate re-checks while ineligible
	emptyInterval time.Duration // wait after an empty-question notice

	mu      sync.Mutex
	running map[int64]*loopHandle
}

// loopHandle identifies one registered loop. Registry cleanup compares
// handles so a finished loop can only remove its own registration.
type loopHandle struct {
	cancel context.CancelFunc
}

// Option tweaks engine timing; used by tests to shrink the waits.
type Option func(*Engine)

func WithPollInterval(d time.Duration) Option  { return func(e *Engine) { e.pollInterval = d } }
func WithEmptyInterval(d time.Duration) Option { return func(e *Engine) { e.emptyInterval = d } }

// New creates an Engine. The default poll interval is 5 minutes and the
// empty-question interval 60 seconds.
func New(store Store, sender Sender, clock Clock, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		sender:        sender,
		clock:         clock,
		log:           log,
		pollInterval:  5 * time.Minute,
		emptyInterval: 60 * time.Second,
		running:       make(map[int64]*loopHandle),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Start launches the scheduling loop for a user. A second Start for the
// same user is a no-op. The loop stops when Stop is called or ctx is
// canceled. Returns true if a new loop was started.
func (e *Engine) Start(ctx context.Context, userID, chatID int64) bool {
	e.mu.Lock()
	if _, ok := e.running[userID]; ok {
		e.mu.Unlock()
		return false
	}
	loopCtx, cancel := context.WithCancel(ctx)
	h := &loopHandle{cancel: cancel}
	e.running[userID] = h
	e.mu.Unlock()

	e.log.Info("quiz loop started", zap.Int64("userID", userID))
	go e.runLoop(loopCtx, h, userID, chatID)
	return true
}

// Stop cancels a user's loop and clears any pending question. Stopping a
// user with no running loop is a no-op.
func (e *Engine) Stop(ctx context.Context, userID int64) {
	e.mu.Lock()
	h, ok := e.running[userID]
	if ok {
		delete(e.running, userID)
	}
	e.mu.Unlock()

	if ok {
		h.cancel()
		e.log.Info("quiz loop stopped", zap.Int64("userID", userID))
	}
	if err := e.store.RemoveCurrentQuestion(ctx, userID); err != nil {
		e.log.Error("remove current question failed", zap.Error(err), zap.Int64("userID", userID))
	}
}

// StopAll cancels every running loop; used on shutdown.
func (e *Engine) StopAll() {
	e.mu.Lock()
	for userID, h := range e.running {
		h.cancel()
		delete(e.running, userID)
	}
	e.mu.Unlock()
}

// IsRunning reports registry membership for a user.
func (e *Engine) IsRunning(userID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.running[userID]
	return ok
}

// remove drops a finished loop's own registration. A loop that Stop/Start
// already replaced must not unregister its successor, so the entry only
// goes when it still holds this loop's handle.
func (e *Engine) remove(userID int64, h *loopHandle) {
	e.mu.Lock()
	if cur, ok := e.running[userID]; ok && cur == h {
		delete(e.running, userID)
	}
	e.mu.Unlock()
}

// owns reports whether h is still the registered loop for userID.
func (e *Engine) owns(userID int64, h *loopHandle) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running[userID] == h
}

// Status reports whether the loop runs, today's progress, and a rough
// description of when the next question can arrive.
func (e *Engine) Status(ctx context.Context, userID int64) (Status, error) {
	settings, err := e.store.GetUserSettings(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	st := Status{
		Active:         e.IsRunning(userID),
		QuestionsToday: settings.QuestionsToday,
		DailyGoal:      settings.DailyGoal,
	}
	st.NextSendHint = e.nextSendHint(st.Active, settings)
	return st, nil
}

func (e *Engine) nextSendHint(active bool, s domain.UserSettings) string {
	if !active {
		return "quiz is stopped"
	}

	now := e.clock.Now()
	w := s.Schedule[now.Weekday()]
	if !w.Enabled {
		if d, ok := domain.NextEnabledDay(s.Schedule, now.Weekday()); ok {
			return "next enabled day: " + d.String()
		}
		return "no enabled days in the schedule"
	}

	nowM := now.Hour()*60 + now.Minute()
	switch {
	case nowM < w.StartM:
		return "today at " + domain.FormatMinutes(w.StartM)
	case nowM > w.EndM:
		if d, ok := domain.NextEnabledDay(s.Schedule, now.Weekday()); ok {
			return "next enabled day: " + d.String()
		}
		return "no enabled days in the schedule"
	default:
		return "within the configured interval"
	}
}

// runLoop is the per-user scheduling cycle: gate check, adaptive wait,
// re-check, deliver. Storage and delivery failures are logged and skip the
// iteration; they never terminate the loop.
func (e *Engine) runLoop(ctx context.Context, h *loopHandle, userID, chatID int64) {
	defer e.remove(userID, h)

	log := e.log.With(zap.Int64("userID", userID))
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + userID))

	for {
		settings, err := e.store.GetUserSettings(ctx, userID)
		if err != nil {
			log.Error("read settings failed", zap.Error(err))
			if !e.wait(ctx, e.pollInterval) {
				return
			}
			continue
		}

		if !domain.CanSendNow(settings, e.clock.Now()) {
			if !e.wait(ctx, e.pollInterval) {
				return
			}
			continue
		}

		agg, err := e.store.GetAggregateStats(ctx, userID)
		if err != nil {
			log.Error("read stats failed", zap.Error(err))
			if !e.wait(ctx, e.pollInterval) {
				return
			}
			continue
		}

		if !e.wait(ctx, domain.NextInterval(settings, agg, rng)) {
			return
		}

		// Fallback registration check after the long sleep; the context
		// cancel already covers the normal stop path.
		if !e.owns(userID, h) {
			return
		}

		// Conditions may have changed while sleeping.
		settings, err = e.store.GetUserSettings(ctx, userID)
		if err != nil {
			log.Error("read settings failed", zap.Error(err))
			continue
		}
		if !domain.CanSendNow(settings, e.clock.Now()) {
			continue
		}

		if !e.deliver(ctx, log, rng, userID, chatID) {
			return
		}
	}
}

// deliver sends one question. Quota and pending-question state are only
// touched after the send succeeds, so a transport error cannot consume a
// quota slot. Returns false when the loop was canceled during the
// empty-queue wait.
func (e *Engine) deliver(ctx context.Context, log *zap.Logger, rng *rand.Rand, userID, chatID int64) bool {
	items, err := e.store.GetUserQA(ctx, userID)
	if err != nil {
		log.Error("read questions failed", zap.Error(err))
		return true
	}

	if len(items) == 0 {
		if err := e.sender.SendMessage(chatID, emptyQuestionsNotice); err != nil {
			log.Error("empty-questions notice failed", zap.Error(err))
		}
		return e.wait(ctx, e.emptyInterval)
	}

	statsMap, err := e.store.GetQuestionStats(ctx, userID)
	if err != nil {
		log.Error("read question stats failed", zap.Error(err))
		statsMap = nil // weight everything as unseen
	}

	now := e.clock.Now()
	item, err := domain.SelectQuestion(items, func(id int64) domain.QuestionStats {
		return statsMap[id]
	}, now, rng)
	if err != nil {
		log.Error("question selection failed", zap.Error(err))
		return true
	}

	if err := e.sender.SendMessage(chatID, questionPrefix+item.Question); err != nil {
		log.Error("send question failed", zap.Error(err), zap.Int64("chatID", chatID))
		return true
	}

	if err := e.store.SaveCurrentQuestion(ctx, userID, item, now); err != nil {
		log.Error("save current question failed", zap.Error(err))
	}
	if err := e.store.UpdateQuestionLastReviewed(ctx, userID, item.ID, now); err != nil {
		log.Error("update last reviewed failed", zap.Error(err))
	}
	if err := e.store.IncrementQuestionsToday(ctx, userID, now); err != nil {
		log.Error("increment daily counter failed", zap.Error(err))
	}
	if err := e.store.AddStudyTime(ctx, userID, now); err != nil {
		log.Error("study time bookkeeping failed", zap.Error(err))
	}

	log.Info("question sent", zap.Int64("questionID", item.ID))
	return true
}

// wait sleeps for d or until ctx is canceled; false means canceled.
func (e *Engine) wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
