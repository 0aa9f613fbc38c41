package quiz

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ivsol/smartquiz-bot/internal/domain"
)

// --- fakes ---

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

type fakeStore struct {
	mu            sync.Mutex
	settings      domain.UserSettings
	items         []domain.QAItem
	agg           domain.AggregateStats
	qstats        map[int64]domain.QuestionStats
	current       *domain.CurrentQuestion
	settingsReads int

	// When set, the first GetUserSettings call closes blockEntered and
	// parks until blockCh is closed. Later calls pass straight through.
	blockCh      chan struct{}
	blockEntered chan struct{}
}

func newFakeStore(settings domain.UserSettings, items []domain.QAItem) *fakeStore {
	return &fakeStore{
		settings: settings,
		items:    items,
		qstats:   make(map[int64]domain.QuestionStats),
	}
}

func (f *fakeStore) GetUserSettings(_ context.Context, _ int64) (domain.UserSettings, error) {
	f.mu.Lock()
	block := f.blockCh
	f.blockCh = nil
	f.mu.Unlock()
	if block != nil {
		close(f.blockEntered)
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.settingsReads++
	return f.settings, nil
}

func (f *fakeStore) IncrementQuestionsToday(_ context.Context, _ int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings.QuestionsToday++
	f.settings.LastQuestionAt = &at
	return nil
}

func (f *fakeStore) GetUserQA(_ context.Context, _ int64) ([]domain.QAItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.QAItem(nil), f.items...), nil
}

func (f *fakeStore) GetAggregateStats(_ context.Context, _ int64) (domain.AggregateStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.agg, nil
}

func (f *fakeStore) GetQuestionStats(_ context.Context, _ int64) (map[int64]domain.QuestionStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int64]domain.QuestionStats, len(f.qstats))
	for k, v := range f.qstats {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) SaveCurrentQuestion(_ context.Context, _ int64, item domain.QAItem, askedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = &domain.CurrentQuestion{Item: item, AskedAt: askedAt}
	return nil
}

func (f *fakeStore) RemoveCurrentQuestion(_ context.Context, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = nil
	return nil
}

func (f *fakeStore) UpdateQuestionLastReviewed(_ context.Context, _ int64, questionID int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.qstats[questionID]
	st.LastReviewed = &at
	f.qstats[questionID] = st
	return nil
}

func (f *fakeStore) AddStudyTime(_ context.Context, _ int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agg.LastStudyAt = &at
	return nil
}

func (f *fakeStore) settingsReadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settingsReads
}

func (f *fakeStore) snapshotSettings() domain.UserSettings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings
}

func (f *fakeStore) currentQuestion() *domain.CurrentQuestion {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

type fakeSender struct {
	mu   sync.Mutex
	err  error
	sent chan string
}

func newFakeSender() *fakeSender {
	return &fakeSender{sent: make(chan string, 100)}
}

func (s *fakeSender) SendMessage(_ int64, text string) error {
	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	select {
	case s.sent <- text:
	default:
	}
	return err
}

func (s *fakeSender) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// --- helpers ---

// mondayNoon falls inside the default Mon 09:00–21:00 window.
var mondayNoon = time.Date(2025, time.May, 5, 12, 0, 0, 0, time.UTC)

// fastSettings makes the adaptive wait zero so tests run immediately. The
// engine assumes validated settings, so the zero bounds are fine here.
func fastSettings() domain.UserSettings {
	s := domain.DefaultSettings(mondayNoon)
	s.Active = true
	s.DailyGoal = 1
	s.MinIntervalMin = 0
	s.MaxIntervalMin = 0
	return s
}

func fastEngine(store Store, sender Sender, clock Clock) *Engine {
	return New(store, sender, clock, zap.NewNop(),
		WithPollInterval(5*time.Millisecond),
		WithEmptyInterval(5*time.Millisecond),
	)
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("timed out waiting for: " + msg)
}

// --- tests ---

func TestStartIsIdempotent(t *testing.T) {
	store := newFakeStore(fastSettings(), nil)
	engine := New(store, newFakeSender(), fakeClock{mondayNoon}, zap.NewNop(),
		WithPollInterval(time.Hour)) // keep the loop quiet

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Exhaust the quota so the loop parks on the poll wait.
	store.mu.Lock()
	store.settings.QuestionsToday = store.settings.DailyGoal
	store.mu.Unlock()

	require.True(t, engine.Start(ctx, 1, 100))
	assert.False(t, engine.Start(ctx, 1, 100), "second start must be a no-op")
	assert.True(t, engine.IsRunning(1))

	engine.Stop(ctx, 1)
	assert.False(t, engine.IsRunning(1))
}

func TestStaleLoopDoesNotUnregisterSuccessor(t *testing.T) {
	settings := fastSettings()
	settings.QuestionsToday = settings.DailyGoal // park every loop on the poll wait
	store := newFakeStore(settings, nil)
	release := make(chan struct{})
	entered := make(chan struct{})
	store.blockCh = release
	store.blockEntered = entered

	engine := New(store, newFakeSender(), fakeClock{mondayNoon}, zap.NewNop(),
		WithPollInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.True(t, engine.Start(ctx, 1, 100))
	select {
	case <-entered: // loop #1 is parked inside the settings read
	case <-time.After(2 * time.Second):
		t.Fatal("first loop never reached the settings read")
	}

	engine.Stop(ctx, 1)
	require.True(t, engine.Start(ctx, 1, 100), "replacement loop after stop")
	waitFor(t, func() bool { return store.settingsReadCount() >= 1 }, "replacement loop settings read")

	reads := store.settingsReadCount()
	close(release) // the stale loop finishes and runs its deferred cleanup
	waitFor(t, func() bool { return store.settingsReadCount() > reads }, "stale loop release")
	time.Sleep(50 * time.Millisecond)

	assert.True(t, engine.IsRunning(1),
		"a stale loop's cleanup must not unregister the live loop")

	engine.Stop(ctx, 1)
	assert.False(t, engine.IsRunning(1))
}

func TestStopDuringEmptyQueueWaitExitsLoop(t *testing.T) {
	store := newFakeStore(fastSettings(), nil)
	sender := newFakeSender()
	engine := New(store, sender, fakeClock{mondayNoon}, zap.NewNop(),
		WithPollInterval(time.Hour),
		WithEmptyInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.True(t, engine.Start(ctx, 1, 100))

	select {
	case <-sender.sent: // the loop is in (or entering) the empty-queue wait
	case <-time.After(2 * time.Second):
		t.Fatal("no empty-set notice delivered")
	}

	reads := store.settingsReadCount()
	engine.Stop(ctx, 1)
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, reads, store.settingsReadCount(),
		"a stop during the empty-queue wait must end the loop without another iteration")
	assert.False(t, engine.IsRunning(1))
}

func TestStopIsIdempotentAndClearsCurrentQuestion(t *testing.T) {
	store := newFakeStore(fastSettings(), nil)
	store.current = &domain.CurrentQuestion{
		Item:    domain.QAItem{ID: 1, Question: "q", Answer: "a"},
		AskedAt: mondayNoon,
	}
	engine := fastEngine(store, newFakeSender(), fakeClock{mondayNoon})

	ctx := context.Background()
	engine.Stop(ctx, 1) // never started; must not error or panic
	assert.Nil(t, store.currentQuestion(), "stop clears the pending question")
	engine.Stop(ctx, 1) // second stop is a no-op
	assert.False(t, engine.IsRunning(1))
}

func TestLoopDeliversAndConsumesQuota(t *testing.T) {
	settings := fastSettings()
	items := []domain.QAItem{{ID: 1, Question: "Capital of France", Answer: "Paris", CreatedAt: mondayNoon}}
	store := newFakeStore(settings, items)
	sender := newFakeSender()
	clock := fakeClock{mondayNoon}
	engine := fastEngine(store, sender, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.True(t, engine.Start(ctx, 1, 100))

	select {
	case text := <-sender.sent:
		assert.Contains(t, text, "Capital of France")
	case <-time.After(2 * time.Second):
		t.Fatal("no question delivered")
	}

	waitFor(t, func() bool {
		return store.snapshotSettings().QuestionsToday == 1
	}, "daily counter increment")

	s := store.snapshotSettings()
	assert.Equal(t, 1, s.QuestionsToday)
	assert.NotNil(t, s.LastQuestionAt)
	assert.False(t, domain.CanSendNow(s, clock.Now()),
		"gate must reject once the goal is reached")

	cq := store.currentQuestion()
	require.NotNil(t, cq, "current question persisted")
	assert.Equal(t, int64(1), cq.Item.ID)

	store.mu.Lock()
	reviewed := store.qstats[1].LastReviewed
	store.mu.Unlock()
	assert.NotNil(t, reviewed, "last_reviewed stamped on delivery")

	engine.Stop(ctx, 1)
	waitFor(t, func() bool { return !engine.IsRunning(1) }, "loop shutdown")
	assert.Nil(t, store.currentQuestion(), "stop clears the pending question")
}

func TestDeliveryFailureDoesNotConsumeQuota(t *testing.T) {
	settings := fastSettings()
	items := []domain.QAItem{{ID: 1, Question: "q", Answer: "a"}}
	store := newFakeStore(settings, items)
	sender := newFakeSender()
	sender.setErr(errors.New("network down"))
	engine := fastEngine(store, sender, fakeClock{mondayNoon})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.True(t, engine.Start(ctx, 1, 100))

	// At least two attempts prove the loop survives the failure.
	for i := 0; i < 2; i++ {
		select {
		case <-sender.sent:
		case <-time.After(2 * time.Second):
			t.Fatal("loop stopped retrying after a send failure")
		}
	}

	s := store.snapshotSettings()
	assert.Zero(t, s.QuestionsToday, "failed deliveries must not consume quota")
	assert.Nil(t, store.currentQuestion(), "no pending question on failed delivery")
	assert.True(t, engine.IsRunning(1))

	engine.Stop(ctx, 1)
}

func TestEmptyQuestionSetSendsNotice(t *testing.T) {
	store := newFakeStore(fastSettings(), nil)
	sender := newFakeSender()
	engine := fastEngine(store, sender, fakeClock{mondayNoon})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.True(t, engine.Start(ctx, 1, 100))

	select {
	case text := <-sender.sent:
		assert.Contains(t, text, "no quiz questions")
	case <-time.After(2 * time.Second):
		t.Fatal("no empty-set notice delivered")
	}

	s := store.snapshotSettings()
	assert.Zero(t, s.QuestionsToday, "the notice must not consume quota")
	assert.Nil(t, store.currentQuestion())

	engine.Stop(ctx, 1)
}

func TestStatusHints(t *testing.T) {
	settings := fastSettings()
	store := newFakeStore(settings, nil)
	ctx := context.Background()

	t.Run("stopped", func(t *testing.T) {
		engine := fastEngine(store, newFakeSender(), fakeClock{mondayNoon})
		st, err := engine.Status(ctx, 1)
		require.NoError(t, err)
		assert.False(t, st.Active)
		assert.Equal(t, "quiz is stopped", st.NextSendHint)
	})

	t.Run("before window", func(t *testing.T) {
		early := time.Date(2025, time.May, 5, 7, 0, 0, 0, time.UTC) // Monday 07:00
		engine := New(store, newFakeSender(), fakeClock{early}, zap.NewNop(),
			WithPollInterval(time.Hour))
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		require.True(t, engine.Start(runCtx, 1, 100))

		st, err := engine.Status(ctx, 1)
		require.NoError(t, err)
		assert.True(t, st.Active)
		assert.Equal(t, "today at 09:00", st.NextSendHint)

		engine.Stop(ctx, 1)
	})

	t.Run("disabled day points to the next enabled one", func(t *testing.T) {
		s := fastSettings()
		w := s.Schedule[time.Monday]
		w.Enabled = false
		s.Schedule[time.Monday] = w
		disabledStore := newFakeStore(s, nil)

		engine := New(disabledStore, newFakeSender(), fakeClock{mondayNoon}, zap.NewNop(),
			WithPollInterval(time.Hour))
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		require.True(t, engine.Start(runCtx, 1, 100))

		st, err := engine.Status(ctx, 1)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(st.NextSendHint, "next enabled day:"), st.NextSendHint)

		engine.Stop(ctx, 1)
	})
}
