package domain

import (
	"math/rand"
	"testing"
	"time"
)

func zeroStats(int64) QuestionStats { return QuestionStats{} }

func qaItems(n int) []QAItem {
	items := make([]QAItem, n)
	for i := range items {
		items[i] = QAItem{ID: int64(i + 1), Question: "q", Answer: "a"}
	}
	return items
}

func TestSelectQuestion_Empty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := SelectQuestion(nil, zeroStats, time.Now(), rng); err != ErrNoQuestions {
		t.Fatalf("want ErrNoQuestions, got %v", err)
	}
}

func TestSelectQuestion_SingleItem(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	items := qaItems(1)
	for i := 0; i < 10; i++ {
		got, err := SelectQuestion(items, zeroStats, time.Now(), rng)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != 1 {
			t.Fatalf("want the only item, got ID %d", got.ID)
		}
	}
}

func TestQuestionWeight_NoveltyBeatsHighPerformance(t *testing.T) {
	now := time.Now()
	unseen := QuestionStats{}
	wellKnown := QuestionStats{TimesAsked: 10, TimesCorrect: 9}

	if QuestionWeight(unseen, now) <= QuestionWeight(wellKnown, now) {
		t.Fatalf("unseen weight %v should exceed well-known weight %v",
			QuestionWeight(unseen, now), QuestionWeight(wellKnown, now))
	}
}

func TestQuestionWeight_Floor(t *testing.T) {
	now := time.Now()
	// Strongest suppression: high success rate and a top quality mark.
	st := QuestionStats{TimesAsked: 20, TimesCorrect: 20, LastQuality: 5}
	if w := QuestionWeight(st, now); w < minWeight {
		t.Fatalf("weight %v below floor %v", w, minWeight)
	}
}

func TestQuestionWeight_RecencyRaises(t *testing.T) {
	now := time.Now()
	old := now.AddDate(0, 0, -40)
	recent := now.Add(-time.Hour)

	stale := QuestionStats{TimesAsked: 5, TimesCorrect: 3, LastReviewed: &old}
	fresh := QuestionStats{TimesAsked: 5, TimesCorrect: 3, LastReviewed: &recent}
	if QuestionWeight(stale, now) <= QuestionWeight(fresh, now) {
		t.Fatal("a long-unreviewed question should outweigh a fresh one")
	}
}

func TestSelectQuestion_EveryItemReachable(t *testing.T) {
	now := time.Now()
	rng := rand.New(rand.NewSource(7))
	items := qaItems(4)

	// Item 1 unseen, the rest drilled and well-known.
	statsFor := func(id int64) QuestionStats {
		if id == 1 {
			return QuestionStats{}
		}
		return QuestionStats{TimesAsked: 10, TimesCorrect: 9, LastQuality: 5}
	}

	seen := map[int64]int{}
	for i := 0; i < 2000; i++ {
		got, err := SelectQuestion(items, statsFor, now, rng)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		seen[got.ID]++
	}

	for _, item := range items {
		if seen[item.ID] == 0 {
			t.Fatalf("item %d was never selected", item.ID)
		}
	}
	// The unseen item carries the bulk of the weight.
	if seen[1] <= seen[2]+seen[3]+seen[4] {
		t.Fatalf("unseen item should dominate selection, counts: %v", seen)
	}
}

func TestSelectQuestion_SmallSetUniform(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	items := qaItems(3)

	// Stats that would heavily skew a weighted draw must not matter here.
	statsFor := func(id int64) QuestionStats {
		if id == 1 {
			return QuestionStats{}
		}
		return QuestionStats{TimesAsked: 10, TimesCorrect: 10, LastQuality: 5}
	}

	seen := map[int64]int{}
	for i := 0; i < 3000; i++ {
		got, err := SelectQuestion(items, statsFor, time.Now(), rng)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		seen[got.ID]++
	}
	for _, item := range items {
		if seen[item.ID] < 600 {
			t.Fatalf("uniform draw looks skewed: %v", seen)
		}
	}
}
