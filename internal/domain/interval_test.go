package domain

import (
	"math/rand"
	"testing"
	"time"
)

func intervalSettings(minM, maxM int) UserSettings {
	s := DefaultSettings(time.Now())
	s.MinIntervalMin = minM
	s.MaxIntervalMin = maxM
	return s
}

func TestNextInterval_NoHistoryUsesHalfBounds(t *testing.T) {
	s := intervalSettings(30, 120)
	rng := rand.New(rand.NewSource(1))

	lo := time.Duration(30*60/2) * time.Second
	hi := time.Duration(120*60/2) * time.Second
	for i := 0; i < 200; i++ {
		got := NextInterval(s, AggregateStats{}, rng)
		if got < lo || got > hi {
			t.Fatalf("interval %v outside [%v, %v]", got, lo, hi)
		}
	}
}

func TestNextInterval_HighAccuracyLengthens(t *testing.T) {
	s := intervalSettings(30, 120)
	agg := AggregateStats{TotalAnswered: 10, CorrectAnswers: 9} // accuracy 0.9
	rng := rand.New(rand.NewSource(2))

	// 30*60*1.3 = 2340s, 120*60*1.3 = 9360s
	lo := 2340 * time.Second
	hi := 9360 * time.Second
	for i := 0; i < 200; i++ {
		got := NextInterval(s, agg, rng)
		if got < lo || got > hi {
			t.Fatalf("interval %v outside [%v, %v]", got, lo, hi)
		}
	}
}

func TestNextInterval_LowAccuracyShortens(t *testing.T) {
	s := intervalSettings(30, 120)
	agg := AggregateStats{TotalAnswered: 10, CorrectAnswers: 4} // accuracy 0.4
	rng := rand.New(rand.NewSource(3))

	lo := time.Duration(float64(30*60)*0.7) * time.Second
	hi := time.Duration(float64(120*60)*0.7) * time.Second
	for i := 0; i < 200; i++ {
		got := NextInterval(s, agg, rng)
		if got < lo || got > hi {
			t.Fatalf("interval %v outside [%v, %v]", got, lo, hi)
		}
	}
}

func TestNextInterval_MidAccuracyUnchanged(t *testing.T) {
	s := intervalSettings(30, 120)
	agg := AggregateStats{TotalAnswered: 10, CorrectAnswers: 6} // accuracy 0.6
	rng := rand.New(rand.NewSource(4))

	lo := 30 * time.Minute
	hi := 120 * time.Minute
	for i := 0; i < 200; i++ {
		got := NextInterval(s, agg, rng)
		if got < lo || got > hi {
			t.Fatalf("interval %v outside [%v, %v]", got, lo, hi)
		}
	}
}

func TestAccuracy(t *testing.T) {
	if got := (AggregateStats{}).Accuracy(); got != 0 {
		t.Fatalf("want 0 accuracy with no answers, got %v", got)
	}
	agg := AggregateStats{TotalAnswered: 4, CorrectAnswers: 3}
	if got := agg.Accuracy(); got != 0.75 {
		t.Fatalf("want 0.75, got %v", got)
	}
}
