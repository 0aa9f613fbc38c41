package domain

import (
	"math/rand"
	"time"
)

// Accuracy brackets for interval adjustment: weak answers shorten the wait,
// strong answers lengthen it.
const (
	adjustStruggling = 0.7 // accuracy < 0.5
	adjustSteady     = 1.0 // 0.5 <= accuracy < 0.8
	adjustConfident  = 1.3 // accuracy >= 0.8
)

// NextInterval computes the wait before the next question. The result is
// uniformly sampled from the user's configured [min, max] minute bounds
// (in seconds), scaled by the accuracy adjustment. A user with no answer
// history gets half-bounds for a faster first cadence.
func NextInterval(s UserSettings, agg AggregateStats, rng *rand.Rand) time.Duration {
	baseMin := s.MinIntervalMin * 60
	baseMax := s.MaxIntervalMin * 60

	if agg.TotalAnswered == 0 {
		return time.Duration(randBetween(rng, baseMin/2, baseMax/2)) * time.Second
	}

	adjustment := adjustSteady
	switch acc := agg.Accuracy(); {
	case acc < 0.5:
		adjustment = adjustStruggling
	case acc < 0.8:
		adjustment = adjustSteady
	default:
		adjustment = adjustConfident
	}

	lo := int(float64(baseMin) * adjustment)
	hi := int(float64(baseMax) * adjustment)
	return time.Duration(randBetween(rng, lo, hi)) * time.Second
}

// randBetween returns a uniform integer in [lo, hi].
func randBetween(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}
