package domain

import (
	"errors"
	"math/rand"
	"time"
)

// ErrNoQuestions is returned when a selection is requested on an empty set.
var ErrNoQuestions = errors.New("no questions available")

// minWeight keeps every item selectable regardless of how well-known it is.
const minWeight = 0.1

// StatsFunc resolves the review history for a question ID. Unknown IDs
// must return the zero QuestionStats.
type StatsFunc func(questionID int64) QuestionStats

// QuestionWeight scores one item for weighted selection. Unseen questions,
// low success rates, long-unreviewed questions and poor last-quality marks
// all raise the weight; well-known questions get suppressed.
func QuestionWeight(st QuestionStats, now time.Time) float64 {
	weight := 1.0

	if st.TimesAsked == 0 {
		weight *= 3.0
	}

	if st.TimesAsked > 0 {
		successRate := float64(st.TimesCorrect) / float64(st.TimesAsked)
		switch {
		case successRate < 0.3:
			weight *= 2.5
		case successRate < 0.7:
			weight *= 1.5
		default:
			weight *= 0.7
		}
	}

	if st.LastReviewed != nil {
		daysSince := int(now.Sub(*st.LastReviewed).Hours() / 24)
		switch {
		case daysSince > 30:
			weight *= 3.0
		case daysSince > 7:
			weight *= 2.0
		case daysSince > 1:
			weight *= 1.5
		}
	}

	if st.LastQuality <= 2 {
		weight *= 2.0
	} else if st.LastQuality >= 4 {
		weight *= 0.6
	}

	if weight < minWeight {
		weight = minWeight
	}
	return weight
}

// SelectQuestion picks one item. Small sets are drawn uniformly; weighting
// would overfit to scarce statistics there. Larger sets use a cumulative
// prefix-sum draw over QuestionWeight scores, so a single pass suffices no
// matter how skewed the weights are.
func SelectQuestion(items []QAItem, statsFor StatsFunc, now time.Time, rng *rand.Rand) (QAItem, error) {
	if len(items) == 0 {
		return QAItem{}, ErrNoQuestions
	}

	if len(items) <= 3 {
		return items[rng.Intn(len(items))], nil
	}

	weights := make([]float64, len(items))
	total := 0.0
	for i, item := range items {
		weights[i] = QuestionWeight(statsFor(item.ID), now)
		total += weights[i]
	}

	// Unreachable given the weight floor, but guarded anyway.
	if total == 0 {
		return items[rng.Intn(len(items))], nil
	}

	r := rng.Float64() * total
	cum := 0.0
	for i, w := range weights {
		cum += w
		if r < cum {
			return items[i], nil
		}
	}
	// Float rounding can leave r just past the final prefix sum.
	return items[len(items)-1], nil
}
