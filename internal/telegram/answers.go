package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Quality marks fed into the selection weighting: quick correct answers
// score highest, wrong answers lowest.
const (
	qualityQuickCorrect = 5 // correct in under 30 seconds
	qualityCorrect      = 3
	qualityWrong        = 1

	quickAnswerSec = 30
)

// handleAnswer checks free-form text against the pending question. A
// correct answer clears it; a wrong one leaves it in place for a retry.
func (r *Router) handleAnswer(ctx context.Context, userID, chatID int64, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	current, err := r.repo.GetCurrentQuestion(ctx, userID)
	if err != nil {
		r.log.Error("read current question failed", zap.Error(err), zap.Int64("userID", userID))
		return
	}
	if current == nil {
		if r.engine.IsRunning(userID) {
			r.sendText(chatID, noPendingHint)
		}
		return
	}

	correct := strings.EqualFold(text, strings.TrimSpace(current.Item.Answer))
	responseSec := time.Since(current.AskedAt).Seconds()

	quality := qualityWrong
	if correct {
		quality = qualityCorrect
		if responseSec < quickAnswerSec {
			quality = qualityQuickCorrect
		}
	}

	if err := r.repo.RecordAnswer(ctx, userID, current.Item.ID, correct, responseSec, quality, time.Now()); err != nil {
		r.log.Error("record answer failed", zap.Error(err), zap.Int64("userID", userID))
	}

	if correct {
		if err := r.repo.RemoveCurrentQuestion(ctx, userID); err != nil {
			r.log.Error("remove current question failed", zap.Error(err), zap.Int64("userID", userID))
		}
		r.sendText(chatID, fmt.Sprintf(
			"✅ Correct! 🎉\n\n"+
				"Question: %s\n"+
				"Your answer: %s\n"+
				"⏱ Time: %.1f sec\n\n"+
				"Great work! Next question soon.",
			current.Item.Question, text, responseSec,
		))
		return
	}

	r.sendText(chatID, fmt.Sprintf(
		"❌ Not quite.\n\n"+
			"Question: %s\n"+
			"Your answer: %s\n\n"+
			"Try again! 💪",
		current.Item.Question, text,
	))
}
