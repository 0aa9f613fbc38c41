package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ivsol/smartquiz-bot/internal/insights"
	"github.com/ivsol/smartquiz-bot/internal/quiz"
	"github.com/ivsol/smartquiz-bot/internal/store"
)

// Router wires Telegram updates to command handlers and answer checking.
type Router struct {
	bot      *tgbotapi.BotAPI
	log      *zap.Logger
	repo     store.Repo
	engine   *quiz.Engine
	insights *insights.Service
}

// NewRouter creates a new Telegram router.
func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, repo store.Repo, engine *quiz.Engine, ins *insights.Service) *Router {
	return &Router{
		bot:      bot,
		log:      log,
		repo:     repo,
		engine:   engine,
		insights: ins,
	}
}

// HandleUpdate routes a single update to the appropriate handler. The
// context is the application run context; quiz loops started here stop
// with it.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	msg := upd.Message
	chatID := msg.Chat.ID
	userID := msg.From.ID

	switch msg.Command() {
	case "start":
		r.handleStart(ctx, userID, chatID)
	case "help":
		r.handleHelp(chatID)
	case "add_qa":
		r.handleAddQA(ctx, userID, chatID, msg.CommandArguments())
	case "my_qa":
		r.handleMyQA(ctx, userID, chatID)
	case "remove_qa":
		r.handleRemoveQA(ctx, userID, chatID, msg.CommandArguments())
	case "clear_qa":
		r.handleClearQA(ctx, userID, chatID)
	case "start_quiz":
		r.handleStartQuiz(ctx, userID, chatID)
	case "stop_quiz":
		r.handleStopQuiz(ctx, userID, chatID)
	case "status":
		r.handleStatus(ctx, userID, chatID)
	case "settings":
		r.handleSettings(ctx, userID, chatID)
	case "set_daily":
		r.handleSetDaily(ctx, userID, chatID, msg.CommandArguments())
	case "set_interval":
		r.handleSetInterval(ctx, userID, chatID, msg.CommandArguments())
	case "set_schedule":
		r.handleSetSchedule(ctx, userID, chatID)
	case "set_day":
		r.handleSetDay(ctx, userID, chatID, msg.CommandArguments())
	case "stats":
		r.handleStats(ctx, userID, chatID)
	case "question_stats":
		r.handleQuestionStats(ctx, userID, chatID)
	case "":
		// Free-form text: treated as an answer to the pending question.
		r.handleAnswer(ctx, userID, chatID, msg.Text)
	default:
		r.sendText(chatID, "Unknown command. See /help.")
	}
}

func (r *Router) sendText(chatID int64, text string) {
	if _, err := r.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.log.Error("send failed", zap.Error(err), zap.Int64("chatID", chatID))
	}
}

func (r *Router) sendWithMenu(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = mainMenuKeyboard()
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Error("send failed", zap.Error(err), zap.Int64("chatID", chatID))
	}
}
