package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

const (
	startText = "👋 Welcome to the smart quiz!\n\n" +
		"I help you memorize things with spaced repetition and an adaptive " +
		"question schedule.\n\n" +
		"Add question/answer pairs, start the quiz, and I will ping you " +
		"with questions at smart moments within your daily schedule.\n\n" +
		"See /help for all commands."

	helpText = "Command reference:\n\n" +
		"Questions:\n" +
		"• /add_qa Question || Answer — add a pair\n" +
		"• /my_qa — list your questions\n" +
		"• /remove_qa <id> — delete one\n" +
		"• /clear_qa — delete all\n\n" +
		"Quiz control:\n" +
		"• /start_quiz — start\n" +
		"• /stop_quiz — stop\n" +
		"• /status — current quiz state\n" +
		"• /settings — current settings\n\n" +
		"Settings:\n" +
		"• /set_daily <n> — questions per day\n" +
		"• /set_interval <min> <max> — minutes between questions\n" +
		"• /set_schedule — show weekly schedule\n" +
		"• /set_day <day> <start> <end> <on|off> — adjust one day\n\n" +
		"Statistics:\n" +
		"• /stats — overall statistics\n" +
		"• /question_stats — per-question breakdown"

	addQAUsage = "❌ Wrong format!\n\n" +
		"Use: /add_qa Question || Answer\n\n" +
		"Example:\n" +
		"/add_qa Capital of France || Paris"

	noPendingHint = "💡 I'll ask the next question at a random moment inside " +
		"your interval.\n" +
		"Meanwhile you can add more questions or check /stats!"
)

// mainMenuKeyboard is the persistent reply keyboard under the chat input.
func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/start_quiz"),
			tgbotapi.NewKeyboardButton("/stop_quiz"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/status"),
			tgbotapi.NewKeyboardButton("/stats"),
			tgbotapi.NewKeyboardButton("/settings"),
		),
	)
}
