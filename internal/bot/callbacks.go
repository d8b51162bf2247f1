package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cmdPick   = "pick"
	cmdChoose = "choose"
	cmdFinish = "finish"
	cmdAnswer = "answer"

	cbReset = "reset"
	cbNoop  = "noop"
)

func (b *Bot) ack(callbackID, text string) {
	if _, err := b.api.Send(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.log.Error("send callback ack", "error", err)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	b.ack(cb.ID, "")

	action, arg, ok := strings.Cut(cb.Data, ":")
	if !ok || arg == "" {
		return
	}

	b.log.Info("callback",
		"action", action,
		"arg", arg,
		"chat_id", chatID,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	switch action {
	case cmdChoose:
		title, found := titleByKey(b.club.Snapshot().Available, arg)
		if !found {
			b.reply(chatID, "That book is no longer available. Use /books for the current list.")
			return
		}
		b.choose(ctx, chatID, title)
	case cmdPick:
		b.handlePick(ctx, chatID)
	case cmdFinish:
		b.handleFinish(ctx, chatID)
	case cmdAnswer:
		b.toggleAnswered(ctx, chatID, arg)
	case cbReset:
		b.resetSession(ctx, chatID)
	}
}

func finishKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Finished", cmdFinish+":0"),
		),
	)
}

func pickKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎲 Pick a book", cmdPick+":0"),
		),
	)
}
