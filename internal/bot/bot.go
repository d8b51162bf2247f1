package bot

import (
	"context"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"bookclub_bot/internal/club"
	"bookclub_bot/internal/config"
)

// API is the subset of the Telegram Bot API the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the Telegram front end of a book club.
type Bot struct {
	api  API
	club *club.Club
	cfg  *config.Config
	log  *slog.Logger
}

// New creates a Bot on top of an authenticated Telegram API client.
func New(api API, c *club.Club, cfg *config.Config, log *slog.Logger) *Bot {
	return &Bot{
		api:  api,
		club: c,
		cfg:  cfg,
		log:  log,
	}
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if cb := update.CallbackQuery; cb != nil {
		if cb.From == nil || cb.Message == nil {
			return
		}
		if !b.cfg.IsUserAllowed(cb.From.ID) {
			b.ack(cb.ID, "Access denied.")
			return
		}
		b.handleCallback(ctx, cb)
		return
	}
	msg := update.Message
	if msg == nil || !msg.IsCommand() || msg.From == nil {
		return
	}
	if !b.cfg.IsUserAllowed(msg.From.ID) {
		b.reply(msg.Chat.ID, "Access denied.")
		return
	}
	b.handleCommand(ctx, msg)
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) replyWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if len(kb.InlineKeyboard) > 0 {
		msg.ReplyMarkup = kb
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case "current":
		b.handleCurrent(ctx, chatID)
	case "books":
		b.handleBooks(chatID)
	case cmdPick:
		b.handlePick(ctx, chatID)
	case cmdChoose:
		b.handleChoose(ctx, chatID, args)
	case "resume":
		b.handleResume(ctx, chatID)
	case "change":
		b.handleChange(ctx, chatID)
	case "progress":
		b.handleProgress(ctx, chatID, args)
	case cmdFinish:
		b.handleFinish(ctx, chatID)
	case "history":
		b.handleHistory(chatID)
	case "ask":
		b.handleAsk(ctx, chatID, args)
	case "questions":
		b.handleQuestions(chatID)
	case cmdAnswer:
		b.handleAnswer(ctx, chatID, args)
	case "rmquestion":
		b.handleRmQuestion(ctx, chatID, args)
	case "refresh":
		b.handleRefresh(ctx, chatID)
	case "reset":
		b.handleReset(ctx, chatID)
	case "export":
		b.handleExport(chatID)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}
