package bot

import (
	"context"
	"errors"
	"fmt"
	"slices"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"bookclub_bot/internal/engine"
	"bookclub_bot/internal/model"
)

const progressLogLimit = 5

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to the Book Club bot!

I keep track of what the club is reading.

Quick start:
1. /books to see what is available
2. /pick to let chance choose the next book
3. /progress <0-100> to log how far you got

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Reading:
/current - the book being read and its progress
/books - available books
/pick - pick a random available book
/choose <title> - start a specific book
/resume - continue the book the list marks as currently reading
/change - put the current book back and pick another
/progress <0-100> - update progress
/finish - mark the current book finished
/history - books in progress and finished

Discussion:
/ask <question> - add a discussion question
/questions - list questions
/answer <n> - mark question n answered (again to undo)
/rmquestion <n> - remove question n

Maintenance:
/refresh - reload the reading list
/reset - clear the current book and questions
/export - download the session as JSON`)
}

func (b *Bot) handleCurrent(ctx context.Context, chatID int64) {
	cur, ok := b.club.Current()
	if !ok {
		b.replyWithKeyboard(chatID, errorText(engine.ErrNoActiveSession), pickKeyboard())
		return
	}

	entries, err := b.club.ProgressLog(ctx, progressLogLimit)
	if err != nil {
		b.log.Error("list progress", "title", cur.Title, "error", err)
	}
	b.replyWithKeyboard(chatID, FormatSession(cur, entries), finishKeyboard())
}

func (b *Bot) handleBooks(chatID int64) {
	snap := b.club.Snapshot()
	if !snap.Loaded {
		b.reply(chatID, "The reading list has not been loaded yet. Try /refresh.")
		return
	}
	b.replyWithKeyboard(chatID, FormatBookList(snap.Available), bookKeyboard(snap.Available))
}

func (b *Bot) handlePick(ctx context.Context, chatID int64) {
	s, err := b.club.PickRandom(ctx)
	if err != nil {
		b.reply(chatID, errorText(err))
		return
	}
	b.replyWithKeyboard(chatID, "🎲 The club is now reading:\n\n"+FormatSession(s, nil), finishKeyboard())
}

func (b *Bot) handleChoose(ctx context.Context, chatID int64, args string) {
	title, err := ParseTitleArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /choose <title>")
		return
	}
	b.choose(ctx, chatID, b.club.ResolveTitle(title))
}

func (b *Bot) choose(ctx context.Context, chatID int64, title string) {
	s, err := b.club.PickByTitle(ctx, title)
	if errors.Is(err, engine.ErrNotFound) {
		b.reply(chatID, fmt.Sprintf("%q is not on the available list. Use /books to see it.", title))
		return
	}
	if err != nil {
		b.reply(chatID, errorText(err))
		return
	}
	b.replyWithKeyboard(chatID, "📚 The club is now reading:\n\n"+FormatSession(s, nil), finishKeyboard())
}

func (b *Bot) handleResume(ctx context.Context, chatID int64) {
	s, err := b.club.Resume(ctx)
	if errors.Is(err, engine.ErrNotFound) {
		b.reply(chatID, "The reading list has no book marked as currently reading.")
		return
	}
	if err != nil {
		b.reply(chatID, errorText(err))
		return
	}
	b.reply(chatID, "Resumed:\n\n"+FormatSession(s, nil))
}

func (b *Bot) handleChange(ctx context.Context, chatID int64) {
	prev, hadCurrent := b.club.Current()
	s, err := b.club.ChangeBook(ctx)
	if err != nil {
		b.reply(chatID, errorText(err))
		return
	}
	text := "🔄 Switched books."
	if hadCurrent && prev.Title != s.Title && b.isAvailable(prev.Title) {
		text += fmt.Sprintf(" %q went back on the list.", prev.Title)
	}
	b.replyWithKeyboard(chatID, text+"\n\n"+FormatSession(s, nil), finishKeyboard())
}

func (b *Bot) isAvailable(title string) bool {
	return slices.ContainsFunc(b.club.Snapshot().Available, func(rec model.BookRecord) bool {
		return rec.Title == title
	})
}

func (b *Bot) handleProgress(ctx context.Context, chatID int64, args string) {
	percent, err := ParseProgressArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /progress <0-100>")
		return
	}

	s, err := b.club.UpdateProgress(ctx, percent)
	if err != nil {
		b.reply(chatID, errorText(err))
		return
	}
	if s.Finished {
		b.replyWithKeyboard(chatID, FormatFinished(s), pickKeyboard())
		return
	}
	b.reply(chatID, fmt.Sprintf("Progress on %q: %s", s.Title, progressBar(s.ProgressPercent)))
}

func (b *Bot) handleFinish(ctx context.Context, chatID int64) {
	s, err := b.club.MarkFinished(ctx)
	if err != nil {
		b.reply(chatID, errorText(err))
		return
	}
	b.replyWithKeyboard(chatID, FormatFinished(s), pickKeyboard())
}

func (b *Bot) handleHistory(chatID int64) {
	reading, finished := b.club.History()
	b.reply(chatID, FormatHistory(reading, finished, b.club.FinishedAt))
}

func (b *Bot) handleAsk(ctx context.Context, chatID int64, args string) {
	q, err := b.club.AddQuestion(ctx, args)
	if err != nil {
		b.reply(chatID, errorText(err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Question #%d added: %s", len(b.club.Questions()), q.Text))
}

func (b *Bot) handleQuestions(chatID int64) {
	qs := b.club.Questions()
	b.replyWithKeyboard(chatID, FormatQuestions(qs), questionKeyboard(qs))
}

func (b *Bot) handleAnswer(ctx context.Context, chatID int64, args string) {
	ref, err := ParseRefArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /answer <n>")
		return
	}
	b.toggleAnswered(ctx, chatID, ref)
}

func (b *Bot) toggleAnswered(ctx context.Context, chatID int64, ref string) {
	q, err := b.club.ToggleAnswered(ctx, ref)
	if err != nil {
		b.reply(chatID, errorText(err))
		return
	}
	mark := "answered"
	if !q.Answered {
		mark = "open again"
	}
	b.reply(chatID, fmt.Sprintf("Marked %s: %s", mark, q.Text))
}

func (b *Bot) handleRmQuestion(ctx context.Context, chatID int64, args string) {
	ref, err := ParseRefArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /rmquestion <n>")
		return
	}
	q, err := b.club.RemoveQuestion(ctx, ref)
	if err != nil {
		b.reply(chatID, errorText(err))
		return
	}
	b.reply(chatID, "Removed question: "+q.Text)
}

func (b *Bot) handleRefresh(ctx context.Context, chatID int64) {
	cat, err := b.club.Reload(ctx)
	if err != nil {
		b.reply(chatID, errorText(err))
		return
	}
	b.reply(chatID, "Reading list reloaded.\n"+FormatCounts(cat))
}

func (b *Bot) handleReset(_ context.Context, chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "Reset the session? The current book and all discussion questions will be cleared. Finished books are kept.")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Yes, reset", cbReset+":confirm"),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", cbNoop+":0"),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send reset confirmation", "error", err)
	}
}

func (b *Bot) resetSession(ctx context.Context, chatID int64) {
	cat, err := b.club.Reset(ctx)
	if err != nil && !errors.Is(err, engine.ErrDataSourceUnavailable) {
		b.reply(chatID, errorText(err))
		return
	}
	text := "Session reset.\n" + FormatCounts(cat)
	if err != nil {
		text += "\n\n" + errorText(err)
	}
	b.reply(chatID, text)
}

func (b *Bot) handleExport(chatID int64) {
	data, err := b.club.ExportJSON()
	if err != nil {
		b.reply(chatID, errorText(err))
		return
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: "bookclub-export.json", Bytes: data})
	doc.Caption = "Book club export"
	if _, err := b.api.Send(doc); err != nil {
		b.log.Error("send export", "chat_id", chatID, "error", err)
		b.reply(chatID, "Could not send the export file.")
	}
}

// errorText maps lifecycle errors to replies.
func errorText(err error) string {
	switch {
	case errors.Is(err, engine.ErrEmptyCatalog):
		return "No books are available to pick. Add some to the reading list and /refresh."
	case errors.Is(err, engine.ErrNoActiveSession):
		return "Nothing is being read right now. Use /pick or /books to start a book."
	case errors.Is(err, engine.ErrOutOfRange):
		return "Progress must be between 0 and 100."
	case errors.Is(err, engine.ErrEmptyQuestion):
		return "Usage: /ask <question>"
	case errors.Is(err, engine.ErrQuestionNotFound):
		return "Question not found. Use /questions to see the numbers."
	case errors.Is(err, engine.ErrNotFound):
		return "Book not found."
	case errors.Is(err, engine.ErrDataSourceUnavailable):
		return fmt.Sprintf("Could not load the reading list (%v). The last loaded list is still in use.", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
