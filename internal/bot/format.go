package bot

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"bookclub_bot/internal/engine"
	"bookclub_bot/internal/model"
	"bookclub_bot/internal/presence"
)

const (
	dateLayout     = "2006-01-02"
	timeLayout     = "2006-01-02 15:04 UTC"
	barWidth       = 10
	maxBookButtons = 30
)

// FormatSession formats the book being read with its progress and the
// most recent progress entries, newest first.
func FormatSession(s model.ReadingSession, entries []model.ProgressEntry) string {
	var b strings.Builder
	b.WriteString(bookLine(s.BookRecord))
	b.WriteString("\n")
	if s.Link != "" {
		b.WriteString(s.Link)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Started: %s\n", s.StartDate.UTC().Format(dateLayout))
	if s.EndDate != nil {
		fmt.Fprintf(&b, "Finished: %s\n", s.EndDate.UTC().Format(dateLayout))
	}
	b.WriteString(progressBar(s.ProgressPercent))

	if len(entries) > 0 {
		b.WriteString("\n\nRecent updates:")
		for _, e := range entries {
			fmt.Fprintf(&b, "\n  %s  %d%%", e.RecordedAt.UTC().Format(timeLayout), e.Percent)
		}
	}
	return b.String()
}

// FormatFinished announces a finished book.
func FormatFinished(s model.ReadingSession) string {
	return fmt.Sprintf("🎉 Finished %s!\n\nUse /pick for the next book.", bookLine(s.BookRecord))
}

// FormatBookList formats the available books in catalog order.
func FormatBookList(books []model.BookRecord) string {
	if len(books) == 0 {
		return "No books are available. Add some to the reading list and /refresh."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Available books (%d):\n", len(books))
	for i, rec := range books {
		fmt.Fprintf(&b, "\n%d. %s", i+1, bookLine(rec))
	}
	return b.String()
}

// FormatHistory lists the books in progress and the finished ones. The
// finish date is shown for books finished in this club.
func FormatHistory(reading, finished []model.BookRecord, finishedAt func(string) (time.Time, bool)) string {
	if len(reading) == 0 && len(finished) == 0 {
		return "No reading history yet."
	}
	var b strings.Builder
	if len(reading) > 0 {
		b.WriteString("Currently reading:\n")
		for _, rec := range reading {
			fmt.Fprintf(&b, "  %s\n", bookLine(rec))
		}
	}
	if len(finished) > 0 {
		if len(reading) > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Finished:\n")
		for _, rec := range finished {
			fmt.Fprintf(&b, "  %s", bookLine(rec))
			if at, ok := finishedAt(rec.Title); ok {
				fmt.Fprintf(&b, " (%s)", at.UTC().Format(dateLayout))
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatQuestions lists discussion questions numbered from 1.
func FormatQuestions(qs []model.DiscussionQuestion) string {
	if len(qs) == 0 {
		return "No discussion questions yet. Use /ask <question> to add one."
	}
	var b strings.Builder
	b.WriteString("Discussion questions:\n")
	for i, q := range qs {
		mark := "⬜"
		if q.Answered {
			mark = "✅"
		}
		fmt.Fprintf(&b, "\n%d. %s %s", i+1, mark, q.Text)
	}
	return b.String()
}

// FormatNewBooks announces titles added to the reading list.
func FormatNewBooks(titles []string) string {
	var b strings.Builder
	if len(titles) == 1 {
		b.WriteString("📚 New book on the reading list:\n")
	} else {
		fmt.Fprintf(&b, "📚 %d new books on the reading list:\n", len(titles))
	}
	for _, t := range titles {
		fmt.Fprintf(&b, "\n• %s", t)
	}
	return b.String()
}

// FormatCounts summarizes the catalog buckets.
func FormatCounts(cat engine.Catalog) string {
	return fmt.Sprintf("Available: %d, currently reading: %d, finished: %d",
		len(cat.Available), len(cat.CurrentlyReading), len(cat.Finished))
}

// TitleKey is a short stable key for a title that fits in callback data.
func TitleKey(title string) string {
	sum := sha256.Sum256([]byte(title))
	return hex.EncodeToString(sum[:6])
}

func titleByKey(books []model.BookRecord, key string) (string, bool) {
	for _, rec := range books {
		if TitleKey(rec.Title) == key {
			return rec.Title, true
		}
	}
	return "", false
}

func bookKeyboard(books []model.BookRecord) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, rec := range books {
		if i == maxBookButtons {
			break
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(truncate(rec.Title, 40), cmdChoose+":"+TitleKey(rec.Title)),
		))
	}
	if len(books) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎲 Random", cmdPick+":0"),
		))
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func questionKeyboard(qs []model.DiscussionQuestion) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for i, q := range qs {
		label := fmt.Sprintf("%d ✅", i+1)
		if q.Answered {
			label = fmt.Sprintf("%d ↩️", i+1)
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cmdAnswer+":"+q.ID))
		if len(row) == 4 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func bookLine(rec model.BookRecord) string {
	if rec.Author == "" {
		return fmt.Sprintf("%q", rec.Title)
	}
	return fmt.Sprintf("%q by %s", rec.Title, rec.Author)
}

func progressBar(percent int) string {
	return presence.ProgressBar(percent, barWidth)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
