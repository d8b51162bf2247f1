// Package presence publishes what the club is reading right now.
package presence

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sink receives status updates.
type Sink interface {
	Report(statusLine, detailLine string, percent *int) error
}

// Log writes status updates to a logger.
type Log struct {
	log *slog.Logger
}

// NewLog returns a Sink that logs each update at info level.
func NewLog(log *slog.Logger) *Log {
	return &Log{log: log}
}

// Report logs the update.
func (l *Log) Report(statusLine, detailLine string, percent *int) error {
	attrs := []any{"status", statusLine, "detail", detailLine}
	if percent != nil {
		attrs = append(attrs, "percent", *percent)
	}
	l.log.Info("presence", attrs...)
	return nil
}

// Sender is the subset of the Telegram API used by the Telegram sink.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram keeps one status message in a chat up to date. The first
// report posts it; later reports edit it in place.
type Telegram struct {
	api    Sender
	chatID int64

	mu    sync.Mutex
	msgID int
}

// NewTelegram returns a Sink that posts to chatID.
func NewTelegram(api Sender, chatID int64) *Telegram {
	return &Telegram{api: api, chatID: chatID}
}

// Report posts or edits the status message.
func (t *Telegram) Report(statusLine, detailLine string, percent *int) error {
	text := FormatStatus(statusLine, detailLine, percent)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.msgID != 0 {
		edit := tgbotapi.NewEditMessageText(t.chatID, t.msgID, text)
		if _, err := t.api.Send(edit); err == nil {
			return nil
		}
		// The message may have been deleted. Post a fresh one.
		t.msgID = 0
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableNotification = true
	sent, err := t.api.Send(msg)
	if err != nil {
		return fmt.Errorf("send status: %w", err)
	}
	t.msgID = sent.MessageID
	return nil
}

// FormatStatus renders a status update as a short text block with a
// progress bar when percent is set.
func FormatStatus(statusLine, detailLine string, percent *int) string {
	var sb strings.Builder
	sb.WriteString("📖 ")
	sb.WriteString(statusLine)
	if detailLine != "" {
		sb.WriteString("\n")
		sb.WriteString(detailLine)
	}
	if percent != nil {
		sb.WriteString("\n")
		sb.WriteString(ProgressBar(*percent, 10))
	}
	return sb.String()
}

// ProgressBar draws percent as a bar of width cells.
func ProgressBar(percent, width int) string {
	percent = max(0, min(100, percent))
	filled := percent * width / 100
	return fmt.Sprintf("[%s%s] %d%%", strings.Repeat("█", filled), strings.Repeat("░", width-filled), percent)
}

// Multi fans a report out to several sinks.
type Multi []Sink

// Report sends the update to every sink and joins their errors.
func (m Multi) Report(statusLine, detailLine string, percent *int) error {
	var errs []error
	for _, s := range m {
		if err := s.Report(statusLine, detailLine, percent); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
