package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bookclub_bot/internal/bot"
	"bookclub_bot/internal/engine"
)

// Sender is the interface for sending Telegram messages.
type Sender interface {
	SendMessage(chatID int64, text string)
}

// Reloader refreshes the catalog from the reading list.
type Reloader interface {
	Reload(ctx context.Context) (engine.Catalog, error)
}

// Scheduler periodically reloads the catalog and announces books that
// were added to the reading list since the previous reload.
type Scheduler struct {
	club   Reloader
	sender Sender
	chatID int64
	log    *slog.Logger
	tick   time.Duration

	known map[string]struct{}
}

// New creates a Scheduler. Announcements go to chatID through sender; a
// nil sender or a zero chatID disables them.
func New(club Reloader, sender Sender, chatID int64, log *slog.Logger) *Scheduler {
	return &Scheduler{
		club:   club,
		sender: sender,
		chatID: chatID,
		log:    log,
		tick:   15 * time.Minute,
	}
}

// SetTickInterval overrides the default 15-minute reload interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.reload(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reload(ctx)
		}
	}
}

func (s *Scheduler) reload(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	cat, err := s.club.Reload(ctx)
	if err != nil {
		if errors.Is(err, engine.ErrDataSourceUnavailable) {
			s.log.Warn("reading list unavailable, keeping catalog", "error", err)
		} else {
			s.log.Error("reload catalog", "error", err)
		}
		return
	}

	added := s.track(cat)
	if len(added) == 0 || s.sender == nil || s.chatID == 0 {
		return
	}
	s.sender.SendMessage(s.chatID, bot.FormatNewBooks(added))
	s.log.Info("announced new books", "count", len(added))
}

// track records the available titles and returns those not seen on an
// earlier reload. The first reload only records.
func (s *Scheduler) track(cat engine.Catalog) []string {
	first := s.known == nil
	if first {
		s.known = make(map[string]struct{}, len(cat.Available))
	}

	var added []string
	for _, rec := range cat.Available {
		if _, ok := s.known[rec.Title]; ok {
			continue
		}
		s.known[rec.Title] = struct{}{}
		if !first {
			added = append(added, rec.Title)
		}
	}
	return added
}
