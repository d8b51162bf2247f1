// Package club runs one book club session: it serializes access to the
// lifecycle engine, keeps its state in storage and refreshes the catalog
// from the reading list source.
package club

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"bookclub_bot/internal/engine"
	"bookclub_bot/internal/model"
	"bookclub_bot/internal/source"
	"bookclub_bot/internal/storage"
)

// Storage keys.
const (
	KeyCurrentBook    = "current_book"
	KeyQuestions      = "questions"
	KeyFinishedTitles = "finished_titles"
	KeyBooks          = "books"
)

// Club is safe for concurrent use.
type Club struct {
	mu     sync.Mutex
	engine *engine.Engine
	store  storage.Storage
	src    source.Source
	log    *slog.Logger
	now    func() time.Time
}

// Option configures a Club.
type Option func(*Club)

// WithClock overrides time.Now for progress entries and exports.
func WithClock(now func() time.Time) Option {
	return func(c *Club) { c.now = now }
}

// New creates a Club. A nil src makes the club work from cached rows only.
func New(eng *engine.Engine, store storage.Storage, src source.Source, log *slog.Logger, opts ...Option) *Club {
	c := &Club{
		engine: eng,
		store:  store,
		src:    src,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start restores the persisted session and loads the catalog. Malformed
// stored values are discarded. A source failure is returned wrapped in
// engine.ErrDataSourceUnavailable after any cached rows have been applied.
func (c *Club) Start(ctx context.Context) error {
	c.mu.Lock()
	err := c.restore(ctx)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	_, err = c.Reload(ctx)
	return err
}

func (c *Club) restore(ctx context.Context) error {
	var finished []model.FinishedTitle
	ok, err := c.loadJSON(ctx, KeyFinishedTitles, &finished)
	if err != nil {
		return err
	}
	if ok {
		c.engine.RestoreFinished(finished)
	}

	var current *model.ReadingSession
	ok, err = c.loadJSON(ctx, KeyCurrentBook, &current)
	if err != nil {
		return err
	}
	if ok {
		if err := c.engine.RestoreCurrent(current); err != nil {
			c.discard(ctx, KeyCurrentBook, err)
		}
	}

	var questions []model.DiscussionQuestion
	ok, err = c.loadJSON(ctx, KeyQuestions, &questions)
	if err != nil {
		return err
	}
	if ok {
		if err := c.engine.RestoreQuestions(questions); err != nil {
			c.discard(ctx, KeyQuestions, err)
		}
	}
	return nil
}

// loadJSON decodes the value under key into v. It reports false when the
// key is missing or held garbage, which is deleted.
func (c *Club) loadJSON(ctx context.Context, key string, v any) (bool, error) {
	blob, err := c.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(blob, v); err != nil {
		c.discard(ctx, key, fmt.Errorf("%w: %w", engine.ErrMalformedState, err))
		return false, nil
	}
	return true, nil
}

func (c *Club) discard(ctx context.Context, key string, cause error) {
	c.log.Warn("discarding stored state", "key", key, "error", cause)
	if err := c.store.Delete(ctx, key); err != nil {
		c.log.Error("delete stored state", "key", key, "error", err)
	}
}

// Reload fetches the reading list and applies it. On failure the catalog
// in use is kept; when none is loaded yet the rows cached by the last
// successful fetch are applied instead. The returned catalog is the one in
// effect afterwards.
func (c *Club) Reload(ctx context.Context) (engine.Catalog, error) {
	if c.src == nil {
		return c.fallback(ctx, errors.New("no source configured"))
	}

	rows, err := c.src.Rows(ctx)
	if err != nil {
		return c.fallback(ctx, err)
	}

	blob, err := json.Marshal(rows)
	if err != nil {
		return engine.Catalog{}, fmt.Errorf("encode rows: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cat := c.engine.Ingest(rows)
	if err := c.store.Put(ctx, KeyBooks, blob); err != nil {
		c.log.Error("cache rows", "error", err)
	}
	c.saveCurrent(ctx)
	c.log.Info("catalog loaded",
		"available", len(cat.Available),
		"currently_reading", len(cat.CurrentlyReading),
		"finished", len(cat.Finished))
	return cat, nil
}

func (c *Club) fallback(ctx context.Context, cause error) (engine.Catalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	unavailable := fmt.Errorf("%w: %w", engine.ErrDataSourceUnavailable, cause)
	if c.engine.Loaded() {
		return c.engine.Snapshot().Catalog, unavailable
	}

	var rows []model.RawRow
	ok, err := c.loadJSON(ctx, KeyBooks, &rows)
	if err != nil {
		return engine.Catalog{}, errors.Join(unavailable, err)
	}
	if !ok {
		return engine.Catalog{}, unavailable
	}

	cat := c.engine.Ingest(rows)
	c.saveCurrent(ctx)
	c.log.Warn("using cached catalog", "rows", len(rows), "error", cause)
	if c.src == nil {
		return cat, nil
	}
	return cat, unavailable
}

// Snapshot returns a copy of the session state.
func (c *Club) Snapshot() engine.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Snapshot()
}

// Current returns the active session.
func (c *Club) Current() (model.ReadingSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Current()
}

// History returns the books in progress and the books finished.
func (c *Club) History() (currentlyReading, finished []model.BookRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.History()
}

// FinishedAt reports when the club finished title.
func (c *Club) FinishedAt(title string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.FinishedAt(title)
}

// PickRandom starts a random available book.
func (c *Club) PickRandom(ctx context.Context) (model.ReadingSession, error) {
	return c.selectBook(ctx, c.engine.PickRandom)
}

// PickByTitle starts the available book with the given title.
func (c *Club) PickByTitle(ctx context.Context, title string) (model.ReadingSession, error) {
	return c.selectBook(ctx, func() (model.ReadingSession, error) {
		return c.engine.PickByTitle(title)
	})
}

// ResolveTitle returns the available title that matches title exactly or,
// failing that, ignoring case and surrounding space. Unmatched titles are
// returned as given.
func (c *Club) ResolveTitle(title string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	available := c.engine.Snapshot().Available
	for _, rec := range available {
		if rec.Title == title {
			return rec.Title
		}
	}
	want := strings.TrimSpace(title)
	for _, rec := range available {
		if strings.EqualFold(strings.TrimSpace(rec.Title), want) {
			return rec.Title
		}
	}
	return title
}

// ChangeBook puts the active book back and starts a random one.
func (c *Club) ChangeBook(ctx context.Context) (model.ReadingSession, error) {
	return c.selectBook(ctx, c.engine.ChangeCurrentBook)
}

// Resume starts the book the reading list marks as currently reading.
func (c *Club) Resume(ctx context.Context) (model.ReadingSession, error) {
	return c.selectBook(ctx, c.engine.ResumeCurrentlyReading)
}

func (c *Club) selectBook(ctx context.Context, op func() (model.ReadingSession, error)) (model.ReadingSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := op()
	if err != nil {
		return model.ReadingSession{}, err
	}
	c.saveCurrent(ctx)
	return s, nil
}

// UpdateProgress records progress on the active book and returns the
// session after the update. At 100 the returned session is finished.
func (c *Club) UpdateProgress(ctx context.Context, percent int) (model.ReadingSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, _ := c.engine.Current()
	if err := c.engine.UpdateProgress(percent); err != nil {
		return model.ReadingSession{}, err
	}

	if _, err := c.store.RecordProgress(ctx, prev.Title, percent, c.now()); err != nil {
		c.log.Error("record progress", "title", prev.Title, "error", err)
	}

	s, ok := c.engine.Current()
	if !ok {
		s = finishedSession(prev, c.engine)
		c.saveFinished(ctx)
	}
	c.saveCurrent(ctx)
	return s, nil
}

func finishedSession(prev model.ReadingSession, eng *engine.Engine) model.ReadingSession {
	s := prev
	s.ProgressPercent = 100
	s.Finished = true
	s.StatusText = "finished"
	if at, ok := eng.FinishedAt(s.Title); ok {
		s.EndDate = &at
	}
	return s
}

// MarkFinished completes the active book.
func (c *Club) MarkFinished(ctx context.Context) (model.ReadingSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.engine.MarkFinished()
	if err != nil {
		return model.ReadingSession{}, err
	}
	c.saveFinished(ctx)
	c.saveCurrent(ctx)
	return s, nil
}

// ProgressLog returns the latest progress entries for the active book.
func (c *Club) ProgressLog(ctx context.Context, limit int) ([]model.ProgressEntry, error) {
	c.mu.Lock()
	cur, ok := c.engine.Current()
	c.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return c.store.ListProgress(ctx, cur.Title, limit)
}

// Reset clears the active book and the questions, then reloads the
// reading list. Books finished in the club stay finished.
func (c *Club) Reset(ctx context.Context) (engine.Catalog, error) {
	c.mu.Lock()
	c.engine.ResetSession()
	err := c.store.Delete(ctx, KeyCurrentBook, KeyQuestions)
	c.mu.Unlock()
	if err != nil {
		return engine.Catalog{}, fmt.Errorf("reset session: %w", err)
	}
	return c.Reload(ctx)
}

// ResetAll forgets everything stored, including finished books, the
// cached reading list and the progress log, then reloads.
func (c *Club) ResetAll(ctx context.Context) (engine.Catalog, error) {
	c.mu.Lock()
	c.engine.ResetSession()
	c.engine.RestoreFinished(nil)
	err := c.store.Clear(ctx)
	c.mu.Unlock()
	if err != nil {
		return engine.Catalog{}, fmt.Errorf("reset all: %w", err)
	}
	return c.Reload(ctx)
}

func (c *Club) saveCurrent(ctx context.Context) {
	cur, ok := c.engine.Current()
	if !ok {
		if err := c.store.Delete(ctx, KeyCurrentBook); err != nil {
			c.log.Error("clear current book", "error", err)
		}
		return
	}
	c.saveJSON(ctx, KeyCurrentBook, cur)
}

func (c *Club) saveQuestions(ctx context.Context) {
	c.saveJSON(ctx, KeyQuestions, c.engine.Questions())
}

func (c *Club) saveFinished(ctx context.Context) {
	c.saveJSON(ctx, KeyFinishedTitles, c.engine.Snapshot().FinishedTitles)
}

// saveJSON stores v under key. The operation that changed v has already
// completed, so failures are only logged.
func (c *Club) saveJSON(ctx context.Context, key string, v any) {
	blob, err := json.Marshal(v)
	if err != nil {
		c.log.Error("encode state", "key", key, "error", err)
		return
	}
	if err := c.store.Put(ctx, key, blob); err != nil {
		c.log.Error("save state", "key", key, "error", err)
	}
}
