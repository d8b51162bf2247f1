// Package engine implements the book lifecycle engine: the catalog of
// available, currently reading and finished books, the single active
// reading session, and the discussion question list.
//
// An Engine is not safe for concurrent use. Callers serialize access.
package engine

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookclub_bot/internal/model"
	"bookclub_bot/internal/status"
)

// PresenceSink receives status updates. Errors are logged and dropped.
type PresenceSink interface {
	Report(statusLine, detailLine string, percent *int) error
}

// Catalog holds the lifecycle buckets.
type Catalog struct {
	Available        []model.BookRecord
	CurrentlyReading []model.BookRecord
	Finished         []model.BookRecord
}

func (c Catalog) clone() Catalog {
	return Catalog{
		Available:        slices.Clone(c.Available),
		CurrentlyReading: slices.Clone(c.CurrentlyReading),
		Finished:         slices.Clone(c.Finished),
	}
}

// Engine owns the catalog and the rules for moving books through it.
type Engine struct {
	catalog   Catalog
	loaded    bool
	current   *model.ReadingSession
	questions []model.DiscussionQuestion
	finished  []model.FinishedTitle

	now      func() time.Time
	rng      *rand.Rand
	presence PresenceSink
	newID    func() string
	log      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRand sets the random source used by PickRandom.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithPresence sets the presence sink.
func WithPresence(p PresenceSink) Option {
	return func(e *Engine) { e.presence = p }
}

// WithIDGenerator overrides the question ID generator.
func WithIDGenerator(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

// WithLogger sets the logger used for swallowed failures.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates an empty Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		now:   time.Now,
		rng:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		newID: uuid.NewString,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Loaded reports whether a catalog has been ingested.
func (e *Engine) Loaded() bool {
	return e.loaded
}

// Ingest rebuilds the catalog from raw rows and returns a copy of it.
//
// Rows with a blank title are dropped. Repeated titles keep the position of
// the first row and the fields of the last one. Titles finished locally go
// to the finished bucket whatever the row says. The title of the active
// session never appears in available. If nothing is being read, the first
// currently reading book becomes the active session.
func (e *Engine) Ingest(rows []model.RawRow) Catalog {
	var next Catalog
	for _, rec := range normalizeRows(rows) {
		bucket := status.Classify(rec.StatusText, e.finishedLocally(rec.Title))
		if e.finishedLocally(rec.Title) {
			bucket = model.BucketFinished
		}
		switch bucket {
		case model.BucketAvailable:
			if e.current != nil && e.current.Title == rec.Title {
				continue
			}
			next.Available = append(next.Available, rec)
		case model.BucketCurrentlyReading:
			next.CurrentlyReading = append(next.CurrentlyReading, rec)
		case model.BucketFinished:
			next.Finished = append(next.Finished, rec)
		default:
			e.log.Debug("dropping row with unknown status", "title", rec.Title, "status", rec.StatusText)
		}
	}

	e.catalog = next
	e.loaded = true

	if e.current == nil && len(e.catalog.CurrentlyReading) > 0 {
		s := e.newSession(e.catalog.CurrentlyReading[0])
		e.current = &s
	}
	return e.catalog.clone()
}

func normalizeRows(rows []model.RawRow) []model.BookRecord {
	records := make([]model.BookRecord, 0, len(rows))
	pos := make(map[string]int, len(rows))
	for i, row := range rows {
		title := strings.TrimSpace(row.Title)
		if title == "" {
			continue
		}
		rec := model.BookRecord{
			Title:          title,
			Author:         strings.TrimSpace(row.Author),
			StatusText:     status.Normalize(row.Status),
			Link:           strings.TrimSpace(row.Link),
			SourceRowIndex: i + 1,
		}
		if at, ok := pos[title]; ok {
			records[at] = rec
			continue
		}
		pos[title] = len(records)
		records = append(records, rec)
	}
	return records
}

// PickRandom selects a uniformly random available book and makes it the
// active session.
func (e *Engine) PickRandom() (model.ReadingSession, error) {
	if len(e.catalog.Available) == 0 {
		return model.ReadingSession{}, ErrEmptyCatalog
	}
	return e.install(e.rng.IntN(len(e.catalog.Available))), nil
}

// PickByTitle makes the available book with exactly this title the active
// session.
func (e *Engine) PickByTitle(title string) (model.ReadingSession, error) {
	idx := indexOf(e.catalog.Available, title)
	if idx < 0 {
		return model.ReadingSession{}, fmt.Errorf("%w: %q is not available", ErrNotFound, title)
	}
	return e.install(idx), nil
}

// ChangeCurrentBook returns an unfinished active session to available and
// picks a new book at random.
func (e *Engine) ChangeCurrentBook() (model.ReadingSession, error) {
	e.returnCurrent()
	if len(e.catalog.Available) == 0 {
		return model.ReadingSession{}, ErrEmptyCatalog
	}
	e.current = nil
	return e.install(e.rng.IntN(len(e.catalog.Available))), nil
}

// ResumeCurrentlyReading makes the first currently reading book the active
// session. An active session for the same title is returned unchanged.
func (e *Engine) ResumeCurrentlyReading() (model.ReadingSession, error) {
	if len(e.catalog.CurrentlyReading) == 0 {
		return model.ReadingSession{}, fmt.Errorf("%w: nothing is marked currently reading", ErrNotFound)
	}
	rec := e.catalog.CurrentlyReading[0]
	if e.current != nil && e.current.Title == rec.Title {
		return *e.current, nil
	}
	e.returnCurrent()
	s := e.newSession(rec)
	e.current = &s
	e.reportStarted(s.Title)
	return s, nil
}

// UpdateProgress sets the progress of the active session. Reaching 100 has
// the same effect as MarkFinished.
func (e *Engine) UpdateProgress(percent int) error {
	if e.current == nil {
		return ErrNoActiveSession
	}
	if percent < 0 || percent > 100 {
		return fmt.Errorf("%w: got %d", ErrOutOfRange, percent)
	}

	e.current.ProgressPercent = percent
	e.report("Reading: "+e.current.Title, fmt.Sprintf("%d%% complete", percent), percent)

	if percent == 100 {
		e.finish()
	}
	return nil
}

// MarkFinished completes the active session and returns it.
func (e *Engine) MarkFinished() (model.ReadingSession, error) {
	if e.current == nil {
		return model.ReadingSession{}, ErrNoActiveSession
	}
	s := e.finish()
	e.report("Finished: "+s.Title, "Pick the next book", 100)
	return s, nil
}

// History returns the currently reading and finished books for display.
// A title in both lists is shown as finished only.
func (e *Engine) History() (currentlyReading, finished []model.BookRecord) {
	for _, rec := range e.catalog.CurrentlyReading {
		if indexOf(e.catalog.Finished, rec.Title) < 0 {
			currentlyReading = append(currentlyReading, rec)
		}
	}
	return currentlyReading, slices.Clone(e.catalog.Finished)
}

// FinishedAt returns when a title was finished in this club, if it was.
func (e *Engine) FinishedAt(title string) (time.Time, bool) {
	for _, f := range e.finished {
		if f.Title == title {
			return f.FinishedAt, true
		}
	}
	return time.Time{}, false
}

// ResetSession clears the active session and the question list.
func (e *Engine) ResetSession() {
	e.current = nil
	e.questions = nil
}

func (e *Engine) install(idx int) model.ReadingSession {
	rec := e.catalog.Available[idx]
	e.catalog.Available = slices.Delete(e.catalog.Available, idx, idx+1)

	e.returnCurrent()

	s := e.newSession(rec)
	e.current = &s
	e.reportStarted(s.Title)
	return s
}

// returnCurrent puts an unfinished active session back into available,
// unless its title already sits in one of the buckets.
func (e *Engine) returnCurrent() {
	if e.current == nil || e.current.ProgressPercent >= 100 {
		return
	}
	title := e.current.Title
	if indexOf(e.catalog.Available, title) >= 0 ||
		indexOf(e.catalog.CurrentlyReading, title) >= 0 ||
		indexOf(e.catalog.Finished, title) >= 0 {
		return
	}
	e.catalog.Available = append(e.catalog.Available, e.current.BookRecord)
}

func (e *Engine) finish() model.ReadingSession {
	end := e.now()
	s := *e.current
	s.ProgressPercent = 100
	s.EndDate = &end
	s.Finished = true
	s.StatusText = "finished"

	e.catalog.CurrentlyReading = removeTitle(e.catalog.CurrentlyReading, s.Title)
	e.catalog.Available = removeTitle(e.catalog.Available, s.Title)
	if indexOf(e.catalog.Finished, s.Title) < 0 {
		e.catalog.Finished = append(e.catalog.Finished, s.BookRecord)
	}
	if !e.finishedLocally(s.Title) {
		e.finished = append(e.finished, model.FinishedTitle{Title: s.Title, FinishedAt: end})
	}

	e.current = nil
	return s
}

func (e *Engine) newSession(rec model.BookRecord) model.ReadingSession {
	return model.ReadingSession{
		BookRecord: rec,
		StartDate:  e.now(),
	}
}

func (e *Engine) finishedLocally(title string) bool {
	_, ok := e.FinishedAt(title)
	return ok
}

func (e *Engine) reportStarted(title string) {
	e.report("Reading: "+title, "Just started", 0)
}

func (e *Engine) report(statusLine, detailLine string, percent int) {
	if e.presence == nil {
		return
	}
	if err := e.presence.Report(statusLine, detailLine, &percent); err != nil {
		e.log.Warn("presence report", "status", statusLine, "error", err)
	}
}

func indexOf(books []model.BookRecord, title string) int {
	return slices.IndexFunc(books, func(b model.BookRecord) bool { return b.Title == title })
}

func removeTitle(books []model.BookRecord, title string) []model.BookRecord {
	return slices.DeleteFunc(books, func(b model.BookRecord) bool { return b.Title == title })
}
