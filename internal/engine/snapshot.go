package engine

import (
	"fmt"
	"slices"
	"strings"

	"bookclub_bot/internal/model"
)

// Snapshot is a read-only copy of the engine state.
type Snapshot struct {
	Catalog
	Loaded    bool
	Current   *model.ReadingSession
	Questions []model.DiscussionQuestion
	// FinishedTitles lists the books finished in this club.
	FinishedTitles []model.FinishedTitle
}

// Snapshot returns a deep copy of the engine state.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Catalog:        e.catalog.clone(),
		Loaded:         e.loaded,
		Questions:      slices.Clone(e.questions),
		FinishedTitles: slices.Clone(e.finished),
	}
	if e.current != nil {
		cur := *e.current
		if cur.EndDate != nil {
			end := *cur.EndDate
			cur.EndDate = &end
		}
		s.Current = &cur
	}
	return s
}

// Current returns a copy of the active session.
func (e *Engine) Current() (model.ReadingSession, bool) {
	if e.current == nil {
		return model.ReadingSession{}, false
	}
	return *e.current, true
}

// RestoreCurrent installs a previously persisted active session. A nil
// session clears it. An inconsistent session is rejected with
// ErrMalformedState and the engine keeps no active session.
func (e *Engine) RestoreCurrent(s *model.ReadingSession) error {
	e.current = nil
	if s == nil {
		return nil
	}
	if err := validateSession(*s); err != nil {
		return err
	}
	cur := *s
	e.current = &cur
	e.catalog.Available = removeTitle(e.catalog.Available, cur.Title)
	return nil
}

func validateSession(s model.ReadingSession) error {
	switch {
	case strings.TrimSpace(s.Title) == "":
		return fmt.Errorf("%w: session without title", ErrMalformedState)
	case s.ProgressPercent < 0 || s.ProgressPercent > 100:
		return fmt.Errorf("%w: progress %d", ErrMalformedState, s.ProgressPercent)
	case s.Finished || s.ProgressPercent == 100 || s.EndDate != nil:
		// A finished session is never kept as the active one.
		return fmt.Errorf("%w: active session %q is finished", ErrMalformedState, s.Title)
	}
	return nil
}

// RestoreQuestions replaces the question list. Questions without an ID get
// one. A question with blank text rejects the whole list.
func (e *Engine) RestoreQuestions(qs []model.DiscussionQuestion) error {
	restored := make([]model.DiscussionQuestion, 0, len(qs))
	for i, q := range qs {
		if strings.TrimSpace(q.Text) == "" {
			e.questions = nil
			return fmt.Errorf("%w: question %d has no text", ErrMalformedState, i+1)
		}
		if q.ID == "" {
			q.ID = e.newID()
		}
		restored = append(restored, q)
	}
	e.questions = restored
	return nil
}

// RestoreFinished replaces the set of titles finished locally.
// Entries with a blank title are skipped.
func (e *Engine) RestoreFinished(titles []model.FinishedTitle) {
	e.finished = e.finished[:0]
	for _, f := range titles {
		f.Title = strings.TrimSpace(f.Title)
		if f.Title == "" || e.finishedLocally(f.Title) {
			continue
		}
		e.finished = append(e.finished, f)
	}
}
