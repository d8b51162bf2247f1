package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"bookclub_bot/internal/model"
)

func TestQuestions(t *testing.T) {
	e, _ := newTestEngine(t)

	for _, text := range []string{" Why spice? ", "Who is the Kwisatz Haderach?", "Favourite quote?"} {
		if _, err := e.AddQuestion(text); err != nil {
			t.Fatalf("add %q: %v", text, err)
		}
	}
	if _, err := e.AddQuestion("   "); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("blank question err = %v, want ErrEmptyQuestion", err)
	}

	if _, err := e.ToggleAnswered("2"); err != nil {
		t.Fatalf("toggle by position: %v", err)
	}
	removed, err := e.RemoveQuestion("q1")
	if err != nil {
		t.Fatalf("remove by id: %v", err)
	}
	if diff := cmp.Diff("Why spice?", removed.Text); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}

	want := []model.DiscussionQuestion{
		{ID: "q2", Text: "Who is the Kwisatz Haderach?", Answered: true, CreatedAt: fixedNow},
		{ID: "q3", Text: "Favourite quote?", CreatedAt: fixedNow},
	}
	if diff := cmp.Diff(want, e.Questions()); diff != "" {
		t.Errorf("questions mismatch (-want +got):\n%s", diff)
	}
}

func TestQuestionNotFound(t *testing.T) {
	tests := []struct {
		name string
		ref  string
	}{
		{name: "zero position", ref: "0"},
		{name: "past the end", ref: "3"},
		{name: "negative", ref: "-1"},
		{name: "unknown id", ref: "nope"},
		{name: "empty", ref: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t)
			if _, err := e.AddQuestion("One"); err != nil {
				t.Fatalf("add: %v", err)
			}
			if _, err := e.AddQuestion("Two"); err != nil {
				t.Fatalf("add: %v", err)
			}

			if _, err := e.ToggleAnswered(tt.ref); !errors.Is(err, ErrQuestionNotFound) {
				t.Errorf("toggle err = %v, want ErrQuestionNotFound", err)
			}
			if _, err := e.RemoveQuestion(tt.ref); !errors.Is(err, ErrQuestionNotFound) {
				t.Errorf("remove err = %v, want ErrQuestionNotFound", err)
			}
			if n := len(e.Questions()); n != 2 {
				t.Errorf("questions = %d, want 2", n)
			}
		})
	}
}

func TestRestoreCurrent(t *testing.T) {
	end := fixedNow
	tests := []struct {
		name    string
		session *model.ReadingSession
		wantErr bool
		wantCur bool
	}{
		{name: "nil clears", session: nil},
		{
			name:    "valid session",
			session: &model.ReadingSession{BookRecord: model.BookRecord{Title: "Dune"}, ProgressPercent: 30, StartDate: fixedNow},
			wantCur: true,
		},
		{
			name:    "blank title",
			session: &model.ReadingSession{ProgressPercent: 30},
			wantErr: true,
		},
		{
			name:    "progress out of range",
			session: &model.ReadingSession{BookRecord: model.BookRecord{Title: "Dune"}, ProgressPercent: 130},
			wantErr: true,
		},
		{
			name:    "finished session",
			session: &model.ReadingSession{BookRecord: model.BookRecord{Title: "Dune"}, ProgressPercent: 100, EndDate: &end, Finished: true},
			wantErr: true,
		},
		{
			name:    "end date without finish",
			session: &model.ReadingSession{BookRecord: model.BookRecord{Title: "Dune"}, ProgressPercent: 10, EndDate: &end},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t)
			e.Ingest([]model.RawRow{{Title: "Dune"}, {Title: "Emma"}})

			err := e.RestoreCurrent(tt.session)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedState) {
					t.Fatalf("err = %v, want ErrMalformedState", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			cur, ok := e.Current()
			if ok != tt.wantCur {
				t.Fatalf("current present = %v, want %v", ok, tt.wantCur)
			}
			if !ok {
				return
			}
			if diff := cmp.Diff(*tt.session, cur); diff != "" {
				t.Errorf("current mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]string{"Emma"}, titles(e.Snapshot().Available)); diff != "" {
				t.Errorf("restored title left in available (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRestoreCurrentSurvivesIngest(t *testing.T) {
	e, _ := newTestEngine(t)
	saved := &model.ReadingSession{BookRecord: model.BookRecord{Title: "Dune"}, ProgressPercent: 45, StartDate: fixedNow}
	if err := e.RestoreCurrent(saved); err != nil {
		t.Fatalf("restore: %v", err)
	}

	e.Ingest(duneHyperion())

	cur, ok := e.Current()
	if !ok {
		t.Fatal("current lost on ingest")
	}
	if diff := cmp.Diff(*saved, cur); diff != "" {
		t.Errorf("current mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{}, titles(e.Snapshot().Available)); diff != "" {
		t.Errorf("available mismatch (-want +got):\n%s", diff)
	}
}

func TestRestoreQuestions(t *testing.T) {
	e, _ := newTestEngine(t)
	err := e.RestoreQuestions([]model.DiscussionQuestion{
		{ID: "abc", Text: "Kept", Answered: true, CreatedAt: fixedNow},
		{Text: "Old entry without id", CreatedAt: fixedNow},
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	want := []model.DiscussionQuestion{
		{ID: "abc", Text: "Kept", Answered: true, CreatedAt: fixedNow},
		{ID: "q1", Text: "Old entry without id", CreatedAt: fixedNow},
	}
	if diff := cmp.Diff(want, e.Questions()); diff != "" {
		t.Errorf("questions mismatch (-want +got):\n%s", diff)
	}

	err = e.RestoreQuestions([]model.DiscussionQuestion{{ID: "x", Text: "fine"}, {ID: "y", Text: " "}})
	if !errors.Is(err, ErrMalformedState) {
		t.Fatalf("err = %v, want ErrMalformedState", err)
	}
	if n := len(e.Questions()); n != 0 {
		t.Errorf("questions = %d after malformed restore, want 0", n)
	}
}

func TestRestoreFinished(t *testing.T) {
	e, _ := newTestEngine(t)
	day := time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC)
	e.RestoreFinished([]model.FinishedTitle{
		{Title: "Hyperion", FinishedAt: day},
		{Title: " "},
		{Title: "Hyperion", FinishedAt: fixedNow},
	})

	cat := e.Ingest(duneHyperion())
	if diff := cmp.Diff([]string{"Hyperion"}, titles(cat.Finished)); diff != "" {
		t.Errorf("finished mismatch (-want +got):\n%s", diff)
	}
	if _, ok := e.Current(); ok {
		t.Error("locally finished book seeded as current")
	}
	want := []model.FinishedTitle{{Title: "Hyperion", FinishedAt: day}}
	if diff := cmp.Diff(want, e.Snapshot().FinishedTitles); diff != "" {
		t.Errorf("finished titles mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Ingest(duneHyperion())
	if err := e.UpdateProgress(20); err != nil {
		t.Fatalf("progress: %v", err)
	}

	snap := e.Snapshot()
	snap.Available[0].Title = "Changed"
	snap.Current.ProgressPercent = 99

	again := e.Snapshot()
	if again.Available[0].Title != "Dune" || again.Current.ProgressPercent != 20 {
		t.Errorf("snapshot shares memory with engine: %+v", again)
	}
}
