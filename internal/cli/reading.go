package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"bookclub_bot/internal/model"
	"bookclub_bot/internal/presence"
)

const progressLogLimit = 5

func (a *app) newBooksCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "books",
		Short: "List the books available to pick",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			books := a.club.Snapshot().Available
			if jsonOut {
				return a.printJSON(nonNil(books))
			}
			if len(books) == 0 {
				a.warn("No books are available")
				return nil
			}
			a.header("Available books (%d)", len(books))
			for i, rec := range books {
				fmt.Fprintf(a.out, "%3d. %s\n", i+1, bookLine(rec))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func (a *app) newCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the book being read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, ok := a.club.Current()
			if !ok {
				a.warn("Nothing is being read. Use: clubctl pick")
				return nil
			}
			a.printSession(s)

			entries, err := a.club.ProgressLog(cmd.Context(), progressLogLimit)
			if err != nil {
				return err
			}
			if len(entries) > 0 {
				fmt.Fprintln(a.out)
				a.header("Recent updates")
				for _, e := range entries {
					fmt.Fprintf(a.out, "  %s  %3d%%\n", e.RecordedAt.Local().Format("2006-01-02 15:04"), e.Percent)
				}
			}
			return nil
		},
	}
}

func (a *app) newPickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pick",
		Short: "Pick a random available book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.club.PickRandom(cmd.Context())
			if err != nil {
				return err
			}
			a.ok("Now reading %s", bookLine(s.BookRecord))
			return nil
		},
	}
}

func (a *app) newChooseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "choose <title>",
		Short: "Start a specific available book",
		Long: `Start the available book with the given title. The title is matched
exactly first, then ignoring case.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := a.club.ResolveTitle(strings.Join(args, " "))
			s, err := a.club.PickByTitle(cmd.Context(), title)
			if err != nil {
				return err
			}
			a.ok("Now reading %s", bookLine(s.BookRecord))
			return nil
		},
	}
}

func (a *app) newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Continue the book the reading list marks as currently reading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.club.Resume(cmd.Context())
			if err != nil {
				return err
			}
			a.ok("Resumed %s at %d%%", bookLine(s.BookRecord), s.ProgressPercent)
			return nil
		},
	}
}

func (a *app) newChangeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "change",
		Short: "Put the current book back and pick another",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.club.ChangeBook(cmd.Context())
			if err != nil {
				return err
			}
			a.ok("Now reading %s", bookLine(s.BookRecord))
			return nil
		},
	}
}

func (a *app) newProgressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress <0-100>",
		Short: "Update progress on the current book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			percent, err := strconv.Atoi(strings.TrimSuffix(args[0], "%"))
			if err != nil {
				return fmt.Errorf("invalid progress %q", args[0])
			}
			s, err := a.club.UpdateProgress(cmd.Context(), percent)
			if err != nil {
				return err
			}
			if s.Finished {
				a.ok("Finished %s", bookLine(s.BookRecord))
				return nil
			}
			a.ok("%s %s", s.Title, presence.ProgressBar(s.ProgressPercent, 20))
			return nil
		},
	}
}

func (a *app) newFinishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "finish",
		Short: "Mark the current book finished",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.club.MarkFinished(cmd.Context())
			if err != nil {
				return err
			}
			a.ok("Finished %s", bookLine(s.BookRecord))
			return nil
		},
	}
}

type historyOutput struct {
	CurrentlyReading []model.BookRecord    `json:"currentlyReading"`
	Finished         []model.BookRecord    `json:"finished"`
	FinishedTitles   []model.FinishedTitle `json:"finishedTitles"`
}

func (a *app) newHistoryCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List books in progress and finished books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reading, finished := a.club.History()
			if jsonOut {
				return a.printJSON(historyOutput{
					CurrentlyReading: nonNil(reading),
					Finished:         nonNil(finished),
					FinishedTitles:   nonNil(a.club.Snapshot().FinishedTitles),
				})
			}
			if len(reading) == 0 && len(finished) == 0 {
				a.warn("No reading history yet")
				return nil
			}
			if len(reading) > 0 {
				a.header("Currently reading")
				for _, rec := range reading {
					fmt.Fprintf(a.out, "  %s\n", bookLine(rec))
				}
			}
			if len(finished) > 0 {
				a.header("Finished")
				for _, rec := range finished {
					line := "  " + bookLine(rec)
					if at, ok := a.club.FinishedAt(rec.Title); ok {
						line += color.HiBlackString(" (%s)", at.Local().Format("2006-01-02"))
					}
					fmt.Fprintln(a.out, line)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func (a *app) printSession(s model.ReadingSession) {
	a.header("%s", bookLine(s.BookRecord))
	if s.Link != "" {
		fmt.Fprintf(a.out, "  Link:     %s\n", s.Link)
	}
	fmt.Fprintf(a.out, "  Started:  %s\n", s.StartDate.Local().Format("2006-01-02"))
	if s.EndDate != nil {
		fmt.Fprintf(a.out, "  Finished: %s\n", s.EndDate.Local().Format("2006-01-02"))
	}
	fmt.Fprintf(a.out, "  Progress: %s\n", presence.ProgressBar(s.ProgressPercent, 20))
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func bookLine(rec model.BookRecord) string {
	if rec.Author == "" {
		return color.New(color.Bold).Sprint(rec.Title)
	}
	return color.New(color.Bold).Sprint(rec.Title) + " by " + rec.Author
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
