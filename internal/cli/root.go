// Package cli implements clubctl, the command-line front end of the club.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"bookclub_bot/internal/club"
	"bookclub_bot/internal/config"
	"bookclub_bot/internal/engine"
	"bookclub_bot/internal/logging"
	"bookclub_bot/internal/presence"
	"bookclub_bot/internal/source"
	"bookclub_bot/internal/storage"
)

type app struct {
	out    io.Writer
	errOut io.Writer

	flagDB      string
	flagNoColor bool
	flagOffline bool

	cfg   *config.Config
	log   *slog.Logger
	store *storage.SQLite
	club  *club.Club
}

// Execute is the entry point called from main.
func Execute() {
	if err := NewRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

// NewRootCmd builds the clubctl command tree writing to out and errOut.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "clubctl",
		Short: "Run the book club from the terminal",
		Long: `clubctl drives the same club session as the Telegram bot.

The reading list source and the database come from the bot configuration
(BOOKCLUB_CONFIG and the environment). Use --db to point at another
database and --offline to work from the cached reading list only.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.flagDB, "db", "", "Path to the club database (default from config)")
	root.PersistentFlags().BoolVar(&a.flagNoColor, "no-color", false, "Disable colored output")
	root.PersistentFlags().BoolVar(&a.flagOffline, "offline", false, "Do not fetch the reading list, use the cached copy")

	root.AddCommand(
		a.newBooksCmd(),
		a.newCurrentCmd(),
		a.newPickCmd(),
		a.newChooseCmd(),
		a.newResumeCmd(),
		a.newChangeCmd(),
		a.newProgressCmd(),
		a.newFinishCmd(),
		a.newHistoryCmd(),
		a.newAskCmd(),
		a.newQuestionsCmd(),
		a.newAnswerCmd(),
		a.newRmQuestionCmd(),
		a.newRefreshCmd(),
		a.newResetCmd(),
		a.newExportCmd(),
	)
	return root
}

func (a *app) open(cmd *cobra.Command) error {
	if a.flagNoColor || !isTTY(a.out) {
		color.NoColor = true
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.flagDB != "" {
		cfg.DatabasePath = a.flagDB
	}
	a.cfg = cfg
	a.log = logging.NewWriter(a.errOut, cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}
	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.store = store

	var src source.Source
	if !a.flagOffline {
		src, err = source.New(source.Options{
			Kind:    cfg.Source.Kind,
			SheetID: cfg.Source.SheetID,
			URL:     cfg.Source.URL,
			Path:    cfg.Source.Path,
		}, &http.Client{Timeout: 30 * time.Second})
		if err != nil {
			a.warn("No reading list source (%v), using the cached list", err)
			src = nil
		}
	}

	eng := engine.New(
		engine.WithPresence(presence.NewLog(a.log)),
		engine.WithLogger(a.log),
	)
	a.club = club.New(eng, store, src, a.log)

	if err := a.club.Start(cmd.Context()); err != nil {
		if !errors.Is(err, engine.ErrDataSourceUnavailable) {
			return err
		}
		a.warn("%v", err)
	}
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// ok prints a green success line.
func (a *app) ok(format string, args ...any) {
	fmt.Fprintln(a.out, color.GreenString("✓"), fmt.Sprintf(format, args...))
}

// warn prints a yellow warning line.
func (a *app) warn(format string, args ...any) {
	fmt.Fprintln(a.errOut, color.YellowString("!"), fmt.Sprintf(format, args...))
}

// header prints a cyan section heading.
func (a *app) header(format string, args ...any) {
	fmt.Fprintln(a.out, color.CyanString(fmt.Sprintf(format, args...)))
}
