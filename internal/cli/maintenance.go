package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bookclub_bot/internal/engine"
)

func (a *app) newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Reload the reading list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.club.Reload(cmd.Context())
			if err != nil {
				return err
			}
			a.ok("Reading list reloaded")
			a.printCounts(cat)
			return nil
		},
	}
}

func (a *app) newResetCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the current book and the discussion questions",
		Long: `Clear the current book and the discussion questions. Books finished
in the club stay finished.

With --all, also forget finished books, the cached reading list and the
progress log.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reset := a.club.Reset
			if all {
				reset = a.club.ResetAll
			}
			cat, err := reset(cmd.Context())
			if err != nil {
				return err
			}
			if all {
				a.ok("Everything reset")
			} else {
				a.ok("Session reset")
			}
			a.printCounts(cat)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Also forget finished books and stored history")
	return cmd
}

func (a *app) newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the session as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.club.ExportJSON()
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err := fmt.Fprintln(a.out, string(data))
				return err
			}
			if err := os.WriteFile(output, append(data, '\n'), 0o600); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			a.ok("Exported to %s", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}

func (a *app) printCounts(cat engine.Catalog) {
	fmt.Fprintf(a.out, "  available: %d, currently reading: %d, finished: %d\n",
		len(cat.Available), len(cat.CurrentlyReading), len(cat.Finished))
}
