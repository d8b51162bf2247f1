package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func (a *app) newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Add a discussion question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.club.AddQuestion(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			a.ok("Question #%d added: %s", len(a.club.Questions()), q.Text)
			return nil
		},
	}
}

func (a *app) newQuestionsCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "questions",
		Short: "List discussion questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			qs := a.club.Questions()
			if jsonOut {
				return a.printJSON(nonNil(qs))
			}
			if len(qs) == 0 {
				a.warn("No discussion questions yet")
				return nil
			}
			a.header("Discussion questions")
			for i, q := range qs {
				mark := color.YellowString("[ ]")
				if q.Answered {
					mark = color.GreenString("[x]")
				}
				fmt.Fprintf(a.out, "%3d. %s %s\n", i+1, mark, q.Text)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func (a *app) newAnswerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "answer <n|id>",
		Short: "Toggle the answered mark of a question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.club.ToggleAnswered(cmd.Context(), strings.TrimPrefix(args[0], "#"))
			if err != nil {
				return err
			}
			if q.Answered {
				a.ok("Answered: %s", q.Text)
			} else {
				a.ok("Open again: %s", q.Text)
			}
			return nil
		},
	}
}

func (a *app) newRmQuestionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rmquestion <n|id>",
		Short: "Remove a discussion question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.club.RemoveQuestion(cmd.Context(), strings.TrimPrefix(args[0], "#"))
			if err != nil {
				return err
			}
			a.ok("Removed: %s", q.Text)
			return nil
		},
	}
}
