package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/templui/quizline/internal/app"
	"github.com/templui/quizline/internal/markdown"
	"github.com/templui/quizline/internal/quizfile"
)

func QuizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Quiz catalog tools",
	}

	cmd.AddCommand(quizImportCmd())
	cmd.AddCommand(quizListCmd())
	return cmd
}

func quizImportCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Create quizzes from .yaml or .md files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := quizfile.NewLoader(markdown.NewParser())

			return withApp(cmd.Context(), func(a *app.App) error {
				for _, path := range args {
					input, err := loader.Load(path)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					if dryRun {
						fmt.Fprintf(cmd.OutOrStdout(), "%s: %q with %d questions\n", path, input.Title, len(input.Questions))
						continue
					}

					quiz, err := a.QuizService.Create(cmd.Context(), input)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: created %s %q\n", path, quiz.ID, quiz.Title)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse files without creating quizzes")
	return cmd
}

func quizListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every quiz, active or not",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				quizzes, err := a.QuizService.AdminQuizzes(cmd.Context())
				if err != nil {
					return err
				}
				for _, quiz := range quizzes {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%t\t%d\t%s\n", quiz.ID, quiz.IsActive, len(quiz.Questions), quiz.Title)
				}
				return nil
			})
		},
	}
}
