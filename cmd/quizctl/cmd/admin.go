package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/templui/quizline/internal/app"
	"github.com/templui/quizline/internal/config"
	"github.com/templui/quizline/internal/logger"
)

func AdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}

	cmd.AddCommand(setAdminCmd("grant", "Give a user admin rights", true))
	cmd.AddCommand(setAdminCmd("revoke", "Remove admin rights from a user", false))
	return cmd
}

func setAdminCmd(use, short string, isAdmin bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				user, err := a.UserService.SetAdminByUsername(cmd.Context(), args[0], isAdmin)
				if err != nil {
					return fmt.Errorf("failed to update %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) admin=%t\n", user.Username, user.ID, user.IsAdmin)
				return nil
			})
		},
	}
}

// withApp builds the full application, migrating the database first.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), "")

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(a)
}
