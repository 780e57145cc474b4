package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()
			return runWhoami(ctx, env)
		},
	}
}

func runWhoami(ctx context.Context, env *Env) error {
	user, tokens, err := env.currentUser(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Out, "User:      %s\n", user.Username)
	if user.IsAdmin {
		fmt.Fprintln(env.Out, "Role:      Admin")
	}
	fmt.Fprintf(env.Out, "Campaigns: %s\n", strings.Join(user.CampaignAccess, ", "))
	if tokens.Secondary != "" {
		fmt.Fprintf(env.Out, "Secondary: %s\n", env.Backends.Secondary.BaseURL())
	}
	return nil
}
