package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/campaignboard/campaignboard/internal/accounts"
	"github.com/campaignboard/campaignboard/internal/cli/auth"
	"github.com/campaignboard/campaignboard/internal/session"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the API session and forget stored tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()
			return runLogout(ctx, env)
		},
	}
}

// runLogout always removes the local tokens; API failures are only reported
func runLogout(ctx context.Context, env *Env) error {
	tokens, err := env.tokens()
	loggedIn := !errors.Is(err, auth.ErrNotAuthenticated)
	if err != nil && loggedIn {
		return err
	}

	if loggedIn {
		svc := accounts.NewService(env.Backends, session.NewStore(), env.Config.SecondaryUsers, env.Logger)
		if err := svc.Logout(ctx, cliVisitor, tokens); err != nil {
			env.Logger.Warn().Err(err).Msg("Logout failed on the API, removing local tokens anyway")
		}
	}

	for _, url := range []string{env.Backends.Primary.BaseURL(), secondaryURL(env)} {
		if url == "" {
			continue
		}
		if err := env.Tokens.DeleteToken(url); err != nil {
			return err
		}
	}

	if !loggedIn {
		fmt.Fprintln(env.Out, "Not logged in.")
		return nil
	}
	fmt.Fprintln(env.Out, "✓ Logged out")
	return nil
}

func secondaryURL(env *Env) string {
	if env.Backends.Secondary == nil {
		return ""
	}
	return env.Backends.Secondary.BaseURL()
}
