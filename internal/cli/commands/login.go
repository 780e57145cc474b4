package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/campaignboard/campaignboard/internal/accounts"
	"github.com/campaignboard/campaignboard/internal/apiclient"
	"github.com/campaignboard/campaignboard/internal/session"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the data API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				username = os.Getenv("CAMPAIGNBOARD_USERNAME")
			}
			if password == "" {
				password = os.Getenv("CAMPAIGNBOARD_PASSWORD")
			}
			if username == "" {
				return fmt.Errorf("username is required (use --username flag or CAMPAIGNBOARD_USERNAME env var)")
			}

			env, err := loadEnv()
			if err != nil {
				return err
			}

			// Prompt for password if not provided via flag or env var
			if password == "" {
				if !term.IsTerminal(int(syscall.Stdin)) {
					return fmt.Errorf("password is required in non-interactive mode (use --password flag or CAMPAIGNBOARD_PASSWORD env var)")
				}
				fmt.Print("Password: ")
				bytePassword, err := term.ReadPassword(int(syscall.Stdin))
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = string(bytePassword)
				fmt.Println()
			}

			ctx, cancel := commandContext()
			defer cancel()
			return runLogin(ctx, env, accounts.Credentials{Username: username, Password: password})
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (or set CAMPAIGNBOARD_USERNAME)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set CAMPAIGNBOARD_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(ctx context.Context, env *Env, creds accounts.Credentials) error {
	svc := accounts.NewService(env.Backends, session.NewStore(), env.Config.SecondaryUsers, env.Logger)

	if problems := svc.Validate(creds); problems != nil {
		return fmt.Errorf("username and password are required")
	}

	fmt.Fprintf(env.Out, "Logging in to %s...\n", env.Backends.Primary.BaseURL())

	result, err := svc.Login(ctx, cliVisitor, creds)
	if err != nil {
		if errors.Is(err, apiclient.ErrNetwork) {
			return fmt.Errorf("could not reach the API: %w", err)
		}
		return fmt.Errorf("login failed")
	}

	if previous, err := env.tokens(); err == nil {
		if stale := previous.Superseded(result.Tokens); !stale.Empty() {
			if err := svc.Revoke(ctx, stale); err != nil {
				env.Logger.Warn().Err(err).Msg("Failed to end previous API session")
			}
		}
	}

	if err := env.Tokens.SaveToken(env.Backends.Primary.BaseURL(), result.Tokens.Primary); err != nil {
		return fmt.Errorf("failed to save authentication token: %w", err)
	}
	if url := secondaryURL(env); url != "" {
		// A token left over from an earlier login must not be sent for this user
		if result.Tokens.Secondary == "" {
			if err := env.Tokens.DeleteToken(url); err != nil {
				return fmt.Errorf("failed to remove previous secondary token: %w", err)
			}
		} else if err := env.Tokens.SaveToken(url, result.Tokens.Secondary); err != nil {
			env.Logger.Warn().Err(err).Msg("Failed to save secondary token")
		}
	}

	fmt.Fprintln(env.Out, "✓ Login successful!")
	fmt.Fprintf(env.Out, "  User: %s\n", result.User.Username)
	if result.User.IsAdmin {
		fmt.Fprintln(env.Out, "  Role: Admin")
	}

	return nil
}
