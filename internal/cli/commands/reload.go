package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewReloadCmd creates the reload command
func NewReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Ask the API to reload its data (admin only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()
			return runReload(ctx, env)
		},
	}
}

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the API's data loading status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()
			return runStatus(ctx, env)
		},
	}
}

func runReload(ctx context.Context, env *Env) error {
	user, tokens, err := env.currentUser(ctx)
	if err != nil {
		return err
	}
	if !user.IsAdmin {
		return fmt.Errorf("admin access required")
	}

	status, err := env.Backends.Primary.LoadingStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get data loading status: %w", err)
	}
	if status.IsLoading {
		fmt.Fprintln(env.Out, "Data is already loading.")
		return nil
	}

	if err := env.Backends.Primary.Reload(ctx, tokens.Primary); err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}

	fmt.Fprintln(env.Out, "✓ Reload started")
	return nil
}

func runStatus(ctx context.Context, env *Env) error {
	status, err := env.Backends.Primary.LoadingStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get data loading status: %w", err)
	}

	if status.IsLoading {
		fmt.Fprintln(env.Out, "Status: Loading data...")
	} else {
		fmt.Fprintln(env.Out, "Status: Loading data complete")
	}
	return nil
}
