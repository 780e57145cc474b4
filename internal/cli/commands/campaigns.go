package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/campaignboard/campaignboard/internal/campaigns"
)

// NewCampaignsCmd creates the campaigns command
func NewCampaignsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "campaigns",
		Aliases: []string{"ls"},
		Short:   "List the campaigns you can export",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()
			return runCampaigns(ctx, env)
		},
	}
}

func runCampaigns(ctx context.Context, env *Env) error {
	user, _, err := env.currentUser(ctx)
	if err != nil {
		return err
	}

	var local []campaigns.Campaign
	if env.Config.CampaignsFile != "" {
		local, err = campaigns.LoadFile(env.Config.CampaignsFile)
		if err != nil {
			env.Logger.Warn().Err(err).Msg("Failed to load campaign catalog, showing codes only")
		}
	}

	available, err := campaigns.NewCatalog(local, env.Backends.Primary).Available(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to list campaigns: %w", err)
	}

	if len(available) == 0 {
		fmt.Fprintln(env.Out, "No campaigns available.")
		return nil
	}

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tTITLE")
	fmt.Fprintln(w, "────\t─────")
	for _, c := range available {
		fmt.Fprintf(w, "%s\t%s\n", c.Code, c.Title)
	}
	return w.Flush()
}
