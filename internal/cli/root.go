package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/campaignboard/campaignboard/internal/cli/commands"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "campaignboard",
	Short: "campaignboard - campaign data exports from the terminal",
	Long: `campaignboard CLI - Log in to the campaign data API, list your campaigns,
download exports and trigger data reloads.

The API URL comes from campaignboard.json (see 'campaignboard init') or
CAMPAIGNBOARD_API_URL.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("campaignboard version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewCampaignsCmd())
	rootCmd.AddCommand(commands.NewExportCmd())
	rootCmd.AddCommand(commands.NewReloadCmd())
	rootCmd.AddCommand(commands.NewStatusCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
