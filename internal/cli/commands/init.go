package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/campaignboard/campaignboard/internal/cli/config"
)

type initOptions struct {
	secondaryAPIURL string
	secondaryUsers  []string
	campaignsFile   string
}

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init <api-url>",
		Short: "Create a campaignboard.json in the current directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get current directory: %w", err)
			}
			return runInit(os.Stdout, dir, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.secondaryAPIURL, "secondary-api-url", "", "Alternate API serving the secondary campaign")
	cmd.Flags().StringSliceVar(&opts.secondaryUsers, "secondary-users", nil, "Usernames that also log in to the secondary API")
	cmd.Flags().StringVar(&opts.campaignsFile, "campaigns-file", "", "YAML catalog with campaign titles")

	return cmd
}

func runInit(out io.Writer, dir, apiURL string, opts *initOptions) error {
	apiURL = strings.TrimRight(apiURL, "/")
	if !strings.HasPrefix(apiURL, "http://") && !strings.HasPrefix(apiURL, "https://") {
		return fmt.Errorf("api url must start with http:// or https://")
	}

	configPath := filepath.Join(dir, config.ConfigFileName)

	cfg := &config.Config{}
	if _, err := os.Stat(configPath); err == nil {
		existing, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		cfg = existing
		fmt.Fprintf(out, "Found existing %s\n", config.ConfigFileName)
	}

	cfg.APIURL = apiURL
	if opts.secondaryAPIURL != "" {
		cfg.SecondaryAPIURL = strings.TrimRight(opts.secondaryAPIURL, "/")
	}
	if len(opts.secondaryUsers) > 0 {
		cfg.SecondaryUsers = opts.secondaryUsers
	}
	if opts.campaignsFile != "" {
		cfg.CampaignsFile = opts.campaignsFile
	}

	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Wrote ./%s for %s\n", config.ConfigFileName, apiURL)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  Run 'campaignboard login' to authenticate")

	return nil
}
