package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/campaignboard/campaignboard/internal/exports"
)

type exportOptions struct {
	campaign string
	from     string
	to       string
	out      string
}

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	opts := &exportOptions{}

	kinds := make([]string, len(exports.Kinds))
	for i, k := range exports.Kinds {
		kinds[i] = string(k)
	}

	cmd := &cobra.Command{
		Use:       fmt.Sprintf("export <%s>", strings.Join(kinds, "|")),
		Short:     "Download a campaign export",
		Args:      cobra.ExactArgs(1),
		ValidArgs: kinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := exports.ParseKind(args[0])
			if err != nil {
				return err
			}
			env, err := loadEnv()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()
			return runExport(ctx, env, kind, opts)
		},
	}

	cmd.Flags().StringVar(&opts.campaign, "campaign", "", "Campaign code")
	cmd.Flags().StringVar(&opts.from, "from", "", "First day to include (YYYY-MM-DD, data export only)")
	cmd.Flags().StringVar(&opts.to, "to", "", "Last day to include (YYYY-MM-DD, data export only)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output file or directory (defaults to the API's file name)")
	_ = cmd.MarkFlagRequired("campaign")

	return cmd
}

func runExport(ctx context.Context, env *Env, kind exports.Kind, opts *exportOptions) error {
	if kind != exports.KindData && (opts.from != "" || opts.to != "") {
		return fmt.Errorf("--from and --to only apply to the data export")
	}

	filter, err := exports.FilterInput{From: opts.from, To: opts.to}.Filter()
	if err != nil {
		return err
	}

	tokens, err := env.tokens()
	if err != nil {
		return err
	}

	svc := exports.NewService(env.Backends, env.Logger)
	file, err := svc.Download(ctx, exports.Request{
		Kind:     kind,
		Campaign: opts.campaign,
		Filter:   filter,
		Tokens:   tokens,
	})
	if err != nil {
		return fmt.Errorf("no data found for %s: %w", opts.campaign, err)
	}
	defer file.Body.Close()

	path := outputPath(opts.out, file.Name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	n, err := io.Copy(f, file.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(env.Out, "✓ Saved %s (%d bytes)\n", path, n)
	return nil
}

// outputPath resolves --out: empty means the API's file name in the current
// directory, an existing directory gets the API's file name inside it
func outputPath(out, name string) string {
	if out == "" {
		return name
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, name)
	}
	return out
}
