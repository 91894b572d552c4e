package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/venslabs/fossmerge/cmd/fossmerge/commands/compare"
	"github.com/venslabs/fossmerge/cmd/fossmerge/commands/merge"
	"github.com/venslabs/fossmerge/cmd/fossmerge/commands/scan"
	"github.com/venslabs/fossmerge/cmd/fossmerge/version"
	"github.com/venslabs/fossmerge/pkg/envutil"
)

var logLevel = new(slog.LevelVar)

func main() {
	logHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(logHandler))
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("Error", "error", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fossmerge",
		Short:         "Run open source license scanners and merge or compare their reports",
		Example:       scan.Example() + "\n" + compare.Example(),
		Version:       version.GetVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := cmd.PersistentFlags()

	// CLI flag > DEBUG env var > default (false)
	flags.Bool("debug", envutil.Bool("DEBUG", false), "debug mode [$DEBUG]")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			logLevel.Set(slog.LevelDebug)
		}
		return nil
	}

	cmd.AddCommand(
		scan.New(),
		merge.New(),
		compare.New(),
	)

	return cmd
}
