package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fkoehler/buildorder/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		cli.PrintError(err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var verbose, quiet bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log errors")

	// Adjust the log level before any command runs.
	originalPreRun := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := cli.LogInfo
		switch {
		case verbose:
			level = cli.LogDebug
		case quiet:
			level = cli.LogError
		}
		c.SetLogLevel(level)

		if originalPreRun != nil {
			return originalPreRun(cmd, args)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}
