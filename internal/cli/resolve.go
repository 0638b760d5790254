package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	pkgio "github.com/fkoehler/buildorder/pkg/io"
	"github.com/fkoehler/buildorder/pkg/pipeline"
)

// resolveOpts holds the command-line flags for the resolve command.
type resolveOpts struct {
	data          string // explicit dependency data file
	branchGroup   string // config branch group selecting the data file
	branch        string // branch to resolve at
	direct        bool   // list declared dependencies instead of recursing
	assumePresent bool   // accept unknown component names verbatim
	waves         bool   // group the order into parallel build waves
	format        string // output format: text or json
	output        string // output file (stdout if empty)
	noCache       bool   // disable the result cache
	refresh       bool   // recompute even when a cached result exists
}

// resolveCommand creates the resolve command, the primary entry point.
func (c *CLI) resolveCommand() *cobra.Command {
	opts := resolveOpts{format: pkgio.FormatText}

	cmd := &cobra.Command{
		Use:   "resolve <component>...",
		Short: "Compute the build order for one or more components",
		Long: `Compute the recursive build order for one or more components.

Components may be given as full paths (kde/kdelibs) or as unambiguous
final path segments (kdelibs). The default output lists one component
per line in the order they must be built; each entry carries a branch
suffix when the database pins one.

Examples:
  buildorder resolve kde/kdelibs                # full closure, build order
  buildorder resolve kdelibs kdebase            # several roots at once
  buildorder resolve kdelibs --direct           # declared deps, no recursion
  buildorder resolve kdelibs --waves            # parallel build stages
  buildorder resolve kdelibs -b 4.5 -f json     # pinned branch, JSON output`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runResolve(cmd.Context(), args, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.data, "data", "", "dependency data file (overrides config)")
	cmd.Flags().StringVarP(&opts.branchGroup, "branch-group", "g", "", "branch group selecting the data file")
	cmd.Flags().StringVarP(&opts.branch, "branch", "b", "", "branch to resolve at (default: any)")
	cmd.Flags().BoolVar(&opts.direct, "direct", false, "list declared dependencies without recursing")
	cmd.Flags().BoolVar(&opts.assumePresent, "assume-present", false, "accept unknown component names verbatim")
	cmd.Flags().BoolVar(&opts.waves, "waves", false, "group the order into parallel build waves")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: text (default), json")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when a cached result exists")

	return cmd
}

// runResolve executes the load and resolve stages and writes the result.
func (c *CLI) runResolve(ctx context.Context, components []string, opts *resolveOpts) error {
	if opts.format != pkgio.FormatText && opts.format != pkgio.FormatJSON {
		return fmt.Errorf("unknown output format %q (must be %q or %q)", opts.format, pkgio.FormatText, pkgio.FormatJSON)
	}

	dataFile, err := c.dataFile(opts.data, opts.branchGroup)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	result, err := runner.Execute(ctx, pipeline.Options{
		DataFile:      dataFile,
		Components:    components,
		Branch:        opts.branch,
		Direct:        opts.direct,
		AssumePresent: opts.assumePresent,
		Waves:         opts.waves,
		Refresh:       opts.refresh,
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Resolved %d components", resultSize(result.Resolution)))

	out, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := pkgio.Write(out, result.Resolution, opts.format); err != nil {
		return err
	}

	if opts.output != "" {
		printSuccess("Wrote build order")
		printFile(opts.output)
		printStats(result.Stats.ComponentCount, result.Stats.OrderSize, result.CacheInfo.ResolveHit)
		if !opts.direct {
			printNewline()
			printNextStep("Render", "buildorder graph "+components[0])
		}
	}
	return nil
}

// resultSize counts the components a resolution touched, in either mode.
func resultSize(res pkgio.Result) int {
	size := len(res.Order)
	for _, refs := range res.Direct {
		size += len(refs)
	}
	return size
}

// nopCloser wraps an io.Writer with a no-op Close method.
// It is used to make os.Stdout compatible with io.WriteCloser.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty, it returns os.Stdout wrapped in nopCloser.
// Otherwise, it creates the file at path, overwriting if it exists.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
