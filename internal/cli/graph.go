package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fkoehler/buildorder/pkg/pipeline"
	"github.com/fkoehler/buildorder/pkg/render"
)

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	data        string // explicit dependency data file
	branchGroup string // config branch group selecting the data file
	branch      string // branch to resolve at
	format      string // render format: dot, svg, png
	output      string // output file (stdout if empty)
	detailed    bool   // annotate nodes with dependency counts
	noCache     bool   // disable the artifact cache
	refresh     bool   // re-render even when a cached artifact exists
}

// graphCommand creates the graph command for rendering dependency
// closures.
func (c *CLI) graphCommand() *cobra.Command {
	opts := graphOpts{}

	cmd := &cobra.Command{
		Use:   "graph <component>...",
		Short: "Render the dependency closure as a graph",
		Long: `Render the recursive dependency closure of one or more components.

The default output is Graphviz DOT on stdout; --format (or the --output
extension) selects SVG or PNG rendering instead. SVG and PNG artifacts
default to a file named after the first component.

Examples:
  buildorder graph kde/kdebase                     # DOT to stdout
  buildorder graph kdebase -o closure.svg          # SVG, format inferred
  buildorder graph kdebase kdepim -f png           # PNG, derived file name`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd.Context(), args, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.data, "data", "", "dependency data file (overrides config)")
	cmd.Flags().StringVarP(&opts.branchGroup, "branch-group", "g", "", "branch group selecting the data file")
	cmd.Flags().StringVarP(&opts.branch, "branch", "b", "", "branch to resolve at (default: any)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "render format: dot (default), svg, png")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout for dot, derived name otherwise)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "annotate nodes with dependency counts")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when a cached artifact exists")

	return cmd
}

// runGraph executes the full pipeline including the render stage and
// writes the artifact.
func (c *CLI) runGraph(ctx context.Context, components []string, opts *graphOpts) error {
	format := opts.format
	if format == "" {
		format = inferFormat(opts.output)
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		return err
	}

	// Binary formats get a derived file name rather than a terminal dump.
	output := opts.output
	if output == "" && format != render.FormatDOT {
		output = strings.ReplaceAll(components[0], "/", "-") + "." + format
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

	spinner := newSpinner(ctx, fmt.Sprintf("Rendering %s...", format))
	spinner.Start()

	result, err := runner.Execute(ctx, pipeline.Options{
		DataFile:   dataFile,
		Components: components,
		Branch:     opts.branch,
		Refresh:    opts.refresh,
		Format:     format,
		Detailed:   opts.detailed,
	})
	if err != nil {
		spinner.StopWithError("Rendering failed")
		return err
	}
	spinner.Stop()

	out, err := openOutput(output)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.Write(result.Artifact); err != nil {
		return err
	}

	if output != "" {
		printSuccess("Rendered closure graph")
		printFile(output)
		printStats(result.Stats.ComponentCount, result.Stats.OrderSize, result.CacheInfo.RenderHit)
	}
	return nil
}

// inferFormat derives the render format from the output file extension.
func inferFormat(output string) string {
	switch strings.ToLower(filepath.Ext(output)) {
	case ".svg":
		return render.FormatSVG
	case ".png":
		return render.FormatPNG
	default:
		return pipeline.DefaultFormat
	}
}
