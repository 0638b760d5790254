package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fkoehler/buildorder/pkg/depdata"
	"github.com/fkoehler/buildorder/pkg/resolve"
)

// lintCommand creates the lint command for checking the whole database.
func (c *CLI) lintCommand() *cobra.Command {
	var (
		data   string
		group  string
		branch string
	)

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check that every component in the database resolves",
		Long: `Resolve every component in the database and report the failures.

A clean database resolves every component without dependency cycles or
branch conflicts. Lint runs the full recursive resolution for each
component and lists every one that fails, so a bad declaration is caught
before it breaks someone's build.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLint(cmd.Context(), data, group, branch)
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "dependency data file (overrides config)")
	cmd.Flags().StringVarP(&group, "branch-group", "g", "", "branch group selecting the data file")
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "branch to resolve at (default: any)")

	return cmd
}

func (c *CLI) runLint(ctx context.Context, data, group, branch string) error {
	dataFile, err := c.dataFile(data, group)
	if err != nil {
		return err
	}

	db, err := depdata.LoadFile(dataFile)
	if err != nil {
		return err
	}

	b := depdata.AnyBranch
	if branch != "" {
		b = depdata.Branch(branch)
	}

	spinner := newSpinner(ctx, fmt.Sprintf("Checking %d components...", db.Len()))
	spinner.Start()

	issues, err := lintDatabase(ctx, db, b)
	if err != nil {
		spinner.Stop()
		return err
	}

	if len(issues) == 0 {
		spinner.StopWithSuccess(fmt.Sprintf("All %d components resolve", db.Len()))
		return nil
	}
	spinner.Stop()

	for _, issue := range issues {
		printWarning("%s: %v", issue.Component, issue.Err)
	}
	return fmt.Errorf("%d of %d components fail to resolve", len(issues), db.Len())
}

// lintIssue pairs a component with its resolution failure.
type lintIssue struct {
	Component string
	Err       error
}

// lintDatabase resolves every component in turn and collects the
// failures. It stops early when the context is cancelled.
func lintDatabase(ctx context.Context, db *depdata.Database, branch depdata.Branch) ([]lintIssue, error) {
	logger := loggerFromContext(ctx)
	engine := resolve.New(db)

	var issues []lintIssue
	for _, component := range db.AllComponents() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := engine.Closure([]string{component}, branch); err != nil {
			logger.Debug("lint failure", "component", component, "err", err)
			issues = append(issues, lintIssue{Component: component, Err: err})
		}
	}
	return issues, nil
}
