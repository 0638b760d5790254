package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fkoehler/buildorder/pkg/depdata"
	pkgio "github.com/fkoehler/buildorder/pkg/io"
	"github.com/fkoehler/buildorder/pkg/resolve"
)

// browseCommand creates the browse command, an interactive picker that
// resolves the chosen component's closure.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		data   string
		group  string
		branch string
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse components interactively",
		Long: `Browse all components in the dependency database and resolve one.

Opens an interactive list showing each component with its direct
dependency and dependent counts. Selecting a component resolves its
full closure and prints the build order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(data, group, branch)
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "Path to the dependency data file")
	cmd.Flags().StringVarP(&group, "branch-group", "g", "", "Branch group to load data for")
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "Branch to resolve for (default any)")

	return cmd
}

func (c *CLI) runBrowse(data, group, branch string) error {
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

	m := NewComponentListModel(componentRows(db, b))
	p := tea.NewProgram(m)

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("running component browser: %w", err)
	}

	fm, ok := finalModel.(ComponentListModel)
	if !ok || fm.Selected == "" {
		printDetail("No component selected")
		return nil
	}

	printKeyValue("Component", fm.Selected)
	printKeyValue("Branch", string(b))
	printNewline()

	engine := resolve.New(db)
	res, err := engine.Closure([]string{fm.Selected}, b)
	if err != nil {
		return err
	}

	return pkgio.WriteText(os.Stdout, pkgio.FromClosure([]string{fm.Selected}, res, nil))
}

// componentRows builds the browser rows, counting distinct direct
// dependencies and dependents per component at the given branch.
func componentRows(db *depdata.Database, branch depdata.Branch) []ComponentRow {
	engine := resolve.New(db)
	components := db.AllComponents()

	deps := make(map[string]int, len(components))
	dependents := make(map[string]int, len(components))

	for _, component := range components {
		seen := make(map[string]bool)
		for _, ref := range engine.Direct(component, branch) {
			if seen[ref.Component] {
				continue
			}
			seen[ref.Component] = true
			deps[component]++
			dependents[ref.Component]++
		}
	}

	rows := make([]ComponentRow, len(components))
	for i, component := range components {
		rows[i] = ComponentRow{
			Component:  component,
			Deps:       deps[component],
			Dependents: dependents[component],
		}
	}
	return rows
}
