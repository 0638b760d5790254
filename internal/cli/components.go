package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fkoehler/buildorder/pkg/depdata"
)

// componentsCommand creates the components command for listing the
// component universe.
func (c *CLI) componentsCommand() *cobra.Command {
	var (
		data  string
		group string
		count bool
	)

	cmd := &cobra.Command{
		Use:   "components [prefix]",
		Short: "List the components known to the dependency database",
		Long: `List the components known to the dependency database, sorted.

An optional prefix narrows the listing to one part of the tree:

  buildorder components kde/        # everything under kde/
  buildorder components --count     # just the number`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			return c.runComponents(cmd.OutOrStdout(), prefix, data, group, count)
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "dependency data file (overrides config)")
	cmd.Flags().StringVarP(&group, "branch-group", "g", "", "branch group selecting the data file")
	cmd.Flags().BoolVar(&count, "count", false, "print only the number of components")

	return cmd
}

func (c *CLI) runComponents(w io.Writer, prefix, data, group string, count bool) error {
	dataFile, err := c.dataFile(data, group)
	if err != nil {
		return err
	}

	db, err := depdata.LoadFile(dataFile)
	if err != nil {
		return err
	}

	components := db.AllComponents()
	if prefix != "" {
		filtered := make([]string, 0, len(components))
		for _, component := range components {
			if strings.HasPrefix(component, prefix) {
				filtered = append(filtered, component)
			}
		}
		components = filtered
	}

	if count {
		_, err := fmt.Fprintln(w, len(components))
		return err
	}
	for _, component := range components {
		if _, err := fmt.Fprintln(w, component); err != nil {
			return err
		}
	}
	return nil
}
