package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kleypas/netplot/pkg/spec"
	"github.com/kleypas/netplot/pkg/topology"
)

// inspectCommand creates the inspect command for browsing a declaration.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [declaration]",
		Short: "Browse a declaration interactively",
		Long: `Browse a declaration interactively.

The inspect command loads a declaration and opens a terminal browser over
its backbone groups and private networks, showing the inferred nesting,
gateway interfaces, devices, and diversion rules without rendering anything.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decl, err := spec.Load(args[0])
			if err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}
			topo, err := topology.Resolve(decl.Private)
			if err != nil {
				return fmt.Errorf("resolve topology: %w", err)
			}

			model := newInspectModel(decl, topo)
			program := tea.NewProgram(model, tea.WithContext(cmd.Context()))
			_, err = program.Run()
			return err
		},
	}
}
