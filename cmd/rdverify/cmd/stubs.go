package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceFabric/pkg/stubcfg"
)

var stubsCmd = &cobra.Command{
	Use:   "stubs <stub-file>",
	Short: "Parse a stub file and print it in canonical form",
	Args:  cobra.ExactArgs(1),
	RunE:  runStubs,
}

func init() {
	rootCmd.AddCommand(stubsCmd)
}

func runStubs(cmd *cobra.Command, args []string) error {
	f, err := stubcfg.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to parse file: %w", err)
	}
	if verbose {
		fmt.Fprintf(cmd.OutOrStdout(), "# %s: %d statements\n", args[0], len(f.Stmts))
	}
	fmt.Fprint(cmd.OutOrStdout(), f.String())
	return nil
}
