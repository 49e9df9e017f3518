package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Load and validate the inputs without verifying",
	Long: `Load the bundle, the part and the stub file, check the stub file's
references against them and print a short inventory.

Examples:
  rdverify check --bundle bundle.yaml --part part.rdsexp --stubs stubs.rdv`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	addInputFlags(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	in, err := loadInputs(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	db, g := in.bundle.DB, in.bundle.Grid
	fmt.Fprintf(out, "Bundle: %s\n", cfg.Bundle)
	fmt.Fprintf(out, "  Wires:        %d\n", len(db.Wires))
	fmt.Fprintf(out, "  Tile classes: %d\n", len(db.TileClasses))
	fmt.Fprintf(out, "  Conn classes: %d\n", len(db.ConnClasses))
	fmt.Fprintf(out, "  Grid:         %dx%d, %d tiles, %d connectors\n", g.Cols, g.Rows, len(g.Tiles), len(g.Connectors))

	fmt.Fprintf(out, "Part: %s\n", in.part.Name)
	fmt.Fprintf(out, "  Tile kinds:   %d\n", len(in.part.TileKinds))
	fmt.Fprintf(out, "  Tiles:        %d\n", len(in.part.Coords()))
	fmt.Fprintf(out, "  Nodes:        %d\n", in.part.NodeCount)

	if in.stubs != nil {
		if err := in.checkStubs(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Stubs: %s (%d statements)\n", cfg.Stubs, len(in.stubs.Stmts))
	}
	fmt.Fprintln(out, "OK")
	return nil
}
