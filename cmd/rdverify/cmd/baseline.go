package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceFabric/pkg/baseline"
)

var (
	dbPath   string
	partName string
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Inspect stored verification runs",
}

var baselineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs of a part, oldest first",
	Args:  cobra.NoArgs,
	RunE:  runBaselineList,
}

var baselineDiffCmd = &cobra.Command{
	Use:   "diff [old-id new-id]",
	Short: "Compare two stored runs, by default the latest two",
	Args:  cobra.RangeArgs(0, 2),
	RunE:  runBaselineDiff,
}

func init() {
	rootCmd.AddCommand(baselineCmd)
	baselineCmd.AddCommand(baselineListCmd, baselineDiffCmd)

	baselineCmd.PersistentFlags().StringVar(&dbPath, "db", "", "run store")
	baselineCmd.PersistentFlags().StringVar(&partName, "part", "", "part name")
	baselineCmd.MarkPersistentFlagRequired("db")
	baselineCmd.MarkPersistentFlagRequired("part")
}

func runBaselineList(cmd *cobra.Command, args []string) error {
	store, err := baseline.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(partName)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d run(s) of %s\n", len(runs), partName)
	for _, r := range runs {
		fmt.Fprintf(out, "  #%-4d %s  %s  %d diagnostics\n",
			r.Seq, r.ID, r.Report.Generated.Format(time.RFC3339), r.Report.Summary.Total)
	}
	return nil
}

func runBaselineDiff(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return fmt.Errorf("need both run ids or none")
	}
	store, err := baseline.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	var prev, cur baseline.Run
	if len(args) == 2 {
		if prev, err = store.Get(partName, args[0]); err != nil {
			return err
		}
		if cur, err = store.Get(partName, args[1]); err != nil {
			return err
		}
	} else {
		runs, err := store.List(partName)
		if err != nil {
			return err
		}
		if len(runs) < 2 {
			return fmt.Errorf("need two runs of %s, have %d", partName, len(runs))
		}
		prev, cur = runs[len(runs)-2], runs[len(runs)-1]
	}
	printDelta(cmd.OutOrStdout(), prev.ID, baseline.Diff(prev.Report.Diagnostics, cur.Report.Diagnostics))
	return nil
}
