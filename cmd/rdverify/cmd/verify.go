package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceFabric/internal/config"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/baseline"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/diag"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/policy"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/verify"
)

var (
	reportPath   string
	baselinePath string
	failOn       []string
	regoPath     string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a part against the model",
	Long: `Run a full verification and print one line per diagnostic.

Diagnostics are advisory: the exit status is 0 unless a policy says the run
fails, in which case it is 2.

Examples:
  rdverify verify --bundle bundle.yaml --part part.rdsexp --stubs stubs.rdv
  rdverify verify -c rdverify.yaml --report out.json
  rdverify verify -c rdverify.yaml --fail-on '*'
  rdverify verify -c rdverify.yaml --rego policy.rego --baseline runs.db`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	addInputFlags(verifyCmd)

	verifyCmd.Flags().StringVar(&reportPath, "report", "", "write a JSON report")
	verifyCmd.Flags().StringVar(&baselinePath, "baseline", "", "store the run and diff it against the previous one")
	verifyCmd.Flags().StringSliceVar(&failOn, "fail-on", nil, "fail when these categories occur ('*' for any error)")
	verifyCmd.Flags().StringVar(&regoPath, "rego", "", "decide failure with a Rego policy")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("report") {
		cfg.Report = reportPath
	}
	if cmd.Flags().Changed("baseline") {
		cfg.Baseline = baselinePath
	}
	switch {
	case cmd.Flags().Changed("rego"):
		cfg.Policy = policy.Spec{Mode: policy.ModeRego, Module: regoPath}
	case cmd.Flags().Changed("fail-on"):
		cfg.Policy = policy.Spec{Mode: policy.ModeFailOn, Categories: failOn}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	pol, err := cfg.Policy.Build(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to build policy: %w", err)
	}
	in, err := loadInputs(cfg)
	if err != nil {
		return err
	}
	if err := in.checkStubs(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	log := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
	var collected diag.Collector
	console := diag.NewConsoleSink(out)
	sink := diag.Tee{&collected, diag.SinkFunc(func(d diag.Diagnostic) {
		if cfg.ShouldPrint(d) {
			console.Emit(d)
		}
	})}

	var stubErr error
	verify.Verify(in.part, in.bundle.Grid, func(v *verify.Verifier) {
		if in.stubs != nil {
			stubErr = in.stubs.Apply(v)
		}
	}, verify.DefaultBelHandler, nil, verify.WithSink(sink), verify.WithLogger(log))
	if stubErr != nil {
		return fmt.Errorf("failed to apply stubs: %w", stubErr)
	}

	report := diag.NewReport(uuid.NewString(), in.part.Name, collected.Diags)
	fmt.Fprintf(out, "%s: %d diagnostics (%d errors, %d info)\n",
		in.part.Name, report.Summary.Total, report.Summary.Errors, report.Summary.Info)

	if cfg.Report != "" {
		data, err := report.ExportJSON()
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		if err := os.WriteFile(cfg.Report, data, 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		log.WithField("path", cfg.Report).Debug("wrote report")
	}

	if cfg.Baseline != "" {
		if err := saveBaseline(out, cfg, report); err != nil {
			return err
		}
	}

	decision, err := pol.Decide(cmd.Context(), report)
	if err != nil {
		return fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if decision.Fail {
		msg := "verification failed"
		if len(decision.Reasons) > 0 {
			msg += ":\n  " + strings.Join(decision.Reasons, "\n  ")
		}
		return &ExitError{Code: 2, Msg: msg}
	}
	return nil
}

func saveBaseline(out io.Writer, cfg *config.Config, report *diag.Report) error {
	store, err := baseline.Open(cfg.Baseline)
	if err != nil {
		return fmt.Errorf("failed to open baseline: %w", err)
	}
	defer store.Close()

	prev, err := store.Latest(report.Part)
	hasPrev := err == nil
	if err != nil && !errors.Is(err, baseline.ErrNoRuns) {
		return fmt.Errorf("failed to read baseline: %w", err)
	}
	run, err := store.Save(report)
	if err != nil {
		return fmt.Errorf("failed to save baseline: %w", err)
	}
	fmt.Fprintf(out, "saved run %s (#%d)\n", run.ID, run.Seq)
	if hasPrev {
		printDelta(out, prev.ID, baseline.Diff(prev.Report.Diagnostics, report.Diagnostics))
	}
	return nil
}

func printDelta(out io.Writer, since string, d baseline.Delta) {
	if d.Empty() {
		fmt.Fprintf(out, "no change since %s\n", since)
		return
	}
	fmt.Fprintf(out, "since %s: +%d -%d\n", since, len(d.Added), len(d.Removed))
	for _, s := range d.Added {
		fmt.Fprintf(out, "+ %s\n", s)
	}
	for _, s := range d.Removed {
		fmt.Fprintf(out, "- %s\n", s)
	}
}
