package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceFabric/internal/config"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/bundle"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/diag"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/rawdump"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/rawdump/rdsexp"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/stubcfg"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/verify"
)

// Input flags shared by verify and check.
var (
	bundlePath string
	partPath   string
	stubsPath  string
)

func addInputFlags(c *cobra.Command) {
	c.Flags().StringVar(&bundlePath, "bundle", "", "model bundle (YAML)")
	c.Flags().StringVar(&partPath, "part", "", "physical dump (rdsexp)")
	c.Flags().StringVar(&stubsPath, "stubs", "", "stub file")
}

// loadConfig reads the run configuration and lets flags override it.
func loadConfig(c *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if c.Flags().Changed("bundle") {
		cfg.Bundle = bundlePath
	}
	if c.Flags().Changed("part") {
		cfg.Part = partPath
	}
	if c.Flags().Changed("stubs") {
		cfg.Stubs = stubsPath
	}
	if verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

type inputs struct {
	bundle *bundle.Bundle
	part   *rawdump.Part
	stubs  *stubcfg.File
}

func loadInputs(cfg *config.Config) (*inputs, error) {
	var in inputs
	var err error
	if in.bundle, err = bundle.LoadFile(cfg.Bundle); err != nil {
		return nil, fmt.Errorf("failed to load bundle: %w", err)
	}
	if in.part, err = rdsexp.LoadFile(cfg.Part); err != nil {
		return nil, fmt.Errorf("failed to load part: %w", err)
	}
	if cfg.Stubs != "" {
		if in.stubs, err = stubcfg.ParseFile(cfg.Stubs); err != nil {
			return nil, fmt.Errorf("failed to load stubs: %w", err)
		}
	}
	return &in, nil
}

// checkStubs applies the stub file to a scratch verifier, so that a bad
// reference is caught before anything is verified.
func (in *inputs) checkStubs() error {
	if in.stubs == nil {
		return nil
	}
	v := verify.New(in.part, in.bundle.Grid, verify.WithSink(&diag.Collector{}))
	if err := in.stubs.Apply(v); err != nil {
		return fmt.Errorf("failed to apply stubs: %w", err)
	}
	return nil
}
