// Package config loads rdverify run configuration from YAML, .env and
// RDVERIFY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/OpenTraceLab/OpenTraceFabric/pkg/diag"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/policy"
)

// Config controls one verification run.
type Config struct {
	// Inputs
	Bundle string `yaml:"bundle"` // model bundle (YAML)
	Part   string `yaml:"part"`   // physical dump (rdsexp)
	Stubs  string `yaml:"stubs"`  // stub file, optional

	// Outputs
	Report   string `yaml:"report"`   // JSON report path, optional
	Baseline string `yaml:"baseline"` // run store path, optional

	Policy policy.Spec `yaml:"policy"`

	// Console filtering. The report, baseline and policy see everything.
	HideCategories  []string `yaml:"hide_categories"`
	OnlyTilePattern string   `yaml:"only_tile_pattern"`

	Verbose bool `yaml:"verbose"`

	tileRegex *regexp.Regexp
	hidden    map[diag.Category]bool
}

// SearchPaths are tried in order when no config file is named.
func SearchPaths() []string {
	paths := []string{"rdverify.yaml", ".rdverify.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "rdverify", "config.yaml"))
	}
	return paths
}

// DefaultConfig returns an advisory configuration with no inputs set.
func DefaultConfig() *Config {
	return &Config{
		Policy: policy.Spec{Mode: policy.ModeAdvisory},
	}
}

// Load reads path, or the first of SearchPaths that exists when path is
// empty, then applies .env and environment overrides. A missing default
// file is not an error. Relative paths in a file are taken relative to it.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path == "" {
		for _, p := range SearchPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for _, p := range []*string{&c.Bundle, &c.Part, &c.Stubs, &c.Report, &c.Baseline, &c.Policy.Module} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	for name, dst := range map[string]*string{
		"RDVERIFY_BUNDLE":        &c.Bundle,
		"RDVERIFY_PART":          &c.Part,
		"RDVERIFY_STUBS":         &c.Stubs,
		"RDVERIFY_REPORT":        &c.Report,
		"RDVERIFY_BASELINE":      &c.Baseline,
		"RDVERIFY_POLICY":        &c.Policy.Mode,
		"RDVERIFY_POLICY_MODULE": &c.Policy.Module,
	} {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("RDVERIFY_VERBOSE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: RDVERIFY_VERBOSE: %w", err)
		}
		c.Verbose = b
	}
	return nil
}

// Validate checks that the inputs are set and compiles the tile filter.
func (c *Config) Validate() error {
	if c.Bundle == "" {
		return errors.New("config: no bundle given")
	}
	if c.Part == "" {
		return errors.New("config: no part given")
	}
	switch c.Policy.Mode {
	case "", policy.ModeAdvisory, policy.ModeFailOn, policy.ModeRego:
	default:
		return fmt.Errorf("config: unknown policy mode %q", c.Policy.Mode)
	}

	c.tileRegex = nil
	if c.OnlyTilePattern != "" {
		regex, err := regexp.Compile(c.OnlyTilePattern)
		if err != nil {
			return fmt.Errorf("config: only_tile_pattern: %w", err)
		}
		c.tileRegex = regex
	}

	c.hidden = make(map[diag.Category]bool, len(c.HideCategories))
	for _, cat := range c.HideCategories {
		c.hidden[diag.Category(cat)] = true
	}
	return nil
}

// ShouldPrint reports whether d passes the console filters. Call Validate
// first.
func (c *Config) ShouldPrint(d diag.Diagnostic) bool {
	if c.hidden[d.Category] {
		return false
	}
	if c.tileRegex == nil {
		return true
	}
	return c.tileRegex.MatchString(d.Tile)
}
