// Package policy decides whether a verification run fails. Diagnostics are
// advisory unless a policy says otherwise.
package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/open-policy-agent/opa/rego"

	"github.com/OpenTraceLab/OpenTraceFabric/pkg/diag"
)

// AnyCategory in a FailOn list matches every error-severity category.
const AnyCategory = "*"

// Decision is the outcome of evaluating a policy.
type Decision struct {
	Fail    bool
	Reasons []string
}

// Policy judges a finished run.
type Policy interface {
	Decide(ctx context.Context, r *diag.Report) (Decision, error)
}

// Advisory never fails a run.
type Advisory struct{}

func (Advisory) Decide(context.Context, *diag.Report) (Decision, error) {
	return Decision{}, nil
}

// FailOn fails a run when any listed category occurs. AnyCategory matches
// every error; informational categories only fail when listed by name.
type FailOn struct {
	Categories []string
}

func (p FailOn) Decide(_ context.Context, r *diag.Report) (Decision, error) {
	want := make(map[string]bool, len(p.Categories))
	for _, c := range p.Categories {
		want[c] = true
	}
	var d Decision
	for _, cc := range r.Summary.Categories {
		hit := want[string(cc.Category)] || (want[AnyCategory] && cc.Category.Severity() == diag.SeverityError)
		if hit {
			d.Fail = true
			d.Reasons = append(d.Reasons, fmt.Sprintf("%d x %s", cc.Count, cc.Category))
		}
	}
	return d, nil
}

// Rego evaluates a Rego module in package rdverify. The input is the run
// report; data.rdverify.fail decides and data.rdverify.deny supplies the
// messages.
type Rego struct {
	fail rego.PreparedEvalQuery
	deny rego.PreparedEvalQuery
}

// NewRego compiles module. name is used in compile errors.
func NewRego(ctx context.Context, name, module string) (*Rego, error) {
	fail, err := rego.New(
		rego.Module(name, module),
		rego.Query("data.rdverify.fail"),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("preparing fail query: %w", err)
	}
	deny, err := rego.New(
		rego.Module(name, module),
		rego.Query("data.rdverify.deny"),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("preparing deny query: %w", err)
	}
	return &Rego{fail: fail, deny: deny}, nil
}

// LoadRego compiles the module at path.
func LoadRego(ctx context.Context, path string) (*Rego, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return NewRego(ctx, path, string(content))
}

func (p *Rego) Decide(ctx context.Context, r *diag.Report) (Decision, error) {
	input, err := toMap(r)
	if err != nil {
		return Decision{}, fmt.Errorf("converting input: %w", err)
	}

	var d Decision
	rs, err := p.fail.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Decision{}, fmt.Errorf("evaluating fail: %w", err)
	}
	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		d.Fail, _ = rs[0].Expressions[0].Value.(bool)
	}

	rs, err = p.deny.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Decision{}, fmt.Errorf("evaluating deny: %w", err)
	}
	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		msgs, _ := rs[0].Expressions[0].Value.([]interface{})
		for _, m := range msgs {
			if s, ok := m.(string); ok {
				d.Reasons = append(d.Reasons, s)
			}
		}
	}
	sort.Strings(d.Reasons)
	return d, nil
}

func toMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	err = json.Unmarshal(data, &out)
	return out, err
}

// Spec selects a policy by name, as found in run configuration.
type Spec struct {
	Mode       string   `yaml:"mode"`
	Categories []string `yaml:"categories,omitempty"`
	Module     string   `yaml:"module,omitempty"`
}

// Modes accepted by Spec.
const (
	ModeAdvisory = "advisory"
	ModeFailOn   = "fail-on"
	ModeRego     = "rego"
)

// Build turns a spec into a policy. An empty mode is advisory.
func (s Spec) Build(ctx context.Context) (Policy, error) {
	switch s.Mode {
	case "", ModeAdvisory:
		return Advisory{}, nil
	case ModeFailOn:
		if len(s.Categories) == 0 {
			return nil, fmt.Errorf("policy: %s needs at least one category", ModeFailOn)
		}
		return FailOn{Categories: s.Categories}, nil
	case ModeRego:
		if s.Module == "" {
			return nil, fmt.Errorf("policy: %s needs a module path", ModeRego)
		}
		return LoadRego(ctx, s.Module)
	}
	return nil, fmt.Errorf("policy: unknown mode %q", s.Mode)
}
