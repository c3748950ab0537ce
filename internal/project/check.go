package project

import (
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/warpconf/internal/topology"
	"github.com/ajitpratap0/warpconf/pkg/connector"
	"github.com/ajitpratap0/warpconf/pkg/errors"
	"github.com/ajitpratap0/warpconf/pkg/lint"
)

// Component is one checkable part of a project
type Component string

const (
	ComponentEngine     Component = "engine"
	ComponentSources    Component = "sources"
	ComponentConnectors Component = "connectors"
	ComponentSinks      Component = "sinks"
)

// AllComponents lists the components in check order
var AllComponents = []Component{ComponentEngine, ComponentSources, ComponentConnectors, ComponentSinks}

// ParseComponents reads a comma-separated component list. Empty or "all"
// selects every component; unknown tokens are skipped, but a list with no
// known token is an error.
func ParseComponents(what string) ([]Component, error) {
	what = strings.TrimSpace(what)
	if what == "" || strings.EqualFold(what, "all") {
		return AllComponents, nil
	}

	seen := make(map[Component]bool)
	for _, tok := range strings.Split(what, ",") {
		if c, ok := componentOf(strings.TrimSpace(tok)); ok {
			seen[c] = true
		}
	}
	if len(seen) == 0 {
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown check target: '%s'", what)
	}

	var out []Component
	for _, c := range AllComponents {
		if seen[c] {
			out = append(out, c)
		}
	}
	return out, nil
}

func componentOf(tok string) (Component, bool) {
	switch strings.ToLower(tok) {
	case "conf", "config", "engine":
		return ComponentEngine, true
	case "sources", "source":
		return ComponentSources, true
	case "connectors", "connector", "conn":
		return ComponentConnectors, true
	case "sinks", "sink":
		return ComponentSinks, true
	default:
		return "", false
	}
}

// CheckResult is the outcome of checking one component
type CheckResult struct {
	Component Component `json:"component"`
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`
}

// Check checks the given components in order. With failFast the first
// failure stops the run. The returned error is non-nil when any component
// failed.
func (p *Project) Check(components []Component, failFast bool) ([]CheckResult, error) {
	var (
		results []CheckResult
		failed  int
	)
	for _, c := range components {
		err := p.checkComponent(c)
		res := CheckResult{Component: c, OK: err == nil}
		if err != nil {
			failed++
			res.Error = err.Error()
			p.logger.Debug("check failed", zap.String("component", string(c)), zap.Error(err))
		}
		results = append(results, res)
		if err != nil && failFast {
			break
		}
	}
	if failed > 0 {
		return results, errors.Newf(errors.ErrorTypeValidation, "project check failed: %d component(s)", failed).
			WithDetail("failed", failed)
	}
	return results, nil
}

func (p *Project) checkComponent(c Component) error {
	switch c {
	case ComponentEngine:
		_, err := p.Engine()
		return err
	case ComponentSources:
		return p.checkScope(connector.ScopeSources)
	case ComponentConnectors:
		return p.checkScope(connector.ScopeSinks)
	case ComponentSinks:
		v, err := p.Validate(ValidateOptions{Filter: topology.Filter{}, ConfigOnly: true})
		if err != nil {
			return err
		}
		return v.Failure()
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unknown component '%s'", c)
	}
}

// checkScope lints and checks the definitions of one scope
func (p *Project) checkScope(scope connector.Scope) error {
	rows, err := p.LintRows()
	if err != nil {
		return err
	}
	var own []lint.Row
	for _, r := range rows {
		if r.Scope == scope {
			own = append(own, r)
		}
	}
	if err := lint.Check(own); err != nil {
		return err
	}

	checks, err := p.CheckConnectors(scope)
	if err != nil {
		return err
	}
	return CheckFailure(checks)
}
