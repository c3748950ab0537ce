// Package project ties the configuration packages together for one work
// root: engine config, connectors, sink groups and their statistics.
package project

import (
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/ajitpratap0/warpconf/internal/discovery"
	"github.com/ajitpratap0/warpconf/internal/stats"
	"github.com/ajitpratap0/warpconf/internal/topology"
	"github.com/ajitpratap0/warpconf/pkg/config"
	"github.com/ajitpratap0/warpconf/pkg/connector"
	"github.com/ajitpratap0/warpconf/pkg/connector/kinds"
	"github.com/ajitpratap0/warpconf/pkg/connector/registry"
	"github.com/ajitpratap0/warpconf/pkg/errors"
	"github.com/ajitpratap0/warpconf/pkg/lint"
	"github.com/ajitpratap0/warpconf/pkg/logger"
	"github.com/ajitpratap0/warpconf/pkg/validate"
)

// Project is a work root on a filesystem
type Project struct {
	fs       afero.Fs
	workRoot string
	disc     *discovery.Discovery
	registry *registry.Registry
	logger   *zap.Logger

	engine *config.EngineConfig
}

// Open creates a project rooted at workRoot. Nothing is read until needed.
func Open(fs afero.Fs, workRoot string) *Project {
	l := logger.Get().With(zap.String("component", "project"), zap.String("work_root", workRoot))
	return &Project{
		fs:       fs,
		workRoot: workRoot,
		disc:     discovery.New(fs).WithLogger(l),
		registry: kinds.NewRegistry().WithLogger(l),
		logger:   l,
	}
}

// WithRegistry replaces the kind registry used by connector checks
func (p *Project) WithRegistry(r *registry.Registry) *Project {
	p.registry = r
	return p
}

// WithLogger replaces the logger
func (p *Project) WithLogger(l *zap.Logger) *Project {
	p.logger = l
	p.disc.WithLogger(l)
	return p
}

// WorkRoot returns the project root
func (p *Project) WorkRoot() string { return p.workRoot }

// Engine loads the engine config once
func (p *Project) Engine() (*config.EngineConfig, error) {
	if p.engine != nil {
		return p.engine, nil
	}
	cfg, err := config.LoadEngine(p.fs, p.workRoot)
	if err != nil {
		return nil, err
	}
	p.engine = cfg
	return cfg, nil
}

// SinksRoot returns the absolute sinks topology root
func (p *Project) SinksRoot() (string, error) {
	cfg, err := p.Engine()
	if err != nil {
		return "", err
	}
	return resolveUnder(p.workRoot, cfg.SinksRoot()), nil
}

// LintRows returns the lint rows of every connector definition
func (p *Project) LintRows() ([]lint.Row, error) {
	return p.disc.LintRows(p.workRoot)
}

// LintConnectors fails with one aggregated lint error when any definition
// breaks a naming rule or does not parse.
func (p *Project) LintConnectors() error {
	return lint.Lint(p.disc, p.workRoot)
}

// Connectors lists every definition, sources first
func (p *Project) Connectors() ([]connector.Record, error) {
	return p.disc.All(p.workRoot)
}

// ConnectorCheck is the outcome of checking one definition's parameters
type ConnectorCheck struct {
	Scope connector.Scope `json:"scope"`
	ID    string          `json:"id"`
	Kind  string          `json:"kind"`
	File  string          `json:"file"`
	Error string          `json:"error,omitempty"`
}

// OK reports whether the definition passed
func (c ConnectorCheck) OK() bool { return c.Error == "" }

// CheckConnectors runs the registered kind checker over every definition
// of the given scopes. No scope means both.
func (p *Project) CheckConnectors(scopes ...connector.Scope) ([]ConnectorCheck, error) {
	recs, err := p.Connectors()
	if err != nil {
		return nil, err
	}

	var out []ConnectorCheck
	for _, rec := range recs {
		if len(scopes) > 0 && !hasScope(scopes, rec.Scope) {
			continue
		}
		c := ConnectorCheck{Scope: rec.Scope, ID: rec.ID, Kind: rec.Kind, File: relTo(p.workRoot, rec.Origin)}
		var cerr error
		if rec.Scope == connector.ScopeSources {
			cerr = p.registry.CheckSource(rec.Kind, rec.Params)
		} else {
			cerr = p.registry.CheckSink(rec.Kind, rec.Params)
		}
		if cerr != nil {
			c.Error = cerr.Error()
			p.logger.Debug("connector check failed", zap.String("id", rec.ID), zap.Error(cerr))
		}
		out = append(out, c)
	}
	return out, nil
}

// CheckFailure turns failed connector checks into one error, or nil
func CheckFailure(checks []ConnectorCheck) error {
	var lines []string
	for _, c := range checks {
		if !c.OK() {
			lines = append(lines, string(c.Scope)+": "+c.ID+" in "+c.File+": "+c.Error)
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return errors.Newf(errors.ErrorTypeValidation, "connectors check failed: %d error(s)\n%s",
		len(lines), strings.Join(lines, "\n")).
		WithDetail("count", len(lines)).
		WithDetail("lines", lines)
}

// Groups loads the sink groups matching f
func (p *Project) Groups(f topology.Filter) ([]validate.Group, error) {
	root, err := p.SinksRoot()
	if err != nil {
		return nil, err
	}
	return topology.NewLoader(p.fs, p.disc).WithLogger(p.logger).Load(p.workRoot, root, f)
}

// CountStats counts the output lines of the file-backed sinks of groups
func (p *Project) CountStats(groups []validate.Group) (*validate.Stats, error) {
	return stats.NewCounter(p.fs).WithLogger(p.logger).Collect(p.workRoot, groups)
}

// ValidateOptions selects the groups to validate and the stats to use
type ValidateOptions struct {
	Filter topology.Filter
	// InputCount overrides every group total
	InputCount *uint64
	// StatsFile is read instead of counting sink output files
	StatsFile string
	// ConfigOnly skips statistics altogether
	ConfigOnly bool
}

// Validation is the result of validating sink groups
type Validation struct {
	Groups []validate.Group
	Stats  *validate.Stats
	Report validate.Report
}

// Validate checks sink groups against their expectations
func (p *Project) Validate(opts ValidateOptions) (*Validation, error) {
	groups, err := p.Groups(opts.Filter)
	if err != nil {
		return nil, err
	}

	var st *validate.Stats
	switch {
	case opts.ConfigOnly:
	case opts.StatsFile != "":
		st, err = stats.LoadFile(p.fs, resolveUnder(p.workRoot, opts.StatsFile))
	default:
		st, err = p.CountStats(groups)
	}
	if err != nil {
		return nil, err
	}

	return &Validation{
		Groups: groups,
		Stats:  st,
		Report: validate.Validate(groups, st, opts.InputCount),
	}, nil
}

// Failure returns a validation error when the report fails
func (v *Validation) Failure() error {
	if !v.Report.HasErrorFail() {
		return nil
	}
	warns, errs, panics := v.Report.Counts()
	return errors.New(errors.ErrorTypeValidation, "validate failed").
		WithDetail("errors", errs).
		WithDetail("warnings", warns).
		WithDetail("panics", panics)
}

func hasScope(scopes []connector.Scope, s connector.Scope) bool {
	for _, v := range scopes {
		if v == s {
			return true
		}
	}
	return false
}

// KnownKinds lists the sink and source kinds with a registered checker
func (p *Project) KnownKinds() (sinks, sources []string) {
	return p.registry.ListSinks(), p.registry.ListSources()
}
