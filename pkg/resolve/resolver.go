// Package resolve turns a connector id plus caller overrides into a
// fully-resolved sink.
//
// Resolution is a pure function of its inputs: the connector mapping comes
// from a Lookup supplied by the caller, nothing is cached, and every call
// allocates fresh tables. Callers may resolve concurrently.
package resolve

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/ajitpratap0/warpconf/pkg/config"
	"github.com/ajitpratap0/warpconf/pkg/connector"
	"github.com/ajitpratap0/warpconf/pkg/errors"
	"github.com/ajitpratap0/warpconf/pkg/params"
)

const (
	// DefaultSinkName names the generator output when output.name is unset
	DefaultSinkName = "gen_out"
	// DefaultFileBase is the directory file sinks write under without a base
	DefaultFileBase = "./data/out_dat"

	maxKnownIDs = 8
)

// Lookup supplies the connector definitions reachable from a sinks root
type Lookup interface {
	Connectors(root string) (map[string]connector.Record, error)
}

// LookupFunc adapts a function to Lookup
type LookupFunc func(root string) (map[string]connector.Record, error)

// Connectors calls f(root)
func (f LookupFunc) Connectors(root string) (map[string]connector.Record, error) {
	return f(root)
}

// SinkSpec is a resolved sink, ready for a writer to instantiate
type SinkSpec struct {
	Name        string        `json:"name"`
	Format      Format        `json:"format"`
	Kind        string        `json:"kind"`
	Params      *params.Table `json:"params"`
	ConnectorID string        `json:"connector_id"`
}

// FilePath returns the target file of a file sink. The path parameter wins;
// otherwise base (default ./data/out_dat) is joined with file. Relative
// results are taken under workRoot. ok is false for non-file sinks and for
// file sinks without a path or file.
func (s SinkSpec) FilePath(workRoot string) (string, bool) {
	if s.Kind != KindFile {
		return "", false
	}
	return FileTarget(s.Params, workRoot, DefaultFileBase)
}

// FileTarget locates the file named by file-kind parameters: path, else
// base joined with file. An empty base falls back to defaultBase. Relative
// results are taken under workRoot.
func FileTarget(p *params.Table, workRoot, defaultBase string) (string, bool) {
	path, ok := p.GetString("path")
	if !ok || path == "" {
		file, ok := p.GetString("file")
		if !ok || file == "" {
			return "", false
		}
		base, ok := p.GetString("base")
		if !ok || base == "" {
			base = defaultBase
		}
		path = filepath.Join(base, file)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(workRoot, path)
	}
	return filepath.Clean(path), true
}

// SinksRoot resolves the configured sinks path against workRoot
func SinksRoot(workRoot, sinksRoot string) string {
	if filepath.IsAbs(sinksRoot) {
		return sinksRoot
	}
	return filepath.Join(workRoot, sinksRoot)
}

// Find returns the record for id. The not-found error lists up to eight
// known ids in sorted order.
func Find(conns map[string]connector.Record, root, id string) (connector.Record, error) {
	if rec, ok := conns[id]; ok {
		return rec, nil
	}

	known := make([]string, 0, len(conns))
	for k := range conns {
		known = append(known, k)
	}
	sort.Strings(known)
	if len(known) > maxKnownIDs {
		known = known[:maxKnownIDs]
	}

	return connector.Record{}, errors.Newf(errors.ErrorTypeNotFound,
		"wpgen.output.connect='%s' not found: searched up to 32 levels upward from start='%s' for 'connectors/sink.d'; known ids: [%s]",
		id, root, strings.Join(known, ", ")).
		WithDetail("connector_id", id).
		WithDetail("root", root).
		WithDetail("known", known)
}

// Bind merges overrides into rec and picks the format, without any
// generation policy. Sink group sinks are bound this way.
func Bind(rec connector.Record, id, name string, overrides *params.Table) (SinkSpec, error) {
	merged, err := MergeParams(rec, id, overrides)
	if err != nil {
		return SinkSpec{}, err
	}
	return SinkSpec{
		Name:        name,
		Format:      SelectFormat(rec.Kind, merged),
		Kind:        rec.Kind,
		Params:      merged,
		ConnectorID: id,
	}, nil
}

// Resolver resolves the generator output sink
type Resolver struct {
	lookup Lookup
}

// NewResolver creates a resolver reading connectors through lookup
func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve produces the output sink of a generator config. sinksRoot is the
// engine's configured sinks path, absolute or relative to workRoot.
func (r *Resolver) Resolve(workRoot, sinksRoot string, conf *config.WpGenConfig) (SinkSpec, error) {
	outName := conf.Output.Name
	if outName == "" {
		outName = DefaultSinkName
	}

	connID := conf.Output.Connect
	if connID == "" {
		return SinkSpec{}, errors.New(errors.ErrorTypeMissingField,
			"wpgen.output.connect must be set (no default fallback)").
			WithDetail("field", "output.connect")
	}

	root := SinksRoot(workRoot, sinksRoot)
	conns, err := r.lookup.Connectors(root)
	if err != nil {
		return SinkSpec{}, err
	}

	rec, err := Find(conns, root, connID)
	if err != nil {
		return SinkSpec{}, err
	}

	overrides, err := conf.OverrideTable()
	if err != nil {
		return SinkSpec{}, err
	}

	merged, err := MergeParams(rec, connID, overrides)
	if err != nil {
		return SinkSpec{}, err
	}
	ApplyPolicy(rec.Kind, merged, conf.Generator.Speed)

	return SinkSpec{
		Name:        outName,
		Format:      SelectFormat(rec.Kind, merged),
		Kind:        rec.Kind,
		Params:      merged,
		ConnectorID: connID,
	}, nil
}
