// Package topology loads sink group definitions and binds each member sink
// to its connector.
package topology

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/ajitpratap0/warpconf/pkg/config"
	"github.com/ajitpratap0/warpconf/pkg/connector"
	"github.com/ajitpratap0/warpconf/pkg/errors"
	"github.com/ajitpratap0/warpconf/pkg/logger"
	"github.com/ajitpratap0/warpconf/pkg/params"
	"github.com/ajitpratap0/warpconf/pkg/resolve"
	"github.com/ajitpratap0/warpconf/pkg/validate"
)

// Group scopes, each read from <sinks root>/<scope>.d
const (
	ScopeBusiness = "business"
	ScopeInfra    = "infra"
)

// Scopes lists the group scopes in load order
var Scopes = []string{ScopeBusiness, ScopeInfra}

type groupFile struct {
	SinkGroup groupDef `toml:"sink_group" yaml:"sink_group" json:"sink_group"`
}

type groupDef struct {
	Name  string    `toml:"name" yaml:"name" json:"name"`
	Sinks []sinkDef `toml:"sinks" yaml:"sinks" json:"sinks"`
}

type sinkDef struct {
	Name    string                 `toml:"name" yaml:"name" json:"name"`
	Connect string                 `toml:"connect" yaml:"connect" json:"connect"`
	Params  map[string]interface{} `toml:"params" yaml:"params" json:"params"`
	Expect  *validate.Expect       `toml:"expect" yaml:"expect" json:"expect"`
}

// Filter narrows the loaded groups. Empty fields match everything.
type Filter struct {
	Groups []string
	Sinks  []string
	// PathLike keeps sinks whose group file or target file path contains it
	PathLike string
}

func (f Filter) group(name string) bool {
	return len(f.Groups) == 0 || contains(f.Groups, name)
}

func (f Filter) sink(name string, paths ...string) bool {
	if len(f.Sinks) > 0 && !contains(f.Sinks, name) {
		return false
	}
	if f.PathLike == "" {
		return true
	}
	for _, p := range paths {
		if p != "" && strings.Contains(p, f.PathLike) {
			return true
		}
	}
	return false
}

func (f Filter) narrowsSinks() bool {
	return len(f.Sinks) > 0 || f.PathLike != ""
}

// Loader reads sink groups from a filesystem
type Loader struct {
	fs     afero.Fs
	lookup resolve.Lookup
	logger *zap.Logger
}

// NewLoader creates a loader binding sinks through lookup
func NewLoader(fs afero.Fs, lookup resolve.Lookup) *Loader {
	return &Loader{
		fs:     fs,
		lookup: lookup,
		logger: logger.Get().With(zap.String("component", "topology")),
	}
}

// WithLogger replaces the logger
func (l *Loader) WithLogger(zl *zap.Logger) *Loader {
	l.logger = zl
	return l
}

// Load reads every group under sinksRoot, business groups first, each
// scope in sorted file order. A sink that cannot be bound carries the
// binding error instead of a spec; an unreadable group file fails the load.
func (l *Loader) Load(workRoot, sinksRoot string, f Filter) ([]validate.Group, error) {
	conns, err := l.lookup.Connectors(sinksRoot)
	if err != nil {
		return nil, err
	}

	var groups []validate.Group
	for _, scope := range Scopes {
		files, err := l.groupFiles(filepath.Join(sinksRoot, scope+".d"))
		if err != nil {
			return nil, err
		}
		for _, path := range files {
			var gf groupFile
			if err := config.Load(l.fs, path, &gf); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to load sink group").
					WithDetail("path", path)
			}

			rel, _ := filepath.Rel(sinksRoot, path)
			name := gf.SinkGroup.Name
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}
			if !f.group(name) {
				continue
			}

			g := validate.Group{Name: name, Scope: scope, File: rel}
			for _, def := range gf.SinkGroup.Sinks {
				s := bindSink(conns, sinksRoot, def)
				target := ""
				if s.Spec != nil {
					target, _ = s.Spec.FilePath(workRoot)
				}
				if !f.sink(s.Name, rel, target) {
					continue
				}
				g.Sinks = append(g.Sinks, s)
			}
			if f.narrowsSinks() && len(g.Sinks) == 0 && len(gf.SinkGroup.Sinks) > 0 {
				continue
			}

			l.logger.Debug("sink group loaded",
				zap.String("group", g.Name),
				zap.String("file", rel),
				zap.Int("sinks", len(g.Sinks)))
			groups = append(groups, g)
		}
	}
	return groups, nil
}

func bindSink(conns map[string]connector.Record, root string, def sinkDef) validate.Sink {
	s := validate.Sink{Name: def.Name, Connect: def.Connect, Expect: def.Expect}
	if s.Name == "" {
		s.Name = def.Connect
	}

	overrides, err := params.TableFromMap(def.Params)
	if err != nil {
		s.Err = errors.Wrap(err, errors.ErrorTypeConfig, "invalid sink params")
		return s
	}
	rec, err := resolve.Find(conns, root, def.Connect)
	if err != nil {
		s.Err = err
		return s
	}
	spec, err := resolve.Bind(rec, def.Connect, s.Name, overrides)
	if err != nil {
		s.Err = err
		return s
	}
	s.Spec = &spec
	return s
}

func (l *Loader) groupFiles(dir string) ([]string, error) {
	entries, err := afero.ReadDir(l.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read sink group directory").
			WithDetail("path", dir)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := config.CodecFor(e.Name()); ok {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
