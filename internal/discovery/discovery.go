// Package discovery finds and parses connector definition files of a
// project. It serves both as the connector lookup used by resolution and as
// the row source used by lint.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/warpconf/pkg/config"
	"github.com/ajitpratap0/warpconf/pkg/connector"
	"github.com/ajitpratap0/warpconf/pkg/errors"
	"github.com/ajitpratap0/warpconf/pkg/logger"
	"github.com/ajitpratap0/warpconf/pkg/params"
)

const (
	// ConnectorsDir is the directory holding sink.d and source.d
	ConnectorsDir = "connectors"
	// MaxSearchDepth bounds the upward search for a connectors directory
	MaxSearchDepth = 32
)

// definitionFile is the on-disk shape of a connector definition file
type definitionFile struct {
	Connectors []definition `toml:"connectors" yaml:"connectors" json:"connectors"`
}

type definition struct {
	ID            string                 `toml:"id" yaml:"id" json:"id"`
	Type          string                 `toml:"type" yaml:"type" json:"type"`
	AllowOverride []string               `toml:"allow_override" yaml:"allow_override" json:"allow_override"`
	Params        map[string]interface{} `toml:"params" yaml:"params" json:"params"`
}

// parsedFile is the outcome of parsing one definition file
type parsedFile struct {
	path    string
	records []connector.Record
	err     error
}

// Discovery reads connector definitions from a filesystem
type Discovery struct {
	fs     afero.Fs
	logger *zap.Logger
}

// New creates a Discovery over fs
func New(fs afero.Fs) *Discovery {
	return &Discovery{
		fs:     fs,
		logger: logger.Get().With(zap.String("component", "discovery")),
	}
}

// WithLogger replaces the logger
func (d *Discovery) WithLogger(l *zap.Logger) *Discovery {
	d.logger = l
	return d
}

// FindDir searches start and up to MaxSearchDepth parents for
// connectors/<scope dir>. It returns the directory found.
func (d *Discovery) FindDir(start string, scope connector.Scope) (string, bool) {
	dir := filepath.Clean(start)
	for i := 0; i <= MaxSearchDepth; i++ {
		candidate := filepath.Join(dir, ConnectorsDir, scope.Dir())
		if ok, _ := afero.IsDir(d.fs, candidate); ok {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

// Connectors returns the sink connectors visible from root, keyed by id.
// A missing connectors directory yields an empty mapping; any unparsable
// definition file is an error.
func (d *Discovery) Connectors(root string) (map[string]connector.Record, error) {
	return d.lookup(root, connector.ScopeSinks)
}

// SourceConnectors returns the source connectors visible from root
func (d *Discovery) SourceConnectors(root string) (map[string]connector.Record, error) {
	return d.lookup(root, connector.ScopeSources)
}

func (d *Discovery) lookup(root string, scope connector.Scope) (map[string]connector.Record, error) {
	dir, ok := d.FindDir(root, scope)
	if !ok {
		d.logger.Debug("no connectors directory found",
			zap.String("start", root), zap.String("scope", string(scope)))
		return map[string]connector.Record{}, nil
	}

	parsed, err := d.parseDir(dir, scope)
	if err != nil {
		return nil, err
	}

	out := make(map[string]connector.Record)
	for _, pf := range parsed {
		if pf.err != nil {
			return nil, errors.Wrap(pf.err, errors.ErrorTypeConfig, "failed to load connector definitions").
				WithDetail("path", pf.path)
		}
		for _, rec := range pf.records {
			if prev, dup := out[rec.ID]; dup {
				d.logger.Warn("duplicate connector id ignored",
					zap.String("id", rec.ID),
					zap.String("kept", prev.Origin),
					zap.String("ignored", rec.Origin))
				continue
			}
			out[rec.ID] = rec
		}
	}
	d.logger.Debug("connectors loaded", zap.String("dir", dir), zap.Int("count", len(out)))
	return out, nil
}

// All returns every definition of both scopes under workRoot, sources
// first, each in file order. Duplicates are kept.
func (d *Discovery) All(workRoot string) ([]connector.Record, error) {
	var out []connector.Record
	for _, scope := range []connector.Scope{connector.ScopeSources, connector.ScopeSinks} {
		parsed, err := d.parseDir(filepath.Join(workRoot, ConnectorsDir, scope.Dir()), scope)
		if err != nil {
			return nil, err
		}
		for _, pf := range parsed {
			if pf.err != nil {
				return nil, errors.Wrap(pf.err, errors.ErrorTypeConfig, "failed to load connector definitions").
					WithDetail("path", pf.path)
			}
			out = append(out, pf.records...)
		}
	}
	return out, nil
}

// definitionFiles lists the definition files of dir in sorted order
func (d *Discovery) definitionFiles(dir string) ([]string, error) {
	entries, err := afero.ReadDir(d.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read connectors directory").
			WithDetail("path", dir)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := config.CodecFor(e.Name()); !ok {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// parseDir parses every definition file in dir concurrently. Results keep
// the sorted file order; per-file failures are carried in parsedFile.err.
func (d *Discovery) parseDir(dir string, scope connector.Scope) ([]parsedFile, error) {
	files, err := d.definitionFiles(dir)
	if err != nil {
		return nil, err
	}

	results := make([]parsedFile, len(files))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			recs, err := d.parseFile(path, scope)
			results[i] = parsedFile{path: path, records: recs, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

func (d *Discovery) parseFile(path string, scope connector.Scope) ([]connector.Record, error) {
	var df definitionFile
	if err := config.Load(d.fs, path, &df); err != nil {
		return nil, err
	}

	recs := make([]connector.Record, 0, len(df.Connectors))
	for i, def := range df.Connectors {
		tbl, err := params.TableFromMap(def.Params)
		if err != nil {
			return nil, fmt.Errorf("connectors[%d] (%s): params: %w", i, def.ID, err)
		}
		recs = append(recs, connector.Record{
			ID:            def.ID,
			Kind:          def.Type,
			Params:        tbl,
			AllowOverride: def.AllowOverride,
			Scope:         scope,
			Origin:        path,
		})
	}
	return recs, nil
}
