// Package stats gathers the observed line counts of sink outputs.
package stats

import (
	"bytes"
	"io"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/warpconf/pkg/connector"
	"github.com/ajitpratap0/warpconf/pkg/errors"
	"github.com/ajitpratap0/warpconf/pkg/logger"
	"github.com/ajitpratap0/warpconf/pkg/resolve"
	"github.com/ajitpratap0/warpconf/pkg/validate"
)

const readChunk = 32 * 1024

// Counter counts lines of file-backed sinks
type Counter struct {
	fs     afero.Fs
	logger *zap.Logger
}

// NewCounter creates a counter over fs
func NewCounter(fs afero.Fs) *Counter {
	return &Counter{
		fs:     fs,
		logger: logger.Get().With(zap.String("component", "stats")),
	}
}

// WithLogger replaces the logger
func (c *Counter) WithLogger(l *zap.Logger) *Counter {
	c.logger = l
	return c
}

// Collect produces one stat per bound sink of groups, in group order. Sinks
// that are not file-backed, and files that do not exist, are reported with
// Found false. Total is the sum of all found lines.
func (c *Counter) Collect(workRoot string, groups []validate.Group) (*validate.Stats, error) {
	var items []validate.SinkStat
	for _, g := range groups {
		for _, s := range g.Sinks {
			if s.Spec == nil {
				continue
			}
			item := validate.SinkStat{Group: g.Name, Sink: s.Name}
			if p, ok := s.Spec.FilePath(workRoot); ok {
				item.Path = p
			}
			items = append(items, item)
		}
	}

	return c.count(items)
}

// SourceGroup is the group name given to source stats
const SourceGroup = "sources"

// CollectSources produces one stat per source definition, in the given
// order. File sources are counted like sink outputs; other kinds are
// reported with Found false.
func (c *Counter) CollectSources(workRoot string, recs []connector.Record) (*validate.Stats, error) {
	items := make([]validate.SinkStat, 0, len(recs))
	for _, rec := range recs {
		item := validate.SinkStat{Group: SourceGroup, Sink: rec.ID}
		if rec.Kind == resolve.KindFile {
			if p, ok := resolve.FileTarget(rec.Params, workRoot, ""); ok {
				item.Path = p
			}
		}
		items = append(items, item)
	}
	return c.count(items)
}

// count fills in the lines of every item with a path, concurrently
func (c *Counter) count(items []validate.SinkStat) (*validate.Stats, error) {
	var eg errgroup.Group
	eg.SetLimit(runtime.NumCPU())
	for i := range items {
		if items[i].Path == "" {
			continue
		}
		i := i
		eg.Go(func() error {
			if ok, _ := afero.Exists(c.fs, items[i].Path); !ok {
				c.logger.Debug("output not found", zap.String("path", items[i].Path))
				return nil
			}
			n, err := c.CountLines(items[i].Path)
			if err != nil {
				return err
			}
			items[i].Lines = n
			items[i].Found = true
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	st := &validate.Stats{Items: items}
	for _, it := range items {
		if it.Found {
			st.Total += it.Lines
		}
	}
	return st, nil
}

// CountLines counts the lines of a file. A final line without a trailing
// newline is counted. Files ending in .gz, .zst or .lz4 are decompressed
// while counting.
func (c *Counter) CountLines(path string) (uint64, error) {
	f, err := c.fs.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeFile, "failed to open sink output").
			WithDetail("path", path)
	}
	defer f.Close()

	r, closer, err := decompress(path, f)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeFile, "failed to open compressed sink output").
			WithDetail("path", path)
	}
	defer closer()

	var (
		lines uint64
		last  byte = '\n'
		buf        = make([]byte, readChunk)
	)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			lines += uint64(bytes.Count(buf[:n], []byte{'\n'}))
			last = buf[n-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, errors.Wrap(err, errors.ErrorTypeFile, "failed to read sink output").
				WithDetail("path", path)
		}
	}
	if last != '\n' {
		lines++
	}
	return lines, nil
}

// decompress wraps r by the compression suffix of path
func decompress(path string, r io.Reader) (io.Reader, func(), error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { _ = zr.Close() }, nil
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	case ".lz4":
		return lz4.NewReader(r), func() {}, nil
	default:
		return r, func() {}, nil
	}
}

// LoadFile reads stats from a JSON file. A zero total is recomputed from
// the found items.
func LoadFile(fs afero.Fs, path string) (*validate.Stats, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read stats file").
			WithDetail("path", path)
	}
	var st validate.Stats
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse stats file").
			WithDetail("path", path)
	}
	if st.Total == 0 {
		for _, it := range st.Items {
			if it.Found {
				st.Total += it.Lines
			}
		}
	}
	return &st, nil
}
