package project

import (
	"net"
	"sort"

	"github.com/ajitpratap0/warpconf/internal/stats"
	"github.com/ajitpratap0/warpconf/internal/topology"
	"github.com/ajitpratap0/warpconf/pkg/connector"
	"github.com/ajitpratap0/warpconf/pkg/params"
	"github.com/ajitpratap0/warpconf/pkg/resolve"
	"github.com/ajitpratap0/warpconf/pkg/validate"
)

// Route is one sink of a sink group and where it writes
type Route struct {
	Scope   string         `json:"scope"`
	Group   string         `json:"group"`
	Sink    string         `json:"sink"`
	Connect string         `json:"connect"`
	Kind    string         `json:"kind,omitempty"`
	Format  resolve.Format `json:"format,omitempty"`
	Target  string         `json:"target,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Routes lists the sinks of the groups matching f, in group order. Sinks
// that failed to bind carry the error instead of a kind.
func (p *Project) Routes(f topology.Filter) ([]Route, error) {
	groups, err := p.Groups(f)
	if err != nil {
		return nil, err
	}
	return routesOf(p.workRoot, groups), nil
}

func routesOf(workRoot string, groups []validate.Group) []Route {
	var out []Route
	for _, g := range groups {
		for _, s := range g.Sinks {
			r := Route{Scope: g.Scope, Group: g.Name, Sink: s.Name, Connect: s.Connect}
			if s.Spec == nil {
				if s.Err != nil {
					r.Error = s.Err.Error()
				}
				out = append(out, r)
				continue
			}
			r.Kind = s.Spec.Kind
			r.Format = s.Spec.Format
			if path, ok := s.Spec.FilePath(workRoot); ok {
				r.Target = relTo(workRoot, path)
			} else {
				r.Target = endpoint(s.Spec.Params)
			}
			out = append(out, r)
		}
	}
	return out
}

// endpoint names the remote end of a network connector, or "" when the
// parameters carry none.
func endpoint(p *params.Table) string {
	if topic, ok := p.GetString("topic"); ok && topic != "" {
		return "topic " + topic
	}
	host, ok := p.GetString("addr")
	if !ok {
		host, ok = p.GetString("host")
	}
	if !ok || host == "" {
		return ""
	}
	v, ok := p.Get("port")
	if !ok {
		return host
	}
	return net.JoinHostPort(host, v.String())
}

// SourceRow is one source connector definition
type SourceRow struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	File   string `json:"file"`
	Target string `json:"target,omitempty"`
}

// Sources lists the source definitions sorted by id. File sources carry
// the file they read.
func (p *Project) Sources() ([]SourceRow, error) {
	recs, err := p.sourceRecords()
	if err != nil {
		return nil, err
	}
	out := make([]SourceRow, 0, len(recs))
	for _, rec := range recs {
		row := SourceRow{ID: rec.ID, Kind: rec.Kind, File: relTo(p.workRoot, rec.Origin)}
		if rec.Kind == resolve.KindFile {
			if path, ok := resolve.FileTarget(rec.Params, p.workRoot, ""); ok {
				row.Target = relTo(p.workRoot, path)
			}
		} else {
			row.Target = endpoint(rec.Params)
		}
		out = append(out, row)
	}
	return out, nil
}

// SourceStats counts the lines of the files read by file sources
func (p *Project) SourceStats() (*validate.Stats, error) {
	recs, err := p.sourceRecords()
	if err != nil {
		return nil, err
	}
	return stats.NewCounter(p.fs).WithLogger(p.logger).CollectSources(p.workRoot, recs)
}

func (p *Project) sourceRecords() ([]connector.Record, error) {
	all, err := p.Connectors()
	if err != nil {
		return nil, err
	}
	var recs []connector.Record
	for _, rec := range all {
		if rec.Scope == connector.ScopeSources {
			recs = append(recs, rec)
		}
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	return recs, nil
}

// CombinedStats holds source and sink statistics side by side
type CombinedStats struct {
	Sources *validate.Stats `json:"src"`
	Sinks   *validate.Stats `json:"sink"`
}

// Stats counts both the source inputs and the sink outputs of the groups
// matching f.
func (p *Project) Stats(f topology.Filter) (*CombinedStats, error) {
	src, err := p.SourceStats()
	if err != nil {
		return nil, err
	}
	groups, err := p.Groups(f)
	if err != nil {
		return nil, err
	}
	sink, err := p.CountStats(groups)
	if err != nil {
		return nil, err
	}
	return &CombinedStats{Sources: src, Sinks: sink}, nil
}
