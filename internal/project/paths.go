package project

import (
	"path/filepath"

	"github.com/ajitpratap0/warpconf/internal/discovery"
	"github.com/ajitpratap0/warpconf/pkg/config"
	"github.com/ajitpratap0/warpconf/pkg/connector"
)

// Paths are the well-known locations of a project
type Paths struct {
	WorkRoot   string `json:"work_root"`
	EngineConf string `json:"engine_conf"`
	WpGenConf  string `json:"wpgen_conf"`
	SinkDefs   string `json:"sink_defs"`
	SourceDefs string `json:"source_defs"`
	Sinks      string `json:"sinks"`
	Sources    string `json:"sources"`
	Models     string `json:"models"`
}

// Paths reports the project's locations from its engine config
func (p *Project) Paths() (Paths, error) {
	cfg, err := p.Engine()
	if err != nil {
		return Paths{}, err
	}
	conns := filepath.Join(p.workRoot, discovery.ConnectorsDir)
	return Paths{
		WorkRoot:   p.workRoot,
		EngineConf: config.EnginePath(p.workRoot),
		WpGenConf:  config.WpGenPath(p.workRoot, ""),
		SinkDefs:   filepath.Join(conns, connector.ScopeSinks.Dir()),
		SourceDefs: filepath.Join(conns, connector.ScopeSources.Dir()),
		Sinks:      resolveUnder(p.workRoot, cfg.Topology.Sinks),
		Sources:    resolveUnder(p.workRoot, cfg.Topology.Sources),
		Models:     resolveUnder(p.workRoot, filepath.Dir(cfg.Models.WPL)),
	}, nil
}

func resolveUnder(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}

func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
