// Package wpgen implements the generator configuration workflows: loading
// and resolving a generator config, managing the config file, and cleaning
// generated output.
package wpgen

import (
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/ajitpratap0/warpconf/internal/discovery"
	"github.com/ajitpratap0/warpconf/pkg/config"
	"github.com/ajitpratap0/warpconf/pkg/errors"
	"github.com/ajitpratap0/warpconf/pkg/logger"
	"github.com/ajitpratap0/warpconf/pkg/resolve"
)

// Resolved is a loaded generator config and its resolved output sink
type Resolved struct {
	Conf    *config.WpGenConfig
	OutSink resolve.SinkSpec
}

// Service runs generator workflows against a filesystem
type Service struct {
	fs     afero.Fs
	lookup resolve.Lookup
	logger *zap.Logger
}

// New creates a service reading connectors through discovery on fs
func New(fs afero.Fs) *Service {
	return &Service{
		fs:     fs,
		lookup: discovery.New(fs),
		logger: logger.Get().With(zap.String("component", "wpgen")),
	}
}

// WithLookup replaces the connector lookup
func (s *Service) WithLookup(l resolve.Lookup) *Service {
	s.lookup = l
	return s
}

// WithLogger replaces the logger
func (s *Service) WithLogger(l *zap.Logger) *Service {
	s.logger = l
	return s
}

// LoadResolved loads conf/<confName> under workRoot and resolves its output
// sink against the engine's sinks root.
func (s *Service) LoadResolved(workRoot, confName string) (*Resolved, error) {
	engine, err := config.LoadEngine(s.fs, workRoot)
	if err != nil {
		return nil, err
	}
	conf, err := config.LoadWpGen(s.fs, config.WpGenPath(workRoot, confName))
	if err != nil {
		return nil, err
	}

	spec, err := resolve.NewResolver(s.lookup).Resolve(workRoot, engine.SinksRoot(), conf)
	if err != nil {
		return nil, err
	}
	s.LogResolved(spec)
	return &Resolved{Conf: conf, OutSink: spec}, nil
}

// LogResolved records the resolved output sink at info level
func (s *Service) LogResolved(spec resolve.SinkSpec) {
	s.logger.Info("out sink resolved",
		zap.String("name", spec.Name),
		zap.String("connector_id", spec.ConnectorID),
		zap.String("kind", spec.Kind),
		zap.String("format", string(spec.Format)),
		zap.Any("params", spec.Params))
}

// ConfInit writes the default generator config unless one exists. It
// returns the config path and whether the file was written.
func (s *Service) ConfInit(workRoot string) (string, bool, error) {
	path := config.WpGenPath(workRoot, "")
	exists, err := afero.Exists(s.fs, path)
	if err != nil {
		return path, false, errors.Wrap(err, errors.ErrorTypeFile, "failed to stat generator config").
			WithDetail("path", path)
	}
	if exists {
		s.logger.Info("generator config already present", zap.String("path", path))
		return path, false, nil
	}
	if err := config.Save(s.fs, path, config.DefaultWpGenConfig()); err != nil {
		return path, false, err
	}
	s.logger.Info("generator config written", zap.String("path", path))
	return path, true, nil
}

// ConfClean removes the generator config. A missing file is not an error.
func (s *Service) ConfClean(workRoot string) (string, bool, error) {
	path := config.WpGenPath(workRoot, "")
	exists, err := afero.Exists(s.fs, path)
	if err != nil || !exists {
		return path, false, nil
	}
	if err := s.fs.Remove(path); err != nil {
		return path, false, errors.Wrap(err, errors.ErrorTypeFile, "failed to remove generator config").
			WithDetail("path", path)
	}
	return path, true, nil
}

// ConfCheck loads and resolves the default generator config
func (s *Service) ConfCheck(workRoot string) error {
	_, err := s.LoadResolved(workRoot, config.WpGenFile)
	return err
}

// CleanReport describes one attempt to remove generated output
type CleanReport struct {
	Path    *string `json:"path"`
	Existed bool    `json:"existed"`
	Cleaned bool    `json:"cleaned"`
	Note    *string `json:"note"`
}

// Line renders the report for humans. ok is false when the report carries
// no path; toStderr is set for a failed removal.
func (r CleanReport) Line() (line string, toStderr, ok bool) {
	if r.Path == nil {
		return "", false, false
	}
	switch {
	case r.Cleaned:
		return fmt.Sprintf("wpgen: cleaned %s", *r.Path), false, true
	case r.Existed:
		return fmt.Sprintf("wpgen: failed to clean %s", *r.Path), true, true
	default:
		return fmt.Sprintf("wpgen: nothing to clean (not found): %s", *r.Path), false, true
	}
}

// CleanOutput removes the file the generator config writes to. Problems
// loading the config, non-file sinks and localOnly=false are reported as
// notes, never as errors.
func (s *Service) CleanOutput(workRoot, confName string, localOnly bool) CleanReport {
	if !localOnly {
		return CleanReport{Note: note("local_only=false (skip)")}
	}

	resolved, err := s.LoadResolved(workRoot, confName)
	if err != nil {
		s.logger.Debug("clean skipped", zap.Error(err))
		return CleanReport{Note: note(fmt.Sprintf("config '%s' not found or invalid", confName))}
	}

	path, ok := resolved.OutSink.FilePath(workRoot)
	if !ok {
		return CleanReport{Note: note("output target is not a file sink")}
	}

	rep := CleanReport{Path: &path}
	rep.Existed, _ = afero.Exists(s.fs, path)
	if rep.Existed {
		if err := s.fs.Remove(path); err != nil {
			s.logger.Warn("failed to remove generated output", zap.String("path", path), zap.Error(err))
		} else {
			rep.Cleaned = true
		}
	}
	return rep
}

func note(s string) *string { return &s }
