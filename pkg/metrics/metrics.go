// Package metrics exposes lint and validation results as Prometheus metrics.
//
// A Collector owns its own registry, so several collectors can coexist in
// one process and tests stay isolated. Results are written in the text
// exposition format, suitable for the node_exporter textfile collector.
//
// # Basic Usage
//
//	c := metrics.NewCollector()
//	c.ObserveValidation(groups, stats, inputOverride, report)
//	if err := c.WriteTextfile(fs, "/var/lib/node_exporter/warpconf.prom"); err != nil {
//	    return err
//	}
package metrics

import (
	"bytes"
	"io"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/afero"

	"github.com/ajitpratap0/warpconf/pkg/errors"
	"github.com/ajitpratap0/warpconf/pkg/lint"
	"github.com/ajitpratap0/warpconf/pkg/validate"
)

const namespace = "warpconf"

// Collector records lint and validation outcomes
type Collector struct {
	registry *prometheus.Registry

	sinkLines      *prometheus.GaugeVec // Observed lines per sink
	sinkRatio      *prometheus.GaugeVec // Observed share of the group total
	sinkExpected   *prometheus.GaugeVec // Declared ratio
	groupTotal     *prometheus.GaugeVec // Group total used for ratios
	issues         *prometheus.GaugeVec // Validation issues by severity
	lintRows       *prometheus.GaugeVec // Lint rows by scope and severity
	validationPass prometheus.Gauge     // 1 when the last validation passed
	lastRun        prometheus.Gauge     // Unix time of the last observation
}

// NewCollector creates a collector with a private registry
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		sinkLines: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sink_lines",
			Help:      "Lines observed in a sink output",
		}, []string{"group", "sink"}),
		sinkRatio: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sink_ratio",
			Help:      "Observed share of the group total written to a sink",
		}, []string{"group", "sink"}),
		sinkExpected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sink_expected_ratio",
			Help:      "Declared share of the group total for a sink",
		}, []string{"group", "sink"}),
		groupTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "group_total_lines",
			Help:      "Total lines a sink group's ratios are computed against",
		}, []string{"group"}),
		issues: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "validation_issues",
			Help:      "Validation issues by severity",
		}, []string{"severity"}),
		lintRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lint_rows",
			Help:      "Connector lint rows by scope and severity",
		}, []string{"scope", "severity"}),
		validationPass: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "validation_pass",
			Help:      "1 when the last validation had no error or panic",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last recorded run",
		}),
	}
	c.registry.MustRegister(
		c.sinkLines, c.sinkRatio, c.sinkExpected, c.groupTotal,
		c.issues, c.lintRows, c.validationPass, c.lastRun,
	)
	return c
}

// Registry returns the collector's registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveValidation records a validation run. stats may be nil.
func (c *Collector) ObserveValidation(groups []validate.Group, stats *validate.Stats, inputOverride *uint64, r validate.Report) {
	for _, g := range groups {
		total := stats.GroupTotal(g.Name)
		if inputOverride != nil {
			total = *inputOverride
		}
		if stats != nil {
			c.groupTotal.WithLabelValues(g.Name).Set(float64(total))
		}
		for _, s := range g.Sinks {
			if s.Expect != nil && s.Expect.Ratio != nil {
				c.sinkExpected.WithLabelValues(g.Name, s.Name).Set(*s.Expect.Ratio)
			}
			st, ok := stats.Lookup(g.Name, s.Name)
			if !ok || !st.Found {
				continue
			}
			c.sinkLines.WithLabelValues(g.Name, s.Name).Set(float64(st.Lines))
			if total > 0 {
				c.sinkRatio.WithLabelValues(g.Name, s.Name).Set(float64(st.Lines) / float64(total))
			}
		}
	}

	warns, errs, panics := r.Counts()
	c.issues.WithLabelValues(validate.SeverityWarn.String()).Set(float64(warns))
	c.issues.WithLabelValues(validate.SeverityError.String()).Set(float64(errs))
	c.issues.WithLabelValues(validate.SeverityPanic.String()).Set(float64(panics))
	if r.HasErrorFail() {
		c.validationPass.Set(0)
	} else {
		c.validationPass.Set(1)
	}
	c.touch()
}

// ObserveStats records sink line counts without a validation
func (c *Collector) ObserveStats(stats *validate.Stats) {
	if stats == nil {
		return
	}
	for _, it := range stats.Items {
		if it.Found {
			c.sinkLines.WithLabelValues(it.Group, it.Sink).Set(float64(it.Lines))
		}
	}
	c.touch()
}

// ObserveLint records the lint rows of a project
func (c *Collector) ObserveLint(rows []lint.Row) {
	c.lintRows.Reset()
	for _, r := range rows {
		c.lintRows.WithLabelValues(string(r.Scope), r.Sev.String()).Inc()
	}
	c.touch()
}

func (c *Collector) touch() {
	c.lastRun.Set(float64(time.Now().Unix()))
}

// WriteText writes every gathered metric family in the text exposition
// format.
func (c *Collector) WriteText(w io.Writer) error {
	families, err := c.registry.Gather()
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to gather metrics")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode metrics")
		}
	}
	return nil
}

// WriteTextfile writes the metrics to path through a temporary file and a
// rename, so a scraper never reads a partial file.
func (c *Collector) WriteTextfile(fs afero.Fs, path string) error {
	var buf bytes.Buffer
	if err := c.WriteText(&buf); err != nil {
		return err
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create metrics dir").
			WithDetail("path", path)
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write metrics file").
			WithDetail("path", tmp)
	}
	if err := fs.Rename(tmp, path); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to move metrics file into place").
			WithDetail("path", path)
	}
	return nil
}
