package metrics

import (
	"bytes"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/warpconf/pkg/connector"
	"github.com/ajitpratap0/warpconf/pkg/lint"
	"github.com/ajitpratap0/warpconf/pkg/validate"
)

func ratio(v float64) *validate.Expect { return &validate.Expect{Ratio: &v} }

func TestObserveValidation(t *testing.T) {
	c := NewCollector()
	groups := []validate.Group{{
		Name: "demo",
		Sinks: []validate.Sink{
			{Name: "a", Expect: ratio(0.25)},
			{Name: "b", Expect: ratio(0.75)},
		},
	}}
	stats := &validate.Stats{Total: 200, Items: []validate.SinkStat{
		{Group: "demo", Sink: "a", Lines: 50, Found: true},
		{Group: "demo", Sink: "b", Lines: 150, Found: true},
	}}
	report := validate.Report{Items: []validate.Issue{{Severity: validate.SeverityWarn, Group: "demo"}}}

	c.ObserveValidation(groups, stats, nil, report)

	assert.Equal(t, 50.0, testutil.ToFloat64(c.sinkLines.WithLabelValues("demo", "a")))
	assert.Equal(t, 0.75, testutil.ToFloat64(c.sinkRatio.WithLabelValues("demo", "b")))
	assert.Equal(t, 0.25, testutil.ToFloat64(c.sinkExpected.WithLabelValues("demo", "a")))
	assert.Equal(t, 200.0, testutil.ToFloat64(c.groupTotal.WithLabelValues("demo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.issues.WithLabelValues("WARN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.validationPass))

	c.ObserveValidation(groups, stats, nil, validate.Report{Items: []validate.Issue{{Severity: validate.SeverityPanic}}})
	assert.Equal(t, 0.0, testutil.ToFloat64(c.validationPass))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.issues.WithLabelValues("WARN")))
}

func TestObserveLint(t *testing.T) {
	c := NewCollector()
	c.ObserveLint([]lint.Row{
		{Scope: connector.ScopeSinks, Sev: lint.SeverityOk},
		{Scope: connector.ScopeSinks, Sev: lint.SeverityOk},
		{Scope: connector.ScopeSources, Sev: lint.SeverityError},
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(c.lintRows.WithLabelValues("sinks", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.lintRows.WithLabelValues("sources", "ERROR")))
}

func TestWriteTextfile(t *testing.T) {
	c := NewCollector()
	c.ObserveStats(&validate.Stats{Items: []validate.SinkStat{{Group: "g", Sink: "s", Lines: 7, Found: true}}})

	var buf bytes.Buffer
	require.NoError(t, c.WriteText(&buf))
	assert.Contains(t, buf.String(), `warpconf_sink_lines{group="g",sink="s"} 7`)
	assert.Contains(t, buf.String(), "# TYPE warpconf_last_run_timestamp_seconds gauge")

	fs := afero.NewMemMapFs()
	require.NoError(t, c.WriteTextfile(fs, "/metrics/warpconf.prom"))
	data, err := afero.ReadFile(fs, "/metrics/warpconf.prom")
	require.NoError(t, err)
	assert.Contains(t, string(data), "warpconf_sink_lines")

	leftover, _ := afero.Exists(fs, "/metrics/warpconf.prom.tmp")
	assert.False(t, leftover)
}
