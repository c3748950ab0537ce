package validate

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/warpconf/pkg/errors"
	"github.com/ajitpratap0/warpconf/pkg/params"
	"github.com/ajitpratap0/warpconf/pkg/resolve"
)

func f(v float64) *float64 { return &v }
func u(v uint64) *uint64   { return &v }

func fileSink(name string, expect *Expect) Sink {
	p := params.NewTable()
	p.Set("file", params.String(name+".dat"))
	return Sink{
		Name:    name,
		Connect: "file_json_sink",
		Spec:    &resolve.SinkSpec{Name: name, Kind: resolve.KindFile, Format: resolve.FormatJSON, Params: p, ConnectorID: "file_json_sink"},
		Expect:  expect,
	}
}

func severities(r Report) []Severity {
	out := make([]Severity, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, it.Severity)
	}
	return out
}

func TestHasErrorFail(t *testing.T) {
	warnOnly := Report{Items: []Issue{{Severity: SeverityWarn}, {Severity: SeverityWarn}}}
	assert.False(t, warnOnly.HasErrorFail())

	withError := Report{Items: []Issue{{Severity: SeverityWarn}, {Severity: SeverityError}, {Severity: SeverityWarn}}}
	assert.True(t, withError.HasErrorFail())

	withPanic := Report{Items: []Issue{{Severity: SeverityPanic}}}
	assert.True(t, withPanic.HasErrorFail())

	assert.False(t, Report{}.HasErrorFail())
}

func TestValidateGroupsConfigOnly(t *testing.T) {
	tests := []struct {
		name  string
		group Group
		want  []Severity
	}{
		{
			name:  "ratios sum to one",
			group: Group{Name: "g", Sinks: []Sink{fileSink("a", &Expect{Ratio: f(0.3)}), fileSink("b", &Expect{Ratio: f(0.7)})}},
			want:  []Severity{},
		},
		{
			name:  "small drift warns",
			group: Group{Name: "g", Sinks: []Sink{fileSink("a", &Expect{Ratio: f(0.33)}), fileSink("b", &Expect{Ratio: f(0.665)})}},
			want:  []Severity{SeverityWarn},
		},
		{
			name:  "large drift errors",
			group: Group{Name: "g", Sinks: []Sink{fileSink("a", &Expect{Ratio: f(0.3)}), fileSink("b", &Expect{Ratio: f(0.3)})}},
			want:  []Severity{SeverityError},
		},
		{
			name:  "partial ratios above one",
			group: Group{Name: "g", Sinks: []Sink{fileSink("a", &Expect{Ratio: f(0.8)}), fileSink("b", &Expect{Ratio: f(0.4)}), fileSink("c", nil)}},
			want:  []Severity{SeverityError},
		},
		{
			name:  "partial ratios below one are fine",
			group: Group{Name: "g", Sinks: []Sink{fileSink("a", &Expect{Ratio: f(0.5)}), fileSink("b", nil)}},
			want:  []Severity{},
		},
		{
			name:  "ratio out of range",
			group: Group{Name: "g", Sinks: []Sink{fileSink("a", &Expect{Ratio: f(1.5)})}},
			want:  []Severity{SeverityError, SeverityError},
		},
		{
			name:  "negative tol",
			group: Group{Name: "g", Sinks: []Sink{fileSink("a", &Expect{Ratio: f(1), Tol: f(-0.1)})}},
			want:  []Severity{SeverityError},
		},
		{
			name:  "min above max panics",
			group: Group{Name: "g", Sinks: []Sink{fileSink("a", &Expect{Min: f(0.6), Max: f(0.4)})}},
			want:  []Severity{SeverityPanic},
		},
		{
			name:  "empty group warns",
			group: Group{Name: "g", File: "business.d/g.toml"},
			want:  []Severity{SeverityWarn},
		},
		{
			name: "orphan reference errors",
			group: Group{Name: "g", Sinks: []Sink{
				{Name: "x", Connect: "nope_sink", Err: errors.New(errors.ErrorTypeNotFound, "connector 'nope_sink' not found")},
				fileSink("a", nil),
			}},
			want: []Severity{SeverityError},
		},
		{
			name: "unbound sink does not hide ratio drift",
			group: Group{Name: "g", Sinks: []Sink{
				fileSink("a", &Expect{Ratio: f(0.3)}),
				fileSink("b", &Expect{Ratio: f(0.3)}),
				{Name: "x", Connect: "nope_sink", Expect: &Expect{Ratio: f(0.4)}, Err: errors.New(errors.ErrorTypeNotFound, "connector 'nope_sink' not found")},
			}},
			want: []Severity{SeverityError, SeverityError},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ValidateGroups([]Group{tt.group}, nil)
			assert.Equal(t, tt.want, severities(r), "issues: %+v", r.Items)
		})
	}
}

func TestOrphanMessageCarriesResolverMessage(t *testing.T) {
	g := Group{Name: "g", Sinks: []Sink{{
		Name: "x", Connect: "tcp_sink",
		Err: errors.New(errors.ErrorTypeWhitelist, "override 'timeout' not allowed for connector 'tcp_sink'; whitelist: [host, port]"),
	}}}

	r := ValidateGroups([]Group{g}, nil)
	require.Len(t, r.Items, 1)
	assert.Equal(t, "x", r.Items[0].Sink)
	assert.Contains(t, r.Items[0].Msg, "override 'timeout' not allowed")
	assert.NotContains(t, r.Items[0].Msg, "whitelist: override", "type prefix is dropped")
}

func TestValidateWithStats(t *testing.T) {
	groups := []Group{{
		Name: "demo",
		Sinks: []Sink{
			fileSink("a", &Expect{Ratio: f(0.5), Tol: f(0.05)}),
			fileSink("b", &Expect{Ratio: f(0.5), Tol: f(0.05)}),
		},
	}}

	t.Run("within tolerance", func(t *testing.T) {
		stats := &Stats{Total: 200, Items: []SinkStat{
			{Group: "demo", Sink: "a", Lines: 98, Found: true},
			{Group: "demo", Sink: "b", Lines: 102, Found: true},
		}}
		r := ValidateWithStats(groups, stats, nil)
		assert.Empty(t, r.Items)
	})

	t.Run("drift beyond tol", func(t *testing.T) {
		stats := &Stats{Total: 100, Items: []SinkStat{
			{Group: "demo", Sink: "a", Lines: 80, Found: true},
			{Group: "demo", Sink: "b", Lines: 20, Found: true},
		}}
		r := ValidateWithStats(groups, stats, nil)
		assert.Equal(t, []Severity{SeverityError, SeverityError}, severities(r))
		assert.True(t, r.HasErrorFail())
	})

	t.Run("zero total panics", func(t *testing.T) {
		stats := &Stats{Items: []SinkStat{
			{Group: "demo", Sink: "a", Lines: 0, Found: true},
			{Group: "demo", Sink: "b", Lines: 0, Found: true},
		}}
		r := ValidateWithStats(groups, stats, nil)
		assert.Equal(t, []Severity{SeverityPanic, SeverityPanic}, severities(r))
	})

	t.Run("missing stat warns", func(t *testing.T) {
		stats := &Stats{Items: []SinkStat{
			{Group: "demo", Sink: "a", Lines: 50, Found: true},
			{Group: "demo", Sink: "b", Found: false},
		}}
		r := ValidateWithStats(groups, stats, u(100))
		assert.Equal(t, []Severity{SeverityWarn}, severities(r))
		assert.False(t, r.HasErrorFail())
	})

	t.Run("input override sets the total", func(t *testing.T) {
		stats := &Stats{Items: []SinkStat{
			{Group: "demo", Sink: "a", Lines: 50, Found: true},
			{Group: "demo", Sink: "b", Lines: 50, Found: true},
		}}
		r := ValidateWithStats(groups, stats, u(400))
		assert.Equal(t, []Severity{SeverityError, SeverityError}, severities(r))
	})
}

func TestMinMaxWithStats(t *testing.T) {
	groups := []Group{{
		Name: "g",
		Sinks: []Sink{
			fileSink("lo", &Expect{Min: f(0.4)}),
			fileSink("hi", &Expect{Max: f(0.5)}),
		},
	}}
	stats := &Stats{Items: []SinkStat{
		{Group: "g", Sink: "lo", Lines: 30, Found: true},
		{Group: "g", Sink: "hi", Lines: 70, Found: true},
	}}

	r := ValidateWithStats(groups, stats, nil)
	require.Len(t, r.Items, 2)
	assert.Contains(t, r.Items[0].Msg, "below min")
	assert.Contains(t, r.Items[1].Msg, "above max")
}

func TestValidateDispatch(t *testing.T) {
	groups := []Group{{Name: "g", Sinks: []Sink{fileSink("a", &Expect{Ratio: f(1)})}}}

	assert.Empty(t, Validate(groups, nil, nil).Items)

	stats := &Stats{Items: []SinkStat{{Group: "g", Sink: "a", Found: false}}}
	assert.Equal(t, []Severity{SeverityPanic}, severities(Validate(groups, stats, nil)))
}

func TestReportJSON(t *testing.T) {
	r := Report{Items: []Issue{
		{Severity: SeverityWarn, Group: "g", Sink: "a", Msg: "drift"},
		{Severity: SeverityPanic, Group: "g", Sink: "", Msg: "boom"},
	}}
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"pass":false,"issues":[
		{"severity":"WARN","group":"g","sink":"a","msg":"drift"},
		{"severity":"PANIC","group":"g","sink":"","msg":"boom"}]}`, string(b))

	b, err = json.Marshal(Report{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"pass":true,"issues":[]}`, string(b))
}

func TestRendering(t *testing.T) {
	color.NoColor = true

	groups := []Group{{Name: "demo", Sinks: []Sink{fileSink("a", &Expect{Ratio: f(1)})}}}
	stats := &Stats{Total: 12345, Items: []SinkStat{{Group: "demo", Sink: "a", Path: "/w/a.dat", Lines: 12345, Found: true}}}
	r := Report{Items: []Issue{{Severity: SeverityWarn, Group: "demo", Msg: "ratio sum 0.9950 drifts from 1.0"}}}

	var buf bytes.Buffer
	WriteHeadline(&buf, r)
	assert.Equal(t, "validate: PASS (0 error(s), 1 warning(s), 0 panic(s))\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteTables(&buf, groups, stats, nil, true))
	out := buf.String()
	assert.Contains(t, out, "12,345")
	assert.Contains(t, out, "100.00%")
	assert.Contains(t, out, "ratio=1±0.01")
	assert.Contains(t, out, "/w/a.dat")

	buf.Reset()
	require.NoError(t, WriteIssues(&buf, r))
	assert.Contains(t, buf.String(), "WARN")
}

func TestValidateConfigOnlyWithInputOverride(t *testing.T) {
	groups := []Group{{
		Name: "demo",
		Sinks: []Sink{
			fileSink("a", &Expect{Ratio: f(0.5)}),
			fileSink("b", &Expect{Ratio: f(0.5)}),
			fileSink("c", nil),
		},
	}}

	r := Validate(groups, nil, u(0))
	assert.Equal(t, []Severity{SeverityPanic, SeverityPanic}, severities(r))
	assert.Equal(t, "a", r.Items[0].Sink)
	assert.Contains(t, r.Items[0].Msg, "group total is 0")

	r = Validate(groups, nil, u(1000))
	assert.Empty(t, r.Items)

	r = Validate(groups, nil, nil)
	assert.Empty(t, r.Items)
}
