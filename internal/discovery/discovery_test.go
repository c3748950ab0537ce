package discovery

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/warpconf/pkg/connector"
	"github.com/ajitpratap0/warpconf/pkg/connector/kinds"
	"github.com/ajitpratap0/warpconf/pkg/errors"
	"github.com/ajitpratap0/warpconf/pkg/lint"
	"github.com/ajitpratap0/warpconf/pkg/params"
	"github.com/ajitpratap0/warpconf/pkg/testutil"
)

func newDiscovery(t *testing.T, files map[string]string) *Discovery {
	return New(testutil.MemFs(t, files)).WithLogger(testutil.TestLogger(t))
}

func TestConnectorsSearchesUpward(t *testing.T) {
	d := newDiscovery(t, testutil.SampleProject())

	conns, err := d.Connectors(filepath.Join(testutil.SampleRoot, "topology/sinks"))
	require.NoError(t, err)
	assert.Len(t, conns, 3)

	tcp, ok := conns["tcp_sink"]
	require.True(t, ok)
	assert.Equal(t, "tcp", tcp.Kind)
	assert.Equal(t, []string{"addr", "port"}, tcp.AllowOverride)
	assert.Equal(t, connector.ScopeSinks, tcp.Scope)
	assert.Equal(t, filepath.Join(testutil.SampleRoot, "connectors/sink.d/10-tcp.yaml"), tcp.Origin)
	port, _ := tcp.Params.Get("port")
	assert.True(t, port.Equal(params.Int(9000)))

	file := conns["file_json_sink"]
	assert.Equal(t, []string{"base", "file", "fmt"}, file.Params.Keys())
}

func TestSourceConnectors(t *testing.T) {
	d := newDiscovery(t, testutil.SampleProject())

	conns, err := d.SourceConnectors(testutil.SampleRoot)
	require.NoError(t, err)
	require.Contains(t, conns, "kafka_src")
	assert.Equal(t, connector.ScopeSources, conns["kafka_src"].Scope)
}

func TestFindDirStopsAtDepth(t *testing.T) {
	deep := "/r"
	for i := 0; i < MaxSearchDepth+2; i++ {
		deep = filepath.Join(deep, "d")
	}
	d := newDiscovery(t, map[string]string{
		"/r/connectors/sink.d/a.toml": "",
		filepath.Join(deep, "x.txt"):  "",
	})

	_, ok := d.FindDir(deep, connector.ScopeSinks)
	assert.False(t, ok)

	dir, ok := d.FindDir("/r/d/d", connector.ScopeSinks)
	assert.True(t, ok)
	assert.Equal(t, "/r/connectors/sink.d", dir)
}

func TestConnectorsMissingDir(t *testing.T) {
	d := newDiscovery(t, map[string]string{"/w/conf/wparse.toml": ""})

	conns, err := d.Connectors("/w/topology/sinks")
	require.NoError(t, err)
	assert.Empty(t, conns)
}

func TestConnectorsDuplicateFirstWins(t *testing.T) {
	d := newDiscovery(t, map[string]string{
		"/w/connectors/sink.d/a.toml": "[[connectors]]\nid = \"dup_sink\"\ntype = \"file\"\n",
		"/w/connectors/sink.d/b.toml": "[[connectors]]\nid = \"dup_sink\"\ntype = \"tcp\"\n",
	})

	conns, err := d.Connectors("/w")
	require.NoError(t, err)
	assert.Equal(t, "file", conns["dup_sink"].Kind)

	rows, err := d.LintRows("/w")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, lint.SeverityOk, rows[0].Sev)
	assert.Equal(t, lint.SeverityWarn, rows[1].Sev)
	assert.Contains(t, rows[1].Msg, "connectors/sink.d/a.toml")
}

func TestConnectorsParseError(t *testing.T) {
	d := newDiscovery(t, map[string]string{
		"/w/connectors/sink.d/bad.toml": "[[connectors]\nid = ",
	})

	_, err := d.Connectors("/w")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestLintRowsMixedTree(t *testing.T) {
	d := newDiscovery(t, map[string]string{
		"/w/connectors/source.d/a.toml": `
[[connectors]]
id = "kafka_sink"
type = "kafka"

[[connectors]]
id = "good_src"
`,
		"/w/connectors/sink.d/a.toml": `
[[connectors]]
id = "bad-id_sink"
type = "file"

[[connectors]]
id = "file_out"
type = "file"

[[connectors]]
id = "fine_sink"
type = "file"
`,
		"/w/connectors/sink.d/broken.yaml": "connectors: [",
		"/w/connectors/sink.d/notes.md":    "ignored",
	})

	rows, err := d.LintRows("/w")
	require.NoError(t, err)
	require.Len(t, rows, 6)

	assert.Equal(t, lint.SourcesIdMustEndSrc, rows[0].SilentErr)
	assert.Equal(t, lint.SeverityError, rows[0].Sev)
	assert.Equal(t, "connectors/source.d/a.toml", rows[0].File)

	assert.Equal(t, lint.SeverityWarn, rows[1].Sev, "missing type")
	assert.Equal(t, "missing type", rows[1].Msg)

	assert.Equal(t, lint.BadIdChars, rows[2].SilentErr)
	assert.Equal(t, lint.SinksIdMustEndSink, rows[3].SilentErr)
	assert.Equal(t, lint.SeverityOk, rows[4].Sev)

	assert.Equal(t, lint.SeverityError, rows[5].Sev)
	assert.Equal(t, lint.SilentNone, rows[5].SilentErr)
	assert.Contains(t, rows[5].Msg, lint.ParseFailedPrefix)

	err = lint.Lint(d, "/w")
	require.Error(t, err)
	lines := lint.Lines(err)
	require.Len(t, lines, 4)
	assert.Equal(t, "sources: id must end with _src: kafka_sink in connectors/source.d/a.toml", lines[0])
	assert.Contains(t, lines[3], "sinks: parse failed for connectors/sink.d/broken.yaml: ")
	assert.NotContains(t, lines[3], "parse failed: ")
}

func TestLintRowsCleanProject(t *testing.T) {
	d := newDiscovery(t, testutil.SampleProject())
	assert.NoError(t, lint.Lint(d, testutil.SampleRoot))
}

func TestAll(t *testing.T) {
	d := newDiscovery(t, testutil.SampleProject())

	recs, err := d.All(testutil.SampleRoot)
	require.NoError(t, err)
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"kafka_src", "file_json_sink", "file_kv_sink", "tcp_sink"}, ids)
}

func TestConnectorsJSONKeepsIntegers(t *testing.T) {
	d := newDiscovery(t, map[string]string{
		"/p/connectors/sink.d/a.json": `{"connectors":[{"id":"json_tcp_sink","type":"tcp","params":{"addr":"h","port":9000,"weight":0.5}}]}`,
		"/p/connectors/sink.d/b.toml": `
[[connectors]]
id = "toml_tcp_sink"
type = "tcp"
[connectors.params]
addr = "h"
port = 9000
weight = 0.5
`,
	})

	conns, err := d.Connectors("/p")
	require.NoError(t, err)
	fromJSON, fromTOML := conns["json_tcp_sink"], conns["toml_tcp_sink"]

	port, ok := fromJSON.Params.Get("port")
	require.True(t, ok)
	assert.Equal(t, params.KindInt, port.Kind())
	weight, _ := fromJSON.Params.Get("weight")
	assert.Equal(t, params.KindFloat, weight.Kind())
	assert.True(t, fromJSON.Params.Equal(fromTOML.Params))

	reg := kinds.NewRegistry().WithLogger(testutil.TestLogger(t))
	assert.NoError(t, reg.CheckSink(fromJSON.Kind, fromJSON.Params))
	assert.NoError(t, reg.CheckSink(fromTOML.Kind, fromTOML.Params))
}
