package stats

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/warpconf/internal/discovery"
	"github.com/ajitpratap0/warpconf/internal/topology"
	"github.com/ajitpratap0/warpconf/pkg/connector"
	"github.com/ajitpratap0/warpconf/pkg/errors"
	"github.com/ajitpratap0/warpconf/pkg/params"
	"github.com/ajitpratap0/warpconf/pkg/testutil"
	"github.com/ajitpratap0/warpconf/pkg/validate"
)

func TestCountLines(t *testing.T) {
	fs := testutil.MemFs(t, map[string]string{
		"/d/empty":    "",
		"/d/one":      "a",
		"/d/two":      "a\nb\n",
		"/d/unfinish": "a\nb\nc",
	})
	c := NewCounter(fs).WithLogger(testutil.TestLogger(t))

	tests := map[string]uint64{"/d/empty": 0, "/d/one": 1, "/d/two": 2, "/d/unfinish": 3}
	for path, want := range tests {
		got, err := c.CountLines(path)
		require.NoError(t, err)
		assert.Equal(t, want, got, path)
	}

	_, err := c.CountLines("/d/missing")
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestCollectSampleProject(t *testing.T) {
	files := testutil.SampleProject()
	delete(files, filepath.Join(testutil.SampleRoot, "data/out_dat/demo.kv"))
	fs := testutil.MemFs(t, files)

	groups, err := topology.NewLoader(fs, discovery.New(fs)).
		WithLogger(testutil.TestLogger(t)).
		Load(testutil.SampleRoot, filepath.Join(testutil.SampleRoot, "topology/sinks"), topology.Filter{})
	require.NoError(t, err)

	st, err := NewCounter(fs).WithLogger(testutil.TestLogger(t)).Collect(testutil.SampleRoot, groups)
	require.NoError(t, err)
	require.Len(t, st.Items, 2)

	assert.Equal(t, validate.SinkStat{
		Group: "demo",
		Sink:  "json",
		Path:  filepath.Join(testutil.SampleRoot, "data/out_dat/demo.json"),
		Lines: 4,
		Found: true,
	}, st.Items[0])
	assert.False(t, st.Items[1].Found)
	assert.Equal(t, uint64(4), st.Total)
}

func TestLoadFile(t *testing.T) {
	fs := testutil.MemFs(t, map[string]string{
		"/s/stats.json": `{"items":[
			{"group":"g","sink":"a","path":"/x/a","lines":30,"found":true},
			{"group":"g","sink":"b","lines":0,"found":false},
			{"group":"g","sink":"c","lines":70,"found":true}]}`,
		"/s/total.json": `{"total":1000,"items":[]}`,
		"/s/bad.json":   `{"items":`,
	})

	st, err := LoadFile(fs, "/s/stats.json")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), st.Total)
	assert.Len(t, st.Items, 3)

	st, err = LoadFile(fs, "/s/total.json")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), st.Total)

	_, err = LoadFile(fs, "/s/bad.json")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = LoadFile(fs, "/s/none.json")
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestCountLinesCompressed(t *testing.T) {
	fs := afero.NewMemMapFs()
	body := []byte("a\nb\nc\n")

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write(body)
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	require.NoError(t, afero.WriteFile(fs, "/d/out.dat.gz", gz.Bytes(), 0o644))

	zw, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, "/d/out.dat.zst", zw.EncodeAll(body, nil), 0o644))
	require.NoError(t, zw.Close())

	var lz bytes.Buffer
	lw := lz4.NewWriter(&lz)
	_, err = lw.Write(body)
	require.NoError(t, err)
	require.NoError(t, lw.Close())
	require.NoError(t, afero.WriteFile(fs, "/d/out.dat.lz4", lz.Bytes(), 0o644))

	c := NewCounter(fs).WithLogger(testutil.TestLogger(t))
	for _, path := range []string{"/d/out.dat.gz", "/d/out.dat.zst", "/d/out.dat.lz4"} {
		got, err := c.CountLines(path)
		require.NoError(t, err, path)
		assert.Equal(t, uint64(3), got, path)
	}

	require.NoError(t, afero.WriteFile(fs, "/d/bad.gz", []byte("plain"), 0o644))
	_, err = c.CountLines("/d/bad.gz")
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestCollectSources(t *testing.T) {
	fs := testutil.MemFs(t, map[string]string{
		"/w/data/in/access.log": "a\nb\nc\n",
	})
	fileParams, err := params.TableFromMap(map[string]interface{}{"base": "data/in", "file": "access.log"})
	require.NoError(t, err)
	missingParams, err := params.TableFromMap(map[string]interface{}{"path": "/w/data/in/none.log"})
	require.NoError(t, err)

	recs := []connector.Record{
		{ID: "access_src", Kind: "file", Params: fileParams},
		{ID: "kafka_src", Kind: "kafka", Params: params.NewTable()},
		{ID: "missing_src", Kind: "file", Params: missingParams},
	}
	st, err := NewCounter(fs).WithLogger(testutil.TestLogger(t)).CollectSources("/w", recs)
	require.NoError(t, err)
	require.Len(t, st.Items, 3)

	assert.Equal(t, validate.SinkStat{
		Group: SourceGroup,
		Sink:  "access_src",
		Path:  "/w/data/in/access.log",
		Lines: 3,
		Found: true,
	}, st.Items[0])
	assert.Equal(t, "", st.Items[1].Path)
	assert.False(t, st.Items[1].Found)
	assert.Equal(t, "/w/data/in/none.log", st.Items[2].Path)
	assert.False(t, st.Items[2].Found)
	assert.Equal(t, uint64(3), st.Total)
}
