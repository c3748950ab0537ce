package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/warpconf/pkg/errors"
	"github.com/ajitpratap0/warpconf/pkg/params"
)

func newTestRegistry(t *testing.T) *Registry {
	return NewRegistry().WithLogger(zaptest.NewLogger(t))
}

func TestRegisterIsIdempotent(t *testing.T) {
	r := newTestRegistry(t)
	first := func(*params.Table) error { return nil }
	second := func(*params.Table) error { return fmt.Errorf("second") }

	assert.True(t, r.RegisterSink("file", first))
	assert.False(t, r.RegisterSink("file", second))

	// the first checker stays in place
	require.NoError(t, r.CheckSink("file", params.NewTable()))
}

func TestSourcesAndSinksAreSeparate(t *testing.T) {
	r := newTestRegistry(t)
	ok := func(*params.Table) error { return nil }

	assert.True(t, r.RegisterSink("kafka", ok))
	assert.True(t, r.RegisterSource("kafka", ok))
	assert.True(t, r.HasSink("kafka"))
	assert.True(t, r.HasSource("kafka"))
	assert.False(t, r.HasSource("file"))
}

func TestCheckUnknownKind(t *testing.T) {
	r := newTestRegistry(t)

	err := r.CheckSink("carrier_pigeon", nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCapability))
	assert.Contains(t, err.Error(), "carrier_pigeon")
}

func TestCheckWrapsCheckerError(t *testing.T) {
	r := newTestRegistry(t)
	r.RegisterSink("tcp", func(p *params.Table) error {
		if !p.Has("port") {
			return fmt.Errorf("port is required")
		}
		return nil
	})

	err := r.CheckSink("tcp", nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.Contains(t, err.Error(), "port is required")
}

func TestListIsSorted(t *testing.T) {
	r := newTestRegistry(t)
	ok := func(*params.Table) error { return nil }
	for _, k := range []string{"tcp", "file", "kafka"} {
		r.RegisterSink(k, ok)
	}
	assert.Equal(t, []string{"file", "kafka", "tcp"}, r.ListSinks())
	assert.Empty(t, r.ListSources())
}

func TestConcurrentRegistration(t *testing.T) {
	r := newTestRegistry(t)
	ok := func(*params.Table) error { return nil }

	var wg sync.WaitGroup
	wins := make(chan bool, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wins <- r.RegisterSink("file", ok)
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for w := range wins {
		if w {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
