package resolve

import "github.com/ajitpratap0/warpconf/pkg/params"

// Connector kinds with resolution rules of their own
const (
	KindFile = "file"
	KindTCP  = "tcp"
)

// ApplyPolicy applies generation-speed defaults to a merged table in place.
//
// For tcp sinks an unlimited generator (speed 0) backs off by default, and a
// rate-limited generator with an explicit max_backoff has it forced off. An
// unlimited generator with an explicit value, and a rate-limited one without,
// are left alone.
func ApplyPolicy(kind string, tbl *params.Table, genSpeed int) {
	if kind != KindTCP {
		return
	}
	unlimited := genSpeed == 0
	explicit := tbl.Has("max_backoff")
	switch {
	case unlimited && !explicit:
		tbl.Set("max_backoff", params.Bool(true))
	case !unlimited && explicit:
		tbl.Set("max_backoff", params.Bool(false))
	}
}
