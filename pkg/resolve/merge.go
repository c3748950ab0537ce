package resolve

import (
	"github.com/ajitpratap0/warpconf/pkg/connector"
	"github.com/ajitpratap0/warpconf/pkg/errors"
	"github.com/ajitpratap0/warpconf/pkg/params"
)

// MergeParams overlays overrides onto a copy of rec.Params. Every override
// key must be on the record's whitelist, and nested params/params_override
// tables are rejected outright. The first violation aborts the merge; no
// partial table is returned.
func MergeParams(rec connector.Record, connID string, overrides *params.Table) (*params.Table, error) {
	merged := rec.Params.Clone()

	var err error
	overrides.Range(func(k string, v params.Value) bool {
		if k == "params" || k == "params_override" {
			err = errors.Newf(errors.ErrorTypeOverride,
				"invalid nested table '%s' in output.params; set keys [%s] directly", k, rec.AllowList()).
				WithDetail("key", k).
				WithDetail("allow_override", rec.AllowOverride)
			return false
		}
		if !rec.Allows(k) {
			err = errors.Newf(errors.ErrorTypeWhitelist,
				"override '%s' not allowed for connector '%s'; whitelist: [%s]", k, connID, rec.AllowList()).
				WithDetail("key", k).
				WithDetail("connector_id", connID).
				WithDetail("allow_override", rec.AllowOverride)
			return false
		}
		merged.Set(k, v.Clone())
		return true
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}
