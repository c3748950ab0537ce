package discovery

import (
	"fmt"
	"path/filepath"

	"github.com/ajitpratap0/warpconf/pkg/connector"
	"github.com/ajitpratap0/warpconf/pkg/errors"
	"github.com/ajitpratap0/warpconf/pkg/lint"
)

// LintRows evaluates every definition under workRoot/connectors. Each
// definition yields one row; a file that does not parse yields a single
// Error row whose message starts with "parse failed: ".
func (d *Discovery) LintRows(workRoot string) ([]lint.Row, error) {
	var rows []lint.Row
	for _, scope := range []connector.Scope{connector.ScopeSources, connector.ScopeSinks} {
		parsed, err := d.parseDir(filepath.Join(workRoot, ConnectorsDir, scope.Dir()), scope)
		if err != nil {
			return nil, err
		}

		seen := make(map[string]string)
		for _, pf := range parsed {
			file := relTo(workRoot, pf.path)
			if pf.err != nil {
				rows = append(rows, lint.Row{
					Scope: scope,
					File:  file,
					Sev:   lint.SeverityError,
					Msg:   lint.ParseFailedPrefix + parseMessage(pf.err),
				})
				continue
			}
			for _, rec := range pf.records {
				rows = append(rows, rowFor(scope, file, rec, seen))
			}
		}
	}
	return rows, nil
}

func rowFor(scope connector.Scope, file string, rec connector.Record, seen map[string]string) lint.Row {
	row := lint.Row{Scope: scope, ID: rec.ID, File: file, Sev: lint.SeverityOk, Msg: "ok"}

	if kind := lint.KindOf(connector.CheckID(scope, rec.ID)); kind != lint.SilentNone {
		row.Sev = lint.SeverityError
		row.SilentErr = kind
		row.Msg = kind.String()
		return row
	}
	if first, dup := seen[rec.ID]; dup {
		row.Sev = lint.SeverityWarn
		row.Msg = fmt.Sprintf("duplicate id, first defined in %s", first)
		return row
	}
	seen[rec.ID] = file
	if rec.Kind == "" {
		row.Sev = lint.SeverityWarn
		row.Msg = "missing type"
	}
	return row
}

func parseMessage(err error) string {
	if e, ok := errors.As(err); ok && e.Cause != nil {
		return e.Cause.Error()
	}
	return err.Error()
}

func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
