// Package lint turns connector definition diagnostics into one aggregated
// error.
package lint

import (
	"fmt"
	"strings"

	"github.com/ajitpratap0/warpconf/pkg/connector"
	"github.com/ajitpratap0/warpconf/pkg/errors"
)

// Severity ranks a lint row. The order is Ok < Warn < Error.
type Severity int

const (
	SeverityOk Severity = iota
	SeverityWarn
	SeverityError
)

// String returns the label used in tables and JSON
func (s Severity) String() string {
	switch s {
	case SeverityOk:
		return "OK"
	case SeverityWarn:
		return "WARN"
	case SeverityError:
		return "ERROR"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// MarshalText encodes the label
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SilentErrKind names the naming rule behind an error row. Rows without one
// are parse failures.
type SilentErrKind int

const (
	SilentNone SilentErrKind = iota
	BadIdChars
	SourcesIdMustEndSrc
	SinksIdMustEndSink
)

// String returns the kind name
func (k SilentErrKind) String() string {
	switch k {
	case SilentNone:
		return ""
	case BadIdChars:
		return "bad_id_chars"
	case SourcesIdMustEndSrc:
		return "sources_id_must_end_src"
	case SinksIdMustEndSink:
		return "sinks_id_must_end_sink"
	default:
		return fmt.Sprintf("SilentErrKind(%d)", int(k))
	}
}

// MarshalText encodes the kind name
func (k SilentErrKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// KindOf maps a naming violation to its silent error kind
func KindOf(v connector.Violation) SilentErrKind {
	switch v {
	case connector.ViolationBadChars:
		return BadIdChars
	case connector.ViolationSourceSuffix:
		return SourcesIdMustEndSrc
	case connector.ViolationSinkSuffix:
		return SinksIdMustEndSink
	default:
		return SilentNone
	}
}

// Row is one diagnostic about one connector definition
type Row struct {
	Scope     connector.Scope `json:"scope"`
	ID        string          `json:"id"`
	File      string          `json:"file"`
	Sev       Severity        `json:"sev"`
	SilentErr SilentErrKind   `json:"silent_err,omitempty"`
	Msg       string          `json:"msg"`
}

// RowSource supplies the lint rows of a project
type RowSource interface {
	LintRows(workRoot string) ([]Row, error)
}

// ParseFailedPrefix starts the message of parse failure rows
const ParseFailedPrefix = "parse failed: "

// Line renders an error row as a one-line diagnostic
func (r Row) Line() string {
	switch r.SilentErr {
	case BadIdChars:
		return fmt.Sprintf("%s: bad id chars: %s in %s", r.Scope, r.ID, r.File)
	case SourcesIdMustEndSrc:
		return fmt.Sprintf("%s: id must end with _src: %s in %s", r.Scope, r.ID, r.File)
	case SinksIdMustEndSink:
		return fmt.Sprintf("%s: id must end with _sink: %s in %s", r.Scope, r.ID, r.File)
	case SilentNone:
		return fmt.Sprintf("%s: parse failed for %s: %s", r.Scope, r.File, strings.TrimPrefix(r.Msg, ParseFailedPrefix))
	default:
		return fmt.Sprintf("%s: %s in %s", r.Scope, r.Msg, r.File)
	}
}

// Check aggregates every Error row into one lint error. It returns nil when
// no row is an Error.
func Check(rows []Row) error {
	var lines []string
	for _, r := range rows {
		if r.Sev != SeverityError {
			continue
		}
		lines = append(lines, r.Line())
	}
	if len(lines) == 0 {
		return nil
	}
	return errors.Newf(errors.ErrorTypeLint, "connectors lint failed: %d error(s)\n%s",
		len(lines), strings.Join(lines, "\n")).
		WithDetail("count", len(lines)).
		WithDetail("lines", lines)
}

// Lint reads the rows of workRoot from src and checks them
func Lint(src RowSource, workRoot string) error {
	rows, err := src.LintRows(workRoot)
	if err != nil {
		return err
	}
	return Check(rows)
}

// Lines returns the diagnostic lines carried by a lint error
func Lines(err error) []string {
	e, ok := errors.As(err)
	if !ok || e.Type != errors.ErrorTypeLint {
		return nil
	}
	v, _ := e.Detail("lines")
	lines, _ := v.([]string)
	return lines
}
