// Package validate checks sink groups against their declared expectations,
// from configuration alone or against observed line counts.
package validate

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Severity ranks a validation issue. Warn is advisory; Error and Panic fail
// the validation.
type Severity int

const (
	SeverityWarn Severity = iota + 1
	SeverityError
	SeverityPanic
)

// String returns the label used in tables and JSON
func (s Severity) String() string {
	switch s {
	case SeverityWarn:
		return "WARN"
	case SeverityError:
		return "ERROR"
	case SeverityPanic:
		return "PANIC"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// MarshalText encodes the label
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Issue is one validation finding. Group-level findings have an empty Sink.
type Issue struct {
	Severity Severity `json:"severity"`
	Group    string   `json:"group"`
	Sink     string   `json:"sink"`
	Msg      string   `json:"msg"`
}

// Report collects issues in the order they were found
type Report struct {
	Items []Issue
}

func (r *Report) add(sev Severity, group, sink, format string, args ...interface{}) {
	r.Items = append(r.Items, Issue{
		Severity: sev,
		Group:    group,
		Sink:     sink,
		Msg:      fmt.Sprintf(format, args...),
	})
}

// HasErrorFail reports whether any issue is an Error or a Panic
func (r Report) HasErrorFail() bool {
	for _, it := range r.Items {
		if it.Severity >= SeverityError {
			return true
		}
	}
	return false
}

// Counts returns the number of warnings, errors and panics
func (r Report) Counts() (warns, errs, panics int) {
	for _, it := range r.Items {
		switch it.Severity {
		case SeverityWarn:
			warns++
		case SeverityError:
			errs++
		case SeverityPanic:
			panics++
		}
	}
	return warns, errs, panics
}

type reportJSON struct {
	Pass   bool    `json:"pass"`
	Issues []Issue `json:"issues"`
}

// MarshalJSON encodes {"pass": bool, "issues": [...]}
func (r Report) MarshalJSON() ([]byte, error) {
	issues := r.Items
	if issues == nil {
		issues = []Issue{}
	}
	return json.Marshal(reportJSON{Pass: !r.HasErrorFail(), Issues: issues})
}
