package connector

import (
	"regexp"
	"strings"

	"github.com/ajitpratap0/warpconf/pkg/params"
)

// Scope is the direction a connector serves
type Scope string

const (
	ScopeSources Scope = "sources"
	ScopeSinks   Scope = "sinks"
)

// Dir returns the definition directory for the scope, relative to the
// connectors root.
func (s Scope) Dir() string {
	if s == ScopeSources {
		return "source.d"
	}
	return "sink.d"
}

// Suffix returns the id suffix required for the scope
func (s Scope) Suffix() string {
	if s == ScopeSources {
		return "_src"
	}
	return "_sink"
}

// Record is a loaded connector definition. Records are immutable once
// loaded; callers clone Params before changing them.
type Record struct {
	ID            string        `json:"id"`
	Kind          string        `json:"kind"`
	Params        *params.Table `json:"params"`
	AllowOverride []string      `json:"allow_override"`
	Scope         Scope         `json:"scope"`
	Origin        string        `json:"origin"`
}

// Allows reports whether key is on the override whitelist
func (r Record) Allows(key string) bool {
	for _, k := range r.AllowOverride {
		if k == key {
			return true
		}
	}
	return false
}

// AllowList joins the whitelist for messages
func (r Record) AllowList() string {
	return strings.Join(r.AllowOverride, ", ")
}

// Violation names an id naming rule an id breaks
type Violation int

const (
	ViolationNone Violation = iota
	ViolationBadChars
	ViolationSourceSuffix
	ViolationSinkSuffix
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidChars reports whether id uses only letters, digits and underscores
func ValidChars(id string) bool {
	return idPattern.MatchString(id)
}

// CheckID applies the naming rules for scope. Character rules are checked
// before the suffix rule.
func CheckID(scope Scope, id string) Violation {
	if !ValidChars(id) {
		return ViolationBadChars
	}
	if !strings.HasSuffix(id, scope.Suffix()) {
		if scope == ScopeSources {
			return ViolationSourceSuffix
		}
		return ViolationSinkSuffix
	}
	return ViolationNone
}
