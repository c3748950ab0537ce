package resolve

import (
	"strings"

	"github.com/ajitpratap0/warpconf/pkg/params"
)

// Format is the text serialization a sink writes
type Format string

const (
	FormatJSON      Format = "json"
	FormatCSV       Format = "csv"
	FormatKV        Format = "kv"
	FormatRaw       Format = "raw"
	FormatShow      Format = "show"
	FormatProtoText Format = "proto-text"
)

// Formats lists the known formats
var Formats = []Format{FormatJSON, FormatCSV, FormatKV, FormatRaw, FormatShow, FormatProtoText}

// ParseFormat maps a format name, case-insensitively, to a Format
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, true
	case "csv":
		return FormatCSV, true
	case "kv":
		return FormatKV, true
	case "raw":
		return FormatRaw, true
	case "show":
		return FormatShow, true
	case "proto-text", "proto_text", "prototext":
		return FormatProtoText, true
	default:
		return "", false
	}
}

// FormatOf maps a format name to a Format, falling back to json for
// unknown names.
func FormatOf(s string) Format {
	if f, ok := ParseFormat(s); ok {
		return f
	}
	return FormatJSON
}

// SelectFormat picks the output format for a merged parameter table. Only
// file sinks honour the fmt parameter; every other kind writes json.
func SelectFormat(kind string, tbl *params.Table) Format {
	if kind != KindFile {
		return FormatJSON
	}
	s, ok := tbl.GetString("fmt")
	if !ok {
		s = string(FormatJSON)
	}
	return FormatOf(s)
}
