// Package connector defines connector records, the immutable base
// definitions that sinks and sources are resolved from.
//
// # Definitions
//
// Connector definitions live under connectors/sink.d and connectors/source.d
// of a project, one or more per file:
//
//	[[connectors]]
//	id = "file_json_sink"
//	type = "file"
//	allow_override = ["base", "file"]
//	[connectors.params]
//	base = "./data/out_dat"
//	file = "default.json"
//	fmt = "json"
//
// Only keys listed in allow_override may be replaced by a caller. See the
// resolve package for the merge rules.
//
// # Naming
//
// Ids consist of ASCII letters, digits and underscores. Sink ids end with
// "_sink" and source ids end with "_src". CheckID reports which rule an id
// breaks; lint turns those into report rows.
//
// # Sub-packages
//
//   - registry: per-kind parameter checkers, registered explicitly
//   - kinds: the built-in checkers (file, tcp, syslog, kafka, mysql,
//     postgres, mongodb, null)
package connector
