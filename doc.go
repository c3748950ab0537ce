// Package warpconf is the configuration layer of a data generation and
// routing engine. It finds connector definitions, resolves the generator's
// output sink, lints connector files and validates sink groups against their
// expected line ratios.
//
// # Layout
//
// A project (the work root) looks like:
//
//	conf/wparse.toml            engine config (log level, sinks root)
//	conf/wpgen.toml             generator config (output sink, speed)
//	connectors/sink.d/*.toml    sink connector definitions
//	connectors/source.d/*.toml  source connector definitions
//	topology/sinks/business.d/  business sink groups
//	topology/sinks/infra.d/     infra sink groups
//
// Connector definitions are looked up by walking upward from the sinks root,
// so several projects can share one connectors/ directory.
//
// # Packages
//
//   - pkg/params: ordered parameter tables
//   - pkg/connector: connector records and definition files
//   - pkg/resolve: override merging, protocol policy and format selection
//   - pkg/lint: connector definition lint rows
//   - pkg/validate: sink group ratio validation and reports
//   - pkg/config: engine and generator configuration
//   - pkg/metrics: Prometheus textfile export of lint and validation results
//
// # Commands
//
//	wpgen conf init|clean|check
//	wpgen data clean [-c wpgen.toml] [--local]
//	wpgen resolve [--json]
//
//	wproj connectors lint|list|check|kinds
//	wproj validate sink-file [-g group] [-s sink] [--input-cnt N]
//	wproj stat sink-file|src-file|file
//	wproj sinks list|route [-g group] [-s sink] [--path-like text]
//	wproj sources list
//	wproj check [--what conf,sources,connectors,sinks] [--fail-fast]
//
// Every command accepts -w/--work-root.
package warpconf
