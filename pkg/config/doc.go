// Package config loads the two configuration files of a WarpParse project.
//
// # Engine configuration
//
// conf/wparse.toml describes where models and topology live. It is read with
// viper, so every key can be overridden from the environment with the WP_
// prefix (WP_TOPOLOGY_SINKS, WP_LOG_LEVEL, ...). A missing file yields the
// defaults.
//
//	[topology]
//	sinks = "./topology/sinks"
//
// # Generator configuration
//
// conf/wpgen.toml drives the data generator and names the connector its
// output is written through:
//
//	[generator]
//	mode = "rule"
//	speed = 0
//	[output]
//	connect = "file_json_sink"
//	[output.params]
//	file = "gen.dat"
//
// # Loading files
//
// Load and Save choose a codec from the file extension (.toml, .yaml/.yml,
// .json). Before decoding, ${VAR_NAME} references are replaced with the
// environment value:
//
//	[output.params]
//	addr = "${SINK_ADDR}"
//
// All file access goes through an afero.Fs so tests run against memory.
package config
