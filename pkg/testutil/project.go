package testutil

import "path/filepath"

// SampleRoot is the work root of SampleProject
const SampleRoot = "/work/demo"

// SampleProject returns the files of a small project: a file and a tcp sink
// connector, one kafka source, one business sink group with two file sinks
// and a generator config writing through the json file sink.
func SampleProject() map[string]string {
	at := func(rel string) string { return filepath.Join(SampleRoot, rel) }
	return map[string]string{
		at("conf/wparse.toml"): `
[topology]
sources = "./topology/sources"
sinks = "./topology/sinks"
[log]
level = "warn"
format = "console"
`,
		at("conf/wpgen.toml"): `
version = "1.0"
[generator]
mode = "rule"
count = 100
speed = 0
parallel = 1
[output]
connect = "file_json_sink"
[output.params]
file = "gen.dat"
`,
		at("connectors/sink.d/00-file.toml"): `
[[connectors]]
id = "file_json_sink"
type = "file"
allow_override = ["base", "file", "fmt"]
[connectors.params]
base = "./data/out_dat"
file = "default.json"
fmt = "json"

[[connectors]]
id = "file_kv_sink"
type = "file"
allow_override = ["file"]
[connectors.params]
base = "./data/out_dat"
file = "default.kv"
fmt = "kv"
`,
		at("connectors/sink.d/10-tcp.yaml"): `
connectors:
  - id: tcp_sink
    type: tcp
    allow_override: [addr, port]
    params:
      addr: 127.0.0.1
      port: 9000
`,
		at("connectors/source.d/kafka.toml"): `
[[connectors]]
id = "kafka_src"
type = "kafka"
allow_override = ["topic"]
[connectors.params]
brokers = ["localhost:9092"]
topic = "events"
group = "wp"
`,
		at("topology/sinks/business.d/demo.toml"): `
[sink_group]
name = "demo"

[[sink_group.sinks]]
name = "json"
connect = "file_json_sink"
[sink_group.sinks.params]
file = "demo.json"
[sink_group.sinks.expect]
ratio = 0.5
tol = 0.05

[[sink_group.sinks]]
name = "kv"
connect = "file_kv_sink"
[sink_group.sinks.params]
file = "demo.kv"
[sink_group.sinks.expect]
ratio = 0.5
tol = 0.05
`,
		at("data/out_dat/demo.json"): "{}\n{}\n{}\n{}\n",
		at("data/out_dat/demo.kv"):   "a=1\nb=2\nc=3\nd=4\n",
	}
}
