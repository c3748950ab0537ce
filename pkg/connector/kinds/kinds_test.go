package kinds

import (
	"testing"

	"github.com/IBM/sarama"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/warpconf/pkg/errors"
	"github.com/ajitpratap0/warpconf/pkg/params"
)

func table(t *testing.T, m map[string]interface{}) *params.Table {
	t.Helper()
	tbl, err := params.TableFromMap(m)
	require.NoError(t, err)
	return tbl
}

func TestCheckers(t *testing.T) {
	tests := []struct {
		name  string
		check func(*params.Table) error
		in    map[string]interface{}
		ok    bool
	}{
		{"file with file", CheckFileSink, map[string]interface{}{"file": "a.json"}, true},
		{"file with path and fmt", CheckFileSink, map[string]interface{}{"path": "/x", "fmt": "csv"}, true},
		{"file without target", CheckFileSink, map[string]interface{}{"base": "./data"}, false},
		{"file unknown fmt", CheckFileSink, map[string]interface{}{"file": "a", "fmt": "xml"}, false},
		{"file source", CheckFileSource, map[string]interface{}{"path": "in.log"}, true},

		{"tcp ok", CheckTCP, map[string]interface{}{"addr": "10.0.0.1", "port": 9000}, true},
		{"tcp no port", CheckTCP, map[string]interface{}{"addr": "10.0.0.1"}, false},
		{"tcp port zero", CheckTCP, map[string]interface{}{"port": 0}, false},
		{"tcp port too large", CheckTCP, map[string]interface{}{"port": 70000}, false},
		{"tcp port string", CheckTCP, map[string]interface{}{"port": "9000"}, false},
		{"tcp backoff not bool", CheckTCP, map[string]interface{}{"port": 1, "max_backoff": "yes"}, false},

		{"syslog default", CheckSyslog, map[string]interface{}{}, true},
		{"syslog tcp", CheckSyslog, map[string]interface{}{"protocol": "TCP", "port": 514}, true},
		{"syslog bad proto", CheckSyslog, map[string]interface{}{"protocol": "quic"}, false},

		{"kafka ok", CheckKafkaSink, map[string]interface{}{"brokers": []interface{}{"k1:9092"}, "topic": "t"}, true},
		{"kafka comma brokers", CheckKafkaSink, map[string]interface{}{"brokers": "k1:9092, k2:9092", "topic": "t"}, true},
		{"kafka no brokers", CheckKafkaSink, map[string]interface{}{"topic": "t"}, false},
		{"kafka no topic", CheckKafkaSink, map[string]interface{}{"brokers": "k1:9092"}, false},
		{"kafka bad version", CheckKafkaSink, map[string]interface{}{"brokers": "k1:9092", "topic": "t", "version": "banana"}, false},
		{"kafka bad acks", CheckKafkaSink, map[string]interface{}{"brokers": "k1:9092", "topic": "t", "acks": "2"}, false},
		{"kafka zstd on old broker", CheckKafkaSink, map[string]interface{}{"brokers": "k1:9092", "topic": "t", "version": "0.10.2.0", "compression": "zstd"}, false},
		{"kafka source needs group", CheckKafkaSource, map[string]interface{}{"brokers": "k1:9092", "topic": "t"}, false},

		{"mysql dsn", CheckMySQL, map[string]interface{}{"dsn": "root:pw@tcp(127.0.0.1:3306)/wp"}, true},
		{"mysql bad dsn", CheckMySQL, map[string]interface{}{"dsn": "root:pw@tcp(127.0.0.1:3306"}, false},
		{"mysql fields", CheckMySQL, map[string]interface{}{"user": "root", "database": "wp", "table": "events"}, true},
		{"mysql missing database", CheckMySQL, map[string]interface{}{"user": "root"}, false},

		{"postgres dsn", CheckPostgres, map[string]interface{}{"dsn": "postgres://u:p@localhost:5432/wp"}, true},
		{"postgres fields", CheckPostgres, map[string]interface{}{"user": "u", "password": "p w", "database": "wp", "max_conns": 4}, true},
		{"postgres bad max_conns", CheckPostgres, map[string]interface{}{"user": "u", "database": "wp", "max_conns": 0}, false},
		{"postgres bad dsn", CheckPostgres, map[string]interface{}{"dsn": "postgres://u@host:notaport/db"}, false},

		{"mongo ok", CheckMongoDB, map[string]interface{}{"uri": "mongodb://localhost:27017", "database": "wp", "collection": "events"}, true},
		{"mongo bad uri", CheckMongoDB, map[string]interface{}{"uri": "http://localhost", "database": "wp", "collection": "events"}, false},
		{"mongo no collection", CheckMongoDB, map[string]interface{}{"uri": "mongodb://localhost", "database": "wp"}, false},

		{"null", CheckNull, map[string]interface{}{"anything": 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check(table(t, tt.in))
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestKafkaConfig(t *testing.T) {
	cfg, brokers, err := KafkaConfig(table(t, map[string]interface{}{
		"brokers":     []interface{}{"a:9092", "b:9092"},
		"version":     "2.8.0",
		"acks":        "1",
		"compression": "lz4",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"a:9092", "b:9092"}, brokers)
	assert.Equal(t, sarama.WaitForLocal, cfg.Producer.RequiredAcks)
	assert.Equal(t, sarama.CompressionLZ4, cfg.Producer.Compression)
	assert.True(t, cfg.Version.IsAtLeast(sarama.V2_8_0_0))
}

func TestMySQLDSNFromFields(t *testing.T) {
	dsn, err := MySQLDSN(table(t, map[string]interface{}{
		"host": "db", "port": 3307, "user": "wp", "password": "secret", "database": "events",
	}))
	require.NoError(t, err)

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "db:3307", cfg.Addr)
	assert.Equal(t, "events", cfg.DBName)
	assert.Equal(t, "secret", cfg.Passwd)
}

func TestRegisterBuiltins(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"file", "kafka", "mongodb", "mysql", "null", "postgres", "syslog", "tcp"}, r.ListSinks())
	assert.Equal(t, []string{"file", "kafka", "syslog", "tcp"}, r.ListSources())

	// re-registering keeps the originals
	Register(r)
	assert.Len(t, r.ListSinks(), 8)

	err := r.CheckSink(TCP, table(t, map[string]interface{}{"addr": "x"}))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	err = r.CheckSource(MySQL, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCapability))
}

func TestCheckerErrorsAreConfigErrors(t *testing.T) {
	checks := []struct {
		name  string
		check func(*params.Table) error
		m     map[string]interface{}
	}{
		{"tcp missing port", CheckTCP, map[string]interface{}{"addr": "127.0.0.1"}},
		{"file sink unknown fmt", CheckFileSink, map[string]interface{}{"file": "a", "fmt": "xml"}},
		{"kafka bad version", CheckKafkaSink, map[string]interface{}{"brokers": "k1:9092", "topic": "t", "version": "banana"}},
		{"mysql bad dsn", CheckMySQL, map[string]interface{}{"dsn": "root:pw@tcp(127.0.0.1:3306"}},
	}
	for _, tt := range checks {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check(table(t, tt.m))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig), "got %T: %v", err, err)
		})
	}
}
