// Package kinds provides the parameter checkers of the built-in connector
// kinds. Checkers only inspect parameters; none of them opens a connection.
package kinds

import (
	"fmt"
	"net"
	"strings"

	"github.com/ajitpratap0/warpconf/pkg/connector/registry"
	"github.com/ajitpratap0/warpconf/pkg/errors"
	"github.com/ajitpratap0/warpconf/pkg/params"
	"github.com/ajitpratap0/warpconf/pkg/resolve"
)

// Built-in kind names
const (
	File     = resolve.KindFile
	TCP      = resolve.KindTCP
	Syslog   = "syslog"
	Kafka    = "kafka"
	MySQL    = "mysql"
	Postgres = "postgres"
	MongoDB  = "mongodb"
	Null     = "null"
)

// Register adds every built-in checker to r. Kinds already registered keep
// their existing checker.
func Register(r *registry.Registry) {
	r.RegisterSink(File, CheckFileSink)
	r.RegisterSink(TCP, CheckTCP)
	r.RegisterSink(Syslog, CheckSyslog)
	r.RegisterSink(Kafka, CheckKafkaSink)
	r.RegisterSink(MySQL, CheckMySQL)
	r.RegisterSink(Postgres, CheckPostgres)
	r.RegisterSink(MongoDB, CheckMongoDB)
	r.RegisterSink(Null, CheckNull)

	r.RegisterSource(File, CheckFileSource)
	r.RegisterSource(TCP, CheckTCP)
	r.RegisterSource(Syslog, CheckSyslog)
	r.RegisterSource(Kafka, CheckKafkaSource)
}

// NewRegistry returns a registry with the built-in checkers
func NewRegistry() *registry.Registry {
	r := registry.NewRegistry()
	Register(r)
	return r
}

// CheckNull accepts anything
func CheckNull(*params.Table) error { return nil }

// CheckFileSink requires a path or a file name and a known fmt
func CheckFileSink(p *params.Table) error {
	if !nonEmptyString(p, "path") && !nonEmptyString(p, "file") {
		return errors.New(errors.ErrorTypeConfig, "file sink needs 'path' or 'file'")
	}
	if err := optionalString(p, "base"); err != nil {
		return err
	}
	if v, ok := p.Get("fmt"); ok {
		s, isStr := v.AsString()
		if !isStr {
			return errors.New(errors.ErrorTypeConfig, "'fmt' must be a string")
		}
		if _, known := resolve.ParseFormat(s); !known {
			return errors.Newf(errors.ErrorTypeConfig, "unknown fmt '%s'", s)
		}
	}
	return nil
}

// CheckFileSource requires a path
func CheckFileSource(p *params.Table) error {
	if !nonEmptyString(p, "path") && !nonEmptyString(p, "file") {
		return errors.New(errors.ErrorTypeConfig, "file source needs 'path' or 'file'")
	}
	return nil
}

// CheckTCP validates addr/port and the backoff flag
func CheckTCP(p *params.Table) error {
	if _, err := hostPort(p, "addr", "127.0.0.1", true); err != nil {
		return err
	}
	if v, ok := p.Get("max_backoff"); ok {
		if _, isBool := v.AsBool(); !isBool {
			return errors.New(errors.ErrorTypeConfig, "'max_backoff' must be a bool")
		}
	}
	return nil
}

// CheckSyslog validates addr/port and the transport protocol
func CheckSyslog(p *params.Table) error {
	if _, err := hostPort(p, "addr", "127.0.0.1", false); err != nil {
		return err
	}
	proto := "udp"
	if v, ok := p.Get("protocol"); ok {
		s, isStr := v.AsString()
		if !isStr {
			return errors.New(errors.ErrorTypeConfig, "'protocol' must be a string")
		}
		proto = strings.ToLower(s)
	}
	switch proto {
	case "udp", "tcp":
		return nil
	default:
		return errors.Newf(errors.ErrorTypeConfig, "syslog protocol must be udp or tcp, got '%s'", proto)
	}
}

// hostPort reads host and port parameters and joins them. A missing port is
// an error only when required.
func hostPort(p *params.Table, hostKey, defHost string, portRequired bool) (string, error) {
	host := defHost
	if v, ok := p.Get(hostKey); ok {
		s, isStr := v.AsString()
		if !isStr || s == "" {
			return "", errors.Newf(errors.ErrorTypeConfig, "'%s' must be a non-empty string", hostKey)
		}
		host = s
	}

	v, ok := p.Get("port")
	if !ok {
		if portRequired {
			return "", errors.New(errors.ErrorTypeConfig, "'port' is required")
		}
		return host, nil
	}
	port, isInt := v.AsInt()
	if !isInt {
		return "", errors.New(errors.ErrorTypeConfig, "'port' must be an integer")
	}
	if port < 1 || port > 65535 {
		return "", errors.Newf(errors.ErrorTypeConfig, "'port' %d out of range 1-65535", port)
	}
	return net.JoinHostPort(host, fmt.Sprint(port)), nil
}

func nonEmptyString(p *params.Table, key string) bool {
	s, ok := p.GetString(key)
	return ok && s != ""
}

func optionalString(p *params.Table, key string) error {
	v, ok := p.Get(key)
	if !ok {
		return nil
	}
	if _, isStr := v.AsString(); !isStr {
		return errors.Newf(errors.ErrorTypeConfig, "'%s' must be a string", key)
	}
	return nil
}

func stringParam(p *params.Table, key, def string) (string, error) {
	v, ok := p.Get(key)
	if !ok {
		return def, nil
	}
	s, isStr := v.AsString()
	if !isStr {
		return "", errors.Newf(errors.ErrorTypeConfig, "'%s' must be a string", key)
	}
	return s, nil
}

// stringList accepts either an array of strings or a comma separated string
func stringList(p *params.Table, key string) ([]string, error) {
	v, ok := p.Get(key)
	if !ok {
		return nil, nil
	}
	if s, isStr := v.AsString(); isStr {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	}
	arr, isArr := v.AsArray()
	if !isArr {
		return nil, errors.Newf(errors.ErrorTypeConfig, "'%s' must be a string or an array of strings", key)
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		s, isStr := e.AsString()
		if !isStr {
			return nil, errors.Newf(errors.ErrorTypeConfig, "'%s' must only contain strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}
