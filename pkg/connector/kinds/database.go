package kinds

import (
	"net"
	"net/url"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ajitpratap0/warpconf/pkg/errors"
	"github.com/ajitpratap0/warpconf/pkg/params"
)

// dbParams are the discrete connection parameters shared by the SQL kinds
type dbParams struct {
	host     string
	port     int64
	user     string
	password string
	database string
}

func readDBParams(p *params.Table, defPort int64) (dbParams, error) {
	var d dbParams
	var err error
	if d.host, err = stringParam(p, "host", "127.0.0.1"); err != nil {
		return d, err
	}
	if d.user, err = stringParam(p, "user", ""); err != nil {
		return d, err
	}
	if d.password, err = stringParam(p, "password", ""); err != nil {
		return d, err
	}
	if d.database, err = stringParam(p, "database", ""); err != nil {
		return d, err
	}
	d.port = defPort
	if v, ok := p.Get("port"); ok {
		port, isInt := v.AsInt()
		if !isInt || port < 1 || port > 65535 {
			return d, errors.New(errors.ErrorTypeConfig, "'port' must be an integer in 1-65535")
		}
		d.port = port
	}
	if d.user == "" {
		return d, errors.New(errors.ErrorTypeConfig, "'user' is required when 'dsn' is not set")
	}
	if d.database == "" {
		return d, errors.New(errors.ErrorTypeConfig, "'database' is required when 'dsn' is not set")
	}
	return d, nil
}

func (d dbParams) addr() string {
	return net.JoinHostPort(d.host, strconv.FormatInt(d.port, 10))
}

// MySQLDSN returns the DSN described by p: the dsn parameter when set,
// otherwise one assembled from host, port, user, password and database.
func MySQLDSN(p *params.Table) (string, error) {
	dsn, err := stringParam(p, "dsn", "")
	if err != nil {
		return "", err
	}
	if dsn != "" {
		if _, err := mysql.ParseDSN(dsn); err != nil {
			return "", errors.Wrap(err, errors.ErrorTypeConfig, "invalid mysql dsn")
		}
		return dsn, nil
	}

	d, err := readDBParams(p, 3306)
	if err != nil {
		return "", err
	}
	cfg := mysql.NewConfig()
	cfg.User = d.user
	cfg.Passwd = d.password
	cfg.Net = "tcp"
	cfg.Addr = d.addr()
	cfg.DBName = d.database
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// CheckMySQL validates the connection parameters and the target table
func CheckMySQL(p *params.Table) error {
	if _, err := MySQLDSN(p); err != nil {
		return err
	}
	return optionalString(p, "table")
}

// PostgresConnString returns the connection string described by p
func PostgresConnString(p *params.Table) (string, error) {
	dsn, err := stringParam(p, "dsn", "")
	if err != nil {
		return "", err
	}
	if dsn == "" {
		d, err := readDBParams(p, 5432)
		if err != nil {
			return "", err
		}
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(d.user, d.password),
			Host:   d.addr(),
			Path:   "/" + d.database,
		}
		dsn = u.String()
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeConfig, "invalid postgres connection string")
	}
	if v, ok := p.Get("max_conns"); ok {
		n, isInt := v.AsInt()
		if !isInt || n < 1 {
			return "", errors.New(errors.ErrorTypeConfig, "'max_conns' must be a positive integer")
		}
		poolConfig.MaxConns = int32(n)
	}
	return dsn, nil
}

// CheckPostgres validates the connection parameters and the target table
func CheckPostgres(p *params.Table) error {
	if _, err := PostgresConnString(p); err != nil {
		return err
	}
	return optionalString(p, "table")
}

// CheckMongoDB validates the connection uri and requires a database and
// collection
func CheckMongoDB(p *params.Table) error {
	uri, err := stringParam(p, "uri", "")
	if err != nil {
		return err
	}
	if uri == "" {
		return errors.New(errors.ErrorTypeConfig, "'uri' is required")
	}
	clientOpts := options.Client().ApplyURI(uri)
	if err := clientOpts.Validate(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid mongodb uri")
	}
	if !nonEmptyString(p, "database") {
		return errors.New(errors.ErrorTypeConfig, "'database' is required")
	}
	if !nonEmptyString(p, "collection") {
		return errors.New(errors.ErrorTypeConfig, "'collection' is required")
	}
	return nil
}
