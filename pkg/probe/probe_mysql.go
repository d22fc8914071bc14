package probe

import (
	"context"
	"database/sql"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/mittwald/mittsmoke/internal/config"
	"github.com/mittwald/mittsmoke/internal/helper"
	log "github.com/sirupsen/logrus"
)

type mySQLProbe struct {
	dsn     string
	addr    string
	query   string
	minRows int
}

func NewMySQLProbe(cfg *config.MySQL, r *config.Resolver) (*mySQLProbe, error) {
	user, password, hostname, port := cfg.User, cfg.Password, cfg.Hostname, cfg.Port
	database, native, query := cfg.Database, cfg.AllowNativePassword, cfg.Query
	if err := resolveStrings(r, &user, &password, &hostname, &port, &database, &native, &query); err != nil {
		return nil, err
	}

	connCfg := mysql.NewConfig()
	connCfg.User = user
	connCfg.Passwd = password
	connCfg.Net = "tcp"
	connCfg.Addr = net.JoinHostPort(
		helper.SetDefaultStringIfEmpty(hostname, "localhost", "hostname", "mysql"),
		helper.SetDefaultStringIfEmpty(port, "3306", "port", "mysql"),
	)
	connCfg.DBName = database
	connCfg.AllowNativePasswords = native == "" || strings.EqualFold(native, "true")

	return &mySQLProbe{
		dsn:     connCfg.FormatDSN(),
		addr:    connCfg.Addr,
		query:   helper.SetDefaultStringIfEmpty(query, defaultSQLQuery, "query", "mysql"),
		minRows: cfg.MinRows,
	}, nil
}

func (m *mySQLProbe) Exec(ctx context.Context) (string, error) {
	db, err := sql.Open("mysql", m.dsn)
	if err != nil {
		return "", &QueryError{Err: err}
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, m.query)
	if err != nil {
		return "", &QueryError{Query: m.query, Err: err}
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
	}

	if err := rows.Err(); err != nil {
		return "", &QueryError{Query: m.query, Err: err}
	}

	if err := checkRowCount(n, m.minRows); err != nil {
		return "", &QueryError{Query: m.query, Err: err}
	}

	log.WithFields(log.Fields{"kind": "probe", "name": "mysql", "status": "alive", "host": m.addr, "rows": n}).Debug()

	return rowsDetail(n), nil
}

func (m *mySQLProbe) String() string {
	return m.query
}
