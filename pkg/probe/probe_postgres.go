package probe

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mittwald/mittsmoke/internal/config"
	"github.com/mittwald/mittsmoke/internal/helper"
	log "github.com/sirupsen/logrus"
)

const defaultSQLQuery = "SELECT 1"

type postgresProbe struct {
	dsn     string
	host    string
	query   string
	minRows int
}

func NewPostgresProbe(cfg *config.Postgres, r *config.Resolver) (*postgresProbe, error) {
	user, password, hostname, port := cfg.User, cfg.Password, cfg.Hostname, cfg.Port
	database, sslMode, dsn, query := cfg.Database, cfg.SSLMode, cfg.DSN, cfg.Query
	if err := resolveStrings(r, &user, &password, &hostname, &port, &database, &sslMode, &dsn, &query); err != nil {
		return nil, err
	}

	query = helper.SetDefaultStringIfEmpty(query, defaultSQLQuery, "query", "postgres")
	host := net.JoinHostPort(
		helper.SetDefaultStringIfEmpty(hostname, "localhost", "hostname", "postgres"),
		helper.SetDefaultStringIfEmpty(port, "5432", "port", "postgres"),
	)

	if dsn == "" {
		u := url.URL{Scheme: "postgres", Host: host, Path: "/" + database}
		if user != "" {
			u.User = url.UserPassword(user, password)
		}
		if sslMode != "" {
			u.RawQuery = url.Values{"sslmode": []string{sslMode}}.Encode()
		}
		dsn = u.String()
	}

	if _, err := pgx.ParseConfig(dsn); err != nil {
		return nil, fmt.Errorf("invalid postgres connection string: %w", err)
	}

	return &postgresProbe{dsn: dsn, host: host, query: query, minRows: cfg.MinRows}, nil
}

func (p *postgresProbe) Exec(ctx context.Context) (string, error) {
	conn, err := pgx.Connect(ctx, p.dsn)
	if err != nil {
		return "", &QueryError{Err: fmt.Errorf("failed to connect to postgres at %s: %w", p.host, err)}
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	rows, err := conn.Query(ctx, p.query)
	if err != nil {
		return "", &QueryError{Query: p.query, Err: err}
	}

	n := 0
	for rows.Next() {
		n++
	}
	rows.Close()

	if err := rows.Err(); err != nil {
		return "", &QueryError{Query: p.query, Err: err}
	}

	if err := checkRowCount(n, p.minRows); err != nil {
		return "", &QueryError{Query: p.query, Err: err}
	}

	log.WithFields(log.Fields{"kind": "probe", "name": "postgres", "status": "alive", "host": p.host, "rows": n}).Debug()

	return rowsDetail(n), nil
}

func (p *postgresProbe) String() string {
	return p.query
}

func checkRowCount(n, min int) error {
	if n < min {
		return fmt.Errorf("returned %d rows, expected at least %d", n, min)
	}
	return nil
}

func rowsDetail(n int) string {
	if n == 1 {
		return "1 row"
	}
	return fmt.Sprintf("%d rows", n)
}
