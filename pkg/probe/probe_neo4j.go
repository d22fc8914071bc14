package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/mittwald/mittsmoke/internal/config"
	"github.com/mittwald/mittsmoke/internal/helper"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	log "github.com/sirupsen/logrus"
)

const defaultCypherQuery = "RETURN 1"

type neo4jProbe struct {
	uri      string
	user     string
	password string
	database string
	query    string
	minRows  int
}

func NewNeo4jProbe(cfg *config.Neo4j, r *config.Resolver) (*neo4jProbe, error) {
	uri, user, password, database, query := cfg.URI, cfg.User, cfg.Password, cfg.Database, cfg.Query
	if err := resolveStrings(r, &uri, &user, &password, &database, &query); err != nil {
		return nil, err
	}

	return &neo4jProbe{
		uri:      helper.SetDefaultStringIfEmpty(uri, "bolt://localhost:7687", "uri", "neo4j"),
		user:     user,
		password: password,
		database: database,
		query:    helper.SetDefaultStringIfEmpty(query, defaultCypherQuery, "query", "neo4j"),
		minRows:  cfg.MinRows,
	}, nil
}

func (n *neo4jProbe) Exec(ctx context.Context) (string, error) {
	auth := neo4j.NoAuth()
	if n.user != "" {
		auth = neo4j.BasicAuth(n.user, n.password, "")
	}

	driver, err := neo4j.NewDriverWithContext(n.uri, auth)
	if err != nil {
		return "", &QueryError{Err: fmt.Errorf("invalid neo4j uri %q: %w", n.uri, err)}
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = driver.Close(closeCtx)
	}()

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return "", &QueryError{Err: fmt.Errorf("failed to connect to neo4j at %s: %w", n.uri, err)}
	}

	var opts []neo4j.ExecuteQueryConfigurationOption
	if n.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(n.database))
	}

	result, err := neo4j.ExecuteQuery(ctx, driver, n.query, nil, neo4j.EagerResultTransformer, opts...)
	if err != nil {
		return "", &QueryError{Query: n.query, Err: err}
	}

	rows := len(result.Records)
	if err := checkRowCount(rows, n.minRows); err != nil {
		return "", &QueryError{Query: n.query, Err: err}
	}

	log.WithFields(log.Fields{"kind": "probe", "name": "neo4j", "status": "alive", "host": n.uri, "rows": rows}).Debug()

	return rowsDetail(rows), nil
}

func (n *neo4jProbe) String() string {
	return n.query
}
