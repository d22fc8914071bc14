//go:build integration

package probe

import (
	"flag"
	"fmt"
	"testing"

	"github.com/mittwald/mittsmoke/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	neo4jHost = flag.String("neo4j.host", svcHost("127.0.0.1", "neo4j"), "Neo4j integration server host")
	neo4jPort = flag.String("neo4j.port", svcPort(17687, 7687), "Neo4j integration server port")
)

func TestNeo4jProbeExecOk(t *testing.T) {
	subject := newNeo4jIntegrationSubject(t, "", 1)
	detail, err := subject.Exec(integrationContext(t))

	assert.NoError(t, err, "Exec")
	assert.Equal(t, "1 row", detail)
}

func TestNeo4jProbeExecMinRows(t *testing.T) {
	subject := newNeo4jIntegrationSubject(t, "MATCH (p:DoesNotExist) RETURN p", 1)
	_, err := subject.Exec(integrationContext(t))

	assert.ErrorContains(t, err, "expected at least 1")
}

func newNeo4jIntegrationSubject(t *testing.T, query string, minRows int) *neo4jProbe {
	subject, err := NewNeo4jProbe(&config.Neo4j{
		Credentials: config.Credentials{User: "neo4j", Password: "mittsmoke"},
		URI:         fmt.Sprintf("bolt://%s:%s", *neo4jHost, *neo4jPort),
		Query:       query,
		MinRows:     minRows,
	}, testResolver(t, nil))
	require.NoError(t, err)
	return subject
}
