//go:build integration

package probe

import (
	"flag"
	"testing"

	"github.com/mittwald/mittsmoke/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	mysqlHost = flag.String("mysql.host", svcHost("127.0.0.1", "mysql"), "MySQL integration server host")
	mysqlPort = flag.String("mysql.port", svcPort(13306, 3306), "MySQL integration server port")
)

func TestMySQLProbeExecOk(t *testing.T) {
	subject := newMySQLIntegrationSubject(t, "SELECT 1", 1)
	detail, err := subject.Exec(integrationContext(t))

	assert.NoError(t, err, "Exec")
	assert.Equal(t, "1 row", detail)
}

func TestMySQLProbeExecMinRows(t *testing.T) {
	subject := newMySQLIntegrationSubject(t, "SELECT 1 FROM DUAL WHERE 1 = 0", 1)
	_, err := subject.Exec(integrationContext(t))

	var queryErr *QueryError
	assert.ErrorAs(t, err, &queryErr)
}

func newMySQLIntegrationSubject(t *testing.T, query string, minRows int) *mySQLProbe {
	subject, err := NewMySQLProbe(&config.MySQL{
		Credentials: config.Credentials{User: "root", Password: "mittsmoke"},
		Host:        config.Host{Hostname: *mysqlHost, Port: *mysqlPort},
		Database:    "mittsmoke",
		Query:       query,
		MinRows:     minRows,
	}, testResolver(t, nil))
	require.NoError(t, err)
	return subject
}
