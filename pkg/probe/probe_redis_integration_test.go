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
	redisHost = flag.String("redis.host", svcHost("127.0.0.1", "redis"), "Redis integration server host")
	redisPort = flag.String("redis.port", svcPort(16379, 6379), "Redis integration server port")
)

func TestRedisProbeExecOk(t *testing.T) {
	subject, err := NewRedisProbe(&config.Redis{Host: config.Host{Hostname: *redisHost, Port: *redisPort}}, testResolver(t, nil))
	require.NoError(t, err)

	_, err = subject.Exec(integrationContext(t))

	assert.NoError(t, err, "Exec")
}
