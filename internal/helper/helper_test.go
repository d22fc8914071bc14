package helper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEnv(t *testing.T) {
	lookup := func(key string) (string, bool) {
		if key == "DB_PASSWORD" {
			return "secret", true
		}
		return "", false
	}

	assert.Equal(t, "secret", ResolveEnv("ENV:DB_PASSWORD", lookup))
	assert.Equal(t, "", ResolveEnv("ENV:UNSET", lookup))
	assert.Equal(t, "plain", ResolveEnv("plain", lookup))
}

func TestResolveEnvUsesProcessEnvironment(t *testing.T) {
	t.Setenv("MITTSMOKE_HELPER_TEST", "value")

	assert.Equal(t, "value", ResolveEnv("ENV:MITTSMOKE_HELPER_TEST", nil))
}

func TestSetDefaultStringIfEmpty(t *testing.T) {
	assert.Equal(t, "5432", SetDefaultStringIfEmpty("", "5432", "port", "postgres"))
	assert.Equal(t, "6543", SetDefaultStringIfEmpty("6543", "5432", "port", "postgres"))
}

func TestParseDurationOrDefault(t *testing.T) {
	d, err := ParseDurationOrDefault("", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)

	d, err = ParseDurationOrDefault("250ms", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)

	_, err = ParseDurationOrDefault("five seconds", 5*time.Second)
	assert.Error(t, err)
}
