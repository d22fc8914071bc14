package probe

import (
	"testing"

	"github.com/mittwald/mittsmoke/internal/config"
	"github.com/stretchr/testify/require"
)

func testResolver(t *testing.T, env map[string]string) *config.Resolver {
	t.Helper()

	suite := &config.Suite{
		Targets: []config.Target{{Name: "host", Env: env}},
	}
	r, err := config.NewResolver(suite, config.TargetHost)
	require.NoError(t, err)

	return r
}
