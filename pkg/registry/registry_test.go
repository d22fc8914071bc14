package registry

import (
	"context"
	"testing"

	"github.com/mittwald/mittsmoke/internal/config"
	"github.com/mittwald/mittsmoke/pkg/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okCheck() probe.Probe {
	return probe.Func(func(ctx context.Context) (string, error) {
		return "ok", nil
	})
}

func def(name string) probe.Definition {
	return probe.Definition{Name: name, Kind: probe.KindHTTP, Check: okCheck()}
}

func names(defs []probe.Definition) []string {
	out := make([]string, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Name)
	}
	return out
}

func TestRegisterKeepsOrder(t *testing.T) {
	reg := New()
	for _, n := range []string{"api-health", "postgres-products", "neo4j-graph", "etl"} {
		require.NoError(t, reg.Register(def(n)))
	}

	assert.Equal(t, 4, reg.Len())
	assert.Equal(t, []string{"api-health", "postgres-products", "neo4j-graph", "etl"}, names(reg.List()))
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(def("api-health")))

	err := reg.Register(def("api-health"))

	var cfgErr *probe.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "api-health", cfgErr.Probe)
	assert.ErrorContains(t, err, `duplicate probe name "api-health"`)
	assert.Equal(t, 1, reg.Len(), "registry must be unchanged")
}

func TestRegisterRejectsInvalidDefinitions(t *testing.T) {
	reg := New()

	var cfgErr *probe.ConfigurationError
	assert.ErrorAs(t, reg.Register(probe.Definition{Name: " ", Check: okCheck()}), &cfgErr)
	assert.ErrorAs(t, reg.Register(probe.Definition{Name: "no-check"}), &cfgErr)
	assert.Equal(t, 0, reg.Len())
}

func TestListReturnsCopy(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(def("api-health")))

	list := reg.List()
	list[0].Name = "changed"

	d, ok := reg.Lookup("api-health")
	assert.True(t, ok)
	assert.Equal(t, "api-health", d.Name)
}

func TestLookup(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(def("api-health")))

	_, ok := reg.Lookup("missing")
	assert.False(t, ok)
}

func TestSelect(t *testing.T) {
	reg := New()
	for _, n := range []string{"a", "b", "c"} {
		require.NoError(t, reg.Register(def(n)))
	}

	all, err := reg.Select()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names(all))

	some, err := reg.Select("c", "a", "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, names(some), "selection keeps registration order")

	_, err = reg.Select("a", "unknown")
	var cfgErr *probe.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestBuild(t *testing.T) {
	suite := &config.Suite{
		Probes: []config.Probe{
			{Name: "api-health", HTTP: &config.HTTP{URL: "http://localhost:8000/health"}},
			{Name: "etl", Command: &config.Command{Command: "python", Args: []string{"app/etl.py"}}},
		},
	}
	r, err := config.NewResolver(suite, config.TargetHost)
	require.NoError(t, err)

	reg, err := Build(suite, r)

	require.NoError(t, err)
	assert.Equal(t, []string{"api-health", "etl"}, names(reg.List()))
}

func TestBuildRejectsDuplicateNames(t *testing.T) {
	suite := &config.Suite{
		Probes: []config.Probe{
			{Name: "api-health", HTTP: &config.HTTP{URL: "http://localhost:8000/health"}},
			{Name: "api-health", HTTP: &config.HTTP{URL: "http://localhost:8000/stats"}},
		},
	}
	r, err := config.NewResolver(suite, config.TargetHost)
	require.NoError(t, err)

	_, err = Build(suite, r)

	var cfgErr *probe.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
