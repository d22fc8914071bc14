package registry

import (
	"github.com/mittwald/mittsmoke/internal/config"
	"github.com/mittwald/mittsmoke/pkg/probe"
	log "github.com/sirupsen/logrus"
)

// Build creates and registers a definition for every probe of suite, in
// configuration order. The first invalid or duplicate probe aborts the build.
func Build(suite *config.Suite, r *config.Resolver) (*Registry, error) {
	reg := New()

	for i := range suite.Probes {
		def, err := probe.FromConfig(&suite.Probes[i], r)
		if err != nil {
			return nil, err
		}

		if err := reg.Register(def); err != nil {
			return nil, err
		}

		log.WithFields(log.Fields{"probe": def.Name, "kind": def.Kind, "driver": def.Driver, "timeout": def.Timeout}).Debug("registered probe")
	}

	return reg, nil
}
