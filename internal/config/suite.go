package config

import (
	"os"
	"strings"

	"github.com/hashicorp/hcl"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Load reads every *.hcl file below configDir into a new Suite.
func Load(configDir string) (*Suite, error) {
	suite := &Suite{}
	if err := suite.GenerateFromConfigDir(configDir); err != nil {
		return nil, err
	}
	return suite, nil
}

// GenerateFromConfigDir appends the targets and probes of every *.hcl file
// below configDir, in lexical file order.
func (suite *Suite) GenerateFromConfigDir(configDir string) error {
	configDir = strings.TrimRight(configDir, "/")
	if configDir == "" {
		configDir = "/"
	}

	matches, err := findFilesInPath(configDir)
	if err != nil {
		return err
	}

	suite.Dir = configDir

	for _, m := range matches {
		log.Debugf("found config file: %s", m)

		contents, err := os.ReadFile(m)
		if err != nil {
			return errors.Wrapf(err, "could not read configuration file %s", m)
		}

		if err := suite.Parse(contents); err != nil {
			return errors.Wrapf(err, "could not parse configuration file %s", m)
		}
	}

	return nil
}

// Parse decodes a single HCL document and appends its blocks to the suite.
func (suite *Suite) Parse(contents []byte) error {
	fragment := Suite{}
	if err := hcl.Unmarshal(contents, &fragment); err != nil {
		return err
	}

	suite.Targets = append(suite.Targets, fragment.Targets...)
	suite.Probes = append(suite.Probes, fragment.Probes...)
	suite.Reports = append(suite.Reports, fragment.Reports...)
	return nil
}

// Target returns the configuration block for t. A suite without a block for
// t yields an empty target carrying only its name.
func (suite *Suite) Target(t DeploymentTarget) (*Target, error) {
	var found *Target
	for i := range suite.Targets {
		if suite.Targets[i].Name != t.String() {
			continue
		}
		if found != nil {
			return nil, errors.Errorf("target %q is defined more than once", t)
		}
		found = &suite.Targets[i]
	}

	for i := range suite.Targets {
		if _, err := ParseDeploymentTarget(suite.Targets[i].Name); err != nil {
			return nil, err
		}
	}

	if found == nil {
		return &Target{Name: t.String()}, nil
	}
	return found, nil
}
