package config

import (
	"strings"

	"github.com/pkg/errors"
)

// DeploymentTarget selects which addresses a suite runs against.
type DeploymentTarget int

const (
	TargetHost DeploymentTarget = iota
	TargetContainer
)

func ParseDeploymentTarget(s string) (DeploymentTarget, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "host", "":
		return TargetHost, nil
	case "container":
		return TargetContainer, nil
	}
	return TargetHost, errors.Errorf("unknown deployment target %q (expected \"host\" or \"container\")", s)
}

func (t DeploymentTarget) String() string {
	switch t {
	case TargetContainer:
		return "container"
	default:
		return "host"
	}
}

// Set and Type make DeploymentTarget usable as a command line flag.
func (t *DeploymentTarget) Set(s string) error {
	parsed, err := ParseDeploymentTarget(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t *DeploymentTarget) Type() string {
	return "target"
}
