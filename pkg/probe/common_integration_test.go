//go:build integration

package probe

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"
)

const (
	dockerEnv = "/.dockerenv"
	podmanEnv = "/run/.containerenv"

	integrationTimeout = 10 * time.Second
)

// isContainerEnv reports whether the tests run inside of a container.
func isContainerEnv() bool {
	for _, f := range []string{dockerEnv, podmanEnv} {
		if _, err := os.Stat(f); err == nil {
			return true
		}
	}
	return false
}

// svcHost returns either hostAddr or containerAddr
// depending on the current execution environment.
func svcHost(hostAddr, containerAddr string) string {
	if isContainerEnv() {
		return containerAddr
	}
	return hostAddr
}

// svcPort returns either hostPort or containerPort
// depending on the current execution environment.
func svcPort(hostPort, containerPort uint) string {
	if isContainerEnv() {
		return strconv.FormatUint(uint64(containerPort), 10)
	}
	return strconv.FormatUint(uint64(hostPort), 10)
}

func integrationContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), integrationTimeout)
	t.Cleanup(cancel)
	return ctx
}
