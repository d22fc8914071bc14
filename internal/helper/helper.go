package helper

import (
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const envPrefix = "ENV:"

// LookupFunc resolves the value of an environment variable.
type LookupFunc func(key string) (string, bool)

// ResolveEnv replaces values of the form "ENV:NAME" with the value of NAME as
// returned by lookup. A nil lookup falls back to the process environment.
func ResolveEnv(in string, lookup LookupFunc) string {
	if !strings.HasPrefix(in, envPrefix) {
		return in
	}

	if lookup == nil {
		lookup = os.LookupEnv
	}

	v, _ := lookup(in[len(envPrefix):])
	return v
}

func SetDefaultStringIfEmpty(value, defaultValue string, field, kind string) string {
	if len(value) == 0 {
		if defaultValue != "" {
			log.WithFields(log.Fields{"kind": kind, "field": field}).Debugf("no value specified, assuming default %q", defaultValue)
		}
		return defaultValue
	}
	return value
}

// ParseDurationOrDefault parses value as a duration; an empty value yields def.
func ParseDurationOrDefault(value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	return time.ParseDuration(value)
}
