package probe

import (
	"fmt"
	"strings"
	"time"

	"github.com/mittwald/mittsmoke/internal/config"
	"github.com/mittwald/mittsmoke/internal/helper"
)

const defaultRetryBackoff = time.Second

// FromConfig builds the definition of a single configured probe for the
// target r resolves against. Every error is a *ConfigurationError.
func FromConfig(cfg *config.Probe, r *config.Resolver) (Definition, error) {
	def := Definition{
		Name:    cfg.Name,
		Retries: cfg.Retries,
		CanFail: cfg.CanFail,
	}

	if strings.TrimSpace(cfg.Name) == "" {
		return def, configErrorf(cfg.Name, "probe name must not be empty")
	}

	if cfg.Retries < 0 {
		return def, configErrorf(cfg.Name, "retries must not be negative")
	}

	check, kind, driver, err := buildCheck(cfg, r)
	if err != nil {
		return def, NewConfigurationError(cfg.Name, err)
	}

	def.Check = check
	def.Kind = kind
	def.Driver = driver
	if s, ok := check.(fmt.Stringer); ok {
		def.Target = s.String()
	}

	timeout, err := helper.ParseDurationOrDefault(cfg.Timeout, defaultTimeout(kind))
	if err != nil {
		return def, configErrorf(cfg.Name, "invalid timeout duration: %s", err)
	}
	if timeout <= 0 {
		return def, configErrorf(cfg.Name, "timeout must be positive")
	}
	def.Timeout = timeout

	backoff, err := helper.ParseDurationOrDefault(cfg.RetryBackoff, defaultRetryBackoff)
	if err != nil {
		return def, configErrorf(cfg.Name, "invalid retryBackoff duration: %s", err)
	}
	def.RetryBackoff = backoff

	return def, nil
}

func buildCheck(cfg *config.Probe, r *config.Resolver) (Probe, Kind, string, error) {
	var (
		check  Probe
		kind   Kind
		driver string
		err    error
		blocks []string
	)

	if cfg.HTTP != nil {
		blocks = append(blocks, "http")
		check, err = NewHttpProbe(cfg.HTTP, r)
		kind, driver = KindHTTP, "http"
	}
	if cfg.Command != nil {
		blocks = append(blocks, "command")
		check, err = NewCommandProbe(cfg.Command, r)
		kind, driver = KindCommand, "command"
	}
	if cfg.Postgres != nil {
		blocks = append(blocks, "postgres")
		check, err = NewPostgresProbe(cfg.Postgres, r)
		kind, driver = KindQuery, "postgres"
	}
	if cfg.MySQL != nil {
		blocks = append(blocks, "mysql")
		check, err = NewMySQLProbe(cfg.MySQL, r)
		kind, driver = KindQuery, "mysql"
	}
	if cfg.Neo4j != nil {
		blocks = append(blocks, "neo4j")
		check, err = NewNeo4jProbe(cfg.Neo4j, r)
		kind, driver = KindQuery, "neo4j"
	}
	if cfg.MongoDB != nil {
		blocks = append(blocks, "mongodb")
		check, err = NewMongoDBProbe(cfg.MongoDB, r)
		kind, driver = KindQuery, "mongodb"
	}
	if cfg.Redis != nil {
		blocks = append(blocks, "redis")
		check, err = NewRedisProbe(cfg.Redis, r)
		kind, driver = KindQuery, "redis"
	}
	if cfg.Amqp != nil {
		blocks = append(blocks, "amqp")
		check, err = NewAmqpProbe(cfg.Amqp, r)
		kind, driver = KindConnect, "amqp"
	}
	if cfg.SMTP != nil {
		blocks = append(blocks, "smtp")
		check, err = NewSmtpProbe(cfg.SMTP, r)
		kind, driver = KindConnect, "smtp"
	}
	if cfg.TCP != nil {
		blocks = append(blocks, "tcp")
		check, err = NewTCPProbe(cfg.TCP, r)
		kind, driver = KindConnect, "tcp"
	}
	if cfg.Filesystem != "" {
		blocks = append(blocks, "filesystem")
		var path string
		path, err = r.Resolve(cfg.Filesystem)
		check = &filesystemProbe{path: path}
		kind, driver = KindConnect, "filesystem"
	}

	switch {
	case len(blocks) == 0:
		return nil, "", "", fmt.Errorf("no check configured")
	case len(blocks) > 1:
		return nil, "", "", fmt.Errorf("exactly one check must be configured, found %s", strings.Join(blocks, ", "))
	case err != nil:
		return nil, "", "", fmt.Errorf("invalid %s check: %w", driver, err)
	}

	return check, kind, driver, nil
}

func defaultTimeout(kind Kind) time.Duration {
	switch kind {
	case KindHTTP:
		return DefaultHTTPTimeout
	case KindCommand:
		return DefaultCommandTimeout
	default:
		return DefaultQueryTimeout
	}
}

func resolveStrings(r *config.Resolver, values ...*string) error {
	for _, v := range values {
		resolved, err := r.Resolve(*v)
		if err != nil {
			return err
		}
		*v = resolved
	}
	return nil
}
