package probe

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-redis/redis"
	"github.com/mittwald/mittsmoke/internal/config"
	"github.com/mittwald/mittsmoke/internal/helper"
	log "github.com/sirupsen/logrus"
)

type redisProbe struct {
	addr     string
	password string
	database int
}

func NewRedisProbe(cfg *config.Redis, r *config.Resolver) (*redisProbe, error) {
	hostname, port, password := cfg.Hostname, cfg.Port, cfg.Password
	if err := resolveStrings(r, &hostname, &port, &password); err != nil {
		return nil, err
	}

	return &redisProbe{
		addr: net.JoinHostPort(
			helper.SetDefaultStringIfEmpty(hostname, "localhost", "hostname", "redis"),
			helper.SetDefaultStringIfEmpty(port, "6379", "port", "redis"),
		),
		password: password,
		database: cfg.Database,
	}, nil
}

func (r *redisProbe) Exec(ctx context.Context) (string, error) {
	opts := &redis.Options{
		Addr:       r.addr,
		Password:   r.password,
		DB:         r.database,
		MaxRetries: 0,
	}

	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		opts.DialTimeout = remaining
		opts.ReadTimeout = remaining
		opts.WriteTimeout = remaining
	}

	client := redis.NewClient(opts).WithContext(ctx)
	defer client.Close()

	pong, err := client.Ping().Result()
	if err != nil {
		return "", &QueryError{Query: "PING", Err: fmt.Errorf("redis at %s: %w", r.addr, err)}
	}

	log.WithFields(log.Fields{"kind": "probe", "name": "redis", "status": "alive", "host": r.addr}).Debug()

	return pong, nil
}

func (r *redisProbe) String() string {
	return "PING " + r.addr
}
