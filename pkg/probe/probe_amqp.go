package probe

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/mittwald/mittsmoke/internal/config"
	"github.com/mittwald/mittsmoke/internal/helper"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

const (
	defaultVirtualHost = "/"
)

type amqpProbe struct {
	user        string
	password    string
	host        string
	virtualHost string
}

func NewAmqpProbe(cfg *config.Amqp, r *config.Resolver) (*amqpProbe, error) {
	user, password, hostname, port, vhost := cfg.User, cfg.Password, cfg.Hostname, cfg.Port, cfg.VirtualHost
	if err := resolveStrings(r, &user, &password, &hostname, &port, &vhost); err != nil {
		return nil, err
	}

	return &amqpProbe{
		user:     user,
		password: password,
		host: net.JoinHostPort(
			helper.SetDefaultStringIfEmpty(hostname, "localhost", "hostname", "amqp"),
			helper.SetDefaultStringIfEmpty(port, "5672", "port", "amqp"),
		),
		virtualHost: helper.SetDefaultStringIfEmpty(vhost, defaultVirtualHost, "virtualHost", "amqp"),
	}, nil
}

func (a *amqpProbe) Exec(ctx context.Context) (string, error) {
	u := url.URL{
		Scheme: "amqp",
		Host:   a.host,
	}

	if a.user != "" && a.password != "" {
		u.User = url.UserPassword(a.user, a.password)
	}

	conn, err := amqp.DialConfig(u.String(), amqp.Config{
		Vhost: a.virtualHost,
		Dial: func(network, addr string) (net.Conn, error) {
			return dialContext(ctx, network, addr)
		},
	})
	if err != nil {
		return "", &NetworkError{Address: a.host, Err: fmt.Errorf("failed to dial amqp: %w", err)}
	}
	defer conn.Close()

	log.WithFields(log.Fields{"kind": "probe", "name": "amqp", "status": "alive", "host": a.host}).Debug()

	return "connected to vhost " + a.virtualHost, nil
}

func (a *amqpProbe) String() string {
	return "amqp://" + a.host
}

// dialContext dials addr and bounds all further I/O on the connection by the
// deadline of ctx.
func dialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	return conn, nil
}
