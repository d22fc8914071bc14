package probe

import (
	"context"
	"net"
	"net/smtp"

	"github.com/mittwald/mittsmoke/internal/config"
	"github.com/mittwald/mittsmoke/internal/helper"
	log "github.com/sirupsen/logrus"
)

type smtpProbe struct {
	hostname string
	addr     string
}

func NewSmtpProbe(cfg *config.SMTP, r *config.Resolver) (*smtpProbe, error) {
	hostname, port := cfg.Hostname, cfg.Port
	if err := resolveStrings(r, &hostname, &port); err != nil {
		return nil, err
	}

	hostname = helper.SetDefaultStringIfEmpty(hostname, "localhost", "hostname", "smtp")
	port = helper.SetDefaultStringIfEmpty(port, "25", "port", "smtp")

	return &smtpProbe{
		hostname: hostname,
		addr:     net.JoinHostPort(hostname, port),
	}, nil
}

func (s *smtpProbe) Exec(ctx context.Context) (string, error) {
	conn, err := dialContext(ctx, "tcp", s.addr)
	if err != nil {
		return "", &NetworkError{Address: s.addr, Err: err}
	}

	client, err := smtp.NewClient(conn, s.hostname)
	if err != nil {
		_ = conn.Close()
		return "", &NetworkError{Address: s.addr, Err: err}
	}
	defer client.Close()

	if err := client.Noop(); err != nil {
		return "", &NetworkError{Address: s.addr, Err: err}
	}

	if err := client.Quit(); err != nil {
		return "", &NetworkError{Address: s.addr, Err: err}
	}

	log.WithFields(log.Fields{"kind": "probe", "name": "smtp", "status": "alive", "host": s.addr}).Debug()

	return "NOOP ok", nil
}

func (s *smtpProbe) String() string {
	return "smtp://" + s.addr
}
