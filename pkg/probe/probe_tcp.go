package probe

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/mittwald/mittsmoke/internal/config"
	log "github.com/sirupsen/logrus"
)

type tcpProbe struct {
	addr string
}

func NewTCPProbe(cfg *config.Host, r *config.Resolver) (*tcpProbe, error) {
	hostname, port := cfg.Hostname, cfg.Port
	if err := resolveStrings(r, &hostname, &port); err != nil {
		return nil, err
	}

	if hostname == "" || port == "" {
		return nil, fmt.Errorf("tcp probe requires hostname and port")
	}

	return &tcpProbe{addr: net.JoinHostPort(hostname, port)}, nil
}

func (t *tcpProbe) Exec(ctx context.Context) (string, error) {
	conn, err := dialContext(ctx, "tcp", t.addr)
	if err != nil {
		return "", &NetworkError{Address: t.addr, Err: err}
	}
	_ = conn.Close()

	log.WithFields(log.Fields{"kind": "probe", "name": "tcp", "status": "alive", "host": t.addr}).Debug()

	return "connected", nil
}

func (t *tcpProbe) String() string {
	return "tcp://" + t.addr
}

type filesystemProbe struct {
	path string
}

func (f *filesystemProbe) Exec(ctx context.Context) (string, error) {
	entries, err := os.ReadDir(f.path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d entries", len(entries)), nil
}

func (f *filesystemProbe) String() string {
	return f.path
}
