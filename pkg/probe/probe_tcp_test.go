package probe

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/mittwald/mittsmoke/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTCPProbeExecOk(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	host, port, _ := net.SplitHostPort(ln.Addr().String())
	subject, err := NewTCPProbe(&config.Host{Hostname: host, Port: port}, testResolver(t, nil))
	require.NoError(t, err)

	detail, err := subject.Exec(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "connected", detail)
	assert.Equal(t, "tcp://"+ln.Addr().String(), subject.String())
}

func TestTCPProbeExecConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	_ = ln.Close()

	host, port, _ := net.SplitHostPort(addr)
	subject, err := NewTCPProbe(&config.Host{Hostname: host, Port: port}, testResolver(t, nil))
	require.NoError(t, err)

	_, err = subject.Exec(context.Background())

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, addr, netErr.Address)
}

func TestNewTCPProbeRequiresHostAndPort(t *testing.T) {
	_, err := NewTCPProbe(&config.Host{Hostname: "localhost"}, testResolver(t, nil))

	assert.ErrorContains(t, err, "requires hostname and port")
}

func TestFilesystemProbe(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "products.csv"), []byte("id,name\n"), 0o644))

	detail, err := (&filesystemProbe{path: dir}).Exec(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1 entries", detail)

	_, err = (&filesystemProbe{path: filepath.Join(dir, "missing")}).Exec(context.Background())
	assert.Error(t, err)
}
