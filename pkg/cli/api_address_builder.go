package cli

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"path"

	"github.com/gorilla/websocket"
)

// buildHTTPClientAndURL returns a client and the URL of endpoint. Addresses
// with the "unix" scheme are dialed as unix domain sockets.
func (api *APIClient) buildHTTPClientAndURL(endpoint string) (*http.Client, *url.URL, error) {
	u, err := url.Parse(api.apiAddress)
	if err != nil {
		return nil, nil, err
	}

	if u.Scheme != "unix" {
		u.Path = path.Join(u.Path, endpoint)
		return &http.Client{Timeout: api.timeout}, u, nil
	}

	socketPath := u.Path
	return &http.Client{
		Timeout: api.timeout,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socketPath)
			},
		},
	}, &url.URL{Scheme: "http", Host: "unix", Path: endpoint}, nil
}

func (api *APIClient) buildWebsocketURL(endpoint string) (*websocket.Dialer, *url.URL, error) {
	u, err := url.Parse(api.apiAddress)
	if err != nil {
		return nil, nil, err
	}

	switch u.Scheme {
	case "unix":
		socketPath := u.Path
		dialer := &websocket.Dialer{
			NetDialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socketPath)
			},
		}
		return dialer, &url.URL{Scheme: "ws", Host: "unix", Path: endpoint}, nil
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	u.Path = path.Join(u.Path, endpoint)
	return websocket.DefaultDialer, u, nil
}
