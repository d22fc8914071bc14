package cli

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mittwald/mittsmoke/pkg/report"
	"github.com/mittwald/mittsmoke/pkg/server"
)

const (
	APIActionStatus = "status"
	APIActionProbes = "probes"
	APIActionStream = "stream"
)

// StatusBody is the JSON document served by /status.
type StatusBody struct {
	report.Report
	Overall  report.Outcome `json:"overall"`
	ExitCode int            `json:"exitCode"`
}

// APIClient talks to a running "mittsmoke serve".
type APIClient struct {
	apiAddress string
	timeout    time.Duration
}

func NewAPIClient(apiAddress string, timeout time.Duration) *APIClient {
	return &APIClient{
		apiAddress: apiAddress,
		timeout:    timeout,
	}
}

func (api *APIClient) CallAction(ctx context.Context, action, mode string) APIResponse {
	switch action {
	case APIActionStatus:
		return api.Status(ctx)
	case APIActionProbes:
		return api.Probes(ctx)
	case APIActionStream:
		return api.Stream(ctx, mode)
	default:
		return &CommonAPIResponse{
			StatusCode: http.StatusBadRequest,
			Error:      fmt.Errorf("unknown action %s", action),
		}
	}
}

// Status triggers a full run on the server. A failing run is answered with
// 503 but still carries the report.
func (api *APIClient) Status(ctx context.Context) *TypedAPIResponse[StatusBody] {
	parse := NewTypedAPIResponse(StatusBody{}, http.StatusOK, http.StatusServiceUnavailable)

	client, u, err := api.buildHTTPClientAndURL("/status")
	if err != nil {
		return parse(nil, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return parse(nil, err)
	}

	return parse(client.Do(req))
}

func (api *APIClient) Probes(ctx context.Context) *TypedAPIResponse[[]server.ProbeInfo] {
	parse := NewTypedAPIResponse([]server.ProbeInfo{}, http.StatusOK)

	client, u, err := api.buildHTTPClientAndURL("/v1/probes")
	if err != nil {
		return parse(nil, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return parse(nil, err)
	}

	return parse(client.Do(req))
}

// Stream runs the suite on the server and follows the results as they are
// produced.
func (api *APIClient) Stream(ctx context.Context, mode string) *StreamingAPIResponse {
	dialer, u, err := api.buildWebsocketURL("/v1/run/stream")
	if err != nil {
		return &StreamingAPIResponse{err: err}
	}

	if mode != "" {
		u.RawQuery = url.Values{"mode": []string{mode}}.Encode()
	}

	return NewStreamingAPIResponse(ctx, u, dialer)
}
