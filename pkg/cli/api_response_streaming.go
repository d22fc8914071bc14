package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/mittwald/mittsmoke/pkg/report"
	"github.com/mittwald/mittsmoke/pkg/server"
	"github.com/pkg/errors"
)

var _ APIResponse = &StreamingAPIResponse{}

// StreamingAPIResponse prints results of a remote run while it executes.
// Summary is set once the server finished the run.
type StreamingAPIResponse struct {
	Summary *server.StreamMessage
	Color   bool

	url           *url.URL
	dialer        *websocket.Dialer
	streamContext context.Context
	err           error
}

func NewStreamingAPIResponse(ctx context.Context, url *url.URL, dialer *websocket.Dialer) *StreamingAPIResponse {
	return &StreamingAPIResponse{
		url:           url,
		dialer:        dialer,
		streamContext: ctx,
	}
}

func (resp *StreamingAPIResponse) Err() error {
	return resp.err
}

func (resp *StreamingAPIResponse) Print(w io.Writer) error {
	if resp.err != nil {
		return resp.err
	}

	conn, _, err := resp.dialer.DialContext(resp.streamContext, resp.url.String(), nil)
	if err != nil {
		resp.err = fmt.Errorf("error dialing to %s: %w", resp.url.String(), err)
		return resp.err
	}
	done := make(chan struct{})
	defer func() {
		close(done)
		conn.Close()
	}()

	go func() {
		select {
		case <-resp.streamContext.Done():
			conn.Close()
		case <-done:
		}
	}()

	renderer := &report.TextRenderer{Color: resp.Color}

	for {
		var msg server.StreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) && resp.Summary != nil {
				return nil
			}
			if resp.streamContext.Err() != nil {
				resp.err = resp.streamContext.Err()
			} else {
				resp.err = errors.Wrap(err, "stream ended unexpectedly")
			}
			return resp.err
		}

		switch msg.Type {
		case server.MessageTypeResult:
			if msg.Result == nil {
				continue
			}
			if err := renderer.RenderResult(w, *msg.Result); err != nil {
				return err
			}
		case server.MessageTypeSummary:
			summary := msg
			resp.Summary = &summary
			fmt.Fprintf(w, "%s: %d passed, %d failed, %d skipped (run %s)\n", msg.Overall, msg.Passed, msg.Failed, msg.Skipped, msg.RunID)
		}
	}
}

func (resp *StreamingAPIResponse) ExitCode() int {
	if resp.err != nil || resp.Summary == nil {
		return report.ExitFailure
	}
	return resp.Summary.ExitCode
}
