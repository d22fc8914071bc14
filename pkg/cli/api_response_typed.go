package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mittwald/mittsmoke/pkg/report"
	"github.com/pkg/errors"
	"github.com/tidwall/pretty"
)

var _ APIResponse = &TypedAPIResponse[struct{}]{}

type TypedAPIResponse[TBody any] struct {
	StatusCode int   `json:"statusCode"`
	Body       TBody `json:"body"`
	Error      error `json:"error"`
	// Color enables ANSI colors when printing.
	Color bool `json:"-"`
}

// NewTypedAPIResponse returns a parser that decodes JSON bodies into a copy
// of body. Status codes other than the accepted ones are errors.
func NewTypedAPIResponse[TBody any](body TBody, accept ...int) func(resp *http.Response, err error) *TypedAPIResponse[TBody] {
	return func(resp *http.Response, err error) *TypedAPIResponse[TBody] {
		apiRes := TypedAPIResponse[TBody]{
			Error: err,
		}
		if resp == nil {
			return &apiRes
		}
		defer resp.Body.Close()

		apiRes.StatusCode = resp.StatusCode

		out, err := io.ReadAll(resp.Body)
		if err != nil {
			apiRes.Error = fmt.Errorf("failed to read body: %s", err.Error())
			return &apiRes
		}

		if !accepted(resp.StatusCode, accept) {
			apiRes.Error = fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(out)))
			return &apiRes
		}

		switch contentType := strings.Split(resp.Header.Get("Content-Type"), ";")[0]; contentType {
		case "application/json":
			if err := json.Unmarshal(out, &body); err != nil {
				apiRes.Error = errors.Wrapf(err, "failed to parse body as JSON")
				return &apiRes
			}
		case "text/plain":
			apiRes.Error = errors.New(strings.TrimSpace(string(out)))
			return &apiRes
		default:
			apiRes.Error = fmt.Errorf("unknown content type %s", contentType)
			return &apiRes
		}

		apiRes.Body = body

		return &apiRes
	}
}

func accepted(status int, accept []int) bool {
	for _, a := range accept {
		if a == status {
			return true
		}
	}
	return false
}

func (resp *TypedAPIResponse[TBody]) Err() error {
	return resp.Error
}

func (resp *TypedAPIResponse[TBody]) Print(w io.Writer) error {
	if resp.Error != nil {
		_, err := fmt.Fprintln(w, resp.Error.Error())
		return err
	}

	jsonBody, err := json.Marshal(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal body as JSON")
	}

	out := pretty.Pretty(jsonBody)
	if resp.Color {
		out = pretty.Color(out, nil)
	}

	_, err = w.Write(out)
	return err
}

// ExitCode passes on the exit code reported by /status; other bodies exit
// with 0 once decoded.
func (resp *TypedAPIResponse[TBody]) ExitCode() int {
	if resp.Error != nil {
		return report.ExitFailure
	}
	if s, ok := any(resp.Body).(StatusBody); ok {
		return s.ExitCode
	}
	return report.ExitOK
}
