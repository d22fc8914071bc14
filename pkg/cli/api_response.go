package cli

import (
	"fmt"
	"io"

	"github.com/mittwald/mittsmoke/pkg/report"
)

type APIResponse interface {
	Print(w io.Writer) error
	Err() error
	// ExitCode is the exit code of the remote run, or report.ExitFailure if
	// the call itself failed.
	ExitCode() int
}

var _ APIResponse = &CommonAPIResponse{}

type CommonAPIResponse struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
	Error      error  `json:"error"`
}

func (resp *CommonAPIResponse) Err() error {
	return resp.Error
}

func (resp *CommonAPIResponse) Print(w io.Writer) error {
	if resp.Error != nil {
		_, err := fmt.Fprintln(w, resp.Error.Error())
		return err
	}
	if len(resp.Body) == 0 {
		return nil
	}

	_, err := fmt.Fprintln(w, resp.Body)
	return err
}

func (resp *CommonAPIResponse) ExitCode() int {
	if resp.Error != nil {
		return report.ExitFailure
	}
	return report.ExitOK
}
