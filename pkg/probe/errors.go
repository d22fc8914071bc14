package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Category classifies why a probe failed.
type Category string

const (
	CategoryNone          Category = ""
	CategoryNetwork       Category = "network"
	CategoryQuery         Category = "query"
	CategoryProcess       Category = "process"
	CategoryTimeout       Category = "timeout"
	CategoryConfiguration Category = "configuration"
	CategoryUnknown       Category = "unknown"
)

// NetworkError reports an unreachable service or an unexpected HTTP response.
type NetworkError struct {
	Address string
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Address == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Address, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// QueryError reports a failed database connection or query.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	if e.Query == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("query %q: %s", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// ProcessError reports a command that could not be started or exited with an
// unexpected code. ExitCode is -1 when the process never ran.
type ProcessError struct {
	Command  string
	ExitCode int
	Output   string
	Err      error
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("command %q", e.Command)
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(" exited with code %d", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *ProcessError) Unwrap() error { return e.Err }

// TimeoutError reports a probe that exceeded its configured bound.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %s", e.After)
}

func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }

// ConfigurationError reports an invalid or duplicate probe. It is raised
// before any probe runs.
type ConfigurationError struct {
	Probe string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Probe == "" {
		return fmt.Sprintf("configuration error: %s", e.Err)
	}
	return fmt.Sprintf("configuration error in probe %q: %s", e.Probe, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func NewConfigurationError(probe string, err error) *ConfigurationError {
	return &ConfigurationError{Probe: probe, Err: err}
}

func configErrorf(probe, format string, args ...interface{}) *ConfigurationError {
	return NewConfigurationError(probe, errors.Errorf(format, args...))
}

// Categorize returns the category of err. Errors that carry no typed cause
// are attributed to the probe kind.
func Categorize(err error, kind Kind) Category {
	if err == nil {
		return CategoryNone
	}

	var (
		timeoutErr *TimeoutError
		networkErr *NetworkError
		queryErr   *QueryError
		processErr *ProcessError
		configErr  *ConfigurationError
	)

	switch {
	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		return CategoryTimeout
	case errors.As(err, &configErr):
		return CategoryConfiguration
	case errors.As(err, &networkErr):
		return CategoryNetwork
	case errors.As(err, &queryErr):
		return CategoryQuery
	case errors.As(err, &processErr):
		return CategoryProcess
	}

	switch kind {
	case KindHTTP, KindConnect:
		return CategoryNetwork
	case KindQuery:
		return CategoryQuery
	case KindCommand:
		return CategoryProcess
	}
	return CategoryUnknown
}
