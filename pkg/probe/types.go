package probe

import (
	"context"
	"time"
)

// Probe is a single check against an external system. Exec returns a short
// description of what was observed on success. Implementations must honour
// the deadline of ctx.
type Probe interface {
	Exec(ctx context.Context) (string, error)
}

// Func adapts a plain function to the Probe interface.
type Func func(ctx context.Context) (string, error)

func (f Func) Exec(ctx context.Context) (string, error) {
	return f(ctx)
}

type Kind string

const (
	KindHTTP    Kind = "http"
	KindCommand Kind = "command"
	KindQuery   Kind = "query"
	KindConnect Kind = "connect"
)

const (
	DefaultHTTPTimeout    = 5 * time.Second
	DefaultCommandTimeout = 30 * time.Second
	DefaultQueryTimeout   = 10 * time.Second
)

// Definition is a registered, named probe. It is treated as a value and never
// modified after registration.
type Definition struct {
	Name   string
	Kind   Kind
	Driver string
	// Target describes what the probe talks to: a URL, a query or a
	// command line.
	Target string

	Timeout      time.Duration
	Retries      int
	RetryBackoff time.Duration

	// CanFail marks a probe whose failure is reported but neither stops a
	// run nor fails its overall outcome.
	CanFail bool

	Check Probe
}
