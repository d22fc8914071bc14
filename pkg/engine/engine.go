package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mittwald/mittsmoke/pkg/probe"
	"github.com/mittwald/mittsmoke/pkg/report"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTimeout  = 10 * time.Second
	MaxRetryBackoff = 30 * time.Second
)

// Observer is called after each executed probe, in execution order.
type Observer func(report.Result)

// Engine runs probe definitions strictly one after another. It holds no
// state across runs.
type Engine struct {
	target    string
	observers []Observer
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

type Option func(*Engine)

// WithTarget labels reports with the name of the deployment target.
func WithTarget(name string) Option {
	return func(e *Engine) {
		e.target = name
	}
}

func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observers = append(e.observers, o)
	}
}

// WithSleep replaces the wait between retries.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Engine) {
		e.sleep = sleep
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		now:   time.Now,
		sleep: sleepContext,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Run executes defs in order and returns the report. Probe errors never
// escape: each one becomes a FAIL result. In FailFast mode the first fatal
// failure ends the run; probes after it are not executed.
func (e *Engine) Run(ctx context.Context, defs []probe.Definition, mode Mode) *report.Report {
	rep := &report.Report{
		RunID:      uuid.New().String(),
		Target:     e.target,
		Mode:       mode.String(),
		Registered: len(defs),
		Results:    make([]report.Result, 0, len(defs)),
		StartedAt:  e.now(),
	}

	l := log.WithFields(log.Fields{"run.id": rep.RunID, "mode": rep.Mode, "target": rep.Target})
	l.Infof("running %d probes", len(defs))

	for _, def := range defs {
		if ctx.Err() != nil {
			break
		}

		res := e.execute(ctx, def)
		rep.Results = append(rep.Results, res)

		for _, o := range e.observers {
			o(res)
		}

		if res.Fatal() && mode == FailFast {
			l.WithField("probe", def.Name).Warn("stopping run after failed probe")
			break
		}
	}

	if ctx.Err() != nil {
		rep.Aborted = true
		l.WithError(ctx.Err()).Warn("run interrupted")
	}

	rep.Duration = e.now().Sub(rep.StartedAt)
	rep.DurationMs = rep.Duration.Milliseconds()
	l.WithFields(log.Fields{"overall": rep.Overall(), "duration": rep.Duration}).Info("run complete")

	return rep
}

func (e *Engine) execute(ctx context.Context, def probe.Definition) report.Result {
	l := log.WithFields(log.Fields{"kind": "probe", "probe": def.Name, "driver": def.Driver})
	start := e.now()

	var (
		detail   string
		err      error
		attempts int
		backoff  = def.RetryBackoff
	)

	for {
		attempts++
		detail, err = e.attempt(ctx, def)
		if err == nil || attempts > def.Retries || ctx.Err() != nil {
			break
		}

		l.WithError(err).Warnf("attempt %d of %d failed, retrying in %s", attempts, def.Retries+1, backoff)
		if e.sleep(ctx, backoff) != nil {
			break
		}
		backoff = nextBackoff(backoff)
	}

	res := report.Result{
		Probe:     def.Name,
		Kind:      def.Kind,
		Driver:    def.Driver,
		Target:    def.Target,
		Outcome:   report.Pass,
		Detail:    detail,
		Attempts:  attempts,
		StartedAt: start,
		Duration:  e.now().Sub(start),
	}
	res.DurationMs = res.Duration.Milliseconds()

	if err != nil {
		res.Outcome = report.Fail
		res.Detail = err.Error()
		res.Category = probe.Categorize(err, def.Kind)
		res.Tolerated = def.CanFail

		if def.CanFail {
			l.WithError(err).Warn("probe failed, but is allowed to fail")
		} else {
			l.WithError(err).Error("probe failed")
		}
		return res
	}

	l.WithField("duration", res.Duration).Info("probe passed")
	return res
}

// attempt runs one bounded execution of def. The check runs in its own
// goroutine so that a check ignoring its context cannot block the engine
// past the deadline.
func (e *Engine) attempt(ctx context.Context, def probe.Definition) (string, error) {
	timeout := def.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		detail string
		err    error
	}

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("probe panicked: %v", p)}
			}
		}()

		detail, err := def.Check.Exec(attemptCtx)
		done <- outcome{detail: detail, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil && ctx.Err() == nil && attemptCtx.Err() == context.DeadlineExceeded {
			return "", &probe.TimeoutError{After: timeout}
		}
		return o.detail, o.err

	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return "", errors.Wrap(ctx.Err(), "run interrupted")
		}
		return "", &probe.TimeoutError{After: timeout}
	}
}

// nextBackoff doubles the current backoff up to MaxRetryBackoff.
func nextBackoff(current time.Duration) time.Duration {
	if current <= 0 {
		return time.Second
	}
	next := 2 * current
	if next > MaxRetryBackoff {
		return MaxRetryBackoff
	}
	return next
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
