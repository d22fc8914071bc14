package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mittwald/mittsmoke/internal/config"
	"github.com/mittwald/mittsmoke/pkg/probe"
	"github.com/mittwald/mittsmoke/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCheck struct {
	calls  int32
	detail string
	errs   []error
}

func (s *stubCheck) Exec(ctx context.Context) (string, error) {
	n := atomic.AddInt32(&s.calls, 1)
	if int(n) <= len(s.errs) && s.errs[n-1] != nil {
		return "", s.errs[n-1]
	}
	return s.detail, nil
}

func (s *stubCheck) Calls() int {
	return int(atomic.LoadInt32(&s.calls))
}

func passing(detail string) *stubCheck {
	return &stubCheck{detail: detail}
}

func failing(err error) *stubCheck {
	return &stubCheck{errs: []error{err, err, err, err, err}}
}

func def(name string, kind probe.Kind, check probe.Probe) probe.Definition {
	return probe.Definition{Name: name, Kind: kind, Timeout: time.Second, Check: check}
}

func noSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

func outcomes(r *report.Report) []report.Outcome {
	out := make([]report.Outcome, 0, len(r.Results))
	for _, res := range r.Results {
		out = append(out, res.Outcome)
	}
	return out
}

func TestRunAllPass(t *testing.T) {
	checks := []*stubCheck{passing("200 OK"), passing("1 row"), passing("exit code 0")}
	defs := []probe.Definition{
		def("api-health", probe.KindHTTP, checks[0]),
		def("postgres", probe.KindQuery, checks[1]),
		def("etl", probe.KindCommand, checks[2]),
	}

	rep := New(WithTarget("host")).Run(context.Background(), defs, FailFast)

	require.Len(t, rep.Results, 3)
	assert.Equal(t, []report.Outcome{report.Pass, report.Pass, report.Pass}, outcomes(rep))
	assert.Equal(t, report.Pass, rep.Overall())
	assert.Equal(t, report.ExitOK, report.ExitCode(rep))
	assert.Equal(t, "host", rep.Target)
	assert.Equal(t, "fail-fast", rep.Mode)
	assert.NotEmpty(t, rep.RunID)
	for i, c := range checks {
		assert.Equal(t, 1, c.Calls(), "probe %d", i)
		assert.Equal(t, defs[i].Name, rep.Results[i].Probe)
		assert.Equal(t, 1, rep.Results[i].Attempts)
	}
}

func TestRunFailFastStopsAtFirstFailure(t *testing.T) {
	checks := []*stubCheck{
		passing("ok"),
		failing(&probe.QueryError{Query: "SELECT 1", Err: errors.New("connection refused")}),
		passing("ok"),
		passing("ok"),
	}
	defs := make([]probe.Definition, 0, len(checks))
	for i, c := range checks {
		defs = append(defs, def(fmt.Sprintf("probe-%d", i), probe.KindQuery, c))
	}

	rep := New().Run(context.Background(), defs, FailFast)

	require.Len(t, rep.Results, 2)
	assert.Equal(t, []report.Outcome{report.Pass, report.Fail}, outcomes(rep))
	assert.Equal(t, 0, checks[2].Calls())
	assert.Equal(t, 0, checks[3].Calls())
	assert.Equal(t, probe.CategoryQuery, rep.Results[1].Category)
	assert.Contains(t, rep.Results[1].Detail, "connection refused")
	assert.Equal(t, report.ExitQuery, report.ExitCode(rep))

	_, _, skipped := rep.Counts()
	assert.Equal(t, 2, skipped)
}

func TestRunContinueExecutesEveryProbe(t *testing.T) {
	checks := []*stubCheck{
		failing(&probe.NetworkError{Address: "api:8000", Err: errors.New("refused")}),
		passing("ok"),
		failing(&probe.ProcessError{Command: "etl", ExitCode: 1}),
	}
	defs := []probe.Definition{
		def("api", probe.KindHTTP, checks[0]),
		def("db", probe.KindQuery, checks[1]),
		def("etl", probe.KindCommand, checks[2]),
	}

	rep := New().Run(context.Background(), defs, Continue)

	require.Len(t, rep.Results, 3)
	assert.Equal(t, []report.Outcome{report.Fail, report.Pass, report.Fail}, outcomes(rep))
	assert.Equal(t, report.Fail, rep.Overall())
	assert.Equal(t, report.ExitNetwork, report.ExitCode(rep), "first failure decides the exit code")
	for _, c := range checks {
		assert.Equal(t, 1, c.Calls())
	}
}

func TestRunTimeout(t *testing.T) {
	blocking := probe.Func(func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	ignoring := probe.Func(func(ctx context.Context) (string, error) {
		time.Sleep(2 * time.Second)
		return "too late", nil
	})

	for name, check := range map[string]probe.Probe{"honours context": blocking, "ignores context": ignoring} {
		t.Run(name, func(t *testing.T) {
			d := def("slow", probe.KindQuery, check)
			d.Timeout = 50 * time.Millisecond

			start := time.Now()
			rep := New().Run(context.Background(), []probe.Definition{d}, FailFast)

			assert.Less(t, time.Since(start), time.Second)
			require.Len(t, rep.Results, 1)
			assert.Equal(t, report.Fail, rep.Results[0].Outcome)
			assert.Equal(t, probe.CategoryTimeout, rep.Results[0].Category)
			assert.Contains(t, rep.Results[0].Detail, "timeout")
			assert.Equal(t, report.ExitTimeout, report.ExitCode(rep))
		})
	}
}

func TestRunDefaultTimeout(t *testing.T) {
	var deadline time.Time
	check := probe.Func(func(ctx context.Context) (string, error) {
		deadline, _ = ctx.Deadline()
		return "ok", nil
	})

	d := def("no-timeout", probe.KindHTTP, check)
	d.Timeout = 0
	New().Run(context.Background(), []probe.Definition{d}, FailFast)

	assert.WithinDuration(t, time.Now().Add(DefaultTimeout), deadline, time.Second)
}

func TestRunCanFailDoesNotStopRun(t *testing.T) {
	optional := def("optional-stats", probe.KindHTTP, failing(errors.New("stats unavailable")))
	optional.CanFail = true
	last := passing("ok")

	rep := New().Run(context.Background(), []probe.Definition{
		optional,
		def("api", probe.KindHTTP, last),
	}, FailFast)

	require.Len(t, rep.Results, 2)
	assert.True(t, rep.Results[0].Tolerated)
	assert.Equal(t, report.Fail, rep.Results[0].Outcome)
	assert.Equal(t, 1, last.Calls())
	assert.Equal(t, report.Pass, rep.Overall())
	assert.Equal(t, report.ExitOK, report.ExitCode(rep))
}

func TestRunRetries(t *testing.T) {
	flaky := &stubCheck{detail: "200 OK", errs: []error{errors.New("refused"), errors.New("refused")}}
	d := def("api", probe.KindHTTP, flaky)
	d.Retries = 3
	d.RetryBackoff = 100 * time.Millisecond

	var waits []time.Duration
	sleep := func(ctx context.Context, dur time.Duration) error {
		waits = append(waits, dur)
		return nil
	}

	rep := New(WithSleep(sleep)).Run(context.Background(), []probe.Definition{d}, FailFast)

	require.Len(t, rep.Results, 1)
	assert.Equal(t, report.Pass, rep.Results[0].Outcome)
	assert.Equal(t, 3, rep.Results[0].Attempts)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, waits)
}

func TestRunRetriesExhausted(t *testing.T) {
	check := failing(errors.New("refused"))
	d := def("api", probe.KindHTTP, check)
	d.Retries = 2

	rep := New(WithSleep(noSleep)).Run(context.Background(), []probe.Definition{d}, FailFast)

	assert.Equal(t, 3, check.Calls())
	assert.Equal(t, 3, rep.Results[0].Attempts)
	assert.Equal(t, report.Fail, rep.Results[0].Outcome)
}

func TestRunRecoversPanics(t *testing.T) {
	check := probe.Func(func(ctx context.Context) (string, error) {
		panic("nil map")
	})

	rep := New().Run(context.Background(), []probe.Definition{def("broken", probe.KindCommand, check)}, FailFast)

	require.Len(t, rep.Results, 1)
	assert.Equal(t, report.Fail, rep.Results[0].Outcome)
	assert.Contains(t, rep.Results[0].Detail, "panicked")
}

func TestRunInterruptedByParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	first := probe.Func(func(ctx context.Context) (string, error) {
		cancel()
		<-ctx.Done()
		return "", ctx.Err()
	})
	second := passing("ok")

	rep := New().Run(ctx, []probe.Definition{
		def("first", probe.KindHTTP, first),
		def("second", probe.KindHTTP, second),
	}, Continue)

	assert.True(t, rep.Aborted)
	assert.Equal(t, 0, second.Calls())
	assert.Equal(t, report.Fail, rep.Overall())
	assert.NotEqual(t, report.ExitOK, report.ExitCode(rep))
}

func TestRunObserverSeesEveryResultInOrder(t *testing.T) {
	var seen []string
	observer := func(r report.Result) {
		seen = append(seen, r.Probe)
	}

	New(WithObserver(observer)).Run(context.Background(), []probe.Definition{
		def("a", probe.KindHTTP, passing("ok")),
		def("b", probe.KindHTTP, failing(errors.New("x"))),
		def("c", probe.KindHTTP, passing("ok")),
	}, Continue)

	assert.Equal(t, []string{"a", "b", "c"}, seen)
}

func TestRunEmpty(t *testing.T) {
	rep := New().Run(context.Background(), nil, FailFast)

	assert.Empty(t, rep.Results)
	assert.Equal(t, report.Pass, rep.Overall())
}

func TestRunRecordsDurationsInMilliseconds(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := New()
	e.now = func() time.Time {
		clock = clock.Add(250 * time.Millisecond)
		return clock
	}

	rep := e.Run(context.Background(), []probe.Definition{def("api", probe.KindHTTP, passing("ok"))}, FailFast)

	require.Len(t, rep.Results, 1)
	assert.Equal(t, 250*time.Millisecond, rep.Results[0].Duration)
	assert.Equal(t, int64(250), rep.Results[0].DurationMs)
	assert.Equal(t, int64(750), rep.DurationMs)
}

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, time.Second, nextBackoff(0))
	assert.Equal(t, 4*time.Second, nextBackoff(2*time.Second))
	assert.Equal(t, MaxRetryBackoff, nextBackoff(20*time.Second))
}

// The deployment is healthy: the API answers its health check and the
// catalogue query returns rows.
func TestRunHealthyDeployment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	api := httpDefinition(t, srv.URL+"/health")
	query := passing("1 row")

	rep := New().Run(context.Background(), []probe.Definition{api, def("postgres-products", probe.KindQuery, query)}, FailFast)

	assert.Equal(t, []report.Outcome{report.Pass, report.Pass}, outcomes(rep))
	assert.Equal(t, report.ExitOK, report.ExitCode(rep))
}

// The API is broken: the run stops at the health check and the database is
// never queried.
func TestRunBrokenAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	api := httpDefinition(t, srv.URL+"/health")
	query := passing("1 row")

	rep := New().Run(context.Background(), []probe.Definition{api, def("postgres-products", probe.KindQuery, query)}, FailFast)

	require.Len(t, rep.Results, 1)
	assert.Equal(t, report.Fail, rep.Results[0].Outcome)
	assert.True(t, strings.Contains(rep.Results[0].Detail, "500"))
	assert.Equal(t, 0, query.Calls())
	assert.Equal(t, report.ExitNetwork, report.ExitCode(rep))
}

func httpDefinition(t *testing.T, url string) probe.Definition {
	t.Helper()

	suite := &config.Suite{
		Probes: []config.Probe{{Name: "api-health", HTTP: &config.HTTP{URL: url, ExpectJSON: map[string]string{"ok": "true"}}}},
	}
	r, err := config.NewResolver(suite, config.TargetHost)
	require.NoError(t, err)

	d, err := probe.FromConfig(&suite.Probes[0], r)
	require.NoError(t, err)
	return d
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": FailFast, "fail-fast": FailFast, "FailFast": FailFast, "continue": Continue} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMode("sometimes")
	assert.Error(t, err)
}
