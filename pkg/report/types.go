package report

import (
	"time"

	"github.com/mittwald/mittsmoke/pkg/probe"
)

type Outcome string

const (
	Pass Outcome = "PASS"
	Fail Outcome = "FAIL"
)

// Result is the outcome of one executed probe. It is created once and never
// modified afterwards.
type Result struct {
	Probe    string         `json:"probe"`
	Kind     probe.Kind     `json:"kind"`
	Driver   string         `json:"driver,omitempty"`
	Target   string         `json:"target,omitempty"`
	Outcome  Outcome        `json:"outcome"`
	Category probe.Category `json:"category,omitempty"`
	Detail   string         `json:"detail,omitempty"`
	Attempts int            `json:"attempts"`
	// Tolerated is set on failures of probes that are allowed to fail.
	Tolerated  bool          `json:"tolerated,omitempty"`
	StartedAt  time.Time     `json:"startedAt"`
	Duration   time.Duration `json:"duration"`
	DurationMs int64         `json:"durationMs"`
}

func (r Result) Failed() bool {
	return r.Outcome == Fail
}

// Fatal reports whether the result fails the overall run.
func (r Result) Fatal() bool {
	return r.Outcome == Fail && !r.Tolerated
}

// Report is the ordered sequence of results of one run. Results only holds
// probes that actually executed, so it may be shorter than Registered.
type Report struct {
	RunID      string        `json:"runId"`
	Target     string        `json:"target,omitempty"`
	Mode       string        `json:"mode"`
	Registered int           `json:"registered"`
	Results    []Result      `json:"results"`
	Aborted    bool          `json:"aborted,omitempty"`
	StartedAt  time.Time     `json:"startedAt"`
	Duration   time.Duration `json:"duration"`
	DurationMs int64         `json:"durationMs"`
}

// Overall is PASS iff no fatal probe failed and the run was not aborted.
func (r *Report) Overall() Outcome {
	if r.Aborted {
		return Fail
	}
	for i := range r.Results {
		if r.Results[i].Fatal() {
			return Fail
		}
	}
	return Pass
}

// FirstFailure returns the first fatal failure, if any.
func (r *Report) FirstFailure() (Result, bool) {
	for _, res := range r.Results {
		if res.Fatal() {
			return res, true
		}
	}
	return Result{}, false
}

// Counts returns the number of passed, failed and skipped probes.
func (r *Report) Counts() (passed, failed, skipped int) {
	for _, res := range r.Results {
		if res.Failed() {
			failed++
		} else {
			passed++
		}
	}
	skipped = r.Registered - len(r.Results)
	if skipped < 0 {
		skipped = 0
	}
	return passed, failed, skipped
}
