package engine

import (
	"strings"

	"github.com/pkg/errors"
)

// Mode decides what happens after a fatal probe failure.
type Mode int

const (
	// FailFast stops the run at the first fatal failure.
	FailFast Mode = iota
	// Continue executes every probe and aggregates the failures.
	Continue
)

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail-fast", "failfast":
		return FailFast, nil
	case "continue":
		return Continue, nil
	}
	return FailFast, errors.Errorf("unknown mode %q (expected \"fail-fast\" or \"continue\")", s)
}

func (m Mode) String() string {
	if m == Continue {
		return "continue"
	}
	return "fail-fast"
}

func (m *Mode) Set(s string) error {
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m *Mode) Type() string {
	return "mode"
}
