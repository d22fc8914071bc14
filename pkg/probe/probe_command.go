package probe

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mittwald/mittsmoke/internal/config"
	log "github.com/sirupsen/logrus"
)

const outputTailBytes = 512

type commandProbe struct {
	command        string
	args           []string
	env            []string
	dir            string
	expectExitCode int
}

func NewCommandProbe(cfg *config.Command, r *config.Resolver) (*commandProbe, error) {
	command, dir := cfg.Command, cfg.WorkingDirectory
	if err := resolveStrings(r, &command, &dir); err != nil {
		return nil, err
	}

	if command == "" {
		return nil, fmt.Errorf("command must not be empty")
	}

	args, err := r.ResolveAll(cfg.Args)
	if err != nil {
		return nil, err
	}

	env, err := r.ResolveAll(cfg.Env)
	if err != nil {
		return nil, err
	}

	return &commandProbe{
		command:        command,
		args:           args,
		env:            append(r.Environ(), env...),
		dir:            dir,
		expectExitCode: cfg.ExpectExitCode,
	}, nil
}

func (c *commandProbe) Exec(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, c.command, c.args...)
	cmd.Env = c.env
	cmd.Dir = c.dir
	// children inheriting our pipes must not keep Wait blocked after a kill
	cmd.WaitDelay = time.Second

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	l := log.WithFields(log.Fields{"kind": "probe", "name": "command", "command": c.String()})
	l.Debug("starting command")

	err := cmd.Run()
	output := tail(out.String())

	exitCode := 0
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok || ctx.Err() != nil {
			return "", &ProcessError{Command: c.String(), ExitCode: -1, Output: output, Err: err}
		}
		exitCode = exitErr.ExitCode()
	}

	if exitCode != c.expectExitCode {
		return "", &ProcessError{Command: c.String(), ExitCode: exitCode, Output: output}
	}

	l.WithField("exitCode", exitCode).Debug("command completed")

	if output == "" {
		return fmt.Sprintf("exit code %d", exitCode), nil
	}
	return fmt.Sprintf("exit code %d: %s", exitCode, output), nil
}

func (c *commandProbe) String() string {
	return strings.TrimSpace(c.command + " " + strings.Join(c.args, " "))
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > outputTailBytes {
		start := len(s) - outputTailBytes
		for start < len(s) && !utf8.RuneStart(s[start]) {
			start++
		}
		s = "..." + s[start:]
	}
	return s
}
