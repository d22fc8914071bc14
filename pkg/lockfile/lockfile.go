package lockfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Lock keeps two smoke runs from probing the same deployment at once. The
// lock file contains the PID of its holder.
type Lock struct {
	path string
	file *os.File
}

// New returns a lock for path. An empty path yields a lock that is always
// acquired.
func New(path string) *Lock {
	return &Lock{path: path}
}

func (l *Lock) Acquire() error {
	if l.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create lock file directory %q", filepath.Dir(l.path))
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	switch {
	case os.IsExist(err):
		if err := l.removeIfStale(); err != nil {
			return err
		}

		return l.Acquire()
	case err != nil:
		return errors.Wrapf(err, "failed to open lock file %q", l.path)
	}

	if _, err := fmt.Fprintf(f, "%d", os.Getpid()); err != nil {
		_ = f.Close()
		_ = os.Remove(l.path)
		return errors.Wrapf(err, "failed to write pid to lock file %q", l.path)
	}

	log.Debug("acquired lock file ", l.path)
	l.file = f
	return nil
}

func (l *Lock) removeIfStale() error {
	content, err := os.ReadFile(l.path)
	if err != nil {
		return errors.Wrapf(err, "failed to read lock file '%s'", l.path)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		return errors.Wrapf(err, "failed to parse lock file '%s'", l.path)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return errors.Wrapf(err, "failed to find process with pid %d", pid)
	}

	if err := process.Signal(syscall.Signal(0)); err == nil {
		return fmt.Errorf("lock file %q is held by running process %d", l.path, pid)
	}

	log.Info("lock file contains the PID of a non-running process; removing it")

	if err := os.Remove(l.path); err != nil {
		return errors.Wrapf(err, "failed to remove lock file %q", l.path)
	}

	return nil
}

func (l *Lock) Release() error {
	if l.path == "" || l.file == nil {
		return nil
	}

	if err := l.file.Close(); err != nil {
		return errors.Wrapf(err, "failed to close lock file %q", l.path)
	}
	l.file = nil

	if err := os.Remove(l.path); err != nil {
		return errors.Wrapf(err, "failed to remove lock file %q", l.path)
	}

	log.Debug("released lock file ", l.path)
	return nil
}
