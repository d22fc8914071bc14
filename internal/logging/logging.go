package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level  string
	Format string
	// File additionally writes log output to a rotated file.
	File string
}

// Configure sets up the standard logrus logger. Logs go to stderr so the
// report on stdout stays machine readable.
func Configure(opts Options) error {
	level, err := log.ParseLevel(opts.Level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", opts.Level)
	}
	log.SetLevel(level)

	switch opts.Format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return errors.Errorf("invalid log format %q (expected \"text\" or \"json\")", opts.Format)
	}

	var out io.Writer = os.Stderr
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return errors.Wrapf(err, "failed to create log directory for %q", opts.File)
		}

		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		})
	}
	log.SetOutput(out)

	return nil
}
