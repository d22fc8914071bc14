package files

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mittwald/mittsmoke/internal/config"
	"github.com/mittwald/mittsmoke/pkg/report"
	log "github.com/sirupsen/logrus"
)

const defaultFileMode = 0o644

// Output is a report file whose path, format and mode have been resolved
// and validated.
type Output struct {
	Path     string
	Format   string
	Mode     os.FileMode
	renderer report.Renderer
}

// Prepare validates every configured report file against the resolver. It
// fails on the first invalid block, before anything is written.
func Prepare(cfgs []config.ReportFile, r *config.Resolver) ([]Output, error) {
	outputs := make([]Output, 0, len(cfgs))

	for i := range cfgs {
		out, err := PrepareReport(&cfgs[i], r)
		if err != nil {
			return nil, fmt.Errorf("report %q: %w", cfgs[i].Path, err)
		}
		outputs = append(outputs, out)
	}

	return outputs, nil
}

func PrepareReport(cfg *config.ReportFile, r *config.Resolver) (Output, error) {
	if cfg.Path == "" {
		return Output{}, fmt.Errorf("report file has no path")
	}

	target, err := r.Resolve(cfg.Path)
	if err != nil {
		return Output{}, err
	}

	format := cfg.Format
	if format == "" {
		format = formatFromExtension(target)
	}

	renderer, err := report.NewRenderer(format, false)
	if err != nil {
		return Output{}, err
	}

	perm, err := parseFileMode(cfg.Mode)
	if err != nil {
		return Output{}, err
	}

	return Output{Path: target, Format: format, Mode: perm, renderer: renderer}, nil
}

// WriteReports writes rep to every prepared output. All outputs are
// attempted; the first error is returned.
func WriteReports(outputs []Output, rep *report.Report) error {
	var firstErr error

	for i := range outputs {
		if err := outputs[i].Write(rep); err != nil {
			log.WithField("report", outputs[i].Path).WithError(err).Error("failed to write report file")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

func (o *Output) Write(rep *report.Report) error {
	var buf bytes.Buffer
	if err := o.renderer.Render(&buf, rep); err != nil {
		return err
	}

	folderPath, err := filepath.Abs(filepath.Dir(o.Path))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(folderPath, os.ModePerm); err != nil {
		return err
	}

	// write next to the target and rename, so readers never see a partial report
	tmp, err := os.CreateTemp(folderPath, "."+filepath.Base(o.Path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(o.Mode); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	log.Infof("writing %s report to %s", o.Format, o.Path)
	return os.Rename(tmp.Name(), o.Path)
}

func formatFromExtension(path string) string {
	if filepath.Ext(path) == ".json" {
		return "json"
	}
	return "text"
}

func parseFileMode(mode string) (os.FileMode, error) {
	if mode == "" {
		return defaultFileMode, nil
	}

	m, err := strconv.ParseUint(mode, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid file mode %q: %w", mode, err)
	}
	return os.FileMode(m), nil
}
