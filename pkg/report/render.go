package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tidwall/pretty"
)

const maxDetailRunes = 160

// Renderer writes a report in one output format.
type Renderer interface {
	Render(w io.Writer, r *Report) error
}

// NewRenderer returns the renderer for format ("text" or "json").
func NewRenderer(format string, color bool) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return &TextRenderer{Color: color}, nil
	case "json":
		return &JSONRenderer{Color: color}, nil
	}
	return nil, fmt.Errorf("unknown output format %q (expected \"text\" or \"json\")", format)
}

type TextRenderer struct {
	Color bool
}

type textStyles struct {
	pass, fail, tolerated, name, muted func(...string) string
}

func plain(s ...string) string {
	return strings.Join(s, " ")
}

func (t *TextRenderer) styles(w io.Writer) textStyles {
	if !t.Color {
		return textStyles{plain, plain, plain, plain, plain}
	}

	r := lipgloss.NewRenderer(w)
	return textStyles{
		pass:      r.NewStyle().Foreground(lipgloss.Color("#00B785")).Bold(true).Render,
		fail:      r.NewStyle().Foreground(lipgloss.Color("#e1244c")).Bold(true).Render,
		tolerated: r.NewStyle().Foreground(lipgloss.Color("#e08dff")).Bold(true).Render,
		name:      r.NewStyle().Foreground(lipgloss.Color("#407FF8")).Bold(true).Render,
		muted:     r.NewStyle().Foreground(lipgloss.Color("#5D689C")).Render,
	}
}

func (st textStyles) line(res Result, width int) string {
	name := res.Probe + strings.Repeat(" ", max(0, width-len([]rune(res.Probe))))
	elapsed := st.muted(formatDuration(res.Duration))

	switch {
	case !res.Failed():
		return fmt.Sprintf("%s %s  %s  %s\n", st.pass("✔"), st.name(name), st.pass(string(Pass)), elapsed)
	case res.Tolerated:
		return fmt.Sprintf("%s %s  %s  %s  %s\n", st.tolerated("⚠"), st.name(name), st.tolerated("FAIL (tolerated)"), elapsed, TruncateDetail(res.Detail))
	default:
		return fmt.Sprintf("%s %s  %s  %s  %s\n", st.fail("✖"), st.name(name), st.fail(string(Fail)), elapsed, TruncateDetail(res.Detail))
	}
}

// RenderResult writes the line of a single result, as Render would.
func (t *TextRenderer) RenderResult(w io.Writer, res Result) error {
	_, err := io.WriteString(w, t.styles(w).line(res, 0))
	return err
}

func (t *TextRenderer) Render(w io.Writer, r *Report) error {
	st := t.styles(w)

	width := 0
	for _, res := range r.Results {
		if l := len([]rune(res.Probe)); l > width {
			width = l
		}
	}

	var b strings.Builder
	for _, res := range r.Results {
		b.WriteString(st.line(res, width))
	}

	passed, failed, skipped := r.Counts()
	overall := st.pass(string(Pass))
	if r.Overall() == Fail {
		overall = st.fail(string(Fail))
	}

	summary := fmt.Sprintf("%d passed, %d failed, %d skipped in %s (target %s, mode %s)",
		passed, failed, skipped, formatDuration(r.Duration), r.Target, r.Mode)
	if r.Aborted {
		summary += ", aborted"
	}
	fmt.Fprintf(&b, "%s: %s\n", overall, summary)

	_, err := io.WriteString(w, b.String())
	return err
}

type JSONRenderer struct {
	Color bool
}

func (j *JSONRenderer) Render(w io.Writer, r *Report) error {
	out, err := json.Marshal(&jsonReport{Report: r, Overall: r.Overall(), ExitCode: ExitCode(r)})
	if err != nil {
		return err
	}

	out = pretty.Pretty(out)
	if j.Color {
		out = pretty.Color(out, nil)
	}

	_, err = w.Write(out)
	return err
}

type jsonReport struct {
	*Report
	Overall  Outcome `json:"overall"`
	ExitCode int     `json:"exitCode"`
}

// TruncateDetail flattens detail to a single line of bounded length.
func TruncateDetail(detail string) string {
	flat := strings.Join(strings.Fields(detail), " ")
	runes := []rune(flat)
	if len(runes) > maxDetailRunes {
		return string(runes[:maxDetailRunes-3]) + "..."
	}
	return flat
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return d.Round(time.Microsecond).String()
	}
	return d.Round(time.Millisecond).String()
}
