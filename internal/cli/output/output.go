// Package output renders command results for terminals and plain streams.
//
// In auto mode a terminal gets styled text and anything else (pipes, files,
// CI logs) gets plain text. NO_COLOR always disables styling.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// OutputMode selects how output is rendered.
type OutputMode string

// Output modes.
const (
	ModeAuto  OutputMode = "auto"
	ModeText  OutputMode = "text"
	ModePlain OutputMode = "plain"
)

// Mode converts a config value to an OutputMode. Unknown values mean auto.
func Mode(s string) OutputMode {
	switch OutputMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeText:
		return ModeText
	case ModePlain:
		return ModePlain
	default:
		return ModeAuto
	}
}

// Styles holds the lipgloss styles of a renderer.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
}

// Renderer writes user-facing output.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   OutputMode
	isTTY  bool
	styles Styles
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode OutputMode) *Renderer {
	return NewRendererWithTTY(out, errOut, isTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with an explicit terminal state.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode OutputMode) *Renderer {
	r := &Renderer{out: out, errOut: errOut, mode: mode, isTTY: isTTY}

	lr := lipgloss.NewRenderer(out)
	if r.styled() {
		lr.SetColorProfile(termenv.ANSI256)
	} else {
		lr.SetColorProfile(termenv.Ascii)
	}
	r.styles = Styles{
		Header:  lr.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Success: lr.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: lr.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   lr.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		Muted:   lr.NewStyle().Foreground(lipgloss.Color("8")),
	}
	return r
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// EffectiveMode resolves auto to text on a terminal and plain otherwise.
func (r *Renderer) EffectiveMode() OutputMode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModePlain
}

func (r *Renderer) styled() bool {
	return r.EffectiveMode() == ModeText && r.isTTY && !termenv.EnvNoColor()
}

// Styles returns the renderer's styles.
func (r *Renderer) Styles() Styles {
	return r.styles
}

// Writer returns the standard output writer.
func (r *Renderer) Writer() io.Writer {
	return r.out
}

// Println writes a line to standard output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to standard output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// WriteLine writes a report line to standard output.
func (r *Renderer) WriteLine(line string) error {
	_, err := fmt.Fprintln(r.out, line)
	return err
}

// Header writes a section header.
func (r *Renderer) Header(level int, text string) {
	if r.EffectiveMode() == ModePlain {
		r.Println(FormatHeader(level, text))
		return
	}
	r.Println(r.styles.Header.Render(text))
}

// Success writes a success message.
func (r *Renderer) Success(msg string) {
	r.Println(r.styles.Success.Render("✓ " + msg))
}

// Muted writes a secondary message.
func (r *Renderer) Muted(msg string) {
	r.Println(r.styles.Muted.Render(msg))
}

// Warning writes a warning to the error stream.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("! "+msg))
}

// Error writes an error to the error stream.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render("✗ "+msg))
}

// StatusLine writes "<icon> text" and an optional muted detail.
func (r *Renderer) StatusLine(text, status, detail string) {
	var icon string
	switch status {
	case "success":
		icon = r.styles.Success.Render("✓")
	case "warning":
		icon = r.styles.Warning.Render("!")
	case "error":
		icon = r.styles.Error.Render("✗")
	default:
		icon = "-"
	}
	line := icon + " " + text
	if detail != "" {
		line += " " + r.styles.Muted.Render(detail)
	}
	r.Println(line)
}

// Table writes rows under headers. Terminals get a boxed table, plain
// streams a markdown table.
func (r *Renderer) Table(headers []string, rows [][]string) {
	tw := table.NewWriter()
	tw.SetOutputMirror(r.out)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, v := range row {
			tr[i] = v
		}
		tw.AppendRow(tr)
	}

	if r.EffectiveMode() == ModePlain {
		tw.RenderMarkdown()
		return
	}
	tw.SetStyle(table.StyleLight)
	tw.Render()
}

// FormatHeader formats a markdown-style header.
func FormatHeader(level int, text string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue formats a "key: value" line.
func FormatKeyValue(key, value string) string {
	return key + ": " + value
}
