package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Format is the output format of a command.
type Format string

const (
	// FormatText is human readable output (default).
	FormatText Format = "text"
	// FormatJSON is indented JSON output.
	FormatJSON Format = "json"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format %q: must be 'text' or 'json'", s)
	}
}

// Styles colours text output. Colours are dropped when the writer is not a
// terminal.
type Styles struct {
	OK    lipgloss.Style
	Fail  lipgloss.Style
	Warn  lipgloss.Style
	Label lipgloss.Style
	Hint  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		OK:    r.NewStyle().Foreground(lipgloss.Color("2")),
		Fail:  r.NewStyle().Foreground(lipgloss.Color("1")),
		Warn:  r.NewStyle().Foreground(lipgloss.Color("3")),
		Label: r.NewStyle().Bold(true),
		Hint:  r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// TextRenderer is implemented by values with a custom text form.
type TextRenderer interface {
	RenderText(w io.Writer, s Styles) error
}

// Printer writes command results in the selected format.
type Printer struct {
	w      io.Writer
	format Format
	styles Styles
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{
		w:      w,
		format: format,
		styles: newStyles(lipgloss.NewRenderer(w)),
	}
}

// Format returns the output format.
func (p *Printer) Format() Format {
	return p.format
}

// Styles returns the text styles bound to the printer's writer.
func (p *Printer) Styles() Styles {
	return p.styles
}

// Print writes v. JSON output is indented; text output uses RenderText when
// v implements TextRenderer.
func (p *Printer) Print(v any) error {
	if p.format == FormatJSON {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	switch t := v.(type) {
	case TextRenderer:
		return t.RenderText(p.w, p.styles)
	case fmt.Stringer:
		_, err := fmt.Fprintln(p.w, t.String())
		return err
	default:
		_, err := fmt.Fprintf(p.w, "%v\n", v)
		return err
	}
}

// Printf writes formatted text. It writes nothing in JSON mode so that JSON
// output stays machine readable.
func (p *Printer) Printf(format string, args ...any) {
	if p.format == FormatJSON {
		return
	}
	fmt.Fprintf(p.w, format, args...)
}
