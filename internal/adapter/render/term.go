package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/V4T54L/syslogfc/internal/domain"
)

var (
	styleInfo   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray
	styleDebug  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Faint(true)
	styleNotice = lipgloss.NewStyle().Foreground(lipgloss.Color("39")) // cyan
	styleWarn   = lipgloss.NewStyle().Foreground(lipgloss.Color("220")) // yellow
	styleError  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true) // red bold
	styleFatal  = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("196")).
			Bold(true) // white on red
	styleLabel = lipgloss.NewStyle().Faint(true)
)

// termRenderer prints one line per record, colored by syslog priority.
type termRenderer struct {
	w    io.Writer
	opts Options
}

func newTerm(w io.Writer, opts Options) Renderer { return &termRenderer{w: w, opts: opts} }

func (r *termRenderer) Start(*domain.Record) error { return nil }
func (r *termRenderer) End(*domain.Record) error   { return nil }

func (r *termRenderer) Render(rec *domain.Record) error {
	var priority string
	if f, ok := rec.Lookup(domain.FieldPriority); ok {
		priority = f.Value.Str
	}
	style := priorityStyle(priority)

	parts := make([]string, 0, len(rec.Fields))
	for _, f := range rec.Visible() {
		v := r.opts.valueString(f.Value)
		switch f.Info.Kind {
		case domain.FieldPriority:
			parts = append(parts, style.Render(fmt.Sprintf("%-7s", v)))
		case domain.FieldMessage:
			parts = append(parts, style.Render(v))
		default:
			parts = append(parts, styleLabel.Render(v))
		}
	}
	_, err := fmt.Fprintln(r.w, strings.Join(parts, " "))
	return err
}

func priorityStyle(priority string) lipgloss.Style {
	switch priority {
	case "emerg", "panic", "alert":
		return styleFatal
	case "crit", "err", "error":
		return styleError
	case "warn", "warning":
		return styleWarn
	case "notice":
		return styleNotice
	case "debug":
		return styleDebug
	default:
		return styleInfo
	}
}
