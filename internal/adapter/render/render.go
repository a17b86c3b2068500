package render

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/V4T54L/syslogfc/internal/adapter/timefmt"
	"github.com/V4T54L/syslogfc/internal/domain"
)

// DefaultFormat is used when no output format is selected.
const DefaultFormat = "plain"

var ErrUnknownFormat = errors.New("unknown output format")

// Renderer writes decoded records to an output stream.
// Start and End receive a template record (Num 0) that only carries field metadata.
type Renderer interface {
	Start(tmpl *domain.Record) error
	Render(rec *domain.Record) error
	End(tmpl *domain.Record) error
}

// Options holds the settings shared by all renderers.
type Options struct {
	// TimestampFormat is a strftime(3) layout; empty renders epoch seconds.
	TimestampFormat string
	CSVDelimiter    string
	HTMLClassPrefix string
	HTMLCellClasses bool
}

// DefaultOptions mirrors the converter defaults.
func DefaultOptions() Options {
	return Options{CSVDelimiter: ",", HTMLClassPrefix: "syslog-"}
}

// Format describes a selectable output format.
type Format struct {
	Name        string
	Description string
	build       func(w io.Writer, opts Options) Renderer
}

var formats = map[string]Format{
	"plain":    {Name: "plain", Description: "Plain text", build: newPlain},
	"md":       {Name: "md", Description: "Markdown table", build: newMarkdown},
	"csv":      {Name: "csv", Description: "CSV (Comma-Separated Values)", build: newCSV},
	"json":     {Name: "json", Description: "JSON (JavaScript Object Notation)", build: newJSON},
	"html":     {Name: "html", Description: "HTML (HyperText Markup Language) table", build: newHTML},
	"asciidoc": {Name: "asciidoc", Description: "AsciiDoc table", build: newAsciiDoc},
	"term":     {Name: "term", Description: "Colorized terminal lines", build: newTerm},
}

// Formats lists the available formats sorted by name.
func Formats() []Format {
	out := make([]Format, 0, len(formats))
	for _, f := range formats {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// New returns the renderer registered under name, writing to w.
func New(name string, w io.Writer, opts Options) (Renderer, error) {
	f, ok := formats[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, name)
	}
	if opts.CSVDelimiter == "" {
		opts.CSVDelimiter = ","
	}
	return f.build(w, opts), nil
}

// valueString renders a value without any format-specific quoting.
func (o Options) valueString(v domain.Value) string {
	switch v.Type {
	case domain.TypeTime:
		return timefmt.Format(o.TimestampFormat, v.Time)
	case domain.TypeInteger:
		return strconv.FormatInt(v.Int, 10)
	case domain.TypeUnsignedInteger:
		return strconv.FormatUint(v.Uint, 10)
	default:
		return v.Str
	}
}

func isNumeric(t domain.ValueType) bool {
	return t == domain.TypeInteger || t == domain.TypeUnsignedInteger
}

// errWriter remembers the first write error so renderers can emit a row
// with plain Fprint calls and check once.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) print(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s)
}
