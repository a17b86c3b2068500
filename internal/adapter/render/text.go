package render

import (
	"io"
	"strings"

	"github.com/V4T54L/syslogfc/internal/domain"
)

// ---------------------------------------------------------------------------
// Plain
// ---------------------------------------------------------------------------

type plainRenderer struct {
	w    io.Writer
	opts Options
}

func newPlain(w io.Writer, opts Options) Renderer { return &plainRenderer{w: w, opts: opts} }

func (r *plainRenderer) Start(*domain.Record) error { return nil }
func (r *plainRenderer) End(*domain.Record) error   { return nil }

func (r *plainRenderer) Render(rec *domain.Record) error {
	ew := &errWriter{w: r.w}
	for _, f := range rec.Visible() {
		ew.printf("%-10s : %s\n", f.Info.HumanName, r.opts.valueString(f.Value))
	}
	ew.print("\n")
	return ew.err
}

// ---------------------------------------------------------------------------
// Markdown
// ---------------------------------------------------------------------------

type markdownRenderer struct {
	w    io.Writer
	opts Options
}

func newMarkdown(w io.Writer, opts Options) Renderer { return &markdownRenderer{w: w, opts: opts} }

func (r *markdownRenderer) Start(tmpl *domain.Record) error {
	ew := &errWriter{w: r.w}
	fields := tmpl.Visible()
	for _, f := range fields {
		ew.print("|" + f.Info.HumanName)
	}
	ew.print("|\n")
	ew.print(strings.Repeat("|---", len(fields)))
	ew.print("|\n")
	return ew.err
}

func (r *markdownRenderer) Render(rec *domain.Record) error {
	ew := &errWriter{w: r.w}
	for _, f := range rec.Visible() {
		v := r.opts.valueString(f.Value)
		if f.Info.Kind == domain.FieldMessage {
			v = "`" + v + "`"
		}
		ew.print("|" + v)
	}
	ew.print("|\n")
	return ew.err
}

func (r *markdownRenderer) End(*domain.Record) error { return nil }

// ---------------------------------------------------------------------------
// AsciiDoc
// ---------------------------------------------------------------------------

type asciiDocRenderer struct {
	w    io.Writer
	opts Options
}

func newAsciiDoc(w io.Writer, opts Options) Renderer { return &asciiDocRenderer{w: w, opts: opts} }

func (r *asciiDocRenderer) Start(tmpl *domain.Record) error {
	ew := &errWriter{w: r.w}
	fields := tmpl.Visible()

	cols := make([]string, len(fields))
	for i, f := range fields {
		switch f.Info.Kind {
		case domain.FieldTimestamp:
			cols[i] = "30"
		case domain.FieldMessage:
			cols[i] = "70"
		default:
			cols[i] = "1"
		}
	}
	ew.printf("[cols=\"%s\", options=\"header\"]\n", strings.Join(cols, ","))
	ew.print("|===\n")
	for _, f := range fields {
		ew.print("|" + f.Info.HumanName + "\n")
	}
	return ew.err
}

func (r *asciiDocRenderer) Render(rec *domain.Record) error {
	ew := &errWriter{w: r.w}
	ew.print("\n")
	for _, f := range rec.Visible() {
		v := r.opts.valueString(f.Value)
		if f.Info.Kind == domain.FieldMessage {
			v = "`" + v + "`"
		}
		ew.print("|" + v + "\n")
	}
	return ew.err
}

func (r *asciiDocRenderer) End(*domain.Record) error {
	_, err := io.WriteString(r.w, "|===\n")
	return err
}

// ---------------------------------------------------------------------------
// CSV
// ---------------------------------------------------------------------------

// csvRenderer always quotes text values and doubles embedded quotes (RFC 4180).
// The delimiter may be a multi-character string.
type csvRenderer struct {
	w    io.Writer
	opts Options
}

func newCSV(w io.Writer, opts Options) Renderer { return &csvRenderer{w: w, opts: opts} }

func (r *csvRenderer) Start(tmpl *domain.Record) error {
	fields := tmpl.Visible()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Info.HumanName
	}
	_, err := io.WriteString(r.w, strings.Join(names, r.opts.CSVDelimiter)+"\n")
	return err
}

func (r *csvRenderer) Render(rec *domain.Record) error {
	fields := rec.Visible()
	cells := make([]string, len(fields))
	for i, f := range fields {
		v := r.opts.valueString(f.Value)
		if isNumeric(f.Value.Type) {
			cells[i] = v
			continue
		}
		cells[i] = `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
	}
	_, err := io.WriteString(r.w, strings.Join(cells, r.opts.CSVDelimiter)+"\n")
	return err
}

func (r *csvRenderer) End(*domain.Record) error { return nil }
