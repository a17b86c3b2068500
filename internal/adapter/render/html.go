package render

import (
	"io"
	"strings"

	"github.com/V4T54L/syslogfc/internal/domain"
)

var htmlEscaper = strings.NewReplacer(
	"\n", "<br />",
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// htmlRenderer emits a table fragment. Rows are classed by their priority value
// so a stylesheet can color them.
type htmlRenderer struct {
	w    io.Writer
	opts Options
}

func newHTML(w io.Writer, opts Options) Renderer { return &htmlRenderer{w: w, opts: opts} }

func (r *htmlRenderer) openTag(ew *errWriter, tag, class string) {
	if class == "" {
		ew.print("<" + tag + ">")
		return
	}
	ew.print("<" + tag + ` class="` + r.opts.HTMLClassPrefix + class + `">`)
}

func closeTag(ew *errWriter, tag string) { ew.print("</" + tag + ">") }

func (r *htmlRenderer) row(ew *errWriter, cellTag string, rec *domain.Record) {
	var trClass string
	if rec.Num > 0 && rec.Has(domain.FieldPriority) {
		if f, ok := rec.Lookup(domain.FieldPriority); ok {
			trClass = f.Value.Str
		}
	}

	r.openTag(ew, "tr", trClass)
	for _, f := range rec.Visible() {
		var cellClass string
		if r.opts.HTMLCellClasses {
			cellClass = f.Info.ParamName
		}
		r.openTag(ew, cellTag, cellClass)

		switch {
		case rec.Num == 0:
			ew.print(htmlEscaper.Replace(f.Info.HumanName))
		case f.Info.Kind == domain.FieldMessage:
			ew.print("<pre>" + htmlEscaper.Replace(r.opts.valueString(f.Value)) + "</pre>")
		default:
			ew.print(htmlEscaper.Replace(r.opts.valueString(f.Value)))
		}

		closeTag(ew, cellTag)
	}
	closeTag(ew, "tr")
}

func (r *htmlRenderer) Start(tmpl *domain.Record) error {
	ew := &errWriter{w: r.w}
	r.openTag(ew, "table", "table")
	ew.print("<thead>")
	r.row(ew, "th", tmpl)
	ew.print("</thead><tbody>")
	return ew.err
}

func (r *htmlRenderer) Render(rec *domain.Record) error {
	ew := &errWriter{w: r.w}
	r.row(ew, "td", rec)
	return ew.err
}

func (r *htmlRenderer) End(*domain.Record) error {
	_, err := io.WriteString(r.w, "</tbody></table>\n")
	return err
}
