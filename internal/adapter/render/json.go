package render

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/V4T54L/syslogfc/internal/domain"
)

// jsonRenderer writes a single JSON array of objects whose keys follow field order.
type jsonRenderer struct {
	w    io.Writer
	opts Options
	n    int
}

func newJSON(w io.Writer, opts Options) Renderer { return &jsonRenderer{w: w, opts: opts} }

func (r *jsonRenderer) Start(*domain.Record) error {
	_, err := io.WriteString(r.w, "[")
	return err
}

func (r *jsonRenderer) Render(rec *domain.Record) error {
	var buf bytes.Buffer
	if r.n > 0 {
		buf.WriteByte(',')
	}
	buf.WriteByte('{')
	for i, f := range rec.Visible() {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSONString(&buf, f.Info.ParamName)
		buf.WriteByte(':')
		v := r.opts.valueString(f.Value)
		if isNumeric(f.Value.Type) {
			buf.WriteString(v)
		} else {
			writeJSONString(&buf, v)
		}
	}
	buf.WriteByte('}')

	if _, err := r.w.Write(buf.Bytes()); err != nil {
		return err
	}
	r.n++
	return nil
}

func (r *jsonRenderer) End(*domain.Record) error {
	_, err := io.WriteString(r.w, "]\n")
	return err
}

func writeJSONString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	// Encode appends a newline.
	buf.Truncate(buf.Len() - 1)
}
