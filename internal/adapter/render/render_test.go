package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/go-cmp/cmp"

	"github.com/V4T54L/syslogfc/internal/adapter/decoder"
	"github.com/V4T54L/syslogfc/internal/adapter/entryspec"
	"github.com/V4T54L/syslogfc/internal/domain"
)

var sampleLines = []string{
	"Jun 24 18:12:50 2019 kern.info sshd: hello\n",
	"Jun 24 18:12:51 2019 auth.err su: a <b> & \"c\"\n",
}

// renderAll runs a full document through the named renderer.
func renderAll(t *testing.T, format, spec string, reg domain.Registry, opts Options, lines ...string) string {
	t.Helper()
	s, err := entryspec.CompileWith(reg, spec)
	if err != nil {
		t.Fatalf("CompileWith(%q) failed: %v", spec, err)
	}
	dec := decoder.New(s, decoder.Options{Location: time.UTC})

	var buf bytes.Buffer
	r, err := New(format, &buf, opts)
	if err != nil {
		t.Fatalf("New(%q) failed: %v", format, err)
	}
	if err := r.Start(s.Template()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	for i, line := range lines {
		rec, err := dec.Decode([]byte(line), i+1)
		if err != nil {
			t.Fatalf("Decode(%q) failed: %v", line, err)
		}
		if err := r.Render(rec); err != nil {
			t.Fatalf("Render failed: %v", err)
		}
	}
	if err := r.End(s.Template()); err != nil {
		t.Fatalf("End failed: %v", err)
	}
	return buf.String()
}

func TestRenderers(t *testing.T) {
	opts := DefaultOptions()
	opts.TimestampFormat = "%Y-%m-%d %H:%M:%S"
	cellOpts := opts
	cellOpts.HTMLCellClasses = true
	cellOpts.HTMLClassPrefix = "x-"
	semicolon := opts
	semicolon.CSVDelimiter = ";;"

	tests := []struct {
		name   string
		format string
		opts   Options
		lines  []string
		want   string
	}{
		{
			name:   "plain",
			format: "plain",
			opts:   opts,
			lines:  sampleLines[:1],
			want: "Timestamp  : 2019-06-24 18:12:50\n" +
				"Facility   : kern\n" +
				"Priority   : info\n" +
				"Tag        : sshd\n" +
				"Message    : hello\n" +
				"\n",
		},
		{
			name:   "markdown",
			format: "md",
			opts:   opts,
			lines:  sampleLines[:1],
			want: "|Timestamp|Facility|Priority|Tag|Message|\n" +
				"|---|---|---|---|---|\n" +
				"|2019-06-24 18:12:50|kern|info|sshd|`hello`|\n",
		},
		{
			name:   "csv",
			format: "csv",
			opts:   opts,
			lines:  sampleLines,
			want: "Timestamp,Facility,Priority,Tag,Message\n" +
				`"2019-06-24 18:12:50","kern","info","sshd","hello"` + "\n" +
				`"2019-06-24 18:12:51","auth","err","su","a <b> & ""c"""` + "\n",
		},
		{
			name:   "csv with multi-character delimiter",
			format: "csv",
			opts:   semicolon,
			lines:  sampleLines[:1],
			want: "Timestamp;;Facility;;Priority;;Tag;;Message\n" +
				`"2019-06-24 18:12:50";;"kern";;"info";;"sshd";;"hello"` + "\n",
		},
		{
			name:   "json",
			format: "json",
			opts:   opts,
			lines:  sampleLines,
			want: `[{"timestamp":"2019-06-24 18:12:50","facility":"kern","priority":"info","tag":"sshd","message":"hello"},` +
				`{"timestamp":"2019-06-24 18:12:51","facility":"auth","priority":"err","tag":"su","message":"a <b> & \"c\""}]` + "\n",
		},
		{
			name:   "json without records",
			format: "json",
			opts:   opts,
			want:   "[]\n",
		},
		{
			name:   "html",
			format: "html",
			opts:   opts,
			lines:  sampleLines,
			want: `<table class="syslog-table"><thead><tr><th>Timestamp</th><th>Facility</th><th>Priority</th><th>Tag</th><th>Message</th></tr></thead><tbody>` +
				`<tr class="syslog-info"><td>2019-06-24 18:12:50</td><td>kern</td><td>info</td><td>sshd</td><td><pre>hello</pre></td></tr>` +
				`<tr class="syslog-err"><td>2019-06-24 18:12:51</td><td>auth</td><td>err</td><td>su</td><td><pre>a &lt;b&gt; &amp; "c"</pre></td></tr>` +
				"</tbody></table>\n",
		},
		{
			name:   "html with cell classes",
			format: "html",
			opts:   cellOpts,
			lines:  sampleLines[:1],
			want: `<table class="x-table"><thead><tr><th class="x-timestamp">Timestamp</th><th class="x-facility">Facility</th><th class="x-priority">Priority</th><th class="x-tag">Tag</th><th class="x-message">Message</th></tr></thead><tbody>` +
				`<tr class="x-info"><td class="x-timestamp">2019-06-24 18:12:50</td><td class="x-facility">kern</td><td class="x-priority">info</td><td class="x-tag">sshd</td><td class="x-message"><pre>hello</pre></td></tr>` +
				"</tbody></table>\n",
		},
		{
			name:   "asciidoc",
			format: "asciidoc",
			opts:   opts,
			lines:  sampleLines[:1],
			want: "[cols=\"30,1,1,1,70\", options=\"header\"]\n" +
				"|===\n" +
				"|Timestamp\n|Facility\n|Priority\n|Tag\n|Message\n" +
				"\n" +
				"|2019-06-24 18:12:50\n|kern\n|info\n|sshd\n|`hello`\n" +
				"|===\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := renderAll(t, tc.format, entryspec.Default, domain.DefaultRegistry, tc.opts, tc.lines...)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderNumbersAndEpoch(t *testing.T) {
	reg := domain.DefaultRegistry.With('K', domain.FieldKernelTime).With('I', domain.FieldID)
	line := "Jun 24 18:12:50 2019 -5 9 m\n"

	got := renderAll(t, "json", "%T %K %I %M", reg, DefaultOptions(), line)
	want := `[{"timestamp":"1561399970","ktime":-5,"id":9,"message":"m"}]` + "\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("json mismatch (-want +got):\n%s", diff)
	}

	got = renderAll(t, "csv", "%T %K %I %M", reg, DefaultOptions(), line)
	want = "Timestamp,Kernel time,ID,Message\n" + `"1561399970",-5,9,"m"` + "\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderHidesDroppedFields(t *testing.T) {
	got := renderAll(t, "md", "%!T %F.%!P %G: %_M", domain.DefaultRegistry, DefaultOptions(), sampleLines[0])
	want := "|Facility|Tag|Message|\n|---|---|---|\n|kern|sshd|`hello`|\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestHTMLEscapesNewlines(t *testing.T) {
	if got := htmlEscaper.Replace("a\nb<c>&"); got != "a<br />b&lt;c&gt;&amp;" {
		t.Errorf("unexpected escape result %q", got)
	}
}

func TestTermRenderer(t *testing.T) {
	got := renderAll(t, "term", entryspec.Default, domain.DefaultRegistry, DefaultOptions(), sampleLines...)
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected one line per record, got %q", got)
	}
	for _, want := range []string{"sshd", "hello", "info"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("first line %q lacks %q", lines[0], want)
		}
	}
}

func TestPriorityStyle(t *testing.T) {
	tests := []struct {
		priority string
		want     lipgloss.Style
	}{
		{"emerg", styleFatal},
		{"panic", styleFatal},
		{"alert", styleFatal},
		{"crit", styleError},
		{"err", styleError},
		{"warning", styleWarn},
		{"notice", styleNotice},
		{"debug", styleDebug},
		{"info", styleInfo},
		{"", styleInfo},
	}
	for _, tc := range tests {
		got := priorityStyle(tc.priority)
		if got.GetForeground() != tc.want.GetForeground() ||
			got.GetBackground() != tc.want.GetBackground() ||
			got.GetFaint() != tc.want.GetFaint() ||
			got.GetBold() != tc.want.GetBold() {
			t.Errorf("priority %q got the wrong style", tc.priority)
		}
	}
}

func TestNewUnknownFormat(t *testing.T) {
	_, err := New("pdf", &bytes.Buffer{}, DefaultOptions())
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestFormats(t *testing.T) {
	var names []string
	for _, f := range Formats() {
		if f.Description == "" {
			t.Errorf("format %q has no description", f.Name)
		}
		names = append(names, f.Name)
	}
	want := []string{"asciidoc", "csv", "html", "json", "md", "plain", "term"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("formats mismatch (-want +got):\n%s", diff)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestRenderWriteErrors(t *testing.T) {
	s := entryspec.MustCompile(entryspec.Default)
	rec, err := decoder.New(s, decoder.Options{}).Decode([]byte(sampleLines[0]), 1)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	for _, f := range Formats() {
		t.Run(f.Name, func(t *testing.T) {
			r, _ := New(f.Name, failingWriter{}, DefaultOptions())
			if err := r.Render(rec); err == nil {
				t.Error("expected the write error to be returned")
			}
		})
	}
}
