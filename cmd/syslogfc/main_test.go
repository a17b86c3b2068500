package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/V4T54L/syslogfc/internal/adapter/entryspec"
	"github.com/V4T54L/syslogfc/internal/adapter/render"
	"github.com/V4T54L/syslogfc/internal/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	chdir(t, t.TempDir())
	t.Setenv("SYSLOGFC_TZ_NAME", "UTC")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() failed: %v", err)
	}
	return cfg
}

func execute(t *testing.T, cfg *config.Config, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(cfg)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestConvertStdin(t *testing.T) {
	cfg := testConfig(t)
	in := "Jun 24 18:12:50 2019 kern.info sshd: hello\nnot a syslog line\n"

	out, errOut, err := execute(t, cfg, in, "-s", "-f", "csv", "-d", ";")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := "Timestamp;Facility;Priority;Tag;Message\n" +
		`"1561399970";"kern";"info";"sshd";"hello"` + "\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(errOut, "line 2: failed to parse 'timestamp' field") {
		t.Errorf("expected diagnostic for line 2, got %q", errOut)
	}
}

func TestConvertFile(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "syslog")
	if err := os.WriteFile(path, []byte("Jun 24 18:12:50 2019 kern.info sshd: hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, errOut, err := execute(t, cfg, "", "-f", "csv", "-o", "%Y-%m-%d %H:%M:%S", path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := "Timestamp,Facility,Priority,Tag,Message\n" +
		`"2019-06-24 18:12:50","kern","info","sshd","hello"` + "\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	if errOut != "" {
		t.Errorf("unexpected diagnostics %q", errOut)
	}
}

func TestConvertFiles(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	for name, content := range map[string]string{
		"a.log": "Jun 24 18:12:50 2019 kern.info sshd: a\n",
		"b.log": "Jun 24 18:12:51 2019 kern.info sshd: b\n",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	out, _, err := execute(t, cfg, "", "-f", "json", "-o", "", filepath.Join(dir, "*.log"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := `[{"timestamp":"1561399970","facility":"kern","priority":"info","tag":"sshd","message":"a"},` +
		`{"timestamp":"1561399971","facility":"kern","priority":"info","tag":"sshd","message":"b"}]` + "\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
		wantMsg string
	}{
		{name: "no input", args: nil, wantMsg: "no input"},
		{name: "stdin and files", args: []string{"-s", "x.log"}, wantMsg: "--stdin cannot be combined"},
		{name: "bad entry spec", args: []string{"-s", "-e", "%T%M"}, wantErr: entryspec.ErrMissingSeparator},
		{name: "unknown format", args: []string{"-s", "-f", "pdf"}, wantErr: render.ErrUnknownFormat},
		{name: "bad cell classes", args: []string{"-s", "-c", "maybe"}, wantMsg: "invalid --html-cell-classes"},
		{name: "missing file", args: []string{"does-not-exist.log"}, wantMsg: "failed to open input"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t)
			_, _, err := execute(t, cfg, "", tc.args...)
			if err == nil {
				t.Fatalf("expected an error for args %v", tc.args)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("expected error %v, got %v", tc.wantErr, err)
			}
			if tc.wantMsg != "" && !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("expected error containing %q, got %v", tc.wantMsg, err)
			}
		})
	}
}

func TestFormatsCmd(t *testing.T) {
	cfg := testConfig(t)
	out, _, err := execute(t, cfg, "", "formats")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, name := range []string{"plain", "md", "csv", "json", "html", "asciidoc", "term"} {
		if !strings.Contains(out, name) {
			t.Errorf("formats output lacks %q:\n%s", name, out)
		}
	}
	if !strings.Contains(out, "* plain") {
		t.Errorf("default format not marked:\n%s", out)
	}
}

func TestParseOnOff(t *testing.T) {
	for in, want := range map[string]bool{"on": true, "ON": true, "1": true, "true": true, "off": false, "": false, "0": false} {
		got, err := parseOnOff(in)
		if err != nil || got != want {
			t.Errorf("parseOnOff(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := parseOnOff("maybe"); err == nil {
		t.Error("expected an error for \"maybe\"")
	}
}
