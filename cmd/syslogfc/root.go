package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/V4T54L/syslogfc/internal/adapter/decoder"
	"github.com/V4T54L/syslogfc/internal/adapter/entryspec"
	"github.com/V4T54L/syslogfc/internal/adapter/input"
	"github.com/V4T54L/syslogfc/internal/adapter/metrics"
	"github.com/V4T54L/syslogfc/internal/adapter/pii"
	"github.com/V4T54L/syslogfc/internal/adapter/render"
	"github.com/V4T54L/syslogfc/internal/pkg/config"
	"github.com/V4T54L/syslogfc/internal/pkg/logger"
	"github.com/V4T54L/syslogfc/internal/usecase"
)

// options are the command line settings; their defaults come from Config.
type options struct {
	format          string
	stdin           bool
	entrySpec       string
	tsParseSpec     string
	tsOutputSpec    string
	csvDelimiter    string
	htmlClassPrefix string
	htmlCellClasses string
	logLevel        string
	metricsAddr     string
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	opts := &options{
		format:          cfg.OutputFormat,
		entrySpec:       cfg.EntrySpec,
		tsParseSpec:     cfg.TimestampParseFormat,
		tsOutputSpec:    cfg.TimestampOutputFormat,
		csvDelimiter:    cfg.CSVDelimiter,
		htmlClassPrefix: cfg.HTMLClassPrefix,
		htmlCellClasses: onOff(cfg.HTMLCellClasses),
		logLevel:        cfg.LogLevel,
		metricsAddr:     cfg.MetricsAddr,
	}

	cmd := &cobra.Command{
		Use:   "syslogfc [flags] [input-file|glob...]",
		Short: "Convert syslog files to other formats",
		Long: `syslogfc decodes syslog files line by line following an entry
specification and renders the records as plain text, Markdown, CSV, JSON,
HTML, AsciiDoc or colorized terminal output.

Entry specification:
  %T timestamp   %H hostname   %F facility   %P priority
  %G tag         %M message    %% literal '%'
  Modifiers between '%' and the letter:
    !  decode but do not output the field
    _  keep leading whitespace
    @  do not validate the value

Examples:
  syslogfc /var/log/syslog
  syslogfc -f html -c on "/var/log/**/*.log" > syslog.html
  tail -n 100 /var/log/messages | syslogfc -s -f csv -e '%T %H %G: %_M'`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, cfg, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "f", opts.format, "output format (see 'syslogfc formats')")
	f.BoolVarP(&opts.stdin, "stdin", "s", false, "read from standard input")
	f.StringVarP(&opts.entrySpec, "entry-spec", "e", opts.entrySpec, "syslog entry specification")
	f.StringVarP(&opts.tsParseSpec, "ts-parse-spec", "p", opts.tsParseSpec, "strptime(3) layout of input timestamps")
	f.StringVarP(&opts.tsOutputSpec, "ts-output-spec", "o", opts.tsOutputSpec, "strftime(3) layout of output timestamps, empty for epoch seconds")
	f.StringVarP(&opts.csvDelimiter, "csv-delimiter", "d", opts.csvDelimiter, "CSV field delimiter")
	f.StringVarP(&opts.htmlClassPrefix, "html-class-prefix", "x", opts.htmlClassPrefix, "prefix of HTML class names")
	f.StringVarP(&opts.htmlCellClasses, "html-cell-classes", "c", opts.htmlCellClasses, "add a class to every HTML cell (on|off)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "log level: debug, info, warn, error")
	f.StringVar(&opts.metricsAddr, "metrics-addr", opts.metricsAddr, "serve Prometheus metrics on this address while converting")

	cmd.AddCommand(newFormatsCmd(), newReplayCmd(cfg, opts))
	return cmd
}

func runConvert(cmd *cobra.Command, cfg *config.Config, opts *options, args []string) error {
	log := logger.New(opts.logLevel, cfg.LogFormat)
	slog.SetDefault(log)

	if opts.stdin && len(args) > 0 {
		return errors.New("--stdin cannot be combined with input files")
	}
	if !opts.stdin && len(args) == 0 {
		return errors.New("no input: pass files or use --stdin")
	}
	cellClasses, err := parseOnOff(opts.htmlCellClasses)
	if err != nil {
		return fmt.Errorf("invalid --html-cell-classes: %w", err)
	}
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid time zone %q: %w", cfg.TimeZone, err)
	}

	spec, err := entryspec.Compile(opts.entrySpec)
	if err != nil {
		return err
	}
	dec := decoder.New(spec, decoder.Options{TimestampLayout: opts.tsParseSpec, Location: loc})

	out := bufio.NewWriter(cmd.OutOrStdout())
	defer out.Flush()

	renderer, err := render.New(opts.format, out, render.Options{
		TimestampFormat: opts.tsOutputSpec,
		CSVDelimiter:    opts.csvDelimiter,
		HTMLClassPrefix: opts.htmlClassPrefix,
		HTMLCellClasses: cellClasses,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inputs, closeInputs, err := openInputs(cmd.InOrStdin(), opts.stdin, args)
	if err != nil {
		return err
	}
	defer closeInputs()

	var reg prometheus.Registerer
	if opts.metricsAddr != "" {
		reg = prometheus.DefaultRegisterer
	}
	m := metrics.NewConvertMetrics(reg)
	if opts.metricsAddr != "" {
		shutdown := serveMetrics(opts.metricsAddr, log)
		defer shutdown()
	}

	var shipper *usecase.Shipper
	if cfg.ShipsEvents() {
		sinks, err := openSinks(ctx, cfg, log)
		if err != nil {
			return err
		}
		shipper = usecase.NewShipper(sinks, log, m, usecase.ShipperOptions{
			BatchSize:  cfg.SinkBatchSize,
			RateLimit:  cfg.SinkRateLimit,
			MaxRetries: cfg.SinkMaxRetries,
		})
		defer func() {
			if err := shipper.Close(context.Background()); err != nil {
				log.Error("failed to close sinks", "error", err)
			}
		}()
	}

	var redactor *pii.Redactor
	if r := pii.NewRedactor(cfg.RedactFieldList(), log); r.Enabled() {
		redactor = r
	}

	uc := usecase.NewConvertUseCase(dec, renderer, log, usecase.ConvertOptions{
		Redactor:        redactor,
		Shipper:         shipper,
		Metrics:         m,
		Diagnostics:     cmd.ErrOrStderr(),
		MaxLineSize:     cfg.MaxLineSize,
		TimestampFormat: opts.tsOutputSpec,
	})
	if _, err := uc.Run(ctx, inputs); err != nil {
		return err
	}
	return out.Flush()
}

func openInputs(stdin io.Reader, useStdin bool, patterns []string) ([]usecase.Input, func(), error) {
	if useStdin {
		return []usecase.Input{{Name: "stdin", Reader: stdin}}, func() {}, nil
	}

	paths, err := input.ExpandPaths(patterns)
	if err != nil {
		return nil, nil, err
	}

	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	inputs := make([]usecase.Input, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to open input: %w", err)
		}
		files = append(files, f)
		inputs = append(inputs, usecase.Input{Name: p, Reader: f})
	}
	return inputs, closeAll, nil
}

func serveMetrics(addr string, log *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("starting metrics server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("metrics server shutdown failed", "error", err)
		}
	}
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0", "":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
