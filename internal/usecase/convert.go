package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/V4T54L/syslogfc/internal/adapter/decoder"
	"github.com/V4T54L/syslogfc/internal/adapter/input"
	"github.com/V4T54L/syslogfc/internal/adapter/metrics"
	"github.com/V4T54L/syslogfc/internal/adapter/pii"
	"github.com/V4T54L/syslogfc/internal/adapter/render"
)

// Input is one named source of syslog lines.
type Input struct {
	Name   string
	Reader io.Reader
}

// Stats summarizes a conversion run.
type Stats struct {
	Lines   int
	Decoded int
	Failed  int
}

// ConvertOptions holds the optional collaborators of a ConvertUseCase.
// Nil members are skipped.
type ConvertOptions struct {
	Redactor    *pii.Redactor
	Shipper     *Shipper
	Metrics     *metrics.ConvertMetrics
	Diagnostics io.Writer // receives one "line <n>: <message>" per rejected line
	MaxLineSize int
	// TimestampFormat renders time values of shipped events.
	TimestampFormat string
}

// ConvertUseCase decodes syslog lines and renders them as one document.
type ConvertUseCase struct {
	decoder  *decoder.Decoder
	renderer render.Renderer
	opts     ConvertOptions
	logger   *slog.Logger
}

// NewConvertUseCase creates a use case rendering records decoded by dec with r.
func NewConvertUseCase(dec *decoder.Decoder, r render.Renderer, logger *slog.Logger, opts ConvertOptions) *ConvertUseCase {
	if opts.Diagnostics == nil {
		opts.Diagnostics = io.Discard
	}
	return &ConvertUseCase{
		decoder:  dec,
		renderer: r,
		opts:     opts,
		logger:   logger.With("component", "converter"),
	}
}

// Run converts inputs in order into a single rendered document. Lines that do
// not match the entry specification are reported and skipped; I/O, oversized
// lines and render failures abort the run.
func (uc *ConvertUseCase) Run(ctx context.Context, inputs []Input) (Stats, error) {
	var stats Stats
	tmpl := uc.decoder.Spec().Template()

	if err := uc.renderer.Start(tmpl); err != nil {
		return stats, fmt.Errorf("failed to start output: %w", err)
	}

	for _, in := range inputs {
		if err := uc.convert(ctx, in, len(inputs) > 1, &stats); err != nil {
			return stats, err
		}
	}

	if err := uc.renderer.End(tmpl); err != nil {
		return stats, fmt.Errorf("failed to finish output: %w", err)
	}

	if uc.opts.Shipper != nil {
		if err := uc.opts.Shipper.Flush(ctx); err != nil {
			return stats, fmt.Errorf("failed to ship events: %w", err)
		}
	}

	uc.logger.Info("conversion finished", "lines", stats.Lines, "decoded", stats.Decoded, "failed", stats.Failed)
	return stats, nil
}

func (uc *ConvertUseCase) convert(ctx context.Context, in Input, named bool, stats *Stats) error {
	lr := input.NewLineReader(in.Reader, uc.opts.MaxLineSize)
	logger := uc.logger.With("source", in.Name)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := lr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", in.Name, err)
		}

		stats.Lines++
		if uc.opts.Metrics != nil {
			uc.opts.Metrics.BytesTotal.Add(float64(len(line)))
		}

		rec, err := uc.decoder.Decode(line, lr.Line())
		if err != nil {
			stats.Failed++
			uc.observe(err)
			if named {
				fmt.Fprintf(uc.opts.Diagnostics, "%s: %v\n", in.Name, err)
			} else {
				fmt.Fprintln(uc.opts.Diagnostics, err)
			}
			logger.Debug("skipping line", "line", lr.Line(), "error", err)
			continue
		}
		stats.Decoded++
		uc.observe(nil)

		redacted := false
		if uc.opts.Redactor != nil {
			redacted = uc.opts.Redactor.Redact(rec)
		}

		if err := uc.renderer.Render(rec); err != nil {
			return fmt.Errorf("failed to render line %d: %w", lr.Line(), err)
		}

		if uc.opts.Shipper != nil {
			event := NewEvent(rec, in.Name, lr.Line(), uc.opts.TimestampFormat, redacted)
			if err := uc.opts.Shipper.Add(ctx, event); err != nil {
				logger.Error("failed to ship events", "error", err)
			}
		}
	}
}

func (uc *ConvertUseCase) observe(err error) {
	if uc.opts.Metrics == nil {
		return
	}
	uc.opts.Metrics.LinesTotal.WithLabelValues(lineStatus(err)).Inc()
}

func lineStatus(err error) string {
	switch {
	case err == nil:
		return metrics.StatusDecoded
	case errors.Is(err, decoder.ErrDelimiterNotFound):
		return metrics.StatusErrorDelimiter
	case errors.Is(err, decoder.ErrMalformedTimestamp):
		return metrics.StatusErrorTimestamp
	case errors.Is(err, decoder.ErrInvalidValue):
		return metrics.StatusErrorInvalid
	default:
		return metrics.StatusErrorOther
	}
}
