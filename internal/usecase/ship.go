package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/V4T54L/syslogfc/internal/adapter/metrics"
	"github.com/V4T54L/syslogfc/internal/adapter/timefmt"
	"github.com/V4T54L/syslogfc/internal/domain"
)

const (
	defaultBatchSize    = 500
	defaultRetryCount   = 3
	defaultRetryBackoff = 1 * time.Second
)

// ShipperOptions tunes batching and delivery.
type ShipperOptions struct {
	BatchSize    int
	RateLimit    float64 // events per second across all sinks; 0 disables limiting
	MaxRetries   int
	RetryBackoff time.Duration
}

// Shipper batches events and delivers each batch to every configured sink.
// It is not safe for concurrent use.
type Shipper struct {
	sinks   []domain.EventSink
	logger  *slog.Logger
	metrics *metrics.ConvertMetrics
	limiter *rate.Limiter
	opts    ShipperOptions
	pending []domain.Event
}

// NewShipper creates a Shipper for sinks.
func NewShipper(sinks []domain.EventSink, logger *slog.Logger, m *metrics.ConvertMetrics, opts ShipperOptions) *Shipper {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultRetryCount
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaultRetryBackoff
	}

	s := &Shipper{
		sinks:   sinks,
		logger:  logger.With("component", "shipper"),
		metrics: m,
		opts:    opts,
		pending: make([]domain.Event, 0, opts.BatchSize),
	}
	if opts.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), opts.BatchSize)
	}
	return s
}

// Add queues an event and flushes when a full batch is pending.
func (s *Shipper) Add(ctx context.Context, event domain.Event) error {
	s.pending = append(s.pending, event)
	if len(s.pending) < s.opts.BatchSize {
		return nil
	}
	return s.Flush(ctx)
}

// Flush delivers pending events to every sink. A sink that still fails after
// retries does not keep the batch from the other sinks.
func (s *Shipper) Flush(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	batch := s.pending
	s.pending = make([]domain.Event, 0, s.opts.BatchSize)

	if s.limiter != nil {
		if err := s.limiter.WaitN(ctx, len(batch)); err != nil {
			return fmt.Errorf("failed to wait for rate limiter: %w", err)
		}
	}

	var errs []error
	for _, sink := range s.sinks {
		err := s.writeWithRetry(ctx, sink, batch)
		status := "delivered"
		if err != nil {
			status = "failed"
			s.logger.Error("failed to ship batch", "sink", sink.Name(), "count", len(batch), "error", err)
			errs = append(errs, fmt.Errorf("sink %s: %w", sink.Name(), err))
		}
		if s.metrics != nil {
			s.metrics.EventsShipped.WithLabelValues(sink.Name(), status).Add(float64(len(batch)))
		}
		s.observeSpool(sink)
	}
	return errors.Join(errs...)
}

// Close flushes pending events and closes every sink.
func (s *Shipper) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	for _, sink := range s.sinks {
		if cerr := sink.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close sink %s: %w", sink.Name(), cerr))
		}
	}
	return err
}

func (s *Shipper) writeWithRetry(ctx context.Context, sink domain.EventSink, events []domain.Event) error {
	var lastErr error
	for i := 0; i < s.opts.MaxRetries; i++ {
		err := sink.WriteEvents(ctx, events)
		if err == nil {
			return nil
		}
		lastErr = err
		s.logger.Warn("failed to write batch to sink, retrying...", "sink", sink.Name(), "attempt", i+1, "error", err)
		if i == s.opts.MaxRetries-1 {
			break
		}
		select {
		case <-time.After(s.opts.RetryBackoff << i):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

// observeSpool reports sinks that divert events to disk.
func (s *Shipper) observeSpool(sink domain.EventSink) {
	a, ok := sink.(interface{ Available() bool })
	if !ok || s.metrics == nil {
		return
	}
	if a.Available() {
		s.metrics.SpoolActive.Set(0)
	} else {
		s.metrics.SpoolActive.Set(1)
	}
}

// NewEvent projects a decoded record onto a shippable event. Time values in
// Fields are rendered with tsFormat (strftime; empty means epoch seconds).
func NewEvent(rec *domain.Record, source string, line int, tsFormat string, redacted bool) domain.Event {
	event := domain.Event{
		ID:          uuid.NewString(),
		Num:         rec.Num,
		Source:      source,
		Line:        line,
		ConvertedAt: time.Now().UTC(),
		Fields:      make(map[string]string),
		Redacted:    redacted,
	}

	for _, f := range rec.Visible() {
		event.Fields[f.Info.ParamName] = fieldString(f.Value, tsFormat)

		switch f.Info.Kind {
		case domain.FieldTimestamp:
			t := time.Unix(f.Value.Unix, 0).UTC()
			event.EventTime = &t
		case domain.FieldHostname:
			event.Hostname = f.Value.Str
		case domain.FieldFacility:
			event.Facility = f.Value.Str
		case domain.FieldPriority:
			event.Priority = f.Value.Str
		case domain.FieldTag:
			event.Tag = f.Value.Str
		case domain.FieldMessage:
			event.Message = f.Value.Str
		}
	}
	return event
}

func fieldString(v domain.Value, tsFormat string) string {
	switch v.Type {
	case domain.TypeTime:
		return timefmt.Format(tsFormat, v.Time)
	case domain.TypeInteger:
		return strconv.FormatInt(v.Int, 10)
	case domain.TypeUnsignedInteger:
		return strconv.FormatUint(v.Uint, 10)
	default:
		return v.Str
	}
}
