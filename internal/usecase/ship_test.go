package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/V4T54L/syslogfc/internal/adapter/decoder"
	"github.com/V4T54L/syslogfc/internal/adapter/entryspec"
	"github.com/V4T54L/syslogfc/internal/adapter/metrics"
	"github.com/V4T54L/syslogfc/internal/domain"
	"github.com/V4T54L/syslogfc/internal/domain/mocks"
)

func testEvents(n int) []domain.Event {
	events := make([]domain.Event, n)
	for i := range events {
		events[i] = domain.Event{ID: fmt.Sprint(i + 1), Num: uint64(i + 1)}
	}
	return events
}

func TestShipper(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Batches And Flushes On Close", func(t *testing.T) {
		sink := &mocks.MockEventSink{}
		s := NewShipper([]domain.EventSink{sink}, logger, nil, ShipperOptions{BatchSize: 2})

		for _, e := range testEvents(5) {
			if err := s.Add(context.Background(), e); err != nil {
				t.Fatalf("Add failed: %v", err)
			}
		}
		if len(sink.Batches) != 2 {
			t.Fatalf("expected 2 full batches before close, got %d", len(sink.Batches))
		}
		if err := s.Close(context.Background()); err != nil {
			t.Fatalf("Close failed: %v", err)
		}

		var sizes []int
		for _, b := range sink.Batches {
			sizes = append(sizes, len(b))
		}
		if diff := cmp.Diff([]int{2, 2, 1}, sizes); diff != "" {
			t.Errorf("batch sizes mismatch (-want +got):\n%s", diff)
		}
		if !sink.Closed {
			t.Error("expected sink to be closed")
		}
	})

	t.Run("Retries Transient Failures", func(t *testing.T) {
		m := metrics.NewConvertMetrics(nil)
		sink := &mocks.MockEventSink{WriteErr: errors.New("connection reset"), FailTimes: 2}
		s := NewShipper([]domain.EventSink{sink}, logger, m, ShipperOptions{BatchSize: 10, MaxRetries: 3, RetryBackoff: time.Millisecond})

		for _, e := range testEvents(3) {
			_ = s.Add(context.Background(), e)
		}
		if err := s.Flush(context.Background()); err != nil {
			t.Fatalf("expected retries to succeed, got %v", err)
		}
		if len(sink.Events()) != 3 {
			t.Errorf("expected 3 delivered events, got %d", len(sink.Events()))
		}
		if got := testutil.ToFloat64(m.EventsShipped.WithLabelValues("mock", "delivered")); got != 3 {
			t.Errorf("expected 3 delivered in metrics, got %v", got)
		}
	})

	t.Run("Failing Sink Does Not Block Others", func(t *testing.T) {
		m := metrics.NewConvertMetrics(nil)
		bad := &mocks.MockEventSink{SinkName: "bad", WriteErr: errors.New("database is down"), FailTimes: -1}
		good := &mocks.MockEventSink{SinkName: "good"}
		s := NewShipper([]domain.EventSink{bad, good}, logger, m, ShipperOptions{BatchSize: 10, MaxRetries: 2, RetryBackoff: time.Millisecond})

		for _, e := range testEvents(2) {
			_ = s.Add(context.Background(), e)
		}
		err := s.Flush(context.Background())
		if err == nil {
			t.Fatal("expected an error, got nil")
		}
		if len(good.Events()) != 2 {
			t.Errorf("expected good sink to receive 2 events, got %d", len(good.Events()))
		}
		if got := testutil.ToFloat64(m.EventsShipped.WithLabelValues("bad", "failed")); got != 2 {
			t.Errorf("expected 2 failed in metrics, got %v", got)
		}
	})

	t.Run("Cancelled During Backoff", func(t *testing.T) {
		sink := &mocks.MockEventSink{WriteErr: errors.New("timeout"), FailTimes: -1}
		s := NewShipper([]domain.EventSink{sink}, logger, nil, ShipperOptions{BatchSize: 1, MaxRetries: 5, RetryBackoff: time.Hour})
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		err := s.Add(ctx, domain.Event{ID: "1"})
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline exceeded, got %v", err)
		}
	})

	t.Run("Rate Limited", func(t *testing.T) {
		sink := &mocks.MockEventSink{}
		s := NewShipper([]domain.EventSink{sink}, logger, nil, ShipperOptions{BatchSize: 2, RateLimit: 1000})

		for _, e := range testEvents(4) {
			if err := s.Add(context.Background(), e); err != nil {
				t.Fatalf("Add failed: %v", err)
			}
		}
		if len(sink.Events()) != 4 {
			t.Errorf("expected 4 delivered events, got %d", len(sink.Events()))
		}
	})
}

func TestNewEvent(t *testing.T) {
	dec := decoder.New(entryspec.MustCompile("%T %!H %F.%P %G: %_M"), decoder.Options{Location: time.UTC})
	rec, err := dec.Decode([]byte("Jun 24 18:12:50 2019 myhost daemon.err cron: job failed\n"), 4)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	e := NewEvent(rec, "cron.log", 4, "", false)

	if e.ID == "" {
		t.Error("expected an event ID")
	}
	if e.ConvertedAt.IsZero() {
		t.Error("expected ConvertedAt to be set")
	}
	wantFields := map[string]string{
		"timestamp": fmt.Sprint(time.Date(2019, 6, 24, 18, 12, 50, 0, time.UTC).Unix()),
		"facility":  "daemon",
		"priority":  "err",
		"tag":       "cron",
		"message":   "job failed",
	}
	if diff := cmp.Diff(wantFields, e.Fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	if e.Hostname != "" {
		t.Errorf("dropped hostname must not be shipped, got %q", e.Hostname)
	}
	if e.Num != 1 || e.Line != 4 || e.Source != "cron.log" {
		t.Errorf("unexpected event header: %+v", e)
	}
}
