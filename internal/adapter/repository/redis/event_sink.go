package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/syslogfc/internal/domain"
)

const DefaultStreamKey = "syslog_events"

// EventSink appends events to a Redis Stream. While Redis is unreachable,
// events go to the spool and are replayed once it recovers.
type EventSink struct {
	client      *redis.Client
	logger      *slog.Logger
	spool       domain.SpoolRepository
	streamKey   string
	maxLen      int64
	isAvailable atomic.Bool
}

// NewEventSink creates a Redis Stream sink. spool may be nil, in which case
// write failures are returned to the caller.
func NewEventSink(client *redis.Client, logger *slog.Logger, streamKey string, maxLen int64, spool domain.SpoolRepository) *EventSink {
	if streamKey == "" {
		streamKey = DefaultStreamKey
	}
	s := &EventSink{
		client:    client,
		logger:    logger.With("component", "redis_sink", "stream", streamKey),
		spool:     spool,
		streamKey: streamKey,
		maxLen:    maxLen,
	}
	s.isAvailable.Store(true)
	return s
}

func (s *EventSink) Name() string { return "redis" }

// Available reports whether the last interaction with Redis succeeded.
func (s *EventSink) Available() bool { return s.isAvailable.Load() }

// WriteEvents pipelines one XADD per event.
func (s *EventSink) WriteEvents(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	if !s.isAvailable.Load() {
		return s.spoolEvents(ctx, events, nil)
	}

	err := s.xadd(ctx, events)
	if err == nil {
		return nil
	}
	if !isNetworkError(err) {
		return err
	}
	if s.isAvailable.CompareAndSwap(true, false) {
		s.logger.Error("redis connection lost during write", "error", err)
	}
	return s.spoolEvents(ctx, events, err)
}

func (s *EventSink) spoolEvents(ctx context.Context, events []domain.Event, cause error) error {
	if s.spool == nil {
		if cause == nil {
			cause = errors.New("redis is unavailable")
		}
		return fmt.Errorf("redis is unavailable and spool is not configured: %w", cause)
	}
	s.logger.Warn("redis is unavailable, writing to spool", "count", len(events))
	for _, event := range events {
		if err := s.spool.Write(ctx, event); err != nil {
			return fmt.Errorf("failed to spool event %s: %w", event.ID, err)
		}
	}
	return nil
}

func (s *EventSink) xadd(ctx context.Context, events []domain.Event) error {
	pipe := s.client.Pipeline()
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", event.ID, err)
		}
		args := &redis.XAddArgs{
			Stream: s.streamKey,
			Values: map[string]interface{}{"event_id": event.ID, "payload": payload},
		}
		if s.maxLen > 0 {
			args.MaxLen = s.maxLen
			args.Approx = true
		}
		pipe.XAdd(ctx, args)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to XADD to redis stream: %w", err)
	}
	return nil
}

// ReplaySpool pushes spooled events to the stream and truncates the spool on success.
func (s *EventSink) ReplaySpool(ctx context.Context) (int, error) {
	if s.spool == nil {
		return 0, nil
	}
	s.logger.Info("attempting to replay spool to redis")

	replayed := 0
	err := s.spool.Replay(ctx, func(event domain.Event) error {
		if err := s.xadd(ctx, []domain.Event{event}); err != nil {
			return err
		}
		replayed++
		return nil
	})
	if err != nil {
		return replayed, fmt.Errorf("spool replay failed: %w", err)
	}
	if err := s.spool.Truncate(ctx); err != nil {
		return replayed, fmt.Errorf("failed to truncate spool after successful replay: %w", err)
	}

	s.logger.Info("spool replay to redis completed", "events", replayed)
	return replayed, nil
}

// StartHealthCheck pings Redis every interval and replays the spool when a
// lost connection recovers. It blocks until ctx is done.
func (s *EventSink) StartHealthCheck(ctx context.Context, interval time.Duration) {
	if s.spool == nil {
		s.logger.Info("spool is not configured, skipping health check")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.client.Ping(ctx).Err(); err != nil {
				if s.isAvailable.CompareAndSwap(true, false) {
					s.logger.Error("redis connection lost", "error", err)
				}
				continue
			}
			if s.isAvailable.CompareAndSwap(false, true) {
				s.logger.Info("redis connection recovered")
				if _, err := s.ReplaySpool(ctx); err != nil {
					s.logger.Error("failed to replay spool after redis recovery", "error", err)
					s.isAvailable.Store(false)
				}
			}
		}
	}
}

func (s *EventSink) Close() error {
	return s.client.Close()
}

func isNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, redis.ErrClosed) || errors.Is(err, context.DeadlineExceeded)
}
