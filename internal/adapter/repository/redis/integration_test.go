package redis

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/syslogfc/internal/domain"
	"github.com/V4T54L/syslogfc/internal/domain/mocks"
)

// Set SYSLOGFC_TEST_REDIS_ADDR, e.g. localhost:6379.
func TestEventSinkIntegration(t *testing.T) {
	addr := os.Getenv("SYSLOGFC_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SYSLOGFC_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}

	stream := "syslogfc_test_" + uuid.NewString()[:8]
	t.Cleanup(func() { client.Del(ctx, stream) })

	spool := &mocks.MockSpoolRepository{Spooled: []domain.Event{{ID: "spooled", Message: "from spool"}}}
	sink := NewEventSink(client, slog.New(slog.NewTextHandler(io.Discard, nil)), stream, 0, spool)
	defer sink.Close()

	if err := sink.WriteEvents(ctx, []domain.Event{{ID: "a", Message: "one"}, {ID: "b", Message: "two"}}); err != nil {
		t.Fatalf("WriteEvents failed: %v", err)
	}
	n, err := sink.ReplaySpool(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ReplaySpool = %d, %v; want 1, nil", n, err)
	}
	if len(spool.Spooled) != 0 {
		t.Errorf("spool not truncated after replay: %d events", len(spool.Spooled))
	}

	msgs, err := client.XRange(ctx, stream, "-", "+").Result()
	if err != nil {
		t.Fatalf("XRANGE failed: %v", err)
	}
	var ids []string
	for _, m := range msgs {
		var e domain.Event
		if err := json.Unmarshal([]byte(m.Values["payload"].(string)), &e); err != nil {
			t.Fatalf("bad payload: %v", err)
		}
		ids = append(ids, e.ID)
	}
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "spooled" {
		t.Errorf("unexpected stream contents %v", ids)
	}
}
