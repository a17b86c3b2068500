package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/syslogfc/internal/adapter/repository/postgres"
	redisrepo "github.com/V4T54L/syslogfc/internal/adapter/repository/redis"
	"github.com/V4T54L/syslogfc/internal/adapter/repository/spool"
	"github.com/V4T54L/syslogfc/internal/domain"
	"github.com/V4T54L/syslogfc/internal/pkg/config"
)

// openSinks connects every configured sink. Redis being down is not fatal:
// events are spooled until a replay.
func openSinks(ctx context.Context, cfg *config.Config, log *slog.Logger) ([]domain.EventSink, error) {
	var sinks []domain.EventSink

	if cfg.RedisAddr != "" {
		sink, err := openRedisSink(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	if cfg.PostgresURL != "" {
		db, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			closeSinks(sinks, log)
			return nil, err
		}
		sink := postgres.NewEventSink(db, log, cfg.PostgresTable)
		if err := sink.EnsureSchema(ctx); err != nil {
			sink.Close()
			closeSinks(sinks, log)
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	return sinks, nil
}

func openRedisSink(ctx context.Context, cfg *config.Config, log *slog.Logger) (*redisrepo.EventSink, error) {
	client, err := newRedisClient(cfg.RedisAddr)
	if err != nil {
		return nil, err
	}

	sp, err := spool.NewRepository(cfg.SpoolDir, cfg.SpoolSegmentSize, cfg.SpoolMaxDiskSize, log)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize spool: %w", err)
	}

	sink := redisrepo.NewEventSink(client, log, cfg.RedisStream, cfg.RedisMaxLen, sp)
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("could not connect to redis, events will be spooled", "error", err, "spool_dir", cfg.SpoolDir)
	}
	return sink, nil
}

// newRedisClient accepts a redis:// URL or a bare host:port.
func newRedisClient(addr string) (*redis.Client, error) {
	if !strings.Contains(addr, "://") {
		return redis.NewClient(&redis.Options{Addr: addr}), nil
	}
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func closeSinks(sinks []domain.EventSink, log *slog.Logger) {
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			log.Error("failed to close sink", "sink", s.Name(), "error", err)
		}
	}
}
