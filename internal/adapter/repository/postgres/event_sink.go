package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/V4T54L/syslogfc/internal/domain"
)

const DefaultTable = "syslog_events"

var eventColumns = []string{
	"event_id", "num", "source", "line", "converted_at", "event_time",
	"hostname", "facility", "priority", "tag", "message", "fields", "redacted",
}

// EventSink writes events into a PostgreSQL table, upserting on event_id.
type EventSink struct {
	db     *sql.DB
	logger *slog.Logger
	table  string
}

// NewEventSink creates a PostgreSQL sink writing into table.
func NewEventSink(db *sql.DB, logger *slog.Logger, table string) *EventSink {
	if table == "" {
		table = DefaultTable
	}
	return &EventSink{db: db, logger: logger.With("component", "postgres_sink", "table", table), table: table}
}

func (s *EventSink) Name() string { return "postgres" }

func (s *EventSink) schema() string {
	t := pq.QuoteIdentifier(s.table)
	return `CREATE TABLE IF NOT EXISTS ` + t + ` (
	event_id     UUID PRIMARY KEY,
	num          BIGINT NOT NULL,
	source       TEXT NOT NULL DEFAULT '',
	line         INTEGER NOT NULL,
	converted_at TIMESTAMPTZ NOT NULL,
	event_time   TIMESTAMPTZ,
	hostname     TEXT NOT NULL DEFAULT '',
	facility     TEXT NOT NULL DEFAULT '',
	priority     TEXT NOT NULL DEFAULT '',
	tag          TEXT NOT NULL DEFAULT '',
	message      TEXT NOT NULL DEFAULT '',
	fields       JSONB,
	redacted     BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS ` + pq.QuoteIdentifier(s.table+"_event_time_idx") + ` ON ` + t + ` (event_time);`
}

// EnsureSchema creates the events table if it does not exist.
func (s *EventSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.schema()); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

func (s *EventSink) upsertQuery(tempTable string) string {
	cols := ""
	updates := ""
	for i, c := range eventColumns {
		if i > 0 {
			cols += ", "
		}
		cols += c
		if c == "event_id" {
			continue
		}
		if updates != "" {
			updates += ",\n\t\t\t"
		}
		updates += c + " = EXCLUDED." + c
	}
	return `
		INSERT INTO ` + pq.QuoteIdentifier(s.table) + ` (` + cols + `)
		SELECT ` + cols + ` FROM ` + tempTable + `
		ON CONFLICT (event_id) DO UPDATE SET
			` + updates + `;`
}

// WriteEvents stages the batch with COPY into a temporary table and merges it
// into the events table.
func (s *EventSink) WriteEvents(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer txn.Rollback()

	const tempTable = "syslog_events_import"
	_, err = txn.ExecContext(ctx, `CREATE TEMP TABLE `+tempTable+` (LIKE `+pq.QuoteIdentifier(s.table)+` INCLUDING DEFAULTS) ON COMMIT DROP;`)
	if err != nil {
		return fmt.Errorf("failed to create staging table: %w", err)
	}

	stmt, err := txn.PrepareContext(ctx, pq.CopyIn(tempTable, eventColumns...))
	if err != nil {
		return fmt.Errorf("failed to prepare COPY: %w", err)
	}

	for _, event := range events {
		row, err := eventRow(event)
		if err != nil {
			_ = stmt.Close()
			return err
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("failed to COPY event %s: %w", event.ID, err)
		}
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("failed to flush COPY: %w", err)
	}

	if _, err := txn.ExecContext(ctx, s.upsertQuery(tempTable)); err != nil {
		return fmt.Errorf("failed to upsert events: %w", err)
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("failed to commit events: %w", err)
	}

	s.logger.Debug("wrote events", "count", len(events))
	return nil
}

// eventRow returns the COPY values of event in eventColumns order.
func eventRow(event domain.Event) ([]interface{}, error) {
	var fields interface{}
	if len(event.Fields) > 0 {
		b, err := json.Marshal(event.Fields)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal fields of event %s: %w", event.ID, err)
		}
		fields = string(b)
	}
	var eventTime interface{}
	if event.EventTime != nil {
		eventTime = event.EventTime.UTC()
	}
	return []interface{}{
		event.ID, int64(event.Num), event.Source, event.Line, event.ConvertedAt.UTC(), eventTime,
		event.Hostname, event.Facility, event.Priority, event.Tag, event.Message, fields, event.Redacted,
	}, nil
}

func (s *EventSink) Close() error {
	return s.db.Close()
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}
