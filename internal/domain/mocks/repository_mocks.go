package mocks

import (
	"context"
	"sync"

	"github.com/V4T54L/syslogfc/internal/domain"
)

// MockEventSink is a mock implementation of domain.EventSink for testing.
type MockEventSink struct {
	mu        sync.Mutex
	SinkName  string
	Batches   [][]domain.Event
	WriteErr  error
	FailTimes int // WriteEvents fails this many times with WriteErr before succeeding
	Closed    bool
}

func (m *MockEventSink) Name() string {
	if m.SinkName == "" {
		return "mock"
	}
	return m.SinkName
}

func (m *MockEventSink) WriteEvents(ctx context.Context, events []domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil && m.FailTimes != 0 {
		if m.FailTimes > 0 {
			m.FailTimes--
		}
		return m.WriteErr
	}
	batch := make([]domain.Event, len(events))
	copy(batch, events)
	m.Batches = append(m.Batches, batch)
	return nil
}

func (m *MockEventSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Events returns every delivered event in delivery order.
func (m *MockEventSink) Events() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Event
	for _, b := range m.Batches {
		out = append(out, b...)
	}
	return out
}

// MockSpoolRepository is an in-memory domain.SpoolRepository.
type MockSpoolRepository struct {
	mu       sync.Mutex
	Spooled  []domain.Event
	WriteErr error
}

func (m *MockSpoolRepository) Write(ctx context.Context, event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Spooled = append(m.Spooled, event)
	return nil
}

func (m *MockSpoolRepository) Replay(ctx context.Context, handler func(event domain.Event) error) error {
	m.mu.Lock()
	events := append([]domain.Event(nil), m.Spooled...)
	m.mu.Unlock()
	for _, e := range events {
		if err := handler(e); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockSpoolRepository) Truncate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Spooled = nil
	return nil
}

// MockSpoolReplayer is a mock implementation of domain.SpoolReplayer.
type MockSpoolReplayer struct {
	Replayed  int
	ReplayErr error
	Calls     int
}

func (m *MockSpoolReplayer) ReplaySpool(ctx context.Context) (int, error) {
	m.Calls++
	return m.Replayed, m.ReplayErr
}
