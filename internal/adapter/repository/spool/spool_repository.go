package spool

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/V4T54L/syslogfc/internal/domain"
)

const (
	segmentPrefix = "segment-"
	segmentSuffix = ".jsonl"
	filePerm      = 0644
)

var ErrSpoolFull = errors.New("spool max total size exceeded")

// Repository is a segmented, file-based spool of undelivered events.
// Each segment holds one JSON encoded domain.Event per line.
type Repository struct {
	dir            string
	maxSegmentSize int64
	maxTotalSize   int64
	logger         *slog.Logger

	mu             sync.Mutex
	currentSegment *os.File
	currentSize    int64
	seq            int
}

// NewRepository opens (or creates) the spool in dir.
func NewRepository(dir string, maxSegmentSize, maxTotalSize int64, logger *slog.Logger) (*Repository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create spool directory %s: %w", dir, err)
	}

	s := &Repository{
		dir:            dir,
		maxSegmentSize: maxSegmentSize,
		maxTotalSize:   maxTotalSize,
		logger:         logger.With("component", "spool_repository"),
	}

	if err := s.openLatestSegment(); err != nil {
		return nil, err
	}

	return s, nil
}

// Write appends an event to the current segment, rotating when it is full.
func (s *Repository) Write(ctx context.Context, event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event for spool: %w", err)
	}
	data = append(data, '\n')

	if s.currentSegment == nil {
		if err := s.rotate(); err != nil {
			return err
		}
	}

	totalSize, err := s.calculateTotalSize()
	if err != nil {
		return fmt.Errorf("could not verify spool disk space: %w", err)
	}
	if totalSize+int64(len(data)) > s.maxTotalSize {
		return fmt.Errorf("%w (%d > %d)", ErrSpoolFull, totalSize+int64(len(data)), s.maxTotalSize)
	}

	n, err := s.currentSegment.Write(data)
	if err != nil {
		return fmt.Errorf("failed to write to spool segment: %w", err)
	}
	s.currentSize += int64(n)

	if s.currentSize >= s.maxSegmentSize {
		if err := s.rotate(); err != nil {
			s.logger.Error("failed to rotate spool segment", "error", err)
		}
	}

	return nil
}

// Replay reads all segments in write order and calls handler for each event.
// Lines that cannot be decoded are skipped with a warning.
func (s *Repository) Replay(ctx context.Context, handler func(event domain.Event) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentSegment != nil {
		s.currentSegment.Close()
		s.currentSegment = nil
	}

	segments, err := s.getSortedSegments()
	if err != nil {
		return err
	}
	if len(segments) == 0 {
		s.logger.Info("spool is empty, nothing to replay")
		return nil
	}
	s.logger.Info("starting spool replay", "segment_count", len(segments))

	for _, path := range segments {
		if err := s.replaySegment(ctx, path, handler); err != nil {
			return err
		}
	}

	s.logger.Info("spool replay completed")
	return nil
}

func (s *Repository) replaySegment(ctx context.Context, path string, handler func(event domain.Event) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open segment %s for replay: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var event domain.Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			s.logger.Warn("failed to unmarshal spooled event, skipping", "error", err, "segment", path)
			continue
		}
		if err := handler(event); err != nil {
			return fmt.Errorf("replay handler failed: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error scanning segment %s: %w", path, err)
	}
	return nil
}

// Truncate removes all segments and starts a fresh one.
func (s *Repository) Truncate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentSegment != nil {
		s.currentSegment.Close()
		s.currentSegment = nil
	}

	segments, err := s.getSortedSegments()
	if err != nil {
		return err
	}
	for _, path := range segments {
		if err := os.Remove(path); err != nil {
			s.logger.Error("failed to remove spool segment", "path", path, "error", err)
		}
	}

	s.logger.Info("spool truncated", "segments", len(segments))
	return s.openLatestSegment()
}

// Size returns the total size of all segments in bytes.
func (s *Repository) Size() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calculateTotalSize()
}

func (s *Repository) rotate() error {
	if s.currentSegment != nil {
		if err := s.currentSegment.Sync(); err != nil {
			s.logger.Error("failed to sync spool segment before rotating", "error", err)
		}
		if err := s.currentSegment.Close(); err != nil {
			s.logger.Error("failed to close spool segment before rotating", "error", err)
		}
		s.currentSegment = nil
	}

	s.seq++
	name := fmt.Sprintf("%s%020d-%06d%s", segmentPrefix, time.Now().UnixNano(), s.seq, segmentSuffix)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to create spool segment %s: %w", path, err)
	}

	s.currentSegment = f
	s.currentSize = 0
	s.logger.Debug("rotated to new spool segment", "path", path)
	return nil
}

func (s *Repository) openLatestSegment() error {
	segments, err := s.getSortedSegments()
	if err != nil {
		return err
	}
	if len(segments) == 0 {
		return s.rotate()
	}

	latest := segments[len(segments)-1]
	stat, err := os.Stat(latest)
	if err != nil {
		return fmt.Errorf("failed to stat latest segment %s: %w", latest, err)
	}

	f, err := os.OpenFile(latest, os.O_APPEND|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to open latest segment %s: %w", latest, err)
	}

	s.currentSegment = f
	s.currentSize = stat.Size()
	s.logger.Debug("opened existing spool segment", "path", latest, "size", s.currentSize)

	if s.currentSize >= s.maxSegmentSize {
		return s.rotate()
	}
	return nil
}

func (s *Repository) getSortedSegments() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read spool directory: %w", err)
	}

	var segments []string
	for _, entry := range entries {
		if isSegment(entry) {
			segments = append(segments, filepath.Join(s.dir, entry.Name()))
		}
	}
	sort.Strings(segments)
	return segments, nil
}

func (s *Repository) calculateTotalSize() (int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, entry := range entries {
		if !isSegment(entry) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}

func isSegment(entry os.DirEntry) bool {
	return !entry.IsDir() && strings.HasPrefix(entry.Name(), segmentPrefix) && strings.HasSuffix(entry.Name(), segmentSuffix)
}

// Close closes the current segment.
func (s *Repository) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentSegment != nil {
		err := s.currentSegment.Close()
		s.currentSegment = nil
		return err
	}
	return nil
}
