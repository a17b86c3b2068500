package input

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// DefaultMaxLineSize bounds a single line, terminator included.
	DefaultMaxLineSize = 1 << 20

	chunkSize = 4096
)

var ErrLineTooLong = errors.New("line buffer size limit reached")

// LineReader splits a stream into lines. The slice returned by Next is reused
// by the following call.
type LineReader struct {
	r       *bufio.Reader
	buf     []byte
	maxSize int
	line    int
}

// NewLineReader creates a LineReader that refuses lines longer than maxSize bytes.
// A maxSize <= 0 selects DefaultMaxLineSize.
func NewLineReader(r io.Reader, maxSize int) *LineReader {
	if maxSize <= 0 {
		maxSize = DefaultMaxLineSize
	}
	size := chunkSize
	if size > maxSize {
		size = maxSize
	}
	return &LineReader{
		r:       bufio.NewReaderSize(r, size),
		buf:     make([]byte, 0, size),
		maxSize: maxSize,
	}
}

// Line returns the 1-based number of the line last returned by Next.
func (lr *LineReader) Line() int { return lr.line }

// Next returns the next line including its terminator. The last line of the
// stream may lack one. It returns io.EOF when the stream is exhausted.
func (lr *LineReader) Next() ([]byte, error) {
	lr.buf = lr.buf[:0]
	for {
		chunk, err := lr.r.ReadSlice('\n')
		if len(lr.buf)+len(chunk) > lr.maxSize {
			return nil, fmt.Errorf("line %d: %w (%d)", lr.line+1, ErrLineTooLong, lr.maxSize)
		}
		lr.buf = append(lr.buf, chunk...)

		switch {
		case err == nil:
			lr.line++
			return lr.buf, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(lr.buf) == 0 {
				return nil, io.EOF
			}
			lr.line++
			return lr.buf, nil
		default:
			return nil, fmt.Errorf("failed to read line %d: %w", lr.line+1, err)
		}
	}
}

// ExpandPaths resolves glob patterns (including **) to regular files, keeping
// the order of the patterns. A pattern without glob syntax is returned as is so
// that opening it reports a missing file.
func ExpandPaths(patterns []string) ([]string, error) {
	var out []string
	seen := make(map[string]struct{})
	for _, pattern := range patterns {
		matches := []string{pattern}
		if hasMeta(pattern) {
			var err error
			matches, err = doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
			if err != nil {
				return nil, fmt.Errorf("failed to expand pattern %q: %w", pattern, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no files matched pattern %q", pattern)
			}
			sort.Strings(matches)
		}
		for _, m := range matches {
			m = filepath.Clean(m)
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out, nil
}

func hasMeta(pattern string) bool {
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
