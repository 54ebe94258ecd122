package subscription

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/roach88/schemaforge/internal/event"
)

// ErrExhausted is returned by a Source that has no more events.
var ErrExhausted = errors.New("subscription: source exhausted")

// Source is a change feed. Next blocks until an event is available, the
// feed ends (ErrExhausted) or ctx is cancelled.
type Source interface {
	Next(ctx context.Context) (*event.ChangeEvent, error)
}

// SliceSource replays a fixed list of events.
type SliceSource struct {
	mu     sync.Mutex
	events []*event.ChangeEvent
}

// NewSliceSource returns a source yielding events in order.
func NewSliceSource(events ...*event.ChangeEvent) *SliceSource {
	return &SliceSource{events: events}
}

// Next implements Source.
func (s *SliceSource) Next(ctx context.Context) (*event.ChangeEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return nil, ErrExhausted
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, nil
}

// LineSource reads one JSON-encoded event per line. Blank lines are skipped.
type LineSource struct {
	scanner *bufio.Scanner
	line    int
}

// NewLineSource reads events from r.
func NewLineSource(r io.Reader) *LineSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &LineSource{scanner: sc}
}

// Next implements Source.
func (s *LineSource) Next(ctx context.Context) (*event.ChangeEvent, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, fmt.Errorf("read change feed: %w", err)
			}
			return nil, ErrExhausted
		}
		s.line++
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		ev, err := event.JSON.Decode(line)
		if err != nil {
			return nil, fmt.Errorf("change feed line %d: %w", s.line, err)
		}
		return ev, nil
	}
}
