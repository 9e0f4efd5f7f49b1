package apierr

import (
	"context"
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const defaultMaxInFlight = 64

// ErrSinkBusy is returned by StreamSink.Write when too many writes are in flight.
var ErrSinkBusy = errors.New("diagnostic sink busy")

// Sink receives formatted diagnostic lines.
type Sink interface {
	Write(text string) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(text string) error

func (f SinkFunc) Write(text string) error { return f(text) }

// Discard drops every line.
var Discard Sink = SinkFunc(func(string) error { return nil })

// ZapSink writes lines as warn entries. A nil Logger means zap.L() at write time.
type ZapSink struct {
	Logger *zap.Logger
}

func (s ZapSink) Write(text string) error {
	l := s.Logger
	if l == nil {
		l = zap.L()
	}
	l.Warn("api problem", zap.String("diagnostic", text))
	return nil
}

// StreamSink writes lines to w in the background. Write returns as soon as the
// write is dispatched; completion is never awaited by the caller.
type StreamSink struct {
	w   io.Writer
	mu  sync.Mutex // one line at a time on w
	sem *semaphore.Weighted

	pendingMu sync.Mutex
	pending   int
	idle      chan struct{} // closed when pending drops to 0
}

// NewStreamSink bounds in-flight writes to maxInFlight (64 if <= 0).
// Lines beyond the bound are dropped.
func NewStreamSink(w io.Writer, maxInFlight int64) *StreamSink {
	if maxInFlight <= 0 {
		maxInFlight = defaultMaxInFlight
	}
	return &StreamSink{
		w:   w,
		sem: semaphore.NewWeighted(maxInFlight),
	}
}

func (s *StreamSink) Write(text string) error {
	if !s.sem.TryAcquire(1) {
		return ErrSinkBusy
	}
	s.begin()
	go func() {
		defer s.end()
		defer s.sem.Release(1)
		defer func() { _ = recover() }()

		s.mu.Lock()
		defer s.mu.Unlock()
		_, _ = io.WriteString(s.w, text+"\n")
	}()
	return nil
}

// Flush blocks until all dispatched writes are done or ctx ends.
// Writes keep being accepted while it waits.
func (s *StreamSink) Flush(ctx context.Context) error {
	s.pendingMu.Lock()
	if s.pending == 0 {
		s.pendingMu.Unlock()
		return nil
	}
	idle := s.idle
	s.pendingMu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *StreamSink) begin() {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	if s.pending == 0 {
		s.idle = make(chan struct{})
	}
	s.pending++
}

func (s *StreamSink) end() {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	s.pending--
	if s.pending == 0 {
		close(s.idle)
	}
}
