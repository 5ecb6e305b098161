package sinks

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"voxelnav/logging"
)

// JSON writes newline-delimited event records through a buffer. The buffer
// flushes after maxBatch records or on the wall-clock interval, whichever
// comes first.
type JSON struct {
	mu       sync.Mutex
	writer   *bufio.Writer
	encoder  *json.Encoder
	maxBatch int
	pending  int

	stop     chan struct{}
	stopOnce sync.Once
}

func NewJSON(w io.Writer, maxBatch int, flushInterval time.Duration) *JSON {
	if w == nil {
		w = io.Discard
	}
	if maxBatch <= 0 {
		maxBatch = 1
	}
	buf := bufio.NewWriter(w)
	s := &JSON{
		writer:   buf,
		encoder:  json.NewEncoder(buf),
		maxBatch: maxBatch,
		stop:     make(chan struct{}),
	}
	if flushInterval > 0 {
		go s.flushLoop(flushInterval)
	}
	return s
}

func (s *JSON) Write(event logging.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.encoder.Encode(record(event)); err != nil {
		return err
	}
	s.pending++
	if s.pending >= s.maxBatch {
		s.pending = 0
		return s.writer.Flush()
	}
	return nil
}

// Close stops the flush loop and drains the buffer.
func (s *JSON) Close(context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = 0
	return s.writer.Flush()
}

func (s *JSON) flushLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.writer.Flush()
			s.pending = 0
			s.mu.Unlock()
		}
	}
}

func record(event logging.Event) map[string]any {
	return map[string]any{
		"type":     event.Type,
		"tick":     event.Tick,
		"time":     event.Time.Format(time.RFC3339Nano),
		"severity": event.Severity,
		"category": event.Category,
		"actor":    event.Actor,
		"targets":  event.Targets,
		"payload":  event.Payload,
		"extra":    event.Extra,
		"traceId":  event.TraceID,
	}
}
