package testutils

import (
	"strings"
	"sync"
	"time"

	"github.com/evdnx/gridtrader/audit"
)

// MockSink implements audit.Sink in-memory.
type MockSink struct {
	mu      sync.Mutex
	lines   []string
	records []audit.Record

	// RecordErr, when set, is returned by every Record.
	RecordErr error
	// OnRecord runs before a record is stored.
	OnRecord func(audit.Record)
}

func NewMockSink() *MockSink { return &MockSink{} }

func (s *MockSink) Log(_ time.Time, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, msg)
	return nil
}

func (s *MockSink) Record(r audit.Record) error {
	if s.OnRecord != nil {
		s.OnRecord(r)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RecordErr != nil {
		return s.RecordErr
	}
	s.records = append(s.records, r)
	return nil
}

func (s *MockSink) Close() error { return nil }

// Lines returns a copy of all text log lines.
func (s *MockSink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

// Records returns a copy of all activity records.
func (s *MockSink) Records() []audit.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Record(nil), s.records...)
}

// CountLines returns how many log lines start with prefix.
func (s *MockSink) CountLines(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.lines {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}
