package commands

import (
	"sync"
	"time"
)

// testClock is a manually advanced Clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(start time.Time) *testClock {
	return &testClock{now: start}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingSinkFactory records every progress stream created during a run.
type recordingSinkFactory struct {
	mu    sync.Mutex
	sinks []*recordingSink
}

func (f *recordingSinkFactory) NewSink(name string, total int) ProgressSink {
	f.mu.Lock()
	defer f.mu.Unlock()
	sink := &recordingSink{name: name, total: total}
	f.sinks = append(f.sinks, sink)
	return sink
}

func (f *recordingSinkFactory) sink(name string) *recordingSink {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sink := range f.sinks {
		if sink.name == name {
			return sink
		}
	}
	return nil
}

func (f *recordingSinkFactory) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for _, sink := range f.sinks {
		names = append(names, sink.name)
	}
	return names
}

type recordingSink struct {
	name  string
	total int

	mu          sync.Mutex
	successes   int
	keyedErrors []KeyedError
	closed      bool
	closedOK    bool
}

func (s *recordingSink) IncrementSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successes++
}

func (s *recordingSink) KeyedError(key, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keyedErrors = append(s.keyedErrors, KeyedError{Key: key, Message: message})
}

func (s *recordingSink) Close(successful bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.closedOK = successful
}

func (s *recordingSink) successCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.successes
}

func (s *recordingSink) errors() []KeyedError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]KeyedError(nil), s.keyedErrors...)
}
