package ic

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
)

type logLine struct {
	level string
	msg   string
}

// testLogger records every line so tests can assert on the log surface.
type testLogger struct {
	mu    sync.Mutex
	lines []logLine
}

func (l *testLogger) add(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, logLine{level: level, msg: fmt.Sprintf(format, args...)})
}

func (l *testLogger) Debugf(format string, args ...any)   { l.add("debug", format, args...) }
func (l *testLogger) Infof(format string, args ...any)    { l.add("info", format, args...) }
func (l *testLogger) Warningf(format string, args ...any) { l.add("warning", format, args...) }
func (l *testLogger) Errorf(format string, args ...any)   { l.add("error", format, args...) }

func (l *testLogger) has(level, substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if line.level == level && strings.Contains(line.msg, substr) {
			return true
		}
	}
	return false
}

func (l *testLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, line := range l.lines {
		if line.level == level {
			n++
		}
	}
	return n
}

// fakeEngine returns a fixed result per source file, or err for files
// listed in failFor. Every request is recorded.
type fakeEngine struct {
	mu       sync.Mutex
	results  map[string]*Result
	fallback *Result
	failFor  map[string]error
	requests []Request
}

func (e *fakeEngine) Generate(_ context.Context, req Request) (*Result, error) {
	e.mu.Lock()
	e.requests = append(e.requests, req)
	e.mu.Unlock()

	if err, ok := e.failFor[req.Src]; ok {
		return nil, err
	}
	if r, ok := e.results[req.Src]; ok {
		return r, nil
	}
	return e.fallback, nil
}

func (e *fakeEngine) request(src string) (Request, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range e.requests {
		if r.Src == src {
			return r, true
		}
	}
	return Request{}, false
}

func mustResolve(t *testing.T, user map[string]any) *Options {
	t.Helper()
	opts, err := Resolve(user)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	return opts
}

func newTestOrchestrator(t *testing.T, user map[string]any, engine Engine, mutate ...func(*Config)) (*Orchestrator, *testLogger) {
	t.Helper()
	logger := &testLogger{}
	cfg := Config{
		Options: mustResolve(t, user),
		Engine:  engine,
		Logger:  logger,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	o, err := NewOrchestrator(cfg)
	if err != nil {
		t.Fatalf("NewOrchestrator() error = %v", err)
	}
	return o, logger
}
