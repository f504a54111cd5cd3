package extraction

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/agenthands/modelhub/internal/core/model"
	"github.com/agenthands/modelhub/internal/notify"
)

type reply struct {
	out string
	err error
}

// MockLLMClient answers by prompt. The last reply repeats once a
// sequence is used up.
type MockLLMClient struct {
	mu      sync.Mutex
	replies map[string][]reply
	calls   map[string]int
	inputs  []string
}

func newMockLLM() *MockLLMClient {
	return &MockLLMClient{replies: map[string][]reply{}, calls: map[string]int{}}
}

func (m *MockLLMClient) on(prompt string, rs ...reply) *MockLLMClient {
	m.replies[prompt] = rs
	return m
}

func (m *MockLLMClient) Generate(_ context.Context, instructions, input string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.calls[instructions]
	m.calls[instructions] = n + 1
	m.inputs = append(m.inputs, input)

	rs := m.replies[instructions]
	if len(rs) == 0 {
		return "{}", nil
	}
	r := rs[min(n, len(rs)-1)]
	return r.out, r.err
}

func (m *MockLLMClient) callCount(prompt string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[prompt]
}

type MockTemplates struct {
	mu        sync.Mutex
	templates []model.Template
	err       error
	reloadErr error
	calls     int
}

func (m *MockTemplates) FindActiveTemplates(context.Context, string) ([]model.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls > 1 && m.reloadErr != nil {
		return nil, m.reloadErr
	}
	return m.templates, m.err
}

type MockLogSink struct {
	mu      sync.Mutex
	entries []*model.ExtractionLog
	err     error
}

func (m *MockLogSink) AppendLog(_ context.Context, entry *model.ExtractionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return m.err
}

type MockAlerter struct {
	mu     sync.Mutex
	alerts []notify.Alert
}

func (m *MockAlerter) SendAlert(_ context.Context, a notify.Alert) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, a)
}

// waitRecorder hands out timers that fire immediately and remembers the
// requested waits.
type waitRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (w *waitRecorder) newTimer() backoff.Timer {
	return &fakeTimer{c: make(chan time.Time, 1), rec: w}
}

func (w *waitRecorder) recorded() []time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]time.Duration(nil), w.waits...)
}

type fakeTimer struct {
	c   chan time.Time
	rec *waitRecorder
}

func (t *fakeTimer) Start(d time.Duration) {
	t.rec.mu.Lock()
	t.rec.waits = append(t.rec.waits, d)
	t.rec.mu.Unlock()
	t.c <- time.Now()
}

func (t *fakeTimer) Stop() {}

func (t *fakeTimer) C() <-chan time.Time { return t.c }
