package backend

import (
	"context"
	"net/url"
	"sync"

	"github.com/goliatone/go-insights/components/insights"
)

// Call records one request seen by MockGateway.
type Call struct {
	Path  string
	Query url.Values
}

// MockGateway serves in-memory fixtures keyed by path, for tests and local demos.
// Paths without a fixture answer with an empty payload.
type MockGateway struct {
	mu       sync.RWMutex
	fixtures map[string]insights.Payload
	failures map[string]error
	calls    []Call
}

var _ insights.Gateway = (*MockGateway)(nil)

// NewMockGateway builds a mock from the provided fixtures.
func NewMockGateway(fixtures map[string]insights.Payload) *MockGateway {
	m := &MockGateway{
		fixtures: make(map[string]insights.Payload, len(fixtures)),
		failures: make(map[string]error),
	}
	for path, payload := range fixtures {
		m.fixtures[path] = payload
	}
	return m
}

// Set replaces the fixture for path.
func (m *MockGateway) Set(path string, payload insights.Payload) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixtures[path] = payload
	delete(m.failures, path)
}

// Fail makes every request to path return err.
func (m *MockGateway) Fail(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[path] = err
}

// Request returns a shallow copy of the fixture for path.
func (m *MockGateway) Request(_ context.Context, path string, query url.Values) (insights.Payload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Path: path, Query: cloneValues(query)})
	if err, ok := m.failures[path]; ok {
		return nil, err
	}
	out := insights.Payload{}
	for k, v := range m.fixtures[path] {
		out[k] = v
	}
	return out, nil
}

// Calls returns every request seen so far.
func (m *MockGateway) Calls() []Call {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Call(nil), m.calls...)
}

func cloneValues(in url.Values) url.Values {
	out := make(url.Values, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}
