package insights

import (
	"context"
	"net/url"
	"sync"
)

type gatewayCall struct {
	Path  string
	Query url.Values
}

// fakeGateway serves fixtures by path and records every request.
type fakeGateway struct {
	mu       sync.Mutex
	fixtures map[string]Payload
	failures map[string]error
	calls    []gatewayCall
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		fixtures: make(map[string]Payload),
		failures: make(map[string]error),
	}
}

func (g *fakeGateway) set(path string, payload Payload) *fakeGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fixtures[path] = payload
	delete(g.failures, path)
	return g
}

func (g *fakeGateway) fail(path string, err error) *fakeGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[path] = err
	return g
}

func (g *fakeGateway) Request(_ context.Context, path string, query url.Values) (Payload, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, gatewayCall{Path: path, Query: cloneValues(query)})
	if err, ok := g.failures[path]; ok {
		return nil, err
	}
	payload, ok := g.fixtures[path]
	if !ok {
		return Payload{}, nil
	}
	out := make(Payload, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	return out, nil
}

func (g *fakeGateway) callsTo(path string) []gatewayCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []gatewayCall
	for _, c := range g.calls {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func pageOf(total int, rows ...Row) Payload {
	data := make([]any, 0, len(rows))
	for _, r := range rows {
		data = append(data, r)
	}
	return Payload{"data": data, "total_rows": total}
}
