package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Gateway performs backend requests. Implementations must report every failure as a
// *FetchError so sections can surface a single message.
type Gateway interface {
	Request(ctx context.Context, path string, query url.Values) (Payload, error)
}

// GatewayFunc adapts a function into a Gateway.
type GatewayFunc func(ctx context.Context, path string, query url.Values) (Payload, error)

// Request calls f.
func (f GatewayFunc) Request(ctx context.Context, path string, query url.Values) (Payload, error) {
	return f(ctx, path, query)
}

// Row is a single backend record.
type Row = map[string]any

// Payload is an opaque analysis response. Missing fields are a rendering concern.
type Payload map[string]any

// DecodePayload decodes a success body. Top-level arrays are exposed under "data".
func DecodePayload(body []byte) (Payload, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Payload{}, nil
	}
	if trimmed[0] == '[' {
		var rows []any
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("insights: decode payload: %w", err)
		}
		return Payload{"data": rows}, nil
	}
	var payload Payload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, fmt.Errorf("insights: decode payload: %w", err)
	}
	return payload, nil
}

// Has reports whether key is present and not null.
func (p Payload) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// Data returns the rows under "data".
func (p Payload) Data() []Row {
	return p.Rows("data")
}

// Rows returns the list of objects stored under key.
func (p Payload) Rows(key string) []Row {
	return rowsValue(p[key])
}

// TotalRows returns total_rows when the backend reported it.
func (p Payload) TotalRows() (int, bool) {
	v, ok := p["total_rows"]
	if !ok || v == nil {
		return 0, false
	}
	return intValue(v)
}

// Strings returns a facet list such as "years" or "cities".
func (p Payload) Strings(key string) []string {
	return stringSliceValue(p[key])
}

// Number returns a numeric field or zero.
func (p Payload) Number(key string) float64 {
	return float64Value(p[key])
}

func rowsValue(v any) []Row {
	switch val := v.(type) {
	case []Row:
		return val
	case []any:
		out := make([]Row, 0, len(val))
		for _, item := range val {
			if row, ok := item.(map[string]any); ok {
				out = append(out, row)
			}
		}
		return out
	default:
		return nil
	}
}
