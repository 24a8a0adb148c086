package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// GridColumns is the width of the widget grid.
const GridColumns = 12

// LayoutStore persists widget placements per scope (a collection or an analysis).
// The latest save fully replaces the stored record.
type LayoutStore interface {
	SaveLayout(ctx context.Context, scope string, placements []WidgetPlacement) error
	LoadLayout(ctx context.Context, scope string) ([]WidgetPlacement, bool, error)
}

// LayoutKey is the logical record key of a scope.
func LayoutKey(scope string) string {
	return "layout_" + strings.TrimSpace(scope)
}

// EncodeLayout serializes placements as a JSON list of {id, x, y, w, h}.
func EncodeLayout(placements []WidgetPlacement) ([]byte, error) {
	if placements == nil {
		placements = []WidgetPlacement{}
	}
	data, err := json.Marshal(placements)
	if err != nil {
		return nil, fmt.Errorf("insights: encode layout: %w", err)
	}
	return data, nil
}

// DecodeLayout parses a stored layout record exactly as it was saved.
func DecodeLayout(data []byte) ([]WidgetPlacement, error) {
	var placements []WidgetPlacement
	if err := json.Unmarshal(data, &placements); err != nil {
		return nil, fmt.Errorf("insights: decode layout: %w", err)
	}
	return placements, nil
}

// ClampPlacements keeps every widget inside the grid. Used by tooling that edits
// manifests; persisted layouts are validated instead.
func ClampPlacements(placements []WidgetPlacement) []WidgetPlacement {
	out := make([]WidgetPlacement, len(placements))
	for i, p := range placements {
		if p.W <= 0 || p.W > GridColumns {
			p.W = GridColumns
		}
		if p.H <= 0 {
			p.H = 1
		}
		if p.X < 0 {
			p.X = 0
		}
		if p.X+p.W > GridColumns {
			p.X = GridColumns - p.W
		}
		if p.Y < 0 {
			p.Y = 0
		}
		out[i] = p
	}
	return out
}

// InMemoryLayoutStore is the default concurrency-safe store.
type InMemoryLayoutStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewInMemoryLayoutStore creates an empty store.
func NewInMemoryLayoutStore() *InMemoryLayoutStore {
	return &InMemoryLayoutStore{data: make(map[string][]byte)}
}

// SaveLayout implements LayoutStore.
func (s *InMemoryLayoutStore) SaveLayout(_ context.Context, scope string, placements []WidgetPlacement) error {
	if strings.TrimSpace(scope) == "" {
		return fmt.Errorf("insights: layout scope is required")
	}
	data, err := EncodeLayout(placements)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[LayoutKey(scope)] = data
	s.mu.Unlock()
	return nil
}

// LoadLayout implements LayoutStore.
func (s *InMemoryLayoutStore) LoadLayout(_ context.Context, scope string) ([]WidgetPlacement, bool, error) {
	s.mu.RLock()
	data, ok := s.data[LayoutKey(scope)]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	placements, err := DecodeLayout(data)
	if err != nil {
		return nil, false, err
	}
	return placements, true, nil
}
