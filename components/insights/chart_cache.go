package insights

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// RenderCache memoizes the markup of one canvas for as long as its fingerprint holds.
type RenderCache interface {
	Markup(canvasID, fingerprint string, render func() (string, error)) (string, error)
}

// ChartCache keeps at most one rendered markup per canvas. A new fingerprint for a
// canvas replaces the previous entry, mirroring the one-instance-per-canvas rule of
// the registry.
type ChartCache struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	canvas map[string]canvasMarkup
}

type canvasMarkup struct {
	fingerprint string
	html        string
	renderedAt  time.Time
}

// NewChartCache builds a cache whose entries live for ttl. ttl <= 0 disables it.
func NewChartCache(ttl time.Duration) *ChartCache {
	return &ChartCache{ttl: ttl, now: time.Now, canvas: make(map[string]canvasMarkup)}
}

// Markup returns the cached markup of canvasID when the fingerprint matches and the
// entry is fresh, and renders otherwise. Render errors are not cached.
func (c *ChartCache) Markup(canvasID, fingerprint string, render func() (string, error)) (string, error) {
	if c == nil || c.ttl <= 0 {
		return render()
	}
	c.mu.Lock()
	entry, ok := c.canvas[canvasID]
	fresh := ok && entry.fingerprint == fingerprint && c.now().Sub(entry.renderedAt) < c.ttl
	c.mu.Unlock()
	if fresh {
		return entry.html, nil
	}
	html, err := render()
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.canvas[canvasID] = canvasMarkup{fingerprint: fingerprint, html: html, renderedAt: c.now()}
	c.mu.Unlock()
	return html, nil
}

// Forget drops the entry of a canvas.
func (c *ChartCache) Forget(canvasID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.canvas, canvasID)
	c.mu.Unlock()
}

// Len reports how many canvases hold markup.
func (c *ChartCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.canvas)
}

// Purge drops stale entries and returns how many were removed.
func (c *ChartCache) Purge() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for id, entry := range c.canvas {
		if now.Sub(entry.renderedAt) >= c.ttl {
			delete(c.canvas, id)
			removed++
		}
	}
	return removed
}

// instanceHash fingerprints everything that affects a chart's markup.
func instanceHash(inst ChartInstance) string {
	b, err := json.Marshal(struct {
		Title   string       `json:"title"`
		Variant ChartVariant `json:"variant"`
		Stacked bool         `json:"stacked"`
		Data    ChartData    `json:"data"`
		Labels  [][]string   `json:"labels"`
	}{inst.Title, inst.Variant, inst.Stacked, inst.Data, inst.ValueLabels})
	if err != nil {
		return "invalid"
	}
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}
