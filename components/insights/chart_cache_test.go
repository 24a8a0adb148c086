package insights

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingMarkup(calls *int, html string) func() (string, error) {
	return func() (string, error) {
		*calls++
		return html, nil
	}
}

func TestChartCacheReusesMatchingFingerprint(t *testing.T) {
	cache := NewChartCache(time.Minute)
	calls := 0
	render := countingMarkup(&calls, "<div>natal</div>")

	first, err := cache.Markup("mainChart1", "a", render)
	require.NoError(t, err)
	second, err := cache.Markup("mainChart1", "a", render)
	require.NoError(t, err)

	assert.Equal(t, "<div>natal</div>", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestChartCacheKeepsOneEntryPerCanvas(t *testing.T) {
	cache := NewChartCache(time.Minute)
	calls := 0

	_, _ = cache.Markup("mainChart1", "a", countingMarkup(&calls, "old"))
	html, err := cache.Markup("mainChart1", "b", countingMarkup(&calls, "new"))
	require.NoError(t, err)
	assert.Equal(t, "new", html)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, cache.Len())

	html, _ = cache.Markup("mainChart1", "a", countingMarkup(&calls, "old again"))
	assert.Equal(t, "old again", html, "a replaced fingerprint is not remembered")

	cache.Forget("mainChart1")
	assert.Equal(t, 0, cache.Len())
}

func TestChartCacheExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	cache := NewChartCache(time.Minute)
	cache.now = func() time.Time { return now }
	calls := 0
	render := countingMarkup(&calls, "fresh")

	_, _ = cache.Markup("mainChart2", "a", render)
	_, _ = cache.Markup("mainChart3", "a", render)
	now = now.Add(2 * time.Minute)
	_, _ = cache.Markup("mainChart2", "a", render)
	assert.Equal(t, 3, calls)

	assert.Equal(t, 1, cache.Purge())
	assert.Equal(t, 1, cache.Len())
}

func TestChartCacheDisabledAndErrors(t *testing.T) {
	cache := NewChartCache(0)
	calls := 0
	render := countingMarkup(&calls, "x")
	_, _ = cache.Markup("mainChart1", "a", render)
	_, _ = cache.Markup("mainChart1", "a", render)
	assert.Equal(t, 2, calls)

	live := NewChartCache(time.Minute)
	_, err := live.Markup("mainChart1", "a", func() (string, error) { return "", errors.New("bad option") })
	require.Error(t, err)
	assert.Equal(t, 0, live.Len())
}

func TestInstanceHashTracksData(t *testing.T) {
	a := ChartInstance{Title: "Clientes", Variant: VariantDoughnut, Data: ChartData{Labels: []string{"Natal"}, Datasets: []Dataset{{Label: "Total", Values: []float64{3}}}}}
	b := a
	b.Data = ChartData{Labels: []string{"Natal"}, Datasets: []Dataset{{Label: "Total", Values: []float64{4}}}}
	assert.Equal(t, instanceHash(a), instanceHash(a))
	assert.NotEqual(t, instanceHash(a), instanceHash(b))
}
