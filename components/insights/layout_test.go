package insights

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLayoutStoreRoundTrip(t *testing.T) {
	store := NewInMemoryLayoutStore()
	ctx := context.Background()

	_, ok, err := store.LoadLayout(ctx, "Clientes")
	require.NoError(t, err)
	assert.False(t, ok)

	first := []WidgetPlacement{{ID: "mainChart1", X: 0, Y: 0, W: 6, H: 5}}
	require.NoError(t, store.SaveLayout(ctx, "Clientes", first))
	second := []WidgetPlacement{{ID: "mainChart2", X: 6, Y: 0, W: 6, H: 5}}
	require.NoError(t, store.SaveLayout(ctx, "Clientes", second))

	got, ok, err := store.LoadLayout(ctx, "Clientes")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, second, got, "the latest save replaces the record")

	assert.Error(t, store.SaveLayout(ctx, " ", first))
}

func TestLayoutRoundTripIsExact(t *testing.T) {
	edge := []WidgetPlacement{
		{ID: "mainChart1", X: 8, Y: 0, W: 4, H: 5},
		{ID: "mainChart2", X: 0, Y: 30, W: 12, H: 24},
	}
	data, err := EncodeLayout(edge)
	require.NoError(t, err)
	decoded, err := DecodeLayout(data)
	require.NoError(t, err)
	assert.Equal(t, edge, decoded)

	c := NewController(Options{Gateway: newFakeGateway()})
	ctx := context.Background()
	_, err = c.SaveLayout(ctx, edge)
	require.NoError(t, err)
	loaded, ok, err := c.LoadLayout(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, edge, loaded)

	_, err = c.SaveLayout(ctx, []WidgetPlacement{{ID: "mainChart1", X: 10, Y: 0, W: 4, H: 5}})
	assert.ErrorIs(t, err, ErrInvalidLayout)
	loaded, _, _ = c.LoadLayout(ctx)
	assert.Equal(t, edge, loaded, "a rejected save leaves the record untouched")
}

func TestEncodeLayoutFormat(t *testing.T) {
	data, err := EncodeLayout([]WidgetPlacement{{ID: "mainChart1", X: 1, Y: 2, W: 3, H: 4}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"mainChart1","x":1,"y":2,"w":3,"h":4}]`, string(data))

	data, err = EncodeLayout(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
	assert.Equal(t, "layout_Contas a Receber", LayoutKey("Contas a Receber"))
}

func TestClampPlacements(t *testing.T) {
	got := ClampPlacements([]WidgetPlacement{
		{ID: "a", X: 10, Y: -1, W: 6, H: 0},
		{ID: "b", X: -3, Y: 2, W: 20, H: 3},
	})
	assert.Equal(t, WidgetPlacement{ID: "a", X: 6, Y: 0, W: 6, H: 1}, got[0])
	assert.Equal(t, WidgetPlacement{ID: "b", X: 0, Y: 2, W: 12, H: 3}, got[1])
}

func TestSchemaLayoutValidator(t *testing.T) {
	v := NewSchemaLayoutValidator()
	require.NoError(t, v.ValidateLayout([]WidgetPlacement{{ID: "mainChart1", X: 0, Y: 0, W: 6, H: 5}}))
	require.NoError(t, v.ValidateLayout(nil))

	err := v.ValidateLayout([]WidgetPlacement{{ID: "mainChart1", X: 0, Y: 0, W: 13, H: 5}})
	assert.True(t, errors.Is(err, ErrInvalidLayout))

	err = v.ValidateLayout([]WidgetPlacement{{ID: "mainChart1", X: 10, Y: 0, W: 4, H: 5}})
	assert.True(t, errors.Is(err, ErrInvalidLayout))

	err = v.ValidateLayout([]WidgetPlacement{{ID: "", X: 0, Y: 0, W: 6, H: 5}})
	assert.True(t, errors.Is(err, ErrInvalidLayout))

	err = v.ValidateLayout([]WidgetPlacement{
		{ID: "mainChart1", X: 0, Y: 0, W: 6, H: 5},
		{ID: "mainChart1", X: 6, Y: 0, W: 6, H: 5},
	})
	assert.True(t, errors.Is(err, ErrInvalidLayout))
}

func TestDefaultManifest(t *testing.T) {
	doc, err := DefaultManifest()
	require.NoError(t, err)
	assert.Equal(t, ManifestVersion, doc.Version)

	defaults := DefaultPlacements()
	assert.Equal(t, WidgetPlacement{ID: "mainChart2", X: 6, Y: 0, W: 6, H: 5}, defaults["mainChart2"])
	for _, spec := range Analyses() {
		for _, chart := range spec.Charts() {
			_, ok := defaults[chart.CanvasID]
			assert.True(t, ok, "missing default placement for %s", chart.CanvasID)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, WritePlacementManifest(&buf, doc))
	again, err := DecodePlacementManifest(&buf)
	require.NoError(t, err)
	assert.Equal(t, doc.Placements, again.Placements)
}

func TestDecodePlacementManifestRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"duplicate": "version: \"1\"\nplacements:\n  - {id: a, x: 0, y: 0, w: 1, h: 1}\n  - {id: a, x: 1, y: 0, w: 1, h: 1}\n",
		"version":   "version: \"2\"\nplacements: []\n",
		"unknown":   "version: \"1\"\nwidgets: []\n",
		"size":      "version: \"1\"\nplacements:\n  - {id: a, x: 0, y: 0, w: 0, h: 1}\n",
		"empty":     "",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodePlacementManifest(strings.NewReader(raw))
			assert.Error(t, err)
		})
	}
}
