package queries

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/goliatone/go-insights/components/insights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHub() *insights.Hub {
	gw := insights.GatewayFunc(func(_ context.Context, path string, _ url.Values) (insights.Payload, error) {
		if path == "/api/details/seller_clients" {
			return insights.Payload{
				"data":       []any{map[string]any{"Cliente": "Ana", "Contrato_ID": "10"}},
				"total_rows": 1,
			}, nil
		}
		return insights.Payload{"by_city": []any{map[string]any{"Cidade": "Natal", "Count": 4.0}}}, nil
	})
	return insights.NewHub(insights.HubOptions{Controller: insights.Options{Gateway: gw}})
}

func TestSnapshotQuery(t *testing.T) {
	hub := newHub()
	session := hub.Create()
	_, err := session.SelectCollection(context.Background(), insights.CollectionClients)
	require.NoError(t, err)

	view, err := NewSnapshotQuery(hub).Query(context.Background(), SessionInput{Session: session.ID()})
	require.NoError(t, err)
	assert.Equal(t, session.ID(), view.Session)
	assert.Equal(t, insights.ModeCollection, view.Mode)
	require.Len(t, view.Charts, 1)
	assert.Equal(t, "mainChart1", view.Charts[0].CanvasID)
}

func TestUnknownSession(t *testing.T) {
	hub := newHub()
	_, err := NewSnapshotQuery(hub).Query(context.Background(), SessionInput{Session: "missing"})
	assert.ErrorIs(t, err, ErrUnknownSession)
	_, err = NewLayoutQuery(hub).Query(context.Background(), SessionInput{Session: "missing"})
	assert.ErrorIs(t, err, ErrUnknownSession)
	_, err = NewModalQuery(nil).Query(context.Background(), ModalInput{})
	assert.Error(t, err)
}

func TestModalQuery(t *testing.T) {
	hub := newHub()
	session := hub.Create()
	query := NewModalQuery(hub)

	view, err := query.Query(context.Background(), ModalInput{Session: session.ID(), Modal: "seller"})
	require.NoError(t, err)
	assert.Equal(t, insights.ModalClosed, view.State)

	_, err = session.OpenDrillDown(context.Background(), insights.Trigger{
		Modal:   insights.ModalSeller,
		Context: insights.DrillDownContext{Entity: insights.EntitySeller, ID: "3", Name: "Rui", Type: "ativado"},
	})
	require.NoError(t, err)

	view, err = query.Query(context.Background(), ModalInput{Session: session.ID(), Modal: "seller"})
	require.NoError(t, err)
	assert.Equal(t, insights.ModalLoaded, view.State)
	require.NotNil(t, view.Section)
	assert.Len(t, view.Section.Rows, 1)

	_, err = query.Query(context.Background(), ModalInput{Session: session.ID(), Modal: "popup"})
	if !errors.Is(err, insights.ErrUnknownModal) {
		t.Fatalf("expected unknown modal, got %v", err)
	}
}

func TestLayoutQueryFallsBackToGrid(t *testing.T) {
	hub := newHub()
	session := hub.Create()
	ctx := context.Background()
	_, err := session.SelectCollection(ctx, insights.CollectionClients)
	require.NoError(t, err)

	query := NewLayoutQuery(hub)
	result, err := query.Query(ctx, SessionInput{Session: session.ID()})
	require.NoError(t, err)
	assert.False(t, result.Saved)
	require.Len(t, result.Placements, 1)
	assert.Equal(t, "mainChart1", result.Placements[0].ID)

	_, err = session.SaveLayout(ctx, []insights.WidgetPlacement{{ID: "mainChart1", X: 6, Y: 0, W: 6, H: 4}})
	require.NoError(t, err)
	result, err = query.Query(ctx, SessionInput{Session: session.ID()})
	require.NoError(t, err)
	assert.True(t, result.Saved)
	assert.Equal(t, 6, result.Placements[0].X)
}

func TestExportQuery(t *testing.T) {
	hub := newHub()
	session := hub.Create()
	ctx := context.Background()
	query := NewExportQuery(hub)

	_, err := query.Query(ctx, ExportInput{Session: session.ID(), Scope: "seller"})
	assert.ErrorIs(t, err, insights.ErrModalNotOpen)

	_, err = session.OpenDrillDown(ctx, insights.Trigger{
		Modal:   insights.ModalSeller,
		Context: insights.DrillDownContext{Entity: insights.EntitySeller, ID: "3", Name: "Rui", Type: "ativado"},
	})
	require.NoError(t, err)

	table, err := query.Query(ctx, ExportInput{Session: session.ID(), Scope: "seller"})
	require.NoError(t, err)
	assert.Equal(t, "seller", table.Name)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Ana", table.Rows[0][0])
}
