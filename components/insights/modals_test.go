package insights

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sellerContext(id, name string) DrillDownContext {
	return DrillDownContext{
		Entity:  EntitySeller,
		ID:      id,
		Name:    name,
		Type:    "cancelado",
		Filters: InheritedFilters{Year: "2024"},
	}
}

func TestModalOpenLoadsFirstPageWithContext(t *testing.T) {
	gw := newFakeGateway().set("/api/details/seller_clients", pageOf(60,
		Row{"Cliente": "Ana", "Contrato_ID": "10", "Data_ativa_o": "2023-02-01"},
	))
	stack := NewModalStack(gw)

	view, err := stack.Open(context.Background(), ModalSeller, sellerContext("7", "Maria"))
	require.NoError(t, err)
	assert.Equal(t, ModalLoaded, view.State)
	assert.Equal(t, "Cancelados do Vendedor Maria", view.Title)
	assert.Equal(t, 50, view.ZIndex)
	require.NotNil(t, view.Section)
	assert.Equal(t, "Página 1 de 3", view.Section.Pager.Info)
	require.Len(t, view.Section.Rows, 1)
	assert.Equal(t, "01/02/2023", view.Section.Rows[0][2].Text)
	require.NotNil(t, view.Section.Rows[0][0].Trigger)
	assert.Equal(t, ModalCancellation, view.Section.Rows[0][0].Trigger.Modal)

	calls := gw.callsTo("/api/details/seller_clients")
	require.Len(t, calls, 1)
	assert.Equal(t, "limit=25&offset=0&seller_id=7&type=cancelado&year=2024", calls[0].Query.Encode())
}

func TestModalReopenResetsToFirstPage(t *testing.T) {
	gw := newFakeGateway().set("/api/details/seller_clients", pageOf(60, Row{"Cliente": "Ana"}))
	stack := NewModalStack(gw)
	ctx := context.Background()

	_, err := stack.Open(ctx, ModalSeller, sellerContext("7", "Maria"))
	require.NoError(t, err)
	outcome, view, err := stack.Page(ctx, ModalSeller, 3)
	require.NoError(t, err)
	assert.Equal(t, LoadApplied, outcome)
	assert.Equal(t, 3, view.Section.Pager.Page)

	view, err = stack.Open(ctx, ModalSeller, sellerContext("8", "João"))
	require.NoError(t, err)
	assert.Equal(t, 1, view.Section.Pager.Page)
	assert.Equal(t, "8", view.Context.ID)

	calls := gw.callsTo("/api/details/seller_clients")
	require.Len(t, calls, 3)
	assert.Equal(t, "0", calls[2].Query.Get("offset"))
	assert.Equal(t, "8", calls[2].Query.Get("seller_id"))
	assert.Equal(t, []ModalKind{ModalSeller}, stack.Stack())
}

func TestModalPageOutOfRangeIsRejected(t *testing.T) {
	gw := newFakeGateway().set("/api/details/city_clients", pageOf(10, Row{"Cliente": "Ana"}))
	stack := NewModalStack(gw)
	_, err := stack.Open(context.Background(), ModalCity, DrillDownContext{Entity: EntityCity, Name: "Natal"})
	require.NoError(t, err)

	outcome, view, err := stack.Page(context.Background(), ModalCity, 2)
	require.NoError(t, err)
	assert.Equal(t, LoadRejected, outcome)
	assert.False(t, view.Section.Pager.Visible)
	assert.Len(t, gw.callsTo("/api/details/city_clients"), 1)
}

func TestModalCloseInnerKeepsOuterOpen(t *testing.T) {
	gw := newFakeGateway().
		set("/api/details/seller_clients", pageOf(1, Row{"Cliente": "Ana", "Contrato_ID": "10"})).
		set("/api/details/cancellation_context/10/Ana", Payload{})
	stack := NewModalStack(gw)
	ctx := context.Background()

	_, err := stack.Open(ctx, ModalSeller, sellerContext("7", "Maria"))
	require.NoError(t, err)
	inner, err := stack.Open(ctx, ModalCancellation, DrillDownContext{Entity: EntityClient, ID: "10", Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, 60, inner.ZIndex)
	assert.Equal(t, cancellationEmptyNotice, inner.Notice)
	top, ok := stack.Top()
	assert.True(t, ok)
	assert.Equal(t, ModalCancellation, top)

	closed, err := stack.Close(ModalCancellation)
	require.NoError(t, err)
	assert.Equal(t, []ModalKind{ModalCancellation}, closed)
	assert.True(t, stack.IsOpen(ModalSeller))

	outer, err := stack.View(ModalSeller)
	require.NoError(t, err)
	assert.Equal(t, ModalLoaded, outer.State)
	assert.Equal(t, "Maria", outer.Context.Name)

	closedView, err := stack.View(ModalCancellation)
	require.NoError(t, err)
	assert.Equal(t, ModalClosed, closedView.State)
}

func TestModalCloseOuterClosesEverythingAbove(t *testing.T) {
	stack := NewModalStack(newFakeGateway())
	ctx := context.Background()
	_, err := stack.Open(ctx, ModalSeller, sellerContext("7", "Maria"))
	require.NoError(t, err)
	_, err = stack.Open(ctx, ModalInvoices, DrillDownContext{ID: "10", Type: "faturas_nao_pagas"})
	require.NoError(t, err)

	closed, err := stack.Close(ModalSeller)
	require.NoError(t, err)
	assert.Equal(t, []ModalKind{ModalSeller, ModalInvoices}, closed)
	assert.Empty(t, stack.Stack())
	assert.Empty(t, stack.Views())
}

func TestModalCloseNotOpen(t *testing.T) {
	stack := NewModalStack(newFakeGateway())
	_, err := stack.Close(ModalCity)
	assert.True(t, errors.Is(err, ErrModalNotOpen))

	_, _, err = stack.Page(context.Background(), ModalCity, 2)
	assert.True(t, errors.Is(err, ErrModalNotOpen))

	_, err = stack.Open(context.Background(), ModalKind("nope"), DrillDownContext{})
	assert.True(t, errors.Is(err, ErrUnknownModal))
	assert.Nil(t, stack.CloseAll())
}

func TestModalFetchFailureShownInline(t *testing.T) {
	gw := newFakeGateway().fail("/api/details/equipment_clients", StatusError(500, nil))
	stack := NewModalStack(gw)

	view, err := stack.Open(context.Background(), ModalEquipment, DrillDownContext{Entity: EntityEquipment, Name: "ONU X"})
	require.NoError(t, err)
	assert.Equal(t, ModalFailed, view.State)
	assert.Contains(t, view.Error, "500")
	assert.Equal(t, "ONU X", gw.callsTo("/api/details/equipment_clients")[0].Query.Get("equipment_name"))

	gw.set("/api/details/equipment_clients", pageOf(1, Row{"Cliente": "Ana"}))
	outcome, view, err := stack.Reload(context.Background(), ModalEquipment)
	require.NoError(t, err)
	assert.Equal(t, LoadApplied, outcome)
	assert.Equal(t, ModalLoaded, view.State)
}

func TestCancellationBlocksSkipEmptySubTables(t *testing.T) {
	payload := Payload{
		"equipamentos": []any{map[string]any{"Descricao_produto": "ONU", "Status_comodato": "Devolvido", "Data": "2024-03-01"}},
		"os":           []any{},
	}
	blocks, notice := cancellationBlocks(payload)
	assert.Empty(t, notice)
	require.Len(t, blocks, 1)
	assert.Equal(t, "Equipamentos em Comodato", blocks[0].Title)
	assert.Equal(t, "01/03/2024", blocks[0].Rows[0][2].Text)
}

func TestPaymentWithDelay(t *testing.T) {
	assert.Equal(t, "15/01/2024 (+5d)", paymentWithDelay(Row{"Vencimento": "2024-01-10", "Data_pagamento": "2024-01-15"}))
	assert.Equal(t, "08/01/2024 (-2d)", paymentWithDelay(Row{"Vencimento": "2024-01-10", "Data_pagamento": "2024-01-08"}))
	assert.Equal(t, NotAvailable, paymentWithDelay(Row{"Vencimento": "2024-01-10"}))
}

func TestModalViewsConsistentUnderConcurrentOpen(t *testing.T) {
	gw := newFakeGateway().set("/api/details/city_clients", pageOf(1, Row{"Cliente": "Ana"}))
	stack := NewModalStack(gw)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			dd := DrillDownContext{Entity: EntityCity, Name: fmt.Sprintf("Cidade %d", i), Type: "cancelado"}
			if _, err := stack.Open(ctx, ModalCity, dd); err != nil {
				t.Errorf("open returned error: %v", err)
			}
		}(i)
		go func() {
			defer wg.Done()
			for _, view := range stack.Views() {
				if !strings.Contains(view.Title, view.Context.Name) {
					t.Errorf("title %q does not match context %q", view.Title, view.Context.Name)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, []ModalKind{ModalCity}, stack.Stack())
	view, err := stack.View(ModalCity)
	require.NoError(t, err)
	assert.Contains(t, view.Title, view.Context.Name)
}
