package insights

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterStoreCollectionSwitchDropsUnsupportedFields(t *testing.T) {
	store := NewFilterStore(CollectionContracts)
	require.NoError(t, store.ApplyFilter(FieldYear, "2024"))
	require.NoError(t, store.ApplyFilter(FieldCity, "Natal"))
	assert.Equal(t, "city=Natal&year=2024", store.Query().Encode())

	require.NoError(t, store.SetCollection(CollectionClients))
	snap := store.Snapshot()
	assert.Equal(t, CollectionClients, snap.Collection)
	assert.Equal(t, "2024", snap.Year)
	assert.Empty(t, snap.City)
	assert.Equal(t, "year=2024", store.Query().Encode())
}

func TestFilterStoreUnsupportedFieldNeverReachesSummaryQuery(t *testing.T) {
	store := NewFilterStore(CollectionClients)
	require.NoError(t, store.ApplyFilter(FieldCity, "Natal"))
	assert.Equal(t, "Natal", store.Snapshot().City)
	assert.Empty(t, store.Query().Encode())
}

func TestFilterStoreRejectsInvalidValues(t *testing.T) {
	store := NewFilterStore(CollectionClients)
	require.NoError(t, store.ApplyFilter(FieldYear, "2023"))

	err := store.ApplyFilter(FieldYear, "20x4")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidFilter))
	assert.Equal(t, "2023", store.Snapshot().Year)

	err = store.ApplyFilter(FieldMonth, "13")
	assert.True(t, errors.Is(err, ErrInvalidFilter))
	err = store.ApplyFilter(FieldStartDate, "01/02/2024")
	assert.True(t, errors.Is(err, ErrInvalidFilter))
	err = store.ApplyFilter(FilterField("bogus"), "x")
	assert.True(t, errors.Is(err, ErrInvalidFilter))

	assert.True(t, errors.Is(store.SetCollection("Vendas"), ErrUnknownCollection))
}

func TestFilterStoreNormalizesMonth(t *testing.T) {
	store := NewFilterStore(CollectionClients)
	require.NoError(t, store.ApplyFilter(FieldMonth, " 3 "))
	assert.Equal(t, "03", store.Snapshot().Month)
	assert.Equal(t, "(Todos/03)", store.Snapshot().Suffix())
}

func TestFilterStoreNotifiesListeners(t *testing.T) {
	store := NewFilterStore(CollectionClients)
	var changes []FilterChange
	cancel := store.Subscribe(func(c FilterChange) { changes = append(changes, c) })

	require.NoError(t, store.ApplyFilter(FieldYear, "2024"))
	require.NoError(t, store.ApplyFilter(FieldSearchTerm, "fibra"))
	require.NoError(t, store.SetCollection(CollectionClients))

	require.Len(t, changes, 3)
	assert.True(t, changes[0].Refetch)
	assert.Equal(t, "2024", changes[0].Current.Year)
	assert.Empty(t, changes[0].Previous.Year)
	assert.False(t, changes[1].Refetch, "search term does not touch the summary")
	assert.True(t, changes[2].Refetch, "reselecting the same collection still refetches")

	cancel()
	store.Reset()
	assert.Len(t, changes, 3)
	assert.Empty(t, store.Snapshot().Year)
}

func TestAnalysisQueryKeepsEmptySearchTerm(t *testing.T) {
	f := FilterContext{Collection: CollectionClients, City: "Natal"}
	q := AnalysisQuery(f, []FilterField{FieldSearchTerm, FieldCity, FieldYear})
	assert.Equal(t, "city=Natal&search_term=", q.Encode())
}

func TestInheritedFilters(t *testing.T) {
	f := FilterContext{Collection: CollectionContracts, Year: "2024", Month: "05", City: "Natal", SearchTerm: "x"}
	assert.Equal(t, InheritedFilters{Year: "2024", Month: "05", City: "Natal"}, f.Inherited())
}

func TestParseCollection(t *testing.T) {
	c, err := ParseCollection("Contas_a_Receber")
	require.NoError(t, err)
	assert.Equal(t, CollectionReceivables, c)
	assert.Equal(t, "/api/finance_summary/Contas_a_Receber", c.SummaryPath())
	assert.Equal(t, "/api/data/OS", CollectionServiceOrders.DataPath())

	_, err = ParseCollection("Vendas")
	assert.True(t, errors.Is(err, ErrUnknownCollection))
}
