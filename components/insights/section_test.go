package insights

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowsFetcher(total int, calls *[]PageRequest) FetchPageFunc[Row] {
	return func(_ context.Context, req PageRequest) (PageResult[Row], error) {
		*calls = append(*calls, req)
		var rows []Row
		for i := req.Offset; i < total && i < req.Offset+req.Limit; i++ {
			rows = append(rows, Row{"n": i})
		}
		return PageResult[Row]{Rows: rows, TotalRows: total, HasTotal: true}, nil
	}
}

func TestPageCursorRange(t *testing.T) {
	c := NewPageCursor(10)
	assert.Equal(t, 1, c.Page)
	assert.Equal(t, 0, c.TotalPages())
	assert.True(t, c.Accepts(7), "unknown totals accept any positive page")
	assert.False(t, c.Accepts(0))

	c.TotalRows = 21
	c.Known = true
	assert.Equal(t, 3, c.TotalPages())
	assert.True(t, c.Accepts(3))
	assert.False(t, c.Accepts(4))

	c.Page = 3
	assert.Equal(t, 20, c.Offset())
	assert.Equal(t, 1, NewPageCursor(0).RowsPerPage)
}

func TestSectionPaginates(t *testing.T) {
	var calls []PageRequest
	s := NewSection("clients", 10, rowsFetcher(25, &calls))

	outcome, err := s.GoToPage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, LoadApplied, outcome)

	outcome, err = s.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LoadApplied, outcome)
	outcome, err = s.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LoadApplied, outcome)

	state := s.State()
	assert.Equal(t, 3, state.Cursor.Page)
	assert.Equal(t, 3, state.Cursor.TotalPages())
	assert.Len(t, state.Rows, 5)
	assert.Equal(t, PageRequest{Page: 3, Limit: 10, Offset: 20}, calls[2])
}

func TestSectionRejectsOutOfRange(t *testing.T) {
	var calls []PageRequest
	s := NewSection("clients", 10, rowsFetcher(25, &calls))
	_, err := s.GoToPage(context.Background(), 1)
	require.NoError(t, err)

	outcome, err := s.GoToPage(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, LoadRejected, outcome)
	outcome, err = s.Prev(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LoadRejected, outcome)

	assert.Len(t, calls, 1)
	assert.Equal(t, 1, s.State().Cursor.Page)
}

func TestSectionDropsSupersededResponse(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	s := NewSection[Row]("clients", 10, func(_ context.Context, req PageRequest) (PageResult[Row], error) {
		if req.Page == 1 {
			once.Do(func() { close(started) })
			<-release
			return PageResult[Row]{Rows: []Row{{"page": 1}}, TotalRows: 30, HasTotal: true}, nil
		}
		return PageResult[Row]{Rows: []Row{{"page": req.Page}}, TotalRows: 30, HasTotal: true}, nil
	})

	done := make(chan LoadOutcome, 1)
	go func() {
		outcome, _ := s.GoToPage(context.Background(), 1)
		done <- outcome
	}()
	<-started

	outcome, err := s.GoToPage(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, LoadApplied, outcome)

	close(release)
	assert.Equal(t, LoadSuperseded, <-done)

	state := s.State()
	assert.Equal(t, 2, state.Cursor.Page)
	require.Len(t, state.Rows, 1)
	assert.Equal(t, 2, state.Rows[0]["page"])
}

func TestSectionResetInvalidatesInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	s := NewSection[Row]("modal", 25, func(_ context.Context, _ PageRequest) (PageResult[Row], error) {
		close(started)
		<-release
		return PageResult[Row]{Rows: []Row{{"stale": true}}, TotalRows: 1, HasTotal: true}, nil
	})

	done := make(chan LoadOutcome, 1)
	go func() {
		outcome, _ := s.GoToPage(context.Background(), 1)
		done <- outcome
	}()
	<-started
	s.Reset()
	close(release)

	assert.Equal(t, LoadSuperseded, <-done)
	state := s.State()
	assert.Equal(t, StatusIdle, state.Status)
	assert.Empty(t, state.Rows)
	assert.False(t, state.Cursor.Known)
}

func TestSectionFailureIsInline(t *testing.T) {
	fail := true
	s := NewSection[Row]("clients", 10, func(_ context.Context, _ PageRequest) (PageResult[Row], error) {
		if fail {
			return PageResult[Row]{}, StatusError(500, []byte(`{"error":"banco indisponível"}`))
		}
		return PageResult[Row]{Rows: []Row{{"ok": true}}, TotalRows: 1, HasTotal: true}, nil
	})

	outcome, err := s.GoToPage(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, isFetchFailure(err))
	assert.Equal(t, LoadFailed, outcome)
	state := s.State()
	assert.Equal(t, StatusFailed, state.Status)
	assert.Equal(t, "banco indisponível", state.Error)

	fail = false
	outcome, err = s.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LoadApplied, outcome)
	assert.True(t, s.Loaded())
}

func TestSectionWithoutTotalUsesRowCount(t *testing.T) {
	s := NewSection[Row]("clients", 10, func(_ context.Context, req PageRequest) (PageResult[Row], error) {
		return PageResult[Row]{Rows: []Row{{"a": 1}, {"a": 2}}}, nil
	})
	_, err := s.GoToPage(context.Background(), 1)
	require.NoError(t, err)
	state := s.State()
	assert.Equal(t, 2, state.Cursor.TotalRows)
	assert.Equal(t, 1, state.Cursor.TotalPages())
}

func TestSectionWithoutFetcher(t *testing.T) {
	s := NewSection[Row]("empty", 10, nil)
	_, err := s.GoToPage(context.Background(), 1)
	require.Error(t, err)
	assert.False(t, isFetchFailure(err))
	assert.True(t, errors.Is(err, errNoFetcher))
}

func TestPageRequestApply(t *testing.T) {
	q := PageRequest{Page: 2, Limit: 25, Offset: 25}.Apply(url.Values{"year": {"2024"}})
	assert.Equal(t, "limit=25&offset=25&year=2024", q.Encode())
	assert.Equal(t, "", PageRequest{Page: 1}.Apply(nil).Encode())
}
