package insights

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
)

// SectionStatus is the lifecycle of a section's content.
type SectionStatus string

const (
	StatusIdle    SectionStatus = "idle"
	StatusLoading SectionStatus = "loading"
	StatusLoaded  SectionStatus = "loaded"
	StatusFailed  SectionStatus = "failed"
)

var errNoFetcher = errors.New("insights: section has no fetcher")

// isFetchFailure reports whether a load error came from the fetch itself. Those are
// shown inline in the section rather than returned to callers.
func isFetchFailure(err error) bool {
	return err != nil && !errors.Is(err, errNoFetcher)
}

// LoadOutcome reports what a page load did to the section.
type LoadOutcome int

const (
	// LoadRejected means the requested page was out of range; nothing changed.
	LoadRejected LoadOutcome = iota
	// LoadApplied means the response was stored.
	LoadApplied
	// LoadSuperseded means a newer request was issued before this one settled.
	LoadSuperseded
	// LoadFailed means the fetch failed and the section shows its error.
	LoadFailed
)

func (o LoadOutcome) String() string {
	switch o {
	case LoadRejected:
		return "rejected"
	case LoadApplied:
		return "applied"
	case LoadSuperseded:
		return "superseded"
	case LoadFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PageRequest is handed to a section's fetcher.
type PageRequest struct {
	Page   int
	Limit  int
	Offset int
}

// Apply adds limit/offset to query when the section is paginated.
func (r PageRequest) Apply(query url.Values) url.Values {
	if query == nil {
		query = url.Values{}
	}
	if r.Limit > 0 {
		query.Set("limit", strconv.Itoa(r.Limit))
		query.Set("offset", strconv.Itoa(r.Offset))
	}
	return query
}

// PageResult is a fetched page. HasTotal is false when the backend omitted total_rows.
type PageResult[R any] struct {
	Rows      []R
	TotalRows int
	HasTotal  bool
}

// FetchPageFunc loads one page of rows.
type FetchPageFunc[R any] func(ctx context.Context, req PageRequest) (PageResult[R], error)

// SectionState is a point-in-time copy of a section.
type SectionState[R any] struct {
	ID        string
	Cursor    PageCursor
	Paginated bool
	Rows      []R
	Status    SectionStatus
	Error     string
	Seq       uint64
}

// Section owns one page cursor and the rows of its current page. Only the response to
// the most recently issued request may update it.
type Section[R any] struct {
	id        string
	paginated bool

	mu     sync.Mutex
	fetch  FetchPageFunc[R]
	cursor PageCursor
	rows   []R
	status SectionStatus
	errMsg string
	issued uint64
}

// NewSection builds a section. rowsPerPage <= 0 makes it unpaginated.
func NewSection[R any](id string, rowsPerPage int, fetch FetchPageFunc[R]) *Section[R] {
	return &Section[R]{
		id:        id,
		paginated: rowsPerPage > 0,
		fetch:     fetch,
		cursor:    NewPageCursor(rowsPerPage),
		status:    StatusIdle,
	}
}

// ID returns the section identifier.
func (s *Section[R]) ID() string {
	return s.id
}

// SetFetcher swaps the fetch function, typically when a modal opens with a new context.
func (s *Section[R]) SetFetcher(fetch FetchPageFunc[R]) {
	s.mu.Lock()
	s.fetch = fetch
	s.mu.Unlock()
}

// GoToPage loads page n unless it is outside [1, TotalPages].
func (s *Section[R]) GoToPage(ctx context.Context, n int) (LoadOutcome, error) {
	return s.load(ctx, n, true)
}

// Next loads the following page.
func (s *Section[R]) Next(ctx context.Context) (LoadOutcome, error) {
	return s.GoToPage(ctx, s.currentPage()+1)
}

// Prev loads the previous page.
func (s *Section[R]) Prev(ctx context.Context) (LoadOutcome, error) {
	return s.GoToPage(ctx, s.currentPage()-1)
}

// Reload fetches the current page again without the range check so a failed page can
// be retried.
func (s *Section[R]) Reload(ctx context.Context) (LoadOutcome, error) {
	return s.load(ctx, s.currentPage(), false)
}

// Reset returns to page 1, drops content and the known total, and invalidates any
// request still in flight.
func (s *Section[R]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	s.cursor = NewPageCursor(s.cursor.RowsPerPage)
	s.rows = nil
	s.status = StatusIdle
	s.errMsg = ""
}

// Loaded reports whether the section holds a successful response.
func (s *Section[R]) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == StatusLoaded
}

// State returns a copy of the section.
func (s *Section[R]) State() SectionState[R] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SectionState[R]{
		ID:        s.id,
		Cursor:    s.cursor,
		Paginated: s.paginated,
		Rows:      append([]R(nil), s.rows...),
		Status:    s.status,
		Error:     s.errMsg,
		Seq:       s.issued,
	}
}

func (s *Section[R]) currentPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor.Page
}

func (s *Section[R]) load(ctx context.Context, page int, checkRange bool) (LoadOutcome, error) {
	s.mu.Lock()
	if s.fetch == nil {
		s.mu.Unlock()
		return LoadRejected, fmt.Errorf("%w: %s", errNoFetcher, s.id)
	}
	if checkRange && !s.cursor.Accepts(page) {
		s.mu.Unlock()
		return LoadRejected, nil
	}
	if page < 1 {
		page = 1
	}
	s.issued++
	seq := s.issued
	s.cursor.Page = page
	s.status = StatusLoading
	s.errMsg = ""
	req := PageRequest{Page: page}
	if s.paginated {
		req.Limit = s.cursor.RowsPerPage
		req.Offset = s.cursor.offsetFor(page)
	}
	fetch := s.fetch
	s.mu.Unlock()

	result, err := fetch(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.issued {
		return LoadSuperseded, nil
	}
	if err != nil {
		s.status = StatusFailed
		s.errMsg = ErrorMessage(err)
		s.rows = nil
		return LoadFailed, err
	}
	s.rows = result.Rows
	if result.HasTotal {
		s.cursor.TotalRows = result.TotalRows
	} else {
		s.cursor.TotalRows = req.Offset + len(result.Rows)
	}
	s.cursor.Known = true
	s.status = StatusLoaded
	return LoadApplied, nil
}
