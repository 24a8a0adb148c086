package insights

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// FilterField names a single field of the filter context.
type FilterField string

const (
	FieldCollection     FilterField = "collection"
	FieldYear           FilterField = "year"
	FieldMonth          FilterField = "month"
	FieldCity           FilterField = "city"
	FieldSearchTerm     FilterField = "search_term"
	FieldContractStatus FilterField = "status_contrato"
	FieldAccessStatus   FilterField = "status_acesso"
	FieldRelevance      FilterField = "relevance"
	FieldStartDate      FilterField = "start_date"
	FieldEndDate        FilterField = "end_date"
)

var filterFields = []FilterField{
	FieldYear,
	FieldMonth,
	FieldCity,
	FieldSearchTerm,
	FieldContractStatus,
	FieldAccessStatus,
	FieldRelevance,
	FieldStartDate,
	FieldEndDate,
}

// ParseFilterField validates a field name coming from a request.
func ParseFilterField(name string) (FilterField, error) {
	field := FilterField(strings.TrimSpace(name))
	for _, known := range filterFields {
		if known == field {
			return field, nil
		}
	}
	return "", fmt.Errorf("%w: unknown field %q", ErrInvalidFilter, name)
}

// FilterContext is the single source of truth for every fetch.
type FilterContext struct {
	Collection     Collection `json:"collection" validate:"required"`
	Year           string     `json:"year,omitempty" validate:"omitempty,len=4,numeric"`
	Month          string     `json:"month,omitempty" validate:"omitempty,oneof=01 02 03 04 05 06 07 08 09 10 11 12"`
	City           string     `json:"city,omitempty" validate:"max=120"`
	SearchTerm     string     `json:"search_term,omitempty" validate:"max=200"`
	ContractStatus string     `json:"status_contrato,omitempty" validate:"max=200"`
	AccessStatus   string     `json:"status_acesso,omitempty" validate:"max=200"`
	Relevance      string     `json:"relevance,omitempty" validate:"max=60"`
	StartDate      string     `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate        string     `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Value returns the current value of field.
func (f FilterContext) Value(field FilterField) string {
	switch field {
	case FieldCollection:
		return string(f.Collection)
	case FieldYear:
		return f.Year
	case FieldMonth:
		return f.Month
	case FieldCity:
		return f.City
	case FieldSearchTerm:
		return f.SearchTerm
	case FieldContractStatus:
		return f.ContractStatus
	case FieldAccessStatus:
		return f.AccessStatus
	case FieldRelevance:
		return f.Relevance
	case FieldStartDate:
		return f.StartDate
	case FieldEndDate:
		return f.EndDate
	default:
		return ""
	}
}

func (f *FilterContext) set(field FilterField, value string) {
	switch field {
	case FieldYear:
		f.Year = value
	case FieldMonth:
		f.Month = value
	case FieldCity:
		f.City = value
	case FieldSearchTerm:
		f.SearchTerm = value
	case FieldContractStatus:
		f.ContractStatus = value
	case FieldAccessStatus:
		f.AccessStatus = value
	case FieldRelevance:
		f.Relevance = value
	case FieldStartDate:
		f.StartDate = value
	case FieldEndDate:
		f.EndDate = value
	}
}

// Inherited captures the values a drill-down carries forward.
func (f FilterContext) Inherited() InheritedFilters {
	return InheritedFilters{
		Year:      f.Year,
		Month:     f.Month,
		City:      f.City,
		StartDate: f.StartDate,
		EndDate:   f.EndDate,
		Relevance: f.Relevance,
	}
}

// Suffix renders the "(2024/03)" fragment appended to chart titles.
func (f FilterContext) Suffix() string {
	year := f.Year
	if year == "" {
		year = "Todos"
	}
	if f.Month != "" {
		return fmt.Sprintf("(%s/%s)", year, f.Month)
	}
	return fmt.Sprintf("(%s)", year)
}

// FilterChange is delivered to listeners after every mutation.
type FilterChange struct {
	Field    FilterField
	Previous FilterContext
	Current  FilterContext
	// Refetch is true when the change affects the active collection's data.
	Refetch bool
}

// FilterListener reacts to filter changes.
type FilterListener func(FilterChange)

// FilterStore holds the active FilterContext behind narrow mutation methods.
type FilterStore struct {
	mu        sync.RWMutex
	current   FilterContext
	validate  *validator.Validate
	listeners map[int]FilterListener
	next      int
}

// NewFilterStore creates a store positioned on the given collection.
func NewFilterStore(collection Collection) *FilterStore {
	if !collection.Valid() {
		collection = CollectionClients
	}
	return &FilterStore{
		current:   FilterContext{Collection: collection},
		validate:  validator.New(),
		listeners: make(map[int]FilterListener),
	}
}

// Snapshot returns a copy of the current context.
func (s *FilterStore) Snapshot() FilterContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetCollection activates a collection and resets every field it does not support.
// Listeners always receive a refetch signal, even when the collection is unchanged.
func (s *FilterStore) SetCollection(collection Collection) error {
	if !collection.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
	s.mu.Lock()
	prev := s.current
	next := FilterContext{Collection: collection}
	for _, field := range filterFields {
		if collection.Supports(field) {
			next.set(field, prev.Value(field))
		}
	}
	s.current = next
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	s.notify(listeners, FilterChange{
		Field:    FieldCollection,
		Previous: prev,
		Current:  next,
		Refetch:  true,
	})
	return nil
}

// ApplyFilter mutates one field. Invalid values leave the state unchanged.
func (s *FilterStore) ApplyFilter(field FilterField, value string) error {
	if _, err := ParseFilterField(string(field)); err != nil {
		return err
	}
	value = normalizeFilterValue(field, value)

	s.mu.Lock()
	prev := s.current
	next := prev
	next.set(field, value)
	if err := s.validate.Struct(next); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s=%q: %v", ErrInvalidFilter, field, value, err)
	}
	s.current = next
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	s.notify(listeners, FilterChange{
		Field:    field,
		Previous: prev,
		Current:  next,
		Refetch:  next.Collection.Supports(field),
	})
	return nil
}

// Reset clears every filter while keeping the active collection.
func (s *FilterStore) Reset() {
	s.mu.Lock()
	prev := s.current
	s.current = FilterContext{Collection: prev.Collection}
	next := s.current
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	s.notify(listeners, FilterChange{Field: FieldCollection, Previous: prev, Current: next, Refetch: true})
}

// Subscribe registers a listener and returns its cancel func.
func (s *FilterStore) Subscribe(listener FilterListener) func() {
	if listener == nil {
		return func() {}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.listeners[id] = listener
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Query derives the summary query for the active collection. Fields the collection
// does not support never reach the fetch layer.
func (s *FilterStore) Query() url.Values {
	return SummaryQuery(s.Snapshot())
}

// SummaryQuery derives the summary query for a context.
func SummaryQuery(f FilterContext) url.Values {
	query := url.Values{}
	for _, field := range []FilterField{FieldYear, FieldMonth, FieldCity} {
		if v := f.Value(field); v != "" && f.Collection.Supports(field) {
			query.Set(string(field), v)
		}
	}
	return query
}

// AnalysisQuery derives the query for a custom analysis from the requested fields.
func AnalysisQuery(f FilterContext, fields []FilterField) url.Values {
	query := url.Values{}
	for _, field := range fields {
		if field == FieldSearchTerm {
			// the backend expects search_term even when empty
			query.Set(string(field), f.SearchTerm)
			continue
		}
		if v := f.Value(field); v != "" {
			query.Set(string(field), v)
		}
	}
	return query
}

func (s *FilterStore) snapshotListeners() []FilterListener {
	out := make([]FilterListener, 0, len(s.listeners))
	for _, l := range s.listeners {
		out = append(out, l)
	}
	return out
}

func (s *FilterStore) notify(listeners []FilterListener, change FilterChange) {
	for _, l := range listeners {
		l(change)
	}
}

func normalizeFilterValue(field FilterField, value string) string {
	value = strings.TrimSpace(value)
	if field == FieldMonth && value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 && n < 100 {
			return fmt.Sprintf("%02d", n)
		}
	}
	return value
}
