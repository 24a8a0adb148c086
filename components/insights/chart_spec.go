package insights

import (
	"sort"
	"strings"
)

var monthNames = []string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}

// Dataset is one plotted series.
type Dataset struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
	Hidden bool      `json:"hidden,omitempty"`
}

// ChartData is what a widget plots.
type ChartData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

func (d ChartData) clone() ChartData {
	out := ChartData{
		Labels:   append([]string(nil), d.Labels...),
		Datasets: make([]Dataset, len(d.Datasets)),
	}
	for i, ds := range d.Datasets {
		out.Datasets[i] = Dataset{Label: ds.Label, Values: append([]float64(nil), ds.Values...), Hidden: ds.Hidden}
	}
	return out
}

// LabelOrder controls how categories are ordered.
type LabelOrder int

const (
	// OrderPayload keeps the backend order.
	OrderPayload LabelOrder = iota
	// OrderSorted sorts labels lexically.
	OrderSorted
	// OrderNumeric sorts labels as integers.
	OrderNumeric
	// OrderMonthNames sorts month numbers and renders them as Jan..Dez.
	OrderMonthNames
)

// SeriesSpec maps a row field to a dataset.
type SeriesSpec struct {
	Label string
	Key   string
}

// DrillDownSpec maps a clicked point to a modal.
type DrillDownSpec struct {
	Modal  ModalKind
	Entity EntityKind
	// SeriesTypes maps dataset labels to the drill-down type; DefaultType covers the rest.
	SeriesTypes map[string]string
	DefaultType string
	// DateCategory treats the category as a day and scopes the drill-down to it.
	DateCategory bool
}

// ChartSpec declares one chart widget and how to extract its data from a payload.
type ChartSpec struct {
	CanvasID string
	// Title may contain {filter} and {city}.
	Title string
	// Source is the payload key holding the rows; defaults to "data".
	Source string
	// Endpoint, when set, is fetched separately and its rows stored under Source.
	Endpoint      string
	LabelKey      string
	LabelFallback string
	Order         LabelOrder
	Series        []SeriesSpec
	// PivotKey turns distinct values of that field into datasets valued by ValueKey.
	PivotKey   string
	ValueKey   string
	SortSeries bool
	// Prebuilt reads "labels" and "datasets" straight from the payload.
	Prebuilt bool
	// CityScoped keeps only rows of the selected city and skips the widget without one.
	CityScoped bool
	// CityKeyed reads Source from the payload entry named after the selected city.
	CityKeyed bool
	Variants  []ChartVariant
	Formatter FormatterKind
	Stacked   bool
	DrillDown *DrillDownSpec
}

// DefaultVariant is the documented fallback of the widget's control group.
func (s ChartSpec) DefaultVariant() ChartVariant {
	if len(s.Variants) == 0 {
		return VariantBarVertical
	}
	return s.Variants[0]
}

// Supports reports whether the widget offers the variant.
func (s ChartSpec) Supports(v ChartVariant) bool {
	for _, candidate := range s.Variants {
		if candidate == v {
			return true
		}
	}
	return false
}

// RenderTitle expands the title placeholders.
func (s ChartSpec) RenderTitle(filters FilterContext) string {
	title := strings.ReplaceAll(s.Title, "{filter}", filters.Suffix())
	title = strings.ReplaceAll(title, "{city}", filters.City)
	return strings.TrimSpace(title)
}

func (s ChartSpec) source() string {
	if s.Source == "" {
		return "data"
	}
	return s.Source
}

// Build extracts the widget data. It returns false when the payload has nothing to plot,
// in which case the widget is skipped.
func (s ChartSpec) Build(payload Payload, filters FilterContext) (ChartData, bool) {
	if s.Prebuilt {
		return s.buildPrebuilt(payload)
	}
	if s.CityKeyed {
		if filters.City == "" {
			return ChartData{}, false
		}
		nested, _ := payload[filters.City].(map[string]any)
		payload = Payload(nested)
	}
	rows := payload.Rows(s.source())
	if s.CityScoped {
		if filters.City == "" {
			return ChartData{}, false
		}
		scoped := rows[:0:0]
		for _, row := range rows {
			if stringValue(row["Cidade"], "") == filters.City {
				scoped = append(scoped, row)
			}
		}
		rows = scoped
	}
	if len(rows) == 0 {
		return ChartData{}, false
	}
	var data ChartData
	if s.PivotKey != "" {
		data = s.buildPivot(rows)
	} else {
		data = s.buildSeries(rows)
	}
	return data, len(data.Labels) > 0 && len(data.Datasets) > 0
}

func (s ChartSpec) label(row Row) string {
	fallback := s.LabelFallback
	if fallback == "" {
		fallback = NotAvailable
	}
	return stringValue(row[s.LabelKey], fallback)
}

func (s ChartSpec) buildSeries(rows []Row) ChartData {
	ordered := append([]Row(nil), rows...)
	switch s.Order {
	case OrderSorted:
		sort.SliceStable(ordered, func(i, j int) bool { return s.label(ordered[i]) < s.label(ordered[j]) })
	case OrderNumeric, OrderMonthNames:
		sort.SliceStable(ordered, func(i, j int) bool {
			a, _ := intValue(ordered[i][s.LabelKey])
			b, _ := intValue(ordered[j][s.LabelKey])
			return a < b
		})
	}
	data := ChartData{Labels: make([]string, len(ordered))}
	for i, row := range ordered {
		data.Labels[i] = s.displayLabel(row)
	}
	for _, series := range s.Series {
		ds := Dataset{Label: series.Label, Values: make([]float64, len(ordered))}
		for i, row := range ordered {
			ds.Values[i] = float64Value(row[series.Key])
		}
		data.Datasets = append(data.Datasets, ds)
	}
	return data
}

func (s ChartSpec) displayLabel(row Row) string {
	if s.Order == OrderMonthNames {
		if m, ok := intValue(row[s.LabelKey]); ok && m >= 1 && m <= 12 {
			return monthNames[m-1]
		}
	}
	return s.label(row)
}

func (s ChartSpec) buildPivot(rows []Row) ChartData {
	var labels, series []string
	seenLabel := map[string]bool{}
	seenSeries := map[string]bool{}
	values := map[string]map[string]float64{}
	for _, row := range rows {
		label := s.label(row)
		name := stringValue(row[s.PivotKey], NotAvailable)
		if !seenLabel[label] {
			seenLabel[label] = true
			labels = append(labels, label)
		}
		if !seenSeries[name] {
			seenSeries[name] = true
			series = append(series, name)
		}
		if values[name] == nil {
			values[name] = map[string]float64{}
		}
		values[name][label] += float64Value(row[s.ValueKey])
	}
	switch s.Order {
	case OrderSorted:
		sort.Strings(labels)
	case OrderNumeric:
		sort.SliceStable(labels, func(i, j int) bool {
			a, _ := intValue(labels[i])
			b, _ := intValue(labels[j])
			return a < b
		})
	}
	if s.SortSeries {
		sort.Strings(series)
	}
	data := ChartData{Labels: labels}
	for _, name := range series {
		ds := Dataset{Label: name, Values: make([]float64, len(labels))}
		for i, label := range labels {
			ds.Values[i] = values[name][label]
		}
		data.Datasets = append(data.Datasets, ds)
	}
	return data
}

func (s ChartSpec) buildPrebuilt(payload Payload) (ChartData, bool) {
	data := ChartData{Labels: payload.Strings("labels")}
	for _, raw := range payload.Rows("datasets") {
		ds := Dataset{Label: stringValue(raw["label"], "")}
		if list, ok := raw["data"].([]any); ok {
			for _, v := range list {
				ds.Values = append(ds.Values, float64Value(v))
			}
		}
		data.Datasets = append(data.Datasets, ds)
	}
	return data, len(data.Labels) > 0 && len(data.Datasets) > 0
}
