package insights

import (
	"fmt"
	"strings"
)

// Collection names a top-level business dataset exposed by the analytics backend.
type Collection string

const (
	CollectionClients       Collection = "Clientes"
	CollectionContracts     Collection = "Contratos"
	CollectionReceivables   Collection = "Contas a Receber"
	CollectionSupport       Collection = "Atendimentos"
	CollectionServiceOrders Collection = "OS"
	CollectionLogins        Collection = "Logins"
)

var collectionOrder = []Collection{
	CollectionClients,
	CollectionContracts,
	CollectionReceivables,
	CollectionSupport,
	CollectionServiceOrders,
	CollectionLogins,
}

var summaryEndpoints = map[Collection]string{
	CollectionClients:       "summary",
	CollectionContracts:     "summary",
	CollectionReceivables:   "finance_summary",
	CollectionSupport:       "atendimento_summary",
	CollectionServiceOrders: "os_summary",
	CollectionLogins:        "summary",
}

var cityScopedCollections = map[Collection]bool{
	CollectionContracts:     true,
	CollectionReceivables:   true,
	CollectionServiceOrders: true,
}

// Collections returns every known collection in menu order.
func Collections() []Collection {
	return append([]Collection(nil), collectionOrder...)
}

// ParseCollection accepts either the display name or the API slug.
func ParseCollection(name string) (Collection, error) {
	name = strings.TrimSpace(name)
	for _, c := range collectionOrder {
		if string(c) == name || c.Slug() == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCollection, name)
}

// Valid reports whether the collection is known.
func (c Collection) Valid() bool {
	_, ok := summaryEndpoints[c]
	return ok
}

// Slug is the collection name used in API paths.
func (c Collection) Slug() string {
	return strings.ReplaceAll(string(c), " ", "_")
}

// SummaryPath returns the analysis endpoint for the collection.
func (c Collection) SummaryPath() string {
	return "/api/" + summaryEndpoints[c] + "/" + c.Slug()
}

// DataPath returns the raw paginated rows endpoint for the collection.
func (c Collection) DataPath() string {
	return "/api/data/" + c.Slug()
}

// Supports reports whether a filter field narrows the collection's summary fetch.
func (c Collection) Supports(field FilterField) bool {
	switch field {
	case FieldYear, FieldMonth:
		return c.Valid()
	case FieldCity:
		return cityScopedCollections[c]
	default:
		return false
	}
}

// EntityKind identifies what a drill-down points at.
type EntityKind string

const (
	EntitySeller       EntityKind = "seller"
	EntityCity         EntityKind = "city"
	EntityNeighborhood EntityKind = "neighborhood"
	EntityEquipment    EntityKind = "equipment"
	EntityContract     EntityKind = "contract"
	EntityClient       EntityKind = "client"
)

// InheritedFilters carries the originating filter values into a drill-down.
type InheritedFilters struct {
	Year      string `json:"year,omitempty"`
	Month     string `json:"month,omitempty"`
	City      string `json:"city,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Relevance string `json:"relevance,omitempty"`
}

// DrillDownContext is owned by exactly one open modal and replaced wholesale on each open.
type DrillDownContext struct {
	Entity  EntityKind       `json:"entity"`
	ID      string           `json:"id,omitempty"`
	Name    string           `json:"name,omitempty"`
	Type    string           `json:"type,omitempty"`
	Filters InheritedFilters `json:"filters"`
}

// Title renders the label used in modal headers.
func (d DrillDownContext) Title() string {
	switch {
	case d.Name != "" && d.ID != "":
		return fmt.Sprintf("%s (%s)", d.Name, d.ID)
	case d.Name != "":
		return d.Name
	default:
		return d.ID
	}
}

// ChartVariant is the user-selectable chart shape of a widget.
type ChartVariant string

const (
	VariantDoughnut      ChartVariant = "doughnut"
	VariantBarVertical   ChartVariant = "bar_vertical"
	VariantBarHorizontal ChartVariant = "bar_horizontal"
	VariantLine          ChartVariant = "line"
)

// ParseChartVariant validates a variant coming from a control group.
func ParseChartVariant(value string) (ChartVariant, bool) {
	switch v := ChartVariant(strings.TrimSpace(value)); v {
	case VariantDoughnut, VariantBarVertical, VariantBarHorizontal, VariantLine:
		return v, true
	default:
		return "", false
	}
}

// Label is the radio caption shown for a variant.
func (v ChartVariant) Label() string {
	switch v {
	case VariantDoughnut:
		return "Rosca"
	case VariantBarVertical:
		return "Barra V"
	case VariantBarHorizontal:
		return "Barra H"
	case VariantLine:
		return "Linha"
	default:
		return string(v)
	}
}

// WidgetPlacement positions a widget inside the grid.
type WidgetPlacement struct {
	ID string `json:"id" yaml:"id"`
	X  int    `json:"x" yaml:"x"`
	Y  int    `json:"y" yaml:"y"`
	W  int    `json:"w" yaml:"w"`
	H  int    `json:"h" yaml:"h"`
}
