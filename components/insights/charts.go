package insights

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ChartInstance is one live chart bound to a canvas.
type ChartInstance struct {
	ID          string
	CanvasID    string
	Variant     ChartVariant
	Title       string
	Data        ChartData
	Formatter   FormatterKind
	Stacked     bool
	ValueLabels [][]string
	HTML        string
}

// ChartRenderer produces the markup of a chart instance.
type ChartRenderer interface {
	RenderChart(inst ChartInstance) (string, error)
}

// ChartRegistry holds at most one live instance per canvas. Binding a canvas destroys
// its previous instance first.
type ChartRegistry struct {
	mu        sync.Mutex
	instances map[string]*ChartInstance
	onDestroy func(*ChartInstance)
	destroyed int
}

// NewChartRegistry builds an empty registry. onDestroy may be nil.
func NewChartRegistry(onDestroy func(*ChartInstance)) *ChartRegistry {
	return &ChartRegistry{
		instances: make(map[string]*ChartInstance),
		onDestroy: onDestroy,
	}
}

// Bind registers inst for its canvas and reports whether a previous instance was destroyed.
func (r *ChartRegistry) Bind(inst *ChartInstance) bool {
	if inst == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	replaced := r.destroyLocked(inst.CanvasID)
	r.instances[inst.CanvasID] = inst
	return replaced
}

// Destroy releases the instance bound to canvasID.
func (r *ChartRegistry) Destroy(canvasID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.destroyLocked(canvasID)
}

// DestroyAll releases every instance and returns how many were live.
func (r *ChartRegistry) DestroyAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for id := range r.instances {
		if r.destroyLocked(id) {
			count++
		}
	}
	return count
}

// Get returns the live instance of a canvas.
func (r *ChartRegistry) Get(canvasID string) (*ChartInstance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instances[canvasID]
	return inst, ok
}

// Len returns the number of live instances.
func (r *ChartRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}

// Destroyed returns how many instances were released over the registry's lifetime.
func (r *ChartRegistry) Destroyed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.destroyed
}

func (r *ChartRegistry) destroyLocked(canvasID string) bool {
	inst, ok := r.instances[canvasID]
	if !ok {
		return false
	}
	delete(r.instances, canvasID)
	r.destroyed++
	if r.onDestroy != nil {
		r.onDestroy(inst)
	}
	return true
}

// WidgetGrid tracks widget placements on the dashboard grid.
type WidgetGrid struct {
	mu         sync.RWMutex
	placements map[string]WidgetPlacement
	order      []string
}

// NewWidgetGrid builds an empty grid.
func NewWidgetGrid() *WidgetGrid {
	return &WidgetGrid{placements: make(map[string]WidgetPlacement)}
}

// Clear removes every widget.
func (g *WidgetGrid) Clear() {
	g.mu.Lock()
	g.placements = make(map[string]WidgetPlacement)
	g.order = nil
	g.mu.Unlock()
}

// Add places a widget, replacing an existing placement with the same ID.
func (g *WidgetGrid) Add(p WidgetPlacement) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.placements[p.ID]; !ok {
		g.order = append(g.order, p.ID)
	}
	g.placements[p.ID] = p
}

// Move repositions known widgets and ignores unknown IDs.
func (g *WidgetGrid) Move(placements []WidgetPlacement) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	moved := 0
	for _, p := range placements {
		if _, ok := g.placements[p.ID]; ok {
			g.placements[p.ID] = p
			moved++
		}
	}
	return moved
}

// Placement returns a widget's position.
func (g *WidgetGrid) Placement(id string) (WidgetPlacement, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.placements[id]
	return p, ok
}

// Placements returns widgets in insertion order.
func (g *WidgetGrid) Placements() []WidgetPlacement {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]WidgetPlacement, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.placements[id])
	}
	return out
}

// VariantOption is one radio of a widget's control group.
type VariantOption struct {
	Value   ChartVariant `json:"value"`
	Label   string       `json:"label"`
	Checked bool         `json:"checked"`
}

// ChartView is the render-ready state of a chart widget.
type ChartView struct {
	CanvasID    string          `json:"canvas_id"`
	InstanceID  string          `json:"instance_id"`
	Title       string          `json:"title"`
	Variant     ChartVariant    `json:"variant"`
	Variants    []VariantOption `json:"variants"`
	Formatter   FormatterKind   `json:"formatter"`
	Stacked     bool            `json:"stacked"`
	Labels      []string        `json:"labels"`
	Datasets    []Dataset       `json:"datasets"`
	ValueLabels [][]string      `json:"value_labels"`
	HTML        string          `json:"html,omitempty"`
	Placement   WidgetPlacement `json:"placement"`
	Clickable   bool            `json:"clickable"`
}

// ChartOrchestrator renders the chart widgets of the active collection or analysis.
type ChartOrchestrator struct {
	mu         sync.Mutex
	registry   *ChartRegistry
	grid       *WidgetGrid
	renderer   ChartRenderer
	defaults   map[string]WidgetPlacement
	telemetry  Telemetry
	specs      map[string]ChartSpec
	order      []string
	data       map[string]ChartData
	selections map[string]ChartVariant
	filters    FilterContext
}

// OrchestratorOptions configures a ChartOrchestrator.
type OrchestratorOptions struct {
	Renderer  ChartRenderer
	Defaults  map[string]WidgetPlacement
	Telemetry Telemetry
}

// NewChartOrchestrator builds an orchestrator with its own registry and grid.
func NewChartOrchestrator(opts OrchestratorOptions) *ChartOrchestrator {
	telemetry := normalizeTelemetry(opts.Telemetry)
	o := &ChartOrchestrator{
		grid:       NewWidgetGrid(),
		renderer:   opts.Renderer,
		defaults:   opts.Defaults,
		telemetry:  telemetry,
		specs:      make(map[string]ChartSpec),
		data:       make(map[string]ChartData),
		selections: make(map[string]ChartVariant),
	}
	o.registry = NewChartRegistry(func(inst *ChartInstance) {
		telemetry.Record(context.Background(), "insights.chart.destroyed", map[string]any{
			"canvas_id":   inst.CanvasID,
			"instance_id": inst.ID,
		})
	})
	if o.defaults == nil {
		o.defaults = DefaultPlacements()
	}
	return o
}

// Registry exposes the live chart instances.
func (o *ChartOrchestrator) Registry() *ChartRegistry {
	return o.registry
}

// Grid exposes widget placements.
func (o *ChartOrchestrator) Grid() *WidgetGrid {
	return o.grid
}

// RenderCollectionCharts destroys every live chart, clears the grid and renders the
// widgets declared for the collection. Widgets whose data is empty are skipped.
func (o *ChartOrchestrator) RenderCollectionCharts(collection Collection, payload Payload, filters FilterContext) ([]ChartView, error) {
	if !collection.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
	return o.RenderCharts(CollectionWidgets(collection), payload, filters)
}

// RenderCharts replaces the current widget set with specs.
func (o *ChartOrchestrator) RenderCharts(specs []ChartSpec, payload Payload, filters FilterContext) ([]ChartView, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.registry.DestroyAll()
	o.grid.Clear()
	o.specs = make(map[string]ChartSpec)
	o.data = make(map[string]ChartData)
	o.selections = make(map[string]ChartVariant)
	o.order = nil
	o.filters = filters

	row := 0
	for _, spec := range specs {
		data, ok := spec.Build(payload, filters)
		if !ok {
			continue
		}
		o.specs[spec.CanvasID] = spec
		o.data[spec.CanvasID] = data
		o.order = append(o.order, spec.CanvasID)
		placement, ok := o.defaults[spec.CanvasID]
		if !ok {
			placement = WidgetPlacement{ID: spec.CanvasID, X: 0, Y: row, W: 12, H: 6}
		}
		row = max(row, placement.Y+placement.H)
		o.grid.Add(placement)
		if _, err := o.bindLocked(spec, data, spec.DefaultVariant()); err != nil {
			return nil, err
		}
	}
	return o.viewsLocked(), nil
}

// ApplyLayout moves rendered widgets to saved placements.
func (o *ChartOrchestrator) ApplyLayout(placements []WidgetPlacement) int {
	return o.grid.Move(placements)
}

// SelectedVariant reads the widget's control group, falling back to its default.
func (o *ChartOrchestrator) SelectedVariant(canvasID string) (ChartVariant, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	spec, ok := o.specs[canvasID]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownWidget, canvasID)
	}
	return o.selectedLocked(spec), nil
}

// RerenderWidget switches one widget's variant. Only that widget's instance is replaced
// and the grid is untouched. Variants the widget does not offer fall back to its default.
func (o *ChartOrchestrator) RerenderWidget(canvasID string, variant ChartVariant) (ChartView, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	spec, ok := o.specs[canvasID]
	if !ok {
		return ChartView{}, fmt.Errorf("%w: %q", ErrUnknownWidget, canvasID)
	}
	if spec.Supports(variant) {
		o.selections[canvasID] = variant
	} else {
		delete(o.selections, canvasID)
	}
	inst, err := o.bindLocked(spec, o.data[canvasID], o.selectedLocked(spec))
	if err != nil {
		return ChartView{}, err
	}
	return o.viewLocked(spec, inst), nil
}

// ToggleSeries hides or shows a dataset and recomputes the widget's labels.
func (o *ChartOrchestrator) ToggleSeries(canvasID, series string, visible bool) (ChartView, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	spec, ok := o.specs[canvasID]
	if !ok {
		return ChartView{}, fmt.Errorf("%w: %q", ErrUnknownWidget, canvasID)
	}
	data := o.data[canvasID].clone()
	found := false
	for i := range data.Datasets {
		if data.Datasets[i].Label == series {
			data.Datasets[i].Hidden = !visible
			found = true
		}
	}
	if !found {
		return ChartView{}, fmt.Errorf("insights: widget %s has no series %q", canvasID, series)
	}
	o.data[canvasID] = data
	inst, err := o.bindLocked(spec, data, o.selectedLocked(spec))
	if err != nil {
		return ChartView{}, err
	}
	return o.viewLocked(spec, inst), nil
}

// Click resolves a chart point into a drill-down. It returns false when the widget has
// no drill-down or the point does not exist.
func (o *ChartOrchestrator) Click(canvasID string, category, series int) (*Trigger, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	spec, ok := o.specs[canvasID]
	if !ok || spec.DrillDown == nil {
		return nil, false
	}
	data := o.data[canvasID]
	if category < 0 || category >= len(data.Labels) || series < 0 || series >= len(data.Datasets) {
		return nil, false
	}
	ds := data.Datasets[series]
	if ds.Hidden {
		return nil, false
	}
	dd := spec.DrillDown
	label := data.Labels[category]
	kind := dd.DefaultType
	if mapped, ok := dd.SeriesTypes[ds.Label]; ok {
		kind = mapped
	}
	ctx := DrillDownContext{
		Entity:  dd.Entity,
		Name:    label,
		Type:    kind,
		Filters: o.filters.Inherited(),
	}
	if dd.DateCategory {
		ctx.Name = o.filters.City
		ctx.Filters.StartDate = label
		ctx.Filters.EndDate = label
	}
	return &Trigger{Modal: dd.Modal, Context: ctx}, true
}

// Views returns the live widgets in render order.
func (o *ChartOrchestrator) Views() []ChartView {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.viewsLocked()
}

// Clear destroys every widget.
func (o *ChartOrchestrator) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.registry.DestroyAll()
	o.grid.Clear()
	o.specs = make(map[string]ChartSpec)
	o.data = make(map[string]ChartData)
	o.selections = make(map[string]ChartVariant)
	o.order = nil
}

func (o *ChartOrchestrator) selectedLocked(spec ChartSpec) ChartVariant {
	if v, ok := o.selections[spec.CanvasID]; ok && spec.Supports(v) {
		return v
	}
	return spec.DefaultVariant()
}

func (o *ChartOrchestrator) bindLocked(spec ChartSpec, data ChartData, variant ChartVariant) (*ChartInstance, error) {
	formatter := NewLabelFormatter(spec.Formatter, data.Datasets)
	var labels [][]string
	if spec.Stacked {
		labels = StackedLabels(data.Datasets, formatter)
	} else {
		labels = PointLabels(data.Datasets, formatter)
	}
	inst := &ChartInstance{
		ID:          uuid.NewString(),
		CanvasID:    spec.CanvasID,
		Variant:     variant,
		Title:       spec.RenderTitle(o.filters),
		Data:        data.clone(),
		Formatter:   spec.Formatter,
		Stacked:     spec.Stacked,
		ValueLabels: labels,
	}
	if o.renderer != nil {
		html, err := o.renderer.RenderChart(*inst)
		if err != nil {
			return nil, fmt.Errorf("insights: render %s: %w", spec.CanvasID, err)
		}
		inst.HTML = html
	}
	o.registry.Bind(inst)
	return inst, nil
}

func (o *ChartOrchestrator) viewsLocked() []ChartView {
	views := make([]ChartView, 0, len(o.order))
	for _, id := range o.order {
		inst, ok := o.registry.Get(id)
		if !ok {
			continue
		}
		views = append(views, o.viewLocked(o.specs[id], inst))
	}
	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i].Placement, views[j].Placement
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return views
}

func (o *ChartOrchestrator) viewLocked(spec ChartSpec, inst *ChartInstance) ChartView {
	placement, _ := o.grid.Placement(spec.CanvasID)
	options := make([]VariantOption, len(spec.Variants))
	for i, v := range spec.Variants {
		options[i] = VariantOption{Value: v, Label: v.Label(), Checked: v == inst.Variant}
	}
	return ChartView{
		CanvasID:    inst.CanvasID,
		InstanceID:  inst.ID,
		Title:       inst.Title,
		Variant:     inst.Variant,
		Variants:    options,
		Formatter:   inst.Formatter,
		Stacked:     inst.Stacked,
		Labels:      inst.Data.Labels,
		Datasets:    inst.Data.Datasets,
		ValueLabels: inst.ValueLabels,
		HTML:        inst.HTML,
		Placement:   placement,
		Clickable:   spec.DrillDown != nil,
	}
}
