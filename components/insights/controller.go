package insights

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-insights/pkg/activity"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ContractStatusPath serves the contract and access status facets.
const ContractStatusPath = "/api/filters/contract_statuses"

var errMissingGateway = errors.New("insights: gateway not configured")

// ViewMode tells which content occupies the chart area.
type ViewMode string

const (
	ModeCollection ViewMode = "collection"
	ModeAnalysis   ViewMode = "analysis"
)

// Options configures a Controller. Every collaborator is an interface so hosts can swap
// implementations.
type Options struct {
	Gateway         Gateway
	Layouts         LayoutStore
	LayoutValidator LayoutValidator
	Renderer        ChartRenderer
	Telemetry       Telemetry
	Events          EventPublisher
	Activity        *activity.Emitter
	Defaults        map[string]WidgetPlacement
	Collection      Collection
	SessionID       string
}

// ContractStatuses are the facets offered by the status filters.
type ContractStatuses struct {
	Contract []string `json:"status_contrato"`
	Access   []string `json:"status_acesso"`
}

// TotalView is one headline number of an analysis.
type TotalView struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// AnalysisView is the render-ready state of the active custom analysis.
type AnalysisView struct {
	Name     string       `json:"name"`
	Title    string       `json:"title"`
	Kind     AnalysisKind `json:"kind"`
	FullView bool         `json:"full_view"`
	Loading  bool         `json:"loading"`
	Error    string       `json:"error,omitempty"`
	Table    *SectionView `json:"table,omitempty"`
	Totals   []TotalView  `json:"totals,omitempty"`
	// Tab and Tabs are only set for tabbed analyses.
	Tab  string            `json:"tab,omitempty"`
	Tabs []AnalysisTabView `json:"tabs,omitempty"`
}

// AnalysisTabView is one pane header of a tabbed analysis.
type AnalysisTabView struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Active bool   `json:"active"`
}

// DashboardView is the whole render-ready state of a session.
type DashboardView struct {
	Session     string            `json:"session"`
	Mode        ViewMode          `json:"mode"`
	Filters     FilterContext     `json:"filters"`
	Collections []Collection      `json:"collections"`
	Years       []string          `json:"years,omitempty"`
	Cities      []string          `json:"cities,omitempty"`
	Statuses    ContractStatuses  `json:"statuses"`
	Loading     bool              `json:"loading"`
	ChartsError string            `json:"charts_error,omitempty"`
	Charts      []ChartView       `json:"charts"`
	Layout      []WidgetPlacement `json:"layout"`
	Analysis    *AnalysisView     `json:"analysis,omitempty"`
	Modals      []ModalView       `json:"modals,omitempty"`
}

type analysisRun struct {
	spec AnalysisSpec
	// pane is the spec actually fetched; it equals spec unless spec is tabbed.
	pane     AnalysisSpec
	fullView bool
	rows     *Section[Row]
	payload  *Section[Payload]
}

// Controller owns the whole view state of one dashboard session: filters, charts,
// the active analysis, the modal stack and layout persistence.
type Controller struct {
	id      string
	opts    Options
	filters *FilterStore
	charts  *ChartOrchestrator
	modals  *ModalStack

	mu          sync.Mutex
	mode        ViewMode
	refreshSeq  uint64
	loading     bool
	chartsError string
	years       []string
	cities      []string
	statuses    ContractStatuses
	analysis    *analysisRun
	unsubscribe func()
}

// NewController builds a controller with safe defaults. Nothing is fetched until the
// first SelectCollection.
func NewController(opts Options) *Controller {
	if opts.Layouts == nil {
		opts.Layouts = NewInMemoryLayoutStore()
	}
	if opts.LayoutValidator == nil {
		opts.LayoutValidator = NewSchemaLayoutValidator()
	}
	if opts.Events == nil {
		opts.Events = noopPublisher{}
	}
	if opts.Defaults == nil {
		opts.Defaults = DefaultPlacements()
	}
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)

	c := &Controller{
		id:      opts.SessionID,
		opts:    opts,
		filters: NewFilterStore(opts.Collection),
		charts: NewChartOrchestrator(OrchestratorOptions{
			Renderer:  opts.Renderer,
			Defaults:  opts.Defaults,
			Telemetry: opts.Telemetry,
		}),
		modals: NewModalStack(opts.Gateway),
		mode:   ModeCollection,
	}
	c.unsubscribe = c.filters.Subscribe(func(change FilterChange) {
		c.publish("filters", string(change.Field))
	})
	return c
}

// ID returns the session identifier.
func (c *Controller) ID() string {
	return c.id
}

// Filters exposes the filter store.
func (c *Controller) Filters() *FilterStore {
	return c.filters
}

// Charts exposes the chart orchestrator.
func (c *Controller) Charts() *ChartOrchestrator {
	return c.charts
}

// Modals exposes the modal stack.
func (c *Controller) Modals() *ModalStack {
	return c.modals
}

// Close releases the controller's subscriptions and chart instances.
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.modals.CloseAll()
	c.charts.Clear()
}

// SelectCollection activates a collection and reloads its charts. Selecting the active
// collection again still refetches.
func (c *Controller) SelectCollection(ctx context.Context, collection Collection) (DashboardView, error) {
	if err := c.filters.SetCollection(collection); err != nil {
		return DashboardView{}, err
	}
	c.mu.Lock()
	c.mode = ModeCollection
	c.analysis = nil
	c.refreshSeq++
	c.mu.Unlock()
	c.emitActivity(ctx, "insights.collection.select", "collection", collection.Slug(), nil)
	if err := c.refresh(ctx); err != nil {
		return DashboardView{}, err
	}
	return c.Snapshot(), nil
}

// ApplyFilter mutates one filter. Changes that affect the active collection reload its
// charts; changes in analysis mode rerun the analysis.
func (c *Controller) ApplyFilter(ctx context.Context, field FilterField, value string) (DashboardView, error) {
	if err := c.filters.ApplyFilter(field, value); err != nil {
		return DashboardView{}, err
	}
	c.record(ctx, "insights.filter.apply", map[string]any{"field": string(field), "value": value})

	c.mu.Lock()
	mode := c.mode
	run := c.analysis
	c.mu.Unlock()

	switch {
	case mode == ModeAnalysis && run != nil:
		if err := c.runAnalysis(ctx, run.spec, run.pane.Tab, run.fullView); err != nil {
			return DashboardView{}, err
		}
	case c.filters.Snapshot().Collection.Supports(field):
		if err := c.refresh(ctx); err != nil {
			return DashboardView{}, err
		}
	}
	return c.Snapshot(), nil
}

// ResetFilters clears every filter and reloads the active collection.
func (c *Controller) ResetFilters(ctx context.Context) (DashboardView, error) {
	c.filters.Reset()
	return c.SelectCollection(ctx, c.filters.Snapshot().Collection)
}

// refresh fetches the active collection's summary, extra widget endpoints and the
// contract status facets concurrently, then rebuilds the charts. Only the latest
// refresh may apply its result, and only while the collection owns the chart area.
func (c *Controller) refresh(ctx context.Context) error {
	if c.opts.Gateway == nil {
		return errMissingGateway
	}
	filters := c.filters.Snapshot()
	collection := filters.Collection
	specs := CollectionWidgets(collection)

	c.mu.Lock()
	c.refreshSeq++
	seq := c.refreshSeq
	c.loading = true
	c.mu.Unlock()
	c.charts.Clear()

	var (
		summary    Payload
		summaryErr error
		statuses   ContractStatuses
		statusErr  error
		extraMu    sync.Mutex
		extras     = map[string]any{}
	)
	var g errgroup.Group
	g.Go(func() error {
		summary, summaryErr = c.opts.Gateway.Request(ctx, collection.SummaryPath(), SummaryQuery(filters))
		return nil
	})
	for source, endpoint := range WidgetEndpoints(specs) {
		source, endpoint := source, endpoint
		g.Go(func() error {
			payload, err := c.opts.Gateway.Request(ctx, endpoint, url.Values{})
			if err != nil {
				c.record(ctx, "insights.widget.fetch_failed", map[string]any{"endpoint": endpoint, "error": ErrorMessage(err)})
				return nil
			}
			extraMu.Lock()
			extras[source] = payload["data"]
			extraMu.Unlock()
			return nil
		})
	}
	g.Go(func() error {
		statuses, statusErr = c.LoadContractStatuses(ctx)
		return nil
	})
	_ = g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.refreshSeq || c.mode != ModeCollection {
		return nil
	}
	c.loading = false
	if statusErr == nil {
		c.statuses = statuses
	}
	if summaryErr != nil {
		c.chartsError = ErrorMessage(summaryErr)
		c.years, c.cities = nil, nil
		c.record(ctx, "insights.collection.fetch_failed", map[string]any{"collection": string(collection), "error": c.chartsError})
		return nil
	}
	c.chartsError = ""
	c.years = summary.Strings("years")
	c.cities = summary.Strings("cities")
	merged := make(Payload, len(summary)+len(extras))
	for k, v := range summary {
		merged[k] = v
	}
	for k, v := range extras {
		merged[k] = v
	}
	if _, err := c.charts.RenderCharts(specs, merged, filters); err != nil {
		return err
	}
	if saved, ok, err := c.opts.Layouts.LoadLayout(ctx, string(collection)); err != nil {
		c.record(ctx, "insights.layout.load_failed", map[string]any{"scope": string(collection), "error": err.Error()})
	} else if ok {
		c.charts.ApplyLayout(saved)
	}
	c.publish("collection", string(collection))
	return nil
}

// LoadContractStatuses fetches the facets used by the status filters.
func (c *Controller) LoadContractStatuses(ctx context.Context) (ContractStatuses, error) {
	if c.opts.Gateway == nil {
		return ContractStatuses{}, errMissingGateway
	}
	payload, err := c.opts.Gateway.Request(ctx, ContractStatusPath, url.Values{})
	if err != nil {
		return ContractStatuses{}, err
	}
	return ContractStatuses{
		Contract: payload.Strings(string(FieldContractStatus)),
		Access:   payload.Strings(string(FieldAccessStatus)),
	}, nil
}

// RunAnalysis applies params to the filters and runs a custom analysis. Table analyses
// load their first page; chart analyses replace the chart area. Tabbed analyses open
// their first pane.
func (c *Controller) RunAnalysis(ctx context.Context, name string, params map[FilterField]string) (DashboardView, error) {
	return c.startAnalysis(ctx, name, "", params, false)
}

// RunAnalysisTab is RunAnalysis opening a given pane of a tabbed analysis.
func (c *Controller) RunAnalysisTab(ctx context.Context, name, tab string, params map[FilterField]string) (DashboardView, error) {
	return c.startAnalysis(ctx, name, tab, params, false)
}

// FullView reruns a table analysis with every row on a single page. Tabbed analyses
// keep the pane that is showing.
func (c *Controller) FullView(ctx context.Context, name string) (DashboardView, error) {
	return c.startAnalysis(ctx, name, "", nil, true)
}

func (c *Controller) startAnalysis(ctx context.Context, name, tab string, params map[FilterField]string, fullView bool) (DashboardView, error) {
	spec, err := LookupAnalysis(name)
	if err != nil {
		return DashboardView{}, err
	}
	if fullView && tab == "" {
		tab = c.activeTab(spec.Name)
	}
	pane, err := spec.Pane(tab)
	if err != nil {
		return DashboardView{}, err
	}
	if fullView && pane.Render.Kind != AnalysisTable {
		return DashboardView{}, fmt.Errorf("insights: analysis %s has no table", pane.Name)
	}
	for _, field := range sortedParamFields(params) {
		if err := c.filters.ApplyFilter(field, params[field]); err != nil {
			return DashboardView{}, err
		}
	}
	if err := c.runAnalysis(ctx, spec, pane.Tab, fullView); err != nil {
		return DashboardView{}, err
	}
	c.emitActivity(ctx, "insights.analysis.run", "analysis", pane.Name, map[string]any{"full_view": fullView})
	return c.Snapshot(), nil
}

// SwitchAnalysisTab shows another pane of the active tabbed analysis. The pane is
// fetched again from its first page; selecting the pane already showing is a no-op.
func (c *Controller) SwitchAnalysisTab(ctx context.Context, tab string) (DashboardView, error) {
	c.mu.Lock()
	run := c.analysis
	c.mu.Unlock()
	if run == nil || !run.spec.Tabbed() {
		return DashboardView{}, fmt.Errorf("%w: no tabbed analysis is active", ErrUnknownTab)
	}
	pane, err := run.spec.Pane(tab)
	if err != nil {
		return DashboardView{}, err
	}
	if pane.Tab == run.pane.Tab {
		return c.Snapshot(), nil
	}
	if err := c.runAnalysis(ctx, run.spec, pane.Tab, false); err != nil {
		return DashboardView{}, err
	}
	c.record(ctx, "insights.analysis.tab", map[string]any{"analysis": run.spec.Name, "tab": pane.Tab})
	c.publish("analysis.tab", pane.Tab)
	return c.Snapshot(), nil
}

func (c *Controller) activeTab(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.analysis == nil || c.analysis.spec.Name != name {
		return ""
	}
	return c.analysis.pane.Tab
}

func (c *Controller) runAnalysis(ctx context.Context, spec AnalysisSpec, tab string, fullView bool) error {
	if c.opts.Gateway == nil {
		return errMissingGateway
	}
	pane, err := spec.Pane(tab)
	if err != nil {
		return err
	}
	run := &analysisRun{spec: spec, pane: pane, fullView: fullView}
	request := func() (string, url.Values) {
		return pane.Fetch.Path, pane.Fetch.Query(c.filters.Snapshot())
	}
	switch {
	case fullView:
		run.rows = NewSection[Row]("analysis_"+pane.Name, FullViewLimit, RowFetcher(c.opts.Gateway, request))
	case pane.Paginated():
		run.rows = NewSection[Row]("analysis_"+pane.Name, pane.Fetch.RowsPerPage, RowFetcher(c.opts.Gateway, request))
	default:
		run.payload = NewSection[Payload]("analysis_"+pane.Name, 0, func(ctx context.Context, _ PageRequest) (PageResult[Payload], error) {
			path, query := request()
			payload, err := c.opts.Gateway.Request(ctx, path, query)
			if err != nil {
				return PageResult[Payload]{}, err
			}
			return PageResult[Payload]{Rows: []Payload{payload}, TotalRows: 1, HasTotal: true}, nil
		})
	}

	c.mu.Lock()
	c.mode = ModeAnalysis
	c.analysis = run
	c.refreshSeq++
	c.loading = false
	c.mu.Unlock()
	c.charts.Clear()

	if run.rows != nil {
		_, err = run.rows.GoToPage(ctx, 1)
	} else {
		_, err = run.payload.GoToPage(ctx, 1)
	}
	if err != nil && !isFetchFailure(err) {
		return err
	}
	if err != nil {
		c.record(ctx, "insights.analysis.fetch_failed", map[string]any{"analysis": pane.Name, "error": ErrorMessage(err)})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.analysis != run {
		return nil
	}
	if pane.Render.Kind == AnalysisChart && run.payload.Loaded() {
		state := run.payload.State()
		if len(state.Rows) > 0 {
			if cities := state.Rows[0].Strings("cities"); len(cities) > 0 {
				c.cities = cities
			}
			if _, err := c.charts.RenderCharts(pane.Render.Charts, state.Rows[0], c.filters.Snapshot()); err != nil {
				return err
			}
			if saved, ok, err := c.opts.Layouts.LoadLayout(ctx, pane.Name); err == nil && ok {
				c.charts.ApplyLayout(saved)
			}
		}
	}
	c.publish("analysis", spec.Name)
	return nil
}

// AnalysisPage moves the active table analysis to page n.
func (c *Controller) AnalysisPage(ctx context.Context, n int) (LoadOutcome, DashboardView, error) {
	c.mu.Lock()
	run := c.analysis
	c.mu.Unlock()
	if run == nil || run.rows == nil {
		return LoadRejected, DashboardView{}, fmt.Errorf("insights: no paginated analysis is active")
	}
	outcome, err := run.rows.GoToPage(ctx, n)
	if err != nil && !isFetchFailure(err) {
		return outcome, DashboardView{}, err
	}
	if outcome == LoadApplied || outcome == LoadFailed {
		c.publish("analysis.page", run.spec.Name)
	}
	return outcome, c.Snapshot(), nil
}

// ReloadAnalysis retries the active analysis.
func (c *Controller) ReloadAnalysis(ctx context.Context) (DashboardView, error) {
	c.mu.Lock()
	run := c.analysis
	c.mu.Unlock()
	if run == nil {
		return DashboardView{}, fmt.Errorf("insights: no analysis is active")
	}
	if run.rows != nil {
		if _, err := run.rows.Reload(ctx); err != nil && !isFetchFailure(err) {
			return DashboardView{}, err
		}
		return c.Snapshot(), nil
	}
	if err := c.runAnalysis(ctx, run.spec, run.pane.Tab, run.fullView); err != nil {
		return DashboardView{}, err
	}
	return c.Snapshot(), nil
}

// OpenTable opens the raw data modal of the active collection.
func (c *Controller) OpenTable(ctx context.Context) (ModalView, error) {
	filters := c.filters.Snapshot()
	return c.OpenDrillDown(ctx, Trigger{Modal: ModalTable, Context: DrillDownContext{
		Name:    string(filters.Collection),
		Filters: filters.Inherited(),
	}})
}

// OpenDrillDown is the single entry point for every modal. Triggers that carry no
// filters inherit the current ones.
func (c *Controller) OpenDrillDown(ctx context.Context, trigger Trigger) (ModalView, error) {
	if c.opts.Gateway == nil {
		return ModalView{}, errMissingGateway
	}
	dd := trigger.Context
	if dd.Filters == (InheritedFilters{}) {
		dd.Filters = c.filters.Snapshot().Inherited()
	}
	view, err := c.modals.Open(ctx, trigger.Modal, dd)
	if err != nil {
		return ModalView{}, err
	}
	c.record(ctx, "insights.modal.open", map[string]any{"modal": string(trigger.Modal), "state": string(view.State)})
	c.emitActivity(ctx, "insights.modal.open", "modal", string(trigger.Modal), map[string]any{
		"entity": string(dd.Entity),
		"id":     dd.ID,
		"name":   dd.Name,
		"type":   dd.Type,
	})
	c.publish("modal.open", string(trigger.Modal))
	return view, nil
}

// ModalPage moves an open modal to page n.
func (c *Controller) ModalPage(ctx context.Context, kind ModalKind, n int) (LoadOutcome, ModalView, error) {
	outcome, view, err := c.modals.Page(ctx, kind, n)
	if err == nil && outcome != LoadRejected {
		c.publish("modal.page", string(kind))
	}
	return outcome, view, err
}

// ReloadModal retries the current page of an open modal.
func (c *Controller) ReloadModal(ctx context.Context, kind ModalKind) (ModalView, error) {
	_, view, err := c.modals.Reload(ctx, kind)
	if err == nil {
		c.publish("modal.page", string(kind))
	}
	return view, err
}

// SwitchTab activates a tab of the details modal.
func (c *Controller) SwitchTab(ctx context.Context, tab DetailTab) (ModalView, error) {
	view, err := c.modals.SwitchTab(ctx, tab)
	if err == nil {
		c.publish("modal.tab", string(tab))
	}
	return view, err
}

// CloseModal closes kind and anything stacked above it.
func (c *Controller) CloseModal(ctx context.Context, kind ModalKind) ([]ModalKind, error) {
	closed, err := c.modals.Close(kind)
	if err != nil {
		return nil, err
	}
	c.record(ctx, "insights.modal.close", map[string]any{"modal": string(kind), "closed": len(closed)})
	c.publish("modal.close", string(kind))
	return closed, nil
}

// ChartClick maps a click on a plotted point to a drill-down. Clicks that do not map
// to a drill-down return ok=false.
func (c *Controller) ChartClick(ctx context.Context, canvasID string, category, series int) (ModalView, bool, error) {
	trigger, ok := c.charts.Click(canvasID, category, series)
	if !ok {
		return ModalView{}, false, nil
	}
	view, err := c.OpenDrillDown(ctx, *trigger)
	return view, err == nil, err
}

// SetChartVariant rebuilds one widget with another variant. Unknown values fall back
// to the widget default.
func (c *Controller) SetChartVariant(ctx context.Context, canvasID, value string) (ChartView, error) {
	variant, _ := ParseChartVariant(value)
	view, err := c.charts.RerenderWidget(canvasID, variant)
	if err != nil {
		return ChartView{}, err
	}
	c.record(ctx, "insights.chart.variant", map[string]any{"canvas": canvasID, "variant": string(view.Variant)})
	c.publish("chart.variant", canvasID)
	return view, nil
}

// ToggleSeries shows or hides one dataset of a widget.
func (c *Controller) ToggleSeries(ctx context.Context, canvasID, series string, visible bool) (ChartView, error) {
	view, err := c.charts.ToggleSeries(canvasID, series, visible)
	if err != nil {
		return ChartView{}, err
	}
	c.publish("chart.series", canvasID)
	return view, nil
}

// SaveLayout validates, persists and applies the placements of the current scope.
func (c *Controller) SaveLayout(ctx context.Context, placements []WidgetPlacement) ([]WidgetPlacement, error) {
	if err := c.opts.LayoutValidator.ValidateLayout(placements); err != nil {
		return nil, err
	}
	scope := c.layoutScope()
	if err := c.opts.Layouts.SaveLayout(ctx, scope, placements); err != nil {
		return nil, fmt.Errorf("insights: save layout %s: %w", scope, err)
	}
	c.charts.ApplyLayout(placements)
	c.record(ctx, "insights.layout.save", map[string]any{"scope": scope, "widgets": len(placements)})
	c.emitActivity(ctx, "insights.layout.save", "layout", LayoutKey(scope), map[string]any{"widgets": len(placements)})
	c.publish("layout", scope)
	return c.charts.Grid().Placements(), nil
}

// LoadLayout returns the saved placements of the current scope.
func (c *Controller) LoadLayout(ctx context.Context) ([]WidgetPlacement, bool, error) {
	return c.opts.Layouts.LoadLayout(ctx, c.layoutScope())
}

func (c *Controller) layoutScope() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeAnalysis && c.analysis != nil {
		return c.analysis.pane.Name
	}
	return string(c.filters.Snapshot().Collection)
}

// ExportTable flattens a visible table for download. Scope is "analysis" or the kind
// of an open modal.
func (c *Controller) ExportTable(scope string) (ExportTable, error) {
	if scope == "analysis" {
		view := c.analysisView()
		if view == nil || view.Table == nil {
			return ExportTable{}, fmt.Errorf("insights: no analysis table to export")
		}
		name := view.Name
		if view.Tab != "" {
			name += "_" + view.Tab
		}
		return ExportFromView(name, *view.Table), nil
	}
	kind, err := ParseModalKind(scope)
	if err != nil {
		return ExportTable{}, err
	}
	view, err := c.modals.View(kind)
	if err != nil {
		return ExportTable{}, err
	}
	if view.State == ModalClosed {
		return ExportTable{}, fmt.Errorf("%w: %s", ErrModalNotOpen, kind)
	}
	switch {
	case view.Section != nil:
		return ExportFromView(string(kind), *view.Section), nil
	case len(view.Tabs) > 0:
		for _, tab := range view.Tabs {
			if tab.Active {
				return ExportFromView(string(kind)+"_"+string(tab.Tab), tab.Section), nil
			}
		}
	}
	return ExportTable{}, fmt.Errorf("insights: modal %s has no table to export", kind)
}

// Snapshot renders the session's current state.
func (c *Controller) Snapshot() DashboardView {
	c.mu.Lock()
	view := DashboardView{
		Session:     c.id,
		Mode:        c.mode,
		Collections: Collections(),
		Years:       append([]string(nil), c.years...),
		Cities:      append([]string(nil), c.cities...),
		Statuses:    c.statuses,
		Loading:     c.loading,
		ChartsError: c.chartsError,
	}
	c.mu.Unlock()
	view.Filters = c.filters.Snapshot()
	view.Charts = c.charts.Views()
	view.Layout = c.charts.Grid().Placements()
	view.Analysis = c.analysisView()
	view.Modals = c.modals.Views()
	return view
}

func (c *Controller) analysisView() *AnalysisView {
	c.mu.Lock()
	run := c.analysis
	c.mu.Unlock()
	if run == nil {
		return nil
	}
	spec := run.pane
	view := &AnalysisView{Name: run.spec.Name, Title: run.spec.Title, Kind: run.spec.Render.Kind, FullView: run.fullView}
	if run.spec.Tabbed() {
		view.Tab = spec.Tab
		for _, pane := range run.spec.Render.Tabs {
			view.Tabs = append(view.Tabs, AnalysisTabView{Name: pane.Name, Title: pane.Title, Active: pane.Name == spec.Tab})
		}
	}
	render := ColumnRenderer(spec.Render.Columns)
	if len(spec.Render.Columns) == 0 {
		render = func(rows []Row) ([]string, [][]Cell) {
			return RenderTable(ColumnsFromRows(rows), rows)
		}
	}
	if run.rows != nil {
		table := run.rows.View(spec.Title, render)
		view.Table = &table
		view.Loading = table.Loading
		view.Error = table.Error
		return view
	}
	state := run.payload.State()
	view.Loading = state.Status == StatusLoading
	view.Error = state.Error
	if state.Status != StatusLoaded || len(state.Rows) == 0 {
		return view
	}
	payload := state.Rows[0]
	view.Totals = totalViews(spec.Render.Totals, payload)
	if spec.Render.Kind == AnalysisTable {
		table := BuildSectionView(SectionState[Row]{
			ID:     state.ID,
			Cursor: state.Cursor,
			Rows:   payload.Data(),
			Status: state.Status,
		}, spec.Title, render)
		view.Table = &table
	}
	return view
}

func totalViews(specs []TotalSpec, payload Payload) []TotalView {
	out := make([]TotalView, 0, len(specs))
	for _, spec := range specs {
		raw, ok := lookupPath(payload, spec.Key)
		value := NotAvailable
		if ok {
			value = formatColumnValue(spec.Format, raw)
		}
		out = append(out, TotalView{Label: spec.Label, Value: value})
	}
	return out
}

// lookupPath resolves dotted keys such as "totals.total_interest_amount".
func lookupPath(payload Payload, path string) (any, bool) {
	var current any = map[string]any(payload)
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, current != nil
}

func sortedParamFields(params map[FilterField]string) []FilterField {
	out := make([]FilterField, 0, len(params))
	for _, field := range filterFields {
		if _, ok := params[field]; ok {
			out = append(out, field)
		}
	}
	return out
}

func (c *Controller) record(ctx context.Context, event string, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["session"] = c.id
	c.opts.Telemetry.Record(ctx, event, payload)
}

func (c *Controller) publish(kind, target string) {
	c.opts.Events.Publish(ViewEvent{Session: c.id, Kind: kind, Target: target, At: time.Now().UTC()})
}
