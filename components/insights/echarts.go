package insights

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const defaultChartHeight = "360px"

var sharedChartCache = NewChartCache(5 * time.Minute)

// EChartsRenderer renders chart instances to go-echarts markup.
type EChartsRenderer struct {
	cache      RenderCache
	theme      string
	assetsHost string
	height     string
}

// EChartsOption customizes the renderer.
type EChartsOption func(*EChartsRenderer)

// WithRenderCache injects a render cache. Passing nil disables caching.
func WithRenderCache(cache RenderCache) EChartsOption {
	return func(r *EChartsRenderer) {
		r.cache = cache
	}
}

// WithChartTheme sets the theme (defaults to Westeros).
func WithChartTheme(theme string) EChartsOption {
	return func(r *EChartsRenderer) {
		if theme != "" {
			r.theme = theme
		}
	}
}

// WithChartAssetsHost rewrites the assets host so ECharts JS loads from a CDN.
func WithChartAssetsHost(host string) EChartsOption {
	return func(r *EChartsRenderer) {
		r.assetsHost = host
	}
}

// WithChartHeight overrides the canvas height.
func WithChartHeight(height string) EChartsOption {
	return func(r *EChartsRenderer) {
		if height != "" {
			r.height = height
		}
	}
}

// NewEChartsRenderer builds a renderer.
func NewEChartsRenderer(options ...EChartsOption) *EChartsRenderer {
	r := &EChartsRenderer{
		cache:  sharedChartCache,
		theme:  types.ThemeWesteros,
		height: defaultChartHeight,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// RenderChart implements ChartRenderer.
func (r *EChartsRenderer) RenderChart(inst ChartInstance) (string, error) {
	render := func() (string, error) {
		return r.render(inst)
	}
	if r.cache == nil {
		return render()
	}
	return r.cache.Markup(inst.CanvasID, instanceHash(inst), render)
}

func (r *EChartsRenderer) render(inst ChartInstance) (string, error) {
	switch inst.Variant {
	case VariantDoughnut:
		return r.renderDoughnut(inst)
	case VariantBarVertical:
		return r.renderBar(inst, false)
	case VariantBarHorizontal:
		return r.renderBar(inst, true)
	case VariantLine:
		return r.renderLine(inst)
	default:
		return "", fmt.Errorf("unsupported chart variant: %s", inst.Variant)
	}
}

func (r *EChartsRenderer) renderBar(inst ChartInstance, horizontal bool) (string, error) {
	bar := charts.NewBar()
	bar.SetGlobalOptions(r.globalOptions(inst)...)
	bar.SetXAxis(inst.Data.Labels)
	position := "top"
	if horizontal {
		position = "right"
	}
	for d, ds := range inst.Data.Datasets {
		seriesOpts := []charts.SeriesOpts{
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: position, Formatter: "{b}"}),
		}
		if inst.Stacked {
			seriesOpts = append(seriesOpts, charts.WithBarChartOpts(opts.BarChart{Stack: "total"}))
		}
		bar.AddSeries(ds.Label, toBarData(ds, labelsAt(inst.ValueLabels, d)), seriesOpts...)
	}
	if horizontal {
		bar.XYReversal()
	}
	return renderChart(bar)
}

func (r *EChartsRenderer) renderLine(inst ChartInstance) (string, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(r.globalOptions(inst)...)
	line.SetXAxis(inst.Data.Labels)
	for d, ds := range inst.Data.Datasets {
		line.AddSeries(ds.Label, toLineData(ds, labelsAt(inst.ValueLabels, d)),
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top", Formatter: "{b}"}))
	}
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return renderChart(line)
}

// renderDoughnut plots the first visible dataset as rings.
func (r *EChartsRenderer) renderDoughnut(inst ChartInstance) (string, error) {
	pie := charts.NewPie()
	pie.SetGlobalOptions(r.globalOptions(inst)...)
	for _, ds := range inst.Data.Datasets {
		if ds.Hidden {
			continue
		}
		pie.AddSeries(ds.Label, toPieData(inst.Data.Labels, ds),
			charts.WithPieChartOpts(opts.PieChart{Radius: []string{"40%", "70%"}}))
		break
	}
	return renderChart(pie)
}

func (r *EChartsRenderer) globalOptions(inst ChartInstance) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		ChartID: inst.CanvasID,
		Theme:   r.theme,
		Width:   "100%",
		Height:  r.height,
	}
	if r.assetsHost != "" {
		initOpts.AssetsHost = r.assetsHost
	}
	selected := make(map[string]bool, len(inst.Data.Datasets))
	for _, ds := range inst.Data.Datasets {
		selected[ds.Label] = !ds.Hidden
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: inst.Title}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Selected: selected}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithToolboxOpts(opts.Toolbox{Show: opts.Bool(true)}),
	}
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func labelsAt(labels [][]string, d int) []string {
	if d < len(labels) {
		return labels[d]
	}
	return nil
}

// Data item names carry the formatted value label so "{b}" prints it.
func toBarData(ds Dataset, labels []string) []opts.BarData {
	data := make([]opts.BarData, len(ds.Values))
	for i, v := range ds.Values {
		data[i] = opts.BarData{Name: labelAt(labels, i), Value: v}
	}
	return data
}

func toLineData(ds Dataset, labels []string) []opts.LineData {
	data := make([]opts.LineData, len(ds.Values))
	for i, v := range ds.Values {
		data[i] = opts.LineData{Name: labelAt(labels, i), Value: v}
	}
	return data
}

func toPieData(categories []string, ds Dataset) []opts.PieData {
	data := make([]opts.PieData, len(ds.Values))
	for i, v := range ds.Values {
		name := labelAt(categories, i)
		if name == "" {
			name = fmt.Sprintf("Fatia %d", i+1)
		}
		data[i] = opts.PieData{Name: name, Value: v}
	}
	return data
}

func labelAt(labels []string, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return ""
}
