package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/goliatone/go-insights/components/insights"
)

type tuiCmd struct {
	Param map[string]string `short:"p" help:"Analysis filters as field=value applied to every run."`
}

func (cmd *tuiCmd) Run(ctx context.Context, g *globals) error {
	gateway, err := g.gateway()
	if err != nil {
		return err
	}
	params, err := parseParams(cmd.Param)
	if err != nil {
		return err
	}
	controller := insights.NewController(insights.Options{Gateway: gateway})
	defer controller.Close()

	_, err = tea.NewProgram(newTUIModel(ctx, controller, params), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	maxCellSize = 28
)

type analysisItem struct {
	spec insights.AnalysisSpec
}

func (i analysisItem) FilterValue() string { return i.spec.Name }
func (i analysisItem) Title() string       { return i.spec.Title }
func (i analysisItem) Description() string { return i.spec.Name }

type analysisLoadedMsg struct {
	view insights.DashboardView
	err  error
}

type tuiModel struct {
	ctx        context.Context
	controller *insights.Controller
	params     map[insights.FilterField]string

	list    list.Model
	table   table.Model
	view    insights.DashboardView
	focus   int // 0=list, 1=table
	loading bool
	status  string
}

func newTUIModel(ctx context.Context, controller *insights.Controller, params map[insights.FilterField]string) tuiModel {
	specs := insights.Analyses()
	items := make([]list.Item, len(specs))
	for i, spec := range specs {
		items[i] = analysisItem{spec: spec}
	}
	l := list.New(items, list.NewDefaultDelegate(), 32, 20)
	l.Title = "Análises"
	t := table.New(table.WithFocused(false), table.WithHeight(15))
	return tuiModel{ctx: ctx, controller: controller, params: params, list: l, table: t}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) run(load func() (insights.DashboardView, error)) (tea.Model, tea.Cmd) {
	m.loading = true
	m.status = "Carregando..."
	return m, func() tea.Msg {
		view, err := load()
		return analysisLoadedMsg{view: view, err: err}
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case analysisLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = errorStyle.Render(insights.ErrorMessage(msg.err))
			return m, nil
		}
		m.view = msg.view
		m.status = ""
		m.syncTable()
		return m, nil
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "Q":
			return m, tea.Quit
		case "tab":
			m.focus = 1 - m.focus
			if m.focus == 1 {
				m.table.Focus()
			} else {
				m.table.Blur()
			}
			return m, nil
		case "enter":
			if m.focus == 0 && !m.loading {
				if item, ok := m.list.SelectedItem().(analysisItem); ok {
					return m.run(func() (insights.DashboardView, error) {
						return m.controller.RunAnalysis(m.ctx, item.spec.Name, m.params)
					})
				}
			}
		case "N", "P":
			if m.view.Analysis == nil || m.view.Analysis.Table == nil || m.loading {
				return m, nil
			}
			page := m.view.Analysis.Table.Pager.Page + 1
			if msg.String() == "P" {
				page -= 2
			}
			return m.run(func() (insights.DashboardView, error) {
				_, view, err := m.controller.AnalysisPage(m.ctx, page)
				return view, err
			})
		case "F":
			if m.view.Analysis != nil && !m.loading {
				name := m.view.Analysis.Name
				return m.run(func() (insights.DashboardView, error) {
					return m.controller.FullView(m.ctx, name)
				})
			}
		case "T":
			if next := nextTab(m.view.Analysis); next != "" && !m.loading {
				return m.run(func() (insights.DashboardView, error) {
					return m.controller.SwitchAnalysisTab(m.ctx, next)
				})
			}
		case "R":
			if m.view.Analysis != nil && !m.loading {
				return m.run(func() (insights.DashboardView, error) {
					return m.controller.ReloadAnalysis(m.ctx)
				})
			}
		case "E", "X":
			m.status = m.export(strings.ToLower(msg.String()) == "x")
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width/3, msg.Height-4)
		m.table.SetHeight(msg.Height - 12)
	}
	var cmd tea.Cmd
	if m.focus == 0 {
		m.list, cmd = m.list.Update(msg)
	} else {
		m.table, cmd = m.table.Update(msg)
	}
	return m, cmd
}

// syncTable copies the analysis table into the bubbles table. Rows are cleared before
// the columns change so every row always matches the column count.
func (m *tuiModel) syncTable() {
	m.table.SetRows(nil)
	analysis := m.view.Analysis
	if analysis == nil || analysis.Table == nil {
		m.table.SetColumns(nil)
		return
	}
	cols := make([]table.Column, len(analysis.Table.Columns))
	for i, header := range analysis.Table.Columns {
		cols[i] = table.Column{Title: header, Width: min(max(len(header), 8), maxCellSize)}
	}
	m.table.SetColumns(cols)
	rows := make([]table.Row, 0, len(analysis.Table.Rows))
	for _, line := range analysis.Table.Rows {
		row := make(table.Row, len(cols))
		for i := range cols {
			if i < len(line) {
				row[i] = line[i].Text
			}
		}
		rows = append(rows, row)
	}
	m.table.SetRows(rows)
}

func (m tuiModel) export(xlsx bool) string {
	table, err := m.controller.ExportTable("analysis")
	if err != nil {
		return errorStyle.Render(err.Error())
	}
	ext := "csv"
	if xlsx {
		ext = "xlsx"
	}
	path := insights.ExportFilename(table.Name, ext)
	f, err := os.Create(path) //nolint:gosec
	if err != nil {
		return errorStyle.Render(err.Error())
	}
	defer f.Close()
	if xlsx {
		err = insights.WriteXLSX(f, table)
	} else {
		err = insights.WriteCSV(f, table)
	}
	if err != nil {
		return errorStyle.Render(err.Error())
	}
	return "Exportado " + path
}

func (m tuiModel) View() string {
	left := lipgloss.NewStyle().Width(34).Render(m.list.View())

	var b strings.Builder
	analysis := m.view.Analysis
	switch {
	case analysis == nil:
		b.WriteString(mutedStyle.Render("Selecione uma análise e pressione enter."))
	default:
		b.WriteString(titleStyle.Render(analysis.Title))
		b.WriteString("\n")
		if len(analysis.Tabs) > 0 {
			labels := make([]string, len(analysis.Tabs))
			for i, tab := range analysis.Tabs {
				labels[i] = tab.Title
				if tab.Active {
					labels[i] = titleStyle.Render(tab.Title)
				}
			}
			b.WriteString(strings.Join(labels, mutedStyle.Render(" | ")) + "\n")
		}
		if analysis.Error != "" {
			b.WriteString(errorStyle.Render(analysis.Error))
		} else if analysis.Table != nil {
			if analysis.Table.Empty {
				b.WriteString(analysis.Table.EmptyMessage)
			} else {
				b.WriteString(m.table.View())
			}
			if pager := analysis.Table.Pager; pager.Visible {
				fmt.Fprintf(&b, "\n%s", mutedStyle.Render(pager.Info))
			}
		}
		for _, total := range analysis.Totals {
			fmt.Fprintf(&b, "\n%s: %s", total.Label, total.Value)
		}
		for _, chart := range m.view.Charts {
			fmt.Fprintf(&b, "\n\n%s", titleStyle.Render(chart.Title))
			b.WriteString(renderBars(chart))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render("[enter] abrir  [tab] foco  [N/P] página  [F] tudo  [R] recarregar  [T] aba  [E] CSV  [X] XLSX  [Q] sair"))
	if m.status != "" {
		b.WriteString("\n" + m.status)
	}
	right := panelStyle.Render(b.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

// nextTab returns the pane after the active one, wrapping around.
func nextTab(analysis *insights.AnalysisView) string {
	if analysis == nil || len(analysis.Tabs) < 2 {
		return ""
	}
	for i, tab := range analysis.Tabs {
		if tab.Active {
			return analysis.Tabs[(i+1)%len(analysis.Tabs)].Name
		}
	}
	return analysis.Tabs[0].Name
}

func renderBars(chart insights.ChartView) string {
	const width = 40
	var b strings.Builder
	for _, ds := range chart.Datasets {
		if ds.Hidden {
			continue
		}
		peak := 0.0
		for _, v := range ds.Values {
			peak = max(peak, v)
		}
		fmt.Fprintf(&b, "\n%s", mutedStyle.Render(ds.Label))
		for i, v := range ds.Values {
			label := ""
			if i < len(chart.Labels) {
				label = chart.Labels[i]
			}
			if len(label) > 16 {
				label = label[:15] + "…"
			}
			bar := 0
			if peak > 0 {
				bar = int(v / peak * width)
			}
			fmt.Fprintf(&b, "\n%-16s │%s %g", label, strings.Repeat("█", bar), v)
		}
	}
	return b.String()
}
