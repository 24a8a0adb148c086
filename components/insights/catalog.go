package insights

import (
	"fmt"
	"net/url"
	"strings"
)

// AnalysisID indexes the custom analysis catalog.
type AnalysisID int

const (
	AnalysisReceivables AnalysisID = iota
	AnalysisFinancialHealth
	AnalysisFinancialHealthAutoBlock
	AnalysisCancellations
	AnalysisNegativacao
	AnalysisSellers
	AnalysisActivationsBySeller
	AnalysisCancellationsByCity
	AnalysisCancellationsByNeighborhood
	AnalysisCancellationsByEquipment
	AnalysisEquipmentByOLT
	AnalysisBillingByCity
	AnalysisActiveClientsEvolution
	AnalysisLateInterest
	AnalysisDailyEvolutionByCity
	AnalysisCohort
	AnalysisBehavior
	analysisCount
)

// AnalysisKind selects how an analysis is displayed.
type AnalysisKind string

const (
	AnalysisTable  AnalysisKind = "table"
	AnalysisChart  AnalysisKind = "chart"
	AnalysisTabbed AnalysisKind = "tabbed"
)

// FullViewLimit is the limit used when a table analysis is opened in full view.
const FullViewLimit = 100000

// CustomAnalysisRowsPerPage is the page size of paginated table analyses.
const CustomAnalysisRowsPerPage = 50

// FetchSpec describes the request of an analysis.
type FetchSpec struct {
	Path   string
	Params []FilterField
	// RowsPerPage <= 0 means the endpoint returns everything in one response.
	RowsPerPage int
	// Defaults fill params the filters leave blank.
	Defaults map[FilterField]string
}

// Query builds the request params from the filters.
func (s FetchSpec) Query(f FilterContext) url.Values {
	query := AnalysisQuery(f, s.Params)
	for _, field := range s.Params {
		if def, ok := s.Defaults[field]; ok && query.Get(string(field)) == "" {
			query.Set(string(field), def)
		}
	}
	return query
}

// TotalSpec is a headline number read from the payload.
type TotalSpec struct {
	Label  string
	Key    string
	Format ColumnFormat
}

// RenderSpec describes how an analysis is displayed.
type RenderSpec struct {
	Kind    AnalysisKind
	Columns []Column
	Charts  []ChartSpec
	Totals  []TotalSpec
	// Tabs is only read for AnalysisTabbed; the first tab opens by default.
	Tabs []AnalysisTab
}

// AnalysisTab is one pane of a tabbed analysis. Only the active pane is loaded.
type AnalysisTab struct {
	Name   string
	Title  string
	Fetch  FetchSpec
	Render RenderSpec
}

// AnalysisSpec is one entry of the catalog.
type AnalysisSpec struct {
	ID     AnalysisID
	Name   string
	Title  string
	Fetch  FetchSpec
	Render RenderSpec
	// Tab names the pane a resolved spec came from.
	Tab string
}

// Paginated reports whether the analysis pages its table.
func (s AnalysisSpec) Paginated() bool {
	return s.Render.Kind == AnalysisTable && s.Fetch.RowsPerPage > 0
}

// Tabbed reports whether the analysis is split in panes.
func (s AnalysisSpec) Tabbed() bool {
	return s.Render.Kind == AnalysisTabbed && len(s.Render.Tabs) > 0
}

// Pane resolves the pane named tab as a standalone spec sharing the analysis id. A
// blank tab selects the first pane; plain analyses resolve to themselves.
func (s AnalysisSpec) Pane(tab string) (AnalysisSpec, error) {
	if !s.Tabbed() {
		if strings.TrimSpace(tab) != "" {
			return AnalysisSpec{}, fmt.Errorf("%w: %s has no tab %q", ErrUnknownTab, s.Name, tab)
		}
		return s, nil
	}
	tab = strings.TrimSpace(tab)
	if tab == "" {
		tab = s.Render.Tabs[0].Name
	}
	for _, pane := range s.Render.Tabs {
		if pane.Name == tab {
			return AnalysisSpec{
				ID:     s.ID,
				Name:   s.Name + "_" + pane.Name,
				Title:  pane.Title,
				Fetch:  pane.Fetch,
				Render: pane.Render,
				Tab:    pane.Name,
			}, nil
		}
	}
	return AnalysisSpec{}, fmt.Errorf("%w: %s has no tab %q", ErrUnknownTab, s.Name, tab)
}

// Charts lists every chart the analysis can draw, across panes.
func (s AnalysisSpec) Charts() []ChartSpec {
	out := append([]ChartSpec(nil), s.Render.Charts...)
	for _, pane := range s.Render.Tabs {
		out = append(out, pane.Render.Charts...)
	}
	return out
}

func behaviorPath(name string) string {
	return "/api/behavior/" + name
}

func customPath(name string) string {
	return "/api/custom_analysis/" + name
}

var (
	dateParams      = []FilterField{FieldStartDate, FieldEndDate}
	churnParams     = []FilterField{FieldStartDate, FieldEndDate, FieldRelevance}
	searchParams    = []FilterField{FieldSearchTerm, FieldStartDate, FieldEndDate, FieldRelevance}
	healthParams    = []FilterField{FieldSearchTerm, FieldContractStatus, FieldAccessStatus, FieldRelevance}
	cityDateParams  = []FilterField{FieldCity, FieldStartDate, FieldEndDate}
	cityChurnParams = []FilterField{FieldCity, FieldStartDate, FieldEndDate, FieldRelevance}
)

var churnTotals = []TotalSpec{
	{Label: "Cancelados", Key: "total_cancelados"},
	{Label: "Negativados", Key: "total_negativados"},
	{Label: "Total", Key: "grand_total"},
}

var analysisCatalog = [analysisCount]AnalysisSpec{
	AnalysisReceivables: {
		Name:  "contas_a_receber",
		Title: "Análise de Atrasos e Faturas Não Pagas",
		Fetch: FetchSpec{Path: customPath("contas_a_receber"), Params: []FilterField{FieldSearchTerm}, RowsPerPage: CustomAnalysisRowsPerPage},
		Render: RenderSpec{Kind: AnalysisTable, Columns: []Column{
			{Header: "Cliente", Key: "Cliente"},
			{Header: "Contrato ID", Key: "Contrato_ID"},
			{Header: "Atrasos Pagos", Key: "Atrasos_Pagos", Trigger: invoiceTrigger("Atrasos_Pagos", "atrasos_pagos")},
			{Header: "Faturas Não Pagas", Key: "Faturas_Nao_Pagas", Trigger: invoiceTrigger("Faturas_Nao_Pagas", "faturas_nao_pagas")},
		}},
	},
	AnalysisFinancialHealth: {
		Name:   "financial_health",
		Title:  "Análise de Saúde Financeira (Atraso > 10 dias)",
		Fetch:  FetchSpec{Path: customPath("financial_health"), Params: healthParams, RowsPerPage: CustomAnalysisRowsPerPage},
		Render: RenderSpec{Kind: AnalysisTable, Columns: financialHealthColumns},
	},
	AnalysisFinancialHealthAutoBlock: {
		Name:   "financial_health_auto_block",
		Title:  "Análise de Saúde Financeira (Bloqueio Automático > 20 dias)",
		Fetch:  FetchSpec{Path: customPath("financial_health_auto_block"), Params: healthParams, RowsPerPage: CustomAnalysisRowsPerPage},
		Render: RenderSpec{Kind: AnalysisTable, Columns: financialHealthColumns},
	},
	AnalysisCancellations: {
		Name:   "cancellations",
		Title:  "Análise de Cancelamentos",
		Fetch:  FetchSpec{Path: customPath("cancellations"), Params: searchParams, RowsPerPage: CustomAnalysisRowsPerPage},
		Render: RenderSpec{Kind: AnalysisTable, Columns: churnContractColumns},
	},
	AnalysisNegativacao: {
		Name:   "negativacao",
		Title:  "Análise de Negativação",
		Fetch:  FetchSpec{Path: customPath("negativacao"), Params: searchParams, RowsPerPage: CustomAnalysisRowsPerPage},
		Render: RenderSpec{Kind: AnalysisTable, Columns: churnContractColumns},
	},
	AnalysisSellers: {
		Name:  "sellers",
		Title: "Análise de Vendedores",
		Fetch: FetchSpec{Path: customPath("sellers"), Params: dateParams},
		Render: RenderSpec{Kind: AnalysisTable, Totals: churnTotals, Columns: []Column{
			{Header: "Vendedor", Key: "Vendedor_Nome"},
			{Header: "Cancelados", Key: "Cancelados_Count", Trigger: sellerTrigger(ModalSeller, "Cancelados_Count", "cancelado")},
			{Header: "Negativados", Key: "Negativados_Count", Trigger: sellerTrigger(ModalSeller, "Negativados_Count", "negativado")},
			{Header: "Total", Key: "Total"},
		}},
	},
	AnalysisActivationsBySeller: {
		Name:  "activations_by_seller",
		Title: "Ativações por Vendedor",
		Fetch: FetchSpec{Path: customPath("activations_by_seller"), Params: cityDateParams},
		Render: RenderSpec{Kind: AnalysisTable, Columns: []Column{
			{Header: "Vendedor", Key: "Vendedor_Nome"},
			{Header: "Total Ativações", Key: "Total_Ativacoes", Trigger: sellerTrigger(ModalSellerActivations, "Total_Ativacoes", "ativado")},
			{Header: "Permanecem Ativos", Key: "Permanecem_Ativos", Trigger: sellerTrigger(ModalSellerActivations, "Permanecem_Ativos", "ativo_permanece")},
			{Header: "Cancelados", Key: "Cancelados", Trigger: sellerTrigger(ModalSellerActivations, "Cancelados", "cancelado")},
			{Header: "Negativados", Key: "Negativados", Trigger: sellerTrigger(ModalSellerActivations, "Negativados", "negativado")},
			{Header: "Total Churn", Key: "Total_Churn"},
		}},
	},
	AnalysisCancellationsByCity: {
		Name:  "cancellations_by_city",
		Title: "Cancelamentos e Negativações por Cidade",
		Fetch: FetchSpec{Path: customPath("cancellations_by_city"), Params: churnParams},
		Render: RenderSpec{Kind: AnalysisChart, Totals: churnTotals, Charts: []ChartSpec{{
			CanvasID: "cityAnalysisChart", Title: "Cancelamentos e Negativações por Cidade",
			LabelKey: "Cidade", Series: churnSeries,
			Variants: variantsVerticalPie, Formatter: LabelCount, Stacked: true,
			DrillDown: &DrillDownSpec{Modal: ModalCity, Entity: EntityCity, SeriesTypes: churnSeriesTypes, DefaultType: "negativado"},
		}}},
	},
	AnalysisCancellationsByNeighborhood: {
		Name:  "cancellations_by_neighborhood",
		Title: "Cancelamentos e Negativações por Bairro",
		Fetch: FetchSpec{Path: customPath("cancellations_by_neighborhood"), Params: cityChurnParams},
		Render: RenderSpec{Kind: AnalysisChart, Totals: churnTotals, Charts: []ChartSpec{{
			CanvasID: "neighborhoodChart", Title: "Cancelamentos e Negativações por Bairro {city}",
			LabelKey: "Bairro", Series: churnSeries,
			Variants: variantsVerticalPie, Formatter: LabelCount, Stacked: true,
			DrillDown: &DrillDownSpec{Modal: ModalNeighborhood, Entity: EntityNeighborhood, SeriesTypes: churnSeriesTypes, DefaultType: "negativado"},
		}}},
	},
	AnalysisCancellationsByEquipment: {
		Name:  "cancellations_by_equipment",
		Title: "Cancelamentos por Equipamento",
		Fetch: FetchSpec{Path: customPath("cancellations_by_equipment"), Params: cityChurnParams},
		Render: RenderSpec{Kind: AnalysisChart, Totals: []TotalSpec{{Label: "Total", Key: "total_equipments"}}, Charts: []ChartSpec{{
			CanvasID: "equipmentChart", Title: "Cancelamentos por Equipamento",
			LabelKey: "Descricao_produto", LabelFallback: "Não Identificado",
			Series:   []SeriesSpec{{Label: "Cancelamentos", Key: "Count"}},
			Variants: variantsHorizontalPie, Formatter: LabelCount,
			DrillDown: &DrillDownSpec{Modal: ModalEquipment, Entity: EntityEquipment},
		}}},
	},
	AnalysisEquipmentByOLT: {
		Name:  "equipment_by_olt",
		Title: "Equipamentos Ativos por OLT",
		Fetch: FetchSpec{Path: customPath("equipment_by_olt"), Params: []FilterField{FieldCity}},
		Render: RenderSpec{Kind: AnalysisChart, Charts: []ChartSpec{{
			CanvasID: "equipmentByOltChart", Title: "Equipamentos Ativos {city}",
			LabelKey: "Descricao_produto", LabelFallback: "Não Identificado",
			Series:   []SeriesSpec{{Label: "Contagem", Key: "Count"}},
			Variants: variantsHorizontalPie, Formatter: LabelCount,
			DrillDown: &DrillDownSpec{Modal: ModalActiveEquipment, Entity: EntityEquipment},
		}}},
	},
	AnalysisBillingByCity: {
		Name:  "faturamento_por_cidade",
		Title: "Faturamento por Cidade",
		Fetch: FetchSpec{Path: customPath("faturamento_por_cidade"), Params: cityDateParams},
		Render: RenderSpec{Kind: AnalysisChart, Charts: []ChartSpec{
			{
				CanvasID: "billingChart1", Title: "Faturamento Total {city}", Source: "faturamento_total",
				LabelKey: "Month", Order: OrderSorted, PivotKey: "Status", ValueKey: "Total_Value",
				Variants: variantsVerticalLine, Formatter: LabelCurrency, Stacked: true,
			},
			{
				CanvasID: "billingChart2", Title: "Faturamento de Clientes Ativos {city}", Source: "faturamento_ativos",
				LabelKey: "Month", Order: OrderSorted, PivotKey: "Status", ValueKey: "Total_Value",
				Variants: variantsVerticalLine, Formatter: LabelCurrency, Stacked: true,
			},
			{
				CanvasID: "billingChart3", Title: "Faturamento por Dia de Vencimento {city}", Source: "faturamento_por_dia_vencimento",
				LabelKey: "Due_Day", Order: OrderNumeric, PivotKey: "Month", ValueKey: "Total_Value", SortSeries: true,
				Variants: variantsBarsOnly, Formatter: LabelCurrency,
			},
		}},
	},
	AnalysisActiveClientsEvolution: {
		Name:  "active_clients_evolution",
		Title: "Evolução de Clientes Ativos",
		Fetch: FetchSpec{Path: customPath("active_clients_evolution"), Params: []FilterField{FieldStartDate, FieldEndDate, FieldCity, FieldContractStatus, FieldAccessStatus}},
		Render: RenderSpec{Kind: AnalysisChart, Charts: []ChartSpec{{
			CanvasID: "activeClientsChart", Title: "Evolução de Clientes Ativos {city}",
			LabelKey: "Month", Series: []SeriesSpec{{Label: "Clientes Ativos", Key: "Active_Clients_Count"}},
			Variants: variantsLineFirst, Formatter: LabelCount,
		}}},
	},
	AnalysisLateInterest: {
		Name:  "late_interest_analysis",
		Title: "Análise de Juros por Atraso",
		Fetch: FetchSpec{Path: customPath("late_interest_analysis"), Params: dateParams},
		Render: RenderSpec{Kind: AnalysisTable, Totals: []TotalSpec{
			{Label: "Juros Totais", Key: "totals.total_interest_amount", Format: FormatCurrency},
			{Label: "Pagamentos em Atraso", Key: "totals.total_late_payments_count"},
		}, Columns: []Column{
			{Header: "Faixa de Atraso", Key: "Delay_Bucket"},
			{Header: "Quantidade", Key: "Count"},
			{Header: "Juros Totais", Key: "Total_Interest", Format: FormatCurrency},
		}},
	},
	AnalysisDailyEvolutionByCity: {
		Name:  "daily_evolution_by_city",
		Title: "Evolução Diária por Cidade",
		Fetch: FetchSpec{Path: customPath("daily_evolution_by_city"), Params: dateParams},
		Render: RenderSpec{Kind: AnalysisChart, Charts: []ChartSpec{{
			CanvasID: "dailyEvolutionChart", Title: "Evolução Diária em {city}",
			CityKeyed: true, Source: "daily_data",
			LabelKey: "date", Series: []SeriesSpec{{Label: "Ativações", Key: "ativacoes"}, {Label: "Churn", Key: "churn"}},
			Variants: variantsLineFirst, Formatter: LabelCount,
			DrillDown: &DrillDownSpec{Modal: ModalDailyEvolution, Entity: EntityCity, DateCategory: true},
		}}},
	},
	AnalysisCohort: {
		Name:  "cohort",
		Title: "Análise de Coorte",
		Fetch: FetchSpec{Path: customPath("cohort"), Params: cityDateParams},
		Render: RenderSpec{Kind: AnalysisChart, Charts: []ChartSpec{{
			CanvasID: "cohortChart", Title: "Retenção por Coorte {city}", Prebuilt: true,
			Variants: variantsLineFirst, Formatter: LabelPercent,
		}}},
	},
	AnalysisBehavior: {
		Name:  "analise_comportamento",
		Title: "Análise de Comportamento",
		Render: RenderSpec{Kind: AnalysisTabbed, Tabs: []AnalysisTab{
			{
				Name:  "reclamacoes",
				Title: "Padrão de Reclamações",
				Fetch: FetchSpec{Path: behaviorPath("complaint_patterns"), Params: []FilterField{FieldCity}},
				Render: RenderSpec{Kind: AnalysisChart, Charts: []ChartSpec{{
					CanvasID: "complaintChart", Title: "Top Assuntos de Reclamação {city}", Source: "top_subjects",
					LabelKey: "Assunto", Series: []SeriesSpec{{Label: "Contagem", Key: "Count"}},
					Variants: variantsVerticalPie, Formatter: LabelCount,
				}}},
			},
			{
				Name:  "preditiva",
				Title: "Análise Preditiva de Churn",
				Fetch: FetchSpec{
					Path:        behaviorPath("predictive_churn"),
					Params:      []FilterField{FieldContractStatus, FieldAccessStatus},
					RowsPerPage: CustomAnalysisRowsPerPage,
					Defaults:    map[FilterField]string{FieldContractStatus: "Ativo"},
				},
				Render: RenderSpec{Kind: AnalysisTable, Columns: predictiveChurnColumns},
			},
		}},
	},
}

var churnSeries = []SeriesSpec{{Label: "Cancelados", Key: "Cancelados"}, {Label: "Negativados", Key: "Negativados"}}

var churnSeriesTypes = map[string]string{"Cancelados": "cancelado"}

var financialHealthColumns = []Column{
	{Header: "Razão Social", Key: "Razao_Social", Trigger: cancellationTrigger("Razao_Social")},
	{Header: "Contrato ID", Key: "Contrato_ID"},
	{Header: "Status Contrato", Key: "Status_contrato"},
	{Header: "Status Acesso", Key: "Status_acesso"},
	{Header: "1ª Inadimplência", Key: "Primeira_Inadimplencia_Vencimento", Format: FormatDate, Trigger: detailsTrigger("Razao_Social", TabFinancial)},
	{Header: "Reclamações", Key: "Possui_Reclamacoes", Trigger: detailsTrigger("Razao_Social", TabServiceOrders)},
	{Header: "Última Conexão", Key: "Ultima_Conexao", Format: FormatDate, Trigger: detailsTrigger("Razao_Social", TabLogins)},
}

var predictiveChurnColumns = []Column{
	{Header: "Cliente", Key: "Razao_Social"},
	{Header: "Contrato ID", Key: "Contrato_ID"},
	{Header: "Teve Atraso >10d?", Key: "Primeira_Inadimplencia_Vencimento", Trigger: detailsTrigger("Razao_Social", TabFinancial)},
	{Header: "Tem Reclamações?", Key: "Possui_Reclamacoes", Trigger: detailsTrigger("Razao_Social", TabServiceOrders)},
	{Header: "Última Conexão", Key: "Ultima_Conexao", Format: FormatDate, Trigger: detailsTrigger("Razao_Social", TabLogins)},
}

var churnContractColumns = []Column{
	{Header: "Cliente", Key: "Cliente", Trigger: cancellationTrigger("Cliente")},
	{Header: "Contrato ID", Key: "Contrato_ID"},
	{Header: "Permanência (Meses)", Key: "permanencia_meses"},
	{Header: "Contato Relevante", Key: "Teve_Contato_Relevante"},
}

// Analyses returns the catalog in menu order.
func Analyses() []AnalysisSpec {
	out := make([]AnalysisSpec, 0, analysisCount)
	for id, spec := range analysisCatalog {
		spec.ID = AnalysisID(id)
		out = append(out, spec)
	}
	return out
}

// Analysis returns the catalog entry for id.
func Analysis(id AnalysisID) (AnalysisSpec, bool) {
	if id < 0 || id >= analysisCount {
		return AnalysisSpec{}, false
	}
	spec := analysisCatalog[id]
	spec.ID = id
	return spec, true
}

// LookupAnalysis resolves an analysis by its name.
func LookupAnalysis(name string) (AnalysisSpec, error) {
	name = strings.TrimSpace(name)
	for id := range analysisCatalog {
		if analysisCatalog[id].Name == name {
			spec, _ := Analysis(AnalysisID(id))
			return spec, nil
		}
	}
	return AnalysisSpec{}, fmt.Errorf("%w: %q", ErrUnknownAnalysis, name)
}

func positive(row Row, key string) bool {
	return float64Value(row[key]) > 0
}

func invoiceTrigger(countKey, kind string) func(Row) *Trigger {
	return func(row Row) *Trigger {
		if !positive(row, countKey) {
			return nil
		}
		return &Trigger{Modal: ModalInvoices, Context: DrillDownContext{
			Entity: EntityContract,
			ID:     stringValue(row["Contrato_ID"], ""),
			Name:   stringValue(row["Cliente"], ""),
			Type:   kind,
		}}
	}
}

func sellerTrigger(modal ModalKind, countKey, kind string) func(Row) *Trigger {
	return func(row Row) *Trigger {
		if !positive(row, countKey) {
			return nil
		}
		return &Trigger{Modal: modal, Context: DrillDownContext{
			Entity: EntitySeller,
			ID:     stringValue(row["Vendedor_ID"], ""),
			Name:   stringValue(row["Vendedor_Nome"], ""),
			Type:   kind,
		}}
	}
}

func cancellationTrigger(nameKey string) func(Row) *Trigger {
	return func(row Row) *Trigger {
		id := stringValue(row["Contrato_ID"], "")
		if id == "" {
			return nil
		}
		return &Trigger{Modal: ModalCancellation, Context: DrillDownContext{
			Entity: EntityClient,
			ID:     id,
			Name:   stringValue(row[nameKey], ""),
		}}
	}
}

func detailsTrigger(nameKey string, tab DetailTab) func(Row) *Trigger {
	return func(row Row) *Trigger {
		id := stringValue(row["Contrato_ID"], "")
		if id == "" {
			return nil
		}
		return &Trigger{Modal: ModalDetails, Context: DrillDownContext{
			Entity: EntityContract,
			ID:     id,
			Name:   stringValue(row[nameKey], ""),
			Type:   string(tab),
		}}
	}
}
