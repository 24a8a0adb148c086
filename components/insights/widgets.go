package insights

// DueDatePath serves the fixed due-day billing comparison.
const DueDatePath = "/api/finance_summary/by_due_date"

var (
	variantsDoughnutFirst  = []ChartVariant{VariantDoughnut, VariantBarVertical, VariantBarHorizontal}
	variantsHorizontalPie  = []ChartVariant{VariantBarHorizontal, VariantDoughnut, VariantBarVertical}
	variantsVerticalPie    = []ChartVariant{VariantBarVertical, VariantDoughnut, VariantBarHorizontal}
	variantsLineFirst      = []ChartVariant{VariantLine, VariantBarVertical, VariantBarHorizontal}
	variantsVerticalLine   = []ChartVariant{VariantBarVertical, VariantLine, VariantBarHorizontal}
	variantsHorizontalLine = []ChartVariant{VariantBarHorizontal, VariantLine, VariantBarVertical}
	variantsBarsOnly       = []ChartVariant{VariantBarVertical, VariantBarHorizontal}
)

func countSeries(key string) []SeriesSpec {
	return []SeriesSpec{{Label: "Total", Key: key}}
}

var collectionWidgets = map[Collection][]ChartSpec{
	CollectionClients: {
		{
			CanvasID: "mainChart1", Title: "Top 20 Cidades por Cliente", Source: "by_city",
			LabelKey: "Cidade", Series: countSeries("Count"),
			Variants: variantsDoughnutFirst, Formatter: LabelCount,
		},
		{
			CanvasID: "mainChart2", Title: "Top 20 Bairros por Cliente", Source: "by_neighborhood",
			LabelKey: "Bairro", Series: countSeries("Count"),
			Variants: variantsHorizontalPie, Formatter: LabelCount,
		},
	},
	CollectionContracts: {
		{
			CanvasID: "mainChart1", Title: "Contratos por Status {filter}", Source: "by_status",
			LabelKey: "Status_contrato", Series: countSeries("Count"),
			Variants: variantsDoughnutFirst, Formatter: LabelCount,
		},
		{
			CanvasID: "mainChart2", Title: "Contratos por Status de Acesso {filter}", Source: "by_access_status",
			LabelKey: "Status_acesso", Series: countSeries("Count"),
			Variants: variantsDoughnutFirst, Formatter: LabelCount,
		},
		{
			CanvasID: "mainChart3", Title: "Status Contrato em {city} {filter}", Source: "by_status_by_city",
			LabelKey: "Status_contrato", Series: countSeries("Count"), CityScoped: true,
			Variants: variantsDoughnutFirst, Formatter: LabelCount,
		},
		{
			CanvasID: "mainChart4", Title: "Status Acesso em {city} {filter}", Source: "by_access_status_by_city",
			LabelKey: "Status_acesso", Series: countSeries("Count"), CityScoped: true,
			Variants: variantsDoughnutFirst, Formatter: LabelCount,
		},
	},
	CollectionReceivables: {
		{
			CanvasID: "mainChart1", Title: "Contas por Status {filter}", Source: "status_summary",
			LabelKey: "Status", Series: countSeries("Count"),
			Variants: variantsDoughnutFirst, Formatter: LabelCount,
		},
		{
			CanvasID: "mainChart2", Title: "Valor Total por Status {filter}", Source: "status_summary",
			LabelKey: "Status", Series: []SeriesSpec{{Label: "Valor", Key: "Total_Value"}},
			Variants: variantsVerticalPie, Formatter: LabelCurrency,
		},
		{
			CanvasID: "mainChart3", Title: "Evolução Anual de Contas", Source: "yoy_summary",
			LabelKey: "Year", Series: countSeries("Total_Count"),
			Variants: variantsLineFirst, Formatter: LabelCount,
		},
		{
			CanvasID: "mainChart4", Title: "Evolução Mensal {filter}", Source: "mom_summary",
			LabelKey: "Month", Order: OrderMonthNames, Series: countSeries("Total_Count"),
			Variants: variantsLineFirst, Formatter: LabelCount,
		},
		{
			CanvasID: "mainChart5", Title: "Contas a Receber (Últimos 3 Meses - Todos)", Source: "last_3_months_stacked",
			LabelKey: "Month", Order: OrderSorted, PivotKey: "Status", ValueKey: "Total_Value",
			Variants: variantsVerticalLine, Formatter: LabelCurrency, Stacked: true,
		},
		{
			CanvasID: "mainChart6", Title: "Contas a Receber (Últimos 3 Meses - Ativos)", Source: "last_3_months_active_clients",
			LabelKey: "Month", Order: OrderSorted, PivotKey: "Status", ValueKey: "Total_Value",
			Variants: variantsVerticalLine, Formatter: LabelCurrency, Stacked: true,
		},
		{
			CanvasID: "mainChart7", Title: "Comparativo de Faturamento por Dia de Vencimento (Fixo)",
			Source: "by_due_date", Endpoint: DueDatePath,
			LabelKey: "Due_Day", Order: OrderNumeric, PivotKey: "Month", ValueKey: "Total_Value", SortSeries: true,
			Variants: variantsBarsOnly, Formatter: LabelCurrency,
		},
	},
	CollectionSupport: {
		{
			CanvasID: "mainChart1", Title: "Atendimentos por Status", Source: "status_summary",
			LabelKey: "Status", Series: countSeries("Count"),
			Variants: variantsDoughnutFirst, Formatter: LabelCount,
		},
		{
			CanvasID: "mainChart2", Title: "Top 10 Assuntos Mais Comuns", Source: "subject_ranking",
			LabelKey: "Assunto", Series: countSeries("Count"),
			Variants: variantsHorizontalPie, Formatter: LabelCount,
		},
		{
			CanvasID: "mainChart3", Title: "Evolução Anual de Atendimentos", Source: "yoy_summary",
			LabelKey: "Year", Series: countSeries("Total_Count"),
			Variants: variantsLineFirst, Formatter: LabelCount,
		},
		{
			CanvasID: "mainChart4", Title: "Evolução Mensal {filter}", Source: "mom_summary",
			LabelKey: "Month", Order: OrderMonthNames, Series: countSeries("Total_Count"),
			Variants: variantsLineFirst, Formatter: LabelCount,
		},
		{
			CanvasID: "mainChart5", Title: "Tempo Médio de Resolução por Assunto (dias)", Source: "avg_resolution_time_by_subject",
			LabelKey: "Assunto", Series: []SeriesSpec{{Label: "Dias", Key: "Average_Resolution_Days"}},
			Variants: variantsVerticalLine, Formatter: LabelDays,
		},
	},
	CollectionServiceOrders: {
		{
			CanvasID: "mainChart4", Title: "Evolução Mensal de OS {filter}", Source: "mom_summary",
			LabelKey: "Month", Order: OrderMonthNames, Series: countSeries("Total_Count"),
			Variants: variantsLineFirst, Formatter: LabelCount,
		},
		{
			CanvasID: "mainChart6", Title: "Status de OS por Assunto", Source: "status_by_subject",
			LabelKey: "Assunto", PivotKey: "Status", ValueKey: "Count",
			Variants: variantsBarsOnly, Formatter: LabelCount, Stacked: true,
		},
		{
			CanvasID: "mainChart7", Title: "Tempo Médio de Serviço por Cidade (dias)", Source: "avg_service_time_by_city",
			LabelKey: "Cidade", Series: []SeriesSpec{{Label: "Dias", Key: "Average_Service_Days"}},
			Variants: variantsHorizontalLine, Formatter: LabelDays,
		},
	},
	CollectionLogins: {
		{
			CanvasID: "mainChart1", Title: "Logins Únicos por Transmissor", Source: "by_transmitter",
			LabelKey: "Transmissor", Series: countSeries("Count"),
			Variants: variantsHorizontalPie, Formatter: LabelCount,
		},
		{
			CanvasID: "mainChart2", Title: "Top 20 Planos por Nº de Logins", Source: "by_plan",
			LabelKey: "Contrato", Series: countSeries("Count"),
			Variants: variantsHorizontalPie, Formatter: LabelCount,
		},
	},
}

// CollectionWidgets returns the chart widgets declared for a collection.
func CollectionWidgets(collection Collection) []ChartSpec {
	return append([]ChartSpec(nil), collectionWidgets[collection]...)
}

// WidgetEndpoints lists the extra fetches a set of widgets needs, keyed by payload source.
func WidgetEndpoints(specs []ChartSpec) map[string]string {
	out := map[string]string{}
	for _, spec := range specs {
		if spec.Endpoint != "" {
			out[spec.source()] = spec.Endpoint
		}
	}
	return out
}
