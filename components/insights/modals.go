package insights

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// ModalKind identifies a drill-down modal.
type ModalKind string

const (
	ModalTable             ModalKind = "table"
	ModalInvoices          ModalKind = "invoices"
	ModalDetails           ModalKind = "details"
	ModalCancellation      ModalKind = "cancellation"
	ModalSeller            ModalKind = "seller"
	ModalCity              ModalKind = "city"
	ModalNeighborhood      ModalKind = "neighborhood"
	ModalEquipment         ModalKind = "equipment"
	ModalActiveEquipment   ModalKind = "active_equipment"
	ModalSellerActivations ModalKind = "seller_activations"
	ModalDailyEvolution    ModalKind = "daily_evolution"
)

// ParseModalKind validates a modal kind coming from a request.
func ParseModalKind(value string) (ModalKind, error) {
	kind := ModalKind(strings.TrimSpace(value))
	if _, ok := modalSpecs[kind]; ok {
		return kind, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModal, value)
}

// Page sizes per modal family.
const (
	TableModalRowsPerPage   = 25
	InvoiceRowsPerPage      = 15
	DetailsRowsPerPage      = 15
	EntityModalRowsPerPage  = 25
	modalBaseZIndex         = 50
	modalZIndexStep         = 10
	cancellationEmptyNotice = "Nenhum histórico de OS, atendimentos ou equipamentos encontrado para este cliente antes do evento."
)

// ModalState is the lifecycle of a modal.
type ModalState string

const (
	ModalClosed  ModalState = "closed"
	ModalLoading ModalState = "loading"
	ModalLoaded  ModalState = "loaded"
	ModalFailed  ModalState = "failed"
)

// ModalSpec declares what a modal fetches and shows.
type ModalSpec struct {
	Kind        ModalKind
	RowsPerPage int
	Columns     []Column
	Title       func(DrillDownContext) string
	Request     func(DrillDownContext) (string, url.Values)
}

func contextQuery(dd DrillDownContext) url.Values {
	q := url.Values{}
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	set("year", dd.Filters.Year)
	set("month", dd.Filters.Month)
	set("city", dd.Filters.City)
	set("start_date", dd.Filters.StartDate)
	set("end_date", dd.Filters.EndDate)
	set("relevance", dd.Filters.Relevance)
	set("type", dd.Type)
	return q
}

var clientColumns = []Column{
	{Header: "Cliente", Key: "Cliente", Trigger: cancellationTrigger("Cliente")},
	{Header: "Contrato ID", Key: "Contrato_ID"},
	{Header: "Data Ativação", Key: "Data_ativa_o", Format: FormatDate},
	{Header: "Data Final", Key: "end_date", Format: FormatDate},
	{Header: "Permanência (Dias)", Key: "permanencia_dias", Format: FormatDecimal},
	{Header: "Permanência (Meses)", Key: "permanencia_meses"},
}

var churnTypeLabels = map[string]string{
	"cancelado":         "Cancelados",
	"negativado":        "Negativados",
	"ativado":           "Ativações",
	"ativo_permanece":   "Permanecem Ativos",
	"atrasos_pagos":     "Atrasos Pagos",
	"faturas_nao_pagas": "Faturas Não Pagas",
}

func typeLabel(kind string) string {
	if label, ok := churnTypeLabels[kind]; ok {
		return label
	}
	return kind
}

var modalSpecs = map[ModalKind]ModalSpec{
	ModalTable: {
		RowsPerPage: TableModalRowsPerPage,
		Title:       func(dd DrillDownContext) string { return "Dados: " + dd.Name },
		Request: func(dd DrillDownContext) (string, url.Values) {
			return Collection(dd.Name).DataPath(), url.Values{}
		},
	},
	ModalInvoices: {
		RowsPerPage: InvoiceRowsPerPage,
		Title: func(dd DrillDownContext) string {
			return fmt.Sprintf("%s: %s", typeLabel(dd.Type), dd.Title())
		},
		Request: func(dd DrillDownContext) (string, url.Values) {
			return "/api/details/invoice_details", url.Values{"contract_id": {dd.ID}, "type": {dd.Type}}
		},
		Columns: []Column{
			{Header: "ID", Key: "ID"},
			{Header: "Emissão", Key: "Emissao", Format: FormatDate},
			{Header: "Vencimento", Key: "Vencimento", Format: FormatDate},
			{Header: "Data Pagamento", Key: "Data_pagamento", Render: paymentWithDelay},
			{Header: "Valor", Key: "Valor", Format: FormatCurrency},
			{Header: "Status", Key: "Status"},
		},
	},
	ModalDetails: {
		RowsPerPage: DetailsRowsPerPage,
		Title:       func(dd DrillDownContext) string { return "Detalhes: " + dd.Title() },
	},
	ModalCancellation: {
		Title: func(dd DrillDownContext) string { return "Contexto do Cancelamento: " + dd.Title() },
		Request: func(dd DrillDownContext) (string, url.Values) {
			path := "/api/details/cancellation_context/" + url.PathEscape(dd.ID) + "/" + url.PathEscape(dd.Name)
			return path, url.Values{"all": {"true"}}
		},
	},
	ModalSeller: {
		RowsPerPage: EntityModalRowsPerPage,
		Columns:     clientColumns,
		Title: func(dd DrillDownContext) string {
			return fmt.Sprintf("%s do Vendedor %s", typeLabel(dd.Type), dd.Name)
		},
		Request: func(dd DrillDownContext) (string, url.Values) {
			q := contextQuery(dd)
			q.Set("seller_id", dd.ID)
			return "/api/details/seller_clients", q
		},
	},
	ModalCity: {
		RowsPerPage: EntityModalRowsPerPage,
		Columns:     clientColumns,
		Title: func(dd DrillDownContext) string {
			return fmt.Sprintf("%s em %s", typeLabel(dd.Type), dd.Name)
		},
		Request: func(dd DrillDownContext) (string, url.Values) {
			q := contextQuery(dd)
			q.Set("city", dd.Name)
			return "/api/details/city_clients", q
		},
	},
	ModalNeighborhood: {
		RowsPerPage: EntityModalRowsPerPage,
		Columns:     clientColumns,
		Title: func(dd DrillDownContext) string {
			return fmt.Sprintf("%s em %s (%s)", typeLabel(dd.Type), dd.Name, dd.Filters.City)
		},
		Request: func(dd DrillDownContext) (string, url.Values) {
			q := contextQuery(dd)
			q.Set("neighborhood", dd.Name)
			return "/api/details/neighborhood_clients", q
		},
	},
	ModalEquipment: {
		RowsPerPage: EntityModalRowsPerPage,
		Title:       func(dd DrillDownContext) string { return "Cancelamentos com " + dd.Name },
		Request: func(dd DrillDownContext) (string, url.Values) {
			q := contextQuery(dd)
			q.Set("equipment_name", dd.Name)
			return "/api/details/equipment_clients", q
		},
		Columns: []Column{
			{Header: "Cliente", Key: "Cliente", Trigger: cancellationTrigger("Cliente")},
			{Header: "Contrato ID", Key: "Contrato_ID"},
			{Header: "Data Cancelamento", Key: "Data_cancelamento", Format: FormatDate},
			{Header: "Data Negativação", Key: "Data_negativacao", Format: FormatDate},
			{Header: "Cidade", Key: "Cidade"},
			{Header: "Permanência (Meses)", Key: "permanencia_meses"},
		},
	},
	ModalActiveEquipment: {
		RowsPerPage: EntityModalRowsPerPage,
		Title:       func(dd DrillDownContext) string { return "Clientes Ativos com " + dd.Name },
		Request: func(dd DrillDownContext) (string, url.Values) {
			q := url.Values{"equipment_name": {dd.Name}}
			if dd.Filters.City != "" {
				q.Set("city", dd.Filters.City)
			}
			return "/api/details/active_equipment_clients", q
		},
		Columns: []Column{
			{Header: "Cliente", Key: "Cliente"},
			{Header: "Contrato ID", Key: "Contrato_ID"},
			{Header: "Data Ativação", Key: "Data_ativa_o", Format: FormatDate},
			{Header: "Status Contrato", Key: "Status_contrato"},
			{Header: "Cidade", Key: "Cidade"},
		},
	},
	ModalSellerActivations: {
		RowsPerPage: EntityModalRowsPerPage,
		Title: func(dd DrillDownContext) string {
			return fmt.Sprintf("%s do Vendedor %s", typeLabel(dd.Type), dd.Name)
		},
		Request: func(dd DrillDownContext) (string, url.Values) {
			q := contextQuery(dd)
			q.Set("seller_id", dd.ID)
			return "/api/details/seller_activations", q
		},
		Columns: []Column{
			{Header: "Cliente", Key: "Cliente", Trigger: cancellationTrigger("Cliente")},
			{Header: "Contrato ID", Key: "Contrato_ID"},
			{Header: "Data Ativação", Key: "Data_ativa_o", Format: FormatDate},
			{Header: "Status Contrato", Key: "Status_contrato"},
			{Header: "Data Final (Churn)", Key: "end_date", Format: FormatDate},
			{Header: "Permanência (Meses)", Key: "permanencia_meses"},
		},
	},
	ModalDailyEvolution: {
		RowsPerPage: EntityModalRowsPerPage,
		Title: func(dd DrillDownContext) string {
			return fmt.Sprintf("Evolução em %s: %s", dd.Name, FormatDateText(dd.Filters.StartDate))
		},
		Request: func(dd DrillDownContext) (string, url.Values) {
			q := url.Values{}
			q.Set("start_date", dd.Filters.StartDate)
			q.Set("end_date", dd.Filters.EndDate)
			q.Set("city", dd.Name)
			return "/api/details/daily_evolution_details", q
		},
	},
}

// LookupModal returns the spec of a modal kind.
func LookupModal(kind ModalKind) (ModalSpec, error) {
	spec, ok := modalSpecs[kind]
	if !ok {
		return ModalSpec{}, fmt.Errorf("%w: %q", ErrUnknownModal, kind)
	}
	spec.Kind = kind
	return spec, nil
}

// paymentWithDelay renders the payment date followed by its distance to the due date.
func paymentWithDelay(row Row) string {
	paid := FormatDateText(stringValue(row["Data_pagamento"], ""))
	if paid == NotAvailable {
		return paid
	}
	days, ok := daysBetween(stringValue(row["Vencimento"], ""), stringValue(row["Data_pagamento"], ""))
	if !ok {
		return paid
	}
	switch {
	case days > 0:
		return fmt.Sprintf("%s (+%dd)", paid, days)
	case days < 0:
		return fmt.Sprintf("%s (%dd)", paid, days)
	default:
		return paid + " (0d)"
	}
}

// ModalView is the render-ready state of a modal.
type ModalView struct {
	Kind      ModalKind        `json:"kind"`
	Title     string           `json:"title"`
	State     ModalState       `json:"state"`
	ZIndex    int              `json:"z_index"`
	Context   DrillDownContext `json:"context"`
	Section   *SectionView     `json:"section,omitempty"`
	Tabs      []TabView        `json:"tabs,omitempty"`
	ActiveTab DetailTab        `json:"active_tab,omitempty"`
	Blocks    []SectionView    `json:"blocks,omitempty"`
	Notice    string           `json:"notice,omitempty"`
	Error     string           `json:"error,omitempty"`
}

type modal struct {
	spec    ModalSpec
	dd      DrillDownContext
	open    bool
	section *Section[Row]
	context *Section[Payload]
	details *TabbedDetails
}

// ModalStack owns every modal. Each kind keeps its own section and cursor for its
// whole lifetime; opening a kind replaces its context and resets it to page 1.
type ModalStack struct {
	gateway Gateway

	mu     sync.Mutex
	modals map[ModalKind]*modal
	stack  []ModalKind
}

// NewModalStack builds an empty stack over gw.
func NewModalStack(gw Gateway) *ModalStack {
	return &ModalStack{
		gateway: gw,
		modals:  make(map[ModalKind]*modal),
	}
}

// Open replaces the modal's context, resets it and loads its first page. Fetch failures
// are shown inside the modal and do not produce an error.
func (m *ModalStack) Open(ctx context.Context, kind ModalKind, dd DrillDownContext) (ModalView, error) {
	m.mu.Lock()
	md, err := m.modalLocked(kind)
	if err != nil {
		m.mu.Unlock()
		return ModalView{}, err
	}
	md.dd = dd
	md.open = true
	m.removeLocked(kind)
	m.stack = append(m.stack, kind)
	m.bindLocked(md)
	m.mu.Unlock()

	switch {
	case md.details != nil:
		tab, ok := ParseDetailTab(dd.Type)
		if !ok {
			tab = TabFinancial
		}
		if _, err := md.details.Activate(ctx, tab); err != nil && !isFetchFailure(err) {
			return ModalView{}, err
		}
	case md.context != nil:
		if _, err := md.context.GoToPage(ctx, 1); err != nil && !isFetchFailure(err) {
			return ModalView{}, err
		}
	default:
		if _, err := md.section.GoToPage(ctx, 1); err != nil && !isFetchFailure(err) {
			return ModalView{}, err
		}
	}
	return m.View(kind)
}

// Page moves an open modal's section to page n.
func (m *ModalStack) Page(ctx context.Context, kind ModalKind, n int) (LoadOutcome, ModalView, error) {
	md, err := m.openModal(kind)
	if err != nil {
		return LoadRejected, ModalView{}, err
	}
	var outcome LoadOutcome
	switch {
	case md.details != nil:
		outcome, err = md.details.Page(ctx, md.details.Active(), n)
	case md.section != nil:
		outcome, err = md.section.GoToPage(ctx, n)
	default:
		return LoadRejected, ModalView{}, fmt.Errorf("insights: modal %s is not paginated", kind)
	}
	if err != nil && !isFetchFailure(err) {
		return outcome, ModalView{}, err
	}
	view, err := m.View(kind)
	return outcome, view, err
}

// Reload refetches the current page of an open modal.
func (m *ModalStack) Reload(ctx context.Context, kind ModalKind) (LoadOutcome, ModalView, error) {
	md, err := m.openModal(kind)
	if err != nil {
		return LoadRejected, ModalView{}, err
	}
	var outcome LoadOutcome
	switch {
	case md.details != nil:
		outcome, err = md.details.Reload(ctx)
	case md.context != nil:
		outcome, err = md.context.Reload(ctx)
	default:
		outcome, err = md.section.Reload(ctx)
	}
	if err != nil && !isFetchFailure(err) {
		return outcome, ModalView{}, err
	}
	view, err := m.View(kind)
	return outcome, view, err
}

// SwitchTab activates a tab of the open details modal.
func (m *ModalStack) SwitchTab(ctx context.Context, tab DetailTab) (ModalView, error) {
	if _, ok := detailTabSpecs[tab]; !ok {
		return ModalView{}, fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	md, err := m.openModal(ModalDetails)
	if err != nil {
		return ModalView{}, err
	}
	if _, err := md.details.Activate(ctx, tab); err != nil && !isFetchFailure(err) {
		return ModalView{}, err
	}
	return m.View(ModalDetails)
}

// Close closes kind and anything stacked above it. Modals below stay open. Closing
// drops the context and content and invalidates requests still in flight.
func (m *ModalStack) Close(kind ModalKind) ([]ModalKind, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := -1
	for i, k := range m.stack {
		if k == kind {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrModalNotOpen, kind)
	}
	closed := append([]ModalKind(nil), m.stack[idx:]...)
	m.stack = m.stack[:idx]
	for i := len(closed) - 1; i >= 0; i-- {
		md := m.modals[closed[i]]
		md.open = false
		md.dd = DrillDownContext{}
		resetModal(md)
	}
	return closed, nil
}

// CloseAll closes every modal.
func (m *ModalStack) CloseAll() []ModalKind {
	m.mu.Lock()
	bottom := ModalKind("")
	if len(m.stack) > 0 {
		bottom = m.stack[0]
	}
	m.mu.Unlock()
	if bottom == "" {
		return nil
	}
	closed, _ := m.Close(bottom)
	return closed
}

// IsOpen reports whether kind is on the stack.
func (m *ModalStack) IsOpen(kind ModalKind) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexLocked(kind) >= 0
}

// Top returns the modal on top of the stack.
func (m *ModalStack) Top() (ModalKind, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.stack) == 0 {
		return "", false
	}
	return m.stack[len(m.stack)-1], true
}

// Open kinds in stacking order, bottom first.
func (m *ModalStack) Stack() []ModalKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ModalKind(nil), m.stack...)
}

// View renders one modal. Closed modals report ModalClosed.
func (m *ModalStack) View(kind ModalKind) (ModalView, error) {
	m.mu.Lock()
	md, ok := m.modals[kind]
	idx := m.indexLocked(kind)
	var snap modalSnapshot
	if ok && idx >= 0 {
		snap = modalSnapshot{spec: md.spec, dd: md.dd, z: modalBaseZIndex + idx*modalZIndexStep}
	}
	m.mu.Unlock()
	if !ok || idx < 0 {
		if _, err := LookupModal(kind); err != nil {
			return ModalView{}, err
		}
		return ModalView{Kind: kind, State: ModalClosed}, nil
	}
	return buildModalView(md, snap), nil
}

// Views renders every open modal, bottom first.
func (m *ModalStack) Views() []ModalView {
	kinds := m.Stack()
	views := make([]ModalView, 0, len(kinds))
	for _, kind := range kinds {
		if view, err := m.View(kind); err == nil {
			views = append(views, view)
		}
	}
	return views
}

func (m *ModalStack) openModal(kind ModalKind) (*modal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	md, ok := m.modals[kind]
	if !ok || !md.open {
		if _, err := LookupModal(kind); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrModalNotOpen, kind)
	}
	return md, nil
}

func (m *ModalStack) modalLocked(kind ModalKind) (*modal, error) {
	if md, ok := m.modals[kind]; ok {
		return md, nil
	}
	spec, err := LookupModal(kind)
	if err != nil {
		return nil, err
	}
	md := &modal{spec: spec}
	switch kind {
	case ModalDetails:
		md.details = NewTabbedDetails(m.gateway)
	case ModalCancellation:
		md.context = NewSection[Payload](string(kind), 0, nil)
	default:
		md.section = NewSection[Row](string(kind), spec.RowsPerPage, nil)
	}
	m.modals[kind] = md
	return md, nil
}

// bindLocked resets the modal and points its fetchers at the new context.
func (m *ModalStack) bindLocked(md *modal) {
	resetModal(md)
	dd := md.dd
	spec := md.spec
	switch {
	case md.details != nil:
		md.details.Bind(dd)
	case md.context != nil:
		path, query := spec.Request(dd)
		md.context.SetFetcher(func(ctx context.Context, _ PageRequest) (PageResult[Payload], error) {
			payload, err := m.gateway.Request(ctx, path, query)
			if err != nil {
				return PageResult[Payload]{}, err
			}
			return PageResult[Payload]{Rows: []Payload{payload}, TotalRows: 1, HasTotal: true}, nil
		})
	default:
		md.section.SetFetcher(RowFetcher(m.gateway, func() (string, url.Values) {
			return spec.Request(dd)
		}))
	}
}

func (m *ModalStack) removeLocked(kind ModalKind) {
	if idx := m.indexLocked(kind); idx >= 0 {
		m.stack = append(m.stack[:idx], m.stack[idx+1:]...)
	}
}

func (m *ModalStack) indexLocked(kind ModalKind) int {
	for i, k := range m.stack {
		if k == kind {
			return i
		}
	}
	return -1
}

func resetModal(md *modal) {
	switch {
	case md.details != nil:
		md.details.Reset()
	case md.context != nil:
		md.context.Reset()
	default:
		md.section.Reset()
	}
}

// RowFetcher adapts a gateway endpoint to a paginated row section.
func RowFetcher(gw Gateway, request func() (string, url.Values)) FetchPageFunc[Row] {
	return func(ctx context.Context, req PageRequest) (PageResult[Row], error) {
		path, query := request()
		payload, err := gw.Request(ctx, path, req.Apply(cloneValues(query)))
		if err != nil {
			return PageResult[Row]{}, err
		}
		total, ok := payload.TotalRows()
		return PageResult[Row]{Rows: payload.Data(), TotalRows: total, HasTotal: ok}, nil
	}
}

func cloneValues(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// modalSnapshot holds the fields of a modal that Open and Close rewrite, copied under
// the stack lock.
type modalSnapshot struct {
	spec ModalSpec
	dd   DrillDownContext
	z    int
}

// buildModalView renders md. Only its sections, which carry their own locks, are read
// outside the stack lock.
func buildModalView(md *modal, snap modalSnapshot) ModalView {
	view := ModalView{
		Kind:    snap.spec.Kind,
		Title:   snap.spec.Title(snap.dd),
		ZIndex:  snap.z,
		Context: snap.dd,
	}
	var status SectionStatus
	switch {
	case md.details != nil:
		view.Tabs = md.details.Views()
		view.ActiveTab = md.details.Active()
		for _, tab := range view.Tabs {
			if tab.Tab == view.ActiveTab {
				status = tab.Section.Status
				view.Error = tab.Section.Error
			}
		}
	case md.context != nil:
		state := md.context.State()
		status = state.Status
		view.Error = state.Error
		if status == StatusLoaded && len(state.Rows) > 0 {
			view.Blocks, view.Notice = cancellationBlocks(state.Rows[0])
		}
	default:
		section := md.section.View(view.Title, ColumnRenderer(snap.spec.Columns))
		view.Section = &section
		status = section.Status
		view.Error = section.Error
	}
	view.State = modalState(status)
	return view
}

func modalState(status SectionStatus) ModalState {
	switch status {
	case StatusLoaded:
		return ModalLoaded
	case StatusFailed:
		return ModalFailed
	default:
		return ModalLoading
	}
}

var cancellationSubTables = []struct {
	key     string
	title   string
	columns []Column
}{
	{"equipamentos", "Equipamentos em Comodato", []Column{
		{Header: "Produto", Key: "Descricao_produto"},
		{Header: "Status", Key: "Status_comodato"},
		{Header: "Data", Key: "Data", Format: FormatDate},
	}},
	{"os", "Ordens de Serviço", []Column{
		{Header: "ID", Key: "ID"},
		{Header: "Abertura", Key: "Abertura", Format: FormatDate},
		{Header: "Assunto", Key: "Assunto"},
		{Header: "Mensagem", Key: "Mensagem"},
	}},
	{"atendimentos", "Atendimentos", []Column{
		{Header: "ID", Key: "ID"},
		{Header: "Criado em", Key: "Criado_em", Format: FormatDate},
		{Header: "Assunto", Key: "Assunto"},
		{Header: "Novo Status", Key: "Novo_status"},
		{Header: "Descrição", Key: "Descri_o"},
	}},
}

// cancellationBlocks renders the non-empty sub-tables, or a notice when all are empty.
func cancellationBlocks(payload Payload) ([]SectionView, string) {
	var blocks []SectionView
	for _, sub := range cancellationSubTables {
		rows := payload.Rows(sub.key)
		if len(rows) == 0 {
			continue
		}
		headers, cells := RenderTable(sub.columns, rows)
		blocks = append(blocks, SectionView{
			ID:      sub.key,
			Title:   sub.title,
			Status:  StatusLoaded,
			Columns: headers,
			Rows:    cells,
		})
	}
	if len(blocks) == 0 {
		return nil, cancellationEmptyNotice
	}
	return blocks, ""
}
