package insights

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// DetailTab is one tab of the unified contract details modal.
type DetailTab string

const (
	TabFinancial     DetailTab = "financeiro"
	TabServiceOrders DetailTab = "os"
	TabSupport       DetailTab = "atendimentos"
	TabLogins        DetailTab = "logins"
	TabLoan          DetailTab = "comodato"
)

var detailTabOrder = []DetailTab{TabFinancial, TabServiceOrders, TabSupport, TabLogins, TabLoan}

// ParseDetailTab accepts tab names and the legacy trigger aliases.
func ParseDetailTab(value string) (DetailTab, bool) {
	switch strings.TrimSpace(value) {
	case "financeiro", "financial":
		return TabFinancial, true
	case "os", "complaints":
		return TabServiceOrders, true
	case "atendimentos":
		return TabSupport, true
	case "logins":
		return TabLogins, true
	case "comodato":
		return TabLoan, true
	default:
		return "", false
	}
}

// Label is the tab caption.
func (t DetailTab) Label() string {
	switch t {
	case TabFinancial:
		return "Financeiro"
	case TabServiceOrders:
		return "OS"
	case TabSupport:
		return "Atendimentos"
	case TabLogins:
		return "Logins"
	case TabLoan:
		return "Comodato"
	default:
		return string(t)
	}
}

type detailTabSpec struct {
	rowsPerPage int
	columns     []Column
	request     func(DrillDownContext) (string, url.Values)
}

var detailTabSpecs = map[DetailTab]detailTabSpec{
	TabFinancial: {
		rowsPerPage: DetailsRowsPerPage,
		request: func(dd DrillDownContext) (string, url.Values) {
			return "/api/details/financial/" + url.PathEscape(dd.ID), url.Values{}
		},
		columns: []Column{
			{Header: "ID", Key: "ID"},
			{Header: "Parcela", Key: "Parcela_R"},
			{Header: "Emissão", Key: "Emissao", Format: FormatDate},
			{Header: "Vencimento", Key: "Vencimento", Format: FormatDate},
			{Header: "Data Pagamento", Key: "Data_pagamento", Render: paymentWithDelay},
			{Header: "Valor", Key: "Valor", Format: FormatCurrency},
			{Header: "Status", Key: "Status"},
		},
	},
	TabServiceOrders: {
		rowsPerPage: DetailsRowsPerPage,
		request: func(dd DrillDownContext) (string, url.Values) {
			return "/api/details/complaints/" + url.PathEscape(dd.Name), url.Values{"type": {"os"}}
		},
		columns: []Column{
			{Header: "ID", Key: "ID"},
			{Header: "Abertura", Key: "Abertura", Format: FormatDate},
			{Header: "Assunto", Key: "Assunto"},
			{Header: "Status", Key: "Status"},
		},
	},
	TabSupport: {
		rowsPerPage: DetailsRowsPerPage,
		request: func(dd DrillDownContext) (string, url.Values) {
			return "/api/details/complaints/" + url.PathEscape(dd.Name), url.Values{"type": {"atendimentos"}}
		},
		columns: []Column{
			{Header: "ID", Key: "ID"},
			{Header: "Criado em", Key: "Criado_em", Format: FormatDate},
			{Header: "Assunto", Key: "Assunto"},
			{Header: "Novo Status", Key: "Novo_status"},
		},
	},
	TabLogins: {
		rowsPerPage: DetailsRowsPerPage,
		request: func(dd DrillDownContext) (string, url.Values) {
			return "/api/details/logins/" + url.PathEscape(dd.ID), url.Values{}
		},
		columns: []Column{
			{Header: "Login", Key: "Login"},
			{Header: "Última Conexão", Key: "ltima_conex_o_inicial", Format: FormatDate},
			{Header: "Sinal RX", Key: "Sinal_RX"},
			{Header: "ONU", Key: "ONU_tipo"},
			{Header: "IPv4", Key: "IPV4"},
			{Header: "Transmissor", Key: "Transmissor"},
		},
	},
	TabLoan: {
		request: func(dd DrillDownContext) (string, url.Values) {
			return "/api/details/comodato/" + url.PathEscape(dd.ID), url.Values{}
		},
		columns: []Column{
			{Header: "Produto", Key: "Descricao_produto"},
			{Header: "Status", Key: "Status_comodato"},
		},
	},
}

// TabView is the render-ready state of one tab.
type TabView struct {
	Tab       DetailTab   `json:"tab"`
	Label     string      `json:"label"`
	Active    bool        `json:"active"`
	Activated bool        `json:"activated"`
	Section   SectionView `json:"section"`
}

// TabbedDetails is the unified contract details modal. Every tab is an independent
// section that fetches its first page on first activation and keeps its content until
// the modal is reset.
type TabbedDetails struct {
	gateway Gateway
	tabs    map[DetailTab]*Section[Row]

	mu        sync.Mutex
	dd        DrillDownContext
	active    DetailTab
	activated map[DetailTab]bool
}

// NewTabbedDetails builds the tab set over gw.
func NewTabbedDetails(gw Gateway) *TabbedDetails {
	d := &TabbedDetails{
		gateway:   gw,
		tabs:      make(map[DetailTab]*Section[Row], len(detailTabOrder)),
		active:    TabFinancial,
		activated: make(map[DetailTab]bool),
	}
	for _, tab := range detailTabOrder {
		d.tabs[tab] = NewSection[Row]("details_"+string(tab), detailTabSpecs[tab].rowsPerPage, nil)
	}
	return d
}

// Bind points every tab at a new contract.
func (d *TabbedDetails) Bind(dd DrillDownContext) {
	d.mu.Lock()
	d.dd = dd
	d.mu.Unlock()
	for _, tab := range detailTabOrder {
		request := detailTabSpecs[tab].request
		d.tabs[tab].SetFetcher(RowFetcher(d.gateway, func() (string, url.Values) {
			return request(dd)
		}))
	}
}

// Reset clears every tab and forgets which tabs were activated.
func (d *TabbedDetails) Reset() {
	d.mu.Lock()
	d.active = TabFinancial
	d.activated = make(map[DetailTab]bool)
	d.dd = DrillDownContext{}
	d.mu.Unlock()
	for _, tab := range detailTabOrder {
		d.tabs[tab].Reset()
	}
}

// Activate shows tab, fetching its first page only the first time it is activated.
func (d *TabbedDetails) Activate(ctx context.Context, tab DetailTab) (bool, error) {
	section, ok := d.tabs[tab]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	d.mu.Lock()
	d.active = tab
	first := !d.activated[tab]
	d.activated[tab] = true
	d.mu.Unlock()
	if !first {
		return false, nil
	}
	_, err := section.GoToPage(ctx, 1)
	return true, err
}

// Active returns the visible tab.
func (d *TabbedDetails) Active() DetailTab {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Page moves a tab to page n.
func (d *TabbedDetails) Page(ctx context.Context, tab DetailTab, n int) (LoadOutcome, error) {
	section, ok := d.tabs[tab]
	if !ok {
		return LoadRejected, fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	return section.GoToPage(ctx, n)
}

// Reload refetches the active tab.
func (d *TabbedDetails) Reload(ctx context.Context) (LoadOutcome, error) {
	return d.tabs[d.Active()].Reload(ctx)
}

// Views renders every tab in display order.
func (d *TabbedDetails) Views() []TabView {
	d.mu.Lock()
	active := d.active
	activated := make(map[DetailTab]bool, len(d.activated))
	for k, v := range d.activated {
		activated[k] = v
	}
	d.mu.Unlock()
	views := make([]TabView, 0, len(detailTabOrder))
	for _, tab := range detailTabOrder {
		views = append(views, TabView{
			Tab:       tab,
			Label:     tab.Label(),
			Active:    tab == active,
			Activated: activated[tab],
			Section:   d.tabs[tab].View(tab.Label(), ColumnRenderer(detailTabSpecs[tab].columns)),
		})
	}
	return views
}
