package insights

import "fmt"

// EmptyMessage is shown instead of a table when a section returns zero rows.
const EmptyMessage = "Nenhum dado encontrado."

// Trigger turns a table cell or chart point into a typed drill-down command.
type Trigger struct {
	Modal   ModalKind        `json:"modal"`
	Context DrillDownContext `json:"context"`
}

// Cell is one rendered table value.
type Cell struct {
	Text    string   `json:"text"`
	Tooltip string   `json:"tooltip,omitempty"`
	Trigger *Trigger `json:"trigger,omitempty"`
}

// Pager describes the pagination controls of a section.
type Pager struct {
	Visible      bool   `json:"visible"`
	Page         int    `json:"page"`
	TotalPages   int    `json:"total_pages"`
	TotalRows    int    `json:"total_rows"`
	PrevDisabled bool   `json:"prev_disabled"`
	NextDisabled bool   `json:"next_disabled"`
	Info         string `json:"info,omitempty"`
}

// SectionView is the render-ready state of a section.
type SectionView struct {
	ID           string        `json:"id"`
	Title        string        `json:"title,omitempty"`
	Status       SectionStatus `json:"status"`
	Loading      bool          `json:"loading"`
	Error        string        `json:"error,omitempty"`
	Columns      []string      `json:"columns,omitempty"`
	Rows         [][]Cell      `json:"rows,omitempty"`
	Empty        bool          `json:"empty"`
	EmptyMessage string        `json:"empty_message,omitempty"`
	Pager        Pager         `json:"pager"`
}

// TableRenderer turns a page of rows into headers and cells.
type TableRenderer[R any] func(rows []R) ([]string, [][]Cell)

// BuildPager hides the controls whenever there is at most one page.
func BuildPager(c PageCursor) Pager {
	pages := c.TotalPages()
	if !c.Known || pages <= 1 {
		return Pager{Page: c.Page, TotalPages: pages, TotalRows: c.TotalRows, PrevDisabled: true, NextDisabled: true}
	}
	return Pager{
		Visible:      true,
		Page:         c.Page,
		TotalPages:   pages,
		TotalRows:    c.TotalRows,
		PrevDisabled: c.Page <= 1,
		NextDisabled: c.Page >= pages,
		Info:         fmt.Sprintf("Página %d de %d", c.Page, pages),
	}
}

// View renders the section with the given renderer.
func (s *Section[R]) View(title string, render TableRenderer[R]) SectionView {
	return BuildSectionView(s.State(), title, render)
}

// BuildSectionView renders a section snapshot.
func BuildSectionView[R any](state SectionState[R], title string, render TableRenderer[R]) SectionView {
	view := SectionView{
		ID:     state.ID,
		Title:  title,
		Status: state.Status,
	}
	switch state.Status {
	case StatusLoading:
		view.Loading = true
		return view
	case StatusFailed:
		view.Error = state.Error
		if state.Paginated {
			view.Pager = BuildPager(state.Cursor)
		}
		return view
	case StatusIdle:
		return view
	}
	if len(state.Rows) == 0 {
		view.Empty = true
		view.EmptyMessage = EmptyMessage
		return view
	}
	if render != nil {
		view.Columns, view.Rows = render(state.Rows)
	}
	if state.Paginated {
		view.Pager = BuildPager(state.Cursor)
	}
	return view
}
