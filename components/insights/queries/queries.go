package queries

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-insights/components/insights"
)

// ErrUnknownSession is returned when a query names a session the hub does not hold.
var ErrUnknownSession = errors.New("queries: unknown session")

// Sessions resolves a session id to its controller.
type Sessions interface {
	Get(id string) (*insights.Controller, bool)
}

func resolve(sessions Sessions, id string) (*insights.Controller, error) {
	if sessions == nil {
		return nil, errors.New("queries: sessions not configured")
	}
	controller, ok := sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSession, id)
	}
	return controller, nil
}

// SessionInput names a session.
type SessionInput struct {
	Session string `json:"session"`
}

// SnapshotQuery renders a session's whole view state.
type SnapshotQuery struct {
	sessions Sessions
}

// NewSnapshotQuery builds the query.
func NewSnapshotQuery(sessions Sessions) *SnapshotQuery {
	return &SnapshotQuery{sessions: sessions}
}

var _ gocommand.Querier[SessionInput, insights.DashboardView] = (*SnapshotQuery)(nil)

// Query returns the snapshot.
func (q *SnapshotQuery) Query(_ context.Context, in SessionInput) (insights.DashboardView, error) {
	controller, err := resolve(q.sessions, in.Session)
	if err != nil {
		return insights.DashboardView{}, err
	}
	return controller.Snapshot(), nil
}

// ModalInput names one modal of a session.
type ModalInput struct {
	Session string `json:"session"`
	Modal   string `json:"modal"`
}

// ModalQuery renders one modal.
type ModalQuery struct {
	sessions Sessions
}

// NewModalQuery builds the query.
func NewModalQuery(sessions Sessions) *ModalQuery {
	return &ModalQuery{sessions: sessions}
}

var _ gocommand.Querier[ModalInput, insights.ModalView] = (*ModalQuery)(nil)

// Query returns the modal view. Closed modals report the closed state.
func (q *ModalQuery) Query(_ context.Context, in ModalInput) (insights.ModalView, error) {
	controller, err := resolve(q.sessions, in.Session)
	if err != nil {
		return insights.ModalView{}, err
	}
	kind, err := insights.ParseModalKind(in.Modal)
	if err != nil {
		return insights.ModalView{}, err
	}
	return controller.Modals().View(kind)
}

// LayoutResult is the saved layout of a session's current scope.
type LayoutResult struct {
	Placements []insights.WidgetPlacement `json:"placements"`
	Saved      bool                       `json:"saved"`
}

// LayoutQuery reads the saved layout, falling back to the live grid.
type LayoutQuery struct {
	sessions Sessions
}

// NewLayoutQuery builds the query.
func NewLayoutQuery(sessions Sessions) *LayoutQuery {
	return &LayoutQuery{sessions: sessions}
}

var _ gocommand.Querier[SessionInput, LayoutResult] = (*LayoutQuery)(nil)

// Query loads the layout.
func (q *LayoutQuery) Query(ctx context.Context, in SessionInput) (LayoutResult, error) {
	controller, err := resolve(q.sessions, in.Session)
	if err != nil {
		return LayoutResult{}, err
	}
	placements, ok, err := controller.LoadLayout(ctx)
	if err != nil {
		return LayoutResult{}, err
	}
	if !ok {
		placements = controller.Charts().Grid().Placements()
	}
	return LayoutResult{Placements: placements, Saved: ok}, nil
}

// ExportInput selects the table to export: "analysis" or an open modal kind.
type ExportInput struct {
	Session string `json:"session"`
	Scope   string `json:"scope"`
}

// ExportQuery flattens a visible table.
type ExportQuery struct {
	sessions Sessions
}

// NewExportQuery builds the query.
func NewExportQuery(sessions Sessions) *ExportQuery {
	return &ExportQuery{sessions: sessions}
}

var _ gocommand.Querier[ExportInput, insights.ExportTable] = (*ExportQuery)(nil)

// Query returns the table.
func (q *ExportQuery) Query(_ context.Context, in ExportInput) (insights.ExportTable, error) {
	controller, err := resolve(q.sessions, in.Session)
	if err != nil {
		return insights.ExportTable{}, err
	}
	return controller.ExportTable(in.Scope)
}
