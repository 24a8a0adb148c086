package httpapi

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-insights/components/insights"
	"github.com/goliatone/go-insights/components/insights/commands"
	"github.com/goliatone/go-insights/components/insights/queries"
)

var errMissingCommander = errors.New("httpapi: commander not configured")

// Executor runs state-changing commands for the transports.
type Executor interface {
	SelectCollection(ctx context.Context, in commands.SelectCollectionInput) error
	ApplyFilter(ctx context.Context, in commands.ApplyFilterInput) error
	RunAnalysis(ctx context.Context, in commands.RunAnalysisInput) error
	AnalysisPage(ctx context.Context, in commands.AnalysisPageInput) error
	AnalysisTab(ctx context.Context, in commands.AnalysisTabInput) error
	OpenModal(ctx context.Context, in commands.OpenModalInput) error
	ModalPage(ctx context.Context, in commands.ModalPageInput) error
	SwitchTab(ctx context.Context, in commands.SwitchTabInput) error
	CloseModal(ctx context.Context, in commands.CloseModalInput) error
	ChartClick(ctx context.Context, in commands.ChartClickInput) error
	SetVariant(ctx context.Context, in commands.SetVariantInput) error
	ToggleSeries(ctx context.Context, in commands.ToggleSeriesInput) error
	SaveLayout(ctx context.Context, in commands.SaveLayoutInput) error
}

// CommandExecutor adapts go-command commanders to Executor.
type CommandExecutor struct {
	SelectCollectionCommander gocommand.Commander[commands.SelectCollectionInput]
	ApplyFilterCommander      gocommand.Commander[commands.ApplyFilterInput]
	RunAnalysisCommander      gocommand.Commander[commands.RunAnalysisInput]
	AnalysisPageCommander     gocommand.Commander[commands.AnalysisPageInput]
	AnalysisTabCommander      gocommand.Commander[commands.AnalysisTabInput]
	OpenModalCommander        gocommand.Commander[commands.OpenModalInput]
	ModalPageCommander        gocommand.Commander[commands.ModalPageInput]
	SwitchTabCommander        gocommand.Commander[commands.SwitchTabInput]
	CloseModalCommander       gocommand.Commander[commands.CloseModalInput]
	ChartClickCommander       gocommand.Commander[commands.ChartClickInput]
	SetVariantCommander       gocommand.Commander[commands.SetVariantInput]
	ToggleSeriesCommander     gocommand.Commander[commands.ToggleSeriesInput]
	SaveLayoutCommander       gocommand.Commander[commands.SaveLayoutInput]
}

// NewCommandExecutor wires every command over sessions.
func NewCommandExecutor(sessions commands.Sessions, telemetry commands.Telemetry) *CommandExecutor {
	return &CommandExecutor{
		SelectCollectionCommander: commands.NewSelectCollectionCommand(sessions, telemetry),
		ApplyFilterCommander:      commands.NewApplyFilterCommand(sessions, telemetry),
		RunAnalysisCommander:      commands.NewRunAnalysisCommand(sessions, telemetry),
		AnalysisPageCommander:     commands.NewAnalysisPageCommand(sessions),
		AnalysisTabCommander:      commands.NewAnalysisTabCommand(sessions),
		OpenModalCommander:        commands.NewOpenModalCommand(sessions, telemetry),
		ModalPageCommander:        commands.NewModalPageCommand(sessions),
		SwitchTabCommander:        commands.NewSwitchTabCommand(sessions),
		CloseModalCommander:       commands.NewCloseModalCommand(sessions, telemetry),
		ChartClickCommander:       commands.NewChartClickCommand(sessions),
		SetVariantCommander:       commands.NewSetVariantCommand(sessions),
		ToggleSeriesCommander:     commands.NewToggleSeriesCommand(sessions),
		SaveLayoutCommander:       commands.NewSaveLayoutCommand(sessions, telemetry),
	}
}

var _ Executor = (*CommandExecutor)(nil)

func execute[T any](ctx context.Context, cmd gocommand.Commander[T], in T) error {
	if cmd == nil {
		return errMissingCommander
	}
	return cmd.Execute(ctx, in)
}

func (e *CommandExecutor) SelectCollection(ctx context.Context, in commands.SelectCollectionInput) error {
	return execute(ctx, e.SelectCollectionCommander, in)
}

func (e *CommandExecutor) ApplyFilter(ctx context.Context, in commands.ApplyFilterInput) error {
	return execute(ctx, e.ApplyFilterCommander, in)
}

func (e *CommandExecutor) RunAnalysis(ctx context.Context, in commands.RunAnalysisInput) error {
	return execute(ctx, e.RunAnalysisCommander, in)
}

func (e *CommandExecutor) AnalysisPage(ctx context.Context, in commands.AnalysisPageInput) error {
	return execute(ctx, e.AnalysisPageCommander, in)
}

func (e *CommandExecutor) AnalysisTab(ctx context.Context, in commands.AnalysisTabInput) error {
	return execute(ctx, e.AnalysisTabCommander, in)
}

func (e *CommandExecutor) OpenModal(ctx context.Context, in commands.OpenModalInput) error {
	return execute(ctx, e.OpenModalCommander, in)
}

func (e *CommandExecutor) ModalPage(ctx context.Context, in commands.ModalPageInput) error {
	return execute(ctx, e.ModalPageCommander, in)
}

func (e *CommandExecutor) SwitchTab(ctx context.Context, in commands.SwitchTabInput) error {
	return execute(ctx, e.SwitchTabCommander, in)
}

func (e *CommandExecutor) CloseModal(ctx context.Context, in commands.CloseModalInput) error {
	return execute(ctx, e.CloseModalCommander, in)
}

func (e *CommandExecutor) ChartClick(ctx context.Context, in commands.ChartClickInput) error {
	return execute(ctx, e.ChartClickCommander, in)
}

func (e *CommandExecutor) SetVariant(ctx context.Context, in commands.SetVariantInput) error {
	return execute(ctx, e.SetVariantCommander, in)
}

func (e *CommandExecutor) ToggleSeries(ctx context.Context, in commands.ToggleSeriesInput) error {
	return execute(ctx, e.ToggleSeriesCommander, in)
}

func (e *CommandExecutor) SaveLayout(ctx context.Context, in commands.SaveLayoutInput) error {
	return execute(ctx, e.SaveLayoutCommander, in)
}

// Reader serves read-only views.
type Reader interface {
	Snapshot(ctx context.Context, in queries.SessionInput) (insights.DashboardView, error)
	Modal(ctx context.Context, in queries.ModalInput) (insights.ModalView, error)
	Layout(ctx context.Context, in queries.SessionInput) (queries.LayoutResult, error)
	Export(ctx context.Context, in queries.ExportInput) (insights.ExportTable, error)
}

// QueryReader adapts go-command queriers to Reader.
type QueryReader struct {
	SnapshotQuerier gocommand.Querier[queries.SessionInput, insights.DashboardView]
	ModalQuerier    gocommand.Querier[queries.ModalInput, insights.ModalView]
	LayoutQuerier   gocommand.Querier[queries.SessionInput, queries.LayoutResult]
	ExportQuerier   gocommand.Querier[queries.ExportInput, insights.ExportTable]
}

// NewQueryReader wires every query over sessions.
func NewQueryReader(sessions queries.Sessions) *QueryReader {
	return &QueryReader{
		SnapshotQuerier: queries.NewSnapshotQuery(sessions),
		ModalQuerier:    queries.NewModalQuery(sessions),
		LayoutQuerier:   queries.NewLayoutQuery(sessions),
		ExportQuerier:   queries.NewExportQuery(sessions),
	}
}

var _ Reader = (*QueryReader)(nil)

func (r *QueryReader) Snapshot(ctx context.Context, in queries.SessionInput) (insights.DashboardView, error) {
	return r.SnapshotQuerier.Query(ctx, in)
}

func (r *QueryReader) Modal(ctx context.Context, in queries.ModalInput) (insights.ModalView, error) {
	return r.ModalQuerier.Query(ctx, in)
}

func (r *QueryReader) Layout(ctx context.Context, in queries.SessionInput) (queries.LayoutResult, error) {
	return r.LayoutQuerier.Query(ctx, in)
}

func (r *QueryReader) Export(ctx context.Context, in queries.ExportInput) (insights.ExportTable, error) {
	return r.ExportQuerier.Query(ctx, in)
}
