package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// ChartClickInput is a click on a plotted point.
type ChartClickInput struct {
	Session  string `json:"session"`
	Canvas   string `json:"canvas"`
	Category int    `json:"category"`
	Series   int    `json:"series"`
}

// ChartClickCommand turns chart clicks into drill-downs.
type ChartClickCommand struct {
	sessions Sessions
}

// NewChartClickCommand creates the command.
func NewChartClickCommand(sessions Sessions) *ChartClickCommand {
	return &ChartClickCommand{sessions: sessions}
}

var _ gocommand.Commander[ChartClickInput] = (*ChartClickCommand)(nil)

// Execute opens the mapped modal. Clicks that map to nothing are ignored.
func (c *ChartClickCommand) Execute(ctx context.Context, msg ChartClickInput) error {
	controller, err := resolve(c.sessions, msg.Session)
	if err != nil {
		return err
	}
	_, _, err = controller.ChartClick(ctx, msg.Canvas, msg.Category, msg.Series)
	return err
}

// SetVariantInput selects a chart variant of one widget.
type SetVariantInput struct {
	Session string `json:"session"`
	Canvas  string `json:"canvas"`
	Variant string `json:"variant"`
}

// SetVariantCommand rerenders one widget.
type SetVariantCommand struct {
	sessions Sessions
}

// NewSetVariantCommand creates the command.
func NewSetVariantCommand(sessions Sessions) *SetVariantCommand {
	return &SetVariantCommand{sessions: sessions}
}

var _ gocommand.Commander[SetVariantInput] = (*SetVariantCommand)(nil)

// Execute rebuilds the widget with the variant.
func (c *SetVariantCommand) Execute(ctx context.Context, msg SetVariantInput) error {
	controller, err := resolve(c.sessions, msg.Session)
	if err != nil {
		return err
	}
	if msg.Canvas == "" {
		return errors.New("commands: canvas is required")
	}
	_, err = controller.SetChartVariant(ctx, msg.Canvas, msg.Variant)
	return err
}

// ToggleSeriesInput shows or hides one dataset.
type ToggleSeriesInput struct {
	Session string `json:"session"`
	Canvas  string `json:"canvas"`
	Series  string `json:"series"`
	Visible bool   `json:"visible"`
}

// ToggleSeriesCommand toggles legend entries.
type ToggleSeriesCommand struct {
	sessions Sessions
}

// NewToggleSeriesCommand creates the command.
func NewToggleSeriesCommand(sessions Sessions) *ToggleSeriesCommand {
	return &ToggleSeriesCommand{sessions: sessions}
}

var _ gocommand.Commander[ToggleSeriesInput] = (*ToggleSeriesCommand)(nil)

// Execute toggles the series.
func (c *ToggleSeriesCommand) Execute(ctx context.Context, msg ToggleSeriesInput) error {
	controller, err := resolve(c.sessions, msg.Session)
	if err != nil {
		return err
	}
	_, err = controller.ToggleSeries(ctx, msg.Canvas, msg.Series, msg.Visible)
	return err
}
