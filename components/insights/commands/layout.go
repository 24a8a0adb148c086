package commands

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-insights/components/insights"
)

// SaveLayoutInput persists the widget grid of the session's current scope.
type SaveLayoutInput struct {
	Session    string                     `json:"session"`
	Placements []insights.WidgetPlacement `json:"placements"`
}

// SaveLayoutCommand validates and stores layouts.
type SaveLayoutCommand struct {
	sessions  Sessions
	telemetry Telemetry
}

// NewSaveLayoutCommand creates the command.
func NewSaveLayoutCommand(sessions Sessions, telemetry Telemetry) *SaveLayoutCommand {
	return &SaveLayoutCommand{sessions: sessions, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveLayoutInput] = (*SaveLayoutCommand)(nil)

// Execute saves the placements.
func (c *SaveLayoutCommand) Execute(ctx context.Context, msg SaveLayoutInput) error {
	controller, err := resolve(c.sessions, msg.Session)
	if err != nil {
		return err
	}
	saved, err := controller.SaveLayout(ctx, msg.Placements)
	if err != nil {
		return err
	}
	recordCommand(ctx, c.telemetry, "save_layout", msg.Session, map[string]any{
		"widgets": len(saved),
	})
	return nil
}
