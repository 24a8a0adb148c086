package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-insights/components/insights"
)

// RunAnalysisInput starts a custom analysis. Params are filter fields applied first.
// Tab opens a given pane of a tabbed analysis.
type RunAnalysisInput struct {
	Session  string            `json:"session"`
	Name     string            `json:"name"`
	Tab      string            `json:"tab,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
	FullView bool              `json:"full_view,omitempty"`
}

// RunAnalysisCommand runs a catalog analysis.
type RunAnalysisCommand struct {
	sessions  Sessions
	telemetry Telemetry
}

// NewRunAnalysisCommand creates the command.
func NewRunAnalysisCommand(sessions Sessions, telemetry Telemetry) *RunAnalysisCommand {
	return &RunAnalysisCommand{sessions: sessions, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RunAnalysisInput] = (*RunAnalysisCommand)(nil)

// Execute validates params and delegates to the controller.
func (c *RunAnalysisCommand) Execute(ctx context.Context, msg RunAnalysisInput) error {
	controller, err := resolve(c.sessions, msg.Session)
	if err != nil {
		return err
	}
	params := make(map[insights.FilterField]string, len(msg.Params))
	for name, value := range msg.Params {
		field, err := insights.ParseFilterField(name)
		if err != nil {
			return err
		}
		params[field] = value
	}
	if msg.FullView {
		if len(params) > 0 || msg.Tab != "" {
			return errors.New("commands: full view reuses the current filters and tab")
		}
		_, err = controller.FullView(ctx, msg.Name)
	} else {
		_, err = controller.RunAnalysisTab(ctx, msg.Name, msg.Tab, params)
	}
	if err != nil {
		return err
	}
	recordCommand(ctx, c.telemetry, "run_analysis", msg.Session, map[string]any{
		"analysis":  msg.Name,
		"tab":       msg.Tab,
		"full_view": msg.FullView,
	})
	return nil
}

// AnalysisTabInput switches the pane of the active tabbed analysis.
type AnalysisTabInput struct {
	Session string `json:"session"`
	Tab     string `json:"tab"`
}

// AnalysisTabCommand switches analysis panes.
type AnalysisTabCommand struct {
	sessions Sessions
}

// NewAnalysisTabCommand creates the command.
func NewAnalysisTabCommand(sessions Sessions) *AnalysisTabCommand {
	return &AnalysisTabCommand{sessions: sessions}
}

var _ gocommand.Commander[AnalysisTabInput] = (*AnalysisTabCommand)(nil)

// Execute loads the pane.
func (c *AnalysisTabCommand) Execute(ctx context.Context, msg AnalysisTabInput) error {
	controller, err := resolve(c.sessions, msg.Session)
	if err != nil {
		return err
	}
	if strings.TrimSpace(msg.Tab) == "" {
		return fmt.Errorf("%w: tab is required", insights.ErrUnknownTab)
	}
	_, err = controller.SwitchAnalysisTab(ctx, msg.Tab)
	return err
}

// AnalysisPageInput moves the active table analysis to a page.
type AnalysisPageInput struct {
	Session string `json:"session"`
	Page    int    `json:"page"`
}

// AnalysisPageCommand paginates the active analysis.
type AnalysisPageCommand struct {
	sessions Sessions
}

// NewAnalysisPageCommand creates the command.
func NewAnalysisPageCommand(sessions Sessions) *AnalysisPageCommand {
	return &AnalysisPageCommand{sessions: sessions}
}

var _ gocommand.Commander[AnalysisPageInput] = (*AnalysisPageCommand)(nil)

// Execute loads the page. Out of range pages are ignored.
func (c *AnalysisPageCommand) Execute(ctx context.Context, msg AnalysisPageInput) error {
	controller, err := resolve(c.sessions, msg.Session)
	if err != nil {
		return err
	}
	_, _, err = controller.AnalysisPage(ctx, msg.Page)
	return err
}
