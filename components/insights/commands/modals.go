package commands

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-insights/components/insights"
)

// OpenModalInput opens a drill-down modal from a typed trigger.
type OpenModalInput struct {
	Session string           `json:"session"`
	Trigger insights.Trigger `json:"trigger"`
}

// OpenModalCommand dispatches every drill-down through one entry point.
type OpenModalCommand struct {
	sessions  Sessions
	telemetry Telemetry
}

// NewOpenModalCommand creates the command.
func NewOpenModalCommand(sessions Sessions, telemetry Telemetry) *OpenModalCommand {
	return &OpenModalCommand{sessions: sessions, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[OpenModalInput] = (*OpenModalCommand)(nil)

// Execute opens the modal. The table modal always targets the active collection.
func (c *OpenModalCommand) Execute(ctx context.Context, msg OpenModalInput) error {
	controller, err := resolve(c.sessions, msg.Session)
	if err != nil {
		return err
	}
	kind, err := insights.ParseModalKind(string(msg.Trigger.Modal))
	if err != nil {
		return err
	}
	if kind == insights.ModalTable {
		_, err = controller.OpenTable(ctx)
	} else {
		msg.Trigger.Modal = kind
		_, err = controller.OpenDrillDown(ctx, msg.Trigger)
	}
	if err != nil {
		return err
	}
	recordCommand(ctx, c.telemetry, "open_modal", msg.Session, map[string]any{
		"modal": string(kind),
	})
	return nil
}

// ModalPageInput pages an open modal. Reload retries the current page instead.
type ModalPageInput struct {
	Session string `json:"session"`
	Modal   string `json:"modal"`
	Page    int    `json:"page"`
	Reload  bool   `json:"reload,omitempty"`
}

// ModalPageCommand paginates a modal.
type ModalPageCommand struct {
	sessions Sessions
}

// NewModalPageCommand creates the command.
func NewModalPageCommand(sessions Sessions) *ModalPageCommand {
	return &ModalPageCommand{sessions: sessions}
}

var _ gocommand.Commander[ModalPageInput] = (*ModalPageCommand)(nil)

// Execute loads the requested page.
func (c *ModalPageCommand) Execute(ctx context.Context, msg ModalPageInput) error {
	controller, err := resolve(c.sessions, msg.Session)
	if err != nil {
		return err
	}
	kind, err := insights.ParseModalKind(msg.Modal)
	if err != nil {
		return err
	}
	if msg.Reload {
		_, err = controller.ReloadModal(ctx, kind)
		return err
	}
	_, _, err = controller.ModalPage(ctx, kind, msg.Page)
	return err
}

// SwitchTabInput activates a tab of the details modal.
type SwitchTabInput struct {
	Session string `json:"session"`
	Tab     string `json:"tab"`
}

// SwitchTabCommand switches details tabs.
type SwitchTabCommand struct {
	sessions Sessions
}

// NewSwitchTabCommand creates the command.
func NewSwitchTabCommand(sessions Sessions) *SwitchTabCommand {
	return &SwitchTabCommand{sessions: sessions}
}

var _ gocommand.Commander[SwitchTabInput] = (*SwitchTabCommand)(nil)

// Execute activates the tab.
func (c *SwitchTabCommand) Execute(ctx context.Context, msg SwitchTabInput) error {
	controller, err := resolve(c.sessions, msg.Session)
	if err != nil {
		return err
	}
	tab, ok := insights.ParseDetailTab(msg.Tab)
	if !ok {
		return insights.ErrUnknownTab
	}
	_, err = controller.SwitchTab(ctx, tab)
	return err
}

// CloseModalInput closes a modal and everything stacked above it.
type CloseModalInput struct {
	Session string `json:"session"`
	Modal   string `json:"modal"`
}

// CloseModalCommand closes modals.
type CloseModalCommand struct {
	sessions  Sessions
	telemetry Telemetry
}

// NewCloseModalCommand creates the command.
func NewCloseModalCommand(sessions Sessions, telemetry Telemetry) *CloseModalCommand {
	return &CloseModalCommand{sessions: sessions, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[CloseModalInput] = (*CloseModalCommand)(nil)

// Execute closes the modal.
func (c *CloseModalCommand) Execute(ctx context.Context, msg CloseModalInput) error {
	controller, err := resolve(c.sessions, msg.Session)
	if err != nil {
		return err
	}
	kind, err := insights.ParseModalKind(msg.Modal)
	if err != nil {
		return err
	}
	closed, err := controller.CloseModal(ctx, kind)
	if err != nil {
		return err
	}
	recordCommand(ctx, c.telemetry, "close_modal", msg.Session, map[string]any{
		"modal":  string(kind),
		"closed": len(closed),
	})
	return nil
}
