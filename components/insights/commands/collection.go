package commands

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-insights/components/insights"
)

// SelectCollectionInput switches the active collection of a session.
type SelectCollectionInput struct {
	Session    string `json:"session"`
	Collection string `json:"collection"`
}

// SelectCollectionCommand activates a collection and reloads its charts.
type SelectCollectionCommand struct {
	sessions  Sessions
	telemetry Telemetry
}

// NewSelectCollectionCommand creates the command.
func NewSelectCollectionCommand(sessions Sessions, telemetry Telemetry) *SelectCollectionCommand {
	return &SelectCollectionCommand{sessions: sessions, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SelectCollectionInput] = (*SelectCollectionCommand)(nil)

// Execute resolves the collection and delegates to the session controller.
func (c *SelectCollectionCommand) Execute(ctx context.Context, msg SelectCollectionInput) error {
	controller, err := resolve(c.sessions, msg.Session)
	if err != nil {
		return err
	}
	collection, err := insights.ParseCollection(msg.Collection)
	if err != nil {
		return err
	}
	if _, err := controller.SelectCollection(ctx, collection); err != nil {
		return err
	}
	recordCommand(ctx, c.telemetry, "select_collection", msg.Session, map[string]any{
		"collection": string(collection),
	})
	return nil
}

// ApplyFilterInput sets one filter field. An empty value clears it.
type ApplyFilterInput struct {
	Session string `json:"session"`
	Field   string `json:"field"`
	Value   string `json:"value"`
}

// ApplyFilterCommand mutates the session's filter context.
type ApplyFilterCommand struct {
	sessions  Sessions
	telemetry Telemetry
}

// NewApplyFilterCommand creates the command.
func NewApplyFilterCommand(sessions Sessions, telemetry Telemetry) *ApplyFilterCommand {
	return &ApplyFilterCommand{sessions: sessions, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ApplyFilterInput] = (*ApplyFilterCommand)(nil)

// Execute validates the field and applies the value.
func (c *ApplyFilterCommand) Execute(ctx context.Context, msg ApplyFilterInput) error {
	controller, err := resolve(c.sessions, msg.Session)
	if err != nil {
		return err
	}
	field, err := insights.ParseFilterField(msg.Field)
	if err != nil {
		return err
	}
	if _, err := controller.ApplyFilter(ctx, field, msg.Value); err != nil {
		return err
	}
	recordCommand(ctx, c.telemetry, "apply_filter", msg.Session, map[string]any{
		"field": string(field),
	})
	return nil
}
