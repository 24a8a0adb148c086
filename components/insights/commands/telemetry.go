package commands

import "context"

// commandEventPrefix namespaces every event a command emits.
const commandEventPrefix = "insights.command."

// Telemetry receives one event per successful command.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

// TelemetryFunc adapts a plain function to Telemetry.
type TelemetryFunc func(ctx context.Context, event string, payload map[string]any)

// Record implements Telemetry.
func (f TelemetryFunc) Record(ctx context.Context, event string, payload map[string]any) {
	if f != nil {
		f(ctx, event, payload)
	}
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	if fn, ok := t.(TelemetryFunc); ok && fn == nil {
		return noopTelemetry{}
	}
	return t
}

// recordCommand emits insights.command.<name> with the session id stamped on the payload.
func recordCommand(ctx context.Context, t Telemetry, name, session string, fields map[string]any) {
	payload := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["session"] = session
	t.Record(ctx, commandEventPrefix+name, payload)
}
