package insights

import (
	"context"

	"github.com/goliatone/go-insights/pkg/activity"
)

// ActivityContext captures actor/user/tenant identifiers for activity events.
type ActivityContext struct {
	ActorID  string
	UserID   string
	TenantID string
}

type activityContextKey struct{}

// ContextWithActivity stores activity context on the provided context.
func ContextWithActivity(ctx context.Context, meta ActivityContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, activityContextKey{}, meta)
}

func activityContextFrom(ctx context.Context) ActivityContext {
	if ctx == nil {
		return ActivityContext{}
	}
	if meta, ok := ctx.Value(activityContextKey{}).(ActivityContext); ok {
		return meta
	}
	return ActivityContext{}
}

func (c *Controller) emitActivity(ctx context.Context, verb, objectType, objectID string, meta map[string]any) {
	if !c.opts.Activity.Enabled() {
		return
	}
	actor := activityContextFrom(ctx)
	if meta == nil {
		meta = map[string]any{}
	}
	meta["session"] = c.id
	if err := c.opts.Activity.Emit(ctx, activity.Event{
		Verb:       verb,
		ActorID:    actor.ActorID,
		UserID:     actor.UserID,
		TenantID:   actor.TenantID,
		ObjectType: objectType,
		ObjectID:   objectID,
		Metadata:   meta,
	}); err != nil {
		c.record(ctx, "insights.activity.error", map[string]any{"verb": verb, "error": err.Error()})
	}
}
