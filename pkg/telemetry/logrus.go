package telemetry

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-insights/pkg/activity"
)

// Logger records telemetry events and activity as structured logrus entries.
type Logger struct {
	log   logrus.FieldLogger
	level logrus.Level
}

// NewLogger wraps log. A nil log uses the logrus standard logger.
func NewLogger(log logrus.FieldLogger, level logrus.Level) *Logger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Logger{log: log, level: level}
}

// Record logs one event with its payload as fields. Events ending in ".error" are logged
// at error level.
func (l *Logger) Record(_ context.Context, event string, payload map[string]any) {
	entry := l.log.WithField("event", event)
	if len(payload) > 0 {
		entry = entry.WithFields(logrus.Fields(payload))
	}
	if strings.HasSuffix(event, ".error") {
		entry.Error("telemetry")
		return
	}
	logAt(entry, l.level, "telemetry")
}

// Notify implements activity.Hook so emitted activity lands in the same log stream.
func (l *Logger) Notify(_ context.Context, event activity.Event) error {
	fields := logrus.Fields{
		"verb":        event.Verb,
		"object_type": event.ObjectType,
		"object_id":   event.ObjectID,
		"channel":     event.Channel,
	}
	if event.ActorID != "" {
		fields["actor_id"] = event.ActorID
	}
	keys := make([]string, 0, len(event.Metadata))
	for k := range event.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields["meta."+k] = event.Metadata[k]
	}
	logAt(l.log.WithFields(fields), l.level, "activity")
	return nil
}

var _ activity.Hook = (*Logger)(nil)

func logAt(entry *logrus.Entry, level logrus.Level, msg string) {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		entry.Debug(msg)
	case logrus.WarnLevel:
		entry.Warn(msg)
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		entry.Error(msg)
	default:
		entry.Info(msg)
	}
}
