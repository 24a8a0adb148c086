package telemetry

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-insights/pkg/activity"
)

func TestLoggerRecord(t *testing.T) {
	log, hook := test.NewNullLogger()
	logger := NewLogger(log, logrus.InfoLevel)

	logger.Record(context.Background(), "insights.modal.open", map[string]any{"modal": "details"})
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "insights.modal.open", entry.Data["event"])
	assert.Equal(t, "details", entry.Data["modal"])

	logger.Record(context.Background(), "insights.activity.error", nil)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestLoggerNotifyActivity(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	logger := NewLogger(log, logrus.DebugLevel)

	emitter := activity.NewEmitter(activity.Hooks{logger}, activity.Config{Enabled: true})
	require.NoError(t, emitter.Emit(context.Background(), activity.Event{
		Verb:       "insights.analysis.run",
		ObjectType: "analysis",
		ObjectID:   "sellers",
		Metadata:   map[string]any{"year": "2024"},
	}))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Equal(t, "activity", entry.Message)
	assert.Equal(t, "sellers", entry.Data["object_id"])
	assert.Equal(t, "2024", entry.Data["meta.year"])
	assert.Equal(t, activity.DefaultChannel, entry.Data["channel"])
}
