package logger_test

import (
	"bytes"
	"testing"

	"github.com/jaxron/urlview/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicLogger(t *testing.T) {
	t.Parallel()

	t.Run("Filters below minimum level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		l := logger.NewLevelLogger(&buf, logger.LevelWarn)

		l.Debug("hidden")
		l.Infof("hidden %d", 1)
		l.Warn("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "WARN: shown")
	})

	t.Run("Fields are appended without aliasing", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		base := logger.NewLevelLogger(&buf, logger.LevelDebug).WithFields(logger.String("view", "live"))
		a := base.WithFields(logger.String("to", "/a"))
		b := base.WithFields(logger.String("to", "/b"))

		a.Info("first")
		b.Info("second")

		out := buf.String()
		assert.Contains(t, out, "INFO: first | view=live to=/a")
		assert.Contains(t, out, "INFO: second | view=live to=/b")
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	level, err := logger.ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, logger.LevelWarn, level)

	level, err = logger.ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, logger.LevelDebug, level)

	_, err = logger.ParseLevel("loud")
	require.Error(t, err)
}
