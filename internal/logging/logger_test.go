package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fadedpez/scoreboard/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("WARN"))
	assert.Equal(t, ERROR, ParseLevel("Error"))
	assert.Equal(t, INFO, ParseLevel("verbose"))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, WARN)

	logger.Info("hidden %d", 1)
	assert.Empty(t, buf.String())

	logger.Warn("shown %d", 2)
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "shown 2")
	assert.Contains(t, buf.String(), "logger_test.go")
}

func TestNamed(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, DEBUG).Named("cache")

	logger.Debug("evicted %s", "m1")

	assert.Contains(t, buf.String(), "[CACHE] evicted m1")
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, DEBUG)

	logger.LogError(types.NewGameError(types.ErrCapacityExceeded, "game is full"))
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "Code: CAPACITY_EXCEEDED")

	buf.Reset()
	logger.LogError(types.WrapError(types.ErrDatabaseError, "failed to save game", errors.New("locked")))
	assert.Contains(t, buf.String(), "ERROR")
	assert.Contains(t, buf.String(), "Cause: locked")

	buf.Reset()
	logger.LogError(errors.New("boom"))
	assert.Contains(t, buf.String(), "Unexpected error: boom")
}
