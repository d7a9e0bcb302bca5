package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockLoggerRecordsMessages(t *testing.T) {
	mock := NewMockLogger()

	mock.Info("starting up", "port", 8080)
	mock.Error("something failed", "error", "boom")

	assert.True(t, mock.HasMessage("INFO", "starting up"))
	assert.True(t, mock.HasMessage("ERROR", "something failed"))
	assert.False(t, mock.HasMessage("WARN", "starting up"))
	assert.True(t, mock.HasMessageContaining("ERROR", "failed"))
}

func TestMockLoggerWithSharesMessages(t *testing.T) {
	mock := NewMockLogger()
	child := mock.With("component", "scanner")

	child.Debug("scanning")

	require.Len(t, *mock.Messages, 1)
	msg := (*mock.Messages)[0]
	assert.Equal(t, "DEBUG", msg.Level)
	assert.Equal(t, []any{"component", "scanner"}, msg.Args)
}

func TestMockLoggerClear(t *testing.T) {
	mock := NewMockLogger()
	mock.Info("one")
	mock.Clear()
	assert.Empty(t, *mock.Messages)
}

func TestGlobalLogger(t *testing.T) {
	original := GetGlobalLogger()
	defer SetGlobalLogger(original)

	mock := NewMockLogger()
	SetGlobalLogger(mock)

	Info("hello", "k", "v")
	assert.True(t, mock.HasMessage("INFO", "hello"))
}

func TestNewLoggerFormats(t *testing.T) {
	assert.NotNil(t, NewLogger(false, "text"))
	assert.NotNil(t, NewLogger(true, "json"))
}
