package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestNewJSONOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo, true)
	log.Debug("hidden")
	log.Info("Hello", "user_id", 7)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "Hello", entry["msg"])
	require.EqualValues(t, 7, entry["user_id"])
}

func TestTruncateStringKeepsRunes(t *testing.T) {
	t.Parallel()

	require.Equal(t, "short", truncateString("short", 10))
	require.Equal(t, "Прив...", truncateString("Привет, мир", 7))
	require.Equal(t, "...", truncateString("abcdef", 2))
}

func TestUpdateAttrs(t *testing.T) {
	t.Parallel()

	msgUpdate := &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:   10,
			Chat: models.Chat{ID: 20, Type: models.ChatTypePrivate},
			From: &models.User{ID: 30},
			Text: "hi",
		},
	}
	attrs := UpdateAttrs(msgUpdate)
	require.Contains(t, attrs, "message")
	require.Contains(t, attrs, int64(30))

	cbUpdate := &models.Update{
		ID: 2,
		CallbackQuery: &models.CallbackQuery{
			ID:   "cb",
			From: models.User{ID: 31},
			Data: "confirm_clear",
		},
	}
	attrs = UpdateAttrs(cbUpdate)
	require.Contains(t, attrs, "callback_query")
	require.Contains(t, attrs, "confirm_clear")
	require.NotContains(t, attrs, "message_accessible")

	require.Contains(t, UpdateAttrs(&models.Update{ID: 3}), "other")
}
