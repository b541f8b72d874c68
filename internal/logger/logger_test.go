package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"crudusers/internal/logger"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "warn", "json")

	log.Info().Msg("dropped")
	log.Warn().Str("username", "jdoe").Msg("kept")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["message"])
	assert.Equal(t, "jdoe", line["username"])
	assert.Contains(t, line, "time")
}

func TestNewWithWriter_UnknownLevelFallsBackToInfo(t *testing.T) {
	log := logger.NewWithWriter(&bytes.Buffer{}, "chatty", "console")
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}
