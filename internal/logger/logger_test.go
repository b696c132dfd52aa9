package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSetLevel(t *testing.T) {
	t.Run("sets debug level", func(t *testing.T) {
		SetLevel("debug")
		require.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	})

	t.Run("sets warn level", func(t *testing.T) {
		SetLevel("warn")
		require.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
	})

	t.Run("sets error level", func(t *testing.T) {
		SetLevel("error")
		require.Equal(t, zerolog.ErrorLevel, zerolog.GlobalLevel())
	})

	t.Run("defaults to info for unknown level", func(t *testing.T) {
		SetLevel("verbose")
		require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	})

	SetLevel("debug")
}

func TestSetOutput(t *testing.T) {
	original := Log
	defer func() { Log = original }()

	var buf bytes.Buffer
	SetOutput(&buf)

	l := Component("lifecycle")
	l.Info().Str("code", "SF1001").Msg("listing approved")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "subshare", line["service"])
	require.Equal(t, "lifecycle", line["component"])
	require.Equal(t, "SF1001", line["code"])
	require.Equal(t, "listing approved", line["message"])
}
