package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}

func TestComponentWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: zerolog.InfoLevel, Output: &buf})
	t.Cleanup(func() { Configure(Config{Level: zerolog.InfoLevel, Pretty: true}) })

	lgr := Component("upload")
	lgr.Debug().Msg("hidden")
	lgr.Info().Str("course", "CMPE101").Msg("File stored")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line), buf.String())
	assert.Equal(t, "upload", line["component"])
	assert.Equal(t, "CMPE101", line["course"])
	assert.Equal(t, "File stored", line["message"])
	assert.Contains(t, line, "time")
}
