package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, hclog.Debug, ParseLevel("debug"))
	assert.Equal(t, hclog.Warn, ParseLevel("WARN"))
	assert.Equal(t, hclog.Info, ParseLevel(""))
	assert.Equal(t, hclog.Info, ParseLevel("chatty"))
}

func TestConfigureJSON(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { Configure(Options{}) })

	Named("scanner").Debug("Skipping folder", "path", "@eaDir")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Skipping folder", entry["@message"])
	assert.Equal(t, "vidindex.scanner", entry["@module"])
	assert.Equal(t, "@eaDir", entry["path"])
}

func TestConfigureLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Level: "warn", Output: &buf})
	t.Cleanup(func() { Configure(Options{}) })

	Info("not shown")
	Debug("not shown either")
	assert.Empty(t, buf.String())

	Warn("Could not process file", "path", "a.mp4")
	assert.Contains(t, buf.String(), "Could not process file")
	assert.Contains(t, buf.String(), "path=a.mp4")

	Error("Sync failed")
	assert.Contains(t, buf.String(), "Sync failed")
}
