package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForEnv(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatForEnv("prod"))
	assert.Equal(t, FormatJSON, FormatForEnv("Production"))
	assert.Equal(t, FormatText, FormatForEnv("dev"))
	assert.Equal(t, FormatText, FormatForEnv(""))
}

func TestNew_JSONVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, FormatJSON, true)
	logger.Debug("poller.tick", "job_id", 4)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "poller.tick", rec["msg"])
	assert.Equal(t, float64(4), rec["job_id"])
}

func TestNew_QuietDropsDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, FormatText, false)
	logger.Debug("hidden")
	logger.Info("hidden too")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))
	l := Discard()
	assert.Same(t, l, OrDiscard(l))
}
