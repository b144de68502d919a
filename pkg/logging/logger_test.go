package logging

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The log directory and session id are resolved once per process, so the
// whole lifecycle is exercised in one test.
func TestLogger(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	logger, err := NewLogger("daemon")
	require.NoError(t, err)
	assert.NotEmpty(t, logger.SessionID())
	assert.Contains(t, logger.LogPath(), logger.SessionID())

	logger.Debugf("launching %s", "chromium")
	logger.Infof("listening")
	logger.Warnf("slow response")
	logger.Errorf("boom")

	data, err := os.ReadFile(logger.LogPath())
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "[daemon] [DEBUG] launching chromium")
	assert.Contains(t, content, "[daemon] [INFO] listening")
	assert.Contains(t, content, "[daemon] [WARN] slow response")
	assert.Contains(t, content, "[daemon] [ERROR] boom")

	// Components within one process share the session file.
	other, err := NewLogger("client")
	require.NoError(t, err)
	assert.Equal(t, logger.SessionID(), other.SessionID())
	assert.Equal(t, logger.LogPath(), other.LogPath())
	other.Infof("hello")

	data, err = os.ReadFile(logger.LogPath())
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "[client] [INFO] hello"))

	require.NoError(t, other.Close())
	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close()) // idempotent
}
