package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCreatesLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	t.Cleanup(func() { Logger = nil })

	require.NoError(t, Init(Config{Dir: dir}))
	require.NotNil(t, Logger)

	Info("hello", "key", "value")
	_, err := os.Stat(filepath.Join(dir, "tracklet.log"))
	assert.NoError(t, err)
}

func TestHelpersWithoutInit(t *testing.T) {
	Logger = nil
	assert.NotPanics(t, func() {
		Debug("d")
		Info("i")
		Warn("w")
		Error("e")
	})
}
