package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, 2055, c.Listen.Port)
	assert.Equal(t, 8080, c.API.Port)
	assert.True(t, c.API.Enabled)
	assert.Equal(t, 100000, c.Store.MaxRecords)
	assert.Equal(t, 500*time.Millisecond, c.Display.RefreshRate)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
listen:
  port: 9995
store:
  max_records: 5000
logging:
  level: debug
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9995, c.Listen.Port)
	assert.Equal(t, 5000, c.Store.MaxRecords)
	assert.Equal(t, "debug", c.Logging.Level)
	// Untouched values keep their defaults
	assert.Equal(t, 8080, c.API.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "listen: [not a map")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsBadValues(t *testing.T) {
	for _, content := range []string{
		"listen:\n  port: 0\n",
		"listen:\n  port: 70000\n",
		"store:\n  max_records: -1\n",
		"api:\n  port: 0\n",
	} {
		path := writeConfig(t, content)
		_, err := Load(path)
		assert.Error(t, err, content)
	}
}
