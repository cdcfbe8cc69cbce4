package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/lwclone/internal/board"
)

func TestConfigInitServe(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "serve.json")
	require.NoError(t, (&ConfigInit{Command: "serve", Format: "json", Output: dest}).Run())

	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "single", got["build"])
	assert.Equal(t, "usb", got["panelOn"])
	assert.Equal(t, "30s", got["connectionTimeout"])
	require.IsType(t, map[string]any{}, got["api"])
	assert.Equal(t, ":3243", got["api"].(map[string]any)["addr"])
	assert.NotContains(t, got["api"], "connectionTimeout")
	require.IsType(t, map[string]any{}, got["timing"])
	assert.Equal(t, "1ms", got["timing"].(map[string]any)["pwmPeriod"])

	assert.Error(t, (&ConfigInit{Command: "serve", Format: "json", Output: dest}).Run(), "exists without --force")
	assert.NoError(t, (&ConfigInit{Command: "serve", Format: "toml", Output: dest, Force: true}).Run())
}

func TestConfigInitBoard(t *testing.T) {
	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "board."+format)
			require.NoError(t, (&ConfigInit{Command: "board", Format: format, Output: dest}).Run())

			b, err := board.Load(dest)
			require.NoError(t, err)
			assert.Equal(t, board.Default(), b)
		})
	}
}

func TestLowerCamel(t *testing.T) {
	for in, want := range map[string]string{
		"PanelOn":   "panelOn",
		"PWMPeriod": "pwmPeriod",
		"ID":        "id",
		"API":       "api",
		"Build":     "build",
	} {
		assert.Equal(t, want, lowerCamel(in), in)
	}
}

func TestConfigInitRejectsFormat(t *testing.T) {
	assert.Error(t, (&ConfigInit{Command: "serve", Format: "ini"}).Run())
}
