package cmd

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/lwclone/internal/board"
	"github.com/Alia5/lwclone/internal/log"
	"github.com/Alia5/lwclone/internal/server/api"
)

func TestServePassword(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix config dir")
	}
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	logger := log.Discard()

	pwd, err := (&Serve{}).password(logger)
	require.NoError(t, err)
	assert.Empty(t, pwd, "no auth without --auth")

	pwd, err = (&Serve{ApiServerConfig: api.ServerConfig{Password: "given"}}).password(logger)
	require.NoError(t, err)
	assert.Equal(t, "given", pwd)

	s := &Serve{Auth: true}
	first, err := s.password(logger)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	stored, err := os.ReadFile(filepath.Join(home, "lwclone", keyFileName))
	require.NoError(t, err)
	assert.Equal(t, first, string(stored))

	second, err := s.password(logger)
	require.NoError(t, err)
	assert.Equal(t, first, second, "key file is reused")
}

func TestServeLoadBoard(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())
	if _, err := os.Stat("/etc/lwclone"); err == nil {
		t.Skip("system config dir present")
	}
	logger := log.Discard()

	b, err := (&Serve{}).loadBoard(logger)
	require.NoError(t, err)
	assert.Equal(t, board.Default(), b)

	def := board.Default()
	def.Name = "cabinet"
	data, err := def.Marshal("yaml")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile("board.yaml", data, 0o644))

	b, err = (&Serve{}).loadBoard(logger)
	require.NoError(t, err)
	assert.Equal(t, "cabinet", b.Name)

	_, err = (&Serve{Board: "missing.yaml"}).loadBoard(logger)
	assert.Error(t, err)
}
