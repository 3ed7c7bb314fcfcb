package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linanwx/nagochat/config"
	"github.com/linanwx/nagochat/internal/health"
)

func runStatusCmd(t *testing.T, dir string) health.Snapshot {
	t.Helper()
	t.Cleanup(func() { config.SetConfigDir("") })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config-dir", dir, "status", "--json"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		statusJSON = false
		configDirFlag = ""
	})
	require.NoError(t, rootCmd.Execute())

	var snap health.Snapshot
	require.NoError(t, json.Unmarshal(out.Bytes(), &snap))
	return snap
}

func TestStatusBrokenConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed\n"), 0o600))

	snap := runStatusCmd(t, dir)

	assert.Equal(t, "degraded", snap.Status)
	require.NotNil(t, snap.Config)
	assert.NotEmpty(t, snap.Config.ParseError)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), snap.Config.Path)
	require.NotNil(t, snap.Server)
	assert.Equal(t, config.DefaultConfig().Server.URL, snap.Server.URL)
}

func TestStatusDoesNotDialByDefault(t *testing.T) {
	snap := runStatusCmd(t, t.TempDir())

	assert.Equal(t, "healthy", snap.Status)
	require.NotNil(t, snap.Config)
	assert.False(t, snap.Config.Exists)
	require.NotNil(t, snap.Server)
	assert.False(t, snap.Server.Probed)
}
