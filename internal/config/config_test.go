package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_defaults(t *testing.T) {
	cfg, err := Load("")
	require.Nil(t, err)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, []string{"0"}, cfg.Engine.Args)
	assert.Nil(t, cfg.Validate())
}

func Test_load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aspd.yaml")
	require.Nil(t, os.WriteFile(path, []byte("server:\n  addr: 127.0.0.1:9000\nengine:\n  args: [\"3\", \"--seed\", \"7\"]\nclient:\n  poll_interval: 250ms\n"), 0644))

	cfg, err := Load(path)
	require.Nil(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"3", "--seed", "7"}, cfg.Engine.Args)
	assert.Equal(t, 250*time.Millisecond, cfg.Client.PollInterval)
	assert.Equal(t, "info", cfg.Log.Level)
}

func Test_writeAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aspd.yaml")
	require.Nil(t, Default().Write(path))
	cfg, err := Load(path)
	require.Nil(t, err)
	assert.Equal(t, Default(), cfg)

	require.Nil(t, os.WriteFile(path, []byte("log:\n  level: loud\n"), 0644))
	_, err = Load(path)
	assert.NotNil(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NotNil(t, err)
}
