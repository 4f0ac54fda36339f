package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, Load(""))
	assert.Equal(t, "documents", viper.GetString("storage.location"))
	assert.Equal(t, "filevault", viper.GetString("location.app_name"))
	assert.Equal(t, "json", viper.GetString("codec.format"))
	assert.True(t, viper.GetBool("codec.strict_fields"))
	assert.Equal(t, "strict", viper.GetString("store.decode_policy"))
	assert.True(t, viper.GetBool("watch.emit_initial"))
	assert.Equal(t, "info", viper.GetString("log.level"))
}

func TestLoad_FileAndEnv(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
storage:
  location: custom
  path: /srv/vault
codec:
  format: cbor
location:
  app_groups:
    shared: /containers/shared
`), 0644))
	t.Setenv("FV_STORE_DECODE_POLICY", "lenient")

	require.NoError(t, Load(cfg))
	assert.Equal(t, "custom", viper.GetString("storage.location"))
	assert.Equal(t, "/srv/vault", viper.GetString("storage.path"))
	assert.Equal(t, "cbor", viper.GetString("codec.format"))
	assert.Equal(t, "lenient", viper.GetString("store.decode_policy"))
	assert.Equal(t, map[string]string{"shared": "/containers/shared"},
		viper.GetStringMapString("location.app_groups"))
}

func TestLoad_BrokenFile(t *testing.T) {
	viper.Reset()
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("storage: [unclosed"), 0644))

	err := Load(cfg)
	assert.ErrorContains(t, err, "fatal error config file")
}
