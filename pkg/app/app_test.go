package app

import (
	"context"
	"path/filepath"
	"testing"

	"filevault/pkg/codec"
	"filevault/pkg/location"
	"filevault/pkg/storage/disk"
	"filevault/pkg/store"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setDefaults() {
	viper.Reset()
	viper.Set("storage.location", "documents")
	viper.Set("location.app_name", "filevault")
	viper.Set("codec.format", "json")
	viper.Set("codec.strict_fields", true)
	viper.Set("store.decode_policy", "strict")
	viper.Set("watch.emit_initial", true)
	viper.Set("log.level", "error")
}

func TestNewApp_StoragePath(t *testing.T) {
	// 1. Mock 配置
	setDefaults()
	dir := t.TempDir()
	viper.Set("storage.path", dir)
	viper.Set("codec.format", "cbor")

	// 2. 组装
	a, err := NewApp()
	require.NoError(t, err)
	defer a.Close()

	// 3. 验证
	assert.Equal(t, dir, a.Dir)
	assert.True(t, a.Store.Location().IsCustom())
	assert.Equal(t, filepath.Join(dir, "x.cbor"), a.Store.Path("x"))
}

func TestNewApp_AppGroup(t *testing.T) {
	setDefaults()
	viper.Set("storage.location", "app_group")
	viper.Set("storage.app_group", "shared")
	viper.Set("location.app_groups", map[string]string{"shared": "/containers/shared"})
	viper.Set("store.decode_policy", "lenient")

	a, err := NewApp(store.WithProvider(disk.NewMemAdapter()))
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "/containers/shared/Documents", a.Dir)
	assert.Equal(t, location.KindAppGroup, a.Store.Location().Kind())
	assert.Equal(t, store.Lenient, a.Store.Policy())
	assert.Equal(t, codec.JSON{StrictFields: true}, a.Store.Codec())

	require.NoError(t, a.Store.SaveData(context.Background(), []byte(`{}`), "a"))
	names, err := a.Store.Names(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names)
}

func TestNewApp_Errors(t *testing.T) {
	tests := []struct {
		name    string
		set     func()
		wantIs  error
		wantMsg string
	}{
		{
			name:   "UnknownGroup",
			set:    func() { viper.Set("storage.location", "app_group"); viper.Set("storage.app_group", "nope") },
			wantIs: store.ErrLocationUnresolvable,
		},
		{
			name:   "UnknownLocation",
			set:    func() { viper.Set("storage.location", "ftp") },
			wantIs: store.ErrLocationUnresolvable,
		},
		{
			name:    "UnknownCodec",
			set:     func() { viper.Set("codec.format", "xml") },
			wantMsg: "unsupported codec format",
		},
		{
			name:    "UnknownPolicy",
			set:     func() { viper.Set("store.decode_policy", "maybe") },
			wantMsg: "unknown decode policy",
		},
		{
			name:    "BadLogLevel",
			set:     func() { viper.Set("log.level", "loud") },
			wantMsg: "invalid log level",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setDefaults()
			tt.set()

			a, err := NewApp(store.WithProvider(disk.NewMemAdapter()))
			require.Error(t, err)
			assert.Nil(t, a)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}
