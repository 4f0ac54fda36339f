package disk

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"filevault/pkg/storage"
	"filevault/pkg/watch"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 同一组用例分别跑在真实磁盘和内存文件系统上
func adapters(t *testing.T) map[string]struct {
	store *Adapter
	dir   string
} {
	return map[string]struct {
		store *Adapter
		dir   string
	}{
		"disk": {NewAdapter(), t.TempDir()},
		"mem":  {NewMemAdapter(), "/vault/objects"},
	}
}

func TestAdapter_CRUD(t *testing.T) {
	ctx := context.Background()

	for name, tc := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			store, dir := tc.store, tc.dir
			require.NoError(t, store.MkdirAll(dir))
			// 重复创建不报错
			require.NoError(t, store.MkdirAll(dir))

			path := filepath.Join(dir, "a.json")

			// 1. 写入
			require.NoError(t, store.WriteFileAtomic(ctx, path, []byte(`{"name":"Alex"}`)))

			// 2. 读取
			data, err := store.ReadFile(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, `{"name":"Alex"}`, string(data))

			// 3. 覆盖
			require.NoError(t, store.WriteFileAtomic(ctx, path, []byte(`{"name":"Sam"}`)))
			data, err = store.ReadFile(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, `{"name":"Sam"}`, string(data))

			// 4. 列表中没有残留的临时文件
			names, err := store.List(ctx, dir)
			require.NoError(t, err)
			assert.Equal(t, []string{"a.json"}, names)

			// 5. 删除
			require.NoError(t, store.Remove(ctx, path))
			_, err = store.ReadFile(ctx, path)
			assert.ErrorIs(t, err, storage.ErrNotFound)

			err = store.Remove(ctx, path)
			assert.ErrorIs(t, err, storage.ErrNotFound)
		})
	}
}

func TestAdapter_ListSkipsDirectories(t *testing.T) {
	ctx := context.Background()
	store := NewMemAdapter()
	dir := "/vault"

	require.NoError(t, store.MkdirAll(filepath.Join(dir, "nested")))
	require.NoError(t, store.WriteFileAtomic(ctx, filepath.Join(dir, "b.json"), []byte("{}")))
	require.NoError(t, store.WriteFileAtomic(ctx, filepath.Join(dir, "a.json"), []byte("{}")))

	names, err := store.List(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.json"}, names)

	_, err = store.List(ctx, "/missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAdapter_MkdirAllOnFile(t *testing.T) {
	store := NewMemAdapter()
	require.NoError(t, afero.WriteFile(store.Fs(), "/vault", []byte("x"), 0644))
	assert.Error(t, store.MkdirAll("/vault"))
}

func TestAdapter_CanceledContext(t *testing.T) {
	store := NewMemAdapter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.WriteFileAtomic(ctx, "/vault/a.json", nil), context.Canceled)
	_, err := store.ReadFile(ctx, "/vault/a.json")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.List(ctx, "/vault")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Remove(ctx, "/vault/a.json"), context.Canceled)
}

func TestAdapter_AtomicWriteLeavesNoTemp(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewAdapter()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.WriteFileAtomic(ctx, filepath.Join(dir, "a.json"), []byte("{}")))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.json", entries[0].Name())

	info, err := os.Stat(filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePerm), info.Mode().Perm())
}

func TestAdapter_MemWatcherSignalsWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemAdapter()
	dir := "/vault"
	require.NoError(t, store.MkdirAll(dir))

	m, err := watch.NewMonitor(store.Watcher(dir), watch.WithInitialSignal(false))
	require.NoError(t, err)
	defer m.Close()

	sub, err := m.Subscribe()
	require.NoError(t, err)
	defer sub.Cancel()

	require.NoError(t, store.WriteFileAtomic(ctx, filepath.Join(dir, "a.json"), []byte("{}")))
	select {
	case <-sub.C():
	case <-time.After(time.Second):
		t.Fatal("expected a change signal after write")
	}

	require.NoError(t, store.Remove(ctx, filepath.Join(dir, "a.json")))
	select {
	case <-sub.C():
	case <-time.After(time.Second):
		t.Fatal("expected a change signal after remove")
	}
}

func TestAdapter_MemWatcherMissingDir(t *testing.T) {
	store := NewMemAdapter()
	_, err := watch.NewMonitor(store.Watcher("/missing"))
	assert.ErrorIs(t, err, watch.ErrUnavailable)
}

func TestAdapter_RemoveMissing(t *testing.T) {
	ctx := context.Background()

	for name, tc := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, tc.store.MkdirAll(tc.dir))
			err := tc.store.Remove(ctx, filepath.Join(tc.dir, "never.json"))
			assert.ErrorIs(t, err, storage.ErrNotFound)
		})
	}

	// 删除失败不会产生变更信号
	store := NewMemAdapter()
	require.NoError(t, store.MkdirAll("/vault"))
	m, err := watch.NewMonitor(store.Watcher("/vault"), watch.WithInitialSignal(false))
	require.NoError(t, err)
	defer m.Close()
	sub, err := m.Subscribe()
	require.NoError(t, err)
	defer sub.Cancel()

	assert.ErrorIs(t, store.Remove(ctx, "/vault/never.json"), storage.ErrNotFound)
	select {
	case <-sub.C():
		t.Fatal("unexpected change signal for a failed remove")
	case <-time.After(50 * time.Millisecond):
	}
}
