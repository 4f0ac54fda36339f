package store

import (
	"context"
	"testing"
	"time"

	"filevault/pkg/location"
	"filevault/pkg/storage/disk"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

type Person struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// newMemStore 创建一个基于内存文件系统的 Store
func newMemStore(t *testing.T, opts ...Option) (*Store, *disk.Adapter) {
	t.Helper()
	fs := newTestProvider()
	opts = append([]Option{WithProvider(fs)}, opts...)
	s, err := New(location.Custom("/vault/people"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, fs
}

// newDiskStore 创建一个基于真实磁盘 + fsnotify 的 Store
func newDiskStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := New(location.Custom(t.TempDir()), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestProvider() *disk.Adapter {
	return disk.NewMemAdapter()
}

// next 等待流上的下一个值
func next[V any](t *testing.T, s *Stream[V]) V {
	t.Helper()
	select {
	case v, ok := <-s.C():
		require.True(t, ok, "stream closed: %v", s.Err())
		return v
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for stream value")
	}
	var zero V
	return zero
}

// until 等待直到流上出现满足 match 的值
func until[V any](t *testing.T, s *Stream[V], match func(V) bool) V {
	t.Helper()
	deadline := time.After(waitFor)
	for {
		select {
		case v, ok := <-s.C():
			require.True(t, ok, "stream closed: %v", s.Err())
			if match(v) {
				return v
			}
		case <-deadline:
			t.Fatal("timed out waiting for matching stream value")
			var zero V
			return zero
		}
	}
}

// waitClosed 等待流结束并返回终止原因
func waitClosed[V any](t *testing.T, s *Stream[V]) error {
	t.Helper()
	select {
	case <-s.Done():
		return s.Err()
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for stream to close")
	}
	return nil
}

func quiet[V any](t *testing.T, s *Stream[V]) {
	t.Helper()
	select {
	case v := <-s.C():
		t.Fatalf("unexpected stream value: %v", v)
	case <-time.After(50 * time.Millisecond):
	}
}

var bg = context.Background()
