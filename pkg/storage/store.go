package storage

import (
	"context"
	"errors"

	"filevault/pkg/watch"
)

var (
	ErrNotFound = errors.New("file not found")
)

// Provider defines the filesystem primitives the object store is built on.
// Implementations can be the local disk or an in-memory filesystem.
type Provider interface {
	// MkdirAll 创建目录 (包括父目录)，已存在时不报错
	MkdirAll(dir string) error

	// List 返回 dir 下的普通文件名 (不含子目录，不含路径)
	List(ctx context.Context, dir string) ([]string, error)

	// ReadFile 读取完整文件，不存在时返回 ErrNotFound
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFileAtomic 原子替换：读者要么看到旧文件，要么看到完整的新文件
	WriteFileAtomic(ctx context.Context, path string, data []byte) error

	// Remove 删除文件，不存在时返回 ErrNotFound
	Remove(ctx context.Context, path string) error

	// Watcher 返回在 dir 上建立监听的 Opener
	Watcher(dir string) watch.Opener
}
