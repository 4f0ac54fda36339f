package disk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"filevault/pkg/storage"
	"filevault/pkg/watch"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	dirPerm  = 0755
	filePerm = 0644
)

// Adapter 实现了 storage.Provider 接口
type Adapter struct {
	fs     afero.Fs
	logger *zap.Logger

	// notifier 不为 nil 时，监听由进程内通知实现 (内存文件系统)
	// 否则使用 fsnotify 监听真实目录
	notifier *watch.Notifier
}

type Option func(*Adapter)

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAdapter 创建一个基于本地磁盘的适配器
func NewAdapter(opts ...Option) *Adapter {
	return newAdapter(afero.NewOsFs(), nil, opts...)
}

// NewMemAdapter 创建一个基于内存文件系统的适配器，主要用于测试
// 写入和删除通过进程内 Notifier 产生变更信号
func NewMemAdapter(opts ...Option) *Adapter {
	return newAdapter(afero.NewMemMapFs(), watch.NewNotifier(), opts...)
}

func newAdapter(fsys afero.Fs, notifier *watch.Notifier, opts ...Option) *Adapter {
	a := &Adapter{
		fs:       fsys,
		notifier: notifier,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Fs 暴露底层文件系统 (测试中用来模拟外部写入)
func (a *Adapter) Fs() afero.Fs { return a.fs }

func (a *Adapter) MkdirAll(dir string) error {
	// 确保根目录存在
	if err := a.fs.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create dir %s: %w", dir, err)
	}
	info, err := a.fs.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

func (a *Adapter) List(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	infos, err := afero.ReadDir(a.fs, dir)
	if err != nil {
		return nil, mapNotExist(err)
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		names = append(names, info.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (a *Adapter) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(a.fs, path)
	if err != nil {
		return nil, mapNotExist(err)
	}
	return data, nil
}

func (a *Adapter) WriteFileAtomic(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := a.writeAtomic(path, data); err != nil {
		return err
	}
	a.notify(path)
	return nil
}

// writeAtomic 先写到同目录下的隐藏临时文件，然后 Rename
// 这样保证要么文件不存在，要么文件是完整的
func (a *Adapter) writeAtomic(path string, data []byte) error {
	dir, base := filepath.Split(path)

	// MemMapFs 的 Rename 有 bug，内存文件系统直接写入
	if isRenameBugged(a.fs) {
		return afero.WriteFile(a.fs, path, data, filePerm)
	}

	// 前缀 "." 让临时文件对 List 的过滤不可见
	tmp, err := afero.TempFile(a.fs, dir, "."+base+"~")
	if err != nil {
		return fmt.Errorf("creating tmp file for atomic write: %w", err)
	}
	// 如果成功 Rename 了，这个删除会失败，但无害
	defer func() { _ = a.fs.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing tmp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing tmp file: %w", err)
	}
	// 必须先关闭才能 Rename
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := a.fs.Chmod(tmp.Name(), filePerm); err != nil {
		return err
	}

	return a.fs.Rename(tmp.Name(), path)
}

func (a *Adapter) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// 记录路径总是以 .<ext> 结尾，不存在时一次系统调用就能发现
	if err := a.fs.Remove(path); err != nil {
		return mapNotExist(err)
	}
	a.notify(path)
	return nil
}

func (a *Adapter) Watcher(dir string) watch.Opener {
	if a.notifier != nil {
		n := a.notifier
		return func() (watch.Source, error) {
			if _, err := a.fs.Stat(dir); err != nil {
				return nil, err
			}
			return n.Watch(dir), nil
		}
	}
	return watch.FSNotifyOpener(dir, a.logger)
}

func (a *Adapter) notify(path string) {
	if a.notifier != nil {
		a.notifier.Notify(path)
	}
}

// mapNotExist 把 "不存在" 统一成 storage.ErrNotFound，同时保留原始错误
func mapNotExist(err error) error {
	if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
		return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
	}
	return err
}

// MemMapFs has a bug when renaming files.
// Since we're using it only for tests, it's ok not to do atomic rename.
func isRenameBugged(fsys afero.Fs) bool {
	_, ok := fsys.(*afero.MemMapFs)
	return ok
}
