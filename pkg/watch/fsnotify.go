package watch

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// writeOps 是会触发信号的事件，纯元数据变化 (Chmod) 不算
const writeOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// FSNotify 基于 fsnotify 监听一个目录 (不递归)
type FSNotify struct {
	w      *fsnotify.Watcher
	events chan struct{}
	logger *zap.Logger
	once   sync.Once
}

// NewFSNotify 在 dir 上建立监听
func NewFSNotify(dir string, logger *zap.Logger) (*FSNotify, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	// out of the box fsnotify can watch a single file, or a single directory
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	f := &FSNotify{
		w:      w,
		events: make(chan struct{}, 1),
		logger: logger.With(zap.String("dir", dir)),
	}
	go f.loop()
	return f, nil
}

func (f *FSNotify) loop() {
	defer close(f.events)
	for {
		select {
		case event, ok := <-f.w.Events:
			if !ok {
				return
			}
			if event.Op&writeOps == 0 {
				continue
			}
			f.logger.Debug("directory event", zap.String("event", event.String()))
			signal(f.events)
		case err, ok := <-f.w.Errors:
			if !ok {
				return
			}
			// 监听器本身从不向订阅者报错
			f.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (f *FSNotify) Events() <-chan struct{} { return f.events }

func (f *FSNotify) Close() error {
	var err error
	f.once.Do(func() {
		err = f.w.Close()
	})
	return err
}

// FSNotifyOpener 返回一个在 dir 上建立 fsnotify 监听的 Opener
func FSNotifyOpener(dir string, logger *zap.Logger) Opener {
	return func() (Source, error) {
		return NewFSNotify(dir, logger)
	}
}
