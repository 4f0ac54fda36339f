package watch

import (
	"path/filepath"
	"sync"
)

// Notifier 是进程内的监听实现
// 没有内核通知的文件系统 (例如内存文件系统) 由写入方调用 Notify
type Notifier struct {
	mu       sync.Mutex
	watchers map[string]map[*memSource]struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{watchers: make(map[string]map[*memSource]struct{})}
}

// Watch 监听 dir 下的写入
func (n *Notifier) Watch(dir string) Source {
	dir = filepath.Clean(dir)
	s := &memSource{n: n, dir: dir, events: make(chan struct{}, 1)}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.watchers[dir] == nil {
		n.watchers[dir] = make(map[*memSource]struct{})
	}
	n.watchers[dir][s] = struct{}{}
	return s
}

// Notify 通知 path 所在目录的所有监听者
func (n *Notifier) Notify(path string) {
	dir := filepath.Dir(filepath.Clean(path))

	n.mu.Lock()
	defer n.mu.Unlock()
	for s := range n.watchers[dir] {
		signal(s.events)
	}
}

// Watchers 返回 dir 上活跃的监听数量
func (n *Notifier) Watchers(dir string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.watchers[filepath.Clean(dir)])
}

func (n *Notifier) remove(s *memSource) {
	n.mu.Lock()
	defer n.mu.Unlock()
	set := n.watchers[s.dir]
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(n.watchers, s.dir)
	}
	close(s.events)
}

type memSource struct {
	n      *Notifier
	dir    string
	events chan struct{}
}

func (s *memSource) Events() <-chan struct{} { return s.events }

func (s *memSource) Close() error {
	s.n.remove(s)
	return nil
}
