package store

import (
	"context"
	"sync"

	"filevault/pkg/watch"

	"go.uber.org/zap"
)

// Stream 是一个监听流 (Monitor stream)
//
// 每次目录变更都会重新读取，结果通过 C 发送。消费者跟不上时只保留最新的值。
// C 在 Cancel、ctx 取消、读取失败或 Store.Close 之后被关闭，之后 Err 返回终止原因
// (Cancel 和 ctx 取消时为 nil)。
type Stream[V any] struct {
	c    chan V
	done chan struct{}

	mu       sync.Mutex
	err      error
	finished bool
	cancel   func()
}

func newStream[V any]() *Stream[V] {
	return &Stream[V]{
		c:    make(chan V, 1),
		done: make(chan struct{}),
	}
}

func (s *Stream[V]) C() <-chan V { return s.c }

// Done 在流结束时关闭
func (s *Stream[V]) Done() <-chan struct{} { return s.done }

func (s *Stream[V]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Cancel 停止接收，最后一个订阅者取消时底层的目录监听被释放
func (s *Stream[V]) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// send 只由所属 feed 在持有 feed.mu 时调用
func (s *Stream[V]) send(v V) {
	select {
	case s.c <- v:
		return
	default:
	}
	// 缓冲区满：丢弃旧值，保留最新值
	select {
	case <-s.c:
	default:
	}
	s.c <- v
}

func (s *Stream[V]) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.finished = true
	s.err = err
	close(s.c)
	close(s.done)
}

// feed 对同一个 key 的所有订阅者只维护一个目录订阅，每个信号只读取一次
// 然后把结果广播给所有订阅者 (multicast)
type feed[V any] struct {
	key    string
	read   func(ctx context.Context) (V, error)
	sub    *watch.Subscription
	ctx    context.Context
	cancel context.CancelFunc
	onStop func()
	logger *zap.Logger

	mu      sync.Mutex
	streams map[*Stream[V]]struct{}
	last    V
	hasLast bool
	stopped bool
}

// add 注册一个新的订阅者，feed 已停止时返回 false
func (f *feed[V]) add() (*Stream[V], bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stopped {
		return nil, false
	}
	s := newStream[V]()
	s.cancel = func() { f.remove(s) }
	// 晚加入的订阅者先拿到最近一次的结果
	if f.hasLast {
		s.send(f.last)
	}
	f.streams[s] = struct{}{}
	return s, true
}

func (f *feed[V]) remove(s *Stream[V]) {
	f.mu.Lock()
	if _, ok := f.streams[s]; !ok {
		f.mu.Unlock()
		return
	}
	delete(f.streams, s)
	s.finish(nil)
	last := len(f.streams) == 0
	if last {
		f.stopped = true
	}
	f.mu.Unlock()

	if last {
		// run 看到 ctx 取消后负责释放目录订阅
		f.cancel()
	}
}

func (f *feed[V]) publish(v V) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last, f.hasLast = v, true
	for s := range f.streams {
		s.send(v)
	}
}

// terminate 以 err 结束所有订阅者
func (f *feed[V]) terminate(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	for s := range f.streams {
		delete(f.streams, s)
		s.finish(err)
	}
}

func (f *feed[V]) run() {
	defer func() {
		f.sub.Cancel()
		f.cancel()
		f.onStop()
		f.logger.Debug("monitor feed stopped")
	}()
	f.logger.Debug("monitor feed started")

	for {
		select {
		case <-f.ctx.Done():
			f.terminate(nil)
			return
		case _, ok := <-f.sub.C():
			if !ok {
				// Monitor 被关闭 (Store.Close)
				f.terminate(ErrClosed)
				return
			}
			v, err := f.read(f.ctx)
			if f.ctx.Err() != nil {
				f.terminate(nil)
				return
			}
			if err != nil {
				// 读取失败终止整个流，不自动重试
				f.logger.Error("monitor read failed", zap.Error(err))
				f.terminate(err)
				return
			}
			f.publish(v)
		}
	}
}

// hub 按 key 管理 feed
type hub[V any] struct {
	mu    sync.Mutex
	feeds map[string]*feed[V]
}

func (h *hub[V]) subscribe(
	ctx context.Context,
	s *Store,
	key string,
	read func(ctx context.Context) (V, error),
) (*Stream[V], error) {
	stream, err := h.join(s, key, read)
	if err != nil {
		return nil, err
	}

	// 调用方的 ctx 取消等价于 Cancel
	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				stream.Cancel()
			case <-stream.Done():
			}
		}()
	}
	return stream, nil
}

func (h *hub[V]) join(s *Store, key string, read func(ctx context.Context) (V, error)) (*Stream[V], error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.feeds == nil {
		h.feeds = make(map[string]*feed[V])
	}
	if f, ok := h.feeds[key]; ok {
		if stream, ok := f.add(); ok {
			return stream, nil
		}
	}

	sub, err := s.Changes()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	f := &feed[V]{
		key:     key,
		read:    read,
		sub:     sub,
		ctx:     ctx,
		cancel:  cancel,
		logger:  s.logger.With(zap.String("monitor", key)),
		streams: make(map[*Stream[V]]struct{}),
	}
	f.onStop = func() { h.drop(key, f) }

	stream, _ := f.add()
	h.feeds[key] = f
	go f.run()
	return stream, nil
}

func (h *hub[V]) drop(key string, f *feed[V]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.feeds[key] == f {
		delete(h.feeds, key)
	}
}

// active 返回 key 上是否有正在运行的 feed
func (h *hub[V]) active(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.feeds[key]
	return ok
}
