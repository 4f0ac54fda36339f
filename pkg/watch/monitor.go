package watch

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Monitor 是一个 store 独占的目录监听器 (FolderMonitor)
//
// 底层 Source 在第一个订阅者出现时打开，在最后一个订阅者离开时释放。
// Close 之后不再接受订阅。
type Monitor struct {
	open        Opener
	emitInitial bool
	logger      *zap.Logger

	mu     sync.Mutex
	src    Source
	done   chan struct{}
	subs   map[*Subscription]struct{}
	closed bool
}

type Option func(*Monitor)

// WithInitialSignal 控制订阅时是否立刻收到一个信号 (默认 true)
// 这样订阅者不需要等待外部写入就能完成第一次读取
func WithInitialSignal(emit bool) Option {
	return func(m *Monitor) { m.emitInitial = emit }
}

func WithLogger(logger *zap.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMonitor 创建监听器
// 构造时会试探性地打开一次 Source，失败返回 ErrUnavailable
func NewMonitor(open Opener, opts ...Option) (*Monitor, error) {
	m := &Monitor{
		open:        open,
		emitInitial: true,
		logger:      zap.NewNop(),
		subs:        make(map[*Subscription]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	src, err := open()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err := src.Close(); err != nil {
		m.logger.Warn("failed to release probe watch", zap.Error(err))
	}
	return m, nil
}

// Subscribe 注册一个新的订阅者
func (m *Monitor) Subscribe() (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	if m.src == nil {
		src, err := m.open()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		m.src = src
		m.done = make(chan struct{})
		go m.pump(src, m.done)
		m.logger.Debug("directory watch started")
	}

	sub := &Subscription{m: m, c: make(chan struct{}, 1)}
	if m.emitInitial {
		sub.c <- struct{}{}
	}
	m.subs[sub] = struct{}{}
	return sub, nil
}

// Subscribers 返回当前订阅者数量
func (m *Monitor) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// Active 报告底层 Source 是否处于打开状态
func (m *Monitor) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.src != nil
}

// Close 释放底层监听并关闭所有订阅，可以重复调用
func (m *Monitor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	for sub := range m.subs {
		delete(m.subs, sub)
		close(sub.c)
	}
	return m.release()
}

func (m *Monitor) pump(src Source, done chan struct{}) {
	events := src.Events()
	for {
		select {
		case <-done:
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			m.broadcast()
		}
	}
}

func (m *Monitor) broadcast() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for sub := range m.subs {
		signal(sub.c)
	}
}

func (m *Monitor) unsubscribe(sub *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subs[sub]; !ok {
		return
	}
	delete(m.subs, sub)
	close(sub.c)

	if len(m.subs) == 0 {
		if err := m.release(); err != nil {
			m.logger.Warn("failed to release directory watch", zap.Error(err))
		}
	}
}

// release 必须在持有 m.mu 时调用
func (m *Monitor) release() error {
	if m.src == nil {
		return nil
	}
	close(m.done)
	err := m.src.Close()
	m.src = nil
	m.done = nil
	m.logger.Debug("directory watch released")
	return err
}

// Subscription 是一个订阅句柄
// C 在 Cancel 或 Monitor.Close 之后被关闭
type Subscription struct {
	m    *Monitor
	c    chan struct{}
	once sync.Once
}

func (s *Subscription) C() <-chan struct{} { return s.c }

// Cancel 取消订阅，最后一个订阅者取消时释放底层监听
func (s *Subscription) Cancel() {
	s.once.Do(func() { s.m.unsubscribe(s) })
}
