// Package watch publishes zero-payload change signals for a single directory.
//
// A Source is one OS-level (or in-process) watch. A Monitor owns a Source on
// behalf of an object store and fans its signals out to subscribers. Signals
// carry no payload; subscribers re-read whatever state they care about.
package watch

import "errors"

var (
	// ErrUnavailable 表示无法在目录上建立监听，对所属的 store 来说是致命的
	ErrUnavailable = errors.New("directory watch unavailable")
	ErrClosed      = errors.New("monitor closed")
)

// Source 是一个底层的目录监听句柄
// Events 在 Close 之后会被关闭
type Source interface {
	Events() <-chan struct{}
	Close() error
}

// Opener 建立一个新的 Source
type Opener func() (Source, error)

// signal 非阻塞发送；如果已有一个未消费的信号，新的信号被合并
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
