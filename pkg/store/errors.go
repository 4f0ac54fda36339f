package store

import (
	"errors"
	"fmt"

	"filevault/pkg/codec"
	"filevault/pkg/location"
	"filevault/pkg/watch"
)

// 错误分类 (Kind)，用 errors.Is 判断
var (
	ErrEncoding = codec.ErrEncode
	ErrDecoding = codec.ErrDecode
	ErrWrite    = errors.New("write failed")
	ErrRead     = errors.New("read failed")
	ErrDelete   = errors.New("delete failed")

	// 以下两个只会在构造时出现，调用方应当视为致命错误
	ErrLocationUnresolvable = location.ErrUnresolvable
	ErrWatchUnavailable     = watch.ErrUnavailable

	ErrInvalidName = errors.New("invalid filename")
	ErrClosed      = errors.New("store closed")
)

// Error 描述一次失败的操作
// Unwrap 同时返回 Kind 和原始错误，所以
// errors.Is(err, ErrRead) 和 errors.Is(err, storage.ErrNotFound) 都成立
type Error struct {
	Op   string // save, object, objects, files, delete ...
	Name string // filename (不含扩展名)，集合操作时为空
	Kind error
	Err  error
}

func (e *Error) Error() string {
	msg := "store: " + e.Op
	if e.Name != "" {
		msg += fmt.Sprintf(" %q", e.Name)
	}
	if e.Err == nil {
		return msg + ": " + e.Kind.Error()
	}
	// 原始错误已经带了 Kind 的描述时不重复
	if errors.Is(e.Err, e.Kind) {
		return msg + ": " + e.Err.Error()
	}
	return msg + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
