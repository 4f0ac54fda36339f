// Package store is a directory-backed object store with change notification.
//
// Every object lives in exactly one file, <dir>/<filename>.<ext>, written by
// atomic replace. Store is the filename-keyed, untyped layer; Collection[T]
// adds encoding, decoding and live monitor streams for a concrete type.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"filevault/pkg/codec"
	"filevault/pkg/ignore"
	"filevault/pkg/location"
	"filevault/pkg/storage"
	"filevault/pkg/storage/disk"
	"filevault/pkg/watch"

	"go.uber.org/zap"
)

// DecodePolicy 决定 Objects 遇到无法解码的文件时的行为
type DecodePolicy int

const (
	// Strict 任何一个文件解码失败，整个操作失败 (默认)
	Strict DecodePolicy = iota
	// Lenient 跳过无法解码的文件，只记录 Warn 日志
	Lenient
)

func (p DecodePolicy) String() string {
	if p == Lenient {
		return "lenient"
	}
	return "strict"
}

// ParseDecodePolicy 解析配置中的策略名
func ParseDecodePolicy(s string) (DecodePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	default:
		return Strict, fmt.Errorf("unknown decode policy: %s", s)
	}
}

// Store 是文件名寻址的对象存储
// 除了目录监听器之外没有任何可变的业务状态
type Store struct {
	loc     location.Location
	dir     string
	fs      storage.Provider
	codec   codec.Codec
	policy  DecodePolicy
	matcher *ignore.Matcher
	monitor *watch.Monitor
	logger  *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

type options struct {
	resolver    *location.Resolver
	provider    storage.Provider
	codec       codec.Codec
	policy      DecodePolicy
	ignore      []string
	emitInitial bool
	logger      *zap.Logger
}

type Option func(*options)

func WithResolver(r *location.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithProvider 替换文件系统实现，默认是本地磁盘
func WithProvider(p storage.Provider) Option {
	return func(o *options) { o.provider = p }
}

func WithCodec(c codec.Codec) Option {
	return func(o *options) { o.codec = c }
}

func WithDecodePolicy(p DecodePolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithIgnore 追加 files() 的忽略规则 (gitignore 语法)
func WithIgnore(patterns ...string) Option {
	return func(o *options) { o.ignore = append(o.ignore, patterns...) }
}

// WithInitialSignal 控制监听流是否在订阅时立即读取一次 (默认 true)
func WithInitialSignal(emit bool) Option {
	return func(o *options) { o.emitInitial = emit }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New 在 loc 上打开一个 Store
//
// 目录不存在时会被创建。位置无法解析 (ErrLocationUnresolvable) 或无法建立
// 目录监听 (ErrWatchUnavailable) 时返回错误，调用方应当视为致命错误而不是重试。
func New(loc location.Location, opts ...Option) (*Store, error) {
	o := options{
		codec:       codec.Default(),
		policy:      Strict,
		emitInitial: true,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.resolver == nil {
		o.resolver = location.NewResolver("filevault", nil)
	}
	if o.provider == nil {
		o.provider = disk.NewAdapter(disk.WithLogger(o.logger))
	}

	// 1. 解析根目录 (Single Source of Truth)
	dir, err := o.resolver.Resolve(loc)
	if err != nil {
		return nil, err
	}
	logger := o.logger.With(zap.String("location", loc.String()))
	logger.Debug("Using location", zap.String("dir", dir))

	// 2. 确保目录存在
	if err := o.provider.MkdirAll(dir); err != nil {
		return nil, fmt.Errorf("failed to create store dir: %w", err)
	}

	// 3. 建立目录监听
	monitor, err := watch.NewMonitor(o.provider.Watcher(dir),
		watch.WithInitialSignal(o.emitInitial),
		watch.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	return &Store{
		loc:     loc,
		dir:     dir,
		fs:      o.provider,
		codec:   o.codec,
		policy:  o.policy,
		matcher: ignore.NewMatcher(o.ignore...),
		monitor: monitor,
		logger:  logger,
	}, nil
}

func (s *Store) Location() location.Location { return s.loc }
func (s *Store) Dir() string                 { return s.dir }
func (s *Store) Codec() codec.Codec          { return s.codec }
func (s *Store) Policy() DecodePolicy        { return s.policy }

// Path 返回 filename 对应的文件路径 (read)
// 只做路径解析，不访问文件系统
func (s *Store) Path(filename string) string {
	return location.FilePath(s.dir, filename, s.codec.Extension())
}

// SaveData 原子写入原始字节，跳过编码
func (s *Store) SaveData(ctx context.Context, data []byte, filename string) error {
	if err := s.checkName(filename); err != nil {
		return &Error{Op: "save", Name: filename, Kind: ErrWrite, Err: err}
	}
	if err := s.fs.WriteFileAtomic(ctx, s.Path(filename), data); err != nil {
		return &Error{Op: "save", Name: filename, Kind: ErrWrite, Err: err}
	}
	s.logger.Debug("saved", zap.String("name", filename), zap.Int("bytes", len(data)))
	return nil
}

// Load 读取 filename 的原始字节
func (s *Store) Load(ctx context.Context, filename string) ([]byte, error) {
	if err := s.checkName(filename); err != nil {
		return nil, &Error{Op: "object", Name: filename, Kind: ErrRead, Err: err}
	}
	data, err := s.fs.ReadFile(ctx, s.Path(filename))
	if err != nil {
		return nil, &Error{Op: "object", Name: filename, Kind: ErrRead, Err: err}
	}
	return data, nil
}

// Files 列出目录中带有本 store 扩展名的文件 (绝对路径)
// 隐藏文件和匹配忽略规则的文件被排除
func (s *Store) Files(ctx context.Context) ([]string, error) {
	names, err := s.fs.List(ctx, s.dir)
	if err != nil {
		return nil, &Error{Op: "files", Kind: ErrRead, Err: err}
	}

	suffix := "." + s.codec.Extension()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		if !strings.HasSuffix(name, suffix) || name == suffix {
			continue
		}
		if s.matcher.Matches(name) {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, name))
	}
	s.logger.Debug("listed", zap.Int("files", len(paths)))
	return paths, nil
}

// Names 与 Files 相同，但返回不带扩展名的 filename
func (s *Store) Names(ctx context.Context) ([]string, error) {
	paths, err := s.Files(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = s.nameOf(p)
	}
	return names, nil
}

// Delete 删除 filename，文件不存在时返回 ErrDelete
func (s *Store) Delete(ctx context.Context, filename string) error {
	if err := s.checkName(filename); err != nil {
		return &Error{Op: "delete", Name: filename, Kind: ErrDelete, Err: err}
	}
	if err := s.fs.Remove(ctx, s.Path(filename)); err != nil {
		return &Error{Op: "delete", Name: filename, Kind: ErrDelete, Err: err}
	}
	s.logger.Debug("deleted", zap.String("name", filename))
	return nil
}

// Changes 订阅目录的变更信号
func (s *Store) Changes() (*watch.Subscription, error) {
	sub, err := s.monitor.Subscribe()
	if errors.Is(err, watch.ErrClosed) {
		return nil, ErrClosed
	}
	return sub, err
}

// Close 释放目录监听并结束所有监听流，可以重复调用
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.monitor.Close()
		s.logger.Debug("store closed")
	})
	return s.closeErr
}

func (s *Store) nameOf(path string) string {
	return strings.TrimSuffix(filepath.Base(path), "."+s.codec.Extension())
}

// validName 保证记录文件直接位于存储目录下，并且不是隐藏文件
func validName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %q contains NUL", ErrInvalidName, name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q would be a hidden file", ErrInvalidName, name)
	}
	return nil
}

// checkName 在 validName 之外还拒绝会被忽略规则排除的名字
// 保存成功的记录一定出现在 Files 的结果里
func (s *Store) checkName(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if s.matcher.Matches(name + "." + s.codec.Extension()) {
		return fmt.Errorf("%w: %q is excluded by ignore rules", ErrInvalidName, name)
	}
	return nil
}
