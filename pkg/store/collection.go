package store

import (
	"context"
	"errors"

	"filevault/pkg/codec"
	"filevault/pkg/storage"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// allKey 是集合监听在 hub 中的 key，不可能与合法的 filename 冲突
const allKey = "/"

// Collection 是 Store 上某一种对象类型 T 的视图
// 多个 Collection 可以共享同一个 Store
type Collection[T any] struct {
	s      *Store
	single hub[T]
	all    hub[[]T]
}

func NewCollection[T any](s *Store) *Collection[T] {
	return &Collection[T]{s: s}
}

func (c *Collection[T]) Store() *Store { return c.s }

// Save 编码并原子写入 <dir>/<filename>.<ext>，成功时原样返回 obj
func (c *Collection[T]) Save(ctx context.Context, obj T, filename string) (T, error) {
	data, err := c.s.codec.Encode(obj)
	if err != nil {
		var zero T
		return zero, &Error{Op: "save", Name: filename, Kind: ErrEncoding, Err: err}
	}
	if err := c.s.SaveData(ctx, data, filename); err != nil {
		var zero T
		return zero, err
	}
	return obj, nil
}

// Decode 把调用方提供的字节解码成 T
func (c *Collection[T]) Decode(data []byte) (T, error) {
	return codec.Decode[T](c.s.codec, data)
}

// Object 读取并解码 filename
// 文件不存在或不可读时返回 ErrRead，内容无法解码时返回 ErrDecoding
func (c *Collection[T]) Object(ctx context.Context, filename string) (T, error) {
	data, err := c.s.Load(ctx, filename)
	if err != nil {
		var zero T
		return zero, err
	}
	v, err := c.Decode(data)
	if err != nil {
		var zero T
		return zero, &Error{Op: "object", Name: filename, Kind: ErrDecoding, Err: err}
	}
	return v, nil
}

// Objects 并发读取所有文件并解码，按 Store 的 DecodePolicy 处理解码失败
func (c *Collection[T]) Objects(ctx context.Context) ([]T, error) {
	return c.objects(ctx, c.s.policy)
}

// ObjectsLenient 显式选择跳过无法解码的文件
func (c *Collection[T]) ObjectsLenient(ctx context.Context) ([]T, error) {
	return c.objects(ctx, Lenient)
}

func (c *Collection[T]) objects(ctx context.Context, policy DecodePolicy) ([]T, error) {
	paths, err := c.s.Files(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]T, len(paths))
	errs := make([]error, len(paths))

	// 不做限流，上限就是进程的文件描述符数量
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			name := c.s.nameOf(path)
			data, err := c.s.fs.ReadFile(gctx, path)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				errs[i] = &Error{Op: "objects", Name: name, Kind: ErrRead, Err: err}
				return nil
			}
			v, err := c.Decode(data)
			if err != nil {
				errs[i] = &Error{Op: "objects", Name: name, Kind: ErrDecoding, Err: err}
				return nil
			}
			results[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &Error{Op: "objects", Kind: ErrRead, Err: err}
	}

	var (
		merr *multierror.Error
		kind = ErrRead
		out  = make([]T, 0, len(results))
	)
	for i, err := range errs {
		switch {
		case err == nil:
			out = append(out, results[i])
		case errors.Is(err, storage.ErrNotFound):
			// 列出之后被删除的文件，等同于稍晚一点列目录
			continue
		case policy == Lenient && errors.Is(err, ErrDecoding):
			c.s.logger.Warn("skipping undecodable file", zap.String("path", paths[i]), zap.Error(err))
		default:
			if errors.Is(err, ErrDecoding) {
				kind = ErrDecoding
			}
			merr = multierror.Append(merr, err)
		}
	}
	if err := merr.ErrorOrNil(); err != nil {
		return nil, &Error{Op: "objects", Kind: kind, Err: err}
	}
	return out, nil
}

// Delete 删除 filename
func (c *Collection[T]) Delete(ctx context.Context, filename string) error {
	return c.s.Delete(ctx, filename)
}

// Monitor 返回 filename 的监听流
// 每个目录变更信号 (包括订阅时的初始信号) 都会重新执行 Object
func (c *Collection[T]) Monitor(ctx context.Context, filename string) (*Stream[T], error) {
	if err := c.s.checkName(filename); err != nil {
		return nil, &Error{Op: "monitor", Name: filename, Kind: ErrRead, Err: err}
	}
	return c.single.subscribe(ctx, c.s, filename, func(ctx context.Context) (T, error) {
		return c.Object(ctx, filename)
	})
}

// MonitorAll 返回整个集合的监听流，每个信号重新执行 Objects
func (c *Collection[T]) MonitorAll(ctx context.Context) (*Stream[[]T], error) {
	return c.all.subscribe(ctx, c.s, allKey, c.Objects)
}
