// Package identity 在 store 的 filename 寻址 API 之上提供按对象标识寻址的薄封装
//
// filename 直接由标识字段推导：UUID 使用小写的标准形式，整数使用十进制。
package identity

import (
	"context"
	"strconv"

	"filevault/pkg/store"

	"github.com/google/uuid"
)

// Identity 描述如何从 T 中取出标识，以及如何把标识渲染成 filename
type Identity[T any, ID comparable] struct {
	ID     func(T) ID
	Format func(ID) string
}

// Filename 返回 obj 对应的 filename
func (i Identity[T, ID]) Filename(obj T) string {
	return i.Format(i.ID(obj))
}

func UUID[T any](id func(T) uuid.UUID) Identity[T, uuid.UUID] {
	return Identity[T, uuid.UUID]{ID: id, Format: uuid.UUID.String}
}

func String[T any](id func(T) string) Identity[T, string] {
	return Identity[T, string]{ID: id, Format: func(s string) string { return s }}
}

// Integer 是可以作为数字标识的有符号整数类型 (包括以它们为底层类型的自定义类型)
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Int 以十进制渲染整数标识，例如 -42 -> "-42"
func Int[T any, N Integer](id func(T) N) Identity[T, N] {
	return Identity[T, N]{ID: id, Format: func(n N) string { return strconv.FormatInt(int64(n), 10) }}
}

// Keyed 是按标识寻址的 Collection
type Keyed[T any, ID comparable] struct {
	c  *store.Collection[T]
	id Identity[T, ID]
}

func New[T any, ID comparable](c *store.Collection[T], id Identity[T, ID]) *Keyed[T, ID] {
	return &Keyed[T, ID]{c: c, id: id}
}

// Collection 返回底层的 filename 寻址视图
func (k *Keyed[T, ID]) Collection() *store.Collection[T] { return k.c }

// Filename 返回标识 id 对应的 filename
func (k *Keyed[T, ID]) Filename(id ID) string { return k.id.Format(id) }

// Save 以 obj 的标识作为 filename 保存
func (k *Keyed[T, ID]) Save(ctx context.Context, obj T) (T, error) {
	return k.c.Save(ctx, obj, k.id.Filename(obj))
}

func (k *Keyed[T, ID]) Object(ctx context.Context, id ID) (T, error) {
	return k.c.Object(ctx, k.Filename(id))
}

func (k *Keyed[T, ID]) Objects(ctx context.Context) ([]T, error) {
	return k.c.Objects(ctx)
}

func (k *Keyed[T, ID]) Monitor(ctx context.Context, id ID) (*store.Stream[T], error) {
	return k.c.Monitor(ctx, k.Filename(id))
}

func (k *Keyed[T, ID]) MonitorAll(ctx context.Context) (*store.Stream[[]T], error) {
	return k.c.MonitorAll(ctx)
}

// Delete 删除 obj 的标识对应的文件
func (k *Keyed[T, ID]) Delete(ctx context.Context, obj T) error {
	return k.c.Delete(ctx, k.id.Filename(obj))
}

func (k *Keyed[T, ID]) DeleteID(ctx context.Context, id ID) error {
	return k.c.Delete(ctx, k.Filename(id))
}
