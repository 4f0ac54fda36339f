package codec

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// 确定性的编码选项
var encOptions = cbor.EncOptions{
	// 1. 强制 Map Key 排序 (Canonical)
	// 相同的对象总是得到相同的字节
	Sort: cbor.SortCanonical,

	// 2. 时间统一编码为 RFC 3339 字符串，与 JSON 保持一致
	// 不加 Tag 0，解码端由 struct 字段类型决定
	Time:    cbor.TimeRFC3339Nano,
	TimeTag: cbor.EncTagNone,

	// 3. 禁止不定长编码
	IndefLength: cbor.IndefLengthForbidden,
}

var decOptions = cbor.DecOptions{
	// 限制容器大小和嵌套深度，防止损坏的文件耗尽内存
	MaxArrayElements: 100000,
	MaxMapPairs:      100000,
	MaxNestedLevels:  100,

	IndefLength: cbor.IndefLengthForbidden,
	DupMapKey:   cbor.DupMapKeyEnforcedAPF,
	TimeTag:     cbor.DecTagOptional,

	// 解码到 any 时使用 map[string]any，便于再转成 JSON 输出
	DefaultMapType: reflect.TypeOf(map[string]any(nil)),
}

// null (0xf6) 和 undefined (0xf7)
var cborNil = [][]byte{{0xf6}, {0xf7}}

// CBOR 是二进制的替代编码，记录文件扩展名为 .cbor
type CBOR struct {
	em cbor.EncMode
	dm cbor.DecMode
}

// NewCBOR 创建 CBOR 编码器
// strictFields 为 true 时，目标 struct 中不存在的字段会导致解码失败
func NewCBOR(strictFields bool) (*CBOR, error) {
	em, err := encOptions.EncMode()
	if err != nil {
		return nil, fmt.Errorf("invalid cbor encode options: %w", err)
	}
	opts := decOptions
	if strictFields {
		opts.ExtraReturnErrors = cbor.ExtraDecErrorUnknownField
	}
	dm, err := opts.DecMode()
	if err != nil {
		return nil, fmt.Errorf("invalid cbor decode options: %w", err)
	}
	return &CBOR{em: em, dm: dm}, nil
}

func (c *CBOR) Encode(v any) ([]byte, error) {
	data, err := c.em.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return data, nil
}

func (c *CBOR) Decode(data []byte, v any) error {
	for _, n := range cborNil {
		if bytes.Equal(data, n) {
			return fmt.Errorf("%w: top-level null", ErrDecode)
		}
	}
	if err := c.dm.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

func (*CBOR) Extension() string { return "cbor" }
