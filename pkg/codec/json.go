package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// JSON 使用 encoding/json
// time.Time 的 MarshalJSON 输出 RFC 3339 (ISO-8601)，畸形日期在 Decode 时报错
type JSON struct {
	Pretty bool
	// StrictFields 拒绝目标类型中不存在的字段，形状不符的文件解码失败
	StrictFields bool
}

func (j JSON) Encode(v any) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if j.Pretty {
		// 格式化输出 (Indented)，方便调试时直接查看文件
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return data, nil
}

func (j JSON) Decode(data []byte, v any) error {
	// json 会把 null 解成零值而不报错
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return fmt.Errorf("%w: top-level null", ErrDecode)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if j.StrictFields {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	// 一个文件只能有一个值
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after value", ErrDecode)
	}
	return nil
}

func (JSON) Extension() string { return "json" }
