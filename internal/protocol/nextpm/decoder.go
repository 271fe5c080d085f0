package nextpm

import "slices"

// FieldValue 按声明顺序排列的一个已解码字段
type FieldValue struct {
	Name  string `json:"name"`
	Raw   uint16 `json:"raw"`
	Value Value  `json:"value"`
}

// Frame 一次成功解码的结果，解码失败时不会产生
type Frame struct {
	Schema   Schema
	Command  byte
	Fields   []FieldValue
	Status   *StatusReport // 仅当 schema 声明了状态字节
	Checksum byte
	Raw      []byte
}

// Field 按名称取字段值
func (f *Frame) Field(name string) (Value, bool) {
	for _, fv := range f.Fields {
		if fv.Name == name {
			return fv.Value, true
		}
	}
	return Value{}, false
}

// Values 字段名 -> 值的映射视图
func (f *Frame) Values() map[string]Value {
	m := make(map[string]Value, len(f.Fields))
	for _, fv := range f.Fields {
		m[fv.Name] = fv.Value
	}
	return m
}

// Decoder 基于注册表的帧解码器，无内部可变状态，可并发使用
type Decoder struct {
	reg    *Registry
	status *StatusInterpreter
}

// NewDecoder reg/status 为 nil 时使用内置定义
func NewDecoder(reg *Registry, status *StatusInterpreter) *Decoder {
	if reg == nil {
		reg = DefaultRegistry()
	}
	if status == nil {
		status = DefaultStatusInterpreter()
	}
	return &Decoder{reg: reg, status: status}
}

// Registry 解码器使用的注册表
func (d *Decoder) Registry() *Registry { return d.reg }

// StatusInterpreter 解码器使用的状态位解释器
func (d *Decoder) StatusInterpreter() *StatusInterpreter { return d.status }

// Decode 严格按顺序校验：长度下限、帧头、命令字、总长度、校验和，再按 schema 提取字段
func (d *Decoder) Decode(raw []byte) (*Frame, error) {
	if len(raw) < MinFrameLen {
		return nil, &DecodeError{Kind: KindFrameTooShort, Got: len(raw), Expected: MinFrameLen}
	}
	if raw[0] != StartByte {
		return nil, &DecodeError{Kind: KindInvalidStartByte, Got: int(raw[0]), Expected: int(StartByte)}
	}

	cmd := raw[1]
	schema, ok := d.reg.byCmd[cmd]
	if !ok {
		return nil, &DecodeError{Kind: KindUnknownCommand, Command: cmd}
	}

	if want := schema.FrameLength(); len(raw) != want {
		return nil, &DecodeError{Kind: KindUnexpectedLength, Got: len(raw), Expected: want, Command: cmd}
	}

	expected, actual, ok := VerifyChecksum(raw)
	if !ok {
		return nil, &DecodeError{Kind: KindChecksumMismatch, Got: int(actual), Expected: int(expected), Command: cmd}
	}

	off := 2
	fields := make([]FieldValue, 0, len(schema.Payload))
	for _, f := range schema.Payload {
		var v uint16
		switch f.Type {
		case UInt8:
			v = uint16(raw[off])
		case UInt16:
			v = uint16(raw[off])<<8 | uint16(raw[off+1])
		}
		off += f.Type.Width()

		scaled := float64(v) * f.EffectiveScale()
		val := Number(scaled)
		if f.Unit != "" {
			val = Quantity(scaled, f.Unit)
		}
		fields = append(fields, FieldValue{Name: f.Name, Raw: v, Value: val})
	}

	schema.Payload = slices.Clone(schema.Payload)
	frame := &Frame{
		Schema:   schema,
		Command:  cmd,
		Fields:   fields,
		Checksum: raw[len(raw)-1],
		Raw:      append([]byte(nil), raw...),
	}
	if schema.HasStatusByte {
		rep := d.status.Interpret(raw[off])
		frame.Status = &rep
	}
	return frame, nil
}

// Decode 使用内置注册表与状态位解码
func Decode(raw []byte) (*Frame, error) {
	return defaultDecoder().Decode(raw)
}

// DecodeHex 归一化文本后解码
func DecodeHex(text string) (*Frame, error) {
	raw, err := NormalizeHex(text)
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}

func defaultDecoder() *Decoder {
	return &Decoder{reg: DefaultRegistry(), status: defaultInterpreter}
}
