package nextpm

import (
	"fmt"
	"strings"
)

// StartByte 简单协议的通用帧头
const StartByte byte = 0x81

// MinFrameLen 帧头 + 命令字 + 校验和
const MinFrameLen = 3

// 命令字
const (
	CmdStatus         byte = 0x16
	CmdConcentrations byte = 0x17
	CmdBins           byte = 0x25
)

// FieldType 负载字段的编码宽度
type FieldType uint8

const (
	UInt8 FieldType = iota + 1
	UInt16
)

// Width 字段占用的字节数
func (t FieldType) Width() int {
	switch t {
	case UInt8:
		return 1
	case UInt16:
		return 2
	}
	return 0
}

func (t FieldType) String() string {
	switch t {
	case UInt8:
		return "uint8"
	case UInt16:
		return "uint16"
	}
	return fmt.Sprintf("FieldType(%d)", uint8(t))
}

// ParseFieldType 解析 "uint8"/"uint16"（大小写不敏感）
func ParseFieldType(s string) (FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uint8", "u8":
		return UInt8, nil
	case "uint16", "u16":
		return UInt16, nil
	}
	return 0, fmt.Errorf("unknown field type %q", s)
}

// Field 负载中的一个数值字段
type Field struct {
	Name  string
	Type  FieldType
	Unit  string
	Scale float64 // 0 表示 1
}

// EffectiveScale 返回实际乘数
func (f Field) EffectiveScale() float64 {
	if f.Scale == 0 {
		return 1
	}
	return f.Scale
}

// Schema 一种受支持的帧结构
type Schema struct {
	ID            string
	Label         string
	StartByte     byte
	Command       byte
	Payload       []Field
	HasStatusByte bool
}

// PayloadWidth 负载总字节数
func (s Schema) PayloadWidth() int {
	n := 0
	for _, f := range s.Payload {
		n += f.Type.Width()
	}
	return n
}

// FrameLength 帧总长度：start(1) + cmd(1) + payload + status? + checksum(1)
func (s Schema) FrameLength() int {
	n := 2 + s.PayloadWidth() + 1
	if s.HasStatusByte {
		n++
	}
	return n
}

func (s Schema) validate() error {
	if s.ID == "" {
		return fmt.Errorf("schema 0x%02x: empty id", s.Command)
	}
	if s.StartByte != StartByte {
		return fmt.Errorf("schema %s: start byte 0x%02x not supported", s.ID, s.StartByte)
	}
	seen := make(map[string]struct{}, len(s.Payload))
	for i, f := range s.Payload {
		if f.Name == "" {
			return fmt.Errorf("schema %s: field #%d has no name", s.ID, i)
		}
		if f.Type.Width() == 0 {
			return fmt.Errorf("schema %s: field %s has unknown type %v", s.ID, f.Name, f.Type)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("schema %s: duplicate field %s", s.ID, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

func builtinSchemas() []Schema {
	pm := func(name string) Field {
		return Field{Name: name, Type: UInt16, Unit: "µg/m³", Scale: 0.1}
	}
	bin := func(name string) Field {
		return Field{Name: name, Type: UInt16, Unit: "Nb/L"}
	}
	return []Schema{
		{
			ID:            "nextpm@0x16@1.0.0",
			Label:         "Status",
			StartByte:     StartByte,
			Command:       CmdStatus,
			HasStatusByte: true,
		},
		{
			ID:        "nextpm@0x17@1.0.0",
			Label:     "Concentrations (µg/m³)",
			StartByte: StartByte,
			Command:   CmdConcentrations,
			Payload:   []Field{pm("PM1"), pm("PM2.5"), pm("PM10")},
		},
		{
			ID:        "nextpm@0x25@1.0.0",
			Label:     "5 bins (Nb/L)",
			StartByte: StartByte,
			Command:   CmdBins,
			Payload:   []Field{bin("Bin1"), bin("Bin2"), bin("Bin3"), bin("Bin4"), bin("Bin5")},
		},
	}
}
