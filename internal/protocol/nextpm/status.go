package nextpm

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// StatusBit 状态字节中的一个标志位
type StatusBit struct {
	Mask  byte   `yaml:"mask"`
	Label string `yaml:"label"`
}

// DefaultStatusBits 当前协议版本定义的状态位，其余位忽略
func DefaultStatusBits() []StatusBit {
	return []StatusBit{
		{Mask: 0x01, Label: "Default/Sleep"},
		{Mask: 0x04, Label: "Not Ready"},
	}
}

// StatusReport 状态字节解释结果
type StatusReport struct {
	Raw   byte     `json:"raw"`
	Flags []string `json:"flags"`
	OK    bool     `json:"ok"`
}

// String 渲染为 "0x05 (Default/Sleep, Not Ready)" 或 "0x00 (OK)"
func (r StatusReport) String() string {
	if r.OK {
		return fmt.Sprintf("0x%02x (OK)", r.Raw)
	}
	return fmt.Sprintf("0x%02x (%s)", r.Raw, strings.Join(r.Flags, ", "))
}

// Has 是否包含指定标志
func (r StatusReport) Has(label string) bool {
	return slices.Contains(r.Flags, label)
}

// StatusInterpreter 按顺序匹配 (mask, label)，多个位可同时生效
type StatusInterpreter struct {
	bits []StatusBit
}

// NewStatusInterpreter bits 为空时使用 DefaultStatusBits
func NewStatusInterpreter(bits ...StatusBit) (*StatusInterpreter, error) {
	if len(bits) == 0 {
		bits = DefaultStatusBits()
	}
	for i, b := range bits {
		if b.Mask == 0 {
			return nil, fmt.Errorf("status bit #%d (%s): zero mask", i, b.Label)
		}
		if b.Label == "" {
			return nil, fmt.Errorf("status bit #%d (0x%02x): empty label", i, b.Mask)
		}
	}
	return &StatusInterpreter{bits: slices.Clone(bits)}, nil
}

var defaultInterpreter = &StatusInterpreter{bits: DefaultStatusBits()}

// DefaultStatusInterpreter 返回内置解释器
func DefaultStatusInterpreter() *StatusInterpreter { return defaultInterpreter }

// Interpret 解释一个状态字节
func (s *StatusInterpreter) Interpret(b byte) StatusReport {
	flags := make([]string, 0, len(s.bits))
	for _, bit := range s.bits {
		if b&bit.Mask != 0 {
			flags = append(flags, bit.Label)
		}
	}
	return StatusReport{Raw: b, Flags: flags, OK: len(flags) == 0}
}

// Bits 返回状态位定义的副本
func (s *StatusInterpreter) Bits() []StatusBit { return slices.Clone(s.bits) }

// InterpretStatus 使用内置状态位解释
func InterpretStatus(b byte) StatusReport {
	return defaultInterpreter.Interpret(b)
}

// LoadStatusBits 从 YAML 读取状态位定义：
//
//	bits:
//	  - {mask: 0x01, label: Default/Sleep}
func LoadStatusBits(path string) ([]StatusBit, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read status bits: %w", err)
	}
	var doc struct {
		Bits []StatusBit `yaml:"bits"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal status bits: %w", err)
	}
	return doc.Bits, nil
}
