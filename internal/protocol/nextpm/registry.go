package nextpm

import (
	"fmt"
	"os"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

// Registry 命令字 -> Schema 的只读映射，构建后不再修改，可并发读取
type Registry struct {
	byCmd map[byte]Schema
	order []byte
}

// NewRegistry 构建注册表；命令字重复或字段描述非法时返回错误
func NewRegistry(schemas ...Schema) (*Registry, error) {
	r := &Registry{
		byCmd: make(map[byte]Schema, len(schemas)),
	}
	for _, s := range schemas {
		if s.StartByte == 0 {
			s.StartByte = StartByte
		}
		if err := s.validate(); err != nil {
			return nil, err
		}
		if prev, dup := r.byCmd[s.Command]; dup {
			return nil, fmt.Errorf("command 0x%02x registered twice (%s, %s)", s.Command, prev.ID, s.ID)
		}
		s.Payload = slices.Clone(s.Payload)
		r.byCmd[s.Command] = s
		r.order = append(r.order, s.Command)
	}
	slices.Sort(r.order)
	return r, nil
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry 返回内置的三种帧结构（0x16 / 0x17 / 0x25）
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		r, err := NewRegistry(builtinSchemas()...)
		if err != nil {
			panic(fmt.Sprintf("nextpm: builtin schemas: %v", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// ExtendRegistry 在 base 的基础上追加 schema，返回新的注册表，base 不变
func ExtendRegistry(base *Registry, extra ...Schema) (*Registry, error) {
	all := base.Schemas()
	all = append(all, extra...)
	return NewRegistry(all...)
}

// Lookup 按命令字查找
func (r *Registry) Lookup(cmd byte) (Schema, bool) {
	s, ok := r.byCmd[cmd]
	if !ok {
		return Schema{}, false
	}
	s.Payload = slices.Clone(s.Payload)
	return s, true
}

// Schemas 按命令字升序返回所有 schema 的副本
func (r *Registry) Schemas() []Schema {
	out := make([]Schema, 0, len(r.order))
	for _, cmd := range r.order {
		s, _ := r.Lookup(cmd)
		out = append(out, s)
	}
	return out
}

// Len 已注册的 schema 数量
func (r *Registry) Len() int { return len(r.byCmd) }

type schemaFile struct {
	Schemas []schemaDoc `yaml:"schemas"`
}

type schemaDoc struct {
	ID            string     `yaml:"id"`
	Label         string     `yaml:"label"`
	StartByte     *int       `yaml:"startByte"`
	Command       int        `yaml:"command"`
	HasStatusByte bool       `yaml:"hasStatusByte"`
	Payload       []fieldDoc `yaml:"payload"`
}

type fieldDoc struct {
	Name  string  `yaml:"name"`
	Type  string  `yaml:"type"`
	Unit  string  `yaml:"unit"`
	Scale float64 `yaml:"scale"`
}

// LoadSchemaFile 从 YAML 文件读取扩展 schema
//
//	schemas:
//	  - id: nextpm@0x21@1.0.0
//	    label: Temperature
//	    command: 0x21
//	    payload:
//	      - {name: Temp, type: uint16, unit: "°C", scale: 0.01}
func LoadSchemaFile(path string) ([]Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	var doc schemaFile
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal schema file: %w", err)
	}

	out := make([]Schema, 0, len(doc.Schemas))
	for i, d := range doc.Schemas {
		if d.Command < 0 || d.Command > 0xFF {
			return nil, fmt.Errorf("schema #%d: command %d out of byte range", i, d.Command)
		}
		s := Schema{
			ID:            d.ID,
			Label:         d.Label,
			StartByte:     StartByte,
			Command:       byte(d.Command),
			HasStatusByte: d.HasStatusByte,
		}
		if d.StartByte != nil {
			// 所有命令共用 0x81 帧头，显式声明时只接受该值
			if *d.StartByte != int(StartByte) {
				return nil, fmt.Errorf("schema #%d: start byte 0x%02x not supported (want 0x%02x)", i, *d.StartByte, StartByte)
			}
		}
		for _, fd := range d.Payload {
			ft, err := ParseFieldType(fd.Type)
			if err != nil {
				return nil, fmt.Errorf("schema %s field %s: %w", d.ID, fd.Name, err)
			}
			s.Payload = append(s.Payload, Field{Name: fd.Name, Type: ft, Unit: fd.Unit, Scale: fd.Scale})
		}
		out = append(out, s)
	}
	return out, nil
}
