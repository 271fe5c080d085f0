package nextpm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	require.Equal(t, 3, reg.Len())

	tests := []struct {
		cmd       byte
		label     string
		fields    []string
		hasStatus bool
		frameLen  int
	}{
		{CmdStatus, "Status", nil, true, 4},
		{CmdConcentrations, "Concentrations (µg/m³)", []string{"PM1", "PM2.5", "PM10"}, false, 9},
		{CmdBins, "5 bins (Nb/L)", []string{"Bin1", "Bin2", "Bin3", "Bin4", "Bin5"}, false, 13},
	}
	for _, tt := range tests {
		s, ok := reg.Lookup(tt.cmd)
		require.True(t, ok, "cmd 0x%02x", tt.cmd)
		assert.Equal(t, tt.label, s.Label)
		assert.Equal(t, StartByte, s.StartByte)
		assert.Equal(t, tt.hasStatus, s.HasStatusByte)

		names := make([]string, 0, len(s.Payload))
		for _, f := range s.Payload {
			names = append(names, f.Name)
			assert.Equal(t, UInt16, f.Type)
		}
		if tt.fields == nil {
			assert.Empty(t, names)
		} else {
			assert.Equal(t, tt.fields, names)
		}

		// 2 + payload + status? + 1 必须等于该 schema 接受的帧长
		status := 0
		if s.HasStatusByte {
			status = 1
		}
		assert.Equal(t, tt.frameLen, 2+s.PayloadWidth()+status+1)
		assert.Equal(t, tt.frameLen, s.FrameLength())

		body := make([]byte, s.FrameLength()-3)
		_, err := Decode(makeFrame(tt.cmd, body...))
		assert.NoError(t, err)
	}

	_, ok := reg.Lookup(0x99)
	assert.False(t, ok)
}

func TestRegistry_LookupReturnsCopy(t *testing.T) {
	s, _ := DefaultRegistry().Lookup(CmdConcentrations)
	s.Payload[0].Name = "mutated"

	again, _ := DefaultRegistry().Lookup(CmdConcentrations)
	assert.Equal(t, "PM1", again.Payload[0].Name)
}

func TestRegistry_Schemas_Sorted(t *testing.T) {
	all := DefaultRegistry().Schemas()
	require.Len(t, all, 3)
	assert.Equal(t, CmdStatus, all[0].Command)
	assert.Equal(t, CmdConcentrations, all[1].Command)
	assert.Equal(t, CmdBins, all[2].Command)
}

func TestNewRegistry_Validation(t *testing.T) {
	tests := []struct {
		name    string
		schemas []Schema
	}{
		{"命令字重复", []Schema{
			{ID: "a", Command: 0x30},
			{ID: "b", Command: 0x30},
		}},
		{"缺少id", []Schema{{Command: 0x30}}},
		{"帧头非0x81", []Schema{{ID: "a", StartByte: 0x82, Command: 0x30}}},
		{"字段无名称", []Schema{{ID: "a", Command: 0x30, Payload: []Field{{Type: UInt8}}}}},
		{"字段类型未知", []Schema{{ID: "a", Command: 0x30, Payload: []Field{{Name: "x"}}}}},
		{"字段重名", []Schema{{ID: "a", Command: 0x30, Payload: []Field{
			{Name: "x", Type: UInt8}, {Name: "x", Type: UInt16},
		}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.schemas...)
			assert.Error(t, err)
		})
	}

	_, err := ExtendRegistry(DefaultRegistry(), Schema{ID: "dup", Command: CmdStatus})
	assert.Error(t, err, "不允许覆盖内置命令字")
}

func TestLoadSchemaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemas.yaml")
	content := `schemas:
  - id: nextpm@0x21@1.0.0
    label: Temperature
    command: 0x21
    hasStatusByte: true
    payload:
      - {name: Temp, type: uint16, unit: "°C", scale: 0.01}
      - {name: Counter, type: UINT8}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	schemas, err := LoadSchemaFile(path)
	require.NoError(t, err)
	require.Len(t, schemas, 1)

	s := schemas[0]
	assert.Equal(t, byte(0x21), s.Command)
	assert.Equal(t, StartByte, s.StartByte)
	assert.True(t, s.HasStatusByte)
	require.Len(t, s.Payload, 2)
	assert.Equal(t, UInt16, s.Payload[0].Type)
	assert.Equal(t, 0.01, s.Payload[0].Scale)
	assert.Equal(t, UInt8, s.Payload[1].Type)
	assert.Equal(t, 1.0, s.Payload[1].EffectiveScale())
	assert.Equal(t, 6, s.FrameLength())

	reg, err := ExtendRegistry(DefaultRegistry(), schemas...)
	require.NoError(t, err)
	assert.Equal(t, 4, reg.Len())
}

func TestLoadSchemaFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadSchemaFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}

	_, err = LoadSchemaFile(write("range.yaml", "schemas:\n  - {id: x, command: 300}\n"))
	assert.Error(t, err)

	_, err = LoadSchemaFile(write("type.yaml", "schemas:\n  - id: x\n    command: 0x30\n    payload:\n      - {name: a, type: float32}\n"))
	assert.Error(t, err)

	_, err = LoadSchemaFile(write("bad.yaml", "schemas: [\n"))
	assert.Error(t, err)

	_, err = LoadSchemaFile(write("start.yaml", "schemas:\n  - {id: x, startByte: 0x82, command: 0x30}\n"))
	assert.ErrorContains(t, err, "start byte 0x82 not supported")

	schemas, err := LoadSchemaFile(write("start81.yaml", "schemas:\n  - {id: x, startByte: 0x81, command: 0x30}\n"))
	require.NoError(t, err)
	assert.Equal(t, StartByte, schemas[0].StartByte)
}
