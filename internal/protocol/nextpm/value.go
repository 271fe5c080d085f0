package nextpm

import (
	"encoding/json"
	"strconv"
)

// ValueKind 区分纯数值与带单位的物理量
type ValueKind uint8

const (
	KindNumber ValueKind = iota + 1
	KindQuantity
)

// Value 解码后的字段值：Number(v) 或 Quantity(v, unit)
type Value struct {
	kind ValueKind
	num  float64
	unit string
}

// Number 无单位数值
func Number(v float64) Value { return Value{kind: KindNumber, num: v} }

// Quantity 带单位的物理量
func Quantity(v float64, unit string) Value { return Value{kind: KindQuantity, num: v, unit: unit} }

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) Float() float64  { return v.num }
func (v Value) Unit() string    { return v.unit }

// String 展示形式，如 "12.3 µg/m³"
func (v Value) String() string {
	s := strconv.FormatFloat(v.num, 'f', -1, 64)
	if v.kind == KindQuantity {
		return s + " " + v.unit
	}
	return s
}

// MarshalJSON Number 输出裸数值，Quantity 输出 {"value":..,"unit":..}
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindQuantity {
		return json.Marshal(struct {
			Value float64 `json:"value"`
			Unit  string  `json:"unit"`
		}{v.num, v.unit})
	}
	return json.Marshal(v.num)
}

// UnmarshalJSON 与 MarshalJSON 对称，供缓存回读使用
func (v *Value) UnmarshalJSON(b []byte) error {
	var q struct {
		Value float64 `json:"value"`
		Unit  string  `json:"unit"`
	}
	if len(b) > 0 && b[0] == '{' {
		if err := json.Unmarshal(b, &q); err != nil {
			return err
		}
		*v = Quantity(q.Value, q.Unit)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*v = Number(n)
	return nil
}
