package nextpm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_String(t *testing.T) {
	assert.Equal(t, "12.3 µg/m³", Quantity(123*0.1, "µg/m³").String())
	assert.Equal(t, "24 µg/m³", Quantity(float64(240)*0.1, "µg/m³").String())
	assert.Equal(t, "42", Number(42).String())
	assert.Equal(t, "0.5", Number(0.5).String())
}

func TestValue_JSON(t *testing.T) {
	b, err := json.Marshal(Number(7))
	require.NoError(t, err)
	assert.JSONEq(t, `7`, string(b))

	b, err = json.Marshal(Quantity(12.5, "Nb/L"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":12.5,"unit":"Nb/L"}`, string(b))

	var v Value
	require.NoError(t, json.Unmarshal(b, &v))
	assert.Equal(t, KindQuantity, v.Kind())
	assert.Equal(t, "Nb/L", v.Unit())

	require.NoError(t, json.Unmarshal([]byte(`3`), &v))
	assert.Equal(t, KindNumber, v.Kind())
	assert.Equal(t, 3.0, v.Float())
}
