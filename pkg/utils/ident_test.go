package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Sem Grupo", "SEM_GRUPO"},
		{"Configuração de Tarifas", "CONFIGURACAO_DE_TARIFAS"},
		{"  order_release  ", "ORDER_RELEASE"},
		{"LOCATION (DOM2 - AUTO)", "LOCATION_DOM2_AUTO"},
		{"--", ""},
		{"", ""},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Slug(tc.in))
		})
	}
}

func TestUniqueTokens(t *testing.T) {
	got := UniqueTokens([]string{"shipment", " SHIPMENT", "", "location", "Shipment"})
	assert.Equal(t, []string{"SHIPMENT", "LOCATION"}, got)
}

func TestWithoutToken(t *testing.T) {
	assert.Equal(t, []string{"B"}, WithoutToken([]string{"a", "B", "A "}, "A"))
}

func TestConvertToBool(t *testing.T) {
	assert.True(t, ConvertToBool(true))
	assert.True(t, ConvertToBool("Y"))
	assert.True(t, ConvertToBool("sim"))
	assert.True(t, ConvertToBool(float64(1)))
	assert.False(t, ConvertToBool("N"))
	assert.False(t, ConvertToBool(nil))
	assert.False(t, ConvertToBool(""))
}

func TestConvertToInt(t *testing.T) {
	n, err := ConvertToInt("5")
	assert.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = ConvertToInt(float64(9))
	assert.NoError(t, err)
	assert.Equal(t, 9, n)

	_, err = ConvertToInt("five")
	assert.Error(t, err)
}

func TestDeepCopyIsIndependent(t *testing.T) {
	src := map[string]interface{}{"a": []interface{}{map[string]interface{}{"b": "c"}}}
	cp := CopyMap(src)
	cp["a"].([]interface{})[0].(map[string]interface{})["b"] = "changed"
	assert.Equal(t, "c", src["a"].([]interface{})[0].(map[string]interface{})["b"])
}
