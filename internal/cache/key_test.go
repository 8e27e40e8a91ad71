package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKey_FieldOrderIndependent(t *testing.T) {
	a := map[string]any{
		"locale":   "en",
		"messages": []any{map[string]any{"role": "user", "content": "COE <price>"}},
		"context":  map[string]any{"b": 2, "a": 1},
	}
	b := map[string]any{
		"context":  map[string]any{"a": 1, "b": 2},
		"messages": []any{map[string]any{"content": "COE <price>", "role": "user"}},
		"locale":   "en",
	}

	ka, err := GenerateKey("chat", a)
	require.NoError(t, err)
	kb, err := GenerateKey("chat", b)
	require.NoError(t, err)

	assert.Equal(t, ka, kb)
	assert.Len(t, ka, 64)
}

func TestGenerateKey_StructAndMapAgree(t *testing.T) {
	type params struct {
		Locale string `json:"locale"`
		Query  string `json:"query"`
	}
	ks, err := GenerateKey("chat", params{Locale: "zh", Query: "road tax"})
	require.NoError(t, err)
	km, err := GenerateKey("chat", map[string]string{"query": "road tax", "locale": "zh"})
	require.NoError(t, err)

	assert.Equal(t, ks, km)
}

func TestGenerateKey_EndpointAndValuesMatter(t *testing.T) {
	params := map[string]any{"q": "coe"}
	k1, _ := GenerateKey("chat", params)
	k2, _ := GenerateKey("search", params)
	k3, _ := GenerateKey("chat", map[string]any{"q": "COE"})

	assert.NotEqual(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}

func TestCanonicalJSON_PreservesNumbersAndHTML(t *testing.T) {
	out, err := canonicalJSON(map[string]any{"z": 12345678901234567, "a": "<b>&"})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"<b>&","z":12345678901234567}`, out)
}

func TestGenerateKey_Unmarshalable(t *testing.T) {
	_, err := GenerateKey("chat", map[string]any{"fn": func() {}})
	assert.Error(t, err)
}
