package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "a****@example.com", MaskEmail("ana@example.com"))
	assert.Equal(t, "****", MaskEmail("nope"))
	assert.Equal(t, "", MaskEmail("  "))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "****01", MaskPhone("555-0101"))
	assert.Equal(t, "****", MaskPhone("7"))
}

func TestMaskPII(t *testing.T) {
	phone := "555-0101"
	out := MaskPII(map[string]any{
		"order_id": "42",
		"client": map[string]any{
			"email":   "ana@example.com",
			"phone":   &phone,
			"address": "Calle 1",
			"name":    "Ana",
		},
	})

	assert.Equal(t, "42", out["order_id"])
	client := out["client"].(map[string]any)
	assert.Equal(t, "a****@example.com", client["email"])
	assert.Equal(t, "****01", client["phone"])
	assert.Equal(t, "****", client["address"])
	assert.Equal(t, "Ana", client["name"])

	assert.Nil(t, MaskPII(nil))
}
