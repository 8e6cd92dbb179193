package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"empty", "", "", false},
		{"whitespace only", "  \t\n", "", false},
		{"lowercases", "Latte", "latte", true},
		{"strips accents", "Crème Brûlée", "creme brulee", true},
		{"strips emoji", "☕ Hot Drinks 🔥", "hot drinks", true},
		{"strips flag sequence", "Fries 🇺🇸", "fries", true},
		{"strips punctuation", "Coca-Cola (Zero)!", "cocacola zero", true},
		{"trailing pcs", "Taco 12 pcs", "taco", true},
		{"trailing pc", "Dumpling 1 pc", "dumpling", true},
		{"leading number", "12 Tacos", "tacos", true},
		{"reordered quantity", "Tacos  12", "tacos", true},
		{"digits inside word kept", "7up Can", "7up can", true},
		{"pcs not trailing kept", "pcs special", "pcs special", true},
		{"collapses whitespace", "  Iced \t  Tea  ", "iced tea", true},
		{"only numbers", "12 34", "", false},
		{"only emoji", "🌮🌮", "", false},
		{"only unit", "6 pcs", "", false},
		{"non latin dropped", "拉面 Ramen", "ramen", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Normalize(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_SharedKeyForQuantityVariants(t *testing.T) {
	t.Parallel()

	a, okA := Normalize("12 Tacos")
	b, okB := Normalize("Tacos  12")
	assert.True(t, okA)
	assert.True(t, okB)
	assert.Equal(t, a, b)
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"Taco 12 pcs", "pcs 12", "12 pcs pc", "Crème Brûlée ☕", "A  B  C 1",
		"x", "Tacos pcs pcs", "ÅÄÖ 2pc", "Hot Drinks", "menu item #4 (large)",
	}
	for _, in := range inputs {
		once, ok := Normalize(in)
		if !ok {
			continue
		}
		twice, ok := Normalize(once)
		assert.True(t, ok, "input %q", in)
		assert.Equal(t, once, twice, "input %q", in)
	}
}
