package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/orderlens/internal/datastore/entities"
)

func TestDisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		kind entities.EntityKind
		raw  string
		want string
	}{
		{"category title case", entities.KindCategory, "hot drinks", "Hot Drinks"},
		{"category from noisy raw", entities.KindCategory, "☕ HOT drinks!!", "Hot Drinks"},
		{"item trailing pcs", entities.KindItem, "Taco 12 pcs", "Taco"},
		{"item trailing pc no space", entities.KindItem, "Dumplings 6pc", "Dumplings"},
		{"item parenthesised", entities.KindItem, "Wings (10 pcs)", "Wings"},
		{"item times prefix", entities.KindItem, "Taco x2", "Taco"},
		{"item word ending in x", entities.KindItem, "Lunch Box 2", "Lunch Box"},
		{"item keeps spelling", entities.KindItem, "Crème Brûlée", "Crème Brûlée"},
		{"item only quantity", entities.KindItem, "12 pcs", "12 pcs"},
		{"item collapses spaces", entities.KindItem, "  Iced   Tea ", "Iced Tea"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			key, _ := Normalize(tt.raw)
			assert.Equal(t, tt.want, DisplayName(tt.kind, tt.raw, key))
		})
	}
}
