package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedJSON = `[
  {"id": "kurta", "name": " Cotton Kurta ", "price": 19999, "category": "apparel", "stockQuantity": 12, "rating": 4.5, "createdAt": "2024-05-01T10:00:00Z"},
  {"id": "scarf", "name": "Silk Scarf", "price": 89900, "originalPrice": 99900, "category": "apparel", "stockQuantity": 0},
  {"id": "lamp", "name": "Brass Lamp", "price": 5000, "category": "home", "stockQuantity": 3, "inStock": false}
]`

func TestDecodeSeed(t *testing.T) {
	products, err := DecodeSeed(strings.NewReader(seedJSON))
	require.NoError(t, err)
	require.Len(t, products, 3)

	assert.Equal(t, "Cotton Kurta", products[0].Name)
	assert.True(t, products[0].InStock)
	assert.Equal(t, products[0].CreatedAt, products[0].UpdatedAt)

	assert.False(t, products[1].InStock, "zero stock defaults to out of stock")
	require.NotNil(t, products[1].OriginalPrice)
	assert.Equal(t, int64(99900), *products[1].OriginalPrice)

	assert.False(t, products[2].InStock, "explicit flag wins over quantity")
}

func TestDecodeSeedRejectsBadEntries(t *testing.T) {
	cases := map[string]string{
		"missing id":    `[{"name": "x", "price": 1}]`,
		"negative":      `[{"id": "x", "price": -1}]`,
		"negative qty":  `[{"id": "x", "price": 1, "stockQuantity": -2}]`,
		"price too big": `[{"id": "x", "price": 10000000001}]`,
		"duplicate":     `[{"id": "x", "price": 1}, {"id": "x", "price": 2}]`,
		"unknown field": `[{"id": "x", "colour": "red"}]`,
		"not an array":  `{"id": "x"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSeed(strings.NewReader(raw))
			require.Error(t, err)
		})
	}
}

func TestLoadSeedFileFeedsRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(seedJSON), 0o600))

	products, err := LoadSeedFile(path)
	require.NoError(t, err)

	reg := NewRegistry(WithProducts(products...))
	got, err := reg.Products().FindByID(context.Background(), "lamp")
	require.NoError(t, err)
	assert.Equal(t, 3, got.StockQuantity)

	none, err := LoadSeedFile("  ")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = LoadSeedFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
