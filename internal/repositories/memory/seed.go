package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
)

type seedProduct struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	UnitPrice     int64     `json:"price"`
	OriginalPrice *int64    `json:"originalPrice"`
	Category      string    `json:"category"`
	ImageURL      string    `json:"imageUrl"`
	Badge         string    `json:"badge"`
	Rating        float64   `json:"rating"`
	ReviewCount   int       `json:"reviewCount"`
	InStock       *bool     `json:"inStock"`
	StockQuantity int       `json:"stockQuantity"`
	CreatedAt     time.Time `json:"createdAt"`
}

// LoadSeedFile reads a JSON array of products. Prices are minor units.
func LoadSeedFile(path string) ([]domain.Product, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("memory: open seed file: %w", err)
	}
	defer f.Close()
	return DecodeSeed(f)
}

// DecodeSeed decodes products from r. When inStock is omitted it follows the stock quantity.
func DecodeSeed(r io.Reader) ([]domain.Product, error) {
	var raw []seedProduct
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("memory: decode seed: %w", err)
	}

	products := make([]domain.Product, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, item := range raw {
		id := strings.TrimSpace(item.ID)
		switch {
		case id == "":
			return nil, fmt.Errorf("memory: seed entry %d: id is required", i)
		case item.UnitPrice < 0:
			return nil, fmt.Errorf("memory: seed entry %q: negative price", id)
		case item.UnitPrice > domain.MaxUnitPrice:
			return nil, fmt.Errorf("memory: seed entry %q: price exceeds %d", id, domain.MaxUnitPrice)
		case item.StockQuantity < 0:
			return nil, fmt.Errorf("memory: seed entry %q: negative stock", id)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("memory: seed entry %q: %w", id, errDuplicateSeed)
		}
		seen[id] = struct{}{}

		inStock := item.StockQuantity > 0
		if item.InStock != nil {
			inStock = *item.InStock
		}
		created := item.CreatedAt.UTC()
		products = append(products, domain.Product{
			ID:            id,
			Name:          strings.TrimSpace(item.Name),
			Description:   item.Description,
			UnitPrice:     item.UnitPrice,
			OriginalPrice: item.OriginalPrice,
			Category:      strings.TrimSpace(item.Category),
			ImageURL:      item.ImageURL,
			Badge:         item.Badge,
			Rating:        item.Rating,
			ReviewCount:   item.ReviewCount,
			InStock:       inStock,
			StockQuantity: item.StockQuantity,
			CreatedAt:     created,
			UpdatedAt:     created,
		})
	}
	return products, nil
}

var errDuplicateSeed = errors.New("duplicate product id")
