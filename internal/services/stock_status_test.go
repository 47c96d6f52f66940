package services

import (
	"testing"

	"retail_pos_backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func intPtr(i int) *int { return &i }

func TestClassifyStockPlainProduct(t *testing.T) {
	tests := []struct {
		name      string
		stock     int
		threshold int
		want      string
	}{
		{"zero stock is out of stock", 0, 5, models.StockStatusOutOfStock},
		{"stock at threshold is low", 5, 5, models.StockStatusLowStock},
		{"stock below threshold is low", 3, 5, models.StockStatusLowStock},
		{"stock above threshold is in stock", 6, 5, models.StockStatusInStock},
		{"single unit with zero threshold is in stock", 1, 0, models.StockStatusInStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &models.Product{Stock: tt.stock, LowStockThreshold: tt.threshold}
			assert.Equal(t, tt.want, ClassifyStock(p))
		})
	}
}

func TestClassifyStockVariantProduct(t *testing.T) {
	tests := []struct {
		name             string
		variantStocks    []int
		productThreshold int
		firstThreshold   *int
		want             string
	}{
		{"all variants empty", []int{0, 0, 0}, 5, nil, models.StockStatusOutOfStock},
		{"summed stock at product threshold", []int{2, 2, 1}, 5, nil, models.StockStatusLowStock},
		{"summed stock above product threshold", []int{4, 4}, 5, nil, models.StockStatusInStock},
		{"variant threshold overrides product threshold", []int{4, 4}, 5, intPtr(10), models.StockStatusLowStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &models.Product{
				TracksVariants:    true,
				Stock:             999, // ignored once variants are authoritative
				LowStockThreshold: tt.productThreshold,
			}
			for i, s := range tt.variantStocks {
				v := models.ProductVariant{Label: string(rune('S' + i)), Stock: s}
				if i == 0 {
					v.LowStockThreshold = tt.firstThreshold
				}
				p.Variants = append(p.Variants, v)
			}
			assert.Equal(t, tt.want, ClassifyStock(p))
		})
	}
}

func TestClassifyStockVariantProductWithoutVariants(t *testing.T) {
	// A variant product whose size rows were all removed has zero sellable
	// units regardless of the stale product-level counter.
	p := &models.Product{TracksVariants: true, Stock: 7, LowStockThreshold: 2}
	assert.Equal(t, models.StockStatusOutOfStock, ClassifyStock(p))
}
