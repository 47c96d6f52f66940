package models

import "time"

// Stock status values reported alongside catalog products.
const (
	StockStatusInStock    = "in-stock"
	StockStatusLowStock   = "low-stock"
	StockStatusOutOfStock = "out-of-stock"
)

// Product represents a catalog product. Stock is modelled as a tagged variant:
// when TracksVariants is true the per-size rows in Variants are authoritative
// and the plain Stock/LowStockThreshold columns are ignored; otherwise the
// plain columns hold the single counter. TotalStock and EffectiveThreshold are
// the only accessors other code should use.
type Product struct {
	ID                 int64            `json:"id" db:"id"`
	Name               string           `json:"name" db:"name" binding:"required"`
	Brand              string           `json:"brand" db:"brand" binding:"required"`
	Category           string           `json:"category" db:"category" binding:"required"`
	Description        *string          `json:"description,omitempty" db:"description"`
	Color              *string          `json:"color,omitempty" db:"color"`
	ItemNumber         string           `json:"item_number" db:"item_number" binding:"required"`
	Price              float64          `json:"price" db:"price" binding:"required,gt=0"`
	BuyingPrice        float64          `json:"buying_price" db:"buying_price"`
	DiscountPercentage float64          `json:"discount_percentage" db:"discount_percentage"`
	Image              *string          `json:"image,omitempty" db:"image"`
	TracksVariants     bool             `json:"tracks_variants" db:"tracks_variants"`
	Stock              int              `json:"stock" db:"stock"`
	LowStockThreshold  int              `json:"low_stock_threshold" db:"low_stock_threshold"`
	CreatedAt          time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at" db:"updated_at"`
	Variants           []ProductVariant `json:"variants,omitempty"`
	StockStatus        string           `json:"stock_status,omitempty"` // computed, not persisted
}

// ProductVariant is one sellable configuration of a product (e.g. a size)
// with its own stock counter.
type ProductVariant struct {
	ID                int64     `json:"id" db:"id"`
	ProductID         int64     `json:"product_id" db:"product_id"`
	Label             string    `json:"label" db:"label" binding:"required"`
	Stock             int       `json:"stock" db:"stock"`
	LowStockThreshold *int      `json:"low_stock_threshold,omitempty" db:"low_stock_threshold"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// TotalStock resolves the tagged stock model into a single counter.
func (p *Product) TotalStock() int {
	if !p.TracksVariants {
		return p.Stock
	}
	total := 0
	for _, v := range p.Variants {
		total += v.Stock
	}
	return total
}

// EffectiveThreshold is the low-stock boundary for the product as a whole.
// Variant products use the first variant's threshold, falling back to the
// product-level one when the variant does not carry its own.
func (p *Product) EffectiveThreshold() int {
	if p.TracksVariants && len(p.Variants) > 0 && p.Variants[0].LowStockThreshold != nil {
		return *p.Variants[0].LowStockThreshold
	}
	return p.LowStockThreshold
}

// FindVariant returns the variant with the given ID, or nil.
func (p *Product) FindVariant(variantID int64) *ProductVariant {
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return &p.Variants[i]
		}
	}
	return nil
}

// ProductFilters defines the available filters for querying products.
type ProductFilters struct {
	Category *string `form:"category"`
	Brand    *string `form:"brand"`
	Search   *string `form:"search"` // matches name or item number
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}
