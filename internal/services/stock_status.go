package services

import "retail_pos_backend/internal/models"

// ClassifyStock maps a product's stock level to one of the three catalog
// states. The same three-way rule applies to both stock shapes: variant
// products compare the summed variant stock against the effective threshold,
// plain products compare their single counter. Pure and total: any well-formed
// product yields a status, never a panic.
func ClassifyStock(p *models.Product) string {
	total := p.TotalStock()
	if total == 0 {
		return models.StockStatusOutOfStock
	}
	if total <= p.EffectiveThreshold() {
		return models.StockStatusLowStock
	}
	return models.StockStatusInStock
}
