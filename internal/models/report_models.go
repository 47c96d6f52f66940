package models

import "time"

// SalesRow is one joined bill-item row fed into the report fold:
// completed bills x bill_items x products for a date range.
type SalesRow struct {
	BillID        int64
	BillCreatedAt time.Time
	BillTotal     float64
	ProductID     int64
	ProductName   string
	Category      string
	Brand         string
	BuyingPrice   float64
	UnitPrice     float64
	Quantity      int
}

// DailySales is aggregated bill revenue for a single calendar day.
type DailySales struct {
	Date       string  `json:"date"` // YYYY-MM-DD
	TotalSales float64 `json:"total_sales"`
	BillCount  int     `json:"bill_count"`
}

// CategorySales is aggregated item revenue for one category.
type CategorySales struct {
	Category   string  `json:"category"`
	TotalSales float64 `json:"total_sales"`
	Percentage float64 `json:"percentage"` // share of the grand total
}

// BrandSales is aggregated item revenue for one brand.
type BrandSales struct {
	Brand      string  `json:"brand"`
	TotalSales float64 `json:"total_sales"`
	Percentage float64 `json:"percentage"`
}

// ProductSalesData is the per-product performance summary.
type ProductSalesData struct {
	ProductID    int64      `json:"product_id"`
	Name         string     `json:"name"`
	Category     string     `json:"category"`
	Brand        string     `json:"brand"`
	BuyingPrice  float64    `json:"buying_price"`
	SellingPrice float64    `json:"selling_price"`
	QuantitySold int        `json:"quantity_sold"`
	Revenue      float64    `json:"revenue"`
	Profit       float64    `json:"profit"`
	LastSoldAt   *time.Time `json:"last_sold_at,omitempty"`
}

// SalesReport is the full aggregate for a closed date interval. It is derived
// on demand and never persisted.
type SalesReport struct {
	From           time.Time          `json:"from"`
	To             time.Time          `json:"to"`
	GrandTotal     float64            `json:"grand_total"`
	Daily          []DailySales       `json:"daily"`
	Categories     []CategorySales    `json:"categories"`
	Brands         []BrandSales       `json:"brands"`
	Products       []ProductSalesData `json:"products"`
	MostSelling    *ProductSalesData  `json:"most_selling,omitempty"`
	MostProfitable *ProductSalesData  `json:"most_profitable,omitempty"`
}

// TopSellingProduct pairs a product with how many units it sold.
type TopSellingProduct struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	SoldCount int    `json:"sold_count"`
}

// DashboardSummary holds key metrics for the dashboard.
type DashboardSummary struct {
	TotalSales         float64             `json:"total_sales"`
	TodaySales         float64             `json:"today_sales"`
	TotalProducts      int                 `json:"total_products"`
	LowStockCount      int                 `json:"low_stock_count"`
	OutOfStockCount    int                 `json:"out_of_stock_count"`
	TopSellingProducts []TopSellingProduct `json:"top_selling_products"`
}
