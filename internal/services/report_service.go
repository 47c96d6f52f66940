package services

import (
	"fmt"
	"sort"
	"time"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/repositories"
)

// --- ReportService Interface ---
type ReportService interface {
	GetSalesReport(from, to time.Time) (*models.SalesReport, error)
	GetDashboardSummary() (*models.DashboardSummary, error)
}

// --- reportService Implementation ---
type reportService struct {
	billRepo    repositories.BillRepository
	productRepo repositories.ProductRepository
}

// NewReportService creates a new instance of ReportService.
func NewReportService(br repositories.BillRepository, pr repositories.ProductRepository) ReportService {
	return &reportService{billRepo: br, productRepo: pr}
}

// GetSalesReport folds the joined sales rows for [from, to] into the daily,
// category, brand and per-product aggregates in a single pass. Daily revenue
// comes from bill totals counted once per bill; category, brand and product
// revenue come from item line amounts, so the two views can differ by exactly
// the order-level tax and discount.
func (s *reportService) GetSalesReport(from, to time.Time) (*models.SalesReport, error) {
	rows, err := s.billRepo.GetSalesRows(&from, &to)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales rows: %w", err)
	}

	report := &models.SalesReport{
		From:       from,
		To:         to,
		Daily:      []models.DailySales{},
		Categories: []models.CategorySales{},
		Brands:     []models.BrandSales{},
		Products:   []models.ProductSalesData{},
	}

	seenBills := make(map[int64]bool)
	dailyByDate := make(map[string]*models.DailySales)
	categoryTotals := make(map[string]float64)
	brandTotals := make(map[string]float64)
	productData := make(map[int64]*models.ProductSalesData)
	lastSold := make(map[int64]time.Time)

	for i := range rows {
		row := &rows[i]
		lineRevenue := row.UnitPrice * float64(row.Quantity)

		// Bill-level figures fold in once per bill, not once per item row.
		if !seenBills[row.BillID] {
			seenBills[row.BillID] = true
			date := row.BillCreatedAt.Format("2006-01-02")
			day, ok := dailyByDate[date]
			if !ok {
				day = &models.DailySales{Date: date}
				dailyByDate[date] = day
			}
			day.TotalSales += row.BillTotal
			day.BillCount++
			report.GrandTotal += row.BillTotal
		}

		categoryTotals[row.Category] += lineRevenue
		brandTotals[row.Brand] += lineRevenue

		pd, ok := productData[row.ProductID]
		if !ok {
			pd = &models.ProductSalesData{
				ProductID:    row.ProductID,
				Name:         row.ProductName,
				Category:     row.Category,
				Brand:        row.Brand,
				BuyingPrice:  row.BuyingPrice,
				SellingPrice: row.UnitPrice,
			}
			productData[row.ProductID] = pd
		}
		pd.QuantitySold += row.Quantity
		pd.Revenue += lineRevenue
		pd.Profit += (row.UnitPrice - row.BuyingPrice) * float64(row.Quantity)
		if t, ok := lastSold[row.ProductID]; !ok || row.BillCreatedAt.After(t) {
			lastSold[row.ProductID] = row.BillCreatedAt
		}
	}

	for _, day := range dailyByDate {
		report.Daily = append(report.Daily, *day)
	}
	sort.Slice(report.Daily, func(i, j int) bool {
		return report.Daily[i].Date < report.Daily[j].Date
	})

	for category, total := range categoryTotals {
		cs := models.CategorySales{Category: category, TotalSales: total}
		if report.GrandTotal > 0 {
			cs.Percentage = total / report.GrandTotal * 100
		}
		report.Categories = append(report.Categories, cs)
	}
	sort.Slice(report.Categories, func(i, j int) bool {
		a, b := report.Categories[i], report.Categories[j]
		if a.TotalSales != b.TotalSales {
			return a.TotalSales > b.TotalSales
		}
		return a.Category < b.Category
	})

	for brand, total := range brandTotals {
		bs := models.BrandSales{Brand: brand, TotalSales: total}
		if report.GrandTotal > 0 {
			bs.Percentage = total / report.GrandTotal * 100
		}
		report.Brands = append(report.Brands, bs)
	}
	sort.Slice(report.Brands, func(i, j int) bool {
		a, b := report.Brands[i], report.Brands[j]
		if a.TotalSales != b.TotalSales {
			return a.TotalSales > b.TotalSales
		}
		return a.Brand < b.Brand
	})

	for productID, pd := range productData {
		if t, ok := lastSold[productID]; ok {
			soldAt := t
			pd.LastSoldAt = &soldAt
		}
		report.Products = append(report.Products, *pd)
	}
	// Ties on quantity resolve alphabetically so the ordering is stable
	// across runs with identical data.
	sort.Slice(report.Products, func(i, j int) bool {
		a, b := report.Products[i], report.Products[j]
		if a.QuantitySold != b.QuantitySold {
			return a.QuantitySold > b.QuantitySold
		}
		return a.Name < b.Name
	})

	if len(report.Products) > 0 {
		top := report.Products[0]
		report.MostSelling = &top

		best := report.Products[0]
		for _, pd := range report.Products[1:] {
			if pd.Profit > best.Profit || (pd.Profit == best.Profit && pd.Name < best.Name) {
				best = pd
			}
		}
		report.MostProfitable = &best
	}

	return report, nil
}

// GetDashboardSummary assembles the landing-page metrics: lifetime and today's
// completed sales, catalog stock health counts and the top five sellers.
func (s *reportService) GetDashboardSummary() (*models.DashboardSummary, error) {
	summary := &models.DashboardSummary{TopSellingProducts: []models.TopSellingProduct{}}

	totalSales, err := s.billRepo.SumCompletedTotals(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to sum total sales: %w", err)
	}
	summary.TotalSales = totalSales

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todaySales, err := s.billRepo.SumCompletedTotals(&startOfDay, &now)
	if err != nil {
		return nil, fmt.Errorf("failed to sum today's sales: %w", err)
	}
	summary.TodaySales = todaySales

	products, totalCount, err := s.productRepo.GetProducts(models.ProductFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to load products for dashboard: %w", err)
	}
	summary.TotalProducts = totalCount
	for i := range products {
		switch ClassifyStock(&products[i]) {
		case models.StockStatusLowStock:
			summary.LowStockCount++
		case models.StockStatusOutOfStock:
			summary.OutOfStockCount++
		}
	}

	rows, err := s.billRepo.GetSalesRows(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales rows for top sellers: %w", err)
	}
	soldByProduct := make(map[int64]*models.TopSellingProduct)
	for i := range rows {
		row := &rows[i]
		tp, ok := soldByProduct[row.ProductID]
		if !ok {
			tp = &models.TopSellingProduct{ProductID: row.ProductID, Name: row.ProductName}
			soldByProduct[row.ProductID] = tp
		}
		tp.SoldCount += row.Quantity
	}
	topSellers := make([]models.TopSellingProduct, 0, len(soldByProduct))
	for _, tp := range soldByProduct {
		topSellers = append(topSellers, *tp)
	}
	sort.Slice(topSellers, func(i, j int) bool {
		a, b := topSellers[i], topSellers[j]
		if a.SoldCount != b.SoldCount {
			return a.SoldCount > b.SoldCount
		}
		return a.Name < b.Name
	})
	if len(topSellers) > 5 {
		topSellers = topSellers[:5]
	}
	summary.TopSellingProducts = topSellers

	return summary, nil
}
