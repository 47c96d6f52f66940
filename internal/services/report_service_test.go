package services

import (
	"testing"
	"time"

	"retail_pos_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salesRow(billID int64, createdAt time.Time, billTotal float64, productID int64, name, category, brand string, buying, unit float64, qty int) models.SalesRow {
	return models.SalesRow{
		BillID:        billID,
		BillCreatedAt: createdAt,
		BillTotal:     billTotal,
		ProductID:     productID,
		ProductName:   name,
		Category:      category,
		Brand:         brand,
		BuyingPrice:   buying,
		UnitPrice:     unit,
		Quantity:      qty,
	}
}

func TestSalesReportFold(t *testing.T) {
	day1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)

	billRepo := newFakeBillRepo()
	billRepo.salesRows = []models.SalesRow{
		// Bill 1 on day 1: two items, bill total 250.
		salesRow(1, day1, 250, 101, "Sneaker", "Shoes", "Acme", 60, 100, 2),
		salesRow(1, day1, 250, 102, "Cap", "Accessories", "Bravo", 10, 25, 2),
		// Bill 2 on day 1: one item, bill total 100.
		salesRow(2, day1.Add(2*time.Hour), 100, 101, "Sneaker", "Shoes", "Acme", 60, 100, 1),
		// Bill 3 on day 2.
		salesRow(3, day2, 75, 102, "Cap", "Accessories", "Bravo", 10, 25, 3),
	}

	svc := NewReportService(billRepo, newFakeProductRepo())
	report, err := svc.GetSalesReport(day1.AddDate(0, 0, -1), day2.AddDate(0, 0, 1))
	require.NoError(t, err)

	// Grand total and daily rows come from bill totals, counted once per bill.
	assert.InDelta(t, 425.0, report.GrandTotal, 0.001)
	require.Len(t, report.Daily, 2)
	assert.Equal(t, "2026-03-01", report.Daily[0].Date)
	assert.InDelta(t, 350.0, report.Daily[0].TotalSales, 0.001)
	assert.Equal(t, 2, report.Daily[0].BillCount)
	assert.Equal(t, "2026-03-02", report.Daily[1].Date)
	assert.InDelta(t, 75.0, report.Daily[1].TotalSales, 0.001)
	assert.Equal(t, 1, report.Daily[1].BillCount)

	// Category and brand revenue come from item line amounts.
	require.Len(t, report.Categories, 2)
	assert.Equal(t, "Shoes", report.Categories[0].Category)
	assert.InDelta(t, 300.0, report.Categories[0].TotalSales, 0.001)
	assert.Equal(t, "Accessories", report.Categories[1].Category)
	assert.InDelta(t, 125.0, report.Categories[1].TotalSales, 0.001)

	require.Len(t, report.Brands, 2)
	assert.Equal(t, "Acme", report.Brands[0].Brand)
	assert.InDelta(t, 300.0, report.Brands[0].TotalSales, 0.001)

	// Per-product aggregates.
	require.Len(t, report.Products, 2)
	cap := report.Products[0]
	assert.Equal(t, "Cap", cap.Name)
	assert.Equal(t, 5, cap.QuantitySold)
	assert.InDelta(t, 125.0, cap.Revenue, 0.001)
	assert.InDelta(t, 75.0, cap.Profit, 0.001) // (25-10)*5
	require.NotNil(t, cap.LastSoldAt)
	assert.True(t, cap.LastSoldAt.Equal(day2))

	sneaker := report.Products[1]
	assert.Equal(t, 3, sneaker.QuantitySold)
	assert.InDelta(t, 120.0, sneaker.Profit, 0.001) // (100-60)*3

	// Most selling is by quantity, most profitable by profit.
	require.NotNil(t, report.MostSelling)
	assert.Equal(t, "Cap", report.MostSelling.Name)
	require.NotNil(t, report.MostProfitable)
	assert.Equal(t, "Sneaker", report.MostProfitable.Name)
}

func TestSalesReportQuantityTieBreaksAlphabetically(t *testing.T) {
	day := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	billRepo := newFakeBillRepo()
	billRepo.salesRows = []models.SalesRow{
		salesRow(1, day, 100, 201, "Zebra Shirt", "Apparel", "Acme", 5, 50, 2),
		salesRow(1, day, 100, 202, "Alpha Shirt", "Apparel", "Acme", 5, 50, 2),
	}

	svc := NewReportService(billRepo, newFakeProductRepo())
	report, err := svc.GetSalesReport(day.AddDate(0, 0, -1), day.AddDate(0, 0, 1))
	require.NoError(t, err)

	require.Len(t, report.Products, 2)
	assert.Equal(t, "Alpha Shirt", report.Products[0].Name)
	assert.Equal(t, "Zebra Shirt", report.Products[1].Name)
	assert.Equal(t, "Alpha Shirt", report.MostSelling.Name)
}

func TestSalesReportEmptyRange(t *testing.T) {
	svc := NewReportService(newFakeBillRepo(), newFakeProductRepo())
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	report, err := svc.GetSalesReport(from, from.AddDate(0, 1, 0))
	require.NoError(t, err)

	assert.Zero(t, report.GrandTotal)
	assert.Empty(t, report.Daily)
	assert.Empty(t, report.Categories)
	assert.Empty(t, report.Brands)
	assert.Empty(t, report.Products)
	assert.Nil(t, report.MostSelling)
	assert.Nil(t, report.MostProfitable)
}

func TestSalesReportPercentagesSumFromGrandTotal(t *testing.T) {
	day := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	billRepo := newFakeBillRepo()
	// One bill, total 200, all of it in one category.
	billRepo.salesRows = []models.SalesRow{
		salesRow(1, day, 200, 301, "Boot", "Shoes", "Acme", 80, 200, 1),
	}

	svc := NewReportService(billRepo, newFakeProductRepo())
	report, err := svc.GetSalesReport(day.AddDate(0, 0, -1), day.AddDate(0, 0, 1))
	require.NoError(t, err)

	require.Len(t, report.Categories, 1)
	assert.InDelta(t, 100.0, report.Categories[0].Percentage, 0.001)
}

func TestDashboardSummary(t *testing.T) {
	now := time.Now()

	billRepo := newFakeBillRepo()
	billRepo.bills[1] = &models.Bill{ID: 1, Status: BillStatusCompleted, Total: 300, CreatedAt: now.AddDate(0, 0, -3)}
	billRepo.bills[2] = &models.Bill{ID: 2, Status: BillStatusCompleted, Total: 120, CreatedAt: now}
	billRepo.bills[3] = &models.Bill{ID: 3, Status: BillStatusCancelled, Total: 999, CreatedAt: now}
	billRepo.salesRows = []models.SalesRow{
		salesRow(1, now.AddDate(0, 0, -3), 300, 401, "Boot", "Shoes", "Acme", 80, 150, 2),
		salesRow(2, now, 120, 402, "Cap", "Accessories", "Bravo", 10, 40, 3),
	}

	productRepo := newFakeProductRepo()
	productRepo.addProduct(models.Product{Name: "Boot", Stock: 10, LowStockThreshold: 3})
	productRepo.addProduct(models.Product{Name: "Cap", Stock: 2, LowStockThreshold: 3})
	productRepo.addProduct(models.Product{Name: "Sock", Stock: 0, LowStockThreshold: 3})

	svc := NewReportService(billRepo, productRepo)
	summary, err := svc.GetDashboardSummary()
	require.NoError(t, err)

	assert.InDelta(t, 420.0, summary.TotalSales, 0.001)
	assert.InDelta(t, 120.0, summary.TodaySales, 0.001)
	assert.Equal(t, 3, summary.TotalProducts)
	assert.Equal(t, 1, summary.LowStockCount)
	assert.Equal(t, 1, summary.OutOfStockCount)
	require.Len(t, summary.TopSellingProducts, 2)
	assert.Equal(t, "Cap", summary.TopSellingProducts[0].Name)
	assert.Equal(t, 3, summary.TopSellingProducts[0].SoldCount)
}
